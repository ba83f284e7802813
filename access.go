package keyward

import (
	"fmt"
	"strings"
)

// Accessibility is the device-lock-state window in which an item is
// readable.
type Accessibility int

const (
	// AccessibleWhenUnlocked is the default for stored items.
	AccessibleWhenUnlocked Accessibility = iota + 1
	AccessibleWhenUnlockedThisDeviceOnly
	AccessibleAfterFirstUnlock
	AccessibleAfterFirstUnlockThisDeviceOnly
	AccessibleWhenPasscodeSetThisDeviceOnly
)

// token is the attribute-dictionary encoding of an accessibility level.
func (a Accessibility) token() string {
	switch a {
	case AccessibleWhenUnlocked:
		return "ak"
	case AccessibleWhenUnlockedThisDeviceOnly:
		return "aku"
	case AccessibleAfterFirstUnlock:
		return "ck"
	case AccessibleAfterFirstUnlockThisDeviceOnly:
		return "cku"
	case AccessibleWhenPasscodeSetThisDeviceOnly:
		return "akpu"
	default:
		return ""
	}
}

// AuthConstraint is a user-presence requirement attached to an item.
type AuthConstraint int

const (
	ConstraintBiometry AuthConstraint = iota + 1
	// ConstraintBiometryCurrentSet invalidates the constraint when the
	// enrolled biometric set changes.
	ConstraintBiometryCurrentSet
	ConstraintPasscode
)

func (c AuthConstraint) token() string {
	switch c {
	case ConstraintBiometry:
		return "bio"
	case ConstraintBiometryCurrentSet:
		return "bio-current"
	case ConstraintPasscode:
		return "passcode"
	default:
		return ""
	}
}

// Conjunction is how multiple authentication constraints combine.
type Conjunction int

const (
	// MatchAny satisfies the control when any one constraint passes.
	MatchAny Conjunction = iota
	// MatchAll requires every constraint to pass.
	MatchAll
)

// AccessPolicy is the accessibility window plus optional authentication
// constraints for a stored item. Immutable once constructed.
type AccessPolicy struct {
	accessibility Accessibility
	constraints   []AuthConstraint
	conjunction   Conjunction
}

// PolicyOption configures NewAccessPolicy.
type PolicyOption func(*AccessPolicy)

// WithConstraint adds an authentication constraint to the policy.
func WithConstraint(c AuthConstraint) PolicyOption {
	return func(p *AccessPolicy) { p.constraints = append(p.constraints, c) }
}

// WithConjunction sets how multiple constraints combine.
func WithConjunction(j Conjunction) PolicyOption {
	return func(p *AccessPolicy) { p.conjunction = j }
}

// NewAccessPolicy constructs an immutable access policy.
func NewAccessPolicy(a Accessibility, opts ...PolicyOption) *AccessPolicy {
	p := &AccessPolicy{accessibility: a}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Accessibility returns the policy's accessibility window.
func (p *AccessPolicy) Accessibility() Accessibility { return p.accessibility }

// AccessControl is a compiled access policy with at least one
// authentication constraint.
type AccessControl struct {
	accessibility Accessibility
	constraints   []AuthConstraint
	conjunction   Conjunction
}

// Compile translates the policy. With no authentication constraint the
// result is nil and the policy lowers to a bare accessibility tag; with
// constraints a non-nil AccessControl is produced. Invalid combinations
// fail with ErrAccessControl.
func (p *AccessPolicy) Compile() (*AccessControl, error) {
	if p.accessibility.token() == "" {
		return nil, fmt.Errorf("%w: unknown accessibility level %d", ErrAccessControl, p.accessibility)
	}
	if len(p.constraints) == 0 {
		return nil, nil
	}
	seen := make(map[AuthConstraint]bool)
	for _, c := range p.constraints {
		if c.token() == "" {
			return nil, fmt.Errorf("%w: unknown constraint %d", ErrAccessControl, c)
		}
		if seen[c] {
			return nil, fmt.Errorf("%w: duplicate constraint %q", ErrAccessControl, c.token())
		}
		seen[c] = true
	}
	if seen[ConstraintBiometry] && seen[ConstraintBiometryCurrentSet] {
		return nil, fmt.Errorf("%w: biometry and biometry-current-set conflict", ErrAccessControl)
	}
	ctl := &AccessControl{
		accessibility: p.accessibility,
		constraints:   append([]AuthConstraint(nil), p.constraints...),
		conjunction:   p.conjunction,
	}
	return ctl, nil
}

// token is the attribute-dictionary encoding of the compiled control:
// constraint tokens joined by "/" (any) or "+" (all).
func (c *AccessControl) token() string {
	sep := "/"
	if c.conjunction == MatchAll {
		sep = "+"
	}
	tokens := make([]string, len(c.constraints))
	for i, con := range c.constraints {
		tokens[i] = con.token()
	}
	return strings.Join(tokens, sep)
}
