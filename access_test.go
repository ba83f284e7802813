package keyward

import (
	"errors"
	"testing"
)

func TestCompileWithoutConstraintIsNil(t *testing.T) {
	policy := NewAccessPolicy(AccessibleAfterFirstUnlock)
	ctl, err := policy.Compile()
	fatalIf(t, err)
	if ctl != nil {
		t.Error("policy without auth constraint should compile to nil")
	}
}

func TestCompileWithConstraint(t *testing.T) {
	policy := NewAccessPolicy(AccessibleWhenUnlockedThisDeviceOnly,
		WithConstraint(ConstraintBiometry))
	ctl, err := policy.Compile()
	fatalIf(t, err)
	if ctl == nil {
		t.Fatal("policy with auth constraint should compile to non-nil")
	}
	if ctl.token() != "bio" {
		t.Errorf("token: got %q", ctl.token())
	}
}

func TestCompileConjunctionTokens(t *testing.T) {
	any := NewAccessPolicy(AccessibleWhenUnlocked,
		WithConstraint(ConstraintBiometry),
		WithConstraint(ConstraintPasscode))
	ctl, err := any.Compile()
	fatalIf(t, err)
	if ctl.token() != "bio/passcode" {
		t.Errorf("any conjunction: got %q", ctl.token())
	}

	all := NewAccessPolicy(AccessibleWhenUnlocked,
		WithConstraint(ConstraintBiometry),
		WithConstraint(ConstraintPasscode),
		WithConjunction(MatchAll))
	ctl, err = all.Compile()
	fatalIf(t, err)
	if ctl.token() != "bio+passcode" {
		t.Errorf("all conjunction: got %q", ctl.token())
	}
}

func TestCompileRejectsConflicts(t *testing.T) {
	dup := NewAccessPolicy(AccessibleWhenUnlocked,
		WithConstraint(ConstraintBiometry),
		WithConstraint(ConstraintBiometry))
	if _, err := dup.Compile(); !errors.Is(err, ErrAccessControl) {
		t.Errorf("duplicate constraint: expected ErrAccessControl, got %v", err)
	}

	conflict := NewAccessPolicy(AccessibleWhenUnlocked,
		WithConstraint(ConstraintBiometry),
		WithConstraint(ConstraintBiometryCurrentSet))
	if _, err := conflict.Compile(); !errors.Is(err, ErrAccessControl) {
		t.Errorf("conflicting constraints: expected ErrAccessControl, got %v", err)
	}

	bad := NewAccessPolicy(Accessibility(99))
	if _, err := bad.Compile(); !errors.Is(err, ErrAccessControl) {
		t.Errorf("bad accessibility: expected ErrAccessControl, got %v", err)
	}
}

func TestStoreRejectsBadPolicy(t *testing.T) {
	kc := testKeychain()
	q := accountQuery("bad-policy")
	policy := NewAccessPolicy(AccessibleWhenUnlocked,
		WithConstraint(ConstraintBiometry),
		WithConstraint(ConstraintBiometry))

	err := kc.Store(q, Password("v"), policy)
	if !errors.Is(err, ErrAccessControl) {
		t.Fatalf("expected ErrAccessControl, got %v", err)
	}
	var kerr *Error
	if !errors.As(err, &kerr) || kerr.Status != StatusParam {
		t.Errorf("expected StatusParam, got %+v", kerr)
	}
}
