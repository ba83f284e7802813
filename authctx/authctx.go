// Package authctx provides authentication contexts for reads of keychain
// items stored under an access control. A context attached to a query
// drives (or suppresses) the user-presence prompt.
package authctx

import "errors"

// ErrDenied is returned when the user (or policy) refuses authentication.
var ErrDenied = errors.New("authentication denied")

// ErrUnsupported is returned on platforms with no biometric or
// passcode-equivalent prompt available.
var ErrUnsupported = errors.New("no authentication mechanism on this platform")

// Context authenticates the user before a protected item is released.
// Authenticate blocks until the prompt resolves and returns nil on
// success.
type Context interface {
	Authenticate(reason string) error
}

// Func adapts a function to a Context.
type Func func(reason string) error

func (f Func) Authenticate(reason string) error { return f(reason) }

// Allow returns a context that authenticates unconditionally. For tests
// and for pre-authorized flows.
func Allow() Context {
	return Func(func(string) error { return nil })
}

// Deny returns a context that refuses every prompt without user
// interaction.
func Deny() Context {
	return Func(func(string) error { return ErrDenied })
}
