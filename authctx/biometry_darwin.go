//go:build darwin

package authctx

import (
	"fmt"

	touchid "github.com/lox/go-touchid"
)

// Biometry returns a context that prompts with Touch ID.
func Biometry() Context {
	return Func(func(reason string) error {
		ok, err := touchid.Authenticate(reason)
		if err != nil {
			return fmt.Errorf("touch id: %w", err)
		}
		if !ok {
			return ErrDenied
		}
		return nil
	})
}
