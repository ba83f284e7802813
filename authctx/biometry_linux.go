//go:build linux

package authctx

import (
	"fmt"

	"github.com/amenzhinsky/go-polkit"
)

// actionID is the polkit action authorized by the prompt. Fingerprint
// versus password is the polkit agent's decision, not ours.
const actionID = "com.keyward.unlock"

// Biometry returns a context that prompts through the session's polkit
// agent.
func Biometry() Context {
	return Func(func(reason string) error {
		authority, err := polkit.NewAuthority()
		if err != nil {
			return fmt.Errorf("polkit: %w", err)
		}
		result, err := authority.CheckAuthorization(
			actionID,
			nil,
			polkit.CheckAuthorizationAllowUserInteraction, "",
		)
		if err != nil {
			return fmt.Errorf("polkit: %w", err)
		}
		if !result.IsAuthorized {
			return ErrDenied
		}
		return nil
	})
}
