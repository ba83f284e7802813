package secsvc

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// KeyringService is a Service on the OS keyring (Secret Service on Linux,
// Credential Manager on Windows, Keychain on macOS without cgo). The
// keyring model is (service, account) -> password, so only generic
// passwords are supported, queries must name service and account, and
// access controls cannot be attached.
type KeyringService struct {
	prefix string
}

// Keyring creates an OS keyring service. prefix namespaces this
// application's items within the user keyring.
func Keyring(prefix string) *KeyringService {
	return &KeyringService{prefix: prefix}
}

func (s *KeyringService) address(attrs Attributes) (service, account string, err error) {
	svc, _ := attrs[AttrService].(string)
	acct, _ := attrs[AttrAccount].(string)
	if svc == "" || acct == "" {
		return "", "", fmt.Errorf("%w: keyring service requires service and account", ErrParam)
	}
	return s.prefix + "." + svc, acct, nil
}

func (s *KeyringService) Add(attrs Attributes, data []byte) (string, error) {
	if class, _ := attrs[AttrClass].(string); class != ClassGenericPassword {
		return "", fmt.Errorf("%w: keyring service stores generic passwords only", ErrParam)
	}
	if ctl, _ := attrs[AttrAccessControl].(string); ctl != "" {
		return "", fmt.Errorf("%w: keyring service cannot attach access controls", ErrParam)
	}
	service, account, err := s.address(attrs)
	if err != nil {
		return "", err
	}
	if _, err := keyring.Get(service, account); err == nil {
		return "", ErrDuplicate
	}
	if err := keyring.Set(service, account, string(data)); err != nil {
		return "", fmt.Errorf("keyring set: %w", err)
	}
	return service + "\x00" + account, nil
}

func (s *KeyringService) Copy(q Query) ([]Item, error) {
	if q.Class != "" && q.Class != ClassGenericPassword {
		return nil, ErrNotFound
	}
	service, account, err := s.address(q.Attrs)
	if err != nil {
		return nil, err
	}
	secret, err := keyring.Get(service, account)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("keyring get: %w", err)
	}
	svc, _ := q.Attrs[AttrService].(string)
	return []Item{{
		Ref: service + "\x00" + account,
		Attrs: Attributes{
			AttrClass:   ClassGenericPassword,
			AttrService: svc,
			AttrAccount: account,
		},
		Data: []byte(secret),
	}}, nil
}

func (s *KeyringService) Delete(q Query) (int, error) {
	service, account, err := s.address(q.Attrs)
	if err != nil {
		return 0, err
	}
	if err := keyring.Delete(service, account); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("keyring delete: %w", err)
	}
	return 1, nil
}
