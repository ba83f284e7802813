//go:build darwin

package secsvc

import (
	"errors"
	"fmt"
	"strconv"

	gokeychain "github.com/keybase/go-keychain"
)

// SystemService is a Service on the macOS Keychain. All item classes are
// stored as generic passwords holding the canonical byte encoding; the
// non-password classes and internet-password specifics (server, port,
// protocol, path) are folded into the service attribute, since the
// Security framework bridge exposes only service and account. Access
// control prompts are handled by the OS, not by this package.
type SystemService struct {
	accessGroup string
}

// System creates a macOS Keychain service. accessGroup may be empty.
func System(accessGroup string) *SystemService {
	return &SystemService{accessGroup: accessGroup}
}

// systemService folds class-specific addressing into one service string.
func systemService(attrs Attributes) string {
	class, _ := attrs[AttrClass].(string)
	switch class {
	case ClassGenericPassword:
		svc, _ := attrs[AttrService].(string)
		return svc
	case ClassInternetPassword:
		server, _ := attrs[AttrServer].(string)
		port, _ := attrs[AttrPort].(int)
		proto, _ := attrs[AttrProtocol].(string)
		path, _ := attrs[AttrPath].(string)
		return proto + "://" + server + ":" + strconv.Itoa(port) + path
	default:
		tag, _ := attrs[AttrApplicationTag].(string)
		if tag == "" {
			tag, _ = attrs[AttrSubject].(string)
		}
		return "keyward." + class + "." + tag
	}
}

func (s *SystemService) newItem(attrs Attributes) gokeychain.Item {
	item := gokeychain.NewItem()
	item.SetSecClass(gokeychain.SecClassGenericPassword)
	item.SetService(systemService(attrs))
	if acct, ok := attrs[AttrAccount].(string); ok {
		item.SetAccount(acct)
	}
	if label, ok := attrs[AttrLabel].(string); ok {
		item.SetLabel(label)
	}
	if s.accessGroup != "" {
		item.SetAccessGroup(s.accessGroup)
	}
	return item
}

var accessibleTokens = map[string]gokeychain.Accessible{
	"ak":   gokeychain.AccessibleWhenUnlocked,
	"aku":  gokeychain.AccessibleWhenUnlockedThisDeviceOnly,
	"ck":   gokeychain.AccessibleAfterFirstUnlock,
	"cku":  gokeychain.AccessibleAfterFirstUnlockThisDeviceOnly,
	"akpu": gokeychain.AccessibleWhenPasscodeSetThisDeviceOnly,
}

func (s *SystemService) Add(attrs Attributes, data []byte) (string, error) {
	item := s.newItem(attrs)
	item.SetData(data)
	if sync, ok := attrs[AttrSynchronizable].(bool); ok && sync {
		item.SetSynchronizable(gokeychain.SynchronizableYes)
	} else {
		item.SetSynchronizable(gokeychain.SynchronizableNo)
	}
	if tok, ok := attrs[AttrAccessible].(string); ok {
		if acc, ok := accessibleTokens[tok]; ok {
			item.SetAccessible(acc)
		}
	}

	err := gokeychain.AddItem(item)
	if errors.Is(err, gokeychain.ErrorDuplicateItem) {
		return "", ErrDuplicate
	}
	if err != nil {
		return "", fmt.Errorf("keychain add: %w", err)
	}
	acct, _ := attrs[AttrAccount].(string)
	return systemService(attrs) + "\x00" + acct, nil
}

func (s *SystemService) Copy(q Query) ([]Item, error) {
	attrs := q.Attrs.Clone()
	if q.Class != "" {
		attrs[AttrClass] = q.Class
	}
	query := s.newItem(attrs)
	query.SetMatchLimit(gokeychain.MatchLimitAll)
	query.SetReturnData(true)
	query.SetReturnAttributes(true)

	results, err := gokeychain.QueryItem(query)
	if err != nil {
		if errors.Is(err, gokeychain.ErrorItemNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("keychain copy: %w", err)
	}
	if len(results) == 0 {
		return nil, ErrNotFound
	}

	var out []Item
	for _, r := range results {
		attrs := Attributes{
			AttrClass:   q.Class,
			AttrService: r.Service,
			AttrAccount: r.Account,
			AttrLabel:   r.Label,
		}
		out = append(out, Item{
			Ref:   r.Service + "\x00" + r.Account,
			Attrs: attrs,
			Data:  r.Data,
		})
		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
	}
	return out, nil
}

func (s *SystemService) Delete(q Query) (int, error) {
	attrs := q.Attrs.Clone()
	if q.Class != "" {
		attrs[AttrClass] = q.Class
	}
	err := gokeychain.DeleteItem(s.newItem(attrs))
	if errors.Is(err, gokeychain.ErrorItemNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("keychain delete: %w", err)
	}
	return 1, nil
}
