package keyward

import "github.com/keyward/keyward/secsvc"

// Class is an item class in the secure store. The set is closed; each
// class has its own query builder type exposing only its legal attributes.
type Class int

const (
	ClassGenericPassword Class = iota + 1
	ClassInternetPassword
	ClassKey
	ClassCertificate
	ClassIdentity
)

// String returns the class token used in attribute dictionaries.
func (c Class) String() string {
	switch c {
	case ClassGenericPassword:
		return secsvc.ClassGenericPassword
	case ClassInternetPassword:
		return secsvc.ClassInternetPassword
	case ClassKey:
		return secsvc.ClassKey
	case ClassCertificate:
		return secsvc.ClassCertificate
	case ClassIdentity:
		return secsvc.ClassIdentity
	default:
		return "invalid"
	}
}

// ClassFromToken maps an attribute-dictionary class token back to a Class.
func ClassFromToken(token string) (Class, bool) {
	switch token {
	case secsvc.ClassGenericPassword:
		return ClassGenericPassword, true
	case secsvc.ClassInternetPassword:
		return ClassInternetPassword, true
	case secsvc.ClassKey:
		return ClassKey, true
	case secsvc.ClassCertificate:
		return ClassCertificate, true
	case secsvc.ClassIdentity:
		return ClassIdentity, true
	}
	return 0, false
}
