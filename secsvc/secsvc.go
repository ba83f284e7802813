// Package secsvc defines the untyped attribute-dictionary protocol the
// keyward facade speaks to a secure-storage service, and provides the
// service implementations (in-memory, encrypted Bolt file store, system
// keychain on macOS, OS keyring).
//
// A service stores opaque secret data under a string-keyed attribute
// dictionary. Callers normally do not use this package directly; the
// typed query builders in the root package lower into it.
package secsvc

import (
	"bytes"
	"errors"
	"fmt"
)

// Item class tokens stored under AttrClass.
const (
	ClassGenericPassword  = "genp"
	ClassInternetPassword = "inet"
	ClassKey              = "keys"
	ClassCertificate      = "cert"
	ClassIdentity         = "idnt"
)

// Attribute dictionary keys.
const (
	AttrClass = "class"

	// shared
	AttrLabel          = "labl"
	AttrAccessGroup    = "agrp"
	AttrSynchronizable = "sync"
	AttrAccessible     = "pdmn"
	AttrAccessControl  = "accc"

	// generic password
	AttrService = "svce"
	AttrAccount = "acct"
	AttrGeneric = "gena"

	// internet password
	AttrServer         = "srvr"
	AttrPort           = "port"
	AttrProtocol       = "ptcl"
	AttrAuthType       = "atyp"
	AttrPath           = "path"
	AttrSecurityDomain = "sdmn"

	// key
	AttrKeyClass         = "kcls"
	AttrKeyType          = "type"
	AttrKeySizeBits      = "bsiz"
	AttrApplicationTag   = "atag"
	AttrApplicationLabel = "klbl"
	AttrPermanent        = "perm"
	AttrKeyUsage         = "usge"

	// certificate / identity
	AttrSubject      = "subj"
	AttrIssuer       = "issr"
	AttrSerialNumber = "slnr"

	// maintained by the service
	AttrCreated  = "cdat"
	AttrModified = "mdat"
)

// Service errors. The facade maps these onto its typed error taxonomy;
// ErrNotFound is the one status it normalizes to an absent result.
var (
	ErrNotFound            = errors.New("item not found")
	ErrDuplicate           = errors.New("duplicate item")
	ErrAuthFailed          = errors.New("authentication failed")
	ErrInteractionRequired = errors.New("interaction required but no authentication context supplied")
	ErrParam               = errors.New("invalid query or attribute parameter")
)

// Attributes is a string-keyed attribute dictionary. Legal value types are
// string, int, bool and []byte; Normalize coerces anything else that a
// codec hands back.
type Attributes map[string]any

// Clone returns a shallow copy ([]byte values are shared).
func (a Attributes) Clone() Attributes {
	c := make(Attributes, len(a))
	for k, v := range a {
		c[k] = v
	}
	return c
}

// Normalize coerces decoded attribute values back to the canonical types.
// CBOR round-trips integers as int64/uint64 and byte strings as []uint8.
func (a Attributes) Normalize() {
	for k, v := range a {
		switch n := v.(type) {
		case int64:
			a[k] = int(n)
		case uint64:
			a[k] = int(n)
		case float64:
			a[k] = int(n)
		}
	}
}

// Query selects items in a service. All attributes present must match
// exactly; a non-empty Ref matches only the item with that persistent
// reference. Limit of 0 means no limit. Authorize, when non-nil, is
// invoked before releasing data protected by an access control.
type Query struct {
	Class     string
	Attrs     Attributes
	Ref       string
	Limit     int
	Authorize func(reason string) error
}

// Item is one stored item as returned by Copy.
type Item struct {
	Ref   string
	Attrs Attributes
	Data  []byte
}

// Service is the secure-storage protocol: three primitives over attribute
// dictionaries. Every call is a single synchronous transaction; there is
// no cancellation and no retry. Implementations must be safe for
// concurrent use.
type Service interface {
	// Add stores data under the given attributes and returns the new
	// item's persistent reference. ErrDuplicate is returned when an item
	// with the same uniqueness attributes already exists.
	Add(attrs Attributes, data []byte) (string, error)

	// Copy returns the items matching the query. A query matching nothing
	// returns (nil, ErrNotFound).
	Copy(q Query) ([]Item, error)

	// Delete removes the items matching the query and reports how many
	// were removed. Deleting nothing is not an error.
	Delete(q Query) (int, error)
}

// uniqueAttrs lists, per class, the attributes that identify an item.
// Adding a second item with equal values for all of them is a duplicate.
var uniqueAttrs = map[string][]string{
	ClassGenericPassword:  {AttrService, AttrAccount},
	ClassInternetPassword: {AttrServer, AttrAccount, AttrPort, AttrProtocol, AttrPath},
	ClassKey:              {AttrApplicationTag, AttrApplicationLabel, AttrKeyClass},
	ClassCertificate:      {AttrSubject, AttrSerialNumber},
	ClassIdentity:         {AttrSubject, AttrSerialNumber},
}

// UniqueQuery builds the query that selects exactly the item a second Add
// of attrs would collide with. The facade uses it for upsert semantics.
func UniqueQuery(attrs Attributes) Query {
	class, _ := attrs[AttrClass].(string)
	q := Query{Class: class, Attrs: Attributes{}}
	for _, k := range uniqueAttrs[class] {
		if v, ok := attrs[k]; ok {
			q.Attrs[k] = v
		}
	}
	return q
}

func attrEqual(a, b any) bool {
	ab, aok := a.([]byte)
	bb, bok := b.([]byte)
	if aok || bok {
		return aok && bok && bytes.Equal(ab, bb)
	}
	return a == b
}

// match reports whether an item's attributes satisfy a query: every
// attribute in the query must be present and equal on the item.
func match(q Query, ref string, attrs Attributes) bool {
	if q.Ref != "" && q.Ref != ref {
		return false
	}
	if q.Class != "" && attrs[AttrClass] != q.Class {
		return false
	}
	for k, want := range q.Attrs {
		got, ok := attrs[k]
		if !ok || !attrEqual(got, want) {
			return false
		}
	}
	return true
}

// duplicates reports whether two items of the same class collide on the
// class's uniqueness attributes.
func duplicates(class string, a, b Attributes) bool {
	for _, k := range uniqueAttrs[class] {
		if !attrEqual(a[k], b[k]) {
			return false
		}
	}
	return true
}

// authorize enforces an item's access control for a read: items stored
// with an access control require the query to carry an authentication
// callback, and the callback must succeed.
func authorize(q Query, attrs Attributes) error {
	ctl, ok := attrs[AttrAccessControl].(string)
	if !ok || ctl == "" {
		return nil
	}
	if q.Authorize == nil {
		return ErrInteractionRequired
	}
	reason, _ := attrs[AttrLabel].(string)
	if reason == "" {
		reason = "access a protected keychain item"
	}
	if err := q.Authorize(reason); err != nil {
		return fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}
	return nil
}
