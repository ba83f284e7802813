package keyward

import (
	"errors"

	"github.com/go-kit/kit/log"

	"github.com/keyward/keyward/secsvc"
)

// Keychain is the store facade: it lowers finished typed queries into the
// untyped attribute-dictionary protocol and translates service statuses
// into the typed error taxonomy. It holds no item state of its own; every
// call is one synchronous service transaction.
type Keychain struct {
	svc    secsvc.Service
	logger log.Logger
}

// Option configures a Keychain.
type Option func(*Keychain)

// WithLogger sets the structured logger. The default discards everything.
func WithLogger(logger log.Logger) Option {
	return func(kc *Keychain) { kc.logger = logger }
}

// New creates a Keychain on the given secure-storage service.
func New(svc secsvc.Service, opts ...Option) *Keychain {
	kc := &Keychain{svc: svc, logger: log.NewNopLogger()}
	for _, opt := range opts {
		opt(kc)
	}
	return kc
}

// statusOf maps a service error onto the numeric status surfaced in
// *Error.
func statusOf(err error) Status {
	switch {
	case errors.Is(err, secsvc.ErrNotFound):
		return StatusItemNotFound
	case errors.Is(err, secsvc.ErrDuplicate):
		return StatusDuplicateItem
	case errors.Is(err, secsvc.ErrAuthFailed):
		return StatusAuthFailed
	case errors.Is(err, secsvc.ErrInteractionRequired):
		return StatusInteractionNotAllowed
	case errors.Is(err, secsvc.ErrParam):
		return StatusParam
	default:
		return StatusIO
	}
}

// readError translates a service read failure, folding the
// authentication statuses onto their facade sentinels.
func readError(op string, err error) error {
	status := statusOf(err)
	switch status {
	case StatusAuthFailed:
		return opError(op, status, ErrAuthFailed)
	case StatusInteractionNotAllowed:
		return opError(op, status, ErrInteractionRequired)
	default:
		return opError(op, status, wrap(ErrRead, err))
	}
}

func wrap(sentinel, cause error) error {
	return errors.Join(sentinel, cause)
}

// Store writes a value under the query's attributes. An existing item
// with the same uniqueness attributes is replaced (upsert). The access
// policy is optional; a policy with an authentication constraint compiles
// to an access control the service enforces on reads.
func (kc *Keychain) Store(q Query, value Encoder, policy *AccessPolicy) error {
	data, err := value.SecretBytes()
	if err != nil {
		return opError("store", StatusDecode, err)
	}

	attrs := q.lowered()
	if policy != nil {
		ctl, err := policy.Compile()
		if err != nil {
			return opError("store", StatusParam, err)
		}
		attrs[secsvc.AttrAccessible] = policy.Accessibility().token()
		if ctl != nil {
			attrs[secsvc.AttrAccessControl] = ctl.token()
		}
	}

	_, err = kc.svc.Add(attrs, data)
	if errors.Is(err, secsvc.ErrDuplicate) {
		// Upsert: replace the colliding item.
		if _, derr := kc.svc.Delete(secsvc.UniqueQuery(attrs)); derr != nil {
			return opError("store", statusOf(derr), wrap(ErrWrite, derr))
		}
		_, err = kc.svc.Add(attrs, data)
	}
	if err != nil {
		return opError("store", statusOf(err), wrap(ErrWrite, err))
	}
	kc.logger.Log("op", "store", "class", q.Class().String())
	return nil
}

// retrieveOne runs the query with a match limit of one. Not-found is
// (nil, false, nil), never an error.
func (kc *Keychain) retrieveOne(q Query) (*secsvc.Item, bool, error) {
	sq := q.serviceQuery()
	sq.Limit = 1
	items, err := kc.svc.Copy(sq)
	if err != nil {
		if errors.Is(err, secsvc.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, readError("retrieve", err)
	}
	return &items[0], true, nil
}

// Retrieve reads the matching item's data and decodes it into T. An
// absent item returns the zero value and found == false with a nil error.
func Retrieve[T any, PT interface {
	*T
	Decoder
}](kc *Keychain, q Query) (T, bool, error) {
	var zero T
	item, found, err := kc.retrieveOne(q)
	if err != nil || !found {
		return zero, false, err
	}
	value := new(T)
	if err := PT(value).UnmarshalSecret(item.Data); err != nil {
		return zero, false, opError("retrieve", StatusDecode, err)
	}
	return *value, true, nil
}

// RetrieveData reads the matching item's raw data.
func (kc *Keychain) RetrieveData(q Query) ([]byte, bool, error) {
	item, found, err := kc.retrieveOne(q)
	if err != nil || !found {
		return nil, false, err
	}
	return item.Data, true, nil
}

// RetrieveAttributes reads the matching item's attribute dictionary.
func (kc *Keychain) RetrieveAttributes(q Query) (secsvc.Attributes, bool, error) {
	item, found, err := kc.retrieveOne(q)
	if err != nil || !found {
		return nil, false, err
	}
	return item.Attrs, true, nil
}

// RetrieveRef reads the matching item's persistent reference, a stable
// opaque handle valid across process runs.
func (kc *Keychain) RetrieveRef(q Query) (string, bool, error) {
	item, found, err := kc.retrieveOne(q)
	if err != nil || !found {
		return "", false, err
	}
	return item.Ref, true, nil
}

// Remove deletes the matching items. It reports whether anything was
// removed; removing nothing is not an error.
func (kc *Keychain) Remove(q Query) (bool, error) {
	n, err := kc.svc.Delete(q.serviceQuery())
	if err != nil {
		if errors.Is(err, secsvc.ErrNotFound) {
			return false, nil
		}
		return false, opError("remove", statusOf(err), wrap(ErrRemove, err))
	}
	if n > 0 {
		kc.logger.Log("op", "remove", "class", q.Class().String(), "count", n)
	}
	return n > 0, nil
}

// RemoveAll deletes every item of a class.
func (kc *Keychain) RemoveAll(class Class) error {
	n, err := kc.svc.Delete(secsvc.Query{Class: class.String()})
	if err != nil && !errors.Is(err, secsvc.ErrNotFound) {
		return opError("remove", statusOf(err), wrap(ErrRemove, err))
	}
	kc.logger.Log("op", "remove-all", "class", class.String(), "count", n)
	return nil
}

// Items returns every item of a class, attributes and data included. A
// class with no items returns an empty slice.
func (kc *Keychain) Items(class Class) ([]secsvc.Item, error) {
	items, err := kc.svc.Copy(secsvc.Query{Class: class.String()})
	if err != nil {
		if errors.Is(err, secsvc.ErrNotFound) {
			return nil, nil
		}
		return nil, readError("list", err)
	}
	return items, nil
}
