package keyward

// Binding is a reactive accessor over one stored value: the first Get
// fetches through the facade and caches for the current cycle, Set and
// Clear write through and fire the registered change callbacks.
//
// Bindings assume a single-goroutine UI cycle and do no locking.
type Binding[T Encoder, PT interface {
	*T
	Decoder
}] struct {
	kc     *Keychain
	query  Query
	policy *AccessPolicy

	cached bool
	value  T
	found  bool

	watchers []func()
}

// NewBinding creates a binding for the value addressed by the query.
// The policy, if non-nil, is applied on writes.
func NewBinding[T Encoder, PT interface {
	*T
	Decoder
}](kc *Keychain, q Query, policy *AccessPolicy) *Binding[T, PT] {
	return &Binding[T, PT]{kc: kc, query: q, policy: policy}
}

// Get returns the bound value, fetching it on first use.
func (b *Binding[T, PT]) Get() (T, bool, error) {
	if !b.cached {
		value, found, err := Retrieve[T, PT](b.kc, b.query)
		if err != nil {
			var zero T
			return zero, false, err
		}
		b.value, b.found, b.cached = value, found, true
	}
	return b.value, b.found, nil
}

// Set stores a new value and notifies watchers.
func (b *Binding[T, PT]) Set(value T) error {
	if err := b.kc.Store(b.query, value, b.policy); err != nil {
		return err
	}
	b.value, b.found, b.cached = value, true, true
	b.notify()
	return nil
}

// Clear removes the bound value and notifies watchers. It reports whether
// a value existed.
func (b *Binding[T, PT]) Clear() (bool, error) {
	removed, err := b.kc.Remove(b.query)
	if err != nil {
		return false, err
	}
	var zero T
	b.value, b.found, b.cached = zero, false, true
	if removed {
		b.notify()
	}
	return removed, nil
}

// Invalidate drops the cache so the next Get refetches.
func (b *Binding[T, PT]) Invalidate() { b.cached = false }

// OnChange registers a callback fired after Set and successful Clear.
func (b *Binding[T, PT]) OnChange(fn func()) {
	b.watchers = append(b.watchers, fn)
}

func (b *Binding[T, PT]) notify() {
	for _, fn := range b.watchers {
		fn()
	}
}
