package watchables

// directOrSource is the inner state of a SourceField: either a direct value
// or a watchable to mirror.
type directOrSource[T any] struct {
	source Watchable[T] // nil means direct
	value  T
}

// SourceField is a field that at any time holds either a direct value or
// mirrors another watchable. While a source is set, the field transparently
// follows it: reads return the source's value and the source's notifications
// flow through.
//
// Example:
//
//	name := watchables.NewSourceField("local")
//	name.Get()                        // "local"
//	name.SetSource(remoteName).Commit()
//	name.Get()                        // whatever remoteName holds
//	name.Set("local again").Commit()  // back to a direct value
type SourceField[T any] struct {
	inner   *Field[directOrSource[T]]
	derived *DerivedValue[T]
}

// NewSourceField creates a source field holding the direct value initial.
func NewSourceField[T any](initial T) *SourceField[T] {
	return NewSourceFieldWithOptions(initial, Options[T]{})
}

// NewSourceFieldWithOptions creates a source field with custom value
// equality. The equality applies between two direct values; two sources
// compare by identity, and a direct value never equals a source.
func NewSourceFieldWithOptions[T any](initial T, opts Options[T]) *SourceField[T] {
	valueEq := opts.Equal
	if valueEq == nil {
		valueEq = equal[T]
	}
	innerEq := func(a, b directOrSource[T]) bool {
		switch {
		case a.source == nil && b.source == nil:
			return valueEq(a.value, b.value)
		case a.source != nil && b.source != nil:
			return a.source == b.source
		default:
			return false
		}
	}

	s := &SourceField[T]{}
	s.inner = NewFieldWithOptions(directOrSource[T]{value: initial}, Options[directOrSource[T]]{
		Equal:           innerEq,
		OnListenerPanic: opts.OnListenerPanic,
	})
	s.derived = NewDerivedWithOptions(func(t *Tracker, _ T, _ bool) T {
		ds := Track[directOrSource[T]](t, s.inner)
		if ds.source != nil {
			return Track(t, ds.source)
		}
		return ds.value
	}, Options[T]{OnListenerPanic: opts.OnListenerPanic})
	return s
}

// Get returns the direct value, or the mirrored source's current value.
func (s *SourceField[T]) Get() T {
	return s.derived.Get()
}

// Set returns a mutator that switches the field to the direct value v.
// Setting a direct value equal to the current direct value is a no-op.
func (s *SourceField[T]) Set(v T) *Mutator[struct{}] {
	return s.inner.Set(directOrSource[T]{value: v})
}

// SetSource returns a mutator that makes the field mirror w. Setting the
// source the field already mirrors is a no-op.
func (s *SourceField[T]) SetSource(w Watchable[T]) *Mutator[struct{}] {
	return s.inner.Set(directOrSource[T]{source: w})
}

// SubscribeDirty registers a weakly-held dirty listener.
func (s *SourceField[T]) SubscribeDirty(l *Listener) Unsubscribe {
	return s.derived.SubscribeDirty(l)
}

// SubscribeChange registers a weakly-held change listener.
func (s *SourceField[T]) SubscribeChange(l *Listener) Unsubscribe {
	return s.derived.SubscribeChange(l)
}
