package watchables

// Field is a settable watchable holding a direct value with pluggable
// equality.
//
// Writes go through mutators: Set returns a Mutator whose perform phase
// broadcasts dirty and assigns the value, and whose signal phase broadcasts
// change. Commit the mutator to apply the write, or combine it with others
// (Chain, All, Build) for an atomic group.
//
// Example:
//
//	count := watchables.NewField(0)
//	count.Set(5).Commit()
//	fmt.Println(count.Get()) // 5
type Field[T any] struct {
	reg   listenerRegistry
	value T
	eq    EqualFunc[T]
}

// NewField creates a field with the given initial value and default
// equality.
func NewField[T any](initial T) *Field[T] {
	return NewFieldWithOptions(initial, Options[T]{})
}

// NewFieldWithOptions creates a field with custom equality or a custom
// listener panic sink.
//
// Example:
//
//	// Compare slices by content, not by reference
//	data := watchables.NewFieldWithOptions([]int{1, 2, 3}, watchables.Options[[]int]{
//	    Equal: func(a, b []int) bool { return slices.Equal(a, b) },
//	})
func NewFieldWithOptions[T any](initial T, opts Options[T]) *Field[T] {
	f := &Field[T]{
		value: initial,
		eq:    opts.Equal,
	}
	if f.eq == nil {
		f.eq = equal[T]
	}
	f.reg.onPanic = opts.OnListenerPanic
	return f
}

// Get returns the current value. It panics with ErrReadDuringDirtyDispatch
// when called from inside this field's dirty dispatch.
func (f *Field[T]) Get() T {
	f.reg.assertNotDispatchingDirty()
	f.reg.markRead()
	return f.value
}

// Set returns a mutator that writes v. If the field's equality reports that
// v equals the current value, the mutator is a complete no-op: no dirty, no
// assignment, no change.
func (f *Field[T]) Set(v T) *Mutator[struct{}] {
	return NewMutator(
		func() (struct{}, bool) {
			if f.eq(f.value, v) {
				return struct{}{}, false
			}
			f.reg.broadcastDirty()
			f.value = v
			return struct{}{}, true
		},
		func(changed bool) {
			if changed {
				f.reg.broadcastChange()
			}
		},
	)
}

// Update returns a mutator that transforms the current value with fn. The
// transform runs during the perform phase, so chained updates observe the
// results of earlier performs in the same group.
//
// Example:
//
//	count.Update(func(v int) int { return v + 1 }).Commit()
func (f *Field[T]) Update(fn func(T) T) *Mutator[struct{}] {
	return NewMutator(
		func() (struct{}, bool) {
			v := fn(f.value)
			if f.eq(f.value, v) {
				return struct{}{}, false
			}
			f.reg.broadcastDirty()
			f.value = v
			return struct{}{}, true
		},
		func(changed bool) {
			if changed {
				f.reg.broadcastChange()
			}
		},
	)
}

// SubscribeDirty registers a weakly-held dirty listener.
func (f *Field[T]) SubscribeDirty(l *Listener) Unsubscribe {
	return f.reg.subscribeDirty(l)
}

// SubscribeChange registers a weakly-held change listener.
func (f *Field[T]) SubscribeChange(l *Listener) Unsubscribe {
	return f.reg.subscribeChange(l)
}
