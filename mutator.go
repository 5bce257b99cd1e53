package watchables

// Mutator is a reified two-phase write producing a result of type R.
//
// The perform phase applies state changes and broadcasts dirty
// notifications; the signal phase broadcasts change notifications. Keeping
// the phases separate is what makes grouped writes atomic: when mutators are
// combined with Chain, All, or Build, every perform runs before any signal,
// so no listener ever observes a half-applied group.
//
// Each mutator must either be committed exactly once or dropped without
// committing (in which case it has no effect). Running a stage twice, or
// signal before perform, panics with ErrMutationConsumed.
//
// Example:
//
//	first.Set("John").Commit()
//
//	// Atomic group: one change wave, never "John Doe"/"Bob Smith".
//	watchables.Chain(first.Set("John"), last.Set("Smith")).Commit()
type Mutator[R any] struct {
	performFn func() R
	signalFn  func()
	performed bool
	signaled  bool
	result    R
}

// NewMutator builds a mutator from its two stages. The carry value returned
// by perform is handed to signal, letting perform communicate what it did
// (for example, whether anything actually changed).
func NewMutator[R, C any](perform func() (R, C), signal func(C)) *Mutator[R] {
	m := &Mutator[R]{}
	var carry C
	m.performFn = func() R {
		r, c := perform()
		carry = c
		return r
	}
	m.signalFn = func() {
		signal(carry)
	}
	return m
}

// Noop returns a mutator with no effect. Committing it is valid and does
// nothing.
func Noop() *Mutator[struct{}] {
	return NewMutator(
		func() (struct{}, struct{}) { return struct{}{}, struct{}{} },
		func(struct{}) {},
	)
}

// Commit runs perform followed by signal and returns the perform result.
// It panics with ErrMutationConsumed if either stage has already run.
func (m *Mutator[R]) Commit() R {
	r := m.Perform()
	m.Signal()
	return r
}

// Perform runs the perform phase alone. It exists so combinators can
// interleave phases; application code should call Commit instead. A second
// call panics with ErrMutationConsumed.
func (m *Mutator[R]) Perform() R {
	if m.performed {
		panic(ErrMutationConsumed)
	}
	m.performed = true
	m.result = m.performFn()
	return m.result
}

// Signal runs the signal phase alone. It panics with ErrMutationConsumed
// unless perform has run and signal has not.
func (m *Mutator[R]) Signal() {
	if !m.performed || m.signaled {
		panic(ErrMutationConsumed)
	}
	m.signaled = true
	m.signalFn()
}

// performVoid and signalVoid give every *Mutator[R] a common, type-erased
// stage surface.
func (m *Mutator[R]) performVoid() { m.Perform() }
func (m *Mutator[R]) signalVoid()  { m.Signal() }

// Performer is the type-erased view of a mutator, satisfied by every
// *Mutator[R]. All and Batch.Add accept it so that mutators with different
// result types can be grouped.
type Performer interface {
	performVoid()
	signalVoid()
}

// Chain combines two mutators into one. The combined perform runs both
// performs in order and yields the second result; the combined signal runs
// both signals in order.
func Chain[A, B any](first *Mutator[A], next *Mutator[B]) *Mutator[B] {
	return NewMutator(
		func() (B, struct{}) {
			first.Perform()
			return next.Perform(), struct{}{}
		},
		func(struct{}) {
			first.Signal()
			next.Signal()
		},
	)
}

// ChainWith combines a mutator with a continuation that builds the next
// mutator from the first result. The continuation runs during the combined
// perform phase, after the first perform and before any signal.
func ChainWith[A, B any](first *Mutator[A], next func(A) *Mutator[B]) *Mutator[B] {
	var second *Mutator[B]
	return NewMutator(
		func() (B, struct{}) {
			a := first.Perform()
			second = next(a)
			return second.Perform(), struct{}{}
		},
		func(struct{}) {
			first.Signal()
			second.Signal()
		},
	)
}

// MapResult transforms the result of a mutator without altering its timing.
func MapResult[A, B any](m *Mutator[A], fn func(A) B) *Mutator[B] {
	return NewMutator(
		func() (B, struct{}) {
			return fn(m.Perform()), struct{}{}
		},
		func(struct{}) {
			m.Signal()
		},
	)
}

// All combines any number of mutators into one atomic group: every perform
// runs before any signal, both in argument order. With no arguments it
// returns a no-op mutator.
func All(ms ...Performer) *Mutator[struct{}] {
	return NewMutator(
		func() (struct{}, struct{}) {
			for _, m := range ms {
				m.performVoid()
			}
			return struct{}{}, struct{}{}
		},
		func(struct{}) {
			for _, m := range ms {
				m.signalVoid()
			}
		},
	)
}

// Batch collects mutators pushed during a Build callback. See Build.
type Batch struct {
	pending []Performer
}

// Add performs m immediately and defers its signal phase to the end of the
// enclosing Build commit.
func (b *Batch) Add(m Performer) {
	m.performVoid()
	b.pending = append(b.pending, m)
}

// Apply performs m immediately, defers its signal phase like Batch.Add, and
// returns the perform result so later mutators in the same batch can depend
// on it.
func Apply[R any](b *Batch, m *Mutator[R]) R {
	r := m.Perform()
	b.pending = append(b.pending, m)
	return r
}

// Build composes mutators imperatively. The builder runs during the perform
// phase of the returned mutator; every mutator it pushes through the batch
// is performed on the spot, and all their signal phases run together when
// the returned mutator signals.
//
// Example:
//
//	m := watchables.Build(func(b *watchables.Batch) {
//	    b.Add(count.Set(10))
//	    b.Add(name.Set("Alice"))
//	})
//	m.Commit() // one wave: listeners observe both writes at once
//
// Use Apply instead of Batch.Add when a later mutator depends on an earlier
// perform result.
func Build(builder func(b *Batch)) *Mutator[struct{}] {
	var batch Batch
	return NewMutator(
		func() (struct{}, struct{}) {
			builder(&batch)
			return struct{}{}, struct{}{}
		},
		func(struct{}) {
			for _, m := range batch.pending {
				m.signalVoid()
			}
		},
	)
}
