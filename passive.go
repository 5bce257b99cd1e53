package watchables

// PassiveDerived behaves like DerivedValue but holds active subscriptions to
// its dependencies only while it has listeners of its own. Whenever the live
// listener count drops to zero it detaches, keeping just the dependency
// identities and their last observed values; when a listener arrives it
// reattaches against the stored sources.
//
// While detached, no events reach the value, so a read cannot rely on the
// dirty bit alone: every read in the detached state revalidates the cached
// result with the ordered dependency walk, recomputing only if something
// actually changed.
type PassiveDerived[T any] struct {
	DerivedValue[T]
	detached bool

	// revalidatePending is set on reattach: no events arrived while
	// detached, so nothing recorded whether a dependency changed in the
	// gap. The next read must run the equality walk regardless of the
	// dirty bit.
	revalidatePending bool
}

// NewPassiveDerived creates a passive derived value. It starts detached; the
// first subscription attaches it.
func NewPassiveDerived[T any](compute ComputeFunc[T]) *PassiveDerived[T] {
	return NewPassiveDerivedWithOptions(compute, Options[T]{})
}

// NewPassiveDerivedWithOptions creates a passive derived value with a custom
// listener panic sink.
func NewPassiveDerivedWithOptions[T any](compute ComputeFunc[T], opts Options[T]) *PassiveDerived[T] {
	p := &PassiveDerived[T]{detached: true}
	p.DerivedValue.init(compute, opts)
	p.core.reg.onActive = p.onActive
	return p
}

func (p *PassiveDerived[T]) onActive(active bool) {
	if active {
		p.detached = false
		if p.initialized {
			p.core.resubscribe()
			p.revalidatePending = true
		}
		return
	}
	p.detached = true
	p.core.dropSubs()
}

// Get returns the current value. In the detached state, and on the first
// read after a reattach, the cached result is revalidated against every
// dependency before being returned; while detached, any subscriptions taken
// out during recomputation are released again.
func (p *PassiveDerived[T]) Get() T {
	v := p.get(p.detached || p.revalidatePending)
	p.revalidatePending = false
	if p.detached {
		p.core.dropSubs()
	}
	return v
}
