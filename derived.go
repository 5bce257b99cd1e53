package watchables

// ComputeFunc derives a value from watched inputs. It receives a Tracker for
// registering dependencies via Track, the previous result, and whether a
// previous result exists (false on the first computation).
//
// The function must be pure apart from its Track reads: given the same
// dependency values it must return the same result, and it must issue its
// Track calls in the same order on every evaluation. That ordering is what
// lets the engine skip recomputation when an ordered walk of the previous
// dependencies finds every value unchanged.
type ComputeFunc[T any] func(t *Tracker, prev T, ok bool) T

// dependency links a derived value to one of its watched sources, in the
// order the compute function read them.
type dependency struct {
	// source identifies the watched value; all watchables in this package
	// have pointer identity.
	source any

	// changed re-reads the source and compares against the value observed
	// during the last computation.
	changed func() bool

	sub subscriber

	// unsubDirty and unsubChange are nil while the corresponding
	// subscription is torn down (after a dirty or change was received, or
	// while the owner is passive).
	unsubDirty  Unsubscribe
	unsubChange Unsubscribe
}

func (d *dependency) drop() {
	d.dropDirty()
	d.dropChange()
}

func (d *dependency) dropDirty() {
	if d.unsubDirty != nil {
		d.unsubDirty()
		d.unsubDirty = nil
	}
}

func (d *dependency) dropChange() {
	if d.unsubChange != nil {
		d.unsubChange()
		d.unsubChange = nil
	}
}

// derivedCore is the type-independent half of a derived value: registry,
// ordered dependency list, and the listeners registered with dependency
// registries. The listeners are owned here and referenced weakly upstream,
// so an unreachable derived value releases its subscriptions to the
// collector.
type derivedCore struct {
	reg  listenerRegistry
	deps []*dependency

	// computationID increments at the start of every recomputation. Track
	// calls carrying a stale id (from a superseded evaluation) read their
	// source but register nothing.
	computationID uint64

	depDirty  *Listener
	depChange *Listener

	// onDepDirty and onDepChange replace the standard propagation when set
	// (used by the throttled wrapper).
	onDepDirty  func()
	onDepChange func()
}

// handleDepDirty implements standard dirty propagation: one dirty warning is
// all the information there is until the value is re-read, so the dirty
// subscriptions of every dependency are dropped before the warning is
// forwarded downstream.
func (c *derivedCore) handleDepDirty() {
	if c.onDepDirty != nil {
		c.onDepDirty()
		return
	}
	c.dropDirtySubs()
	c.reg.broadcastDirty()
}

// handleDepChange implements standard change propagation. If the value has
// not been re-read since the dirty warning, the change subscriptions are
// dropped too; the next read reinstalls whatever is missing.
func (c *derivedCore) handleDepChange() {
	if c.onDepChange != nil {
		c.onDepChange()
		return
	}
	if c.reg.dirty {
		c.dropChangeSubs()
	}
	c.reg.broadcastChange()
}

func (c *derivedCore) dropDirtySubs() {
	for _, dep := range c.deps {
		dep.dropDirty()
	}
}

func (c *derivedCore) dropChangeSubs() {
	for _, dep := range c.deps {
		dep.dropChange()
	}
}

// resubscribe reinstalls any missing dependency subscriptions. Called on the
// fast read path after an ordered walk found every dependency unchanged:
// subscriptions were torn down during propagation, but no recomputation is
// needed.
func (c *derivedCore) resubscribe() {
	for _, dep := range c.deps {
		if dep.unsubDirty == nil {
			dep.unsubDirty = dep.sub.SubscribeDirty(c.depDirty)
		}
		if dep.unsubChange == nil {
			dep.unsubChange = dep.sub.SubscribeChange(c.depChange)
		}
	}
}

// dropSubs tears down every dependency subscription, keeping the records.
func (c *derivedCore) dropSubs() {
	for _, dep := range c.deps {
		dep.drop()
	}
}

// Tracker registers the dependencies of one computation. Compute functions
// receive a Tracker and read their inputs through Track.
type Tracker struct {
	core *derivedCore
	id   uint64
	seen map[any]struct{}
}

// Track reads w and registers it as a dependency of the computation t
// belongs to. Reading the same watchable twice registers it once; reads
// issued after the computation has been superseded (for example from a stale
// callback) register nothing.
//
// Example:
//
//	full := watchables.NewDerived(func(t *watchables.Tracker, _ string, _ bool) string {
//	    return watchables.Track(t, first) + " " + watchables.Track(t, last)
//	})
func Track[D any](t *Tracker, w Watchable[D]) D {
	v := w.Get()
	if t.id != t.core.computationID {
		return v
	}
	key := any(w)
	if _, dup := t.seen[key]; dup {
		return v
	}
	t.seen[key] = struct{}{}

	observed := v
	dep := &dependency{
		source:  key,
		changed: func() bool { return !equal(w.Get(), observed) },
		sub:     any(w).(subscriber),
	}
	dep.unsubDirty = w.SubscribeDirty(t.core.depDirty)
	dep.unsubChange = w.SubscribeChange(t.core.depChange)
	t.core.deps = append(t.core.deps, dep)
	return v
}

// DerivedValue is a lazily recomputed watchable. The compute function runs
// only when the value is read and a dependency may have changed; in between,
// reads return the cached result, and the cache keeps its object identity.
//
// Dependency tracking is transparent: whatever the compute function reads
// through Track becomes a dependency of the value, re-resolved on every
// recomputation, so conditional reads narrow the dependency set
// automatically.
//
// Propagation never recomputes. A dirty warning from any dependency is
// forwarded downstream as-is, and so is the following change notification;
// the actual recomputation happens on the next Get, and even then an ordered
// comparison of the previously observed dependency values can prove the
// cached result still valid and skip the compute function entirely.
//
// Example:
//
//	count := watchables.NewField(3)
//	doubled := watchables.NewDerived(func(t *watchables.Tracker, _ int, _ bool) int {
//	    return watchables.Track(t, count) * 2
//	})
//	fmt.Println(doubled.Get()) // 6
//	count.Set(5).Commit()
//	fmt.Println(doubled.Get()) // 10
type DerivedValue[T any] struct {
	core        derivedCore
	compute     ComputeFunc[T]
	value       T
	initialized bool
}

// NewDerived creates a derived value. The compute function does not run
// until the first Get.
func NewDerived[T any](compute ComputeFunc[T]) *DerivedValue[T] {
	return NewDerivedWithOptions(compute, Options[T]{})
}

// NewDerivedWithOptions creates a derived value with a custom listener panic
// sink. The Equal option is ignored; dependency comparison always uses the
// default equality.
func NewDerivedWithOptions[T any](compute ComputeFunc[T], opts Options[T]) *DerivedValue[T] {
	d := &DerivedValue[T]{}
	d.init(compute, opts)
	return d
}

// init wires the core in place so listener closures capture the final
// address. Types embedding DerivedValue initialize through this.
func (d *DerivedValue[T]) init(compute ComputeFunc[T], opts Options[T]) {
	d.compute = compute
	d.core.reg.onPanic = opts.OnListenerPanic
	d.core.reg.dirty = true // first read must compute
	core := &d.core
	core.depDirty = NewListener(core.handleDepDirty)
	core.depChange = NewListener(core.handleDepChange)
}

// Get returns the current value, recomputing it if a dependency reported
// dirty since the last read. It panics with ErrReadDuringDirtyDispatch when
// called from inside this value's dirty dispatch; if the compute function
// panics, the panic propagates and the value stays dirty so the next read
// retries.
func (d *DerivedValue[T]) Get() T {
	return d.get(false)
}

// get is the inner read. force requests revalidation even when no dirty
// warning arrived; the passive wrapper needs this because it receives no
// events while detached.
func (d *DerivedValue[T]) get(force bool) T {
	d.core.reg.assertNotDispatchingDirty()
	stale := d.core.reg.dirty || !d.initialized || force
	d.core.reg.markRead()
	if !stale {
		return d.value
	}
	if d.initialized && d.revalidate() {
		return d.value
	}
	d.recompute()
	return d.value
}

// revalidate walks the previous dependency list in order, comparing each
// source's current value with the one observed during the last computation.
// When nothing differs the cached result is still correct (the compute
// function is pure), so only the torn-down subscriptions need reinstalling.
func (d *DerivedValue[T]) revalidate() bool {
	for _, dep := range d.core.deps {
		if dep.changed() {
			return false
		}
	}
	d.core.resubscribe()
	return true
}

// recompute rebuilds the dependency list from scratch while running the
// compute function. On panic the dirty bit is restored and the panic
// propagates; whatever dependencies were registered so far remain, and the
// next read retries.
func (d *DerivedValue[T]) recompute() {
	core := &d.core
	core.computationID++
	core.dropSubs()
	core.deps = nil

	t := &Tracker{
		core: core,
		id:   core.computationID,
		seen: make(map[any]struct{}),
	}

	defer func() {
		if rec := recover(); rec != nil {
			core.reg.dirty = true
			panic(rec)
		}
	}()

	v := d.compute(t, d.value, d.initialized)
	d.value = v
	d.initialized = true
}

// SubscribeDirty registers a weakly-held dirty listener.
func (d *DerivedValue[T]) SubscribeDirty(l *Listener) Unsubscribe {
	return d.core.reg.subscribeDirty(l)
}

// SubscribeChange registers a weakly-held change listener.
func (d *DerivedValue[T]) SubscribeChange(l *Listener) Unsubscribe {
	return d.core.reg.subscribeChange(l)
}

// Map derives a value by applying fn to a single source.
//
// Example:
//
//	celsius := watchables.NewField(20.0)
//	fahrenheit := watchables.Map(celsius, func(c float64) float64 { return c*9/5 + 32 })
func Map[S, T any](source Watchable[S], fn func(S) T) *DerivedValue[T] {
	return NewDerived(func(t *Tracker, _ T, _ bool) T {
		return fn(Track(t, source))
	})
}

// Map2 derives a value by combining two sources.
func Map2[A, B, T any](a Watchable[A], b Watchable[B], fn func(A, B) T) *DerivedValue[T] {
	return NewDerived(func(t *Tracker, _ T, _ bool) T {
		return fn(Track(t, a), Track(t, b))
	})
}

// Map3 derives a value by combining three sources.
func Map3[A, B, C, T any](a Watchable[A], b Watchable[B], c Watchable[C], fn func(A, B, C) T) *DerivedValue[T] {
	return NewDerived(func(t *Tracker, _ T, _ bool) T {
		return fn(Track(t, a), Track(t, b), Track(t, c))
	})
}
