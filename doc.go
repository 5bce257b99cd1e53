// Package watchables provides a reactive value graph for Go: observable
// values whose consumers compose lazily evaluated derived values that track
// their dependencies automatically, cache results, and propagate change
// notifications under a strict two-phase protocol.
//
// # Two-Phase Protocol
//
// Every update travels as a wave of two notifications. First a dirty warning
// fans out through the whole downstream cone — "this value may be about to
// change, do not read yet". Only once every dirty warning has been delivered
// does the change notification follow — "the value has settled, read now".
// Because the phases never interleave, a change listener can read any part
// of the graph and always observes a fully consistent state; reading during
// a dirty dispatch panics with ErrReadDuringDirtyDispatch instead of
// returning torn data.
//
// # Core Types
//
// Watchable[T] - the uniform read/subscribe capability implemented by every
// value in the graph.
//
// Field[T] - a settable value with pluggable equality. Writes produce
// Mutators.
//
// Mutator[R] - a reified two-phase write. Commit one alone, or group several
// with Chain, All, or Build so that no listener observes a partial update.
//
// DerivedValue[T] - a lazy, cached computation over watched inputs, with
// transparent dependency tracking via Track.
//
// SourceField[T], PassiveDerived[T], NewEqualityGate, Signal, Throttled[T],
// Observer[T], StateMap - see their declarations.
//
// # Example Usage
//
//	first := watchables.NewField("Bob")
//	last := watchables.NewField("Doe")
//
//	full := watchables.NewDerived(func(t *watchables.Tracker, _ string, _ bool) string {
//	    return watchables.Track(t, first) + " " + watchables.Track(t, last)
//	})
//
//	obs := watchables.NewObserver[string](full).Add(func(next, prev string) {
//	    fmt.Printf("%s -> %s\n", prev, next)
//	}, false)
//	defer obs.Destroy()
//
//	// One atomic wave: the observer fires once, with "John Smith".
//	watchables.Chain(first.Set("John"), last.Set("Smith")).Commit()
//
// # Laziness
//
// Derived values never recompute during propagation. A dirty warning is
// forwarded as-is, the change notification likewise; the compute function
// runs only when someone reads the value, and even then an ordered
// comparison of the previously observed inputs can prove the cache still
// valid and skip the computation.
//
// # Concurrency
//
// The graph assumes a single mutator goroutine: one logical thread drives
// all reads and writes. There is no internal locking, and listener dispatch
// is synchronous and reentrant — mutating from inside a change listener
// starts a nested wave that runs to completion before the outer dispatch
// resumes. Throttled timers fire on the clock's goroutine; arrange for them
// not to race other mutations (tests inject a manual clock).
//
// # Memory
//
// Subscriptions hold listeners weakly. A derived value strong-refs only its
// own handlers; its dependencies see them through weak references, so
// dropping the last reference to a derived value lets the collector reclaim
// it together with its transitive subscriptions — no explicit dispose call
// is needed. Observers are the exception: they pin their source on purpose
// until Destroy.
//
// # Errors
//
// Protocol violations panic: ErrReadDuringDirtyDispatch for reads inside a
// dirty dispatch, ErrMutationConsumed for reused mutator stages. A panic in
// a compute function propagates to the reader and leaves the value dirty so
// the next read retries. A panic in a listener is isolated, reported to the
// OnListenerPanic sink (stderr log by default), and never re-raised.
package watchables
