package watchables

import (
	"log"
	"runtime/debug"
	"weak"
)

// listenerRegistry is the notification fragment embedded in every watchable.
// It owns the two weak subscriber channels together with the dirty and
// signaled state bits that enforce the two-phase protocol:
//
//   - broadcastDirty dispatches at most once per read interval, and while it
//     is dispatching, reads of the owning watchable must fail fast.
//   - broadcastChange dispatches at most once per wave; only the dirty
//     broadcast opening the next wave re-arms it.
//
// The registry is not safe for concurrent use; the whole graph assumes a
// single mutator goroutine.
type listenerRegistry struct {
	dirtyListeners  weakSubscriberSet
	changeListeners weakSubscriberSet

	// dirty is true between the last dirty broadcast and the next read.
	dirty bool
	// signaled is true between the last change broadcast and the next dirty
	// broadcast; reads leave it set (see markRead).
	signaled bool
	// dispatchingDirty guards against reads from inside a dirty dispatch.
	dispatchingDirty bool

	// onPanic receives listener panics; nil means log and continue.
	onPanic func(err any, stack []byte)

	// onActive, when set, is invoked whenever the combined live listener
	// count transitions between zero and non-zero.
	onActive func(active bool)

	wasActive bool
}

func (r *listenerRegistry) subscribeDirty(l *Listener) Unsubscribe {
	r.dirtyListeners.add(l)
	r.recount()
	return r.unsubscriber(&r.dirtyListeners, l)
}

func (r *listenerRegistry) subscribeChange(l *Listener) Unsubscribe {
	r.changeListeners.add(l)
	r.recount()
	return r.unsubscriber(&r.changeListeners, l)
}

// unsubscriber builds the idempotent removal handle for l. The handle holds
// only a weak reference, so keeping it around does not keep the listener
// alive.
func (r *listenerRegistry) unsubscriber(set *weakSubscriberSet, l *Listener) Unsubscribe {
	ref := weak.Make(l)
	done := false
	return func() {
		if done {
			return
		}
		done = true
		set.removeRef(ref)
		r.recount()
	}
}

// broadcastDirty dispatches a dirty notification unless one is already
// outstanding. It clears signaled so that the change notification of the new
// wave can fire.
func (r *listenerRegistry) broadcastDirty() {
	if r.dirty {
		return
	}
	r.dirty = true
	r.signaled = false
	r.dispatchingDirty = true
	defer func() {
		r.dispatchingDirty = false
	}()
	r.dirtyListeners.forEach(r.dispatch)
	r.recount()
}

// broadcastChange dispatches a change notification unless one is already
// outstanding.
func (r *listenerRegistry) broadcastChange() {
	if r.signaled {
		return
	}
	r.signaled = true
	r.changeListeners.forEach(r.dispatch)
	r.recount()
}

// dispatch invokes a single listener, isolating its panics so the remaining
// listeners still run. Panics are reported to the configured sink and are
// never re-raised.
func (r *listenerRegistry) dispatch(l *Listener) {
	defer func() {
		if rec := recover(); rec != nil {
			if r.onPanic != nil {
				r.onPanic(rec, debug.Stack())
			} else {
				log.Printf("watchables: panic in listener: %v\n%s", rec, debug.Stack())
			}
		}
	}()
	l.invoke()
}

// markRead records a successful read, re-arming the dirty channel. The
// signaled bit stays set until the next dirty broadcast: within one wave a
// listener may read the value, and a second change arriving through another
// path must still coalesce.
func (r *listenerRegistry) markRead() {
	r.dirty = false
}

// assertNotDispatchingDirty panics with ErrReadDuringDirtyDispatch when a
// dirty dispatch is unwinding. Called at the top of every Get.
func (r *listenerRegistry) assertNotDispatchingDirty() {
	if r.dispatchingDirty {
		panic(ErrReadDuringDirtyDispatch)
	}
}

// liveListeners returns the combined number of reachable dirty and change
// listeners.
func (r *listenerRegistry) liveListeners() int {
	return r.dirtyListeners.live() + r.changeListeners.live()
}

// recount re-evaluates the zero/non-zero listener state and fires the
// onActive hook on transitions. Collected listeners only register here once
// an operation prunes them.
func (r *listenerRegistry) recount() {
	if r.onActive == nil {
		return
	}
	active := r.liveListeners() > 0
	if active != r.wasActive {
		r.wasActive = active
		r.onActive(active)
	}
}
