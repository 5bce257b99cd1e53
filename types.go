package watchables

import "reflect"

// Unsubscribe is a function that removes a subscription.
// Calling it more than once is safe; every call after the first is a no-op.
//
// Example:
//
//	unsub := field.SubscribeChange(l)
//	defer unsub()
type Unsubscribe func()

// Watchable is a reactive value of type T supporting the two-phase
// notification protocol.
//
// A dirty notification is an advance warning that the value may have changed;
// reading the watchable while its dirty notification is being dispatched
// panics with ErrReadDuringDirtyDispatch. A change notification is a
// commitment that the value has settled; reading during a change dispatch is
// permitted and is how consumers pick up fresh values.
//
// Within one update wave, all dirty notifications complete before any change
// notification is dispatched, so a change listener always observes the fully
// settled graph.
//
// Example:
//
//	var total watchables.Watchable[int] = watchables.Map(count, double)
//	l := watchables.NewListener(func() {
//	    fmt.Println("total is now", total.Get())
//	})
//	unsub := total.SubscribeChange(l)
//	defer unsub()
type Watchable[T any] interface {
	// Get returns the current value, recomputing it first if necessary.
	// It panics with ErrReadDuringDirtyDispatch when called while a dirty
	// notification is being dispatched from this watchable.
	Get() T

	// SubscribeDirty registers a listener for dirty notifications.
	// The listener is held weakly; see Listener.
	SubscribeDirty(l *Listener) Unsubscribe

	// SubscribeChange registers a listener for change notifications.
	// The listener is held weakly; see Listener.
	SubscribeChange(l *Listener) Unsubscribe
}

// Listener is a subscriber callback. Subscriptions store listeners through
// weak references: the watchable never keeps a listener alive on its own.
// The caller owns the *Listener; once the caller drops every strong
// reference, the subscription lapses and its slot is reclaimed on the next
// dispatch. This is what lets an unreferenced derived value, together with
// its transitive subscriptions, be garbage collected.
//
// Listener identity (the pointer) deduplicates registry membership:
// subscribing the same *Listener twice to the same channel is a no-op.
type Listener struct {
	fn func()
}

// NewListener wraps fn in a Listener holder. Keep the returned pointer
// reachable for as long as the callback should keep firing.
func NewListener(fn func()) *Listener {
	return &Listener{fn: fn}
}

func (l *Listener) invoke() {
	l.fn()
}

// EqualFunc compares two values for equality. It returns true if the values
// are considered equal, false otherwise.
//
// Fields use an EqualFunc to decide whether a write is a real change; two
// equal writes produce no notifications at all.
type EqualFunc[T any] func(a, b T) bool

// equal is the default equality used by fields and by dependency
// revalidation. Common scalar types are compared directly; everything else
// falls back to reflect.DeepEqual.
func equal[T any](a, b T) bool {
	var aAny any = a
	var bAny any = b

	switch av := aAny.(type) {
	case string:
		if bv, ok := bAny.(string); ok {
			return av == bv
		}
	case int:
		if bv, ok := bAny.(int); ok {
			return av == bv
		}
	case int64:
		if bv, ok := bAny.(int64); ok {
			return av == bv
		}
	case float64:
		if bv, ok := bAny.(float64); ok {
			return av == bv
		}
	case bool:
		if bv, ok := bAny.(bool); ok {
			return av == bv
		}
	case nil:
		return bAny == nil
	}

	return reflect.DeepEqual(aAny, bAny)
}

// subscriber is the type-erased subscription surface shared by every
// Watchable[T]. Dependency records hold their sources through it so that a
// derived value can manage subscriptions without knowing value types.
type subscriber interface {
	SubscribeDirty(l *Listener) Unsubscribe
	SubscribeChange(l *Listener) Unsubscribe
}
