package watchables

// Observer is a long-lived adaptor over a watchable's change channel. On
// every change notification it reads the source and, if the value differs
// from the previously read one, invokes the registered callbacks in
// registration order with the new and previous values.
//
// Unlike raw listeners, the observer holds its change subscription strongly,
// keeping the observed value (and its transitive subscriptions) alive for
// the observer's lifetime. Call Destroy to release everything.
//
// Example:
//
//	obs := watchables.NewObserver[string](fullName).Add(func(next, prev string) {
//	    fmt.Printf("%s -> %s\n", prev, next)
//	}, false)
//	defer obs.Destroy()
type Observer[T any] struct {
	source    Watchable[T]
	listener  *Listener // strong: pins the subscription and the source chain
	unsub     Unsubscribe
	callbacks []func(next, prev T)
	last      T
	primed    bool
	destroyed bool
}

// NewObserver creates an observer of source. The source is not read until
// the first Add, so creating an observer does not force a computation.
func NewObserver[T any](source Watchable[T]) *Observer[T] {
	o := &Observer[T]{source: source}
	o.listener = NewListener(o.onChange)
	o.unsub = source.SubscribeChange(o.listener)
	return o
}

func (o *Observer[T]) onChange() {
	if o.destroyed || !o.primed {
		return
	}
	v := o.source.Get()
	if equal(o.last, v) {
		return
	}
	prev := o.last
	o.last = v
	for _, cb := range o.callbacks {
		cb(v, prev)
	}
}

// Add registers a callback. On the first Add the observer primes itself by
// reading the source. With deliverInitial set, the callback is invoked
// immediately with the current value (the previous value is the zero value
// of T).
func (o *Observer[T]) Add(cb func(next, prev T), deliverInitial bool) *Observer[T] {
	if o.destroyed {
		return o
	}
	if !o.primed {
		o.last = o.source.Get()
		o.primed = true
	}
	o.callbacks = append(o.callbacks, cb)
	if deliverInitial {
		var zero T
		cb(o.last, zero)
	}
	return o
}

// Destroy unsubscribes from the source and drops all callbacks. Safe to
// call more than once.
func (o *Observer[T]) Destroy() {
	if o.destroyed {
		return
	}
	o.destroyed = true
	o.unsub()
	o.callbacks = nil
}
