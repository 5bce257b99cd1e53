package watchables

// Signal is a counter-valued watchable with explicit dirty and change
// control, useful for hand-built notification protocols: mark it dirty when
// something begins to change, mark it changed when the new state has
// settled, and let consumers re-read the counter to notice the transition.
//
// Example:
//
//	tick := watchables.NewSignal()
//	ticks := watchables.Map(tick, func(n int) string { return fmt.Sprintf("tick #%d", n) })
//	tick.Pulse() // one dirty + one change wave through ticks
type Signal struct {
	reg   listenerRegistry
	count int
}

// NewSignal creates a signal with counter zero.
func NewSignal() *Signal {
	return &Signal{}
}

// Get returns the counter. Each MarkDirty that actually dispatched has
// incremented it, so the value only ever grows.
func (s *Signal) Get() int {
	s.reg.assertNotDispatchingDirty()
	s.reg.markRead()
	return s.count
}

// MarkDirty increments the counter and broadcasts a dirty notification,
// unless a dirty notification is already outstanding.
func (s *Signal) MarkDirty() {
	if s.reg.dirty {
		return
	}
	s.count++
	s.reg.broadcastDirty()
}

// MarkChange broadcasts a change notification, unless one is already
// outstanding.
func (s *Signal) MarkChange() {
	s.reg.broadcastChange()
}

// Pulse marks the signal dirty and then changed, producing one complete
// notification wave.
func (s *Signal) Pulse() {
	s.MarkDirty()
	s.MarkChange()
}

// IsDirty reports whether a dirty notification is outstanding.
func (s *Signal) IsDirty() bool {
	return s.reg.dirty
}

// SubscribeDirty registers a weakly-held dirty listener.
func (s *Signal) SubscribeDirty(l *Listener) Unsubscribe {
	return s.reg.subscribeDirty(l)
}

// SubscribeChange registers a weakly-held change listener.
func (s *Signal) SubscribeChange(l *Listener) Unsubscribe {
	return s.reg.subscribeChange(l)
}

// hasListeners reports whether anything is currently observing the signal.
func (s *Signal) hasListeners() bool {
	return s.reg.liveListeners() > 0
}
