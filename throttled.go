package watchables

import (
	"time"

	"github.com/juju/clock"
)

// epochKind labels what a throttle epoch has already broadcast downstream.
type epochKind int

const (
	pendingNone epochKind = iota
	epochDirty
	epochChange
)

// throttleEpoch is the interval between a first-in-period event and its
// resolving timer.
type throttleEpoch struct {
	kind    epochKind
	pending epochKind
	timer   clock.Timer
}

// Throttled wraps a single source and forwards its dirty and change
// notifications subject to a minimum period between any two dispatches.
// Events arriving inside the period are coalesced: at most one suppressed
// wave is remembered and replayed when the period's timer fires.
//
// The value itself stays correct throughout: a read during suppression
// returns the last forwarded state, and the read after the timer discharge
// reflects the newest source value.
//
// Timer callbacks run on the clock's goroutine; with the default wall clock
// the caller must ensure no mutation races them, the same single-mutator
// rule the rest of the graph assumes.
//
// Example:
//
//	f := watchables.NewField(0)
//	t := watchables.NewThrottled[int](f, 50*time.Millisecond)
//	busy := t.Throttling() // true while updates are being suppressed
type Throttled[T any] struct {
	DerivedValue[T]

	source Watchable[T]
	period time.Duration
	clk    clock.Clock

	epoch *throttleEpoch

	// start pulses when an update is first suppressed, end when a timer
	// discharge replays one. Throttling derives from the two.
	start *Signal
	end   *Signal

	throttling *DerivedValue[bool]
}

// NewThrottled creates a throttled view of source using the wall clock.
func NewThrottled[T any](source Watchable[T], period time.Duration) *Throttled[T] {
	return NewThrottledWithClock(source, period, clock.WallClock)
}

// NewThrottledWithClock creates a throttled view of source with an explicit
// clock, letting tests drive time deterministically.
func NewThrottledWithClock[T any](source Watchable[T], period time.Duration, clk clock.Clock) *Throttled[T] {
	t := &Throttled[T]{
		source: source,
		period: period,
		clk:    clk,
		start:  NewSignal(),
		end:    NewSignal(),
	}
	t.DerivedValue.init(func(tr *Tracker, _ T, _ bool) T {
		return Track(tr, source)
	}, Options[T]{})
	t.core.onDepDirty = t.sourceDirty
	t.core.onDepChange = t.sourceChange

	t.throttling = NewDerived(func(tr *Tracker, _ bool, _ bool) bool {
		suppressing := t.epoch != nil && t.epoch.pending != pendingNone
		// Watch whichever signal announces the next state transition.
		if suppressing {
			Track[int](tr, t.end)
		} else {
			Track[int](tr, t.start)
		}
		return suppressing
	})
	return t
}

// Throttling exposes whether updates are currently being suppressed: true
// from the first suppressed update until the timer discharge that replays
// the last of them.
func (t *Throttled[T]) Throttling() Watchable[bool] {
	return t.throttling
}

// sourceDirty handles a dirty notification from the source.
func (t *Throttled[T]) sourceDirty() {
	t.core.dropDirtySubs()

	switch {
	case t.epoch == nil:
		// First event of a fresh period: forward immediately and open the
		// epoch.
		t.epoch = &throttleEpoch{kind: epochDirty}
		t.epoch.timer = t.clk.AfterFunc(t.period, t.timerFired)
		t.core.reg.broadcastDirty()
	case t.epoch.pending == pendingNone:
		// Inside the period: suppress. The downstream dirty for this wave
		// was already broadcast when the epoch opened.
		t.epoch.pending = epochDirty
		t.start.MarkDirty()
	default:
		// A suppressed wave is already recorded; nothing new to remember.
	}
}

// sourceChange handles a change notification from the source.
func (t *Throttled[T]) sourceChange() {
	if t.epoch != nil && t.epoch.kind == epochChange {
		// The current period already delivered a change downstream; record
		// the new one for the timer to replay, and re-arm the registry so
		// that replay can actually dispatch.
		t.epoch.pending = epochChange
		t.core.reg.signaled = false
		t.core.dropChangeSubs()
		t.start.MarkChange()
		return
	}

	// No epoch, or the epoch only carried a dirty so far: the change may go
	// out now, opening (or upgrading to) a change epoch.
	if t.epoch != nil && t.epoch.timer != nil {
		t.epoch.timer.Stop()
	}
	t.epoch = &throttleEpoch{kind: epochChange}
	t.epoch.timer = t.clk.AfterFunc(t.period, t.timerFired)
	t.core.reg.broadcastChange()
	t.keepSourceLive()
}

// timerFired resolves the current epoch. A recorded suppressed wave is
// replayed downstream and a fresh period begins; with nothing pending the
// epoch simply closes.
func (t *Throttled[T]) timerFired() {
	if t.epoch == nil {
		return
	}
	pending := t.epoch.pending
	if pending == pendingNone {
		t.epoch = nil
		return
	}

	t.epoch = &throttleEpoch{kind: pending}
	t.epoch.timer = t.clk.AfterFunc(t.period, t.timerFired)

	t.core.reg.broadcastDirty()
	t.end.MarkDirty()
	if pending == epochChange {
		t.core.reg.broadcastChange()
		t.end.MarkChange()
		t.keepSourceLive()
	}
}

// keepSourceLive re-reads the throttled value while its change notification
// is going out, but only when the suppression signals are being observed.
// The read refreshes the dependency subscriptions, so the source's next
// wave still reaches this wrapper even if no downstream consumer reads it —
// without an observer the usual lazy contract applies and the next
// downstream read re-arms everything instead.
func (t *Throttled[T]) keepSourceLive() {
	if t.start.hasListeners() || t.end.hasListeners() {
		_ = t.get(false)
	}
}
