package watchables

import (
	"runtime"
	"testing"
)

// TestRegistry_DirtyCoalesces verifies repeated dirty broadcasts collapse
func TestRegistry_DirtyCoalesces(t *testing.T) {
	var r listenerRegistry

	fired := 0
	l := NewListener(func() { fired++ })
	defer r.subscribeDirty(l)()

	r.broadcastDirty()
	r.broadcastDirty()

	if fired != 1 {
		t.Errorf("dirty listener fired %d times, want 1", fired)
	}
}

// TestRegistry_ChangeCoalesces verifies repeated change broadcasts collapse
// until the next dirty broadcast re-arms the channel
func TestRegistry_ChangeCoalesces(t *testing.T) {
	var r listenerRegistry

	fired := 0
	l := NewListener(func() { fired++ })
	defer r.subscribeChange(l)()

	r.broadcastDirty()
	r.broadcastChange()
	r.broadcastChange()
	if fired != 1 {
		t.Errorf("change listener fired %d times, want 1", fired)
	}

	r.markRead()
	r.broadcastDirty()
	r.broadcastChange()
	if fired != 2 {
		t.Errorf("change listener fired %d times after new wave, want 2", fired)
	}
}

// TestRegistry_InsertionOrder verifies listeners run in subscription order
func TestRegistry_InsertionOrder(t *testing.T) {
	var r listenerRegistry

	var order []int
	l1 := NewListener(func() { order = append(order, 1) })
	l2 := NewListener(func() { order = append(order, 2) })
	l3 := NewListener(func() { order = append(order, 3) })
	defer r.subscribeChange(l1)()
	defer r.subscribeChange(l2)()
	defer r.subscribeChange(l3)()

	r.broadcastChange()

	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Errorf("dispatch order = %v, want [1 2 3]", order)
	}
}

// TestRegistry_UnsubscribeOtherDuringDispatch verifies a listener may remove
// a later listener mid-iteration
func TestRegistry_UnsubscribeOtherDuringDispatch(t *testing.T) {
	var r listenerRegistry

	var order []int
	var unsub2 Unsubscribe
	l1 := NewListener(func() {
		order = append(order, 1)
		unsub2()
	})
	l2 := NewListener(func() { order = append(order, 2) })
	defer r.subscribeChange(l1)()
	unsub2 = r.subscribeChange(l2)

	r.broadcastChange()

	if len(order) != 1 || order[0] != 1 {
		t.Errorf("dispatch order = %v, want [1] (l2 removed before its turn)", order)
	}
}

// TestRegistry_SelfUnsubscribeDuringDispatch verifies self-removal is safe
func TestRegistry_SelfUnsubscribeDuringDispatch(t *testing.T) {
	var r listenerRegistry

	fired := 0
	var unsub Unsubscribe
	l := NewListener(func() {
		fired++
		unsub()
	})
	after := NewListener(func() { fired++ })
	unsub = r.subscribeChange(l)
	defer r.subscribeChange(after)()

	r.broadcastChange()
	r.markRead()
	r.broadcastDirty()
	r.broadcastChange()

	if fired != 3 {
		t.Errorf("fired = %d, want 3 (self-removed listener runs once, the other twice)", fired)
	}
}

// TestRegistry_PanicIsolation verifies one failing listener does not stop
// the rest, and the failure reaches the sink
func TestRegistry_PanicIsolation(t *testing.T) {
	var r listenerRegistry

	var sunk []any
	r.onPanic = func(err any, stack []byte) { sunk = append(sunk, err) }

	ran := false
	bad := NewListener(func() { panic("listener boom") })
	good := NewListener(func() { ran = true })
	defer r.subscribeChange(bad)()
	defer r.subscribeChange(good)()

	r.broadcastChange()

	if !ran {
		t.Errorf("listener after the panicking one did not run")
	}
	if len(sunk) != 1 || sunk[0] != "listener boom" {
		t.Errorf("sink received %v, want [listener boom]", sunk)
	}
}

// TestRegistry_CollectedListenerSkipped verifies a listener held only by the
// registry is collectable and its slot is reclaimed
func TestRegistry_CollectedListenerSkipped(t *testing.T) {
	f := NewField(0)

	fired := 0
	kept := NewListener(func() { fired++ })
	defer f.SubscribeChange(kept)()

	func() {
		f.SubscribeChange(NewListener(func() { fired += 100 }))
	}()

	runtime.GC()
	runtime.GC()

	f.Set(1).Commit()

	if fired != 1 {
		t.Errorf("fired = %d, want 1 (collected listener must be skipped)", fired)
	}
	if got := f.reg.changeListeners.live(); got != 1 {
		t.Errorf("live change listeners = %d, want 1", got)
	}
}

// TestRegistry_SubscriberCountDropsToZero verifies the registry empties once
// every strong owner releases
func TestRegistry_SubscriberCountDropsToZero(t *testing.T) {
	f := NewField(0)

	func() {
		f.SubscribeDirty(NewListener(func() {}))
		f.SubscribeChange(NewListener(func() {}))
	}()

	runtime.GC()
	runtime.GC()

	if got := f.reg.liveListeners(); got != 0 {
		t.Errorf("live listeners = %d, want 0 after collection", got)
	}
}

// TestRegistry_DerivedChainCollectable verifies a derived value reachable
// only through its dependency is collected and the source's subscriber set
// drains
func TestRegistry_DerivedChainCollectable(t *testing.T) {
	f := NewField(1)

	func() {
		d := Map(f, func(v int) int { return v * 2 })
		if got := d.Get(); got != 2 {
			t.Fatalf("Get() = %d, want 2", got)
		}
		inner := Map[int, int](d, func(v int) int { return v + 1 })
		if got := inner.Get(); got != 3 {
			t.Fatalf("Get() = %d, want 3", got)
		}
	}()

	runtime.GC()
	runtime.GC()

	if got := f.reg.liveListeners(); got != 0 {
		t.Errorf("source still has %d live subscribers after the chain was dropped, want 0", got)
	}
}
