package watchables

import (
	"testing"
)

// TestField_InitialValue verifies construction
func TestField_InitialValue(t *testing.T) {
	f := NewField(42)
	if got := f.Get(); got != 42 {
		t.Errorf("Get() = %d, want 42", got)
	}

	s := NewField("hello")
	if got := s.Get(); got != "hello" {
		t.Errorf("Get() = %q, want %q", got, "hello")
	}
}

// TestField_SetCommit verifies the write round-trip
func TestField_SetCommit(t *testing.T) {
	f := NewField(0)
	f.Set(10).Commit()
	if got := f.Get(); got != 10 {
		t.Errorf("after Set(10), Get() = %d, want 10", got)
	}
}

// TestField_EqualWriteIsNoop verifies that writing an equal value fires no
// notifications and changes nothing
func TestField_EqualWriteIsNoop(t *testing.T) {
	f := NewField(10)

	events := 0
	dirty := NewListener(func() { events++ })
	change := NewListener(func() { events++ })
	defer f.SubscribeDirty(dirty)()
	defer f.SubscribeChange(change)()

	f.Set(10).Commit()

	if events != 0 {
		t.Errorf("equal write dispatched %d events, want 0", events)
	}
	if got := f.Get(); got != 10 {
		t.Errorf("Get() = %d, want 10", got)
	}
}

// TestField_CustomEquality verifies the Equal option is consulted
func TestField_CustomEquality(t *testing.T) {
	// Compare by parity: writes with the same parity are no-ops.
	f := NewFieldWithOptions(2, Options[int]{
		Equal: func(a, b int) bool { return a%2 == b%2 },
	})

	changes := 0
	l := NewListener(func() { changes++ })
	defer f.SubscribeChange(l)()

	f.Set(4).Commit() // same parity: no-op
	if got := f.Get(); got != 2 {
		t.Errorf("Get() = %d, want 2 (equal write must not assign)", got)
	}

	f.Set(5).Commit()
	if got := f.Get(); got != 5 {
		t.Errorf("Get() = %d, want 5", got)
	}
	if changes != 1 {
		t.Errorf("change listener fired %d times, want 1", changes)
	}
}

// TestField_Update verifies transforming writes
func TestField_Update(t *testing.T) {
	f := NewField(5)
	f.Update(func(v int) int { return v + 1 }).Commit()
	if got := f.Get(); got != 6 {
		t.Errorf("after Update(+1), Get() = %d, want 6", got)
	}
}

// TestField_DirtyBeforeChange verifies the notification order within a wave
func TestField_DirtyBeforeChange(t *testing.T) {
	f := NewField(0)

	var order []string
	dirty := NewListener(func() { order = append(order, "dirty") })
	change := NewListener(func() { order = append(order, "change") })
	defer f.SubscribeDirty(dirty)()
	defer f.SubscribeChange(change)()

	f.Set(1).Commit()

	if len(order) != 2 || order[0] != "dirty" || order[1] != "change" {
		t.Errorf("notification order = %v, want [dirty change]", order)
	}
}

// TestField_NoRedundantEvents verifies that without an intervening read, a
// second write dispatches nothing new
func TestField_NoRedundantEvents(t *testing.T) {
	f := NewField(0)

	dirties, changes := 0, 0
	dirty := NewListener(func() { dirties++ })
	change := NewListener(func() { changes++ })
	defer f.SubscribeDirty(dirty)()
	defer f.SubscribeChange(change)()

	f.Set(1).Commit()
	f.Set(2).Commit()

	if dirties != 1 || changes != 1 {
		t.Errorf("got %d dirty / %d change events, want 1 / 1", dirties, changes)
	}
	if got := f.Get(); got != 2 {
		t.Errorf("Get() = %d, want 2", got)
	}

	// A read re-arms the dirty channel for the next wave.
	f.Set(3).Commit()
	if dirties != 2 || changes != 2 {
		t.Errorf("after read, got %d dirty / %d change events, want 2 / 2", dirties, changes)
	}
}

// TestField_ReadDuringDirtyDispatchPanics verifies the fail-fast contract
func TestField_ReadDuringDirtyDispatchPanics(t *testing.T) {
	f := NewField(0)

	var caught any
	l := NewListener(func() {
		defer func() { caught = recover() }()
		f.Get()
	})
	defer f.SubscribeDirty(l)()

	f.Set(1).Commit()

	if caught != ErrReadDuringDirtyDispatch {
		t.Errorf("reading inside dirty dispatch recovered %v, want ErrReadDuringDirtyDispatch", caught)
	}
}

// TestField_ReadDuringChangeDispatchAllowed verifies reads settle during the
// change phase
func TestField_ReadDuringChangeDispatchAllowed(t *testing.T) {
	f := NewField(0)

	got := -1
	l := NewListener(func() { got = f.Get() })
	defer f.SubscribeChange(l)()

	f.Set(7).Commit()

	if got != 7 {
		t.Errorf("change listener read %d, want 7", got)
	}
}

// TestField_UnsubscribeIdempotent verifies handles may be called repeatedly
func TestField_UnsubscribeIdempotent(t *testing.T) {
	f := NewField(0)

	fired := 0
	l := NewListener(func() { fired++ })
	unsub := f.SubscribeChange(l)

	unsub()
	unsub() // second call must be a no-op

	f.Set(1).Commit()
	if fired != 0 {
		t.Errorf("listener fired %d times after unsubscribe, want 0", fired)
	}
}

// TestField_DuplicateSubscribeIsNoop verifies listener identity dedup
func TestField_DuplicateSubscribeIsNoop(t *testing.T) {
	f := NewField(0)

	fired := 0
	l := NewListener(func() { fired++ })
	unsub1 := f.SubscribeChange(l)
	unsub2 := f.SubscribeChange(l)
	defer unsub1()
	defer unsub2()

	f.Set(1).Commit()
	if fired != 1 {
		t.Errorf("listener fired %d times, want 1 (duplicate subscribe must dedup)", fired)
	}
}

// TestField_MutationInsideListener verifies nested waves run synchronously
func TestField_MutationInsideListener(t *testing.T) {
	a := NewField(0)
	b := NewField(0)

	var seen []int
	la := NewListener(func() {
		v := a.Get()
		seen = append(seen, v)
		if v < 3 {
			b.Set(v * 10).Commit()
		}
	})
	defer a.SubscribeChange(la)()

	a.Set(1).Commit()

	if len(seen) != 1 || seen[0] != 1 {
		t.Errorf("seen = %v, want [1]", seen)
	}
	if got := b.Get(); got != 10 {
		t.Errorf("nested wave result = %d, want 10", got)
	}
}
