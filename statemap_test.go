package watchables

import (
	"testing"

	json "github.com/goccy/go-json"
	"github.com/vmihailenco/msgpack/v5"
)

// TestStateMap_GetAndNames verifies basic collection access
func TestStateMap_GetAndNames(t *testing.T) {
	count := NewField(42)
	name := NewField("Alice")

	sm := NewStateMap()
	AddState[int](sm, "count", count)
	AddState[string](sm, "name", name)
	defer sm.Close()

	if v, ok := sm.Get("count"); !ok || v != 42 {
		t.Errorf("Get(count) = %v, %v; want 42, true", v, ok)
	}
	if _, ok := sm.Get("missing"); ok {
		t.Errorf("Get(missing) reported ok")
	}

	names := sm.Names()
	if len(names) != 2 || names[0] != "count" || names[1] != "name" {
		t.Errorf("Names() = %v, want [count name]", names)
	}
}

// TestStateMap_JSONSnapshot verifies JSON export
func TestStateMap_JSONSnapshot(t *testing.T) {
	count := NewField(42)
	name := NewField("Alice")

	sm := NewStateMap()
	AddState[int](sm, "count", count)
	AddState[string](sm, "name", name)
	defer sm.Close()

	payload, err := sm.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal([]byte(payload), &decoded); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if decoded["name"] != "Alice" {
		t.Errorf("decoded name = %v, want Alice", decoded["name"])
	}
	if decoded["count"] != float64(42) {
		t.Errorf("decoded count = %v, want 42", decoded["count"])
	}
}

// TestStateMap_MsgpackSnapshot verifies binary export round-trips
func TestStateMap_MsgpackSnapshot(t *testing.T) {
	name := NewField("Bob")

	sm := NewStateMap()
	AddState[string](sm, "name", name)
	defer sm.Close()

	payload, err := sm.ToMsgpack()
	if err != nil {
		t.Fatalf("ToMsgpack() error: %v", err)
	}

	var decoded map[string]any
	if err := msgpack.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if decoded["name"] != "Bob" {
		t.Errorf("decoded name = %v, want Bob", decoded["name"])
	}
}

// TestStateMap_OnChangeSeesSettledState verifies the callback observes
// whole update waves, never partial groups
func TestStateMap_OnChangeSeesSettledState(t *testing.T) {
	first := NewField("Bob")
	last := NewField("Doe")

	sm := NewStateMap()
	AddState[string](sm, "first", first)
	AddState[string](sm, "last", last)
	defer sm.Close()

	var snapshots []map[string]any
	sm.OnChange = func(name string, value any) {
		snapshots = append(snapshots, sm.ToMap())
	}

	Chain(first.Set("John"), last.Set("Smith")).Commit()

	if len(snapshots) != 2 {
		t.Fatalf("OnChange fired %d times, want 2 (once per member)", len(snapshots))
	}
	for i, snap := range snapshots {
		if snap["first"] != "John" || snap["last"] != "Smith" {
			t.Errorf("snapshot %d = %v, want both members settled", i, snap)
		}
	}
}

// TestStateMap_DerivedMembers verifies derived values participate
func TestStateMap_DerivedMembers(t *testing.T) {
	count := NewField(3)
	doubled := Map(count, func(v int) int { return v * 2 })

	sm := NewStateMap()
	AddState[int](sm, "doubled", doubled)
	defer sm.Close()

	var changed []any
	sm.OnChange = func(name string, value any) { changed = append(changed, value) }

	count.Set(5).Commit()

	if v, _ := sm.Get("doubled"); v != 10 {
		t.Errorf("Get(doubled) = %v, want 10", v)
	}
	if len(changed) != 1 || changed[0] != 10 {
		t.Errorf("OnChange deliveries = %v, want [10]", changed)
	}
}

// TestStateMap_RemoveStopsDelivery verifies member release
func TestStateMap_RemoveStopsDelivery(t *testing.T) {
	count := NewField(0)

	sm := NewStateMap()
	AddState[int](sm, "count", count)

	fired := 0
	sm.OnChange = func(name string, value any) { fired++ }

	sm.Remove("count")
	count.Set(1).Commit()

	if fired != 0 {
		t.Errorf("OnChange fired %d times after Remove, want 0", fired)
	}
	if _, ok := sm.Get("count"); ok {
		t.Errorf("removed member still present")
	}
}

// TestStateMap_ReplaceReleasesOldObserver verifies re-adding under the same
// name swaps cleanly
func TestStateMap_ReplaceReleasesOldObserver(t *testing.T) {
	old := NewField(1)
	repl := NewField(2)

	sm := NewStateMap()
	AddState[int](sm, "v", old)
	AddState[int](sm, "v", repl)
	defer sm.Close()

	fired := 0
	sm.OnChange = func(name string, value any) { fired++ }

	old.Set(10).Commit()
	if fired != 0 {
		t.Errorf("OnChange fired %d times for the replaced member, want 0", fired)
	}

	repl.Set(20).Commit()
	if fired != 1 {
		t.Errorf("OnChange fired %d times for the new member, want 1", fired)
	}
	if v, _ := sm.Get("v"); v != 20 {
		t.Errorf("Get(v) = %v, want 20", v)
	}
}
