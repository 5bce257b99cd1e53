package watchables

import (
	"sort"

	json "github.com/goccy/go-json"
	"github.com/vmihailenco/msgpack/v5"
)

// StateMap is a named collection of watchables with snapshot export. It
// observes every member through the change channel, so the OnChange callback
// and any snapshot taken from inside it only ever see settled values — never
// the middle of an update wave, even when members are written as an atomic
// group.
//
// Example:
//
//	sm := watchables.NewStateMap()
//	watchables.AddState(sm, "count", count)
//	watchables.AddState(sm, "name", name)
//	sm.OnChange = func(key string, value any) {
//	    payload, _ := sm.ToJSON()
//	    push(payload)
//	}
type StateMap struct {
	entries map[string]*stateEntry

	// OnChange, when set, is invoked after a member's value has settled,
	// with the member's name and new value.
	OnChange func(name string, value any)
}

type stateEntry struct {
	getAny  func() any
	destroy func()
}

// NewStateMap creates an empty state collection.
func NewStateMap() *StateMap {
	return &StateMap{entries: make(map[string]*stateEntry)}
}

// AddState adds w to the collection under name, replacing (and releasing)
// any previous member with that name.
func AddState[T any](sm *StateMap, name string, w Watchable[T]) *StateMap {
	if prev, ok := sm.entries[name]; ok {
		prev.destroy()
	}
	obs := NewObserver(w).Add(func(next, _ T) {
		if sm.OnChange != nil {
			sm.OnChange(name, next)
		}
	}, false)
	sm.entries[name] = &stateEntry{
		getAny:  func() any { return w.Get() },
		destroy: obs.Destroy,
	}
	return sm
}

// Get retrieves a member's current value by name.
func (sm *StateMap) Get(name string) (any, bool) {
	e, ok := sm.entries[name]
	if !ok {
		return nil, false
	}
	return e.getAny(), true
}

// Remove releases the member registered under name, if any.
func (sm *StateMap) Remove(name string) {
	if e, ok := sm.entries[name]; ok {
		e.destroy()
		delete(sm.entries, name)
	}
}

// Names returns the member names in sorted order.
func (sm *StateMap) Names() []string {
	names := make([]string, 0, len(sm.entries))
	for name := range sm.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ToMap snapshots all members into a plain map.
func (sm *StateMap) ToMap() map[string]any {
	result := make(map[string]any, len(sm.entries))
	for name, e := range sm.entries {
		result[name] = e.getAny()
	}
	return result
}

// MarshalJSON serializes the current snapshot as a JSON object.
func (sm *StateMap) MarshalJSON() ([]byte, error) {
	return json.Marshal(sm.ToMap())
}

// ToJSON returns the current snapshot as a JSON string.
func (sm *StateMap) ToJSON() (string, error) {
	data, err := sm.MarshalJSON()
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ToMsgpack returns the current snapshot in msgpack encoding, for consumers
// that push binary state deltas.
func (sm *StateMap) ToMsgpack() ([]byte, error) {
	return msgpack.Marshal(sm.ToMap())
}

// Close releases every member's observer. The map is empty afterwards.
func (sm *StateMap) Close() {
	for name, e := range sm.entries {
		e.destroy()
		delete(sm.entries, name)
	}
}
