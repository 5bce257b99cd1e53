package main

import (
	"fmt"
	"time"

	"github.com/coregx/watchables"
)

func main() {
	demoFields()
	demoAtomicGroups()
	demoDerivedValues()
	demoThrottle()
	demoStateMap()
	fmt.Println("\n=== Demo Complete ===")
}

func demoFields() {
	fmt.Println("=== Phase 1: Fields and Mutators ===")

	count := watchables.NewField(0)
	fmt.Println("count:", count.Get())

	// Writes are two-phase mutators; commit applies them.
	count.Set(5).Commit()
	fmt.Println("after Set(5):", count.Get())

	count.Update(func(v int) int { return v + 1 }).Commit()
	fmt.Println("after Update(+1):", count.Get())

	// Equal writes are complete no-ops.
	count.Set(6).Commit()
	fmt.Println("after Set(6) again:", count.Get())
}

func demoAtomicGroups() {
	fmt.Println("\n=== Phase 2: Atomic Groups ===")

	first := watchables.NewField("Bob")
	last := watchables.NewField("Doe")
	full := watchables.Map2[string, string, string](first, last, func(a, b string) string {
		return a + " " + b
	})

	obs := watchables.NewObserver[string](full).Add(func(next, prev string) {
		fmt.Printf("full name: %q -> %q\n", prev, next)
	}, false)
	defer obs.Destroy()

	// Both writes land in one wave; the observer fires once with the final
	// combination, never "John Doe" or "Bob Smith".
	watchables.Chain(first.Set("John"), last.Set("Smith")).Commit()
}

func demoDerivedValues() {
	fmt.Println("\n=== Phase 3: Derived Diamonds ===")

	s0 := watchables.NewField(1)
	s1 := watchables.Map[int, int](s0, func(v int) int { return v })
	s2 := watchables.Map2[int, int, int](s0, s1, func(a, b int) int { return a + b })
	s3 := watchables.NewDerived(func(t *watchables.Tracker, _ int, _ bool) int {
		return watchables.Track[int](t, s0) + watchables.Track[int](t, s1) + watchables.Track[int](t, s2)
	})

	fmt.Println("s3:", s3.Get())
	s0.Set(2).Commit()
	fmt.Println("s3 after s0=2:", s3.Get())
}

func demoThrottle() {
	fmt.Println("\n=== Phase 4: Throttling ===")

	f := watchables.NewField(0)
	t := watchables.NewThrottled[int](f, 50*time.Millisecond)

	fmt.Println("throttled:", t.Get())
	f.Set(1).Commit()
	fmt.Println("after first update:", t.Get())
	f.Set(2).Commit()
	fmt.Println("inside throttle window:", t.Get())

	time.Sleep(80 * time.Millisecond)
	fmt.Println("after window:", t.Get())
}

func demoStateMap() {
	fmt.Println("\n=== Phase 5: State Snapshots ===")

	count := watchables.NewField(42)
	name := watchables.NewField("Alice")

	sm := watchables.NewStateMap()
	watchables.AddState[int](sm, "count", count)
	watchables.AddState[string](sm, "name", name)
	defer sm.Close()

	sm.OnChange = func(key string, value any) {
		fmt.Printf("changed %s = %v\n", key, value)
	}

	payload, _ := sm.ToJSON()
	fmt.Println("snapshot:", payload)

	name.Set("Bob").Commit()
}
