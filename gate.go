package watchables

// NewEqualityGate derives a value from a single source, re-using the
// previous result whenever the predicate deems the new value equivalent.
// Because the previous result is returned as-is, its object identity is
// preserved, which stops downstream caches and identity-based comparisons
// from churning on equivalent updates.
//
// Example:
//
//	xs := watchables.NewFieldWithOptions([]int{1, 2}, watchables.Options[[]int]{
//	    Equal: func(a, b []int) bool { return false }, // reference-style field
//	})
//	stable := watchables.NewEqualityGate[[]int](xs, func(old, new []int) bool {
//	    return slices.Equal(old, new)
//	})
//	// xs.Set([]int{1, 2}).Commit() re-fires xs, but stable.Get() keeps
//	// returning the original slice and downstream values do not recompute.
func NewEqualityGate[T any](source Watchable[T], equivalent EqualFunc[T]) *DerivedValue[T] {
	return NewDerived(func(t *Tracker, prev T, ok bool) T {
		v := Track(t, source)
		if ok && equivalent(prev, v) {
			return prev
		}
		return v
	})
}
