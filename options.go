package watchables

// Options configures the behavior of a field or derived value.
type Options[T any] struct {
	// Equal is an optional custom equality function.
	// If nil, the default comparison is used: direct comparison for common
	// scalar types, reflect.DeepEqual for everything else.
	//
	// Fields call Equal during the perform phase of a write; when it reports
	// true the write is a complete no-op and no listener fires.
	//
	// Example:
	//
	//	// Compare users by ID only
	//	user := watchables.NewFieldWithOptions(&User{ID: 1}, watchables.Options[*User]{
	//	    Equal: func(a, b *User) bool {
	//	        if a == nil || b == nil {
	//	            return a == b
	//	        }
	//	        return a.ID == b.ID
	//	    },
	//	})
	Equal EqualFunc[T]

	// OnListenerPanic is an optional sink for panics raised by listener
	// callbacks. If nil, panics are logged to stderr with a stack trace and
	// dispatch continues.
	//
	// Listener dispatch isolates every listener: one panicking listener never
	// prevents the remaining listeners from running, and the panic is never
	// re-raised to the code that triggered the notification. It is only
	// reported here.
	//
	// Example:
	//
	//	OnListenerPanic: func(err any, stack []byte) {
	//	    log.Printf("listener panic: %v\n%s", err, stack)
	//	    metrics.IncrementPanicCounter()
	//	}
	OnListenerPanic func(err any, stack []byte)
}
