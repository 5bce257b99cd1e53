package watchables

import "github.com/juju/errors"

const (
	// ErrReadDuringDirtyDispatch is the panic value raised by Get when a
	// watchable is read while its own dirty notification is still being
	// dispatched. Dirty listeners must not read; they only forward the
	// warning. The value settles once the change notification arrives.
	ErrReadDuringDirtyDispatch = errors.ConstError("watchables: read during dirty dispatch")

	// ErrMutationConsumed is the panic value raised by a Mutator when its
	// perform or signal stage is run twice, or when signal runs before
	// perform. A mutator is a single-use value: commit it once, or drop it.
	ErrMutationConsumed = errors.ConstError("watchables: mutator stage already consumed")
)
