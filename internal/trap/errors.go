package trap

import "errors"

// Sentinel errors returned by the fault trap.
var (
	// ErrUnknownOp is returned when Call names an op that was never registered.
	ErrUnknownOp = errors.New("trap: unknown op")

	// ErrDuplicateOp is returned when an op name is registered twice.
	ErrDuplicateOp = errors.New("trap: duplicate op")

	// ErrNested is returned when a probe child tries to open another guarded
	// call. Guarded regions do not nest.
	ErrNested = errors.New("trap: nested guarded call")

	// ErrChildFailed is returned when the probe child died for a reason other
	// than an illegal instruction.
	ErrChildFailed = errors.New("trap: probe child failed")

	// ErrProtocol is returned when the probe child exited cleanly but its
	// result could not be decoded.
	ErrProtocol = errors.New("trap: malformed probe result")

	// ErrPanic is returned when an op panics while running in-process.
	ErrPanic = errors.New("trap: op panicked")
)

// ErrOpFailed wraps an error an op returned inside a probe child.
var ErrOpFailed = errors.New("trap: op failed")
