package bench

import "errors"

// Sentinel errors returned by the timing primitive.
var (
	// ErrNoKernel is returned when an Op has no kernel for the requested mode.
	ErrNoKernel = errors.New("bench: no kernel for mode")

	// ErrRepetitions is returned when the repetition count does not cover
	// at least one unrolled block.
	ErrRepetitions = errors.New("bench: repetitions below one block")

	// ErrUnknownOp is returned by Lookup for names not in Ops.
	ErrUnknownOp = errors.New("bench: unknown op")
)
