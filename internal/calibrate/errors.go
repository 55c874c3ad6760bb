package calibrate

import "errors"

// Sentinel errors returned by the frequency calibrator.
var (
	// ErrUnsupported is returned when the calibration add itself trapped.
	ErrUnsupported = errors.New("calibrate: calibration instruction unsupported")

	// ErrBadSample is returned when the timing primitive reports a
	// non-positive ratio, which no frequency can be derived from.
	ErrBadSample = errors.New("calibrate: non-positive timing ratio")

	// ErrTrials is returned when fewer than one trial is requested.
	ErrTrials = errors.New("calibrate: trials must be positive")
)
