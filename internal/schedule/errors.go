package schedule

import "errors"

// Sentinel errors for Recorder operations. Validation failures leave the
// store unchanged.
var (
	ErrActNotFound    = errors.New("act not found in current schedule")
	ErrEndBeforeStart = errors.New("actual end before actual start")
	ErrStartAfterEnd  = errors.New("actual start after actual end")
)
