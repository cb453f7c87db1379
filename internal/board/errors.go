package board

import "errors"

// ErrViewOnly is returned when a view-tagged session submits an operator
// command. Rejected at the command layer; the Recorder is never reached.
var ErrViewOnly = errors.New("view session cannot submit commands")
