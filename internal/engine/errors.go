package engine

import "errors"

// ErrMalformedReport marks client errors: unparseable or incomplete
// reports and commands, rejected before any state change.
var ErrMalformedReport = errors.New("malformed input")
