package domain

import "errors"

// ErrReviewRejected is returned when a human rejects a checkpoint; the run
// fails and no further stages execute.
var ErrReviewRejected = errors.New("review rejected")

// ErrProtocolViolation marks contract breaches such as a second concurrent
// review request or feedback for a checkpoint that is not pending. Always
// fatal to the run.
var ErrProtocolViolation = errors.New("protocol violation")

// ErrBudgetExhausted is returned when the run-level retry budget reaches zero.
var ErrBudgetExhausted = errors.New("retry budget exhausted")

// ErrRunCancelled is returned when a run terminates because the client
// cancelled it.
var ErrRunCancelled = errors.New("run cancelled")

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrRunActive is returned when a session receives a start command while a
// run is already bound to it.
var ErrRunActive = errors.New("run already active for session")
