package detection

import (
	"errors"
	"fmt"
)

// InvalidInputError rejects empty or oversized text before pipeline entry.
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input: %s", e.Reason)
}

// InvalidThresholdError rejects out-of-range caller thresholds before any
// detection work runs.
type InvalidThresholdError struct {
	AllowBelow     float64
	BlockAtOrAbove float64
}

func (e *InvalidThresholdError) Error() string {
	return fmt.Sprintf("invalid thresholds: allow_below=%.4f block_at_or_above=%.4f (want 0 <= allow_below <= block_at_or_above <= 1)",
		e.AllowBelow, e.BlockAtOrAbove)
}

// BatchTooLargeError rejects a batch above the configured item limit before
// any item is processed.
type BatchTooLargeError struct {
	Size  int
	Limit int
}

func (e *BatchTooLargeError) Error() string {
	return fmt.Sprintf("batch of %d items exceeds limit of %d", e.Size, e.Limit)
}

// ErrClassifierTimeout marks a transient external-classifier failure. The
// pipeline recovers locally by degrading to lexicon+context scoring; this
// error is never surfaced to the caller.
var ErrClassifierTimeout = errors.New("classifier timeout")

// ClassifierFatalError is a non-recoverable external-classifier failure,
// surfaced to the caller as a service error.
type ClassifierFatalError struct {
	Err error
}

func (e *ClassifierFatalError) Error() string {
	return fmt.Sprintf("classifier fatal error: %v", e.Err)
}

func (e *ClassifierFatalError) Unwrap() error { return e.Err }
