package pipeline

import (
	"errors"
	"fmt"
)

// checkpointMismatchError signals a checkpoint written for a different sample
// list; resuming from it would mix results of unrelated runs.
type checkpointMismatchError struct{ reason string }

func (e checkpointMismatchError) Error() string { return "checkpoint mismatch: " + e.reason }

// ErrCheckpointMismatch constructs a checkpointMismatchError.
func ErrCheckpointMismatch(format string, args ...any) error {
	return checkpointMismatchError{reason: fmt.Sprintf(format, args...)}
}

// IsCheckpointMismatch reports whether err indicates an unusable checkpoint.
func IsCheckpointMismatch(err error) bool {
	var e checkpointMismatchError
	return errors.As(err, &e)
}

// sampleLoadError wraps a failure to read or prepare a sample model.
type sampleLoadError struct {
	sample string
	path   string
	err    error
}

func (e sampleLoadError) Error() string {
	return fmt.Sprintf("load sample %s (%s): %v", e.sample, e.path, e.err)
}

func (e sampleLoadError) Unwrap() error { return e.err }

// IsSampleLoad reports whether err came from loading a sample model.
func IsSampleLoad(err error) bool {
	var e sampleLoadError
	return errors.As(err, &e)
}
