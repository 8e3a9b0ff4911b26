package pipeline

import (
	"errors"
	"fmt"
)

var (
	// ErrExternalTool indicates a delegated process (native build,
	// bundler, signing tool, notarization service) returned non-zero or
	// timed out. Fatal: the run transitions to Failed(stage).
	ErrExternalTool = errors.New("external tool failed")
	// ErrMissingCredentials indicates signing/notarization secrets are
	// absent. Not fatal: the run proceeds on the unsigned degraded path.
	ErrMissingCredentials = errors.New("signing credentials absent")
)

// StageError is the Failed(stage) terminal state: it names the stage
// that halted the run so the operator can fix the environment without
// reading pipeline internals.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// failed wraps err as a StageError for the given stage.
func failed(stage Stage, err error) *StageError {
	return &StageError{Stage: stage, Err: err}
}
