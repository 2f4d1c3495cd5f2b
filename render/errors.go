package render

import (
	"errors"
	"fmt"
)

var (
	// ErrTimeout is returned when the renderer exceeds its wall-clock budget.
	// The renderer's process group has been killed by the time it is returned.
	ErrTimeout = errors.New("Rendering timeout")

	// ErrArtifactNotFound is returned when no video exists under the expected
	// output directory, whatever the renderer's exit status was.
	ErrArtifactNotFound = errors.New("Video file not found after rendering")
)

// FailureError carries the renderer's meaningful stderr lines.
type FailureError struct {
	Message string
}

func (e *FailureError) Error() string {
	return "Manim rendering failed: " + e.Message
}

// ExecutionError wraps anything unexpected during orchestration: the
// workspace could not be created, the renderer could not be started, etc.
type ExecutionError struct {
	Err error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("Execution failed: %v", e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }
