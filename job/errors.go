package job

import (
	"context"
	"errors"
	"fmt"
)

// ErrSceneNotFound is returned when an accepted script yields no entry point.
var ErrSceneNotFound = errors.New("Scene class not found")

// ErrDuplicateID is returned when an async render id is already in flight.
var ErrDuplicateID = errors.New("a render with this animation_id is already in progress")

// ValidationError is a client-caused rejection. Reason is shown to the
// submitter as is.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// UploadError wraps a storage failure after a successful render.
type UploadError struct {
	Err error
}

func (e *UploadError) Error() string { return fmt.Sprintf("Upload failed: %v", e.Err) }

func (e *UploadError) Unwrap() error { return e.Err }

// IsClientError reports whether err was caused by the submission itself.
func IsClientError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve) || errors.Is(err, ErrSceneNotFound)
}

// message is the text put in the "error" field of responses and webhooks.
func message(err error) string {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "Execution failed: " + err.Error()
	}
	return err.Error()
}
