package services

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation rejects a malformed request before any state is created.
	ErrValidation = errors.New("invalid verification request")
	// ErrRecordNotFound means the verification id is unknown.
	ErrRecordNotFound = errors.New("verification not found")
	// ErrUnauthorized means the record belongs to a different owner.
	ErrUnauthorized = errors.New("verification belongs to a different company")
	// ErrDispatchFailed means the probe transfer could not be scheduled; the
	// local record has been rolled back and the caller may retry.
	ErrDispatchFailed = errors.New("probe transfer could not be dispatched")
	// ErrCodeExpired means the code window has passed; the caller must resend.
	ErrCodeExpired = errors.New("verification code expired")
	// ErrAttemptsExhausted means the wrong-code budget is used up; the caller
	// must resend.
	ErrAttemptsExhausted = errors.New("too many incorrect attempts")
)

// CodeMismatchError reports a wrong code while attempts remain.
type CodeMismatchError struct {
	RemainingAttempts int
}

func (e *CodeMismatchError) Error() string {
	return fmt.Sprintf("incorrect verification code, %d attempts remaining", e.RemainingAttempts)
}
