package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotInProgress is returned when a session operation arrives after
	// finalization has already begun.
	ErrNotInProgress = errors.New("attempt session is not in progress")
	// ErrQuestionNotFound indicates a question ID outside the test definition.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrChoiceNotFound indicates a choice ID that does not belong to the
	// current question.
	ErrChoiceNotFound = errors.New("choice not found")
	// ErrNoRefreshToken is returned when a refresh is attempted without a
	// stored refresh credential.
	ErrNoRefreshToken = errors.New("no refresh token stored")
	// ErrCredentialRejected means the refresh endpoint rejected the refresh
	// credential; all stored credentials have been cleared.
	ErrCredentialRejected = errors.New("refresh credential rejected")
	// ErrNotFinalized is returned when a submission is requested before the
	// session produced a snapshot.
	ErrNotFinalized = errors.New("attempt session is not finalized")
)

// ValidationError reports a malformed attempt payload detected before any
// network call. The caller must correct the payload and resubmit.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid attempt payload: %s: %s", e.Field, e.Reason)
}

// APIError is a non-2xx response from a business endpoint, carrying the
// server-supplied message when one was present.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed: %d", e.Status)
}

// IsUnauthorized reports whether err is an APIError with status 401.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == 401
}
