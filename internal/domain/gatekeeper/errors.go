package gatekeeper

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrMissingToken          = errors.New("missing token")
	ErrInvalidToken          = errors.New("invalid token")
	ErrForbidden             = errors.New("forbidden")
	ErrValidationUnavailable = errors.New("validation unavailable")
	ErrUsageRecording        = errors.New("usage recording failure")
)

const ForbiddenMessage = "Unauthorized by gatekeeper"

// Error carries the error kind together with the status and message a
// client is shown. Err holds the underlying cause, if any.
type Error struct {
	Kind    error
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

func MissingToken(message string) *Error {
	return &Error{Kind: ErrMissingToken, Status: http.StatusUnauthorized, Message: message}
}

func InvalidToken(message string, cause error) *Error {
	return &Error{Kind: ErrInvalidToken, Status: http.StatusUnauthorized, Message: message, Err: cause}
}

func Forbidden() *Error {
	return &Error{Kind: ErrForbidden, Status: http.StatusForbidden, Message: ForbiddenMessage}
}

func ValidationUnavailable(message string, cause error) *Error {
	return &Error{Kind: ErrValidationUnavailable, Status: http.StatusInternalServerError, Message: message, Err: cause}
}

// UsageRecordingFailure is never shown to a client, so it has no status.
func UsageRecordingFailure(message string, cause error) *Error {
	return &Error{Kind: ErrUsageRecording, Message: message, Err: cause}
}

// StatusOf returns the client status for err, 500 when err carries none.
func StatusOf(err error) int {
	var gerr *Error
	if errors.As(err, &gerr) && gerr.Status != 0 {
		return gerr.Status
	}
	return http.StatusInternalServerError
}

// MessageOf returns the client-visible message for err.
func MessageOf(err error) string {
	var gerr *Error
	if errors.As(err, &gerr) {
		return gerr.Message
	}
	return "internal server error"
}
