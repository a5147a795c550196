package oaiharvest

import (
	"errors"
	"fmt"
)

var (
	ErrValidation        = errors.New("invalid parameters")
	ErrCancelled         = errors.New("request cancelled")
	ErrTimeout           = errors.New("request timed out")
	ErrTransport         = errors.New("transport failure")
	ErrUnexpectedStatus  = errors.New("unexpected status")
	ErrMalformedResponse = errors.New("malformed response")
	ErrTooManyRequests   = errors.New("too many requests")
)

// ValidationError reports a missing or invalid parameter. It is returned
// before any request is sent.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrValidation, e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// TransportError is returned after the retry budget is used up. Err is the
// failure of the last attempt.
type TransportError struct {
	Attempts int
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s after %d attempt(s): %v", ErrTransport, e.Attempts, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// StatusError means the server answered, but not with a 2xx status.
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("%s: %s", ErrUnexpectedStatus, e.Status)
	}
	return fmt.Sprintf("%s: %d", ErrUnexpectedStatus, e.StatusCode)
}

func (e *StatusError) Is(target error) bool { return target == ErrUnexpectedStatus }

// OAIError wraps OAI error codes and messages, as found in the error element
// of a response (3.6 Error and Exception Conditions).
type OAIError struct {
	Code    string
	Message string
}

// Error to satisfy interface.
func (e *OAIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsNoRecordsMatch reports whether err carries the noRecordsMatch condition,
// which servers use to signal an empty list.
func IsNoRecordsMatch(err error) bool {
	oe, ok := asOAIError(err)
	return ok && oe.Code == "noRecordsMatch"
}

func asOAIError(err error) (*OAIError, bool) {
	var oe *OAIError
	if errors.As(err, &oe) {
		return oe, true
	}
	return nil, false
}

// malformed classifies a parser failure. Protocol errors and errors already
// marked as malformed pass through.
func malformed(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := asOAIError(err); ok || errors.Is(err, ErrMalformedResponse) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrMalformedResponse, err)
}

func cancelled(cause error) error {
	return fmt.Errorf("%w: %w", ErrCancelled, cause)
}
