package checkout

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/MarcGrol/menucheckout/services/magiclink"
)

type FieldError struct {
	Field   string
	Message string
}

type ValidationError struct {
	Fields []FieldError
}

func newValidationError(field string, message string) *ValidationError {
	return (&ValidationError{}).add(field, message)
}

func (e *ValidationError) add(field string, message string) *ValidationError {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
	return e
}

func (e *ValidationError) orNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	parts := []string{}
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

func (e *ValidationError) GetHTTPErrorCode() int {
	return http.StatusBadRequest
}

func (e *ValidationError) ErrorDetails() any {
	return e.Fields
}

type StepBlockedError struct {
	Step   Step
	Reason string
	Cause  error
}

func (e *StepBlockedError) Error() string {
	return fmt.Sprintf("cannot enter step %s: %s", e.Step, e.Reason)
}

func (e *StepBlockedError) Unwrap() error {
	return e.Cause
}

func (e *StepBlockedError) GetHTTPErrorCode() int {
	return http.StatusConflict
}

func (e *StepBlockedError) ErrorDetails() any {
	details := map[string]any{
		"step":   e.Step,
		"reason": e.Reason,
	}
	var verr *ValidationError
	if errors.As(e.Cause, &verr) {
		details["fields"] = verr.Fields
	}
	return details
}

// HandshakeError is returned when a magic-link handshake ends anywhere but in success.
type HandshakeError struct {
	Status magiclink.Status
}

func (e *HandshakeError) Error() string {
	return fmt.Sprintf("magic-link handshake %s (%s)", e.Status.State, e.Status.ErrorCode)
}

func (e *HandshakeError) GetHTTPErrorCode() int {
	return http.StatusUnauthorized
}

func (e *HandshakeError) ErrorDetails() any {
	return e.Status
}

// Retryable is true only for indeterminate failures with retries left.
func (e *HandshakeError) Retryable() bool {
	return e.Status.CanRetry
}

type SubmissionError struct {
	HTTPStatus int
	Message    string
	Cause      error
}

func (e *SubmissionError) Error() string {
	if e.HTTPStatus != 0 {
		return fmt.Sprintf("order submission failed with http-status %d: %s", e.HTTPStatus, e.Message)
	}
	return fmt.Sprintf("order submission failed: %s", e.Message)
}

func (e *SubmissionError) Unwrap() error {
	return e.Cause
}

func (e *SubmissionError) GetHTTPErrorCode() int {
	return http.StatusBadGateway
}

// SideEffectError describes a best-effort step that failed after the order was placed. It is only logged.
type SideEffectError struct {
	Effect string
	Cause  error
}

func (e *SideEffectError) Error() string {
	return fmt.Sprintf("side effect %s failed: %s", e.Effect, e.Cause)
}

func (e *SideEffectError) Unwrap() error {
	return e.Cause
}

type StoreClosedError struct {
	StoreUID string
}

func (e *StoreClosedError) Error() string {
	return fmt.Sprintf("store %s is not accepting orders right now", e.StoreUID)
}

func (e *StoreClosedError) GetHTTPErrorCode() int {
	return http.StatusConflict
}

type submissionInProgressError struct{}

func (submissionInProgressError) Error() string {
	return "order submission already in progress"
}

func (submissionInProgressError) GetHTTPErrorCode() int {
	return http.StatusConflict
}

var ErrSubmissionInProgress error = submissionInProgressError{}
