package util

import (
	"errors"
	"fmt"
	"net/http"
)

// Stable machine-checkable error codes returned to clients.
const (
	CodeNotFound             = "NOT_FOUND"
	CodeAlreadyConfirmed     = "ALREADY_CONFIRMED"
	CodeInvalidCode          = "INVALID_CODE"
	CodeExpiredCode          = "EXPIRED_CODE"
	CodeNotificationFailure  = "NOTIFICATION_FAILURE"
	CodeRateLimited          = "RATE_LIMITED"
	CodePasswordAlreadySet   = "PASSWORD_ALREADY_SET"
	CodeTokenIssuanceFailure = "TOKEN_ISSUANCE_FAILED"
	CodeValidationFailed     = "VALIDATION_FAILED"
	CodeUnauthorized         = "UNAUTHORIZED"
	CodeConflict             = "CONFLICT"
	CodeInternalError        = "INTERNAL_ERROR"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidationFailed, message, http.StatusBadRequest, details)
}

func NewNotFound(resource string) error {
	return NewDomainError(CodeNotFound, fmt.Sprintf("%s not found", resource), http.StatusNotFound, nil)
}

// NewAlreadyConfirmed signals a confirmation attempt for a member whose
// confirmation already completed.
func NewAlreadyConfirmed() error {
	return NewDomainError(CodeAlreadyConfirmed, "member already confirmed", http.StatusConflict, nil)
}

// NewInvalidCode covers every "no active code matches" case uniformly,
// including codes that belong to a different member.
func NewInvalidCode() error {
	return NewDomainError(CodeInvalidCode, "invalid confirmation code", http.StatusBadRequest, nil)
}

// NewExpiredCode is distinct from NewInvalidCode so clients can prompt for a
// resend instead of re-entry.
func NewExpiredCode() error {
	return NewDomainError(CodeExpiredCode, "confirmation code expired", http.StatusBadRequest, nil)
}

// NewNotificationFailure wraps a delivery error with the flow it belongs to.
// State changes committed before the send are not rolled back.
func NewNotificationFailure(flow string, err error) error {
	return &DomainError{
		Code:       CodeNotificationFailure,
		Message:    fmt.Sprintf("failed to deliver %s email", flow),
		HTTPStatus: http.StatusBadGateway,
		Err:        err,
	}
}

// NewAdmissionRejected reports an exhausted request budget for an operation.
func NewAdmissionRejected(operation string) error {
	return NewDomainError(CodeRateLimited, "too many requests", http.StatusTooManyRequests,
		map[string]any{"operation": operation})
}

func NewPasswordAlreadySet() error {
	return NewDomainError(CodePasswordAlreadySet, "password already set", http.StatusConflict, nil)
}

// NewTokenIssuanceFailure reports that confirmation committed but the
// temporary credential could not be obtained.
func NewTokenIssuanceFailure(err error) error {
	return &DomainError{
		Code:       CodeTokenIssuanceFailure,
		Message:    "confirmed, but temporary token issuance failed; request a new activation token",
		HTTPStatus: http.StatusBadGateway,
		Err:        err,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError(CodeConflict, message, http.StatusConflict, details)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternalError,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return &DomainError{
		Code:       CodeInternalError,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// HasCode reports whether err carries the given stable error code.
func HasCode(err error, code string) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}

func MapError(err error) error {
	return ToDomainError(err)
}
