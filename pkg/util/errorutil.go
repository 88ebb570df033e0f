package util

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Error codes shared by the engine and the HTTP surface.
const (
	CodeTransport      = "TRANSPORT_ERROR"
	CodeUnauthorized   = "UNAUTHORIZED"
	CodeValidation     = "VALIDATION_FAILED"
	CodeStaleReference = "STALE_REFERENCE"
	CodeForbidden      = "FORBIDDEN"
	CodeNotFound       = "NOT_FOUND"
	CodeInternal       = "INTERNAL_ERROR"
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
	return NewDomainError(CodeValidation, message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError(CodeForbidden, message, http.StatusForbidden, nil)
}

// NewStaleReference signals that the targeted record is gone and the caller should re-fetch.
func NewStaleReference(resource string, details map[string]any) error {
	return NewDomainError(CodeStaleReference, fmt.Sprintf("%s no longer exists", resource), http.StatusConflict, details)
}

// NewTransportError wraps network failures and 5xx responses that survived retries.
func NewTransportError(message string, err error) error {
	return &DomainError{
		Code:       CodeTransport,
		Message:    message,
		HTTPStatus: http.StatusBadGateway,
		Err:        err,
	}
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// FromStatus classifies a collaborator response status into the error taxonomy.
func FromStatus(status int, message string) error {
	if message == "" {
		message = http.StatusText(status)
	}
	details := map[string]any{"upstream_status": status}
	switch {
	case status == http.StatusUnauthorized:
		return NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized, details)
	case status == http.StatusForbidden:
		return NewDomainError(CodeForbidden, message, http.StatusForbidden, details)
	case status == http.StatusNotFound || status == http.StatusGone:
		return NewDomainError(CodeStaleReference, message, http.StatusConflict, details)
	case status >= 500:
		return &DomainError{Code: CodeTransport, Message: message, HTTPStatus: http.StatusBadGateway, Details: details}
	default:
		return NewDomainError(CodeValidation, message, http.StatusBadRequest, details)
	}
}

func hasCode(err error, code string) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr) && domainErr.Code == code
}

// IsUnauthorized reports whether err is a 401 from any layer.
func IsUnauthorized(err error) bool { return hasCode(err, CodeUnauthorized) }

// IsStale reports whether err targets a record that is no longer present.
func IsStale(err error) bool { return hasCode(err, CodeStaleReference) }

// IsTransport reports whether err is a network or upstream failure.
func IsTransport(err error) bool { return hasCode(err, CodeTransport) }

// IsValidation reports whether err was rejected as invalid input.
func IsValidation(err error) bool { return hasCode(err, CodeValidation) }

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		if de, ok := NewTransportError("request cancelled", err).(*DomainError); ok {
			return de
		}
	}
	if de, ok := NewInternalError(err).(*DomainError); ok {
		return de
	}
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func MapError(err error) error {
	return ToDomainError(err)
}
