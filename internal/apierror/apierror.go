package apierror

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrValidation        ErrorCode = "VALIDATION_ERROR"
	ErrNotFound          ErrorCode = "NOT_FOUND"
	ErrInsufficientFunds ErrorCode = "INSUFFICIENT_FUNDS"
	ErrInactiveAccount   ErrorCode = "INACTIVE_ACCOUNT"
	ErrConflict          ErrorCode = "CONFLICT"
	ErrUnauthorized      ErrorCode = "UNAUTHORIZED"
	ErrStorage           ErrorCode = "STORAGE_ERROR"
)

// StorageMessage is the only text a caller ever sees for a storage failure.
const StorageMessage = "Internal server error"

// APIError is a business or storage failure tagged with its kind.
type APIError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Is reports a match on kind, so errors.Is(err, apierror.ErrNotFound) works.
func (e *APIError) Is(target error) bool {
	switch t := target.(type) {
	case ErrorCode:
		return e.Code == t
	case *APIError:
		return e.Code == t.Code
	}
	return false
}

// Error makes ErrorCode usable as an errors.Is target.
func (c ErrorCode) Error() string {
	return string(c)
}

func New(code ErrorCode, message string) *APIError {
	return &APIError{Code: code, Message: message}
}

func Wrap(code ErrorCode, message string, err error) *APIError {
	return &APIError{Code: code, Message: message, Err: err}
}

func Validation(message string) *APIError {
	return New(ErrValidation, message)
}

func NotFound(message string) *APIError {
	return New(ErrNotFound, message)
}

func InsufficientFunds() *APIError {
	return New(ErrInsufficientFunds, "Insufficient funds")
}

func Conflict(message string) *APIError {
	return New(ErrConflict, message)
}

func Storage(message string, err error) *APIError {
	return Wrap(ErrStorage, message, err)
}

// CodeOf returns the kind of err, treating untagged errors as storage failures.
func CodeOf(err error) ErrorCode {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return ErrStorage
}

func MapErrorToHTTPStatus(err error) int {
	switch CodeOf(err) {
	case ErrValidation, ErrInsufficientFunds, ErrInactiveAccount, ErrConflict:
		return http.StatusBadRequest
	case ErrNotFound:
		return http.StatusNotFound
	case ErrUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage is the caller-facing text for err. Storage details never leave the process.
func PublicMessage(err error) string {
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Code == ErrStorage {
		return StorageMessage
	}
	return apiErr.Message
}
