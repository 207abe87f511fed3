// Package apperr provides the error type shared by services and the HTTP layer.
// Services return AppError values so handlers can render a stable code and
// status without leaking internal details to clients.
package apperr

import (
	"errors"
	"net/http"
)

// AppError is a structured application error with an error code, a
// human-readable message, an HTTP status code and an optional cause.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

func (e *AppError) Error() string { return e.Message }

func (e *AppError) Unwrap() error { return e.Internal }

// Is matches on Code so wrapped copies of a sentinel still satisfy errors.Is.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Wrap creates a copy of sentinel carrying internal as its cause.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a copy of sentinel with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// From returns err as an AppError, mapping unknown errors to ErrInternal.
func From(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Wrap(ErrInternal, err)
}

// Authentication & authorization errors.
var (
	ErrUnauthorized       = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrInvalidCredentials = &AppError{Code: "INVALID_CREDENTIALS", Message: "Invalid email or password", StatusCode: http.StatusUnauthorized}
	ErrForbidden          = &AppError{Code: "FORBIDDEN", Message: "Access denied", StatusCode: http.StatusForbidden}
	ErrEmailTaken         = &AppError{Code: "EMAIL_TAKEN", Message: "An account with this email already exists", StatusCode: http.StatusConflict}
	ErrTooManyRequests    = &AppError{Code: "RATE_LIMITED", Message: "Too many requests", StatusCode: http.StatusTooManyRequests}
)

// General errors.
var (
	ErrInvalidInput = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound     = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrConflict     = &AppError{Code: "CONFLICT", Message: "Resource conflict", StatusCode: http.StatusConflict}
	ErrInternal     = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
	ErrUpstream     = &AppError{Code: "UPSTREAM_ERROR", Message: "A remote service failed", StatusCode: http.StatusBadGateway}
)

// Payment errors.
var (
	ErrPaymentReconciled = &AppError{Code: "PAYMENT_RECONCILED", Message: "Reconciled payments cannot be changed", StatusCode: http.StatusConflict}
	ErrPossibleDuplicate = &AppError{Code: "POSSIBLE_DUPLICATE", Message: "A similar payment already exists", StatusCode: http.StatusConflict}
)

// Reconciliation errors.
var (
	ErrSessionNotFound      = &AppError{Code: "SESSION_NOT_FOUND", Message: "Session not found", StatusCode: http.StatusNotFound}
	ErrSessionReadOnly      = &AppError{Code: "SESSION_READ_ONLY", Message: "Session is finalized and read-only", StatusCode: http.StatusConflict}
	ErrInvalidTransition    = &AppError{Code: "INVALID_TRANSITION", Message: "Session cannot make this transition", StatusCode: http.StatusConflict}
	ErrMatchNotFound        = &AppError{Code: "MATCH_NOT_FOUND", Message: "Reconciliation not found", StatusCode: http.StatusNotFound}
	ErrBankTransactionInUse = &AppError{Code: "BANK_TRANSACTION_IN_USE", Message: "Bank transaction is already linked", StatusCode: http.StatusConflict}
)
