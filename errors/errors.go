package errors

import (
	"fmt"
	"net/http"
	"strings"
)

// Error is the portal's HTTP-aware error type.
type Error struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

// New creates a new Error with the given message and status code.
func New(message string, status int) *Error {
	return &Error{
		Message: message,
		Status:  status,
	}
}

var (
	ErrNotFound            = New("resource not found", http.StatusNotFound)
	ErrUnauthorized        = New("unauthorized", http.StatusUnauthorized)
	ErrForbidden           = New("forbidden", http.StatusForbidden)
	ErrBadRequest          = New("bad request", http.StatusBadRequest)
	ErrInternalServerError = New("internal server error", http.StatusInternalServerError)
	InActiveUserError      = New("user is inactive", http.StatusUnauthorized)

	// ErrConfiguration is returned when required credentials or settings are
	// absent from the environment. Fail closed, never retried.
	ErrConfiguration = New("storage credentials are not configured", http.StatusInternalServerError)

	// ErrQuotaExceeded maps the provider's transaction-cap signal. It is an
	// expected operating condition; callers may retry after backoff.
	ErrQuotaExceeded = New("storage transaction cap exceeded, retry later or raise the cap", http.StatusTooManyRequests)
)

// ProviderAuthError carries the upstream status and body of a rejected or
// malformed authorization exchange with the object-storage provider.
type ProviderAuthError struct {
	Status int
	Body   string
}

func (e *ProviderAuthError) Error() string {
	return fmt.Sprintf("provider authorization failed with status %d: %s", e.Status, e.Body)
}

// TransferError is a non-auth provider failure during an upload or download.
// The upstream status code is passed through with best-effort detail.
type TransferError struct {
	Op     string // "upload" or "download"
	Status int
	Detail string
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("%s failed with status %d: %s", e.Op, e.Status, e.Detail)
}

// GetUniqueContraintError translates a gorm unique-violation into a client
// visible conflict error.
func GetUniqueContraintError(err error) *Error {
	if strings.Contains(err.Error(), "duplicate key value violates unique constraint") {
		return New("record already exists", http.StatusConflict)
	}
	return New(err.Error(), http.StatusInternalServerError)
}
