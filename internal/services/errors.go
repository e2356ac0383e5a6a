package services

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/lib/pq"
)

// ErrorKind classifies a domain error so the HTTP boundary can pick a status
// without inspecting messages. Business-rule kinds are terminal for the
// request; only transient storage faults may be retried, and only before any
// write was acknowledged.
type ErrorKind string

const (
	KindValidation          ErrorKind = "validation"
	KindConflict            ErrorKind = "conflict"
	KindNotFound            ErrorKind = "not_found"
	KindExpired             ErrorKind = "expired"
	KindInactive            ErrorKind = "inactive"
	KindInsufficientBalance ErrorKind = "insufficient_balance"
	KindInvalidToken        ErrorKind = "invalid_token"
	KindTransientStorage    ErrorKind = "transient_storage"
)

// DomainError carries a kind plus a human message. Wrapped causes stay
// reachable through errors.Unwrap.
type DomainError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error { return e.Err }

func NewValidationError(format string, args ...any) error {
	return &DomainError{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func NewConflictError(format string, args ...any) error {
	return &DomainError{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func NewNotFoundError(format string, args ...any) error {
	return &DomainError{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func NewExpiredError(format string, args ...any) error {
	return &DomainError{Kind: KindExpired, Message: fmt.Sprintf(format, args...)}
}

func NewInactiveError(format string, args ...any) error {
	return &DomainError{Kind: KindInactive, Message: fmt.Sprintf(format, args...)}
}

func NewInsufficientBalanceError(format string, args ...any) error {
	return &DomainError{Kind: KindInsufficientBalance, Message: fmt.Sprintf(format, args...)}
}

func NewInvalidTokenError(format string, args ...any) error {
	return &DomainError{Kind: KindInvalidToken, Message: fmt.Sprintf(format, args...)}
}

// NewStorageError wraps an infrastructure fault as retryable-transient.
func NewStorageError(err error, format string, args ...any) error {
	return &DomainError{Kind: KindTransientStorage, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf extracts the error kind, defaulting to transient storage for
// anything that is not a DomainError. Unknown failures from the database
// layer are by far the most common non-domain case.
func KindOf(err error) ErrorKind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindTransientStorage
}

// IsUniqueViolation reports whether err is a Postgres unique-constraint
// violation (SQLSTATE 23505).
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// HTTPStatus maps an error kind to the status the boundary layer reports.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation, KindInactive, KindInsufficientBalance:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusBadRequest // API contract reports duplicates as 400
	case KindNotFound:
		return http.StatusNotFound
	case KindExpired:
		return http.StatusForbidden
	case KindInvalidToken:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
