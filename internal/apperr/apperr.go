// Package apperr defines the error taxonomy shared by the store, the
// consensus engine, the moderation gateway and the HTTP layer.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrForeignKey   = errors.New("invalid reference to related resource")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
)

// ValidationError rejects bad input before any write happens.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// Validation builds a ValidationError.
func Validation(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is or wraps a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// NotFound wraps ErrNotFound with the missing resource name.
func NotFound(resource string) error {
	return fmt.Errorf("%s %w", resource, ErrNotFound)
}

// retryable marks a conflict that a fresh transaction may resolve.
type retryable struct {
	err error
}

func (r *retryable) Error() string { return r.err.Error() }
func (r *retryable) Unwrap() error { return r.err }

// IsRetryable reports whether the failed transaction should be re-run.
func IsRetryable(err error) bool {
	var r *retryable
	return errors.As(err, &r)
}

// Postgres SQLSTATE codes handled by Translate.
const (
	codeUniqueViolation      = "23505"
	codeForeignKeyViolation  = "23503"
	codeNotNullViolation     = "23502"
	codeCheckViolation       = "23514"
	codeInvalidText          = "22P02"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

// Translate maps driver and gorm errors onto the taxonomy. Errors already
// in the taxonomy, and unknown errors, are returned as is.
func Translate(err error) error {
	if err == nil || known(err) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return &retryable{fmt.Errorf("%w: %s", ErrConflict, pgErr.Detail)}
		case codeForeignKeyViolation:
			return fmt.Errorf("%w: %s", ErrForeignKey, pgErr.Detail)
		case codeNotNullViolation:
			return &ValidationError{Field: pgErr.ColumnName, Message: "required field is missing"}
		case codeCheckViolation, codeInvalidText:
			return &ValidationError{Message: "invalid input format"}
		case codeSerializationFailure, codeDeadlockDetected:
			return &retryable{fmt.Errorf("%w: %s", ErrConflict, pgErr.Message)}
		}
		return err
	}
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return &retryable{fmt.Errorf("%w: %w", ErrConflict, err)}
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return fmt.Errorf("%w: %w", ErrForeignKey, err)
	case errors.Is(err, gorm.ErrCheckConstraintViolated):
		return &ValidationError{Message: "invalid input format"}
	}
	// sqlite reports constraint failures only through the message text.
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return &retryable{fmt.Errorf("%w: %w", ErrConflict, err)}
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return fmt.Errorf("%w: %w", ErrForeignKey, err)
	case strings.Contains(msg, "database is locked"):
		return &retryable{fmt.Errorf("%w: %w", ErrConflict, err)}
	}
	return err
}

func known(err error) bool {
	return IsValidation(err) || IsRetryable(err) ||
		errors.Is(err, ErrNotFound) || errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrForeignKey) || errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrUnauthorized)
}

// Status returns the HTTP status for err.
func Status(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case IsValidation(err), errors.Is(err, ErrForeignKey):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}

// Message returns the client-facing text for err. Internal errors are not
// leaked.
func Message(err error) string {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		return ve.Error()
	case errors.Is(err, ErrForeignKey):
		return ErrForeignKey.Error()
	case errors.Is(err, ErrNotFound):
		return err.Error()
	case errors.Is(err, ErrConflict):
		return "resource was modified concurrently, retry the request"
	case errors.Is(err, ErrForbidden):
		return "you do not have permission to access this resource"
	case errors.Is(err, ErrUnauthorized):
		return "authentication required"
	}
	return "internal server error"
}
