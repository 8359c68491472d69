package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// NotFoundError is returned when a referenced company or document does not
// exist, or exists but belongs to another company.
type NotFoundError struct {
	Entity string
	ID     any
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %v not found", e.Entity, e.ID)
}

// InvalidStateError is returned when an operation is attempted from a status
// that does not allow it.
type InvalidStateError struct {
	Entity string
	ID     int
	Status string
	Op     string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s %d cannot %s: status is %s", e.Entity, e.ID, e.Op, e.Status)
}

// ConflictError is returned when a unique key (e.g. a document number inside
// a company) is already taken.
type ConflictError struct {
	Entity string
	Key    string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %s already exists", e.Entity, e.Key)
}

// LimitExceededError is returned when a bounded sequence is exhausted.
type LimitExceededError struct {
	Entity string
	ID     int
	Limit  int
	Reason string
}

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("%s %d: %s (limit %d)", e.Entity, e.ID, e.Reason, e.Limit)
}

// FieldError describes one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries every field that failed validation.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func newValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

// isUniqueViolation reports whether err is a PostgreSQL unique_violation (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
