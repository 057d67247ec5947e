package assignments

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Sentinels for errors.Is. Every typed error below matches exactly one.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrStorage    = errors.New("storage failure")
)

// ValidationError reports a missing or malformed input field. Index is set
// for batch operations and names the offending element.
type ValidationError struct {
	Field  string
	Reason string
	Index  *int
}

func (e *ValidationError) Error() string {
	if e.Index != nil {
		return fmt.Sprintf("item %d: %s: %s", *e.Index, e.Field, e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// NotFoundError reports that a referenced record does not exist.
// Kind is "assignment", "worker" or "class".
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// ConflictError reports a state clash: a second active assignment for the
// same triple, or ending an assignment that is already ended.
//
// Persisted is set only by a batch create that ran without a transaction and
// lost a race partway through: it lists the items already written.
type ConflictError struct {
	Reason     string
	ExistingID primitive.ObjectID
	Persisted  []primitive.ObjectID
}

func (e *ConflictError) Error() string {
	if e.ExistingID.IsZero() {
		return e.Reason
	}
	return fmt.Sprintf("%s (existing %s)", e.Reason, e.ExistingID.Hex())
}

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// StorageError wraps a database failure. It is never retried here.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorage }

func storageErr(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}

func invalid(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) at(i int) *ValidationError {
	e.Index = &i
	return e
}
