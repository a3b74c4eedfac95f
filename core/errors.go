package core

import (
	"errors"
	"fmt"
)

// ErrNotFound is matched (errors.Is) by every NotFoundError.
var ErrNotFound = errors.New("not found")

// NotFoundError reports a missing user, session or domain record.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// Is makes errors.Is(err, ErrNotFound) hold.
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// NewNotFound builds a NotFoundError.
func NewNotFound(entity string, id fmt.Stringer) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id.String()}
}

// UserNotFound builds a NotFoundError for a user id.
func UserNotFound(id UserID) *NotFoundError {
	return &NotFoundError{Entity: "user", ID: string(id)}
}

// OracleError reports that the generation collaborator failed, timed out or
// returned a malformed reply.
type OracleError struct {
	Op  string
	Err error
}

func (e *OracleError) Error() string { return fmt.Sprintf("oracle %s: %v", e.Op, e.Err) }
func (e *OracleError) Unwrap() error { return e.Err }

// RepositoryError reports a storage fault.
type RepositoryError struct {
	Op  string
	Err error
}

func (e *RepositoryError) Error() string { return fmt.Sprintf("repository %s: %v", e.Op, e.Err) }
func (e *RepositoryError) Unwrap() error { return e.Err }

// IsNotFound reports whether err is a NotFound condition.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// WrapRepository classifies a store error: NotFound passes through
// unchanged, anything else becomes a RepositoryError.
func WrapRepository(op string, err error) error {
	if err == nil || IsNotFound(err) {
		return err
	}
	var re *RepositoryError
	if errors.As(err, &re) {
		return err
	}
	return &RepositoryError{Op: op, Err: err}
}
