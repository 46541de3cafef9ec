package orders

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound matches every *NotFoundError through errors.Is.
var ErrNotFound = errors.New("not found")

// ValidationError reports malformed input. Position is the 1-indexed line
// number when the problem is inside the line list, zero otherwise.
type ValidationError struct {
	Field    string
	Position int
	Msg      string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

type NotFoundError struct {
	Resource string
	ID       uint
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Resource, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// PersistenceError wraps a storage failure with the operation and order it
// happened on.
type PersistenceError struct {
	Op      string
	OrderID uint
	Err     error
}

func (e *PersistenceError) Error() string {
	if e.OrderID == 0 {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s (order %d): %v", e.Op, e.OrderID, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err came from a storage call that ran out of
// time. Callers may retry those.
func IsTransient(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}
