package remote

import (
	"errors"
	"fmt"

	"github.com/smallbiznis/siino/internal/entity"
)

var (
	ErrNotFound    = errors.New("not_found")
	ErrConflict    = errors.New("conflict")
	ErrReferenced  = errors.New("referenced")
	ErrUnavailable = errors.New("unavailable")
	ErrRejected    = errors.New("rejected")

	ErrInvalidQuery = errors.New("invalid_query")
	ErrMissingTeam  = errors.New("missing_team")
)

// Error wraps a store failure with the operation and collection it hit.
type Error struct {
	Op         string
	Collection entity.Collection
	Err        error
}

func (e *Error) Error() string {
	return fmt.Sprintf("remote %s %s: %v", e.Op, e.Collection, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Wrap returns nil for a nil err.
func Wrap(op string, collection entity.Collection, err error) error {
	if err == nil {
		return nil
	}
	var re *Error
	if errors.As(err, &re) {
		return err
	}
	return &Error{Op: op, Collection: collection, Err: err}
}

const (
	OpSelect = "select"
	OpInsert = "insert"
	OpUpdate = "update"
	OpDelete = "delete"
)
