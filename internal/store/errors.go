package store

import (
	"errors"
	"fmt"
)

// NotFoundError indicates a history entry or queue item was not found.
type NotFoundError struct {
	Table string
	ID    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s entry %s not found", e.Table, e.ID)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// AmbiguousIDError indicates an id prefix matches more than one row.
type AmbiguousIDError struct {
	Table  string
	Prefix string
}

func (e *AmbiguousIDError) Error() string {
	return fmt.Sprintf("%s id prefix %q is ambiguous", e.Table, e.Prefix)
}
