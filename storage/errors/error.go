package errors

import "errors"

var (
	// ErrNotFound indicates the record does not exist.
	ErrNotFound = errors.New("entity not found")
	// ErrDuplicate indicates that the record can not be stored because one
	// with the same hash already exists.
	ErrDuplicate = errors.New("entity duplicate")
)
