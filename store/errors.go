package store

import "errors"

// ErrDuplicate is returned when creating a record whose key already exists.
var ErrDuplicate = errors.New("duplicate record")
