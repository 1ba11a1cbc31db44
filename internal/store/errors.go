package store

import "errors"

// Sentinel errors returned by store operations. Services translate these
// into coded domain errors at the boundary.
var (
	// ErrNotFound is returned when an entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when a create would collide with an
	// existing entity or a unique index entry.
	ErrAlreadyExists = errors.New("already exists")
)
