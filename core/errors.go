package core

import (
	"errors"
)

var (
	// ErrNotFound is returned by the Must read variants when no record matches.
	ErrNotFound = errors.New("record not found")
	// ErrInvalidResource is returned when an operation receives a value that is
	// neither a changeset nor an introspectable entity.
	ErrInvalidResource = errors.New("invalid resource")
	// ErrInvalidChangeset is returned when a changeset fails validation.
	ErrInvalidChangeset = errors.New("invalid changeset")
	// ErrMissingPrimaryKey is returned when an operation needs a primary key
	// the entity type does not define or has not populated.
	ErrMissingPrimaryKey = errors.New("missing primary key")
	// ErrNoAdapter is returned when a Repo is constructed without a backing adapter.
	ErrNoAdapter = errors.New("no adapter configured")
)
