package store

import "errors"

var (
	// ErrNotFound is returned for unknown record ids. A misdirected trust
	// update is a correctness bug, so this is never swallowed.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyResolved is returned when resolving a terminal ledger entry.
	ErrAlreadyResolved = errors.New("contradiction already resolved")
	// ErrInvalidResolution is returned when a resolution decision is
	// malformed, e.g. an override whose chosen memory is not part of the
	// entry.
	ErrInvalidResolution = errors.New("invalid resolution")
)
