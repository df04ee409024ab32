package engine

import "errors"

var (
	// ErrNotRecorded wraps every write-path failure.
	ErrNotRecorded = errors.New("decision not recorded")

	// ErrResolutionPending marks a write whose decisions were stored but whose
	// conflict resolution did not finish. Engine.Resolve retries it.
	ErrResolutionPending = errors.New("conflict resolution pending")

	// ErrSearchUnavailable wraps every read-path failure.
	ErrSearchUnavailable = errors.New("search unavailable")
)
