package sync

import "errors"

var (
	// ErrInvalidDirection and ErrUnknownEntityType reject a request before
	// any session row is written.
	ErrInvalidDirection  = errors.New("invalid sync direction")
	ErrUnknownEntityType = errors.New("unknown entity type")

	// ErrConcurrentSync is returned when the baseline compare-and-swap
	// loses to another run for the same tenant.
	ErrConcurrentSync = errors.New("concurrent sync detected, baseline moved")

	// ErrRemoteUnavailable wraps download-leg network and timeout failures.
	ErrRemoteUnavailable = errors.New("remote store unavailable")

	// ErrConflictUnresolved marks a session finalized in the conflict
	// state; the caller is expected to retry with resolutions.
	ErrConflictUnresolved = errors.New("sync finished with unresolved conflicts")

	// ErrDuplicateSyncID signals an inbound sync_id already owned by a
	// different tenant.
	ErrDuplicateSyncID = errors.New("sync_id already exists for another tenant")

	// ErrBaselineMoved is the repository-level CAS failure; the coordinator
	// translates it to ErrConcurrentSync.
	ErrBaselineMoved = errors.New("stored baseline does not match expected value")

	ErrInvalidResolution = errors.New("invalid conflict resolution")
	ErrSessionFinalized  = errors.New("session already in a terminal state")
)
