package sync

import (
	"time"

	"pharmsync/internal/domain/entity"
)

// Direction of one sync run, relative to the local installation.
type Direction string

const (
	DirectionUpload        Direction = "upload"
	DirectionDownload      Direction = "download"
	DirectionBidirectional Direction = "bidirectional"
)

// ParseDirection validates a wire string against the known directions.
func ParseDirection(s string) (Direction, error) {
	switch d := Direction(s); d {
	case DirectionUpload, DirectionDownload, DirectionBidirectional:
		return d, nil
	default:
		return "", ErrInvalidDirection
	}
}

// Status of a sync session. Sessions are created in_progress and end in
// exactly one terminal state; terminal rows are never mutated again.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusConflict   Status = "conflict"
)

// Session is one row of the append-only sync audit log.
type Session struct {
	ID           int64      `json:"id"`
	RunID        string     `json:"run_id"`
	TenantID     int64      `json:"tenant_id"`
	Direction    Direction  `json:"direction"`
	Status       Status     `json:"status"`
	Uploaded     int        `json:"records_uploaded"`
	Downloaded   int        `json:"records_downloaded"`
	Conflicts    int        `json:"conflicts_count"`
	ErrorMessage string     `json:"error_message,omitempty"`
	StartedAt    time.Time  `json:"started_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// ChangeSet is one page of dirty records for a single entity type.
// Ephemeral; never persisted.
type ChangeSet struct {
	Type      entity.Type     `json:"entity_type"`
	Records   []entity.Record `json:"records"`
	HasMore   bool            `json:"has_more"`
	WindowEnd time.Time       `json:"window_end"`
}

// Resolution names the policy chosen for one conflicting record.
type Resolution string

const (
	ResolutionLocal Resolution = "local"
	ResolutionCloud Resolution = "cloud"
	ResolutionMerge Resolution = "merge"
)

// Conflict captures one logical record that was modified on both sides
// since the shared baseline. EntityID is the record's sync_id.
type Conflict struct {
	EntityType entity.Type   `json:"entity_type"`
	EntityID   string        `json:"entity_id"`
	Local      entity.Record `json:"local_version"`
	Remote     entity.Record `json:"remote_version"`
	Resolution Resolution    `json:"resolution,omitempty" enum:"local,cloud,merge"`
	Resolved   bool          `json:"resolved"`
}

// Config holds the engine knobs. It is passed in explicitly; the engine
// reads no ambient process state.
type Config struct {
	BatchSize         int
	RemoteTimeout     time.Duration
	DefaultResolution Resolution
}

// DefaultConfig mirrors the defaults shipped to the desktop installations.
func DefaultConfig() Config {
	return Config{
		BatchSize:         100,
		RemoteTimeout:     30 * time.Second,
		DefaultResolution: ResolutionLocal,
	}
}
