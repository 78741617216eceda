package sync

import (
	"time"

	"pharmsync/internal/domain/entity"
)

// SyncRequest starts one run. EntityTypes defaults to all known types;
// Conflicts carries resolutions for conflicts reported by an earlier run.
type SyncRequest struct {
	Direction   string     `json:"direction" enum:"upload,download,bidirectional"`
	EntityTypes []string   `json:"entity_types,omitempty"`
	Conflicts   []Conflict `json:"conflicts,omitempty"`
}

// SyncResponse summarizes one finished run.
type SyncResponse struct {
	RunID      string     `json:"run_id"`
	Status     Status     `json:"status"`
	Uploaded   int        `json:"records_uploaded"`
	Downloaded int        `json:"records_downloaded"`
	Conflicts  int        `json:"conflicts_count"`
	Unresolved []Conflict `json:"conflicts,omitempty"`
	Message    string     `json:"message"`
}

// UploadPayload is one inbound batch for a single entity type. Each item
// is a tagged record whose type must match EntityType.
type UploadPayload struct {
	EntityType string          `json:"entity_type" enum:"products,customers,suppliers,orders,sales"`
	Items      []entity.Record `json:"items"`
}

// UploadResponse reports processed records, not changed ones: replaying an
// identical batch still reports the batch size.
type UploadResponse struct {
	Processed int `json:"processed_count"`
}

// ChangesResponse is one page of the download query.
type ChangesResponse struct {
	EntityType entity.Type     `json:"entity_type"`
	Records    []entity.Record `json:"records"`
	HasMore    bool            `json:"has_more"`
	ServerTime time.Time       `json:"server_time"`
}

// StatusResponse is the per-tenant sync dashboard: last session, pending
// work per entity type, and whether everything is reconciled.
type StatusResponse struct {
	TenantID     int64          `json:"tenant_id"`
	LastSyncAt   *time.Time     `json:"last_sync_at,omitempty"`
	LastRunID    string         `json:"last_run_id,omitempty"`
	Pending      map[string]int `json:"pending_sync"`
	PendingTotal int            `json:"pending_total"`
	IsSynced     bool           `json:"is_synced"`
}
