package sync

import (
	"pharmsync/internal/domain/sync"
)

type runInput struct {
	Body sync.SyncRequest
}

type runOutput struct {
	Body sync.SyncResponse
}

type uploadInput struct {
	Body sync.UploadPayload
}

type uploadOutput struct {
	Body sync.UploadResponse
}

type changesInput struct {
	EntityType string `path:"entity_type" enum:"products,customers,suppliers,orders,sales"`
	Since      string `query:"since" required:"false" doc:"RFC 3339 timestamp; omit for a full page"`
	Limit      int    `query:"limit" required:"false" minimum:"1" maximum:"1000"`
}

type changesOutput struct {
	Body sync.ChangesResponse
}

type statusInput struct{}

type statusOutput struct {
	Body sync.StatusResponse
}

type logsInput struct {
	Limit int `query:"limit" required:"false" minimum:"1" maximum:"500"`
}

type logsOutput struct {
	Body logsResponse
}

type logsResponse struct {
	Sessions []sync.Session `json:"sessions"`
}
