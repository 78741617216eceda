package tenant

import "time"

// Pharmacy is one tenant: an isolated store whose records and sync
// sessions are independent of all others. LastSyncAt is the sync baseline;
// nil means the tenant never completed a sync.
type Pharmacy struct {
	ID         int64      `json:"id"`
	Name       string     `json:"name"`
	APIKeyHash string     `json:"-"`
	IsActive   bool       `json:"is_active"`
	LastSyncAt *time.Time `json:"last_sync_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}
