package sync

import (
	"context"
	"fmt"

	"golang.org/x/exp/slog"

	"pharmsync/internal/domain/entity"
)

// Upserter applies inbound records to the local store. It validates the
// tagged record at the boundary and delegates the match-then-merge-or-
// insert mechanics to the entity type's store, so applying the same record
// twice converges on the same row.
type Upserter struct {
	stores Stores
	log    *slog.Logger
}

func NewUpserter(stores Stores, log *slog.Logger) *Upserter {
	return &Upserter{
		stores: stores,
		log:    log.With("component", "entity_upserter"),
	}
}

// Apply upserts one record and reports whether a new row was created.
func (u *Upserter) Apply(ctx context.Context, tenantID int64, rec entity.Record) (entity.Record, bool, error) {
	if err := rec.Validate(); err != nil {
		return entity.Record{}, false, fmt.Errorf("%w: %v", ErrUnknownEntityType, err)
	}

	store, ok := u.stores.For(rec.Type)
	if !ok {
		return entity.Record{}, false, fmt.Errorf("%w: %s", ErrUnknownEntityType, rec.Type)
	}

	stored, created, err := store.Upsert(ctx, tenantID, rec)
	if err != nil {
		u.log.Error("upsert failed",
			"tenant_id", tenantID, "entity_type", rec.Type,
			"sync_id", rec.SyncID(), "error", err)
		return entity.Record{}, false, err
	}

	u.log.Debug("record upserted",
		"tenant_id", tenantID, "entity_type", rec.Type,
		"local_id", stored.Meta().LocalID, "created", created)

	return stored, created, nil
}
