package sync

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/exp/slog"

	"pharmsync/internal/domain/entity"
)

// Selector builds change sets: the page of records dirty since a baseline.
// Read-only; the window end is captured before querying so records mutated
// during a run are deferred to the next one instead of re-selected forever.
type Selector struct {
	stores Stores
	log    *slog.Logger
	now    func() time.Time
}

func NewSelector(stores Stores, log *slog.Logger) *Selector {
	return &Selector{
		stores: stores,
		log:    log.With("component", "changeset_selector"),
		now:    time.Now,
	}
}

// Select returns one page of dirty records for the entity type, plus a
// has_more flag and the window end the page was computed against.
func (s *Selector) Select(ctx context.Context, tenantID int64, t entity.Type, baseline *time.Time, batchSize int) (*ChangeSet, error) {
	store, ok := s.stores.For(t)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEntityType, t)
	}
	if batchSize <= 0 {
		batchSize = DefaultConfig().BatchSize
	}

	windowEnd := s.now().UTC()

	// One extra row decides has_more without a second count query.
	records, err := store.SelectChanged(ctx, tenantID, baseline, windowEnd, batchSize+1)
	if err != nil {
		return nil, fmt.Errorf("select changed %s: %w", t, err)
	}

	hasMore := len(records) > batchSize
	if hasMore {
		records = records[:batchSize]
	}

	s.log.Debug("change set selected",
		"tenant_id", tenantID, "entity_type", t,
		"records", len(records), "has_more", hasMore)

	return &ChangeSet{
		Type:      t,
		Records:   records,
		HasMore:   hasMore,
		WindowEnd: windowEnd,
	}, nil
}
