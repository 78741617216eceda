package sync

import (
	"context"
	"fmt"

	"golang.org/x/exp/slog"

	"pharmsync/internal/domain/entity"
)

// Resolver applies chosen resolutions to previously flagged conflicts.
// Every resolution is idempotent: re-resolving an already resolved
// conflict is a no-op.
type Resolver struct {
	upserter *Upserter
	log      *slog.Logger
}

func NewResolver(upserter *Upserter, log *slog.Logger) *Resolver {
	return &Resolver{
		upserter: upserter,
		log:      log.With("component", "conflict_resolver"),
	}
}

// Resolve walks the supplied conflicts and applies each resolution,
// returning the updated slice and how many were applied in this call.
func (r *Resolver) Resolve(ctx context.Context, tenantID int64, conflicts []Conflict) ([]Conflict, int, error) {
	var applied int
	out := make([]Conflict, len(conflicts))

	for i, c := range conflicts {
		out[i] = c
		if c.Resolved {
			continue
		}

		switch c.Resolution {
		case ResolutionLocal:
			// Local wins: nothing to mutate, only mark the choice.

		case ResolutionCloud:
			if _, _, err := r.upserter.Apply(ctx, tenantID, c.Remote); err != nil {
				return out, applied, fmt.Errorf("apply cloud version of %s %s: %w", c.EntityType, c.EntityID, err)
			}

		case ResolutionMerge:
			merged := mergeVersions(c.Local, c.Remote)
			if _, _, err := r.upserter.Apply(ctx, tenantID, merged); err != nil {
				return out, applied, fmt.Errorf("apply merged version of %s %s: %w", c.EntityType, c.EntityID, err)
			}

		default:
			return out, applied, fmt.Errorf("%w: %q", ErrInvalidResolution, c.Resolution)
		}

		out[i].Resolved = true
		applied++
		r.log.Info("conflict resolved",
			"tenant_id", tenantID, "entity_type", c.EntityType,
			"entity_id", c.EntityID, "resolution", c.Resolution)
	}

	return out, applied, nil
}

// mergeVersions implements the last-write-wins field merge: the snapshot
// with the later whole-record updated_at donates every field it carries,
// fields it omits keep the other side's value. Per-field modification
// times are not stored, so the record timestamp is the tiebreaker.
func mergeVersions(local, remote entity.Record) entity.Record {
	if remote.UpdatedAt().After(local.UpdatedAt()) {
		return local.Overlay(remote)
	}
	return remote.Overlay(local)
}
