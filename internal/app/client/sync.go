package client

import (
	"context"
	"fmt"
	"time"

	"pharmsync/internal/domain/entity"
	"pharmsync/internal/domain/sync"
)

// SyncResult summarizes one client-driven push/pull cycle.
type SyncResult struct {
	Uploaded   int
	Downloaded int
	Duration   time.Duration
}

// Sync pushes pending local records, pulls server changes and advances the
// local watermark. Conflict arbitration happens server side; the client
// only ships and applies records.
func (a *App) Sync(ctx context.Context) (*SyncResult, error) {
	start := time.Now()
	result := &SyncResult{}

	if !a.HasAPIKey() {
		return nil, fmt.Errorf("no api key configured, run: pharmsync-cli login")
	}
	if err := a.CheckConnection(ctx); err != nil {
		return nil, fmt.Errorf("server unreachable: %w", err)
	}

	baseline, err := a.storage.Baseline()
	if err != nil {
		return nil, err
	}
	windowStart := time.Now().UTC()

	uploaded, err := a.push(ctx, baseline)
	if err != nil {
		return nil, err
	}
	result.Uploaded = uploaded

	downloaded, err := a.pull(ctx, baseline)
	if err != nil {
		return nil, err
	}
	result.Downloaded = downloaded

	if err := a.storage.SetBaseline(windowStart); err != nil {
		return nil, err
	}

	result.Duration = time.Since(start)
	a.log.Info("sync finished",
		"uploaded", result.Uploaded,
		"downloaded", result.Downloaded,
		"duration", result.Duration)
	return result, nil
}

func (a *App) push(ctx context.Context, baseline *time.Time) (int, error) {
	var total int
	now := time.Now().UTC()

	for _, t := range entity.AllTypes() {
		for {
			records, err := a.storage.PendingRecords(t, baseline, a.config.BatchSize)
			if err != nil {
				return total, err
			}
			if len(records) == 0 {
				break
			}

			resp, err := a.httpClient.Upload(ctx, sync.UploadPayload{
				EntityType: string(t),
				Items:      records,
			})
			if err != nil {
				return total, fmt.Errorf("upload %s: %w", t, err)
			}

			if err := a.storage.MarkSynced(records, now); err != nil {
				return total, err
			}
			total += resp.Processed

			if len(records) < a.config.BatchSize {
				break
			}
		}
	}
	return total, nil
}

func (a *App) pull(ctx context.Context, baseline *time.Time) (int, error) {
	var total int

	for _, t := range entity.AllTypes() {
		since := baseline
		for {
			page, err := a.httpClient.GetChanges(ctx, string(t), since, a.config.BatchSize)
			if err != nil {
				return total, fmt.Errorf("fetch %s: %w", t, err)
			}

			for _, rec := range page.Records {
				// The server's row id means nothing here; reconcile by
				// sync_id only.
				if m := rec.Meta(); m != nil {
					m.LocalID = 0
					synced := time.Now().UTC()
					m.LastSyncAt = &synced
				}
				if err := a.storage.SaveRecord(rec); err != nil {
					return total, fmt.Errorf("apply %s: %w", t, err)
				}
				total++
			}

			if !page.HasMore || len(page.Records) == 0 {
				break
			}
			last := page.Records[len(page.Records)-1].UpdatedAt()
			since = &last
		}
	}
	return total, nil
}

// Status combines the server dashboard with the local pending counts.
func (a *App) Status(ctx context.Context) (*sync.StatusResponse, map[string]int, error) {
	remote, err := a.httpClient.GetStatus(ctx)
	if err != nil {
		return nil, nil, err
	}

	baseline, err := a.storage.Baseline()
	if err != nil {
		return nil, nil, err
	}
	local, err := a.storage.CountPending(baseline)
	if err != nil {
		return nil, nil, err
	}

	return remote, local, nil
}

// Logs fetches past server sessions.
func (a *App) Logs(ctx context.Context, limit int) ([]sync.Session, error) {
	return a.httpClient.GetLogs(ctx, limit)
}
