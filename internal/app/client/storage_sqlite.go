package client

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"pharmsync/internal/domain/entity"
)

// SQLiteStorage is the local cache on the pharmacy workstation. All entity
// families share one records table; the typed payload travels as JSON.
type SQLiteStorage struct {
	db *sql.DB
}

func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	storage := &SQLiteStorage{db: db}
	if err := storage.initTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init tables: %w", err)
	}

	return storage, nil
}

func (s *SQLiteStorage) initTables() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS records (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			entity_type TEXT NOT NULL,
			sync_id TEXT UNIQUE,
			payload TEXT NOT NULL,
			updated_at DATETIME NOT NULL,
			last_sync_at DATETIME
		);

		CREATE INDEX IF NOT EXISTS idx_records_type ON records(entity_type);
		CREATE INDEX IF NOT EXISTS idx_records_updated ON records(entity_type, updated_at);

		CREATE TABLE IF NOT EXISTS sync_state (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	return err
}

// SaveRecord stores one record, matching by sync_id first and falling back
// to the local row id, mirroring how the server reconciles inbound rows.
func (s *SQLiteStorage) SaveRecord(rec entity.Record) error {
	m := rec.Meta()
	if m == nil {
		return entity.ErrEmptyRecord
	}

	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	updatedAt := m.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	if m.SyncID != nil {
		res, err := s.db.Exec(`
			UPDATE records SET payload = ?, updated_at = ?, last_sync_at = ?
			WHERE sync_id = ?`,
			string(payload), updatedAt.Format(time.RFC3339Nano),
			formatTimePtr(m.LastSyncAt), *m.SyncID)
		if err != nil {
			return fmt.Errorf("update record: %w", err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			return nil
		}
	}

	if m.LocalID != 0 {
		res, err := s.db.Exec(`
			UPDATE records SET payload = ?, sync_id = COALESCE(sync_id, ?), updated_at = ?, last_sync_at = ?
			WHERE id = ? AND entity_type = ?`,
			string(payload), m.SyncID, updatedAt.Format(time.RFC3339Nano),
			formatTimePtr(m.LastSyncAt), m.LocalID, string(rec.Type))
		if err != nil {
			return fmt.Errorf("update record: %w", err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			return nil
		}
	}

	_, err = s.db.Exec(`
		INSERT INTO records (entity_type, sync_id, payload, updated_at, last_sync_at)
		VALUES (?, ?, ?, ?, ?)`,
		string(rec.Type), m.SyncID, string(payload),
		updatedAt.Format(time.RFC3339Nano), formatTimePtr(m.LastSyncAt))
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

// PendingRecords returns rows never synced or modified after the baseline.
// A nil baseline selects only never-synced rows, so pages stamped by
// MarkSynced drop out during the first full sync.
func (s *SQLiteStorage) PendingRecords(t entity.Type, baseline *time.Time, limit int) ([]entity.Record, error) {
	rows, err := s.db.Query(`
		SELECT id, payload FROM records
		WHERE entity_type = ?
		  AND (last_sync_at IS NULL OR (? IS NOT NULL AND updated_at > ?))
		ORDER BY updated_at
		LIMIT ?`,
		string(t), formatTimePtr(baseline), formatTimePtr(baseline), limit)
	if err != nil {
		return nil, fmt.Errorf("query pending records: %w", err)
	}
	defer rows.Close()

	var records []entity.Record
	for rows.Next() {
		var id int64
		var payload string
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}

		var rec entity.Record
		if err := json.Unmarshal([]byte(payload), &rec); err != nil {
			return nil, fmt.Errorf("unmarshal record: %w", err)
		}
		if m := rec.Meta(); m != nil {
			m.LocalID = id
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// MarkSynced stamps the given rows after a successful push.
func (s *SQLiteStorage) MarkSynced(records []entity.Record, at time.Time) error {
	for _, rec := range records {
		m := rec.Meta()
		if m == nil {
			continue
		}
		_, err := s.db.Exec(`
			UPDATE records SET last_sync_at = ?, sync_id = COALESCE(sync_id, ?)
			WHERE id = ?`,
			at.Format(time.RFC3339Nano), m.SyncID, m.LocalID)
		if err != nil {
			return fmt.Errorf("mark record synced: %w", err)
		}
	}
	return nil
}

// CountPending reports unsynced rows per entity type.
func (s *SQLiteStorage) CountPending(baseline *time.Time) (map[string]int, error) {
	rows, err := s.db.Query(`
		SELECT entity_type, count(*) FROM records
		WHERE last_sync_at IS NULL OR (? IS NOT NULL AND updated_at > ?)
		GROUP BY entity_type`,
		formatTimePtr(baseline), formatTimePtr(baseline))
	if err != nil {
		return nil, fmt.Errorf("count pending: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var t string
		var n int
		if err := rows.Scan(&t, &n); err != nil {
			return nil, fmt.Errorf("scan pending count: %w", err)
		}
		counts[t] = n
	}
	return counts, rows.Err()
}

// Baseline returns the locally stored sync watermark, nil before the first
// successful run.
func (s *SQLiteStorage) Baseline() (*time.Time, error) {
	var value string
	err := s.db.QueryRow(
		`SELECT value FROM sync_state WHERE key = 'baseline'`).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read baseline: %w", err)
	}

	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return nil, fmt.Errorf("parse baseline: %w", err)
	}
	return &t, nil
}

func (s *SQLiteStorage) SetBaseline(t time.Time) error {
	_, err := s.db.Exec(`
		INSERT INTO sync_state (key, value) VALUES ('baseline', ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		t.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("set baseline: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func formatTimePtr(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.Format(time.RFC3339Nano)
}
