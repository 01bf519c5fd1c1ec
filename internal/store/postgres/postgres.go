// Package postgres implements the core stores on PostgreSQL via pgx.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"leaksift/internal/core"
)

// Fields are stored as TEXT, not JSONB: jsonb normalizes key order and the
// upstream field order must survive round-trips.
const schema = `
CREATE TABLE IF NOT EXISTS search_responses (
	id           UUID PRIMARY KEY,
	query        TEXT NOT NULL UNIQUE,
	raw_response BYTEA NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS entity_records (
	id           BIGINT PRIMARY KEY,
	entity_type  TEXT NOT NULL,
	entry_number INT NOT NULL,
	fields       TEXT NOT NULL,
	info_leak    TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS selected_records (
	record_id BIGINT PRIMARY KEY REFERENCES entity_records(id) ON DELETE CASCADE
);
`

// Stores bundles the three PostgreSQL-backed stores over one pool.
type Stores struct {
	Responses  *ResponseStore
	Records    *RecordStore
	Selections *SelectionStore
}

// New creates the store bundle. Call Init once before serving.
func New(pool *pgxpool.Pool) *Stores {
	return &Stores{
		Responses:  &ResponseStore{pool: pool},
		Records:    &RecordStore{pool: pool},
		Selections: &SelectionStore{pool: pool},
	}
}

// Init creates the tables if they do not exist.
func (s *Stores) Init(ctx context.Context) error {
	if _, err := s.Responses.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	return nil
}

// ResponseStore caches raw responses keyed by exact query text.
type ResponseStore struct {
	pool *pgxpool.Pool
}

// Get returns the cached raw response for query, or core.ErrNotFound.
func (s *ResponseStore) Get(ctx context.Context, query string) ([]byte, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT raw_response FROM search_responses WHERE query = $1`, query,
	).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select cached response: %w", err)
	}
	return raw, nil
}

// Put stores raw under query. A concurrent writer that got there first wins;
// cached responses are immutable once stored.
func (s *ResponseStore) Put(ctx context.Context, query string, raw []byte) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO search_responses (id, query, raw_response) VALUES ($1, $2, $3)
		 ON CONFLICT (query) DO NOTHING`,
		uuid.New(), query, raw,
	)
	if err != nil {
		return fmt.Errorf("insert cached response: %w", err)
	}
	return nil
}

// RecordStore holds the flattened records of the current query.
type RecordStore struct {
	pool *pgxpool.Pool
}

// ReplaceAll swaps the record set inside one transaction: readers see the old
// batch or the new one, never a partial rebuild. The cascade on
// selected_records drops selections referencing deleted records.
func (s *RecordStore) ReplaceAll(ctx context.Context, records []core.EntityRecord) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin rebuild: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM entity_records`); err != nil {
		return fmt.Errorf("clear records: %w", err)
	}

	batch := &pgx.Batch{}
	for _, rec := range records {
		fields, err := json.Marshal(rec.Fields)
		if err != nil {
			return fmt.Errorf("encode fields for record %d: %w", rec.ID, err)
		}
		batch.Queue(
			`INSERT INTO entity_records (id, entity_type, entry_number, fields, info_leak)
			 VALUES ($1, $2, $3, $4, $5)`,
			rec.ID, rec.EntityType, rec.EntryNumber, string(fields), rec.InfoLeak,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert records: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit rebuild: %w", err)
	}
	return nil
}

// All returns the current batch in insertion order.
func (s *RecordStore) All(ctx context.Context) ([]core.EntityRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, entity_type, entry_number, fields, info_leak
		 FROM entity_records ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("select records: %w", err)
	}
	defer rows.Close()

	var records []core.EntityRecord
	for rows.Next() {
		rec, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return records, nil
}

// Get returns the record with the given id, or core.ErrNotFound.
func (s *RecordStore) Get(ctx context.Context, id int64) (core.EntityRecord, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, entity_type, entry_number, fields, info_leak
		 FROM entity_records WHERE id = $1`, id,
	)
	rec, err := scanRecord(row.Scan)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.EntityRecord{}, core.ErrNotFound
	}
	return rec, err
}

func scanRecord(scan func(dest ...any) error) (core.EntityRecord, error) {
	var rec core.EntityRecord
	var fields string
	if err := scan(&rec.ID, &rec.EntityType, &rec.EntryNumber, &fields, &rec.InfoLeak); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return core.EntityRecord{}, err
		}
		return core.EntityRecord{}, fmt.Errorf("scan record: %w", err)
	}
	if err := json.Unmarshal([]byte(fields), &rec.Fields); err != nil {
		return core.EntityRecord{}, fmt.Errorf("decode fields for record %d: %w", rec.ID, err)
	}
	return rec, nil
}

// SelectionStore tracks selected record ids.
type SelectionStore struct {
	pool *pgxpool.Pool
}

// SetSelected adds or removes an id. The primary key makes repeated adds
// no-ops; removal of an absent id is equally a no-op.
func (s *SelectionStore) SetSelected(ctx context.Context, recordID int64, selected bool) error {
	var err error
	if selected {
		_, err = s.pool.Exec(ctx,
			`INSERT INTO selected_records (record_id) VALUES ($1) ON CONFLICT DO NOTHING`,
			recordID,
		)
	} else {
		_, err = s.pool.Exec(ctx,
			`DELETE FROM selected_records WHERE record_id = $1`, recordID,
		)
	}
	if err != nil {
		return fmt.Errorf("update selection: %w", err)
	}
	return nil
}

// SelectedIDs returns the selected ids in ascending order.
func (s *SelectionStore) SelectedIDs(ctx context.Context) ([]int64, error) {
	rows, err := s.pool.Query(ctx, `SELECT record_id FROM selected_records ORDER BY record_id`)
	if err != nil {
		return nil, fmt.Errorf("select selection: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan selection: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate selection: %w", err)
	}
	return ids, nil
}

// ResetAll clears the selection.
func (s *SelectionStore) ResetAll(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM selected_records`); err != nil {
		return fmt.Errorf("clear selection: %w", err)
	}
	return nil
}
