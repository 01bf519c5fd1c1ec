// Package sqlite implements the core stores on SQLite via the cgo-free
// modernc.org/sqlite driver. It is the default backend when no PostgreSQL
// URL is configured.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"leaksift/internal/core"
)

const schema = `
PRAGMA foreign_keys = ON;

CREATE TABLE IF NOT EXISTS search_responses (
	id           TEXT PRIMARY KEY,
	query        TEXT NOT NULL UNIQUE,
	raw_response BLOB NOT NULL,
	created_at   INTEGER NOT NULL DEFAULT (unixepoch())
);

CREATE TABLE IF NOT EXISTS entity_records (
	id           INTEGER PRIMARY KEY,
	entity_type  TEXT NOT NULL,
	entry_number INTEGER NOT NULL,
	fields       TEXT NOT NULL,
	info_leak    TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS selected_records (
	record_id INTEGER PRIMARY KEY REFERENCES entity_records(id) ON DELETE CASCADE
);
`

// Open opens (and creates if missing) the database at path and applies the
// schema. The connection is limited to a single writer, which is how SQLite
// behaves anyway.
func Open(ctx context.Context, path string) (*Stores, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return &Stores{
		db:         db,
		Responses:  &ResponseStore{db: db},
		Records:    &RecordStore{db: db},
		Selections: &SelectionStore{db: db},
	}, nil
}

// Stores bundles the three SQLite-backed stores over one connection.
type Stores struct {
	db         *sql.DB
	Responses  *ResponseStore
	Records    *RecordStore
	Selections *SelectionStore
}

// Close closes the underlying database.
func (s *Stores) Close() error { return s.db.Close() }

// ResponseStore caches raw responses keyed by exact query text.
type ResponseStore struct {
	db *sql.DB
}

// Get returns the cached raw response for query, or core.ErrNotFound.
func (s *ResponseStore) Get(ctx context.Context, query string) ([]byte, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT raw_response FROM search_responses WHERE query = ?`, query,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select cached response: %w", err)
	}
	return raw, nil
}

// Put stores raw under query; the first writer wins.
func (s *ResponseStore) Put(ctx context.Context, query string, raw []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO search_responses (id, query, raw_response) VALUES (?, ?, ?)
		 ON CONFLICT (query) DO NOTHING`,
		uuid.NewString(), query, raw,
	)
	if err != nil {
		return fmt.Errorf("insert cached response: %w", err)
	}
	return nil
}

// RecordStore holds the flattened records of the current query.
type RecordStore struct {
	db *sql.DB
}

// ReplaceAll swaps the record set inside one transaction.
func (s *RecordStore) ReplaceAll(ctx context.Context, records []core.EntityRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin rebuild: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM entity_records`); err != nil {
		return fmt.Errorf("clear records: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO entity_records (id, entity_type, entry_number, fields, info_leak)
		 VALUES (?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		fields, err := json.Marshal(rec.Fields)
		if err != nil {
			return fmt.Errorf("encode fields for record %d: %w", rec.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, rec.ID, rec.EntityType, rec.EntryNumber, string(fields), rec.InfoLeak); err != nil {
			return fmt.Errorf("insert record %d: %w", rec.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit rebuild: %w", err)
	}
	return nil
}

// All returns the current batch in insertion order.
func (s *RecordStore) All(ctx context.Context) ([]core.EntityRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, entity_type, entry_number, fields, info_leak
		 FROM entity_records ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("select records: %w", err)
	}
	defer rows.Close()

	var records []core.EntityRecord
	for rows.Next() {
		var rec core.EntityRecord
		var fields string
		if err := rows.Scan(&rec.ID, &rec.EntityType, &rec.EntryNumber, &fields, &rec.InfoLeak); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		if err := json.Unmarshal([]byte(fields), &rec.Fields); err != nil {
			return nil, fmt.Errorf("decode fields for record %d: %w", rec.ID, err)
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
	var rec core.EntityRecord
	var fields string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, entity_type, entry_number, fields, info_leak
		 FROM entity_records WHERE id = ?`, id,
	).Scan(&rec.ID, &rec.EntityType, &rec.EntryNumber, &fields, &rec.InfoLeak)
	if errors.Is(err, sql.ErrNoRows) {
		return core.EntityRecord{}, core.ErrNotFound
	}
	if err != nil {
		return core.EntityRecord{}, fmt.Errorf("select record: %w", err)
	}
	if err := json.Unmarshal([]byte(fields), &rec.Fields); err != nil {
		return core.EntityRecord{}, fmt.Errorf("decode fields for record %d: %w", rec.ID, err)
	}
	return rec, nil
}

// SelectionStore tracks selected record ids.
type SelectionStore struct {
	db *sql.DB
}

// SetSelected adds or removes an id, idempotently.
func (s *SelectionStore) SetSelected(ctx context.Context, recordID int64, selected bool) error {
	var err error
	if selected {
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO selected_records (record_id) VALUES (?) ON CONFLICT DO NOTHING`,
			recordID,
		)
	} else {
		_, err = s.db.ExecContext(ctx,
			`DELETE FROM selected_records WHERE record_id = ?`, recordID,
		)
	}
	if err != nil {
		return fmt.Errorf("update selection: %w", err)
	}
	return nil
}

// SelectedIDs returns the selected ids in ascending order.
func (s *SelectionStore) SelectedIDs(ctx context.Context) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT record_id FROM selected_records ORDER BY record_id`)
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
	if _, err := s.db.ExecContext(ctx, `DELETE FROM selected_records`); err != nil {
		return fmt.Errorf("clear selection: %w", err)
	}
	return nil
}
