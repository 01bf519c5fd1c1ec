// Package memory provides in-memory implementations of the core stores.
//
// Used as the zero-dependency backend for development and tests. Nothing
// survives a restart; production deployments use the sqlite or postgres
// backends instead.
package memory

import (
	"context"
	"sort"
	"sync"

	"leaksift/internal/core"
)

// ResponseStore caches raw responses keyed by exact query text.
type ResponseStore struct {
	mu        sync.RWMutex
	responses map[string][]byte
}

// NewResponseStore creates an empty response cache.
func NewResponseStore() *ResponseStore {
	return &ResponseStore{responses: make(map[string][]byte)}
}

// Get returns the cached raw response for query, or core.ErrNotFound.
func (s *ResponseStore) Get(_ context.Context, query string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	raw, ok := s.responses[query]
	if !ok {
		return nil, core.ErrNotFound
	}
	out := make([]byte, len(raw))
	copy(out, raw)
	return out, nil
}

// Put stores raw under query, overwriting any previous value.
func (s *ResponseStore) Put(_ context.Context, query string, raw []byte) error {
	stored := make([]byte, len(raw))
	copy(stored, raw)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses[query] = stored
	return nil
}

// RecordStore holds the flattened records of the current query.
type RecordStore struct {
	mu      sync.RWMutex
	records []core.EntityRecord
	byID    map[int64]core.EntityRecord
}

// NewRecordStore creates an empty record store.
func NewRecordStore() *RecordStore {
	return &RecordStore{byID: make(map[int64]core.EntityRecord)}
}

// ReplaceAll swaps in a new record batch. The new snapshot is built off to the
// side and published under the lock in one step, so readers see either the old
// batch or the new one in full.
func (s *RecordStore) ReplaceAll(_ context.Context, records []core.EntityRecord) error {
	snapshot := make([]core.EntityRecord, len(records))
	copy(snapshot, records)
	byID := make(map[int64]core.EntityRecord, len(records))
	for _, rec := range snapshot {
		byID[rec.ID] = rec
	}

	s.mu.Lock()
	s.records = snapshot
	s.byID = byID
	s.mu.Unlock()
	return nil
}

// All returns the current batch in insertion order.
func (s *RecordStore) All(_ context.Context) ([]core.EntityRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.EntityRecord, len(s.records))
	copy(out, s.records)
	return out, nil
}

// Get returns the record with the given id, or core.ErrNotFound.
func (s *RecordStore) Get(_ context.Context, id int64) (core.EntityRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.byID[id]
	if !ok {
		return core.EntityRecord{}, core.ErrNotFound
	}
	return rec, nil
}

// SelectionStore tracks selected record ids.
type SelectionStore struct {
	mu  sync.Mutex
	ids map[int64]struct{}
}

// NewSelectionStore creates an empty selection.
func NewSelectionStore() *SelectionStore {
	return &SelectionStore{ids: make(map[int64]struct{})}
}

// SetSelected adds or removes an id. Both directions are idempotent.
func (s *SelectionStore) SetSelected(_ context.Context, recordID int64, selected bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if selected {
		s.ids[recordID] = struct{}{}
	} else {
		delete(s.ids, recordID)
	}
	return nil
}

// SelectedIDs returns the selected ids in ascending order.
func (s *SelectionStore) SelectedIDs(_ context.Context) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int64, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// ResetAll clears the selection.
func (s *SelectionStore) ResetAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids = make(map[int64]struct{})
	return nil
}
