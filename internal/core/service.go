package core

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"leaksift/internal/logging"
	"leaksift/internal/monitoring"
)

// ResponseStore is the durable cache of raw upstream responses, keyed by the
// exact query text. Get returns ErrNotFound on a cache miss.
type ResponseStore interface {
	Get(ctx context.Context, query string) ([]byte, error)
	Put(ctx context.Context, query string, raw []byte) error
}

// RecordStore holds the flattened records of the current query. ReplaceAll
// swaps the full record set atomically; readers observe either the old batch
// or the new one, never a mix. Get returns ErrNotFound for unknown ids.
type RecordStore interface {
	ReplaceAll(ctx context.Context, records []EntityRecord) error
	All(ctx context.Context) ([]EntityRecord, error)
	Get(ctx context.Context, id int64) (EntityRecord, error)
}

// SelectionStore tracks which record ids are currently selected. SetSelected
// is idempotent in both directions.
type SelectionStore interface {
	SetSelected(ctx context.Context, recordID int64, selected bool) error
	SelectedIDs(ctx context.Context) ([]int64, error)
	ResetAll(ctx context.Context) error
}

// LookupClient performs the external lookup call, returning the raw response
// body. Failures are reported as *UpstreamError.
type LookupClient interface {
	Lookup(ctx context.Context, query string) ([]byte, error)
}

// Service orchestrates the search pipeline: fetch-or-reuse of raw responses,
// record rebuilds, pagination, selection toggles, and CSV export.
type Service struct {
	responses  ResponseStore
	records    RecordStore
	selections SelectionStore
	lookup     LookupClient
	pageSize   int

	// flight collapses concurrent first-time resolves of the same query into
	// one upstream call and one record rebuild.
	flight singleflight.Group
}

// NewService wires the pipeline together. pageSize <= 0 falls back to
// DefaultPageSize.
func NewService(responses ResponseStore, records RecordStore, selections SelectionStore, lookup LookupClient, pageSize int) *Service {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Service{
		responses:  responses,
		records:    records,
		selections: selections,
		lookup:     lookup,
		pageSize:   pageSize,
	}
}

// PageSize returns the configured page size.
func (s *Service) PageSize() int { return s.pageSize }

// Search resolves the raw response for query (cache hit or upstream call),
// and returns the requested page of flattened records along with the current
// selection.
//
// Requesting page 1 resets the selection, so a fresh search always starts
// with nothing selected. A page outside the valid range returns an empty
// record list, not an error.
func (s *Service) Search(ctx context.Context, query string, page int) (*SearchPage, error) {
	if query == "" {
		return nil, ErrEmptyQuery
	}

	log := logging.WithFields(ctx, "caller", CallerFromContext(ctx))
	log.Debug("search requested", "query", query, "page", page)

	if page == 1 {
		if err := s.selections.ResetAll(ctx); err != nil {
			return nil, fmt.Errorf("reset selection: %w", err)
		}
	}

	resp, err := s.resolve(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(resp.Groups) == 0 {
		return nil, ErrNoEntities
	}

	all, err := s.records.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}

	items, totalPages := Paginate(all, page, s.pageSize)
	if len(items) == 0 {
		log.Warn("no records for requested page", "page", page, "total_pages", totalPages)
	}

	selected, err := s.selections.SelectedIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("load selection: %w", err)
	}

	return &SearchPage{
		Query:        query,
		TotalResults: resp.NumOfResults,
		Page:         page,
		TotalPages:   totalPages,
		Records:      items,
		SelectedIDs:  selected,
	}, nil
}

// resolve returns the raw response for query, fetching from upstream at most
// once per distinct query text. Concurrent resolves of an unseen query
// collapse into a single in-flight fetch; every waiter receives its result.
// The record rebuild happens inside the same flight, only on the
// first-time-stored path; cache hits never rebuild.
func (s *Service) resolve(ctx context.Context, query string) (*RawResponse, error) {
	v, err, _ := s.flight.Do(query, func() (any, error) {
		return s.fetchOrReuse(ctx, query)
	})
	if err != nil {
		return nil, err
	}
	return v.(*RawResponse), nil
}

func (s *Service) fetchOrReuse(ctx context.Context, query string) (*RawResponse, error) {
	raw, err := s.responses.Get(ctx, query)
	switch {
	case err == nil:
		monitoring.CacheHits.Inc()
		resp, perr := ParseRawResponse(raw)
		if perr != nil {
			return nil, fmt.Errorf("decode cached response: %w", perr)
		}
		logging.FromContext(ctx).Debug("search served from cache",
			"query", query, "results", resp.NumOfResults)
		return resp, nil
	case !errors.Is(err, ErrNotFound):
		return nil, fmt.Errorf("response cache lookup: %w", err)
	}

	monitoring.CacheMisses.Inc()
	searchID := uuid.NewString()
	log := logging.WithFields(ctx, "search_id", searchID, "query", query)

	raw, err = s.lookup.Lookup(ctx, query)
	if err != nil {
		log.Error("upstream lookup failed", "error", err)
		return nil, err
	}

	resp, perr := ParseRawResponse(raw)
	if perr != nil {
		// Malformed payloads are upstream failures and are never cached.
		return nil, &UpstreamError{Reason: "payload", Err: perr}
	}

	if err := s.responses.Put(ctx, query, raw); err != nil {
		return nil, fmt.Errorf("cache response: %w", err)
	}

	records := Flatten(resp)
	if err := s.records.ReplaceAll(ctx, records); err != nil {
		return nil, fmt.Errorf("rebuild records: %w", err)
	}

	log.Info("search resolved from upstream",
		"results", resp.NumOfResults,
		"groups", len(resp.Groups),
		"records", len(records),
	)
	return resp, nil
}

// ToggleSelection marks a record as selected or deselected. Selecting an
// unknown id returns ErrNotFound; deselecting one is a no-op. Repeated calls
// with the same arguments converge to the same membership.
func (s *Service) ToggleSelection(ctx context.Context, recordID int64, selected bool) error {
	if selected {
		if _, err := s.records.Get(ctx, recordID); err != nil {
			if errors.Is(err, ErrNotFound) {
				return fmt.Errorf("record %d: %w", recordID, ErrNotFound)
			}
			return fmt.Errorf("lookup record %d: %w", recordID, err)
		}
	}
	if err := s.selections.SetSelected(ctx, recordID, selected); err != nil {
		return fmt.Errorf("toggle selection: %w", err)
	}
	logging.FromContext(ctx).Debug("selection updated", "record_id", recordID, "selected", selected)
	return nil
}

// Export produces the CSV document for the current selection. Selected ids
// that no longer resolve to a record are skipped silently. An empty selection
// yields ErrEmptySelection with no document.
func (s *Service) Export(ctx context.Context) ([]byte, error) {
	ids, err := s.selections.SelectedIDs(ctx)
	if err != nil {
		monitoring.ExportsTotal.WithLabelValues("failure").Inc()
		return nil, fmt.Errorf("load selection: %w", err)
	}
	if len(ids) == 0 {
		monitoring.ExportsTotal.WithLabelValues("empty_selection").Inc()
		return nil, ErrEmptySelection
	}

	// Rows come out in record insertion order.
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	log := logging.FromContext(ctx)
	records := make([]EntityRecord, 0, len(ids))
	for _, id := range ids {
		rec, err := s.records.Get(ctx, id)
		if errors.Is(err, ErrNotFound) {
			log.Debug("skipping selected id with no record", "record_id", id)
			continue
		}
		if err != nil {
			monitoring.ExportsTotal.WithLabelValues("failure").Inc()
			return nil, fmt.Errorf("load record %d: %w", id, err)
		}
		records = append(records, rec)
	}

	doc, err := ExportCSV(records)
	if err != nil {
		monitoring.ExportsTotal.WithLabelValues("failure").Inc()
		return nil, err
	}

	monitoring.ExportsTotal.WithLabelValues("success").Inc()
	log.Debug("exported selection", "selected", len(ids), "rows", len(records))
	return doc, nil
}
