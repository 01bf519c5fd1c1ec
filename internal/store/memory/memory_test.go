package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"leaksift/internal/core"
)

func TestResponseStore_GetPut(t *testing.T) {
	ctx := context.Background()
	s := NewResponseStore()

	if _, err := s.Get(ctx, "jane"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("Get(miss) error = %v, want ErrNotFound", err)
	}

	if err := s.Put(ctx, "jane", []byte(`{"NumOfResults":1}`)); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	raw, err := s.Get(ctx, "jane")
	if err != nil {
		t.Fatalf("Get(hit) error = %v", err)
	}
	if string(raw) != `{"NumOfResults":1}` {
		t.Errorf("Get() = %q", raw)
	}

	// Key identity is the exact text; near-matches miss.
	if _, err := s.Get(ctx, "Jane"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Get(case variant) error = %v, want ErrNotFound", err)
	}
	if _, err := s.Get(ctx, "jane "); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Get(trailing space) error = %v, want ErrNotFound", err)
	}
}

func TestRecordStore_ReplaceAll(t *testing.T) {
	ctx := context.Background()
	s := NewRecordStore()

	first := []core.EntityRecord{
		{ID: 1, EntityType: "Email", EntryNumber: 1},
		{ID: 2, EntityType: "Phone", EntryNumber: 2},
	}
	if err := s.ReplaceAll(ctx, first); err != nil {
		t.Fatalf("ReplaceAll() error = %v", err)
	}

	all, err := s.All(ctx)
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("All() = %d records, want 2", len(all))
	}

	// A rebuild replaces everything from the prior query.
	second := []core.EntityRecord{{ID: 1, EntityType: "Password", EntryNumber: 1}}
	if err := s.ReplaceAll(ctx, second); err != nil {
		t.Fatalf("ReplaceAll() error = %v", err)
	}

	all, err = s.All(ctx)
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}
	if len(all) != 1 || all[0].EntityType != "Password" {
		t.Errorf("All() after rebuild = %+v", all)
	}

	if _, err := s.Get(ctx, 2); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Get(stale id) error = %v, want ErrNotFound", err)
	}
}

// Readers racing a rebuild must observe a full batch, never a mix.
func TestRecordStore_ConcurrentReplaceAndRead(t *testing.T) {
	ctx := context.Background()
	s := NewRecordStore()

	batchA := []core.EntityRecord{{ID: 1, EntityType: "A"}, {ID: 2, EntityType: "A"}}
	batchB := []core.EntityRecord{{ID: 1, EntityType: "B"}, {ID: 2, EntityType: "B"}, {ID: 3, EntityType: "B"}}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			batch := batchA
			if i%2 == 0 {
				batch = batchB
			}
			s.ReplaceAll(ctx, batch)
		}(i)
		go func() {
			defer wg.Done()
			all, err := s.All(ctx)
			if err != nil {
				t.Errorf("All() error = %v", err)
				return
			}
			for _, rec := range all {
				if rec.EntityType != all[0].EntityType {
					t.Errorf("mixed batch observed: %+v", all)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestSelectionStore_Idempotence(t *testing.T) {
	ctx := context.Background()
	s := NewSelectionStore()

	for i := 0; i < 3; i++ {
		if err := s.SetSelected(ctx, 7, true); err != nil {
			t.Fatalf("SetSelected(true) error = %v", err)
		}
	}
	ids, err := s.SelectedIDs(ctx)
	if err != nil {
		t.Fatalf("SelectedIDs() error = %v", err)
	}
	if len(ids) != 1 || ids[0] != 7 {
		t.Errorf("SelectedIDs() = %v, want [7]", ids)
	}

	for i := 0; i < 3; i++ {
		if err := s.SetSelected(ctx, 7, false); err != nil {
			t.Fatalf("SetSelected(false) error = %v", err)
		}
	}
	ids, err = s.SelectedIDs(ctx)
	if err != nil {
		t.Fatalf("SelectedIDs() error = %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("SelectedIDs() = %v, want empty", ids)
	}
}

func TestSelectionStore_ResetAll(t *testing.T) {
	ctx := context.Background()
	s := NewSelectionStore()

	for _, id := range []int64{3, 1, 2} {
		if err := s.SetSelected(ctx, id, true); err != nil {
			t.Fatalf("SetSelected() error = %v", err)
		}
	}

	ids, err := s.SelectedIDs(ctx)
	if err != nil {
		t.Fatalf("SelectedIDs() error = %v", err)
	}
	// Ascending order regardless of toggle order.
	if len(ids) != 3 || ids[0] != 1 || ids[1] != 2 || ids[2] != 3 {
		t.Errorf("SelectedIDs() = %v, want [1 2 3]", ids)
	}

	if err := s.ResetAll(ctx); err != nil {
		t.Fatalf("ResetAll() error = %v", err)
	}
	ids, err = s.SelectedIDs(ctx)
	if err != nil {
		t.Fatalf("SelectedIDs() error = %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("SelectedIDs() after reset = %v, want empty", ids)
	}
}
