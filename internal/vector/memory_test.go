package vector

import (
	"context"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *MemoryStore {
	t.Helper()
	s, err := NewMemoryStore("test", 3)
	if err != nil {
		t.Fatalf("NewMemoryStore: %v", err)
	}
	return s
}

func entry(id string, vec []float32, text, url string, idx int) Entry {
	return Entry{
		ID:     id,
		Vector: vec,
		Text:   text,
		Meta:   ChunkMeta{SourceURL: url, ChunkIndex: idx, Title: "t", TotalChunks: 1},
	}
}

func TestUpsertAndCount(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.Upsert(ctx, []Entry{
		entry("a_0", []float32{1, 0, 0}, "alpha", "https://a", 0),
		entry("b_0", []float32{0, 1, 0}, "beta", "https://b", 0),
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	n, err := s.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 2 {
		t.Errorf("Count = %d, want 2", n)
	}
}

func TestUpsertReplacesExistingID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Upsert(ctx, []Entry{entry("a_0", []float32{1, 0, 0}, "old", "https://a", 0)}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := s.Upsert(ctx, []Entry{entry("a_0", []float32{1, 0, 0}, "new", "https://a", 0)}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	n, _ := s.Count(ctx)
	if n != 1 {
		t.Fatalf("Count = %d, want 1 after re-upsert", n)
	}
	results, err := s.Query(ctx, []float32{1, 0, 0}, 1)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if results[0].Text != "new" {
		t.Errorf("Text = %q, want %q", results[0].Text, "new")
	}
}

func TestUpsertValidation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Upsert(ctx, []Entry{entry("", []float32{1, 0, 0}, "x", "u", 0)}); err == nil {
		t.Error("expected error for empty ID")
	}
	if err := s.Upsert(ctx, []Entry{entry("a", []float32{1, 0}, "x", "u", 0)}); err == nil {
		t.Error("expected error for dimension mismatch")
	}
	if err := s.Upsert(ctx, []Entry{entry("a", []float32{1, 0, 0}, "", "u", 0)}); err == nil {
		t.Error("expected error for empty text")
	}
}

func TestQueryOrdering(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.Upsert(ctx, []Entry{
		entry("far", []float32{0, 1, 0}, "orthogonal", "https://a", 0),
		entry("near", []float32{1, 0.1, 0}, "close", "https://a", 1),
		entry("exact", []float32{1, 0, 0}, "same", "https://a", 2),
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	results, err := s.Query(ctx, []float32{1, 0, 0}, 3)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	want := []string{"exact", "near", "far"}
	for i, id := range want {
		if results[i].ID != id {
			t.Errorf("result[%d] = %s, want %s", i, results[i].ID, id)
		}
	}
	for i := 1; i < len(results); i++ {
		if results[i].Distance < results[i-1].Distance {
			t.Errorf("distances not increasing: %v then %v", results[i-1].Distance, results[i].Distance)
		}
	}
}

func TestQueryClampsK(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Upsert(ctx, []Entry{entry("a_0", []float32{1, 0, 0}, "only", "https://a", 0)}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	results, err := s.Query(ctx, []float32{1, 0, 0}, 1000)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("got %d results, want 1", len(results))
	}
}

func TestQueryEmptyStore(t *testing.T) {
	s := newTestStore(t)

	results, err := s.Query(context.Background(), []float32{1, 0, 0}, 5)
	if err != nil {
		t.Fatalf("Query on empty store: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("got %d results from empty store, want 0", len(results))
	}
}

func TestDeleteByPredicate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.Upsert(ctx, []Entry{
		entry("a_0", []float32{1, 0, 0}, "a0", "https://a", 0),
		entry("a_1", []float32{0, 1, 0}, "a1", "https://a", 1),
		entry("b_0", []float32{0, 0, 1}, "b0", "https://b", 0),
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	deleted, err := s.Delete(ctx, func(m ChunkMeta) bool { return m.SourceURL == "https://a" })
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(deleted) != 2 {
		t.Fatalf("deleted %d entries, want 2", len(deleted))
	}
	n, _ := s.Count(ctx)
	if n != 1 {
		t.Errorf("Count = %d, want 1", n)
	}

	// Remaining entry must still be queryable after index rebuild.
	results, err := s.Query(ctx, []float32{0, 0, 1}, 1)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if results[0].ID != "b_0" {
		t.Errorf("remaining entry = %s, want b_0", results[0].ID)
	}
}

func TestListMetadata(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.Upsert(ctx, []Entry{
		entry("a_0", []float32{1, 0, 0}, "a0", "https://a", 0),
		entry("b_0", []float32{0, 1, 0}, "b0", "https://b", 0),
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	metas, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(metas) != 2 {
		t.Fatalf("got %d metas, want 2", len(metas))
	}
	if metas[0].SourceURL != "https://a" || metas[1].SourceURL != "https://b" {
		t.Errorf("unexpected metadata order: %+v", metas)
	}
}

func TestReset(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Upsert(ctx, []Entry{entry("a_0", []float32{1, 0, 0}, "a0", "https://a", 0)}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := s.Reset(ctx); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	n, _ := s.Count(ctx)
	if n != 0 {
		t.Errorf("Count = %d after Reset, want 0", n)
	}
}

func TestSaveLoadRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vectors.bin")
	ctx := context.Background()

	s := newTestStore(t)
	err := s.Upsert(ctx, []Entry{
		entry("a_0", []float32{1, 0, 0}, "first chunk", "https://a", 0),
		entry("a_1", []float32{0, 1, 0}, "second chunk", "https://a", 1),
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := s.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded := newTestStore(t)
	if err := loaded.Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}
	n, _ := loaded.Count(ctx)
	if n != 2 {
		t.Fatalf("Count = %d after Load, want 2", n)
	}
	results, err := loaded.Query(ctx, []float32{0, 1, 0}, 1)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if results[0].ID != "a_1" || results[0].Text != "second chunk" {
		t.Errorf("got %+v, want a_1/second chunk", results[0])
	}
	if results[0].Meta.SourceURL != "https://a" || results[0].Meta.ChunkIndex != 1 {
		t.Errorf("metadata not restored: %+v", results[0].Meta)
	}
}

func TestLoadMissingFile(t *testing.T) {
	s := newTestStore(t)
	if err := s.Load(filepath.Join(t.TempDir(), "nope.bin")); err != nil {
		t.Errorf("Load of missing file should be a no-op, got %v", err)
	}
}

func TestLoadDimensionMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vectors.bin")
	ctx := context.Background()

	s := newTestStore(t)
	if err := s.Upsert(ctx, []Entry{entry("a_0", []float32{1, 0, 0}, "x", "https://a", 0)}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := s.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	other, err := NewMemoryStore("test", 4)
	if err != nil {
		t.Fatalf("NewMemoryStore: %v", err)
	}
	if err := other.Load(path); err == nil {
		t.Error("expected dimension mismatch error")
	}
}
