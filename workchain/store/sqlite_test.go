package store

import (
	"context"
	"testing"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	return store
}

func TestSQLiteStorePutLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLiteStore(t)
	defer s.Close()

	for _, target := range []string{"node-e", "node-f"} {
		if err := s.Put(ctx, Record{PK: target, Value: map[string]interface{}{}}); err != nil {
			t.Fatalf("Put %s failed: %v", target, err)
		}
	}
	rec := Record{
		PK:      "calc-1",
		Value:   map[string]interface{}{"status": "ok"},
		Outputs: map[string]string{"energy": "node-e", "forces": "node-f"},
	}
	if err := s.Put(ctx, rec); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	node, err := s.Load("calc-1")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if node.PK() != "calc-1" {
		t.Errorf("expected pk calc-1, got %q", node.PK())
	}

	links := node.Outgoing()
	if len(links) != 2 {
		t.Fatalf("expected 2 outgoing links, got %d", len(links))
	}
	if links["energy"].PK() != "node-e" {
		t.Errorf("expected energy link -> node-e, got %q", links["energy"].PK())
	}
}

func TestSQLiteStorePutUpsertsExistingRecord(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLiteStore(t)
	defer s.Close()

	if err := s.Put(ctx, Record{PK: "a", Value: map[string]interface{}{"x": 1}}); err != nil {
		t.Fatalf("first Put failed: %v", err)
	}
	if err := s.Put(ctx, Record{PK: "a", Value: map[string]interface{}{"x": 2}}); err != nil {
		t.Fatalf("second Put failed: %v", err)
	}

	loaded, err := s.Load("a")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	n := loaded.(*node)
	if n.Value()["x"] != float64(2) {
		t.Errorf("expected upserted value x=2, got %v", n.Value()["x"])
	}
}

func TestSQLiteStoreLoadMissingReturnsError(t *testing.T) {
	s := newTestSQLiteStore(t)
	defer s.Close()

	if _, err := s.Load("missing"); err == nil {
		t.Fatalf("expected an error loading a missing pk")
	}
}
