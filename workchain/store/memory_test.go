package store

import "testing"

func TestMemoryStorePutLoad(t *testing.T) {
	s := NewMemoryStore()
	s.Put(Record{PK: "a", Value: map[string]interface{}{"x": 1}})

	node, err := s.Load("a")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if node.PK() != "a" {
		t.Errorf("expected PK a, got %q", node.PK())
	}
}

func TestMemoryStoreLoadMissingReturnsError(t *testing.T) {
	s := NewMemoryStore()
	if _, err := s.Load("missing"); err == nil {
		t.Fatalf("expected an error loading a missing pk")
	}
}

func TestMemoryStoreOutgoingResolvesLinkedRecords(t *testing.T) {
	s := NewMemoryStore()
	s.Put(Record{PK: "energy", Value: map[string]interface{}{"value": 42}})
	s.Put(Record{PK: "calc", Value: map[string]interface{}{}, Outputs: map[string]string{"energy": "energy"}})

	node, err := s.Load("calc")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	links := node.Outgoing()
	if len(links) != 1 {
		t.Fatalf("expected 1 link, got %d", len(links))
	}
	if links["energy"].PK() != "energy" {
		t.Errorf("expected link energy to resolve to pk energy, got %q", links["energy"].PK())
	}
}

func TestMemoryStoreOutgoingSkipsUnresolvableLinks(t *testing.T) {
	s := NewMemoryStore()
	s.Put(Record{PK: "calc", Value: map[string]interface{}{}, Outputs: map[string]string{"missing": "does-not-exist"}})

	node, _ := s.Load("calc")
	links := node.Outgoing()
	if len(links) != 0 {
		t.Errorf("expected unresolvable links to be skipped, got %v", links)
	}
}

func TestMemoryStorePutOverwritesExistingRecord(t *testing.T) {
	s := NewMemoryStore()
	s.Put(Record{PK: "a", Value: map[string]interface{}{"x": 1}})
	s.Put(Record{PK: "a", Value: map[string]interface{}{"x": 2}})

	loaded, err := s.Load("a")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	n, ok := loaded.(*node)
	if !ok {
		t.Fatalf("expected *node, got %T", loaded)
	}
	if n.Value()["x"] != 2 {
		t.Errorf("expected overwritten value x=2, got %v", n.Value()["x"])
	}
}
