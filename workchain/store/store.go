// Package store provides NodeStore implementations backing a
// workchain.WorkChain's process lookups: an in-memory map for tests and
// single-process use, and SQL-backed stores (SQLite, MySQL) for anything
// that needs to survive a restart.
package store

import (
	"fmt"
	"sync"

	"github.com/dshills/workchain-go/workchain"
)

// Record is the serializable shape a SQL-backed store persists a node as:
// its own value payload plus the pks of its outgoing links, keyed by link
// label.
type Record struct {
	PK      string
	Value   map[string]interface{}
	Outputs map[string]string // link_label -> target pk
}

// node adapts a Record plus a resolver for its linked records into a
// workchain.Node.
type node struct {
	pk      string
	value   map[string]interface{}
	outputs map[string]string
	resolve func(pk string) (workchain.Node, error)
	stored  *bool
}

func (n *node) PK() string { return n.pk }

func (n *node) Store() error {
	if n.stored != nil {
		*n.stored = true
	}
	return nil
}

func (n *node) Outgoing() map[string]workchain.Node {
	out := make(map[string]workchain.Node, len(n.outputs))
	for label, pk := range n.outputs {
		if resolved, err := n.resolve(pk); err == nil {
			out[label] = resolved
		}
	}
	return out
}

// Value exposes the node's own payload, e.g. the {"text": ...} map a
// launch.ChatProcess stores.
func (n *node) Value() map[string]interface{} { return n.value }

var errNotFound = fmt.Errorf("store: record not found: %w", workchain.ErrNodeNotExistent)

// MemoryStore is a thread-safe in-memory NodeStore, grounded on the
// teacher's MemStore[S] (graph/store/memory.go): a guarded map with no
// persistence across process restarts, suitable for tests and
// short-lived runs.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

// Put registers or overwrites a record by pk.
func (s *MemoryStore) Put(rec Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.PK] = rec
}

// Load implements workchain.NodeStore.
func (s *MemoryStore) Load(pk string) (workchain.Node, error) {
	s.mu.RLock()
	rec, ok := s.records[pk]
	s.mu.RUnlock()
	if !ok {
		return nil, errNotFound
	}
	return &node{
		pk:      rec.PK,
		value:   rec.Value,
		outputs: rec.Outputs,
		resolve: s.Load,
	}, nil
}
