package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/dshills/workchain-go/workchain"
	_ "modernc.org/sqlite"
)

// SQLiteStore is a SQLite-backed NodeStore, adapted from the teacher's
// SQLiteStore[S] (graph/store/sqlite.go): same WAL-mode, single-writer,
// migrate-on-open shape, repurposed from persisting arbitrary workflow
// state to persisting nodes (value payload + outgoing link table).
type SQLiteStore struct {
	db   *sql.DB
	mu   sync.RWMutex
	path string
}

// NewSQLiteStore opens (creating if absent) a SQLite database at path and
// ensures its schema exists.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite connection: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx := context.Background()
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply %q: %w", pragma, err)
		}
	}

	s := &SQLiteStore{db: db, path: path}
	if err := s.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) createTables(ctx context.Context) error {
	nodesTable := `
		CREATE TABLE IF NOT EXISTS nodes (
			pk TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`
	if _, err := s.db.ExecContext(ctx, nodesTable); err != nil {
		return fmt.Errorf("create nodes table: %w", err)
	}

	linksTable := `
		CREATE TABLE IF NOT EXISTS node_links (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			owner_pk TEXT NOT NULL,
			link_label TEXT NOT NULL,
			target_pk TEXT NOT NULL,
			UNIQUE(owner_pk, link_label),
			FOREIGN KEY(owner_pk) REFERENCES nodes(pk)
		)
	`
	if _, err := s.db.ExecContext(ctx, linksTable); err != nil {
		return fmt.Errorf("create node_links table: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "CREATE INDEX IF NOT EXISTS idx_links_owner ON node_links(owner_pk)"); err != nil {
		return fmt.Errorf("create idx_links_owner: %w", err)
	}
	return nil
}

// Close releases the underlying connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Put upserts a node record and its outgoing links within one transaction.
func (s *SQLiteStore) Put(ctx context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := json.Marshal(rec.Value)
	if err != nil {
		return fmt.Errorf("marshal node value: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO nodes(pk, value) VALUES (?, ?)
		 ON CONFLICT(pk) DO UPDATE SET value = excluded.value`,
		rec.PK, string(payload)); err != nil {
		return fmt.Errorf("upsert node: %w", err)
	}

	for label, targetPK := range rec.Outputs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO node_links(owner_pk, link_label, target_pk) VALUES (?, ?, ?)
			 ON CONFLICT(owner_pk, link_label) DO UPDATE SET target_pk = excluded.target_pk`,
			rec.PK, label, targetPK); err != nil {
			return fmt.Errorf("upsert node link %q: %w", label, err)
		}
	}

	return tx.Commit()
}

// Load implements workchain.NodeStore.
func (s *SQLiteStore) Load(pk string) (workchain.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var payload string
	err := s.db.QueryRow(`SELECT value FROM nodes WHERE pk = ?`, pk).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, errNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load node %q: %w", pk, err)
	}

	var value map[string]interface{}
	if err := json.Unmarshal([]byte(payload), &value); err != nil {
		return nil, fmt.Errorf("unmarshal node %q: %w", pk, err)
	}

	rows, err := s.db.Query(`SELECT link_label, target_pk FROM node_links WHERE owner_pk = ?`, pk)
	if err != nil {
		return nil, fmt.Errorf("load node links %q: %w", pk, err)
	}
	defer rows.Close()

	outputs := make(map[string]string)
	for rows.Next() {
		var label, target string
		if err := rows.Scan(&label, &target); err != nil {
			return nil, fmt.Errorf("scan node link %q: %w", pk, err)
		}
		outputs[label] = target
	}

	return &node{pk: pk, value: value, outputs: outputs, resolve: s.Load}, nil
}
