package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/dshills/workchain-go/workchain"
	_ "github.com/go-sql-driver/mysql"
)

// MySQLStore is a MySQL/MariaDB-backed NodeStore for production
// deployments that need node persistence to survive a process restart
// and be shared across workers, adapted from the teacher's
// MySQLStore[S] (graph/store/mysql.go): same pooled-connection,
// migrate-on-open shape, repurposed to a nodes+node_links schema.
type MySQLStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewMySQLStore opens a pooled connection to dsn and ensures its schema
// exists. dsn follows the go-sql-driver/mysql DSN format; callers should
// source it from the environment rather than hardcoding credentials.
func NewMySQLStore(dsn string) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open mysql connection: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}

	s := &MySQLStore{db: db}
	if err := s.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return s, nil
}

func (s *MySQLStore) createTables(ctx context.Context) error {
	nodesTable := `
		CREATE TABLE IF NOT EXISTS nodes (
			pk VARCHAR(255) PRIMARY KEY,
			value JSON NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci
	`
	if _, err := s.db.ExecContext(ctx, nodesTable); err != nil {
		return fmt.Errorf("create nodes table: %w", err)
	}

	linksTable := `
		CREATE TABLE IF NOT EXISTS node_links (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			owner_pk VARCHAR(255) NOT NULL,
			link_label VARCHAR(255) NOT NULL,
			target_pk VARCHAR(255) NOT NULL,
			INDEX idx_links_owner (owner_pk),
			UNIQUE KEY unique_owner_label (owner_pk, link_label)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci
	`
	if _, err := s.db.ExecContext(ctx, linksTable); err != nil {
		return fmt.Errorf("create node_links table: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *MySQLStore) Close() error {
	return s.db.Close()
}

// Put upserts a node record and its outgoing links within one transaction.
func (s *MySQLStore) Put(ctx context.Context, rec Record) error {
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
		`INSERT INTO nodes (pk, value) VALUES (?, ?)
		 ON DUPLICATE KEY UPDATE value = VALUES(value)`,
		rec.PK, string(payload)); err != nil {
		return fmt.Errorf("upsert node: %w", err)
	}

	for label, targetPK := range rec.Outputs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO node_links (owner_pk, link_label, target_pk) VALUES (?, ?, ?)
			 ON DUPLICATE KEY UPDATE target_pk = VALUES(target_pk)`,
			rec.PK, label, targetPK); err != nil {
			return fmt.Errorf("upsert node link %q: %w", label, err)
		}
	}

	return tx.Commit()
}

// Load implements workchain.NodeStore.
func (s *MySQLStore) Load(pk string) (workchain.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM nodes WHERE pk = ?`, pk).Scan(&payload)
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

	rows, err := s.db.QueryContext(ctx, `SELECT link_label, target_pk FROM node_links WHERE owner_pk = ?`, pk)
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
