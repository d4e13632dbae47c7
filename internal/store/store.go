// Package store persists generation history and the pending task queue in a
// SQLite database.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/MateusGPe/sdcpp-gui-sub001/internal/request"
)

// Generation is the stored form of one compiled request.
type Generation struct {
	ModelID        string            `json:"model_id"`
	Prompt         string            `json:"prompt"`
	NegativePrompt string            `json:"negative_prompt,omitempty"`
	Args           []request.Arg     `json:"args"`
	Metadata       *request.Metadata `json:"metadata,omitempty"`
}

const schema = `
CREATE TABLE IF NOT EXISTS history (
	id TEXT PRIMARY KEY,
	model_id TEXT NOT NULL,
	prompt TEXT NOT NULL,
	negative_prompt TEXT NOT NULL DEFAULT '',
	args_json TEXT NOT NULL,
	metadata_json TEXT,
	outputs_json TEXT,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_history_created ON history(created_at);

CREATE TABLE IF NOT EXISTS queue (
	id TEXT PRIMARY KEY,
	model_id TEXT NOT NULL,
	prompt TEXT NOT NULL,
	negative_prompt TEXT NOT NULL DEFAULT '',
	args_json TEXT NOT NULL,
	metadata_json TEXT,
	priority INTEGER NOT NULL,
	status TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_queue_priority ON queue(priority);
`

// Store is a handle on the database. It is safe for concurrent use.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// Open opens or creates the database at path, creating parent directories
// as needed.
func Open(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One connection serializes writers; SQLite allows a single writer anyway.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, path: path, now: time.Now}
	if err := s.init(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		return fmt.Errorf("configure database: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("initialize schema: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

func newID() string {
	return uuid.NewString()
}

// encode marshals the JSON columns of g.
func encode(g Generation) (args string, meta sql.NullString, err error) {
	if g.Args == nil {
		g.Args = []request.Arg{}
	}
	b, err := json.Marshal(g.Args)
	if err != nil {
		return "", meta, fmt.Errorf("encode args: %w", err)
	}
	if g.Metadata != nil {
		m, err := json.Marshal(g.Metadata)
		if err != nil {
			return "", meta, fmt.Errorf("encode metadata: %w", err)
		}
		meta = sql.NullString{String: string(m), Valid: true}
	}
	return string(b), meta, nil
}

// decode fills the JSON fields of g. Argument values come back as JSON
// types: numbers are float64.
func decode(g *Generation, args string, meta sql.NullString) error {
	if err := json.Unmarshal([]byte(args), &g.Args); err != nil {
		return fmt.Errorf("decode args: %w", err)
	}
	if meta.Valid && meta.String != "" {
		g.Metadata = &request.Metadata{}
		if err := json.Unmarshal([]byte(meta.String), g.Metadata); err != nil {
			return fmt.Errorf("decode metadata: %w", err)
		}
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}
