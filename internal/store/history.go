package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const historyTable = "history"

// HistoryEntry is a finished generation.
type HistoryEntry struct {
	ID string `json:"id"`
	Generation
	Outputs   []string  `json:"outputs,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

const historyColumns = `id, model_id, prompt, negative_prompt, args_json, metadata_json, outputs_json, created_at`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// AddHistory records a finished generation and its output files.
func (s *Store) AddHistory(ctx context.Context, g Generation, outputs []string) (HistoryEntry, error) {
	e := HistoryEntry{ID: newID(), Generation: g, Outputs: outputs, CreatedAt: s.now().UTC()}
	if err := insertHistory(ctx, s.db, e); err != nil {
		return HistoryEntry{}, err
	}
	return e, nil
}

func insertHistory(ctx context.Context, db execer, e HistoryEntry) error {
	args, meta, err := encode(e.Generation)
	if err != nil {
		return err
	}
	var outputs sql.NullString
	if len(e.Outputs) > 0 {
		b, err := json.Marshal(e.Outputs)
		if err != nil {
			return fmt.Errorf("encode outputs: %w", err)
		}
		outputs = sql.NullString{String: string(b), Valid: true}
	}
	_, err = db.ExecContext(ctx,
		`INSERT INTO history (`+historyColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.ModelID, e.Prompt, e.NegativePrompt, args, meta, outputs, e.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("insert history entry: %w", err)
	}
	return nil
}

func scanHistory(row scanner) (HistoryEntry, error) {
	var (
		e       HistoryEntry
		args    string
		meta    sql.NullString
		outputs sql.NullString
		created int64
	)
	if err := row.Scan(&e.ID, &e.ModelID, &e.Prompt, &e.NegativePrompt, &args, &meta, &outputs, &created); err != nil {
		return HistoryEntry{}, err
	}
	if err := decode(&e.Generation, args, meta); err != nil {
		return HistoryEntry{}, fmt.Errorf("history entry %s: %w", e.ID, err)
	}
	if outputs.Valid && outputs.String != "" {
		if err := json.Unmarshal([]byte(outputs.String), &e.Outputs); err != nil {
			return HistoryEntry{}, fmt.Errorf("history entry %s: decode outputs: %w", e.ID, err)
		}
	}
	e.CreatedAt = time.Unix(0, created).UTC()
	return e, nil
}

// History returns one entry.
func (s *Store) History(ctx context.Context, id string) (HistoryEntry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+historyColumns+` FROM history WHERE id = ?`, id)
	e, err := scanHistory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return HistoryEntry{}, &NotFoundError{Table: historyTable, ID: id}
	}
	if err != nil {
		return HistoryEntry{}, fmt.Errorf("read history entry: %w", err)
	}
	return e, nil
}

// ListHistory returns entries newest first. A limit of zero or less returns
// every entry after offset.
func (s *Store) ListHistory(ctx context.Context, limit, offset int) ([]HistoryEntry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+historyColumns+` FROM history ORDER BY created_at DESC, rowid DESC LIMIT ? OFFSET ?`,
		limit, max(offset, 0))
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	var out []HistoryEntry
	for rows.Next() {
		e, err := scanHistory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return out, nil
}

// CountHistory returns the number of history entries.
func (s *Store) CountHistory(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM history`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count history: %w", err)
	}
	return n, nil
}

// DeleteHistory removes one entry.
func (s *Store) DeleteHistory(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM history WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete history entry: %w", err)
	}
	return affectedOne(res, historyTable, id)
}

func affectedOne(res sql.Result, table, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s %s: %w", table, id, err)
	}
	if n == 0 {
		return &NotFoundError{Table: table, ID: id}
	}
	return nil
}
