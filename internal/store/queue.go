package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const queueTable = "queue"

// Status is the lifecycle state of a queue item.
type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusFailed  Status = "failed"
)

// ParseStatus parses a status name.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusPending, StatusRunning, StatusFailed:
		return st, nil
	default:
		return "", fmt.Errorf("unknown queue status %q", s)
	}
}

// QueueItem is a generation waiting to run. Lower priorities run first.
type QueueItem struct {
	ID string `json:"id"`
	Generation
	Priority  int       `json:"priority"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

const queueColumns = `id, model_id, prompt, negative_prompt, args_json, metadata_json, priority, status, created_at`

func scanQueueItem(row scanner) (QueueItem, error) {
	var (
		it      QueueItem
		args    string
		meta    sql.NullString
		status  string
		created int64
	)
	if err := row.Scan(&it.ID, &it.ModelID, &it.Prompt, &it.NegativePrompt, &args, &meta, &it.Priority, &status, &created); err != nil {
		return QueueItem{}, err
	}
	it.Status = Status(status)
	if err := decode(&it.Generation, args, meta); err != nil {
		return QueueItem{}, fmt.Errorf("queue item %s: %w", it.ID, err)
	}
	it.CreatedAt = time.Unix(0, created).UTC()
	return it, nil
}

// Enqueue appends a pending item behind every existing one.
func (s *Store) Enqueue(ctx context.Context, g Generation) (QueueItem, error) {
	args, meta, err := encode(g)
	if err != nil {
		return QueueItem{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return QueueItem{}, fmt.Errorf("begin enqueue: %w", err)
	}
	defer tx.Rollback()

	var top int
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(priority), 0) FROM queue`).Scan(&top); err != nil {
		return QueueItem{}, fmt.Errorf("read queue priority: %w", err)
	}

	it := QueueItem{
		ID:         newID(),
		Generation: g,
		Priority:   top + 1,
		Status:     StatusPending,
		CreatedAt:  s.now().UTC(),
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO queue (`+queueColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		it.ID, it.ModelID, it.Prompt, it.NegativePrompt, args, meta, it.Priority, string(it.Status), it.CreatedAt.UnixNano())
	if err != nil {
		return QueueItem{}, fmt.Errorf("insert queue item: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return QueueItem{}, fmt.Errorf("commit enqueue: %w", err)
	}
	return it, nil
}

// Queue returns every item in run order.
func (s *Store) Queue(ctx context.Context) ([]QueueItem, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+queueColumns+` FROM queue ORDER BY priority, created_at`)
	if err != nil {
		return nil, fmt.Errorf("list queue: %w", err)
	}
	defer rows.Close()

	var out []QueueItem
	for rows.Next() {
		it, err := scanQueueItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list queue: %w", err)
	}
	return out, nil
}

// Item returns one queue item.
func (s *Store) Item(ctx context.Context, id string) (QueueItem, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+queueColumns+` FROM queue WHERE id = ?`, id)
	it, err := scanQueueItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return QueueItem{}, &NotFoundError{Table: queueTable, ID: id}
	}
	if err != nil {
		return QueueItem{}, fmt.Errorf("read queue item: %w", err)
	}
	return it, nil
}

// NextPending returns the pending item that runs next. ok is false when
// nothing is pending.
func (s *Store) NextPending(ctx context.Context) (it QueueItem, ok bool, err error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+queueColumns+` FROM queue WHERE status = ? ORDER BY priority, created_at LIMIT 1`, string(StatusPending))
	it, err = scanQueueItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return QueueItem{}, false, nil
	}
	if err != nil {
		return QueueItem{}, false, fmt.Errorf("read next queue item: %w", err)
	}
	return it, true, nil
}

// SetStatus changes the status of an item.
func (s *Store) SetStatus(ctx context.Context, id string, status Status) error {
	res, err := s.db.ExecContext(ctx, `UPDATE queue SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return fmt.Errorf("update queue item: %w", err)
	}
	return affectedOne(res, queueTable, id)
}

// Dequeue removes an item without recording it.
func (s *Store) Dequeue(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM queue WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete queue item: %w", err)
	}
	return affectedOne(res, queueTable, id)
}

// ClearQueue removes every item and returns how many were removed.
func (s *Store) ClearQueue(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM queue`)
	if err != nil {
		return 0, fmt.Errorf("clear queue: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("clear queue: %w", err)
	}
	return int(n), nil
}

// Reorder moves the listed items to the front of the queue in the given
// order. Unlisted items follow in their previous order. Priorities are
// renumbered from 1.
func (s *Store) Reorder(ctx context.Context, ids []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reorder: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `SELECT id FROM queue ORDER BY priority, created_at`)
	if err != nil {
		return fmt.Errorf("read queue order: %w", err)
	}
	var current []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return fmt.Errorf("read queue order: %w", err)
		}
		current = append(current, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("read queue order: %w", err)
	}

	known := make(map[string]bool, len(current))
	for _, id := range current {
		known[id] = true
	}
	listed := make(map[string]bool, len(ids))
	order := make([]string, 0, len(current))
	for _, id := range ids {
		if !known[id] {
			return &NotFoundError{Table: queueTable, ID: id}
		}
		if listed[id] {
			continue
		}
		listed[id] = true
		order = append(order, id)
	}
	for _, id := range current {
		if !listed[id] {
			order = append(order, id)
		}
	}

	for i, id := range order {
		if _, err := tx.ExecContext(ctx, `UPDATE queue SET priority = ? WHERE id = ?`, i+1, id); err != nil {
			return fmt.Errorf("update priority: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit reorder: %w", err)
	}
	return nil
}

// Complete moves an item to history with the files it produced.
func (s *Store) Complete(ctx context.Context, id string, outputs []string) (HistoryEntry, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return HistoryEntry{}, fmt.Errorf("begin complete: %w", err)
	}
	defer tx.Rollback()

	it, err := scanQueueItem(tx.QueryRowContext(ctx, `SELECT `+queueColumns+` FROM queue WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return HistoryEntry{}, &NotFoundError{Table: queueTable, ID: id}
	}
	if err != nil {
		return HistoryEntry{}, fmt.Errorf("read queue item: %w", err)
	}

	e := HistoryEntry{ID: newID(), Generation: it.Generation, Outputs: outputs, CreatedAt: s.now().UTC()}
	if err := insertHistory(ctx, tx, e); err != nil {
		return HistoryEntry{}, err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM queue WHERE id = ?`, id); err != nil {
		return HistoryEntry{}, fmt.Errorf("delete queue item: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return HistoryEntry{}, fmt.Errorf("commit complete: %w", err)
	}
	return e, nil
}

// ResetRunning returns items left running by a process that died to pending
// and reports how many were reset.
func (s *Store) ResetRunning(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE queue SET status = ? WHERE status = ?`, string(StatusPending), string(StatusRunning))
	if err != nil {
		return 0, fmt.Errorf("reset running queue items: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reset running queue items: %w", err)
	}
	return int(n), nil
}
