package store

import (
	"context"
	"fmt"
	"strings"
)

// idQueries maps the tables that accept prefix lookup to their queries.
var idQueries = map[string]string{
	historyTable: `SELECT id FROM history WHERE id LIKE ? ESCAPE '\' ORDER BY id LIMIT 2`,
	queueTable:   `SELECT id FROM queue WHERE id LIKE ? ESCAPE '\' ORDER BY id LIMIT 2`,
}

// ResolveHistoryID expands a unique prefix of a history entry id.
func (s *Store) ResolveHistoryID(ctx context.Context, prefix string) (string, error) {
	return s.resolveID(ctx, historyTable, prefix)
}

// ResolveQueueID expands a unique prefix of a queue item id.
func (s *Store) ResolveQueueID(ctx context.Context, prefix string) (string, error) {
	return s.resolveID(ctx, queueTable, prefix)
}

func (s *Store) resolveID(ctx context.Context, table, prefix string) (string, error) {
	if prefix == "" {
		return "", &NotFoundError{Table: table, ID: prefix}
	}
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(prefix)
	rows, err := s.db.QueryContext(ctx, idQueries[table], escaped+"%")
	if err != nil {
		return "", fmt.Errorf("resolve %s id: %w", table, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", fmt.Errorf("resolve %s id: %w", table, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("resolve %s id: %w", table, err)
	}

	switch {
	case len(ids) == 0:
		return "", &NotFoundError{Table: table, ID: prefix}
	case len(ids) > 1 && ids[0] != prefix:
		return "", &AmbiguousIDError{Table: table, Prefix: prefix}
	}
	return ids[0], nil
}

// HistoryIDs returns up to limit history ids, newest first.
func (s *Store) HistoryIDs(ctx context.Context, limit int) ([]string, error) {
	return s.ids(ctx, `SELECT id FROM history ORDER BY created_at DESC LIMIT ?`, limit)
}

// QueueIDs returns every queue item id in run order.
func (s *Store) QueueIDs(ctx context.Context) ([]string, error) {
	return s.ids(ctx, `SELECT id FROM queue ORDER BY priority, created_at LIMIT ?`, -1)
}

func (s *Store) ids(ctx context.Context, query string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("list ids: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
