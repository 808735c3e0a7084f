package storage

import (
	"context"
	"fmt"

	"github.com/raine/skybet/internal/history"
)

// History returns a history.Store backed by the history_tokens table.
func (s *SQLiteStore) History() history.Store {
	return &sqliteHistory{s: s}
}

// sqliteHistory keeps tokens as (position, token) rows.
type sqliteHistory struct {
	s *SQLiteStore
}

func (h *sqliteHistory) Read(ctx context.Context) ([]string, error) {
	h.s.mu.RLock()
	defer h.s.mu.RUnlock()

	rows, err := h.s.db.QueryContext(ctx, "SELECT token FROM history_tokens ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	values := []string{}
	for rows.Next() {
		var token string
		if err := rows.Scan(&token); err != nil {
			return nil, fmt.Errorf("failed to scan history token: %w", err)
		}
		values = append(values, token)
	}
	return values, rows.Err()
}

// Write replaces the table contents in one transaction so a failed write leaves
// the previous list intact.
func (h *sqliteHistory) Write(ctx context.Context, values []string) error {
	h.s.mu.Lock()
	defer h.s.mu.Unlock()

	tx, err := h.s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin history write: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM history_tokens"); err != nil {
		return fmt.Errorf("failed to reset history: %w", err)
	}
	insert, err := tx.PrepareContext(ctx, "INSERT INTO history_tokens (position, token) VALUES (?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare history insert: %w", err)
	}
	defer insert.Close()

	for i, v := range values {
		if _, err := insert.ExecContext(ctx, i, v); err != nil {
			return fmt.Errorf("failed to insert history token %q: %w", v, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit history: %w", err)
	}
	return nil
}

func (h *sqliteHistory) Clear(ctx context.Context) error {
	return h.Write(ctx, nil)
}
