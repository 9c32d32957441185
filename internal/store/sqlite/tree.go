package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/MrSnakeDoc/deadmark/internal/domain"
)

// SaveTree stores the bookmark tree so a restart can serve it before the
// first reload.
func (s *Store) SaveTree(ctx context.Context, root *domain.Node) error {
	data, err := json.Marshal(root)
	if err != nil {
		return fmt.Errorf("failed to marshal tree: %w", err)
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO trees (id, body, updated_at) VALUES (1, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`,
		string(data), s.now().UnixMilli(),
	); err != nil {
		return fmt.Errorf("failed to save tree: %w", err)
	}
	return nil
}

// GetTree returns the stored bookmark tree, or nil when none was saved.
func (s *Store) GetTree(ctx context.Context) (*domain.Node, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM trees WHERE id = 1`).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tree: %w", err)
	}

	var root domain.Node
	if err := json.Unmarshal([]byte(body), &root); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tree: %w", err)
	}
	return &root, nil
}
