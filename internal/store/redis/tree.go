package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/MrSnakeDoc/deadmark/internal/domain"
	"github.com/redis/go-redis/v9"
)

// SaveTree stores the bookmark tree so a restart can serve it before the
// first reload
func (s *Store) SaveTree(ctx context.Context, root *domain.Node) error {
	data, err := json.Marshal(root)
	if err != nil {
		return fmt.Errorf("failed to marshal tree: %w", err)
	}
	if err := s.client.Set(ctx, KeyTree, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save tree: %w", err)
	}
	return nil
}

// GetTree returns the stored bookmark tree, or nil when none was saved
func (s *Store) GetTree(ctx context.Context) (*domain.Node, error) {
	data, err := s.client.Get(ctx, KeyTree).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get tree: %w", err)
	}

	var root domain.Node
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tree: %w", err)
	}
	return &root, nil
}
