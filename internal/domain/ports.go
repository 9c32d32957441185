package domain

import (
	"context"
	"time"
)

// BookmarkStore exposes the bookmark tree the scanner works on.
type BookmarkStore interface {
	// GetTree returns a snapshot of the whole tree rooted at the root folder.
	GetTree(ctx context.Context) (*Node, error)
	// Remove deletes a bookmark or folder by id.
	Remove(ctx context.Context, id string) error
}

// Settings holds the user-tunable scan settings.
type Settings interface {
	CurrentTimeout(ctx context.Context) (time.Duration, error)
	SetTimeout(ctx context.Context, timeout time.Duration) (time.Duration, error)
	IsFirstScan(ctx context.Context) (bool, error)
	MarkScanned(ctx context.Context) error
}
