package index

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/MrSnakeDoc/deadmark/internal/domain"
)

var (
	// ErrNotFound is returned when no node carries the requested id
	ErrNotFound = errors.New("bookmark not found")
	// ErrReserved is returned when removing one of the system folders
	ErrReserved = errors.New("reserved folder cannot be removed")
	// ErrNoTree is returned before the first tree was loaded
	ErrNoTree = errors.New("no bookmark tree loaded")
)

// MemoryStore holds the current bookmark tree in memory
// It is the BookmarkStore the scanner and the HTTP API work on
type MemoryStore struct {
	mu         sync.RWMutex
	root       *domain.Node
	bookmarks  int       // number of bookmark nodes in root
	lastReload time.Time // timestamp of last Replace
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Replace swaps the whole tree
func (m *MemoryStore) Replace(root *domain.Node) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.root = root.Clone()
	m.bookmarks = len(domain.Flatten(m.root))
	m.lastReload = time.Now()
}

// GetTree returns a deep copy of the tree so callers can walk it while the
// store keeps changing
func (m *MemoryStore) GetTree(context.Context) (*domain.Node, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.root == nil {
		return nil, ErrNoTree
	}
	return m.root.Clone(), nil
}

// Remove deletes a bookmark or a folder with everything below it
func (m *MemoryStore) Remove(_ context.Context, id string) error {
	if domain.IsReservedFolder(id) {
		return fmt.Errorf("%w: %s", ErrReserved, id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.root == nil || !removeChild(m.root, id) {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	m.bookmarks = len(domain.Flatten(m.root))
	return nil
}

func removeChild(parent *domain.Node, id string) bool {
	for i, child := range parent.Children {
		if child.ID == id {
			parent.Children = append(parent.Children[:i:i], parent.Children[i+1:]...)
			return true
		}
		if !child.IsBookmark() && removeChild(child, id) {
			return true
		}
	}
	return false
}

// Loaded reports whether a tree was loaded
func (m *MemoryStore) Loaded() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.root != nil
}

// Count returns the number of bookmarks in the tree
func (m *MemoryStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.bookmarks
}

// GetLastReload returns the timestamp of the last Replace
func (m *MemoryStore) GetLastReload() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.lastReload
}
