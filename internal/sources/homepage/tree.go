package homepage

import (
	"sort"

	"github.com/MrSnakeDoc/deadmark/internal/domain"
)

// Homepage has no folder hierarchy of its own: every group becomes a folder
// under the bookmarks bar.
func newRoot() (*domain.Node, *domain.Node) {
	root, bar, _ := domain.NewTree()
	return root, bar
}

func newFolder(name string) *domain.Node {
	return &domain.Node{
		ID:       generateID("folder", name),
		Title:    name,
		Children: []*domain.Node{},
	}
}

func generateID(parts ...string) string {
	return domain.StableID(parts...)
}

// sortedKeys makes map iteration deterministic
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
