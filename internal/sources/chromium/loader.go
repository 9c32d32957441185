package chromium

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/MrSnakeDoc/deadmark/internal/domain"
)

const (
	typeURL    = "url"
	typeFolder = "folder"
)

// webkitEpochOffset is the number of seconds between 1601-01-01 and 1970-01-01
const webkitEpochOffset = 11644473600

// Loader reads a Chromium profile "Bookmarks" file
type Loader struct {
	filePath string
}

// NewLoader creates a new Chromium bookmarks loader
func NewLoader(filePath string) *Loader {
	return &Loader{
		filePath: filePath,
	}
}

// Load reads and parses the bookmarks file
func (l *Loader) Load() (*File, error) {
	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read bookmarks file: %w", err)
	}

	var file File
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse bookmarks json: %w", err)
	}

	return &file, nil
}

// LoadTree reads the file and maps it to a bookmark tree
func (l *Loader) LoadTree() (*domain.Node, error) {
	file, err := l.Load()
	if err != nil {
		return nil, err
	}
	return MapTree(file)
}

// MapTree converts the permanent folders to children of the root folder.
// They always get the reserved ids whatever the file says.
func MapTree(file *File) (*domain.Node, error) {
	if file == nil {
		return nil, fmt.Errorf("no bookmarks file")
	}

	roots := []struct {
		id    string
		title string
		entry *Entry
	}{
		{domain.BookmarksBarID, "Bookmarks bar", file.Roots.BookmarkBar},
		{domain.OtherBookmarksID, "Other bookmarks", file.Roots.Other},
		{domain.MobileBookmarksID, "Mobile bookmarks", file.Roots.Synced},
	}

	root := &domain.Node{ID: domain.RootFolderID, Children: []*domain.Node{}}
	for _, r := range roots {
		if r.entry == nil {
			continue
		}
		node := mapEntry(r.entry)
		node.ID = r.id
		if node.Title == "" {
			node.Title = r.title
		}
		root.Children = append(root.Children, node)
	}

	if len(root.Children) == 0 {
		return nil, fmt.Errorf("bookmarks file has no roots")
	}
	return root, nil
}

func mapEntry(e *Entry) *domain.Node {
	node := &domain.Node{
		ID:        e.ID,
		Title:     e.Name,
		DateAdded: ParseWebKitTime(e.DateAdded),
	}

	if e.Type == typeURL {
		node.URL = e.URL
		return node
	}

	node.Children = make([]*domain.Node, 0, len(e.Children))
	for _, child := range e.Children {
		if child.Type != typeURL && child.Type != typeFolder {
			continue
		}
		node.Children = append(node.Children, mapEntry(child))
	}
	return node
}

// ParseWebKitTime converts microseconds since 1601-01-01 UTC to a time.
// Empty, zero or malformed values give the zero time.
func ParseWebKitTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	us, err := strconv.ParseInt(s, 10, 64)
	if err != nil || us <= 0 {
		return time.Time{}
	}
	sec := us/1_000_000 - webkitEpochOffset
	nsec := (us % 1_000_000) * int64(time.Microsecond)
	return time.Unix(sec, nsec).UTC()
}
