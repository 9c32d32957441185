package domain

import "time"

// Reserved folder ids used by Chromium-style bookmark stores.
// They are never user content: never reported empty, never removable.
const (
	RootFolderID      = "0"
	BookmarksBarID    = "1"
	OtherBookmarksID  = "2"
	MobileBookmarksID = "3"
)

// UntitledFolder is used in paths for folders without a title.
const UntitledFolder = "Untitled folder"

// Node is one entry of a bookmark tree.
// A node with a URL is a bookmark, any other node is a folder.
type Node struct {
	// ─────────────────────────────
	// Identity (stable across reloads)
	// ─────────────────────────────

	// ID is the store-assigned identifier.
	ID string `json:"id"`

	// Title is the display name of the bookmark or folder.
	Title string `json:"title"`

	// ─────────────────────────────
	// Bookmark payload
	// ─────────────────────────────

	// URL is empty for folders.
	URL string `json:"url,omitempty"`

	// DateAdded is the creation time reported by the store.
	DateAdded time.Time `json:"dateAdded,omitempty"`

	// ─────────────────────────────
	// Folder payload
	// ─────────────────────────────

	// Children are kept in their stored order.
	Children []*Node `json:"children,omitempty"`
}

// IsBookmark reports whether the node carries a URL.
func (n *Node) IsBookmark() bool {
	return n != nil && n.URL != ""
}

// Clone returns a deep copy of the subtree rooted at n.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := *n
	if n.Children != nil {
		c.Children = make([]*Node, len(n.Children))
		for i, child := range n.Children {
			c.Children[i] = child.Clone()
		}
	}
	return &c
}

// BookmarkEntry is a read-only snapshot of one bookmark taken at scan start.
type BookmarkEntry struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	Path      []string  `json:"path"`
	DateAdded time.Time `json:"dateAdded,omitempty"`
}

// EmptyFolder is a folder with no bookmark anywhere below it.
type EmptyFolder struct {
	ID    string   `json:"id"`
	Title string   `json:"title"`
	Path  []string `json:"path"`
}

// IsReservedFolder reports whether id is one of the system folders.
func IsReservedFolder(id string) bool {
	switch id {
	case RootFolderID, BookmarksBarID, OtherBookmarksID, MobileBookmarksID:
		return true
	default:
		return false
	}
}

// FolderPath returns path extended with the folder's display title.
func FolderPath(path []string, folder *Node) []string {
	title := folder.Title
	if title == "" {
		title = UntitledFolder
	}
	out := make([]string, 0, len(path)+1)
	out = append(out, path...)
	return append(out, title)
}

// CountCheckable returns the number of bookmarks below n that need a live probe.
func CountCheckable(n *Node) int {
	if n == nil {
		return 0
	}
	count := 0
	for _, child := range n.Children {
		if child.IsBookmark() {
			if IsCheckable(child.URL) {
				count++
			}
			continue
		}
		count += CountCheckable(child)
	}
	return count
}

// Flatten lists every bookmark below n in depth-first order.
// Paths only contain titled folders.
func Flatten(n *Node) []BookmarkEntry {
	var out []BookmarkEntry
	flatten(n, nil, &out)
	return out
}

func flatten(n *Node, path []string, out *[]BookmarkEntry) {
	if n == nil {
		return
	}
	if n.IsBookmark() {
		*out = append(*out, BookmarkEntry{
			ID:        n.ID,
			Title:     n.Title,
			URL:       n.URL,
			Path:      append([]string(nil), path...),
			DateAdded: n.DateAdded,
		})
		return
	}
	next := path
	if n.Title != "" {
		next = append(append([]string(nil), path...), n.Title)
	}
	for _, child := range n.Children {
		flatten(child, next, out)
	}
}
