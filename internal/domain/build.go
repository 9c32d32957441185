package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// StableID derives an id from the parts that identify an entry, so sources
// without ids of their own keep them across reloads.
func StableID(parts ...string) string {
	hash := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	// 16 hex chars are plenty for a single file
	return hex.EncodeToString(hash[:])[:16]
}

// NewTree returns an empty root holding the bookmarks bar and the other
// bookmarks folder.
func NewTree() (root, bar, other *Node) {
	bar = &Node{ID: BookmarksBarID, Title: "Bookmarks bar", Children: []*Node{}}
	other = &Node{ID: OtherBookmarksID, Title: "Other bookmarks", Children: []*Node{}}
	root = &Node{ID: RootFolderID, Children: []*Node{bar, other}}
	return root, bar, other
}
