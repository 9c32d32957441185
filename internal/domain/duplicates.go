package domain

import (
	"sort"
	"strings"
)

// DuplicateGroup is a set of bookmarks sharing the same URL.
type DuplicateGroup struct {
	URL       string          `json:"url"`
	Bookmarks []BookmarkEntry `json:"bookmarks"`
}

// FindDuplicates groups bookmarks by their exact (trimmed) URL and keeps
// groups with more than one member, largest first. Groups of equal size keep
// the order in which their URL was first seen.
func FindDuplicates(entries []BookmarkEntry) []DuplicateGroup {
	byURL := make(map[string]int, len(entries))
	var groups []DuplicateGroup

	for _, e := range entries {
		key := strings.TrimSpace(e.URL)
		i, ok := byURL[key]
		if !ok {
			i = len(groups)
			byURL[key] = i
			groups = append(groups, DuplicateGroup{URL: key})
		}
		groups[i].Bookmarks = append(groups[i].Bookmarks, e)
	}

	out := make([]DuplicateGroup, 0, len(groups))
	for _, g := range groups {
		if len(g.Bookmarks) > 1 {
			out = append(out, g)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return len(out[i].Bookmarks) > len(out[j].Bookmarks)
	})
	return out
}

// DuplicateBookmarkCount sums the members of all groups.
func DuplicateBookmarkCount(groups []DuplicateGroup) int {
	total := 0
	for _, g := range groups {
		total += len(g.Bookmarks)
	}
	return total
}
