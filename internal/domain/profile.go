package domain

import (
	"math"
	"sort"
	"strings"
	"time"
)

// Profile is an aggregate view of a bookmark collection.
type Profile struct {
	TotalBookmarks int `json:"total_bookmarks"`
	TotalFolders   int `json:"total_folders"`
	MaxDepth       int `json:"max_depth"`
	EmptyFolders   int `json:"empty_folders"`

	LargestFolder FolderSize    `json:"largest_folder"`
	TopDomains    []DomainCount `json:"top_domains"`
	UniqueDomains int           `json:"unique_domains"`

	HTTPCount  int `json:"http_count"`
	HTTPSCount int `json:"https_count"`
	HTTPSRatio int `json:"https_ratio"` // percent, 0-100

	Oldest       *BookmarkEntry `json:"oldest,omitempty"`
	Newest       *BookmarkEntry `json:"newest,omitempty"`
	DurationDays int            `json:"duration_days"`
	PeakDate     string         `json:"peak_date,omitempty"`
	PeakCount    int            `json:"peak_count"`

	DuplicateURLs    int     `json:"duplicate_urls"`
	DuplicatePercent float64 `json:"duplicate_percent"`
	AvgPerFolder     float64 `json:"avg_per_folder"`
}

// FolderSize names a folder and its direct bookmark count.
type FolderSize struct {
	Title string `json:"title"`
	Count int    `json:"count"`
}

// DomainCount is the number of bookmarks pointing at a host.
type DomainCount struct {
	Domain string `json:"domain"`
	Count  int    `json:"count"`
}

// DefaultTopDomains is the number of hosts kept in Profile.TopDomains.
const DefaultTopDomains = 5

type profileBuilder struct {
	p        Profile
	now      time.Time
	domains  map[string]int
	byDate   map[string]int
	normURLs map[string]int
}

// BuildProfile walks the tree once and computes the collection statistics.
// Bookmarks with special protocols are ignored. now is used for bookmarks
// without a creation date.
func BuildProfile(root *Node, now time.Time) Profile {
	b := &profileBuilder{
		now:      now,
		domains:  make(map[string]int),
		byDate:   make(map[string]int),
		normURLs: make(map[string]int),
	}
	b.p.TotalBookmarks = CountCheckable(root)
	b.walk(root, 0)
	b.finish()
	return b.p
}

func (b *profileBuilder) walk(n *Node, depth int) {
	if n == nil {
		return
	}
	if n.IsBookmark() {
		b.bookmark(n)
		return
	}

	if n.ID != "" && !IsReservedFolder(n.ID) {
		b.p.TotalFolders++
		if depth > b.p.MaxDepth {
			b.p.MaxDepth = depth
		}

		direct := 0
		hasSubfolders := false
		for _, child := range n.Children {
			if child.IsBookmark() {
				direct++
			} else {
				hasSubfolders = true
			}
		}
		if direct > b.p.LargestFolder.Count {
			title := n.Title
			if title == "" {
				title = UntitledFolder
			}
			b.p.LargestFolder = FolderSize{Title: title, Count: direct}
		}
		if direct == 0 && !hasSubfolders {
			b.p.EmptyFolders++
		}
	}

	for _, child := range n.Children {
		b.walk(child, depth+1)
	}
}

func (b *profileBuilder) bookmark(n *Node) {
	if !IsCheckable(n.URL) {
		return
	}

	added := n.DateAdded
	if added.IsZero() {
		added = b.now
	}
	entry := &BookmarkEntry{ID: n.ID, Title: n.Title, URL: n.URL, DateAdded: added}
	if b.p.Oldest == nil || added.Before(b.p.Oldest.DateAdded) {
		b.p.Oldest = entry
	}
	if b.p.Newest == nil || added.After(b.p.Newest.DateAdded) {
		b.p.Newest = entry
	}
	b.byDate[added.UTC().Format("2006-01-02")]++

	if u, ok := ParseURL(n.URL); ok {
		if host := u.Hostname(); host != "" {
			b.domains[host]++
		}
		switch strings.ToLower(u.Scheme) {
		case "https":
			b.p.HTTPSCount++
		case "http":
			b.p.HTTPCount++
		}
	}

	b.normURLs[NormalizeURL(n.URL)]++
}

func (b *profileBuilder) finish() {
	p := &b.p

	if p.Oldest != nil && p.Newest != nil {
		span := p.Newest.DateAdded.Sub(p.Oldest.DateAdded)
		p.DurationDays = int(math.Ceil(span.Hours() / 24))
	}

	for date, count := range b.byDate {
		// Earliest date wins ties so the result does not depend on map order.
		if count > p.PeakCount || (count == p.PeakCount && date < p.PeakDate) {
			p.PeakDate = date
			p.PeakCount = count
		}
	}

	if total := p.HTTPCount + p.HTTPSCount; total > 0 {
		p.HTTPSRatio = int(math.Round(float64(p.HTTPSCount) / float64(total) * 100))
	}

	p.UniqueDomains = len(b.domains)
	p.TopDomains = topDomains(b.domains, DefaultTopDomains)

	for _, count := range b.normURLs {
		if count > 1 {
			p.DuplicateURLs++
		}
	}
	if p.TotalBookmarks > 0 {
		p.DuplicatePercent = round1(float64(p.DuplicateURLs) / float64(p.TotalBookmarks) * 100)
	}
	if p.TotalFolders > 0 {
		p.AvgPerFolder = round1(float64(p.TotalBookmarks) / float64(p.TotalFolders))
	}
}

func topDomains(domains map[string]int, n int) []DomainCount {
	out := make([]DomainCount, 0, len(domains))
	for d, c := range domains {
		out = append(out, DomainCount{Domain: d, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Domain < out[j].Domain
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func round1(f float64) float64 {
	return math.Round(f*10) / 10
}
