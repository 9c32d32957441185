package homepage

import (
	"testing"

	"github.com/MrSnakeDoc/deadmark/internal/domain"
)

func TestMapperMapTree(t *testing.T) {
	config := ServicesConfig{
		{
			"Infrastructure": []map[string]ServiceProps{
				{
					"AdGuard Home": {
						Href:        "https://adguard.domain.ext",
						Description: "Network-wide ads blocking",
					},
				},
				{
					"Traefik": {
						Href:        "https://traefik.domain.ext",
						SiteMonitor: "http://traefik:8080/ping",
					},
				},
			},
		},
	}

	root, err := NewMapper().MapTree(config)
	if err != nil {
		t.Fatalf("MapTree() error = %v", err)
	}

	if root.ID != domain.RootFolderID {
		t.Errorf("root ID = %q, want %q", root.ID, domain.RootFolderID)
	}
	bar := root.Children[0]
	if bar.ID != domain.BookmarksBarID || len(bar.Children) != 1 {
		t.Fatalf("bookmarks bar = %+v", bar)
	}

	group := bar.Children[0]
	if group.Title != "Infrastructure" || group.IsBookmark() {
		t.Errorf("group = %+v", group)
	}
	if len(group.Children) != 3 {
		t.Fatalf("group has %d entries, want 3", len(group.Children))
	}
	if group.Children[0].URL != "https://adguard.domain.ext" || group.Children[0].Title != "AdGuard Home" {
		t.Errorf("first entry = %+v", group.Children[0])
	}
	if group.Children[2].URL != "http://traefik:8080/ping" {
		t.Errorf("monitor entry = %+v", group.Children[2])
	}
}

func TestMapperMapTreeEmptyConfig(t *testing.T) {
	root, err := NewMapper().MapTree(ServicesConfig{})
	if err == nil {
		t.Error("MapTree() with empty config should return error")
	}
	if root != nil {
		t.Error("MapTree() with empty config should return nil tree")
	}
}

func TestMapperMapTreeSkipsMissingHref(t *testing.T) {
	config := ServicesConfig{
		{
			"Test": []map[string]ServiceProps{
				{"No link": {Description: "internal only"}},
			},
		},
	}

	if _, err := NewMapper().MapTree(config); err == nil {
		t.Error("MapTree() should return error when no service has a href")
	}
}

func TestMapperStableIDs(t *testing.T) {
	config := ServicesConfig{
		{"Group1": []map[string]ServiceProps{{"Service1": {Href: "https://service1.example.com"}}}},
		{"Group2": []map[string]ServiceProps{{"Service2": {Href: "https://service2.example.com"}}}},
	}

	first, err := NewMapper().MapTree(config)
	if err != nil {
		t.Fatalf("MapTree() error = %v", err)
	}
	second, _ := NewMapper().MapTree(config)

	a := domain.Flatten(first)
	b := domain.Flatten(second)
	if len(a) != 2 || len(b) != 2 {
		t.Fatalf("flattened %d and %d bookmarks, want 2", len(a), len(b))
	}
	for i := range a {
		if a[i].ID != b[i].ID {
			t.Errorf("ID changed between runs: %s != %s", a[i].ID, b[i].ID)
		}
	}
	if a[0].ID == a[1].ID {
		t.Error("distinct services share an ID")
	}
}

func TestBookmarkMapperMapTree(t *testing.T) {
	config := BookmarksConfig{
		{
			"Developer": []map[string][]BookmarkEntry{
				{"Github": {{Abbr: "GH", Href: "https://github.com"}}},
				{"Empty": {}},
			},
		},
		{
			"Social": []map[string][]BookmarkEntry{
				{"Reddit": {{Href: "https://reddit.com"}}},
			},
		},
	}

	root, err := NewBookmarkMapper().MapTree(config)
	if err != nil {
		t.Fatalf("MapTree() error = %v", err)
	}

	entries := domain.Flatten(root)
	if len(entries) != 2 {
		t.Fatalf("Flatten() = %d entries, want 2", len(entries))
	}
	if entries[0].Title != "Github" || entries[0].URL != "https://github.com" {
		t.Errorf("first entry = %+v", entries[0])
	}
	want := []string{"Bookmarks bar", "Developer"}
	if len(entries[0].Path) != 2 || entries[0].Path[0] != want[0] || entries[0].Path[1] != want[1] {
		t.Errorf("path = %v, want %v", entries[0].Path, want)
	}
}

func TestBookmarkMapperMapTreeEmpty(t *testing.T) {
	if _, err := NewBookmarkMapper().MapTree(BookmarksConfig{}); err == nil {
		t.Error("MapTree() with empty config should return error")
	}
}
