package homepage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/MrSnakeDoc/deadmark/internal/domain"
)

func writeYAML(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoaderLoad(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantHref string
		wantErr  bool
	}{
		{
			name: "plain",
			content: `---
- Infrastructure:
    - AdGuard Home:
        icon: adguard-home.svg
        href: https://adguard.domain.ext
        description: Network-wide ads & trackers blocking DNS server
`,
			wantHref: "https://adguard.domain.ext",
		},
		{
			name: "template variable",
			content: `---
- Infrastructure:
    - AdGuard Home:
        href: {{HOMEPAGE_VAR_ADGUARD_URL}}
`,
			wantHref: "",
		},
		{
			name:    "not yaml",
			content: "- [unclosed",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := NewLoader(writeYAML(t, "services.yaml", tt.content)).Load()
			if tt.wantErr {
				if err == nil {
					t.Fatal("Load() should fail")
				}
				return
			}
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if len(config) != 1 {
				t.Fatalf("Load() = %d groups, want 1", len(config))
			}
			props := config[0]["Infrastructure"][0]["AdGuard Home"]
			if props.Href != tt.wantHref {
				t.Errorf("href = %q, want %q", props.Href, tt.wantHref)
			}
		})
	}
}

func TestLoaderLoadFileNotFound(t *testing.T) {
	if _, err := NewLoader("/nonexistent/path/services.yaml").Load(); err == nil {
		t.Error("Load() with non-existent file should return error")
	}
}

func TestStripTemplateVariables(t *testing.T) {
	tests := map[string]string{
		"url: {{HOMEPAGE_VAR_URL}}":                    `url: ""`,
		"a: {{HOMEPAGE_VAR_A}} b: {{HOMEPAGE_FILE_B}}": `a: "" b: ""`,
		"plain text": "plain text",
	}
	for in, want := range tests {
		if got := string(stripTemplateVariables([]byte(in))); got != want {
			t.Errorf("stripTemplateVariables(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLoaderLoadTree(t *testing.T) {
	yamlPath := writeYAML(t, "services.yaml", `---
- Media:
    - Jellyfin:
        href: https://jellyfin.domain.ext
    - Secret:
        href: {{HOMEPAGE_VAR_SECRET_URL}}
`)

	root, err := NewLoader(yamlPath).LoadTree()
	if err != nil {
		t.Fatalf("LoadTree() error = %v", err)
	}
	if n := domain.CountCheckable(root); n != 1 {
		t.Errorf("CountCheckable() = %d, want 1 (templated href is dropped)", n)
	}
}

func TestBookmarkLoaderLoadTree(t *testing.T) {
	yamlPath := writeYAML(t, "bookmarks.yaml", `---
- Developer:
    - Github:
        - abbr: GH
          href: https://github.com/
- Entertainment:
    - YouTube:
        - abbr: YT
          href: https://youtube.com/
`)

	root, err := NewBookmarkLoader(yamlPath).LoadTree()
	if err != nil {
		t.Fatalf("LoadTree() error = %v", err)
	}
	if n := domain.CountCheckable(root); n != 2 {
		t.Errorf("CountCheckable() = %d, want 2", n)
	}
}

func TestBookmarkLoaderFileNotFound(t *testing.T) {
	if _, err := NewBookmarkLoader("/nonexistent/bookmarks.yaml").LoadTree(); err == nil {
		t.Error("LoadTree() with non-existent file should return error")
	}
}
