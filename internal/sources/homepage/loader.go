package homepage

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/MrSnakeDoc/deadmark/internal/domain"
)

// {{HOMEPAGE_VAR_*}} and {{HOMEPAGE_FILE_*}} placeholders
var templateVar = regexp.MustCompile(`\{\{[^}]+\}\}`)

// Loader reads a Homepage services.yaml
type Loader struct {
	filePath string
}

func NewLoader(filePath string) *Loader {
	return &Loader{filePath: filePath}
}

// Load parses services.yaml
func (l *Loader) Load() (ServicesConfig, error) {
	return readConfig[ServicesConfig](l.filePath, "services")
}

// LoadTree parses services.yaml into a bookmark tree
func (l *Loader) LoadTree() (*domain.Node, error) {
	config, err := l.Load()
	if err != nil {
		return nil, err
	}
	return NewMapper().MapTree(config)
}

// BookmarkLoader reads a Homepage bookmarks.yaml
type BookmarkLoader struct {
	filePath string
}

func NewBookmarkLoader(filePath string) *BookmarkLoader {
	return &BookmarkLoader{filePath: filePath}
}

// Load parses bookmarks.yaml
func (l *BookmarkLoader) Load() (BookmarksConfig, error) {
	return readConfig[BookmarksConfig](l.filePath, "bookmarks")
}

// LoadTree parses bookmarks.yaml into a bookmark tree
func (l *BookmarkLoader) LoadTree() (*domain.Node, error) {
	config, err := l.Load()
	if err != nil {
		return nil, err
	}
	return NewBookmarkMapper().MapTree(config)
}

// readConfig decodes a Homepage YAML file. Secrets are injected by Homepage
// at render time; the links stay checkable without them.
func readConfig[T any](path, kind string) (T, error) {
	var config T

	data, err := os.ReadFile(path)
	if err != nil {
		return config, fmt.Errorf("failed to read %s file: %w", kind, err)
	}

	if err := yaml.Unmarshal(stripTemplateVariables(data), &config); err != nil {
		return config, fmt.Errorf("failed to parse %s yaml: %w", kind, err)
	}
	return config, nil
}

// stripTemplateVariables replaces every placeholder with an empty YAML string
func stripTemplateVariables(data []byte) []byte {
	return templateVar.ReplaceAll(data, []byte(`""`))
}
