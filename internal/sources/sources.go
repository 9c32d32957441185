// Package sources selects the loader for a bookmark file format.
package sources

import (
	"fmt"

	"github.com/MrSnakeDoc/deadmark/internal/domain"
	"github.com/MrSnakeDoc/deadmark/internal/sources/chromium"
	"github.com/MrSnakeDoc/deadmark/internal/sources/homepage"
	"github.com/MrSnakeDoc/deadmark/internal/sources/netscape"
)

// Supported formats.
const (
	FormatChromium          = "chromium"
	FormatHomepageBookmarks = "homepage-bookmarks"
	FormatHomepageServices  = "homepage-services"
	FormatNetscapeHTML      = "netscape-html"
)

// TreeLoader reads a bookmark file into a tree rooted at the root folder.
type TreeLoader interface {
	LoadTree() (*domain.Node, error)
}

// New returns the loader for format reading path.
func New(format, path string) (TreeLoader, error) {
	switch format {
	case FormatChromium, "":
		return chromium.NewLoader(path), nil
	case FormatHomepageBookmarks:
		return homepage.NewBookmarkLoader(path), nil
	case FormatHomepageServices:
		return homepage.NewLoader(path), nil
	case FormatNetscapeHTML:
		return netscape.NewLoader(path), nil
	default:
		return nil, fmt.Errorf("unknown bookmark format %q", format)
	}
}
