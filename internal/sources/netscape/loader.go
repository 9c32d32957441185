// Package netscape reads the NETSCAPE-Bookmark-file-1 HTML that every
// browser produces on "export bookmarks".
package netscape

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/MrSnakeDoc/deadmark/internal/domain"
)

// Attributes browsers put on the permanent folders. The HTML parser
// lowercases them.
const (
	attrToolbar = "personal_toolbar_folder"
	attrUnfiled = "unfiled_bookmarks_folder"
	attrAdded   = "add_date"
)

// Loader reads an exported bookmarks.html
type Loader struct {
	filePath string
}

func NewLoader(filePath string) *Loader {
	return &Loader{filePath: filePath}
}

// LoadTree parses the export into a bookmark tree
func (l *Loader) LoadTree() (*domain.Node, error) {
	f, err := os.Open(l.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open bookmarks export: %w", err)
	}
	defer func() { _ = f.Close() }()

	return Parse(f)
}

// Parse maps an export to a tree. The toolbar folder becomes the bookmarks
// bar; everything else at the top level lands in other bookmarks.
func Parse(r io.Reader) (*domain.Node, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse bookmarks html: %w", err)
	}

	top := doc.Find("dl").First()
	if top.Length() == 0 {
		return nil, fmt.Errorf("no bookmark list found in export")
	}

	root, bar, other := domain.NewTree()
	p := &parser{}

	top.ChildrenFiltered("dt").Each(func(_ int, dt *goquery.Selection) {
		h3 := dt.ChildrenFiltered("h3").First()
		if h3.Length() == 0 {
			if n := p.bookmark(dt, other.ID); n != nil {
				other.Children = append(other.Children, n)
			}
			return
		}

		switch {
		case h3.AttrOr(attrToolbar, "") == "true":
			bar.Title = titleOr(h3, bar.Title)
			bar.Children = append(bar.Children, p.children(dt, bar.ID)...)
		case h3.AttrOr(attrUnfiled, "") == "true":
			other.Title = titleOr(h3, other.Title)
			other.Children = append(other.Children, p.children(dt, other.ID)...)
		default:
			other.Children = append(other.Children, p.folder(dt, h3, other.ID))
		}
	})

	if p.bookmarks == 0 {
		return nil, fmt.Errorf("no bookmarks found in export")
	}
	return root, nil
}

type parser struct {
	bookmarks int
	seq       int
}

// id keeps entries apart even when title and URL repeat in one folder.
func (p *parser) id(parentID, key string) string {
	p.seq++
	return domain.StableID(parentID, strconv.Itoa(p.seq), key)
}

func (p *parser) folder(dt, h3 *goquery.Selection, parentID string) *domain.Node {
	title := strings.TrimSpace(h3.Text())
	n := &domain.Node{
		ID:        p.id(parentID, "folder:"+title),
		Title:     title,
		DateAdded: parseAddDate(h3.AttrOr(attrAdded, "")),
	}
	n.Children = p.children(dt, n.ID)
	return n
}

// children walks the list nested in dt. Some exporters put the list next to
// the dt instead of inside it.
func (p *parser) children(dt *goquery.Selection, parentID string) []*domain.Node {
	list := dt.ChildrenFiltered("dl").First()
	if list.Length() == 0 {
		list = dt.NextFiltered("dl")
	}

	out := []*domain.Node{}
	list.ChildrenFiltered("dt").Each(func(_ int, child *goquery.Selection) {
		if h3 := child.ChildrenFiltered("h3").First(); h3.Length() > 0 {
			out = append(out, p.folder(child, h3, parentID))
			return
		}
		if n := p.bookmark(child, parentID); n != nil {
			out = append(out, n)
		}
	})
	return out
}

func (p *parser) bookmark(dt *goquery.Selection, parentID string) *domain.Node {
	a := dt.ChildrenFiltered("a").First()
	href := strings.TrimSpace(a.AttrOr("href", ""))
	if href == "" {
		return nil
	}
	p.bookmarks++
	return &domain.Node{
		ID:        p.id(parentID, href),
		Title:     strings.TrimSpace(a.Text()),
		URL:       href,
		DateAdded: parseAddDate(a.AttrOr(attrAdded, "")),
	}
}

func titleOr(h3 *goquery.Selection, def string) string {
	if t := strings.TrimSpace(h3.Text()); t != "" {
		return t
	}
	return def
}

// parseAddDate reads ADD_DATE, which is Unix seconds in every browser we
// know, with millisecond and microsecond variants in the wild.
func parseAddDate(v string) time.Time {
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil || n <= 0 {
		return time.Time{}
	}
	switch {
	case n > 1e14:
		return time.UnixMicro(n).UTC()
	case n > 1e11:
		return time.UnixMilli(n).UTC()
	default:
		return time.Unix(n, 0).UTC()
	}
}
