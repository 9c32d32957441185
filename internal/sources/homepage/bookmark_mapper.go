package homepage

import (
	"fmt"

	"github.com/MrSnakeDoc/deadmark/internal/domain"
)

// BookmarkMapper converts Homepage bookmark config to a bookmark tree
type BookmarkMapper struct{}

// NewBookmarkMapper creates a new bookmark mapper
func NewBookmarkMapper() *BookmarkMapper {
	return &BookmarkMapper{}
}

// MapTree converts BookmarksConfig to a tree with one folder per category
func (m *BookmarkMapper) MapTree(config BookmarksConfig) (*domain.Node, error) {
	root, bar := newRoot()
	count := 0

	for _, category := range config {
		for _, categoryName := range sortedKeys(category) {
			folder := newFolder(categoryName)

			for _, bookmarkMap := range category[categoryName] {
				for _, bookmarkName := range sortedKeys(bookmarkMap) {
					entryList := bookmarkMap[bookmarkName]
					// Each bookmark has a list with a single entry
					if len(entryList) == 0 || entryList[0].Href == "" {
						continue
					}
					entry := entryList[0]

					folder.Children = append(folder.Children, &domain.Node{
						ID:    generateID(categoryName, bookmarkName, entry.Href),
						Title: bookmarkName,
						URL:   entry.Href,
					})
					count++
				}
			}

			bar.Children = append(bar.Children, folder)
		}
	}

	if count == 0 {
		return nil, fmt.Errorf("no valid bookmarks found in config")
	}

	return root, nil
}
