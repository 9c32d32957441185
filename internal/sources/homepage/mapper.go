package homepage

import (
	"fmt"

	"github.com/MrSnakeDoc/deadmark/internal/domain"
)

// Mapper converts Homepage services to a bookmark tree
type Mapper struct{}

// NewMapper creates a new mapper instance
func NewMapper() *Mapper {
	return &Mapper{}
}

// MapTree converts ServicesConfig to a tree with one folder per group.
// A service with a siteMonitor URL contributes that URL as a second entry.
func (m *Mapper) MapTree(config ServicesConfig) (*domain.Node, error) {
	root, bar := newRoot()
	count := 0

	for _, groupMap := range config {
		for _, groupName := range sortedKeys(groupMap) {
			folder := newFolder(groupName)

			for _, serviceMap := range groupMap[groupName] {
				for _, serviceName := range sortedKeys(serviceMap) {
					props := serviceMap[serviceName]

					// Skip services without href
					if props.Href == "" {
						continue
					}

					folder.Children = append(folder.Children, &domain.Node{
						ID:    generateID(groupName, serviceName, props.Href),
						Title: serviceName,
						URL:   props.Href,
					})
					count++

					if props.SiteMonitor != "" && props.SiteMonitor != props.Href {
						folder.Children = append(folder.Children, &domain.Node{
							ID:    generateID(groupName, serviceName, props.SiteMonitor),
							Title: serviceName + " (monitor)",
							URL:   props.SiteMonitor,
						})
						count++
					}
				}
			}

			bar.Children = append(bar.Children, folder)
		}
	}

	if count == 0 {
		return nil, fmt.Errorf("no valid services found in homepage config")
	}

	return root, nil
}
