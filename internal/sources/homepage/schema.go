package homepage

// ServicesConfig mirrors services.yaml: a list of groups, each a list of
// single-key maps from service name to its properties.
type ServicesConfig []map[string][]map[string]ServiceProps

// ServiceProps holds the service fields a link check cares about. Widgets
// and the rest of the Homepage options are ignored.
type ServiceProps struct {
	Href        string `yaml:"href"`
	Description string `yaml:"description,omitempty"`
	SiteMonitor string `yaml:"siteMonitor,omitempty"`
}

// BookmarksConfig mirrors bookmarks.yaml. Each bookmark name maps to a list
// holding a single entry.
type BookmarksConfig []map[string][]map[string][]BookmarkEntry

type BookmarkEntry struct {
	Abbr string `yaml:"abbr,omitempty"`
	Href string `yaml:"href"`
}
