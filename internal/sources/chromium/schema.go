package chromium

// File is the top-level structure of a Chromium "Bookmarks" file
type File struct {
	Checksum string `json:"checksum,omitempty"`
	Roots    Roots  `json:"roots"`
	Version  int    `json:"version"`
}

// Roots holds the three permanent folders
type Roots struct {
	BookmarkBar *Entry `json:"bookmark_bar"`
	Other       *Entry `json:"other"`
	Synced      *Entry `json:"synced"`
}

// Entry is a bookmark ("url") or a folder ("folder")
type Entry struct {
	ID        string   `json:"id"`
	GUID      string   `json:"guid,omitempty"`
	Name      string   `json:"name"`
	Type      string   `json:"type"`
	URL       string   `json:"url,omitempty"`
	DateAdded string   `json:"date_added,omitempty"`
	Children  []*Entry `json:"children,omitempty"`
}
