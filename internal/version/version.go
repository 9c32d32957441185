package version

import (
	"fmt"
	"runtime"
)

// Set at build time with -ldflags "-X github.com/MrSnakeDoc/deadmark/internal/version.Version=v0.1.0".
var (
	Version   = "dev"     // ex: v0.1.0
	Commit    = "none"    // ex: abcd123
	BuildDate = "unknown" // ex: 2025-08-11T18:42:00Z
)

// Info describes the running binary.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
}

func Get() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
	}
}

func (i Info) String() string {
	return fmt.Sprintf("deadmark %s (commit=%s, built=%s, go=%s)", i.Version, i.Commit, i.BuildDate, i.GoVersion)
}
