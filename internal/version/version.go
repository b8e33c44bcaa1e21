// Package version carries build-time version information.
package version

import (
	"fmt"
	"runtime"
)

// Set via -ldflags at build time
var (
	VersionTag = "dev"
	Commit     = "unknown"
	BuildTime  = "unknown"
)

// Info is the resolved version information of this binary
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// Get returns the version info of the running binary
func Get() Info {
	return Info{
		Version:   VersionTag,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

func (i Info) String() string {
	return fmt.Sprintf("cardforge %s (%s, built %s)", i.Version, i.Commit, i.BuildTime)
}
