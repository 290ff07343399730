package version

import (
	_ "embed"
	"fmt"
	"runtime/debug"
	"strings"
)

//go:embed version.txt
var versionFile string

// Version returns the current binfetch version
func Version() string {
	return strings.TrimSpace(versionFile)
}

// GetBuildID returns the version plus the VCS revision when the binary
// carries build info.
func GetBuildID() string {
	v := Version()
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return v
	}
	for _, setting := range info.Settings {
		if setting.Key == "vcs.revision" && len(setting.Value) >= 8 {
			return fmt.Sprintf("%s (%s)", v, setting.Value[:8])
		}
	}
	return v
}
