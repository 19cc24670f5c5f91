// Package buildinfo holds build-time metadata injected with -ldflags.
package buildinfo

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// UnknownValue is reported for metadata that was not injected.
const UnknownValue = "unknown"

// Set at link time:
//
//	-X github.com/vectorcam/vectorinsight/internal/buildinfo.version=v1.2.0
var (
	version   string
	buildDate string
	commit    string
)

// Info is the metadata of the running binary.
type Info struct {
	Version   string `yaml:"version"`
	BuildDate string `yaml:"builddate"`
	Commit    string `yaml:"commit"`
	GoVersion string `yaml:"goversion"`
}

// Get returns the linked metadata, falling back to the module build info
// for the commit and to UnknownValue for anything missing.
func Get() Info {
	return resolve(version, buildDate, commit, vcsRevision())
}

func resolve(version, buildDate, commit, revision string) Info {
	if commit == "" {
		commit = revision
	}
	return Info{
		Version:   orUnknown(version),
		BuildDate: orUnknown(buildDate),
		Commit:    orUnknown(commit),
		GoVersion: runtime.Version(),
	}
}

// String formats the info for the version command.
func (i Info) String() string {
	return fmt.Sprintf("vectorinsight %s (commit %s, built %s, %s)", i.Version, i.Commit, i.BuildDate, i.GoVersion)
}

func vcsRevision() string {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, s := range bi.Settings {
		if s.Key == "vcs.revision" {
			if len(s.Value) > 12 {
				return s.Value[:12]
			}
			return s.Value
		}
	}
	return ""
}

func orUnknown(s string) string {
	if s == "" {
		return UnknownValue
	}
	return s
}
