package common

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"

	"github.com/pelletier/go-toml/v2"
)

// Set with -ldflags "-X github.com/bobmcallan/fundval/internal/common.Version=..."
var (
	Version   = "dev"
	Build     = "unknown"
	GitCommit = "unknown"
)

// GetVersion returns the semantic version string
func GetVersion() string { return Version }

// GetBuild returns the build timestamp
func GetBuild() string { return Build }

// GetGitCommit returns the short commit hash
func GetGitCommit() string { return GitCommit }

// GetFullVersion returns version, build and commit on one line.
func GetFullVersion() string {
	return fmt.Sprintf("%s (build: %s, commit: %s)", Version, Build, GitCommit)
}

type versionFile struct {
	Version string `toml:"version"`
	Build   string `toml:"build"`
	Commit  string `toml:"commit"`
}

// LoadVersionFromFile fills build info left at its defaults, first from a
// .version TOML file next to the binary and then from the VCS stamp the Go
// toolchain embeds.
func LoadVersionFromFile() {
	if exe, err := os.Executable(); err == nil {
		loadVersionFile(filepath.Join(filepath.Dir(exe), ".version"))
	}
	loadBuildInfo()
}

func loadVersionFile(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	var v versionFile
	if err := toml.Unmarshal(data, &v); err != nil {
		return
	}
	setDefault(&Version, "dev", v.Version)
	setDefault(&Build, "unknown", v.Build)
	setDefault(&GitCommit, "unknown", v.Commit)
}

func loadBuildInfo() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			rev := s.Value
			if len(rev) > 7 {
				rev = rev[:7]
			}
			setDefault(&GitCommit, "unknown", rev)
		case "vcs.time":
			setDefault(&Build, "unknown", s.Value)
		}
	}
}

func setDefault(dst *string, def, val string) {
	if *dst == def && val != "" {
		*dst = val
	}
}
