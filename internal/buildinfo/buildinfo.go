// Package buildinfo exposes values injected at link time.
//
//	go build -ldflags "-X github.com/hslu-pren/ufosure/internal/buildinfo.Version=1.2.0 \
//	    -X github.com/hslu-pren/ufosure/internal/buildinfo.Mode=production"
package buildinfo

import (
	"os"
	"strings"
)

const (
	ModeDevelopment = "development"
	ModeProduction  = "production"

	modeEnv = "UFOSURE_MODE"
)

// Overridden during build with ldflags.
var (
	Version = "0.0.0"
	Mode    = ModeDevelopment
)

// Info describes the running build.
type Info struct {
	Version string
	Mode    string
}

// Current returns the link-time build info, letting UFOSURE_MODE override the mode.
func Current() Info {
	return Resolve("")
}

// Resolve is Current with a configured mode between the link-time value and
// the environment in precedence.
func Resolve(configured string) Info {
	mode := Mode
	if c := strings.TrimSpace(configured); c != "" {
		mode = c
	}
	if env := strings.TrimSpace(os.Getenv(modeEnv)); env != "" {
		mode = env
	}
	return Info{Version: Version, Mode: NormalizeMode(mode)}
}

// IsDev reports whether the build runs in development mode.
func (i Info) IsDev() bool {
	return i.Mode == ModeDevelopment
}

// DisplayVersion returns the version string shown to users.
func (i Info) DisplayVersion() string {
	return DisplayVersion(i.Version, i.IsDev())
}

// DisplayVersion appends " (dev)" to version for development builds.
func DisplayVersion(version string, dev bool) string {
	if dev {
		return version + " (dev)"
	}
	return version
}

// NormalizeMode maps loose spellings onto the two known modes. Anything that is
// not recognisably development is treated as production.
func NormalizeMode(mode string) string {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "development", "dev", "debug":
		return ModeDevelopment
	default:
		return ModeProduction
	}
}
