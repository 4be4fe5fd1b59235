// Package profiling starts a pprof profile chosen by the DMGMEM_PROFILE
// environment variable. With the variable unset, Start does nothing.
//
//	DMGMEM_PROFILE=cpu   cpu profile
//	DMGMEM_PROFILE=mem   heap profile
//	DMGMEM_PROFILE=block blocking profile
//
// Profiles are written to the directory in DMGMEM_PROFILE_DIR, or the current
// directory.
package profiling

import (
	"os"

	"github.com/pkg/profile"
)

// Stopper ends a running profile
type Stopper interface {
	Stop()
}

type noop struct{}

func (noop) Stop() {}

// EnvMode and EnvDir name the environment variables read by Start
const (
	EnvMode = "DMGMEM_PROFILE"
	EnvDir  = "DMGMEM_PROFILE_DIR"
)

// Start begins profiling if requested. Call Stop on the result before exit,
// usually with defer.
func Start() Stopper {
	opts, ok := options(os.Getenv(EnvMode), os.Getenv(EnvDir))
	if !ok {
		return noop{}
	}
	return profile.Start(opts...)
}

func options(mode, dir string) ([]func(*profile.Profile), bool) {
	var opts []func(*profile.Profile)
	switch mode {
	case "cpu":
		opts = append(opts, profile.CPUProfile)
	case "mem":
		opts = append(opts, profile.MemProfile)
	case "block":
		opts = append(opts, profile.BlockProfile)
	default:
		return nil, false
	}
	if dir == "" {
		dir = "."
	}
	opts = append(opts, profile.ProfilePath(dir), profile.NoShutdownHook)
	return opts, true
}
