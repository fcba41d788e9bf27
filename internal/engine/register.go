package engine

import (
	"errors"

	"github.com/dimenl/slicerd/internal/config"
	"github.com/dimenl/slicerd/internal/geometry"
)

// defaultEngine is the process-wide engine binding. Builds without a
// native binding keep the unavailable placeholder, whose errors surface
// as ProcessFailed at the session boundary.
var defaultEngine Engine = unavailable{}

// Register installs the engine implementation used by Default.
// Called once at startup by the native binding's init, before any
// session is created.
func Register(e Engine) {
	if e != nil {
		defaultEngine = e
	}
}

// Default returns the registered engine, or a placeholder whose
// operations fail when no native binding is linked into the build.
func Default() Engine {
	return defaultEngine
}

// ErrUnavailable is returned by the placeholder engine.
var ErrUnavailable = errors.New("slicing engine not linked into this build")

type unavailable struct{}

func (unavailable) Prepare(*geometry.Model, *config.Config) (Plan, error) {
	return nil, ErrUnavailable
}

func (unavailable) Version() string { return "unavailable" }
