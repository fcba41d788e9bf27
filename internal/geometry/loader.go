package geometry

import (
	"fmt"
	"sort"
	"strings"
)

// Loader parses one model file format into a geometry tree.
// Implemented by the external format bindings (production) and
// testutil.StaticLoader (tests).
type Loader interface {
	Load(path string) (*Model, error)
}

// SupportedExtensions lists the file extensions the session accepts,
// lowercase, without the leading dot.
var SupportedExtensions = []string{"3mf", "amf", "obj", "stl"}

// Registry maps file extensions to format loaders.
//
// Extensions are matched case-insensitively. The registry is populated at
// construction time and not mutated afterwards; it is therefore safe to
// share one registry across sessions.
type Registry struct {
	byExt map[string]Loader
}

// NewRegistry creates an empty loader registry.
func NewRegistry() *Registry {
	return &Registry{byExt: make(map[string]Loader)}
}

// Register binds a loader to an extension (without the leading dot).
func (r *Registry) Register(ext string, l Loader) {
	r.byExt[strings.ToLower(ext)] = l
}

// Lookup returns the loader for an extension, matched case-insensitively.
func (r *Registry) Lookup(ext string) (Loader, bool) {
	l, ok := r.byExt[strings.ToLower(ext)]
	return l, ok
}

// Extensions returns the registered extensions in sorted order.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// defaultRegistry collects loaders registered by format bindings at init.
var defaultRegistry = NewRegistry()

// RegisterLoader binds a loader to an extension in the process-wide
// registry. Format bindings call this from init.
func RegisterLoader(ext string, l Loader) {
	defaultRegistry.Register(ext, l)
}

// DefaultRegistry returns the process-wide loader registry.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// Supported reports whether ext is one of the formats the session
// contract names, regardless of whether a loader is registered for it.
func Supported(ext string) bool {
	ext = strings.ToLower(ext)
	for _, s := range SupportedExtensions {
		if s == ext {
			return true
		}
	}
	return false
}

// UnsupportedFormatError reports a file extension outside the supported set.
type UnsupportedFormatError struct {
	Extension string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported file format: %s", e.Extension)
}
