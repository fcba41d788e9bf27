package preset

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/dimenl/slicerd/internal/config"
)

// NotFoundError reports a preset name that resolved to nothing in its
// category, or an internal selection inconsistency (which must never be
// silently accepted and therefore surfaces the same way).
type NotFoundError struct {
	Category Category
	Name     string
	// Internal marks a post-selection consistency failure rather than a
	// plain miss.
	Internal bool
}

func (e *NotFoundError) Error() string {
	if e.Internal {
		return fmt.Sprintf("%s preset selection mismatch for %q", categoryLabel(e.Category), e.Name)
	}
	return fmt.Sprintf("%s preset not found: %s", categoryLabel(e.Category), e.Name)
}

func categoryLabel(c Category) string {
	switch c {
	case CategoryPrinter:
		return "printer"
	case CategoryFilament:
		return "filament"
	case CategoryProcess:
		return "process"
	}
	return string(c)
}

// Selection records the preset names actually selected per category.
// Empty means the category was never successfully selected.
type Selection struct {
	Printer  string
	Filament string
	Process  string
}

// canonName normalizes a preset name for comparison: NFC normalization
// then case folding. Matching is tolerant of composed/decomposed input
// and letter case, never of content.
func canonName(s string) string {
	return strings.ToLower(norm.NFC.String(s))
}

// Resolve finds the catalog entry for a requested name in a category.
//
// Resolution order:
//  1. Exact match (canonicalized comparison).
//  2. First entry, in pinned catalog order, whose name contains the
//     request or is contained by it. First match wins, not best match;
//     the pinned order makes this stable across catalog rebuilds.
//  3. *NotFoundError.
func (c *Catalog) Resolve(cat Category, name string) (*Preset, error) {
	want := canonName(name)

	for _, p := range c.entries[cat] {
		if canonName(p.Name) == want {
			return p, nil
		}
	}
	for _, p := range c.entries[cat] {
		have := canonName(p.Name)
		if strings.Contains(have, want) || strings.Contains(want, have) {
			return p, nil
		}
	}
	return nil, &NotFoundError{Category: cat, Name: name}
}

// Select resolves a name, applies the selection, and verifies the
// applied preset still carries the resolved name. The verification
// failing means the catalog contradicted itself between resolution and
// application; that is an internal fault, reported as not-found rather
// than accepted.
func (c *Catalog) Select(cat Category, name string) (*Preset, error) {
	p, err := c.Resolve(cat, name)
	if err != nil {
		return nil, err
	}
	applied, ok := c.Lookup(cat, p.Name)
	if !ok || applied.Name != p.Name {
		return nil, &NotFoundError{Category: cat, Name: p.Name, Internal: true}
	}
	return applied, nil
}

// LayerConfig computes the full layered configuration: defaults, then
// printer, filament, and process preset layers in that order. Nil
// presets contribute nothing.
func (c *Catalog) LayerConfig(printer, filament, process *Preset) *config.Config {
	cfg := config.New()
	cfg.Apply(c.defaults)
	for _, p := range []*Preset{printer, filament, process} {
		if p != nil {
			cfg.Apply(p.Config)
		}
	}
	return cfg
}
