// Package preset loads the bundled preset catalog and resolves
// printer/filament/process preset names against it.
//
// The catalog is an expensive one-time load: every profile file under
// the resources directory is parsed, schema-checked, and indexed. A
// session triggers the load lazily on its first load_preset call and
// never retries it, so multiple sessions each perform their own load
// from an explicitly passed directory rather than racing on globals.
package preset

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cuejson "cuelang.org/go/encoding/json"

	_ "embed"

	"github.com/dimenl/slicerd/internal/config"
)

//go:embed schema.cue
var schemaCUE string

// Category is one of the three preset kinds.
type Category string

const (
	CategoryPrinter  Category = "machine"
	CategoryFilament Category = "filament"
	CategoryProcess  Category = "process"
)

// Categories lists all preset categories in resolution order.
var Categories = []Category{CategoryPrinter, CategoryFilament, CategoryProcess}

// Preset is one named profile in the catalog with its resolved
// configuration layer (inheritance already flattened).
type Preset struct {
	Name     string
	Category Category

	// Config is the flattened configuration layer for this preset.
	Config *config.Config

	// file is the profile path, kept for diagnostics.
	file string
}

// profileFile mirrors the on-disk profile JSON shape.
type profileFile struct {
	Type          string                     `json:"type"`
	Name          string                     `json:"name"`
	Inherits      string                     `json:"inherits"`
	Instantiation string                     `json:"instantiation"`
	Settings      map[string]json.RawMessage `json:"settings"`
}

// Catalog is the loaded preset bundle: defaults plus every profile,
// indexed per category. Entry order within a category is sorted file
// path then declaration order, which pins the fallback scan order
// across rebuilds.
type Catalog struct {
	defaults *config.Config
	entries  map[Category][]*Preset
	byName   map[Category]map[string]*Preset
}

// Load reads the catalog from a resources directory laid out as
// profiles/<vendor>/{machine,filament,process}/*.json plus an optional
// profiles/defaults.json. Individual profiles that fail schema
// validation are skipped with a warning; an unreadable directory is an
// error.
func Load(resourcesDir string) (*Catalog, error) {
	root := filepath.Join(resourcesDir, "profiles")
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("preset resources: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("preset resources: not a directory: %s", root)
	}

	cctx := cuecontext.New()
	schema := cctx.CompileString(schemaCUE)
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("preset schema: %w", err)
	}
	profileSchema := schema.LookupPath(cue.ParsePath("#Profile"))
	defaultsSchema := schema.LookupPath(cue.ParsePath("#Defaults"))

	cat := &Catalog{
		defaults: config.New(),
		entries:  make(map[Category][]*Preset),
		byName:   make(map[Category]map[string]*Preset),
	}
	for _, c := range Categories {
		cat.byName[c] = make(map[string]*Preset)
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, ".json") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning profiles: %w", err)
	}
	sort.Strings(files)

	// Raw profiles per category, before inheritance flattening.
	raw := make(map[Category][]*profileFile)
	rawByName := make(map[Category]map[string]*profileFile)
	fileOf := make(map[*profileFile]string)
	for _, c := range Categories {
		rawByName[c] = make(map[string]*profileFile)
	}

	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading profile %s: %w", path, err)
		}

		if filepath.Base(path) == "defaults.json" {
			if err := validateCUE(cctx, defaultsSchema, path, data); err != nil {
				slog.Warn("skipping invalid defaults profile", "file", path, "error", err)
				continue
			}
			var pf profileFile
			if err := json.Unmarshal(data, &pf); err != nil {
				slog.Warn("skipping unreadable defaults profile", "file", path, "error", err)
				continue
			}
			applySettings(cat.defaults, pf.Settings, path)
			continue
		}

		if err := validateCUE(cctx, profileSchema, path, data); err != nil {
			slog.Warn("skipping invalid profile", "file", path, "error", err)
			continue
		}
		var pf profileFile
		if err := json.Unmarshal(data, &pf); err != nil {
			slog.Warn("skipping unreadable profile", "file", path, "error", err)
			continue
		}
		c := Category(pf.Type)
		raw[c] = append(raw[c], &pf)
		rawByName[c][pf.Name] = &pf
		fileOf[&pf] = path
	}

	// Flatten inheritance and build catalog entries in load order.
	for _, c := range Categories {
		for _, pf := range raw[c] {
			cfg, err := flatten(pf, rawByName[c], nil)
			if err != nil {
				slog.Warn("skipping profile with broken inheritance",
					"file", fileOf[pf], "name", pf.Name, "error", err)
				continue
			}
			p := &Preset{Name: pf.Name, Category: c, Config: cfg, file: fileOf[pf]}
			cat.entries[c] = append(cat.entries[c], p)
			cat.byName[c][pf.Name] = p
		}
	}

	return cat, nil
}

// validateCUE unifies a profile document with the schema definition.
func validateCUE(cctx *cue.Context, schema cue.Value, path string, data []byte) error {
	expr, err := cuejson.Extract(path, data)
	if err != nil {
		return err
	}
	v := cctx.BuildExpr(expr)
	if err := v.Err(); err != nil {
		return err
	}
	unified := schema.Unify(v)
	return unified.Validate(cue.Final())
}

// flatten resolves a profile's inheritance chain into one config layer,
// parent settings first. seen guards against inheritance cycles.
func flatten(pf *profileFile, byName map[string]*profileFile, seen []string) (*config.Config, error) {
	for _, s := range seen {
		if s == pf.Name {
			return nil, fmt.Errorf("inheritance cycle at %q", pf.Name)
		}
	}
	cfg := config.New()
	if pf.Inherits != "" {
		parent, ok := byName[pf.Inherits]
		if !ok {
			return nil, fmt.Errorf("unknown parent %q", pf.Inherits)
		}
		parentCfg, err := flatten(parent, byName, append(seen, pf.Name))
		if err != nil {
			return nil, err
		}
		cfg.Apply(parentCfg)
	}
	applySettings(cfg, pf.Settings, pf.Name)
	return cfg, nil
}

// applySettings deserializes profile settings into cfg. Keys the option
// registry does not know are skipped with a debug log: vendor bundles
// carry keys for engine features this boundary does not model.
func applySettings(cfg *config.Config, settings map[string]json.RawMessage, origin string) {
	keys := make([]string, 0, len(settings))
	for k := range settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		rawVal := settings[key]
		var s string
		if err := json.Unmarshal(rawVal, &s); err == nil {
			if err := cfg.SetDeserialize(key, s); err != nil {
				slog.Debug("skipping profile setting", "origin", origin, "key", key, "error", err)
			}
			continue
		}
		var list []string
		if err := json.Unmarshal(rawVal, &list); err == nil {
			if err := cfg.SetList(key, list); err != nil {
				slog.Debug("skipping profile setting", "origin", origin, "key", key, "error", err)
			}
			continue
		}
		slog.Debug("skipping malformed profile setting", "origin", origin, "key", key)
	}
}

// Defaults returns the catalog's default configuration layer.
func (c *Catalog) Defaults() *config.Config {
	return c.defaults
}

// Entries returns the catalog entries for a category in pinned order.
func (c *Catalog) Entries(cat Category) []*Preset {
	return c.entries[cat]
}

// Lookup returns the preset with the exact given name.
func (c *Catalog) Lookup(cat Category, name string) (*Preset, bool) {
	p, ok := c.byName[cat][name]
	return p, ok
}
