package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// Profile is a preset profile fixture. Settings values may be string or
// []string.
type Profile struct {
	Type     string
	Name     string
	Inherits string
	Settings map[string]any
}

// WriteProfile writes one profile JSON under the resources directory.
func WriteProfile(t *testing.T, resourcesDir string, p Profile) {
	t.Helper()

	doc := map[string]any{
		"type":     p.Type,
		"name":     p.Name,
		"settings": p.Settings,
	}
	if p.Inherits != "" {
		doc["inherits"] = p.Inherits
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	require.NoError(t, err)

	dir := filepath.Join(resourcesDir, "profiles", "bbl", p.Type)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	name := strings.ReplaceAll(p.Name, " ", "_") + ".json"
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o644))
}

// WriteDefaults writes the profiles/defaults.json settings layer.
func WriteDefaults(t *testing.T, resourcesDir string, settings map[string]any) {
	t.Helper()

	doc := map[string]any{"settings": settings}
	data, err := json.MarshalIndent(doc, "", "  ")
	require.NoError(t, err)

	dir := filepath.Join(resourcesDir, "profiles")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "defaults.json"), data, 0o644))
}

// WriteCatalog writes a full fixture catalog into a temp directory and
// returns the resources path. The fixture mirrors a small vendor
// bundle: one A1 and one A1 Mini printer, one PLA filament, one 0.20mm
// process.
func WriteCatalog(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	WriteDefaults(t, dir, map[string]any{
		"layer_height":      "0.2",
		"wall_loops":        "2",
		"filament_diameter": []string{"1.75"},
		"filament_density":  []string{"1.24"},
	})
	WriteProfile(t, dir, Profile{
		Type: "machine",
		Name: "Bambu Lab A1 0.4 nozzle",
		Settings: map[string]any{
			"printable_area":  "0x0,256x0,256x256,0x256",
			"printer_model":   "Bambu Lab A1",
			"printer_variant": "0.4",
			"nozzle_diameter": []string{"0.4"},
		},
	})
	WriteProfile(t, dir, Profile{
		Type: "machine",
		Name: "Bambu Lab A1 Mini 0.4 nozzle",
		Settings: map[string]any{
			"printable_area":  "0x0,180x0,180x180,0x180",
			"printer_model":   "Bambu Lab A1 Mini",
			"printer_variant": "0.4",
			"nozzle_diameter": []string{"0.4"},
		},
	})
	WriteProfile(t, dir, Profile{
		Type: "filament",
		Name: "Bambu PLA Basic @BBL A1",
		Settings: map[string]any{
			"filament_type":    []string{"PLA"},
			"filament_density": []string{"1.24"},
			"filament_cost":    []string{"24.99"},
		},
	})
	WriteProfile(t, dir, Profile{
		Type: "process",
		Name: "0.20mm Standard @BBL A1",
		Settings: map[string]any{
			"layer_height":          "0.2",
			"sparse_infill_density": "15%",
			"wall_loops":            "2",
		},
	})
	return dir
}
