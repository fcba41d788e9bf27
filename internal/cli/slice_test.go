package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSliceWithoutFormatBindings(t *testing.T) {
	dir := t.TempDir()
	model := filepath.Join(dir, "cube.stl")
	require.NoError(t, os.WriteFile(model, []byte("solid cube\nendsolid cube\n"), 0o644))

	// No format binding is linked into the test binary, so load_model
	// reports the missing loader.
	_, err := execute(t, "slice", model, filepath.Join(dir, "out.gcode"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no loader available")
}

func TestSliceRejectsMalformedOverride(t *testing.T) {
	dir := t.TempDir()
	model := filepath.Join(dir, "cube.stl")
	require.NoError(t, os.WriteFile(model, []byte("solid cube\nendsolid cube\n"), 0o644))

	_, err := execute(t, "slice", model, filepath.Join(dir, "out.gcode"),
		"--set", "layer_height")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "key=value")
}
