package handle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dimenl/slicerd/internal/slicer"
	"github.com/dimenl/slicerd/internal/testutil"
)

func newTable(t *testing.T) (*Table, Handle) {
	t.Helper()
	reg, _ := testutil.NewRegistry(1)
	table := NewTable()
	h := table.Create(slicer.Options{
		Engine:       testutil.NewFakeEngine(),
		Loaders:      reg,
		ResourcesDir: testutil.WriteCatalog(t),
	})
	return table, h
}

func TestCreateDestroy(t *testing.T) {
	table, h := newTable(t)
	require.NotEqual(t, Nil, h)
	assert.Equal(t, 1, table.Len())

	table.Destroy(h)
	assert.Zero(t, table.Len())

	// Destroying again, or destroying Nil, is a no-op.
	table.Destroy(h)
	table.Destroy(Nil)
	assert.Zero(t, table.Len())
}

func TestHandlesAreUnique(t *testing.T) {
	table, h1 := newTable(t)
	reg, _ := testutil.NewRegistry(1)
	h2 := table.Create(slicer.Options{Engine: testutil.NewFakeEngine(), Loaders: reg})
	assert.NotEqual(t, h1, h2)
	assert.Equal(t, 2, table.Len())
}

func TestUnknownHandle(t *testing.T) {
	table := NewTable()
	const unknown Handle = 42

	assert.Equal(t, slicer.CodeNullContext, table.LoadModel(unknown, "part.stl"))
	assert.Equal(t, slicer.CodeNullContext, table.LoadPreset(unknown, "A1", "", ""))
	assert.Equal(t, slicer.CodeNullContext, table.SetConfigParam(unknown, "layer_height", "0.2"))
	assert.Equal(t, slicer.CodeNullContext, table.LoadConfigFromJSON(unknown, "{}"))
	assert.Equal(t, slicer.CodeNullContext, table.Process(unknown))
	assert.Equal(t, slicer.CodeNullContext, table.Export(unknown, "out.gcode"))
	assert.Equal(t, slicer.CodeNullContext, table.SliceAndExport(unknown, "out.gcode"))

	_, ok := table.StatsJSON(unknown)
	assert.False(t, ok)
	_, ok = table.ConfigJSON(unknown)
	assert.False(t, ok)
	_, ok = table.PresetInfoJSON(unknown)
	assert.False(t, ok)
	_, ok = table.LastError(unknown)
	assert.False(t, ok)
	table.ClearError(unknown)
}

func TestFullFlow(t *testing.T) {
	table, h := newTable(t)

	assert.Equal(t, slicer.CodeSuccess, table.LoadModel(h, "part.stl"))
	assert.Equal(t, slicer.CodeSuccess, table.LoadPreset(h, "A1", "PLA Basic", "0.20mm"))
	assert.Equal(t, slicer.CodeSuccess, table.SetConfigParam(h, "layer_height", "0.28"))
	assert.Equal(t, slicer.CodeSuccess, table.SliceAndExport(h, "out.gcode"))

	stats, ok := table.StatsJSON(h)
	require.True(t, ok)
	assert.Contains(t, stats, "total_used_filament")

	cfg, ok := table.ConfigJSON(h)
	require.True(t, ok)
	assert.Contains(t, cfg, "layer_height")

	presets, ok := table.PresetInfoJSON(h)
	require.True(t, ok)
	assert.Contains(t, presets, "Bambu Lab A1 0.4 nozzle")

	_, ok = table.LastError(h)
	assert.False(t, ok)
}

func TestErrorCodesSurface(t *testing.T) {
	table, h := newTable(t)

	assert.Equal(t, slicer.CodeNullParameter, table.LoadModel(h, ""))
	assert.Equal(t, slicer.CodeNoModel, table.Process(h))
	assert.Equal(t, slicer.CodeConfigParse, table.LoadConfigFromJSON(h, "{}"))
	assert.Equal(t, slicer.CodePresetNotFound, table.LoadPreset(h, "", "Unobtanium", ""))

	msg, ok := table.LastError(h)
	require.True(t, ok)
	assert.Contains(t, msg, "Unobtanium")

	table.ClearError(h)
	_, ok = table.LastError(h)
	assert.False(t, ok)
}
