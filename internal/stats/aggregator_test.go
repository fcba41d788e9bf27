package stats

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dimenl/slicerd/internal/config"
	"github.com/dimenl/slicerd/internal/engine"
)

func TestFilamentArithmetic(t *testing.T) {
	fil := Filament{Diameter: 1.75, Density: 1.24, CostPerKg: 20}

	wantArea := math.Pi * 0.875 * 0.875
	assert.InDelta(t, wantArea, fil.Area(), 1e-12)
	assert.InDelta(t, 1000/wantArea, fil.LengthFromVolume(1000), 1e-9)
	assert.InDelta(t, 1.24, fil.WeightFromVolume(1000), 1e-12)
}

func TestFilamentZeroDiameter(t *testing.T) {
	fil := Filament{Diameter: 0, Density: 1.24}
	assert.Zero(t, fil.Area())
	assert.Zero(t, fil.LengthFromVolume(1000))
}

func testResult() *engine.Result {
	return &engine.Result{
		Extruders: map[int]engine.ExtruderUsage{
			0: {
				TotalVolume:     1000,
				ModelVolume:     900,
				SupportVolume:   80,
				WipeTowerVolume: 15,
				FlushVolume:     5,
			},
		},
		Times: map[engine.TimeMode]engine.TimeEstimate{
			engine.ModeNormal: {TotalSeconds: 3725, PrepareSeconds: 125},
		},
		TimelapseSeconds: 100,
	}
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.New()
	require.NoError(t, cfg.SetDeserialize("filament_diameter", "1.75"))
	require.NoError(t, cfg.SetDeserialize("filament_density", "1.24"))
	require.NoError(t, cfg.SetDeserialize("filament_cost", "20"))
	return cfg
}

func TestComputeSingleExtruder(t *testing.T) {
	r := Compute(testResult(), testConfig(t))

	area := math.Pi * 0.875 * 0.875
	wantLength := 1000 / area

	assert.InDelta(t, wantLength, r.TotalUsedFilament, 1e-9)
	assert.InDelta(t, 1000, r.TotalExtrudedVolume, 1e-12)
	assert.InDelta(t, 1.24, r.TotalWeight, 1e-12)
	assert.InDelta(t, 1.24*20/1000, r.TotalCost, 1e-12)

	assert.InDelta(t, wantLength, r.FilamentStats["0"], 1e-9)
	assert.InDelta(t, 1000, r.VolumesPerExtruder["0"], 1e-12)
	assert.InDelta(t, 900, r.ModelVolumesPerExtruder["0"], 1e-12)
	assert.InDelta(t, 80, r.SupportVolumesPerExtruder["0"], 1e-12)
	assert.InDelta(t, 15, r.WipeTowerVolumesPerExtruder["0"], 1e-12)
	assert.InDelta(t, 5, r.FlushVolumesPerExtruder["0"], 1e-12)
	assert.InDelta(t, 900/area, r.ModelLengthsPerExtruder["0"], 1e-9)
	assert.InDelta(t, 80/area, r.SupportLengthsPerExtruder["0"], 1e-9)
	assert.InDelta(t, 15/area, r.WipeTowerLengthsPerExtruder["0"], 1e-9)

	require.Contains(t, r.PrintTime, "normal")
	normal := r.PrintTime["normal"]
	assert.Equal(t, 3725.0, normal.TotalSeconds)
	assert.Equal(t, "1h 2m 5s", normal.Total)
	assert.Equal(t, 125.0, normal.PrepareSeconds)
	assert.Equal(t, "2m 5s", normal.Prepare)
	assert.Equal(t, 3500.0, normal.ModelSeconds)
	assert.Equal(t, "58m 20s", normal.Model)

	assert.NotContains(t, r.PrintTime, "silent")
	assert.Equal(t, 100.0, r.TimelapseSeconds)
	assert.Equal(t, "1m 40s", r.Timelapse)
}

func TestComputeModelTimeFloorsAtZero(t *testing.T) {
	res := testResult()
	res.TimelapseSeconds = 10000

	r := Compute(res, testConfig(t))
	assert.Zero(t, r.PrintTime["normal"].ModelSeconds)
}

func TestComputeSilentOnlyWhenEstimated(t *testing.T) {
	res := testResult()
	res.Times[engine.ModeSilent] = engine.TimeEstimate{TotalSeconds: 0}
	r := Compute(res, testConfig(t))
	assert.NotContains(t, r.PrintTime, "silent")

	res.Times[engine.ModeSilent] = engine.TimeEstimate{TotalSeconds: 4000, PrepareSeconds: 125}
	r = Compute(res, testConfig(t))
	require.Contains(t, r.PrintTime, "silent")
	assert.Equal(t, 4000.0, r.PrintTime["silent"].TotalSeconds)
}

func TestComputeDefaultsWithoutConfig(t *testing.T) {
	r := Compute(testResult(), nil)

	area := math.Pi * (DefaultFilamentDiameter / 2) * (DefaultFilamentDiameter / 2)
	assert.InDelta(t, 1000/area, r.TotalUsedFilament, 1e-9)
	assert.InDelta(t, 1000*DefaultFilamentDensity/1000, r.TotalWeight, 1e-12)
	assert.Zero(t, r.TotalCost)
}

func TestComputeMultiExtruder(t *testing.T) {
	res := testResult()
	res.Extruders[1] = engine.ExtruderUsage{TotalVolume: 500, ModelVolume: 500}
	res.ToolChanges = 7
	res.FilamentChanges = 3
	res.NozzleChanges = 1

	cfg := config.New()
	require.NoError(t, cfg.SetDeserialize("filament_diameter", "1.75,2.85"))
	// The cost vector is shorter; its last element repeats.
	require.NoError(t, cfg.SetDeserialize("filament_cost", "20"))

	r := Compute(res, cfg)

	area0 := math.Pi * 0.875 * 0.875
	area1 := math.Pi * 1.425 * 1.425
	assert.InDelta(t, 1000/area0, r.FilamentStats["0"], 1e-9)
	assert.InDelta(t, 500/area1, r.FilamentStats["1"], 1e-9)
	assert.InDelta(t, 1000/area0+500/area1, r.TotalUsedFilament, 1e-9)
	assert.InDelta(t, 1500, r.TotalExtrudedVolume, 1e-12)

	weight := 1500 * DefaultFilamentDensity / 1000
	assert.InDelta(t, weight, r.TotalWeight, 1e-12)
	assert.InDelta(t, weight*20/1000, r.TotalCost, 1e-12)

	assert.Equal(t, 7, r.TotalToolchanges)
	assert.Equal(t, 3, r.TotalFilamentChanges)
	assert.Equal(t, 1, r.TotalNozzleChanges)
}

func TestReportJSONKeys(t *testing.T) {
	data, err := Compute(testResult(), testConfig(t)).JSON()
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(data), &doc))

	for _, key := range []string{
		"total_used_filament", "total_extruded_volume", "total_weight", "total_cost",
		"total_toolchanges", "total_filament_changes", "total_nozzle_changes",
		"filament_stats",
		"volumes_per_extruder", "model_volumes_per_extruder",
		"support_volumes_per_extruder", "wipe_tower_volumes_per_extruder",
		"flush_volumes_per_extruder",
		"model_lengths_per_extruder", "support_lengths_per_extruder",
		"wipe_tower_lengths_per_extruder",
		"print_time", "timelapse_seconds", "timelapse",
	} {
		assert.Contains(t, doc, key)
	}

	printTime, ok := doc["print_time"].(map[string]any)
	require.True(t, ok)
	normal, ok := printTime["normal"].(map[string]any)
	require.True(t, ok)
	for _, key := range []string{"total_seconds", "total", "prepare_seconds", "prepare", "model_seconds", "model"} {
		assert.Contains(t, normal, key)
	}
}
