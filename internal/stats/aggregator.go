// Package stats converts raw engine output into the derived statistics
// JSON: filament lengths, weights, costs, and time breakdowns. All
// fields are pure arithmetic over the processing result and the
// configured filament properties; nothing here calls back into the
// engine.
package stats

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"

	"github.com/dimenl/slicerd/internal/config"
	"github.com/dimenl/slicerd/internal/engine"
)

// Defaults applied when the configuration does not carry a filament
// property for an extruder. Diameter in mm, density in g/cm3 (PLA),
// cost per kilogram.
const (
	DefaultFilamentDiameter = 1.75
	DefaultFilamentDensity  = 1.24
	DefaultFilamentCost     = 0
)

// TimeBlock is one timing mode's breakdown. Model time is the portion
// spent printing the model itself: total minus preparation minus
// timelapse overhead, floored at zero.
type TimeBlock struct {
	TotalSeconds   float64 `json:"total_seconds"`
	Total          string  `json:"total"`
	PrepareSeconds float64 `json:"prepare_seconds"`
	Prepare        string  `json:"prepare"`
	ModelSeconds   float64 `json:"model_seconds"`
	Model          string  `json:"model"`
}

// Report is the stats JSON document. The key set and nesting are a
// compatibility surface consumed by the HTTP layer; field names must
// not change.
type Report struct {
	TotalUsedFilament   float64 `json:"total_used_filament"`
	TotalExtrudedVolume float64 `json:"total_extruded_volume"`
	TotalWeight         float64 `json:"total_weight"`
	TotalCost           float64 `json:"total_cost"`

	TotalToolchanges     int `json:"total_toolchanges"`
	TotalFilamentChanges int `json:"total_filament_changes"`
	TotalNozzleChanges   int `json:"total_nozzle_changes"`

	FilamentStats map[string]float64 `json:"filament_stats"`

	VolumesPerExtruder          map[string]float64 `json:"volumes_per_extruder"`
	ModelVolumesPerExtruder     map[string]float64 `json:"model_volumes_per_extruder"`
	SupportVolumesPerExtruder   map[string]float64 `json:"support_volumes_per_extruder"`
	WipeTowerVolumesPerExtruder map[string]float64 `json:"wipe_tower_volumes_per_extruder"`
	FlushVolumesPerExtruder     map[string]float64 `json:"flush_volumes_per_extruder"`

	ModelLengthsPerExtruder     map[string]float64 `json:"model_lengths_per_extruder"`
	SupportLengthsPerExtruder   map[string]float64 `json:"support_lengths_per_extruder"`
	WipeTowerLengthsPerExtruder map[string]float64 `json:"wipe_tower_lengths_per_extruder"`

	PrintTime map[string]TimeBlock `json:"print_time"`

	TimelapseSeconds float64 `json:"timelapse_seconds"`
	Timelapse        string  `json:"timelapse"`
}

// Filament returns the configured diameter/density/cost for an extruder,
// falling back to the package defaults where the configuration is
// silent.
type Filament struct {
	Diameter  float64
	Density   float64
	CostPerKg float64
}

func filamentFor(cfg *config.Config, extruder int) Filament {
	if cfg == nil {
		return Filament{Diameter: DefaultFilamentDiameter, Density: DefaultFilamentDensity, CostPerKg: DefaultFilamentCost}
	}
	return Filament{
		Diameter:  cfg.FloatAt("filament_diameter", extruder, DefaultFilamentDiameter),
		Density:   cfg.FloatAt("filament_density", extruder, DefaultFilamentDensity),
		CostPerKg: cfg.FloatAt("filament_cost", extruder, DefaultFilamentCost),
	}
}

// Area returns the filament cross-sectional area in mm2.
func (f Filament) Area() float64 {
	r := f.Diameter / 2
	return math.Pi * r * r
}

// LengthFromVolume converts an extruded volume (mm3) to filament length
// (mm). Zero area yields zero length rather than infinity.
func (f Filament) LengthFromVolume(volume float64) float64 {
	area := f.Area()
	if area == 0 {
		return 0
	}
	return volume / area
}

// WeightFromVolume converts an extruded volume (mm3) to grams.
func (f Filament) WeightFromVolume(volume float64) float64 {
	return volume * f.Density / 1000
}

// Compute builds the report from a processing result and the session
// configuration.
func Compute(res *engine.Result, cfg *config.Config) *Report {
	r := &Report{
		TotalToolchanges:     res.ToolChanges,
		TotalFilamentChanges: res.FilamentChanges,
		TotalNozzleChanges:   res.NozzleChanges,

		FilamentStats: make(map[string]float64),

		VolumesPerExtruder:          make(map[string]float64),
		ModelVolumesPerExtruder:     make(map[string]float64),
		SupportVolumesPerExtruder:   make(map[string]float64),
		WipeTowerVolumesPerExtruder: make(map[string]float64),
		FlushVolumesPerExtruder:     make(map[string]float64),

		ModelLengthsPerExtruder:     make(map[string]float64),
		SupportLengthsPerExtruder:   make(map[string]float64),
		WipeTowerLengthsPerExtruder: make(map[string]float64),

		PrintTime: make(map[string]TimeBlock),

		TimelapseSeconds: res.TimelapseSeconds,
		Timelapse:        FormatDHMS(res.TimelapseSeconds),
	}

	for _, idx := range extruderIndices(res) {
		usage := res.Extruders[idx]
		fil := filamentFor(cfg, idx)
		key := strconv.Itoa(idx)

		length := fil.LengthFromVolume(usage.TotalVolume)
		weight := fil.WeightFromVolume(usage.TotalVolume)
		cost := weight * fil.CostPerKg / 1000

		r.TotalUsedFilament += length
		r.TotalExtrudedVolume += usage.TotalVolume
		r.TotalWeight += weight
		r.TotalCost += cost

		r.FilamentStats[key] = length

		r.VolumesPerExtruder[key] = usage.TotalVolume
		r.ModelVolumesPerExtruder[key] = usage.ModelVolume
		r.SupportVolumesPerExtruder[key] = usage.SupportVolume
		r.WipeTowerVolumesPerExtruder[key] = usage.WipeTowerVolume
		r.FlushVolumesPerExtruder[key] = usage.FlushVolume

		r.ModelLengthsPerExtruder[key] = fil.LengthFromVolume(usage.ModelVolume)
		r.SupportLengthsPerExtruder[key] = fil.LengthFromVolume(usage.SupportVolume)
		r.WipeTowerLengthsPerExtruder[key] = fil.LengthFromVolume(usage.WipeTowerVolume)
	}

	if est, ok := res.Times[engine.ModeNormal]; ok {
		r.PrintTime[string(engine.ModeNormal)] = timeBlock(est, res.TimelapseSeconds)
	}
	// Silent mode is only reported when the engine produced a nonzero
	// estimate for it.
	if est, ok := res.Times[engine.ModeSilent]; ok && est.TotalSeconds > 0 {
		r.PrintTime[string(engine.ModeSilent)] = timeBlock(est, res.TimelapseSeconds)
	}

	return r
}

// JSON renders the report as a JSON string.
func (r *Report) JSON() (string, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func timeBlock(est engine.TimeEstimate, timelapse float64) TimeBlock {
	model := est.TotalSeconds - est.PrepareSeconds - timelapse
	if model < 0 {
		model = 0
	}
	return TimeBlock{
		TotalSeconds:   est.TotalSeconds,
		Total:          FormatDHMS(est.TotalSeconds),
		PrepareSeconds: est.PrepareSeconds,
		Prepare:        FormatDHMS(est.PrepareSeconds),
		ModelSeconds:   model,
		Model:          FormatDHMS(model),
	}
}

func extruderIndices(res *engine.Result) []int {
	idx := make([]int, 0, len(res.Extruders))
	for i := range res.Extruders {
		idx = append(idx, i)
	}
	sort.Ints(idx)
	return idx
}
