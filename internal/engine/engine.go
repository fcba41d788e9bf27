// Package engine defines the contract between the slicing session and
// the native slicing engine.
//
// The session never slices geometry itself: it prepares a model and a
// resolved configuration, hands them to an Engine, and captures the
// engine's per-extruder volumes and timing data. Engine implementations
// live outside this module (native bindings register themselves via
// Register); tests use testutil.FakeEngine.
package engine

import (
	"fmt"

	"github.com/dimenl/slicerd/internal/config"
	"github.com/dimenl/slicerd/internal/geometry"
)

// TimeMode identifies one of the engine's timing estimates.
type TimeMode string

const (
	ModeNormal TimeMode = "normal"
	ModeSilent TimeMode = "silent"
)

// TimeEstimate is the engine's elapsed-seconds estimate for one mode.
type TimeEstimate struct {
	// TotalSeconds is the full estimate including preparation.
	TotalSeconds float64

	// PrepareSeconds covers heat-up, bed leveling, and purge moves.
	PrepareSeconds float64
}

// ExtruderUsage carries the raw extruded volumes for one extruder slot,
// all in cubic millimeters.
type ExtruderUsage struct {
	TotalVolume     float64
	ModelVolume     float64
	SupportVolume   float64
	WipeTowerVolume float64
	FlushVolume     float64
}

// Result is the processing result captured from the engine after a
// successful process or export. Derived statistics (lengths, weights,
// costs, formatted times) are computed by the stats package, never here.
type Result struct {
	// Extruders maps extruder index to raw usage.
	Extruders map[int]ExtruderUsage

	// Times holds the per-mode timing estimates. ModeNormal is always
	// present; ModeSilent only when the engine produced one.
	Times map[TimeMode]TimeEstimate

	// TimelapseSeconds is the overhead spent on timelapse moves. Only
	// computed during export; zero after a bare process.
	TimelapseSeconds float64

	ToolChanges     int
	FilamentChanges int
	NozzleChanges   int

	// OutputPath is the path the engine actually wrote. Empty unless the
	// result came from an export.
	OutputPath string
}

// Plan is a processed, validated slicing plan owned by the engine.
type Plan interface {
	// Result returns the estimate captured at process time.
	Result() *Result

	// Export emits output at the given path and returns the richer
	// export-time result (including timelapse overhead).
	Export(outputPath string) (*Result, error)
}

// Engine converts geometry plus configuration into a validated plan.
//
// Implementations may panic on internal faults; the session recovers
// panics at its boundary. Prepare and Export are long-running blocking
// calls with no cancellation hook, per the session's contract.
type Engine interface {
	// Prepare builds and validates a slicing plan. A validation failure
	// returns a *ValidationError carrying the engine's message.
	Prepare(m *geometry.Model, cfg *config.Config) (Plan, error)

	// Version reports the engine build version.
	Version() string
}

// ValidationError is a plan that failed the engine's validation step:
// the design is unprintable as configured.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("print validation failed: %s", e.Message)
}
