// Package testutil provides fakes and fixtures for session tests: a
// deterministic engine, a static format loader, and a preset catalog
// writer.
package testutil

import (
	"errors"
	"fmt"
	"os"

	"github.com/dimenl/slicerd/internal/config"
	"github.com/dimenl/slicerd/internal/engine"
	"github.com/dimenl/slicerd/internal/geometry"
)

// FakeEngine is a deterministic engine.Engine for tests. It records
// calls and returns a configurable result; failure switches simulate
// validation and export faults.
type FakeEngine struct {
	// Result template returned by plans. Export adds ExportTimelapse
	// and sets OutputPath.
	Result engine.Result

	// ExportTimelapse is the timelapse overhead only the export step
	// computes.
	ExportTimelapse float64

	// PrepareErr fails Prepare with this error.
	PrepareErr error

	// ValidationMessage, when set, fails Prepare with a
	// *engine.ValidationError carrying it.
	ValidationMessage string

	// ExportErr fails Export with this error.
	ExportErr error

	// ExportEmptyPath makes Export return a result with no output path.
	ExportEmptyPath bool

	// PanicOnPrepare makes Prepare panic, exercising boundary recovery.
	PanicOnPrepare bool

	// WriteOutput, when set, writes this content at the export path.
	WriteOutput []byte

	PrepareCalls int
	ExportCalls  int
	LastModel    *geometry.Model
	LastConfig   *config.Config
}

// NewFakeEngine returns a fake with a plausible single-extruder result.
func NewFakeEngine() *FakeEngine {
	return &FakeEngine{
		Result: engine.Result{
			Extruders: map[int]engine.ExtruderUsage{
				0: {
					TotalVolume:   1000,
					ModelVolume:   900,
					SupportVolume: 80,
					FlushVolume:   5,
				},
			},
			Times: map[engine.TimeMode]engine.TimeEstimate{
				engine.ModeNormal: {TotalSeconds: 3725, PrepareSeconds: 125},
			},
		},
		ExportTimelapse: 0,
	}
}

// Prepare implements engine.Engine.
func (f *FakeEngine) Prepare(m *geometry.Model, cfg *config.Config) (engine.Plan, error) {
	f.PrepareCalls++
	f.LastModel = m
	f.LastConfig = cfg
	if f.PanicOnPrepare {
		panic("fake engine fault")
	}
	if f.ValidationMessage != "" {
		return nil, &engine.ValidationError{Message: f.ValidationMessage}
	}
	if f.PrepareErr != nil {
		return nil, f.PrepareErr
	}
	return &fakePlan{eng: f}, nil
}

// Version implements engine.Engine.
func (f *FakeEngine) Version() string { return "fake-1.0" }

type fakePlan struct {
	eng *FakeEngine
}

func (p *fakePlan) Result() *engine.Result {
	res := cloneResult(p.eng.Result)
	return &res
}

func (p *fakePlan) Export(outputPath string) (*engine.Result, error) {
	p.eng.ExportCalls++
	if p.eng.ExportErr != nil {
		return nil, p.eng.ExportErr
	}
	res := cloneResult(p.eng.Result)
	res.TimelapseSeconds = p.eng.ExportTimelapse
	if !p.eng.ExportEmptyPath {
		res.OutputPath = outputPath
	}
	if p.eng.WriteOutput != nil {
		if err := os.WriteFile(outputPath, p.eng.WriteOutput, 0o644); err != nil {
			return nil, fmt.Errorf("writing output: %w", err)
		}
	}
	return &res, nil
}

func cloneResult(res engine.Result) engine.Result {
	out := res
	out.Extruders = make(map[int]engine.ExtruderUsage, len(res.Extruders))
	for k, v := range res.Extruders {
		out.Extruders[k] = v
	}
	out.Times = make(map[engine.TimeMode]engine.TimeEstimate, len(res.Times))
	for k, v := range res.Times {
		out.Times[k] = v
	}
	return out
}

// ErrLoaderBroken is the default failure for BrokenLoader.
var ErrLoaderBroken = errors.New("parse failure")
