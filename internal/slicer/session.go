// Package slicer implements the slicing session state machine: the
// stable boundary over the native slicing engine.
//
// A Session owns exactly one geometry tree, one resolved configuration,
// one processing result, one last-error string, and the cached derived
// JSON artifacts (stats, config, preset info). Lifecycle:
//
//	load model -> load presets / set parameters -> process -> export
//
// Any mutation of model or configuration invalidates prior processing
// and the derived JSON caches. Cache validity is tracked with explicit
// per-artifact tags flipped by the specific mutating operations, never
// inferred from emptiness.
//
// Sessions are single-threaded and non-reentrant: no internal
// synchronization exists, and callers must serialize access to one
// session or use one session per worker. Process and Export are
// blocking calls with no cancellation hook; bounded latency must be
// enforced outside the session.
package slicer

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/dimenl/slicerd/internal/config"
	"github.com/dimenl/slicerd/internal/engine"
	"github.com/dimenl/slicerd/internal/geometry"
	"github.com/dimenl/slicerd/internal/preset"
	"github.com/dimenl/slicerd/internal/stats"
)

// Options configures a session at construction time. Directory
// configuration is explicit here rather than process-wide global state,
// so sessions in one process cannot race on first-use initialization.
type Options struct {
	// Engine is the slicing engine to delegate to. Defaults to the
	// registered process engine.
	Engine engine.Engine

	// Loaders maps model file extensions to format loaders.
	Loaders *geometry.Registry

	// ResourcesDir locates the bundled preset profiles. Read once, on
	// the session's first load_preset call.
	ResourcesDir string

	// Logger defaults to slog.Default.
	Logger *slog.Logger
}

// artifact is one cached derived JSON blob with an explicit validity tag.
type artifact struct {
	valid bool
	data  string
}

func (a *artifact) set(data string) {
	a.valid = true
	a.data = data
}

func (a *artifact) invalidate() {
	a.valid = false
	a.data = ""
}

// Session is the slicing session state machine. See the package
// documentation for the ownership and threading contract.
type Session struct {
	engine       engine.Engine
	loaders      *geometry.Registry
	resourcesDir string
	log          *slog.Logger

	model  *geometry.Model
	cfg    *config.Config
	plan   engine.Plan
	result *engine.Result

	modelLoaded  bool
	configLoaded bool
	processed    bool

	// Preset catalog state. Loaded at most once per session; a failed
	// load is sticky and never retried (create a new session to retry).
	catalog       *preset.Catalog
	catalogLoaded bool
	catalogErr    error
	selection     preset.Selection

	lastErr string

	statsCache  artifact
	configCache artifact
	presetCache artifact
}

// New creates an empty session: no model, no configuration, not
// processed.
func New(opts Options) *Session {
	eng := opts.Engine
	if eng == nil {
		eng = engine.Default()
	}
	loaders := opts.Loaders
	if loaders == nil {
		loaders = geometry.NewRegistry()
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Session{
		engine:       eng,
		loaders:      loaders,
		resourcesDir: opts.ResourcesDir,
		log:          log,
	}
}

// begin starts a public operation: the error channel is cleared on
// entry to every public operation and set again only on failure.
func (s *Session) begin() {
	s.lastErr = ""
}

// fail records the failure on the error channel and returns it.
func (s *Session) fail(err *Error) error {
	s.lastErr = err.Message
	return err
}

// invalidateDerived drops the stats and config JSON caches. Called on
// every model or configuration mutation.
func (s *Session) invalidateDerived() {
	s.statsCache.invalidate()
	s.configCache.invalidate()
}

// dropPlan discards the processing plan and its result.
func (s *Session) dropPlan() {
	s.processed = false
	s.plan = nil
	s.result = nil
}

// LoadModel parses a model file by extension and replaces the session's
// geometry. Supported extensions: 3mf, stl, amf, obj (case-insensitive).
// On failure the previous geometry and the model_loaded flag are kept.
func (s *Session) LoadModel(path string) error {
	s.begin()

	if path == "" {
		return s.fail(newError(CodeNullParameter, "load_model", "model path is empty"))
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if !geometry.Supported(ext) {
		return s.fail(newError(CodeModelLoad, "load_model", "unsupported file format: "+ext))
	}
	loader, ok := s.loaders.Lookup(ext)
	if !ok {
		return s.fail(newError(CodeModelLoad, "load_model",
			fmt.Sprintf("no loader available for format: %s", ext)))
	}

	m, err := s.loadWith(loader, path)
	if err != nil {
		return s.fail(newError(CodeModelLoad, "load_model",
			fmt.Sprintf("failed to load model from file %s: %v", path, err)))
	}
	if m.Empty() {
		return s.fail(newError(CodeModelLoad, "load_model",
			"failed to load model from file "+path+": no objects"))
	}

	s.model = m
	s.modelLoaded = true
	s.dropPlan()
	s.invalidateDerived()
	s.log.Debug("model loaded", "path", path, "objects", len(m.Objects))
	return nil
}

// loadWith invokes a format loader with panic recovery. Loaders are
// external collaborators; their faults must not escape the session.
func (s *Session) loadWith(l geometry.Loader, path string) (m *geometry.Model, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("loader panic: %v", r)
		}
	}()
	return l.Load(path)
}

// LoadPreset resolves the given preset names (any subset may be empty)
// and replaces the session configuration with the layered result:
// defaults, then printer, filament, and process preset layers. On any
// resolution failure no session state is mutated.
func (s *Session) LoadPreset(printer, filament, process string) error {
	s.begin()

	if !s.catalogLoaded {
		s.catalogLoaded = true
		s.catalog, s.catalogErr = preset.Load(s.resourcesDir)
		if s.catalogErr != nil {
			s.log.Warn("preset catalog load failed", "resources", s.resourcesDir, "error", s.catalogErr)
		}
	}
	if s.catalogErr != nil {
		return s.fail(newError(CodeIO, "load_preset",
			fmt.Sprintf("preset catalog unavailable: %v", s.catalogErr)))
	}

	var printerPreset, filamentPreset, processPreset *preset.Preset
	var err error
	if printer != "" {
		printerPreset, err = s.catalog.Select(preset.CategoryPrinter, printer)
		if err != nil {
			return s.fail(newError(CodePresetNotFound, "load_preset", err.Error()))
		}
	}
	if filament != "" {
		filamentPreset, err = s.catalog.Select(preset.CategoryFilament, filament)
		if err != nil {
			return s.fail(newError(CodePresetNotFound, "load_preset", err.Error()))
		}
	}
	if process != "" {
		processPreset, err = s.catalog.Select(preset.CategoryProcess, process)
		if err != nil {
			return s.fail(newError(CodePresetNotFound, "load_preset", err.Error()))
		}
	}

	s.cfg = s.catalog.LayerConfig(printerPreset, filamentPreset, processPreset)
	s.configLoaded = true
	s.dropPlan()
	s.invalidateDerived()
	s.presetCache.invalidate()

	if printerPreset != nil {
		s.selection.Printer = printerPreset.Name
	}
	if filamentPreset != nil {
		s.selection.Filament = filamentPreset.Name
	}
	if processPreset != nil {
		s.selection.Process = processPreset.Name
	}
	s.log.Debug("presets applied",
		"printer", s.selection.Printer,
		"filament", s.selection.Filament,
		"process", s.selection.Process,
		"keys", s.cfg.Len())
	return nil
}

// SetConfigParam deserializes one configuration value under key. A
// failed deserialization leaves the configuration and the config_loaded
// flag unchanged.
func (s *Session) SetConfigParam(key, value string) error {
	s.begin()

	if key == "" || value == "" {
		return s.fail(newError(CodeNullParameter, "set_config_param", "config key or value is empty"))
	}
	if s.cfg == nil {
		s.cfg = config.New()
	}
	if err := s.cfg.SetDeserialize(key, value); err != nil {
		return s.fail(newError(CodeConfigParse, "set_config_param", err.Error()))
	}

	s.configLoaded = true
	s.dropPlan()
	s.invalidateDerived()
	return nil
}

// LoadConfigFromJSON is an explicit, documented stub: whole-document
// JSON configuration loading is not supported at this boundary, and the
// operation always fails with CodeConfigParse for any input. Callers
// must use SetConfigParam per key instead.
func (s *Session) LoadConfigFromJSON(raw string) error {
	s.begin()
	_ = raw
	return s.fail(newError(CodeConfigParse, "load_config_from_json",
		"JSON config loading is not supported; set configuration parameters individually"))
}

// Process builds and validates a slicing plan from the loaded model and
// configuration. Every object gets at least one placed instance, and all
// instances are recentered on the bed center when the configuration
// carries a printable_area outline. Without one no recentring happens
// and the engine's default layout applies; that is degraded behavior,
// not an error.
func (s *Session) Process() error {
	s.begin()

	if !s.modelLoaded {
		return s.fail(newError(CodeNoModel, "process", "no model loaded"))
	}
	if !s.configLoaded {
		return s.fail(newError(CodeNoConfig, "process", "no configuration loaded"))
	}

	s.model.EnsureDefaultInstances()
	if pts, ok := s.cfg.Points("printable_area"); ok {
		points := make([]geometry.Point, len(pts))
		for i, p := range pts {
			points[i] = geometry.Point{X: p[0], Y: p[1]}
		}
		center := geometry.BoundingBoxOf(points).Center()
		s.model.CenterInstances(center)
		s.log.Debug("instances centered", "x", center.X, "y", center.Y)
	} else {
		s.log.Debug("printable_area not configured, skipping recentring")
	}

	plan, err := s.prepare()
	if err != nil {
		return s.fail(newError(CodeProcessFailed, "process", err.Error()))
	}

	s.plan = plan
	s.result = plan.Result()
	s.processed = true
	s.statsCache.invalidate()
	return nil
}

// prepare invokes the engine with panic recovery; no engine fault may
// escape the session as a panic.
func (s *Session) prepare() (plan engine.Plan, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("engine panic: %v", r)
		}
	}()
	return s.engine.Prepare(s.model, s.cfg)
}

// Export emits output at outputPath via the engine and captures the
// export-time processing result, which is richer than the process-time
// estimate (it includes overhead the engine only computes during
// export, such as timelapse time). The stats JSON cache is populated
// from this result and preferred until the next invalidating mutation.
func (s *Session) Export(outputPath string) error {
	s.begin()

	if !s.processed {
		return s.fail(newError(CodeProcessFailed, "export", "model not processed yet"))
	}
	if outputPath == "" {
		return s.fail(newError(CodeNullParameter, "export", "output path is empty"))
	}

	res, err := s.export(outputPath)
	if err != nil {
		return s.fail(newError(CodeExportFailed, "export", err.Error()))
	}
	if res.OutputPath == "" {
		return s.fail(newError(CodeExportFailed, "export", "engine returned empty output path"))
	}

	s.result = res
	data, jerr := stats.Compute(res, s.cfg).JSON()
	if jerr != nil {
		return s.fail(newError(CodeInternal, "export", "marshaling statistics: "+jerr.Error()))
	}
	s.statsCache.set(data)
	s.log.Debug("export complete", "path", res.OutputPath)
	return nil
}

func (s *Session) export(outputPath string) (res *engine.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("engine panic: %v", r)
		}
	}()
	return s.plan.Export(outputPath)
}

// SliceAndExport runs Process then, only if it succeeded, Export.
func (s *Session) SliceAndExport(outputPath string) error {
	if err := s.Process(); err != nil {
		return err
	}
	return s.Export(outputPath)
}

// StatsJSON returns the derived statistics JSON. Only valid after a
// successful Process; the cache populated by a successful Export wins
// over a fresh recomputation until the next invalidating mutation.
func (s *Session) StatsJSON() (string, error) {
	s.begin()

	if !s.processed {
		return "", s.fail(newError(CodeProcessFailed, "get_stats", "model not processed yet"))
	}
	if s.statsCache.valid {
		return s.statsCache.data, nil
	}
	if s.result == nil {
		return "", s.fail(newError(CodeInternal, "get_stats", "no processing result available"))
	}
	data, err := stats.Compute(s.result, s.cfg).JSON()
	if err != nil {
		return "", s.fail(newError(CodeInternal, "get_stats", "marshaling statistics: "+err.Error()))
	}
	s.statsCache.set(data)
	return data, nil
}

// ConfigJSON returns the resolved configuration as a deterministic JSON
// object, cached until the next configuration mutation. Only valid
// after a successful configuration mutation.
func (s *Session) ConfigJSON() (string, error) {
	s.begin()

	if !s.configLoaded {
		return "", s.fail(newError(CodeNoConfig, "get_config", "no configuration loaded"))
	}
	if s.configCache.valid {
		return s.configCache.data, nil
	}
	data, err := json.Marshal(s.cfg)
	if err != nil {
		return "", s.fail(newError(CodeInternal, "get_config", "marshaling configuration: "+err.Error()))
	}
	s.configCache.set(string(data))
	return s.configCache.data, nil
}

// presetInfo is the preset-info JSON shape: null for any category never
// successfully selected.
type presetInfo struct {
	Printer  *string `json:"printer_preset"`
	Filament *string `json:"filament_preset"`
	Process  *string `json:"process_preset"`
}

// PresetInfoJSON returns the actually-selected preset names.
func (s *Session) PresetInfoJSON() (string, error) {
	s.begin()

	if s.presetCache.valid {
		return s.presetCache.data, nil
	}
	info := presetInfo{
		Printer:  optional(s.selection.Printer),
		Filament: optional(s.selection.Filament),
		Process:  optional(s.selection.Process),
	}
	data, err := json.Marshal(info)
	if err != nil {
		return "", s.fail(newError(CodeInternal, "get_preset_info", err.Error()))
	}
	s.presetCache.set(string(data))
	return s.presetCache.data, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// LastError returns the error channel contents; ok is false when empty.
func (s *Session) LastError() (msg string, ok bool) {
	return s.lastErr, s.lastErr != ""
}

// ClearError clears the error channel without performing any other work.
func (s *Session) ClearError() {
	s.lastErr = ""
}

// ModelLoaded reports whether a model is currently loaded.
func (s *Session) ModelLoaded() bool { return s.modelLoaded }

// ConfigLoaded reports whether a configuration has been established.
func (s *Session) ConfigLoaded() bool { return s.configLoaded }

// Processed reports whether the last loaded model and configuration have
// been processed and remain unchanged since.
func (s *Session) Processed() bool { return s.processed }

// Selection returns the actually-selected preset names so far.
func (s *Session) Selection() preset.Selection { return s.selection }
