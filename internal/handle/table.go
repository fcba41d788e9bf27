// Package handle exposes sessions through an opaque handle table with
// integer result codes: the language-agnostic shape of the session
// boundary. Handles index into a table of exclusively-owned sessions
// rather than sharing pointers across a foreign-function boundary.
//
// The table itself is safe for concurrent use; the sessions behind the
// handles are not. Callers must serialize operations per handle.
package handle

import (
	"sync"

	"github.com/dimenl/slicerd/internal/slicer"
)

// Handle identifies one session in a Table. The zero handle is never
// allocated and is always safe to destroy.
type Handle int64

// Nil is the invalid handle.
const Nil Handle = 0

// Table owns sessions and maps handles to them.
type Table struct {
	mu       sync.Mutex
	next     Handle
	sessions map[Handle]*slicer.Session
}

// NewTable creates an empty handle table.
func NewTable() *Table {
	return &Table{sessions: make(map[Handle]*slicer.Session)}
}

// Create allocates a new empty session and returns its handle.
func (t *Table) Create(opts slicer.Options) Handle {
	s := slicer.New(opts)
	t.mu.Lock()
	defer t.mu.Unlock()
	t.next++
	h := t.next
	t.sessions[h] = s
	return h
}

// Destroy releases the session behind a handle and all state it owns.
// Destroying Nil or an already-destroyed handle is a no-op.
func (t *Table) Destroy(h Handle) {
	if h == Nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.sessions, h)
}

// Len returns the number of live sessions.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sessions)
}

func (t *Table) lookup(h Handle) (*slicer.Session, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.sessions[h]
	return s, ok
}

// LoadModel loads a model file into the session.
func (t *Table) LoadModel(h Handle, path string) slicer.Code {
	s, ok := t.lookup(h)
	if !ok {
		return slicer.CodeNullContext
	}
	return slicer.CodeOf(s.LoadModel(path))
}

// LoadConfigFromJSON is the documented stub; it always reports
// CodeConfigParse.
func (t *Table) LoadConfigFromJSON(h Handle, raw string) slicer.Code {
	s, ok := t.lookup(h)
	if !ok {
		return slicer.CodeNullContext
	}
	return slicer.CodeOf(s.LoadConfigFromJSON(raw))
}

// LoadPreset resolves and applies preset names; empty names skip their
// category.
func (t *Table) LoadPreset(h Handle, printer, filament, process string) slicer.Code {
	s, ok := t.lookup(h)
	if !ok {
		return slicer.CodeNullContext
	}
	return slicer.CodeOf(s.LoadPreset(printer, filament, process))
}

// SetConfigParam sets a single configuration parameter.
func (t *Table) SetConfigParam(h Handle, key, value string) slicer.Code {
	s, ok := t.lookup(h)
	if !ok {
		return slicer.CodeNullContext
	}
	return slicer.CodeOf(s.SetConfigParam(key, value))
}

// Process builds and validates the slicing plan.
func (t *Table) Process(h Handle) slicer.Code {
	s, ok := t.lookup(h)
	if !ok {
		return slicer.CodeNullContext
	}
	return slicer.CodeOf(s.Process())
}

// Export emits output at outputPath.
func (t *Table) Export(h Handle, outputPath string) slicer.Code {
	s, ok := t.lookup(h)
	if !ok {
		return slicer.CodeNullContext
	}
	return slicer.CodeOf(s.Export(outputPath))
}

// SliceAndExport runs Process then Export.
func (t *Table) SliceAndExport(h Handle, outputPath string) slicer.Code {
	s, ok := t.lookup(h)
	if !ok {
		return slicer.CodeNullContext
	}
	return slicer.CodeOf(s.SliceAndExport(outputPath))
}

// StatsJSON returns the statistics JSON; ok is false on any error.
// The returned string is recomputed by later calls; callers needing
// persistence must copy before the next operation.
func (t *Table) StatsJSON(h Handle) (string, bool) {
	s, ok := t.lookup(h)
	if !ok {
		return "", false
	}
	data, err := s.StatsJSON()
	return data, err == nil
}

// ConfigJSON returns the resolved configuration JSON.
func (t *Table) ConfigJSON(h Handle) (string, bool) {
	s, ok := t.lookup(h)
	if !ok {
		return "", false
	}
	data, err := s.ConfigJSON()
	return data, err == nil
}

// PresetInfoJSON returns the actually-selected preset names.
func (t *Table) PresetInfoJSON(h Handle) (string, bool) {
	s, ok := t.lookup(h)
	if !ok {
		return "", false
	}
	data, err := s.PresetInfoJSON()
	return data, err == nil
}

// LastError returns the session's error channel contents.
func (t *Table) LastError(h Handle) (string, bool) {
	s, ok := t.lookup(h)
	if !ok {
		return "", false
	}
	return s.LastError()
}

// ClearError clears the session's error channel.
func (t *Table) ClearError(h Handle) {
	if s, ok := t.lookup(h); ok {
		s.ClearError()
	}
}
