package jobstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "jobs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndGet(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	job := Job{
		ID:             "job-1",
		ModelFile:      "benchy.stl",
		PrinterPreset:  "Bambu Lab A1 0.4 nozzle",
		FilamentPreset: "Bambu PLA Basic @BBL A1",
		ProcessPreset:  "0.20mm Standard @BBL A1",
		Status:         StatusDone,
		StatsJSON:      `{"total_weight":12.5}`,
	}
	require.NoError(t, s.Record(ctx, job))

	got, err := s.Get(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, job.ModelFile, got.ModelFile)
	assert.Equal(t, job.PrinterPreset, got.PrinterPreset)
	assert.Equal(t, StatusDone, got.Status)
	assert.Equal(t, job.StatsJSON, got.StatsJSON)
	assert.NotEmpty(t, got.CreatedAt)
}

func TestRecordFailedJob(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Record(ctx, Job{
		ID:        "job-2",
		ModelFile: "broken.stl",
		Status:    StatusFailed,
		Error:     "process: PROCESS_FAILED: print validation failed",
	}))

	got, err := s.Get(ctx, "job-2")
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, got.Status)
	assert.Contains(t, got.Error, "PROCESS_FAILED")
}

func TestGetNotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecordDuplicateID(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Record(ctx, Job{ID: "dup", ModelFile: "a.stl", Status: StatusDone}))
	assert.Error(t, s.Record(ctx, Job{ID: "dup", ModelFile: "b.stl", Status: StatusDone}))
}

func TestRecent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, s.Record(ctx, Job{ID: id, ModelFile: id + ".stl", Status: StatusDone}))
	}

	jobs, err := s.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	// Newest first; same-timestamp rows fall back to id ordering.
	assert.Equal(t, "c", jobs[0].ID)
	assert.Equal(t, "b", jobs[1].ID)
}

func TestOpenIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.db")

	s1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s1.Record(context.Background(), Job{ID: "x", ModelFile: "x.stl", Status: StatusDone}))
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	got, err := s2.Get(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "x.stl", got.ModelFile)
}
