package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dimenl/slicerd/internal/jobstore"
	"github.com/dimenl/slicerd/internal/testutil"
)

func testHandlers(t *testing.T) (*Handlers, *testutil.FakeEngine) {
	t.Helper()
	eng := testutil.NewFakeEngine()
	eng.WriteOutput = []byte("G1 X10 Y10\nG1 E5\n")
	reg, _ := testutil.NewRegistry(1)

	cfg := DefaultConfig()
	cfg.ResourcesDir = testutil.WriteCatalog(t)
	return NewHandlers(cfg, eng, reg), eng
}

// multipartBody builds a multipart form with a model file and an
// optional config field.
func multipartBody(t *testing.T, filename, configJSON string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if filename != "" {
		fw, err := w.CreateFormFile("model", filename)
		require.NoError(t, err)
		_, err = fw.Write([]byte("solid cube\nendsolid cube\n"))
		require.NoError(t, err)
	}
	if configJSON != "" {
		require.NoError(t, w.WriteField("config", configJSON))
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func postSlice(t *testing.T, h *Handlers, filename, configJSON string) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, filename, configJSON)
	req := httptest.NewRequest(http.MethodPost, "/v1/slice", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	h, _ := testHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, "fake-1.0", body.EngineVersion)
	assert.NotEmpty(t, body.Version)
}

func TestSlice(t *testing.T) {
	h, eng := testHandlers(t)

	rec := postSlice(t, h, "cube.stl", `{
		"printer_preset": "A1",
		"filament_preset": "PLA Basic",
		"process_preset": "0.20mm",
		"custom_params": [["layer_height", "0.28"]]
	}`)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var body sliceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body.JobID)

	gcode, err := base64.StdEncoding.DecodeString(body.GCode)
	require.NoError(t, err)
	assert.Equal(t, eng.WriteOutput, gcode)

	var stats map[string]any
	require.NoError(t, json.Unmarshal(body.Stats, &stats))
	assert.Contains(t, stats, "total_used_filament")

	var presets map[string]any
	require.NoError(t, json.Unmarshal(body.Presets, &presets))
	assert.Equal(t, "Bambu Lab A1 0.4 nozzle", presets["printer_preset"])

	var cfg map[string]any
	require.NoError(t, json.Unmarshal(body.Config, &cfg))
	assert.Equal(t, "0.28", cfg["layer_height"])
}

func TestSliceDefaultPresets(t *testing.T) {
	h, _ := testHandlers(t)

	rec := postSlice(t, h, "cube.stl", "")

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var body sliceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	var presets map[string]any
	require.NoError(t, json.Unmarshal(body.Presets, &presets))
	assert.Equal(t, "Bambu Lab A1 0.4 nozzle", presets["printer_preset"])
	assert.Equal(t, "Bambu PLA Basic @BBL A1", presets["filament_preset"])
	assert.Equal(t, "0.20mm Standard @BBL A1", presets["process_preset"])
}

func TestSliceMissingModel(t *testing.T) {
	h, _ := testHandlers(t)

	rec := postSlice(t, h, "", `{"printer_preset":"A1"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body.Details, "no model file")
}

func TestSliceMalformedConfig(t *testing.T) {
	h, _ := testHandlers(t)

	rec := postSlice(t, h, "cube.stl", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSliceUnknownPreset(t *testing.T) {
	h, _ := testHandlers(t)

	rec := postSlice(t, h, "cube.stl", `{"filament_preset":"Unobtanium"}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body.Details, "Unobtanium")
}

func TestSliceUnsupportedFormat(t *testing.T) {
	h, _ := testHandlers(t)

	rec := postSlice(t, h, "cube.step", `{"printer_preset":"A1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSliceBadCustomParam(t *testing.T) {
	h, _ := testHandlers(t)

	rec := postSlice(t, h, "cube.stl", `{
		"printer_preset": "A1",
		"custom_params": [["layer_height", "thick"]]
	}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestSliceEngineFailure(t *testing.T) {
	h, eng := testHandlers(t)
	eng.ValidationMessage = "object outside printable area"

	rec := postSlice(t, h, "cube.stl", `{"printer_preset":"A1"}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body.Details, "object outside printable area")
}

func TestJobHistory(t *testing.T) {
	h, _ := testHandlers(t)
	jobs, err := jobstore.Open(filepath.Join(t.TempDir(), "jobs.db"))
	require.NoError(t, err)
	defer jobs.Close()
	h.WithJobStore(jobs)

	rec := postSlice(t, h, "cube.stl", `{"printer_preset":"A1"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var body sliceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	req := httptest.NewRequest(http.MethodGet, "/v1/jobs/"+body.JobID, nil)
	getRec := httptest.NewRecorder()
	h.Router().ServeHTTP(getRec, req)

	require.Equal(t, http.StatusOK, getRec.Code)
	var job jobstore.Job
	require.NoError(t, json.Unmarshal(getRec.Body.Bytes(), &job))
	assert.Equal(t, body.JobID, job.ID)
	assert.Equal(t, "cube.stl", job.ModelFile)
	assert.Equal(t, jobstore.StatusDone, job.Status)
}

func TestJobHistoryRecordsFailures(t *testing.T) {
	h, eng := testHandlers(t)
	jobs, err := jobstore.Open(filepath.Join(t.TempDir(), "jobs.db"))
	require.NoError(t, err)
	defer jobs.Close()
	h.WithJobStore(jobs)

	eng.PanicOnPrepare = true
	rec := postSlice(t, h, "cube.stl", `{"printer_preset":"A1"}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	recent, err := jobs.Recent(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, jobstore.StatusFailed, recent[0].Status)
	assert.NotEmpty(t, recent[0].Error)
}

func TestGetJobNotFound(t *testing.T) {
	h, _ := testHandlers(t)
	jobs, err := jobstore.Open(filepath.Join(t.TempDir(), "jobs.db"))
	require.NoError(t, err)
	defer jobs.Close()
	h.WithJobStore(jobs)

	req := httptest.NewRequest(http.MethodGet, "/v1/jobs/missing", nil)
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetJobHistoryDisabled(t *testing.T) {
	h, _ := testHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/jobs/any", nil)
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
