package service

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dimenl/slicerd/internal/jobstore"
	"github.com/dimenl/slicerd/internal/slicer"
)

// sliceRequest is the optional JSON config part of a slice upload.
type sliceRequest struct {
	PrinterPreset  string      `json:"printer_preset"`
	FilamentPreset string      `json:"filament_preset"`
	ProcessPreset  string      `json:"process_preset"`
	CustomParams   [][2]string `json:"custom_params"`
}

// sliceResponse is the successful slice body.
type sliceResponse struct {
	JobID   string          `json:"job_id"`
	Stats   json.RawMessage `json:"stats"`
	Presets json.RawMessage `json:"presets"`
	Config  json.RawMessage `json:"config"`
	GCode   string          `json:"gcode"`
}

// errorResponse is the failure body for all endpoints.
type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// HandleSlice handles POST /v1/slice.
//
// Multipart form fields:
//   - model: the model file (3mf, stl, amf, obj)
//   - config: optional JSON sliceRequest
//
// The handler drives one session through load_model, preset/parameter
// configuration, slice_and_export, and the derived JSON getters.
func (h *Handlers) HandleSlice(c *gin.Context) {
	jobID := uuid.Must(uuid.NewV7()).String()
	logger := h.log.With("job_id", jobID)

	if h.cfg.MaxBodyBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.cfg.MaxBodyBytes)
	}

	fileHeader, err := c.FormFile("model")
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request", Details: "no model file provided"})
		return
	}

	req, err := parseConfigPart(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request", Details: err.Error()})
		return
	}
	if req == nil {
		def := h.cfg.DefaultPresets
		req = &sliceRequest{
			PrinterPreset:  def.Printer,
			FilamentPreset: def.Filament,
			ProcessPreset:  def.Process,
		}
	}

	tempDir, err := os.MkdirTemp("", "slicerd-job-*")
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "I/O error", Details: err.Error()})
		return
	}
	defer os.RemoveAll(tempDir)

	modelPath := filepath.Join(tempDir, filepath.Base(fileHeader.Filename))
	if err := c.SaveUploadedFile(fileHeader, modelPath); err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "I/O error", Details: err.Error()})
		return
	}
	outputPath := filepath.Join(tempDir, "output.gcode")

	logger.Info("slicing job started", "model", fileHeader.Filename)

	sess := h.newSession()
	resp, sliceErr := h.runJob(sess, req, modelPath, outputPath)
	h.recordJob(c, jobID, fileHeader.Filename, req, resp, sliceErr)

	if sliceErr != nil {
		msg, _ := sess.LastError()
		logger.Warn("slicing job failed", "code", slicer.CodeOf(sliceErr), "error", msg)
		c.JSON(statusForCode(slicer.CodeOf(sliceErr)), errorResponse{
			Error:   "slicing failed",
			Details: msg,
		})
		return
	}

	resp.JobID = jobID
	logger.Info("slicing job finished")
	c.JSON(http.StatusOK, resp)
}

// parseConfigPart reads the optional config form field. Returns nil
// when the field is absent.
func parseConfigPart(c *gin.Context) (*sliceRequest, error) {
	vals, ok := c.GetPostForm("config")
	if !ok {
		// The config may also arrive as a file part.
		fh, err := c.FormFile("config")
		if err != nil {
			return nil, nil
		}
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			return nil, err
		}
		vals = string(data)
	}
	var req sliceRequest
	if err := json.Unmarshal([]byte(vals), &req); err != nil {
		return nil, err
	}
	return &req, nil
}

// runJob drives the session through the full sequence and assembles the
// response body (job id filled in by the caller).
func (h *Handlers) runJob(sess *slicer.Session, req *sliceRequest, modelPath, outputPath string) (*sliceResponse, error) {
	if err := sess.LoadModel(modelPath); err != nil {
		return nil, err
	}
	if req.PrinterPreset != "" || req.FilamentPreset != "" || req.ProcessPreset != "" {
		if err := sess.LoadPreset(req.PrinterPreset, req.FilamentPreset, req.ProcessPreset); err != nil {
			return nil, err
		}
	}
	for _, kv := range req.CustomParams {
		if err := sess.SetConfigParam(kv[0], kv[1]); err != nil {
			return nil, err
		}
	}
	if err := sess.SliceAndExport(outputPath); err != nil {
		return nil, err
	}

	statsJSON, err := sess.StatsJSON()
	if err != nil {
		return nil, err
	}
	presetJSON, err := sess.PresetInfoJSON()
	if err != nil {
		return nil, err
	}
	configJSON, err := sess.ConfigJSON()
	if err != nil {
		return nil, err
	}
	gcode, err := os.ReadFile(outputPath)
	if err != nil {
		return nil, newIOError(err)
	}

	return &sliceResponse{
		Stats:   json.RawMessage(statsJSON),
		Presets: json.RawMessage(presetJSON),
		Config:  json.RawMessage(configJSON),
		GCode:   base64.StdEncoding.EncodeToString(gcode),
	}, nil
}

func newIOError(err error) error {
	return &slicer.Error{Code: slicer.CodeIO, Op: "read_output", Message: err.Error()}
}

// recordJob writes the job outcome to the history store when enabled.
func (h *Handlers) recordJob(c *gin.Context, jobID, modelFile string, req *sliceRequest, resp *sliceResponse, sliceErr error) {
	if h.jobs == nil {
		return
	}
	job := jobstore.Job{
		ID:             jobID,
		ModelFile:      modelFile,
		PrinterPreset:  req.PrinterPreset,
		FilamentPreset: req.FilamentPreset,
		ProcessPreset:  req.ProcessPreset,
		Status:         jobstore.StatusDone,
	}
	if sliceErr != nil {
		job.Status = jobstore.StatusFailed
		job.Error = sliceErr.Error()
	} else if resp != nil {
		job.StatsJSON = string(resp.Stats)
	}
	if err := h.jobs.Record(c.Request.Context(), job); err != nil {
		slog.Warn("failed to record job", "job_id", jobID, "error", err)
	}
}

// statusForCode maps session error codes onto HTTP statuses: caller
// mistakes are 4xx, engine failures 5xx.
func statusForCode(code slicer.Code) int {
	switch code {
	case slicer.CodeNullParameter, slicer.CodeModelLoad:
		return http.StatusBadRequest
	case slicer.CodePresetNotFound, slicer.CodeConfigParse, slicer.CodeNoModel, slicer.CodeNoConfig:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
