// Package service exposes the slicing session over HTTP: a multipart
// upload of one model file plus an optional JSON config body, driving
// exactly the sequence load_model -> presets/params -> slice_and_export
// -> derived JSON, and returning the output base64-encoded.
package service

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dimenl/slicerd/internal/engine"
	"github.com/dimenl/slicerd/internal/geometry"
	"github.com/dimenl/slicerd/internal/jobstore"
	"github.com/dimenl/slicerd/internal/slicer"
)

// Handlers contains the HTTP handlers for the slicing service.
//
// Each request gets its own session; sessions are single-threaded by
// contract, so parallelism comes from independent sessions, one per
// in-flight request.
type Handlers struct {
	cfg     Config
	engine  engine.Engine
	loaders *geometry.Registry
	jobs    *jobstore.Store
	log     *slog.Logger
}

// NewHandlers creates handlers slicing with the given engine and format
// loaders.
func NewHandlers(cfg Config, eng engine.Engine, loaders *geometry.Registry) *Handlers {
	return &Handlers{
		cfg:     cfg,
		engine:  eng,
		loaders: loaders,
		log:     slog.Default(),
	}
}

// WithJobStore attaches the job history store.
func (h *Handlers) WithJobStore(s *jobstore.Store) *Handlers {
	h.jobs = s
	return h
}

// WithLogger overrides the default logger.
func (h *Handlers) WithLogger(log *slog.Logger) *Handlers {
	h.log = log
	return h
}

// newSession creates one session for one request.
func (h *Handlers) newSession() *slicer.Session {
	return slicer.New(slicer.Options{
		Engine:       h.engine,
		Loaders:      h.loaders,
		ResourcesDir: h.cfg.ResourcesDir,
		Logger:       h.log,
	})
}

// Router builds the gin engine with all routes registered.
func (h *Handlers) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	if h.cfg.MaxBodyBytes > 0 {
		r.MaxMultipartMemory = h.cfg.MaxBodyBytes
	}

	r.GET("/healthz", h.HandleHealth)
	r.POST("/v1/slice", h.HandleSlice)
	r.GET("/v1/jobs/:id", h.HandleGetJob)
	return r
}

// Run serves until the listener fails.
func (h *Handlers) Run() error {
	h.log.Info("slicing service listening",
		"addr", h.cfg.Listen,
		"engine", h.engine.Version(),
		"resources", h.cfg.ResourcesDir)
	return h.Router().Run(h.cfg.Listen)
}

// healthResponse is the /healthz body.
type healthResponse struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	EngineVersion string `json:"engine_version"`
}

// HandleHealth handles GET /healthz.
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, healthResponse{
		Status:        "healthy",
		Version:       slicer.Version,
		EngineVersion: h.engine.Version(),
	})
}

// HandleGetJob handles GET /v1/jobs/:id.
func (h *Handlers) HandleGetJob(c *gin.Context) {
	if h.jobs == nil {
		c.JSON(http.StatusNotFound, errorResponse{Error: "job history disabled"})
		return
	}
	job, err := h.jobs.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if err == jobstore.ErrNotFound {
			c.JSON(http.StatusNotFound, errorResponse{Error: "job not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "job lookup failed", Details: err.Error()})
		return
	}
	c.JSON(http.StatusOK, job)
}
