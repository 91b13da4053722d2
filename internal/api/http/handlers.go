package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/sketchbox/internal/history"
	"github.com/GriffinCanCode/sketchbox/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/sketchbox/internal/sandbox/preview"
	"github.com/GriffinCanCode/sketchbox/internal/shared/id"
	"github.com/GriffinCanCode/sketchbox/internal/shared/types"
	"github.com/GriffinCanCode/sketchbox/internal/shared/utils"
	"github.com/GriffinCanCode/sketchbox/internal/studio"
)

// Version is reported by the root endpoint.
const Version = "0.3.0"

// Previewer runs a program headlessly.
type Previewer interface {
	Run(ctx context.Context, req preview.Request) (*preview.Result, error)
}

// Handlers contains all HTTP handlers
type Handlers struct {
	studio  *studio.Studio
	preview Previewer
	history *history.Store
	metrics *monitoring.Metrics
	tracked *HandlerMetrics
	started time.Time
}

// NewHandlers creates a new handler set. Studio and history are optional;
// their routes answer 503 when missing.
func NewHandlers(st *studio.Studio, pv Previewer, hist *history.Store, metrics *monitoring.Metrics) *Handlers {
	return &Handlers{
		studio:  st,
		preview: pv,
		history: hist,
		metrics: metrics,
		tracked: NewHandlerMetrics(metrics),
		started: time.Now(),
	}
}

var errUnavailable = errors.New("not configured on this server")

// Root handles the liveness check
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "sketchbox",
		"version": Version,
	})
}

// Health reports component availability and counters
func (h *Handlers) Health(c *gin.Context) {
	body := gin.H{
		"status":         "healthy",
		"uptime_seconds": time.Since(h.started).Seconds(),
		"studio":         gin.H{"available": h.studio != nil},
		"history":        gin.H{"available": h.history != nil},
	}
	if pool, ok := h.preview.(interface{ Stats() preview.PoolStats }); ok {
		body["preview"] = pool.Stats()
	}
	if h.metrics != nil {
		snap := h.metrics.Snapshot()
		body["metrics"] = snap
		body["run_error_rate"] = snap.ErrorRate()
	}
	c.JSON(http.StatusOK, body)
}

// Preview runs a program for a number of frames
func (h *Handlers) Preview(c *gin.Context) {
	var req types.PreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := utils.ValidateSource(req.Code); err != nil {
		respondError(c, err)
		return
	}

	done := h.tracked.Track("preview")
	res, err := h.preview.Run(c.Request.Context(), preview.Request{
		Source: req.Code,
		Kind:   req.Kind,
		Frames: req.Frames,
		Width:  req.Width,
		Height: req.Height,
	})
	done(err)
	switch {
	case errors.Is(err, preview.ErrBusy), errors.Is(err, preview.ErrPoolClosed), errors.Is(err, context.Canceled):
		respondError(c, err)
		return
	case err != nil:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, res)
}

// Create generates a program and fixes it until it runs
func (h *Handlers) Create(c *gin.Context) {
	if !h.requireStudio(c) {
		return
	}
	var req types.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	done := h.tracked.Track("create")
	creation, err := h.studio.Create(c.Request.Context(), req.Description)
	done(err)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":        creation.Code,
		"description": creation.Description,
		"fixes":       creation.Fixes,
		"run_id":      creation.HistoryID,
		"result":      creation.Result,
	})
}

// Share saves a program and returns its id
func (h *Handlers) Share(c *gin.Context) {
	if !h.requireStudio(c) {
		return
	}
	var req types.ShareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	done := h.tracked.Track("share")
	animationID, err := h.studio.Share(c.Request.Context(), req.Code, req.Description, id.HistoryID(req.RunID))
	done(err)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, types.SaveResponse{ID: animationID})
}

// Animation opens a shared program by id
func (h *Handlers) Animation(c *gin.Context) {
	if !h.requireStudio(c) {
		return
	}

	done := h.tracked.Track("open")
	anim, res, err := h.studio.Open(c.Request.Context(), c.Param("id"))
	done(err)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"animation": anim, "result": res})
}

// Feed opens a random shared program
func (h *Handlers) Feed(c *gin.Context) {
	if !h.requireStudio(c) {
		return
	}

	done := h.tracked.Track("feed")
	anim, res, err := h.studio.Feed(c.Request.Context())
	done(err)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"animation": anim, "result": res})
}

// Mood records a mood for a program
func (h *Handlers) Mood(c *gin.Context) {
	if !h.requireStudio(c) {
		return
	}
	var req types.MoodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if _, err := types.ParseMood(string(req.Mood)); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	done := h.tracked.Track("mood")
	err := h.studio.Mood(c.Request.Context(), req.AnimationID, string(req.Mood))
	done(err)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, types.MoodResponse{Success: true})
}

// ListHistory lists local runs
func (h *Handlers) ListHistory(c *gin.Context) {
	if !h.requireHistory(c) {
		return
	}
	opts := history.ListOptions{
		Kind:    c.Query("kind"),
		Outcome: c.Query("outcome"),
	}
	var err error
	if opts.Limit, err = intQuery(c, "limit", 50); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if opts.Offset, err = intQuery(c, "offset", 0); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	runs, err := h.history.List(c.Request.Context(), opts)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs, "count": len(runs)})
}

// GetHistory returns one local run by id or prefix
func (h *Handlers) GetHistory(c *gin.Context) {
	if !h.requireHistory(c) {
		return
	}
	run, err := h.history.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, run)
}

func (h *Handlers) requireStudio(c *gin.Context) bool {
	if h.studio == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "studio " + errUnavailable.Error()})
		return false
	}
	return true
}

func (h *Handlers) requireHistory(c *gin.Context) bool {
	if h.history == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "history " + errUnavailable.Error()})
		return false
	}
	return true
}

func intQuery(c *gin.Context, name string, def int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errors.New(name + " must be a non-negative integer")
	}
	return n, nil
}
