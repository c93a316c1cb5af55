package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/hamidrprogrammer/print-agent/internal/event"
	"github.com/hamidrprogrammer/print-agent/internal/history"
	"github.com/hamidrprogrammer/print-agent/internal/job"
)

// Pipeline is the slice of the dispatcher the presentation layer may use:
// read the job list, request a cancel, request a refresh. Nothing else.
type Pipeline interface {
	Snapshot() []job.Record
	Cancel(ctx context.Context, id string) error
	Refresh(ctx context.Context)
}

// History reads the local journal of past jobs.
type History interface {
	Recent(ctx context.Context, limit int) ([]history.Entry, error)
}

// Dependencies holds everything the handlers need
type Dependencies struct {
	Logger   *slog.Logger
	Pipeline Pipeline
	Events   *event.Queue
	History  History
}

// Handler serves the local presentation API
type Handler struct {
	logger   *slog.Logger
	pipeline Pipeline
	events   *event.Queue
	history  History
}

// NewHandler creates a Handler from its dependencies
func NewHandler(deps *Dependencies) *Handler {
	return &Handler{
		logger:   deps.Logger,
		pipeline: deps.Pipeline,
		events:   deps.Events,
		history:  deps.History,
	}
}

// ListJobs handles GET /api/v1/jobs
// Returns the dispatcher's current job snapshot
func (h *Handler) ListJobs(c *gin.Context) {
	jobs := h.pipeline.Snapshot()

	out := make([]gin.H, 0, len(jobs))
	for _, rec := range jobs {
		out = append(out, gin.H{
			"id":          rec.ID,
			"file_url":    rec.FileURL,
			"file_key":    rec.FileKey,
			"printer":     rec.Settings.Printer,
			"color_mode":  rec.Settings.ColorMode,
			"orientation": rec.Settings.Orientation,
			"paper_size":  rec.Settings.PaperSize,
			"status":      rec.Status,
			"timestamp":   rec.Timestamp,
		})
	}

	c.JSON(http.StatusOK, gin.H{"jobs": out})
}

// CancelJob handles POST /api/v1/jobs/:job_id/cancel
// Requests cancellation of a pending job; in-flight jobs are canceled
// best-effort only
func (h *Handler) CancelJob(c *gin.Context) {
	jobID := c.Param("job_id")
	if jobID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "job_id is required",
		})
		return
	}

	if err := h.pipeline.Cancel(c.Request.Context(), jobID); err != nil {
		if errors.Is(err, job.ErrUnknownJob) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "job not found",
			})
			return
		}
		h.logger.Error("Failed to cancel job",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusConflict, gin.H{
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"job_id": jobID,
		"status": job.StatusCanceled,
	})
}

// Refresh handles POST /api/v1/refresh
// Forces a manual resnapshot of the job feed
func (h *Handler) Refresh(c *gin.Context) {
	h.pipeline.Refresh(c.Request.Context())
	c.JSON(http.StatusAccepted, gin.H{
		"status": "refreshing",
	})
}

// Events handles GET /api/v1/events
// Drains buffered pipeline events; the presentation layer polls this on a
// short cadence and tolerates an empty list
func (h *Handler) Events(c *gin.Context) {
	max := parseLimit(c.Query("max"), 100)
	c.JSON(http.StatusOK, gin.H{
		"events": h.events.Drain(max),
	})
}

// ListHistory handles GET /api/v1/history
// Returns recent terminal transitions from the local journal
func (h *Handler) ListHistory(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusOK, gin.H{"history": []history.Entry{}})
		return
	}

	limit := parseLimit(c.Query("limit"), 50)
	entries, err := h.history.Recent(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("Failed to read history",
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to read history",
		})
		return
	}
	if entries == nil {
		entries = []history.Entry{}
	}

	c.JSON(http.StatusOK, gin.H{"history": entries})
}

func parseLimit(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
