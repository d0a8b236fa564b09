package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"tracehub/internal/model"
	"tracehub/internal/service"
	"tracehub/pkg/logger"

	"github.com/gin-gonic/gin"
)

// JobHandler handles client-facing job operations
type JobHandler struct {
	jobService    *service.JobService
	streamService *service.StreamService
}

// NewJobHandler creates a new job handler
func NewJobHandler(jobService *service.JobService, streamService *service.StreamService) *JobHandler {
	return &JobHandler{
		jobService:    jobService,
		streamService: streamService,
	}
}

// Create submits a trace collection job fanned out to the listed devices
// @Summary Create job
// @Tags jobs
// @Accept json
// @Produce json
// @Success 201 {object} model.JobView
// @Router /v1/jobs [post]
func (h *JobHandler) Create(c *gin.Context) {
	var req model.CreateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	job, err := h.jobService.CreateJob(c.Request.Context(), &req)
	if err != nil {
		logger.ErrorCtx(c.Request.Context(), "failed to create job: %v", err)
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, job)
}

// Get returns a job with per-device statuses
// @Summary Get job
// @Tags jobs
// @Produce json
// @Success 200 {object} model.JobView
// @Router /v1/jobs/{job_id} [get]
func (h *JobHandler) Get(c *gin.Context) {
	job, err := h.jobService.GetJob(c.Request.Context(), c.Param("job_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

// List returns recent jobs, newest first
// @Summary List jobs
// @Tags jobs
// @Produce json
// @Success 200 {array} model.JobView
// @Router /v1/jobs [get]
func (h *JobHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	jobs, err := h.jobService.ListJobs(c.Request.Context(), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, jobs)
}

// Stream streams job progress as server-sent events. An optional ?since
// timestamp (RFC3339) replays events from that point; omitted means replay
// from the beginning. The stream closes on its own after prolonged silence.
// @Summary Stream job progress
// @Tags jobs
// @Produce text/event-stream
// @Router /v1/jobs/{job_id}/stream [get]
func (h *JobHandler) Stream(c *gin.Context) {
	ctx := c.Request.Context()
	jobID := c.Param("job_id")

	if _, err := h.jobService.GetJob(ctx, jobID); err != nil {
		writeError(c, err)
		return
	}

	var sinceSeq int64
	if since := c.Query("since"); since != "" {
		t, err := time.Parse(time.RFC3339, since)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "since must be RFC3339"})
			return
		}
		sinceSeq, err = h.streamService.ResolveSince(ctx, jobID, t)
		if err != nil {
			writeError(c, err)
			return
		}
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming unsupported"})
		return
	}

	writeFrame(c, flusher, &model.StreamEvent{Type: model.StreamEventConnected})

	logger.InfoCtx(ctx, "client subscribed to job %s from seq %d", jobID, sinceSeq)
	events := h.streamService.Subscribe(ctx, jobID, sinceSeq)
	for ev := range events {
		if !writeFrame(c, flusher, ev) {
			return
		}
	}
}

func writeFrame(c *gin.Context, flusher http.Flusher, ev *model.StreamEvent) bool {
	payload, err := json.Marshal(ev)
	if err != nil {
		return false
	}
	if _, err := fmt.Fprintf(c.Writer, "data: %s\n\n", payload); err != nil {
		return false
	}
	flusher.Flush()
	return true
}
