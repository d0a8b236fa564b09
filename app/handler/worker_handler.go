package handler

import (
	"io"
	"net/http"

	"tracehub/app/middleware"
	"tracehub/internal/model"
	"tracehub/internal/service"
	"tracehub/pkg/constants"
	"tracehub/pkg/logger"

	"github.com/gin-gonic/gin"
)

// maxUploadSize caps a single trace upload at 512 MiB.
const maxUploadSize = 512 << 20

// WorkerHandler handles the agent-facing API: device reports, work polling,
// status transitions, progress events, and trace uploads.
type WorkerHandler struct {
	jobService    *service.JobService
	registry      *service.RegistryService
	configService *service.ConfigService
	traceService  *service.TraceService
}

// NewWorkerHandler creates a new worker handler
func NewWorkerHandler(
	jobService *service.JobService,
	registry *service.RegistryService,
	configService *service.ConfigService,
	traceService *service.TraceService,
) *WorkerHandler {
	return &WorkerHandler{
		jobService:    jobService,
		registry:      registry,
		configService: configService,
		traceService:  traceService,
	}
}

// hostName returns the hostname the auth middleware resolved from the key.
func hostName(c *gin.Context) string {
	return c.GetString(middleware.HostNameKey)
}

// ListWork returns every claimable unit of work. Agents filter to their own
// attached serials and claim with a status transition; serving the full list
// keeps the server free of attachment state.
// @Summary Poll pending work
// @Tags worker
// @Produce json
// @Router /v1/worker/jobs/pending [get]
func (h *WorkerHandler) ListWork(c *gin.Context) {
	work, err := h.jobService.ListPendingWork(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, work)
}

// ReportDevice registers or refreshes a device and records a liveness report
// @Summary Report device
// @Tags worker
// @Accept json
// @Produce json
// @Router /v1/worker/devices [post]
func (h *WorkerHandler) ReportDevice(c *gin.Context) {
	var req model.DeviceReport
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	host := req.Host
	if host == "" {
		host = hostName(c)
	}
	status := req.LastStatus
	if status == "" {
		status = constants.DeviceStatusOnline.String()
	}

	device, err := h.registry.Upsert(c.Request.Context(), req.DeviceUUID, req.DeviceName)
	if err != nil {
		writeError(c, err)
		return
	}
	if err := h.registry.ReportLiveness(c.Request.Context(), req.DeviceUUID, status, host); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, device)
}

// ListDevices returns the registry with live status merged in
// @Summary List devices
// @Tags worker
// @Produce json
// @Router /v1/worker/devices [get]
func (h *WorkerHandler) ListDevices(c *gin.Context) {
	devices, err := h.registry.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, devices)
}

// GetDevice resolves a single device by its adb serial
// @Summary Get device by serial
// @Tags worker
// @Produce json
// @Router /v1/worker/devices/by-serial/{serial} [get]
func (h *WorkerHandler) GetDevice(c *gin.Context) {
	device, err := h.registry.Lookup(c.Request.Context(), c.Param("serial"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, device)
}

// SweepDevices marks devices offline that the host no longer sees
// @Summary Sweep devices
// @Tags worker
// @Accept json
// @Produce json
// @Router /v1/worker/devices/sweep [post]
func (h *WorkerHandler) SweepDevices(c *gin.Context) {
	var req model.SweepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	host := req.Host
	if host == "" {
		host = hostName(c)
	}

	swept, err := h.registry.Sweep(c.Request.Context(), host, req.OnlineSerials)
	if err != nil {
		writeError(c, err)
		return
	}
	if swept > 0 {
		logger.InfoCtx(c.Request.Context(), "host %s swept %d devices offline", host, swept)
	}
	c.JSON(http.StatusOK, gin.H{"swept": swept})
}

// UpdateJobDevice transitions one unit of work. Claiming a unit another
// worker already took returns 409; agents skip, not retry.
// @Summary Update job device status
// @Tags worker
// @Accept json
// @Produce json
// @Router /v1/worker/job-devices/{id}/status [post]
func (h *WorkerHandler) UpdateJobDevice(c *gin.Context) {
	var req model.JobDeviceStatusUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.jobService.UpdateJobDeviceStatus(c.Request.Context(), c.Param("id"), req.Status); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// AppendUpdate appends a progress event to a job's stream
// @Summary Append job update
// @Tags worker
// @Accept json
// @Produce json
// @Router /v1/worker/jobs/{job_id}/updates [post]
func (h *WorkerHandler) AppendUpdate(c *gin.Context) {
	var req model.JobProgressUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.jobService.AppendJobUpdate(c.Request.Context(), c.Param("job_id"), &req); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// UpdateJobStatus sets the aggregate status of a job
// @Summary Update job status
// @Tags worker
// @Accept json
// @Produce json
// @Router /v1/worker/jobs/{job_id}/status [post]
func (h *WorkerHandler) UpdateJobStatus(c *gin.Context) {
	var req model.JobStatusUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.jobService.UpdateJobStatus(c.Request.Context(), c.Param("job_id"), req.Status, req.ResultSummary); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// GetConfig serves the trace recipe an agent is about to run
// @Summary Get trace config
// @Tags worker
// @Produce json
// @Router /v1/worker/configs/{config_id} [get]
func (h *WorkerHandler) GetConfig(c *gin.Context) {
	cfg, err := h.configService.Get(c.Request.Context(), c.Param("config_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

// Upload stores raw trace bytes pushed by an agent. The body is the file;
// bucket and object_name come as query parameters.
// @Summary Upload trace file
// @Tags worker
// @Accept octet-stream
// @Produce json
// @Router /v1/worker/storage/upload [post]
func (h *WorkerHandler) Upload(c *gin.Context) {
	objectName := c.Query("object_name")
	if objectName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "object_name is required"})
		return
	}
	bucket := c.Query("bucket")

	data, err := io.ReadAll(io.LimitReader(c.Request.Body, maxUploadSize+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read body"})
		return
	}
	if len(data) > maxUploadSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "upload too large"})
		return
	}
	if len(data) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "empty body"})
		return
	}

	if err := h.traceService.Upload(c.Request.Context(), bucket, objectName, data); err != nil {
		writeError(c, err)
		return
	}
	logger.InfoCtx(c.Request.Context(), "host %s uploaded %s (%d bytes)", hostName(c), objectName, len(data))
	c.JSON(http.StatusOK, gin.H{"status": "ok", "object_name": objectName})
}

// CreateTrace persists metadata for an uploaded trace
// @Summary Create trace record
// @Tags worker
// @Accept json
// @Produce json
// @Router /v1/worker/traces [post]
func (h *WorkerHandler) CreateTrace(c *gin.Context) {
	var req model.TraceCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.HostName == "" {
		req.HostName = hostName(c)
	}

	trace, err := h.traceService.Create(c.Request.Context(), &req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, trace)
}
