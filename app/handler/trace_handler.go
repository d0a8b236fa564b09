package handler

import (
	"net/http"
	"strconv"

	"tracehub/internal/service"

	"github.com/gin-gonic/gin"
)

// TraceHandler handles collected trace queries
type TraceHandler struct {
	traceService *service.TraceService
}

// NewTraceHandler creates a new trace handler
func NewTraceHandler(traceService *service.TraceService) *TraceHandler {
	return &TraceHandler{traceService: traceService}
}

// List retrieves recent traces, newest first
// @Summary List traces
// @Tags traces
// @Produce json
// @Router /v1/traces [get]
func (h *TraceHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	traces, err := h.traceService.List(c.Request.Context(), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, traces)
}

// Get retrieves trace metadata
// @Summary Get trace
// @Tags traces
// @Produce json
// @Router /v1/traces/{trace_id} [get]
func (h *TraceHandler) Get(c *gin.Context) {
	trace, err := h.traceService.Get(c.Request.Context(), c.Param("trace_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, trace)
}

// Download returns a short-lived presigned URL for the stored trace file
// @Summary Download trace
// @Tags traces
// @Produce json
// @Router /v1/traces/{trace_id}/download [get]
func (h *TraceHandler) Download(c *gin.Context) {
	url, err := h.traceService.DownloadURL(c.Request.Context(), c.Param("trace_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}
