package handler

import (
	"net/http"
	"time"

	"tracehub/internal/service"
	"tracehub/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const deviceWatchInterval = 5 * time.Second

var watchUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Dashboards connect from other origins; auth happens elsewhere.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// DeviceHandler handles device registry queries
type DeviceHandler struct {
	registry *service.RegistryService
}

// NewDeviceHandler creates a new device handler
func NewDeviceHandler(registry *service.RegistryService) *DeviceHandler {
	return &DeviceHandler{registry: registry}
}

// List returns all registered devices with live status merged in
// @Summary List devices
// @Tags devices
// @Produce json
// @Success 200 {array} model.DeviceView
// @Router /v1/devices [get]
func (h *DeviceHandler) List(c *gin.Context) {
	devices, err := h.registry.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, devices)
}

// Watch upgrades to a WebSocket and pushes full device snapshots on a fixed
// interval until the client disconnects.
// @Summary Watch devices
// @Tags devices
// @Router /v1/devices/watch [get]
func (h *DeviceHandler) Watch(c *gin.Context) {
	conn, err := watchUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.WarnCtx(c.Request.Context(), "device watch upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx := c.Request.Context()

	// Drain reads so close frames and pings are processed.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	send := func() bool {
		devices, err := h.registry.List(ctx)
		if err != nil {
			logger.WarnCtx(ctx, "device watch snapshot failed: %v", err)
			return true
		}
		if err := conn.WriteJSON(devices); err != nil {
			return false
		}
		return true
	}

	if !send() {
		return
	}

	ticker := time.NewTicker(deviceWatchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !send() {
				return
			}
		}
	}
}
