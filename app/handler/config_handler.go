package handler

import (
	"net/http"

	"tracehub/internal/service"
	storemodel "tracehub/pkg/store/mysql/model"

	"github.com/gin-gonic/gin"
)

// ConfigHandler handles trace config CRUD
type ConfigHandler struct {
	configService *service.ConfigService
}

// NewConfigHandler creates a new config handler
func NewConfigHandler(configService *service.ConfigService) *ConfigHandler {
	return &ConfigHandler{configService: configService}
}

// Create creates a trace config
// @Summary Create trace config
// @Tags configs
// @Accept json
// @Produce json
// @Router /v1/configs [post]
func (h *ConfigHandler) Create(c *gin.Context) {
	var cfg storemodel.TraceConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	created, err := h.configService.Create(c.Request.Context(), &cfg)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// Get retrieves a trace config
// @Summary Get trace config
// @Tags configs
// @Produce json
// @Router /v1/configs/{config_id} [get]
func (h *ConfigHandler) Get(c *gin.Context) {
	cfg, err := h.configService.Get(c.Request.Context(), c.Param("config_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

// List retrieves all trace configs
// @Summary List trace configs
// @Tags configs
// @Produce json
// @Router /v1/configs [get]
func (h *ConfigHandler) List(c *gin.Context) {
	configs, err := h.configService.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, configs)
}

// Update overwrites a trace config
// @Summary Update trace config
// @Tags configs
// @Accept json
// @Produce json
// @Router /v1/configs/{config_id} [put]
func (h *ConfigHandler) Update(c *gin.Context) {
	var cfg storemodel.TraceConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cfg.ConfigID = c.Param("config_id")
	if err := h.configService.Update(c.Request.Context(), &cfg); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, &cfg)
}

// Delete removes a trace config
// @Summary Delete trace config
// @Tags configs
// @Router /v1/configs/{config_id} [delete]
func (h *ConfigHandler) Delete(c *gin.Context) {
	if err := h.configService.Delete(c.Request.Context(), c.Param("config_id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
