package handler

import (
	"errors"
	"net/http"

	"tracehub/internal/service"

	"github.com/gin-gonic/gin"
)

// writeError maps service sentinels onto HTTP statuses. A lost claim is 409
// so workers can tell a race from a real failure.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrInvalidArgument):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrClaimLost):
		status = http.StatusConflict
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
