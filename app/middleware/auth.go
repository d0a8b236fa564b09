package middleware

import (
	"net/http"
	"strings"

	"tracehub/pkg/logger"
	mysqlstore "tracehub/pkg/store/mysql"

	"github.com/gin-gonic/gin"
)

// HostNameKey gin context key carrying the authenticated worker hostname.
const HostNameKey = "host_name"

// WorkerAuth authenticates worker agents by bearer host key. A valid key
// resolves to a registered host; the hostname is stored on the context and
// the host's last_seen is refreshed.
func WorkerAuth(hosts *mysqlstore.HostRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		key := strings.TrimPrefix(authHeader, "Bearer ")
		if key == "" || key == authHeader {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			c.Abort()
			return
		}

		host, err := hosts.GetByKey(c.Request.Context(), key)
		if err != nil {
			logger.ErrorCtx(c.Request.Context(), "host key lookup failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			c.Abort()
			return
		}
		if host == nil {
			logger.WarnCtx(c.Request.Context(), "unauthorized worker request, unknown host key")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		if err := hosts.TouchLastSeen(c.Request.Context(), host.HostName); err != nil {
			logger.WarnCtx(c.Request.Context(), "failed to touch host %s: %v", host.HostName, err)
		}

		c.Set(HostNameKey, host.HostName)
		c.Next()
	}
}
