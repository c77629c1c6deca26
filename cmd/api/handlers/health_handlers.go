package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthHandler reports the cache backend and, when ping is set, the Mongo
// connection state.
func HealthHandler(cacheBackend string, ping func(ctx context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		body := gin.H{"status": "ok", "cache_backend": cacheBackend}
		if ping != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
			defer cancel()
			if err := ping(ctx); err != nil {
				body["status"] = "degraded"
				body["mongo"] = "down"
				body["error"] = err.Error()
				c.JSON(http.StatusServiceUnavailable, body)
				return
			}
			body["mongo"] = "up"
		}
		c.JSON(http.StatusOK, body)
	}
}
