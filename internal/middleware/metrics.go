package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ietf-tools/errata-api/internal/service"
)

// Metrics records one observation per request. The route template is used
// as the path label so /errata/:id stays one series.
func Metrics(metrics *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metrics == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		metrics.ObserveHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
