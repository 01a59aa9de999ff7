package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"onyx.backend/pkg/metrics"
)

// MetricsMiddleware records request latency per route and status
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		metrics.HTTPRequestDuration.
			WithLabelValues(c.Request.Method, routeLabel(c), strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
