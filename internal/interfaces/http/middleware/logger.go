package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"onyx.backend/pkg/logger"
)

// LoggerMiddleware logs HTTP requests using the structured logger
func LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		logger.LogRequest(c.Request.Context(), c.Request.Method, routeLabel(c), c.Writer.Status(), time.Since(start), c.ClientIP())
	}
}

// routeLabel prefers the route template so path parameters do not leak into
// logs or metric labels.
func routeLabel(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return "unmatched"
}
