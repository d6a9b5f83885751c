package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/otherjamesbrown/meetsum/pkg/logging"
)

// requestLogging logs method, path, status and latency of every request.
func requestLogging(logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		logger.Debug("api_request",
			logging.F("method", c.Request.Method),
			logging.F("path", path),
			logging.F("status", c.Writer.Status()),
			logging.F("duration", time.Since(start)))
	}
}
