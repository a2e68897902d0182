package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/logger"
	"github.com/google/uuid"
)

// RequestIDHeader carries the per-request id in both directions.
const RequestIDHeader = "X-Request-ID"

// RequestLogger logs every request once it has been handled. The level
// follows the status code.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(RequestIDHeader, id)

		c.Next()

		status := c.Writer.Status()
		latency := time.Since(start)
		switch {
		case status >= http.StatusInternalServerError:
			logger.Errorf("[%s] %s %s %d %s %s %s", id, c.Request.Method, path, status, latency, c.ClientIP(), c.Errors.String())
		case status >= http.StatusBadRequest:
			logger.Warningf("[%s] %s %s %d %s %s", id, c.Request.Method, path, status, latency, c.ClientIP())
		default:
			logger.Infof("[%s] %s %s %d %s %s", id, c.Request.Method, path, status, latency, c.ClientIP())
		}
	}
}
