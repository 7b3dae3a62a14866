package utils

import (
	"net/http"
	"time"

	"complianceos/pkg/logger"

	"github.com/gin-gonic/gin"
)

// LoggerMiddleware logs every HTTP request with method, path, status and duration.
func LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		elapsed := time.Since(start)
		status := c.Writer.Status()

		// Log based on status code level
		if status >= 500 {
			logger.Errorf("HTTP %s %s - Status: %d, Duration: %v, IP: %s",
				c.Request.Method, c.Request.URL.Path, status, elapsed, c.ClientIP())
		} else if status >= 400 {
			logger.Warnf("HTTP %s %s - Status: %d, Duration: %v, IP: %s",
				c.Request.Method, c.Request.URL.Path, status, elapsed, c.ClientIP())
		} else {
			logger.Infof("HTTP %s %s - Status: %d, Duration: %v, IP: %s",
				c.Request.Method, c.Request.URL.Path, status, elapsed, c.ClientIP())
		}
	}
}

// JSONResponse sends a JSON response with the specified HTTP status code.
func JSONResponse(c *gin.Context, status int, data interface{}) {
	c.JSON(status, data)
}

// ErrorResponse logs and sends a standardized error body with HTTP 400 status.
// The body shape {"detail": ...} is what the frontend expects on rejections.
func ErrorResponse(c *gin.Context, err error) {
	ErrorResponseWithStatus(c, http.StatusBadRequest, err)
}

// ErrorResponseWithStatus logs and sends a standardized error body with the given status.
func ErrorResponseWithStatus(c *gin.Context, status int, err error) {
	logger.Errorf("API Error: %v", err)
	c.JSON(status, gin.H{
		"detail": err.Error(),
	})
}
