package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/YohanssenPardede/proyek-analisis-data/internal/logger"
)

// requestLogger logs one structured line per request.
func requestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		log.WithField("method", c.Request.Method).
			WithField("path", path).
			WithField("query", query).
			WithField("status", c.Writer.Status()).
			WithField("duration", time.Since(start).String()).
			WithField("client_ip", c.ClientIP()).
			Debug("API request")
	}
}

// recovery turns a handler panic into a 500 JSON response.
func recovery(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.WithError(fmt.Errorf("panic recovered: %v", err)).
					WithField("path", c.Request.URL.Path).
					Error("handler panic")
				c.AbortWithStatusJSON(http.StatusInternalServerError, errorResponse{Error: "internal server error"})
			}
		}()
		c.Next()
	}
}
