package rest

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/marmos91/storfiler/internal/logger"
	"github.com/marmos91/storfiler/pkg/gateway"
)

const (
	// RequestIDHeader carries the request id in both directions.
	RequestIDHeader = "X-Request-ID"

	requestIDKey = "request_id"
)

// requestID reuses a client-supplied id or assigns a new one.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

func (a *RESTAdapter) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		line := fmt.Sprintf("HTTP %s %s -> %d (%v) bytes=%d request_id=%s",
			c.Request.Method, c.Request.URL.Path, status, time.Since(start),
			c.Writer.Size(), c.GetString(requestIDKey))

		switch {
		case status >= http.StatusInternalServerError:
			logger.Warn("%s", line)
		default:
			logger.Info("%s", line)
		}
	}
}

func (a *RESTAdapter) instrument() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		a.metrics.RecordRequestStart()
		defer a.metrics.RecordRequestEnd()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		a.metrics.RecordRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}

func (a *RESTAdapter) recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, rec any) {
		logger.Error("HTTP %s %s panicked: %v request_id=%s",
			c.Request.Method, c.Request.URL.Path, rec, c.GetString(requestIDKey))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	})
}

// cors allows any origin and answers preflight requests directly.
func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, "+RequestIDHeader)
		h.Set("Access-Control-Expose-Headers", "Content-Disposition, "+RequestIDHeader)
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// rateLimit rejects clients that exceed their request budget with 429.
func (a *RESTAdapter) rateLimit() gin.HandlerFunc {
	retryAfter := strconv.Itoa(int(math.Ceil(a.limiter.RetryAfter().Seconds())))
	return func(c *gin.Context) {
		if a.limiter.Allow(c.ClientIP()) {
			c.Next()
			return
		}
		c.Header("Retry-After", retryAfter)
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
	}
}

// writeError renders err as {"error": "..."} with the status from the
// gateway error taxonomy.
func writeError(c *gin.Context, err error) {
	status := gateway.StatusCode(err)
	if status >= http.StatusInternalServerError {
		logger.Error("HTTP %s %s failed: %v request_id=%s",
			c.Request.Method, c.Request.URL.Path, err, c.GetString(requestIDKey))
	} else {
		logger.Debug("HTTP %s %s rejected: %v request_id=%s",
			c.Request.Method, c.Request.URL.Path, err, c.GetString(requestIDKey))
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}
