package http

import (
	"bytes"
	"encoding/json"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"bounty-board/internal/metrics"
	"bounty-board/internal/service"
)

const maxGuardBody = 1 << 20

// RequireUniqueEmail rejects a signup whose email is already registered.
// The request body is restored for the next handler.
func RequireUniqueEmail(users service.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxGuardBody))
		if err != nil {
			respondBadRequest(c, "unable to read request body")
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		var peek struct {
			Email string `json:"email"`
		}
		if err := json.Unmarshal(body, &peek); err != nil || peek.Email == "" {
			// malformed or incomplete payloads are rejected by the handler's binding
			c.Next()
			return
		}

		if err := users.CheckUnique(c.Request.Context(), peek.Email); err != nil {
			respondError(c, err)
			return
		}
		c.Next()
	}
}

func accessLog(logger *logrus.Logger, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		elapsed := time.Since(start)

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		m.ObserveRequest(c.Request.Method, route, status, elapsed)

		entry := logger.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  status,
			"latency": elapsed.String(),
			"client":  c.ClientIP(),
		})
		if len(c.Errors) > 0 {
			entry = entry.WithField("error", c.Errors.Last().Error())
		}
		switch {
		case status >= 500:
			entry.Error("request failed")
		case status >= 400:
			entry.Warn("request rejected")
		default:
			entry.Info("request")
		}
	}
}
