package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonesrussell/exposure-watch/internal/watcher"
)

// HealthStatus is the overall health reported by /health.
type HealthStatus string

const (
	HealthStatusHealthy  HealthStatus = "healthy"
	HealthStatusDegraded HealthStatus = "degraded"
)

// HealthResponse is the /health body.
type HealthResponse struct {
	Status      HealthStatus    `json:"status"`
	Service     string          `json:"service"`
	Version     string          `json:"version"`
	Uptime      string          `json:"uptime"`
	LastOutcome watcher.Outcome `json:"last_outcome,omitempty"`
	LastCheck   time.Time       `json:"last_check,omitzero"`
}

// healthHandler reports degraded when the most recent check failed to
// fetch or parse the page. The process itself is still serving.
func (s *Server) healthHandler(status StatusProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		st := status.Status()

		resp := HealthResponse{
			Status:      HealthStatusHealthy,
			Service:     s.config.ServiceName,
			Version:     s.config.Version,
			Uptime:      time.Since(s.started).Truncate(time.Second).String(),
			LastOutcome: st.LastOutcome,
			LastCheck:   st.LastCheck,
		}
		if st.LastOutcome == watcher.OutcomeFetchFailed || st.LastOutcome == watcher.OutcomeParseFailed {
			resp.Status = HealthStatusDegraded
		}

		c.JSON(http.StatusOK, resp)
	}
}
