// controllers/health.go
package controllers

import (
	"net/http"
	"time"

	"whatsapp-notifier/services"

	"github.com/gin-gonic/gin"
)

// StatusProvider exposes the scheduler state shown on /status
type StatusProvider interface {
	LastReport() *services.CycleReport
	Running() bool
}

// HealthController serves the liveness and status endpoints
type HealthController struct {
	Scheduler StatusProvider
	StartedAt time.Time
	Now       func() time.Time
}

type StatusResponse struct {
	Status     string                 `json:"status"`
	StartedAt  time.Time              `json:"startedAt"`
	Uptime     string                 `json:"uptime"`
	Running    bool                   `json:"cycleRunning"`
	LastCycle  *services.CycleSummary `json:"lastCycle"`
	ServerTime time.Time              `json:"serverTime"`
}

// Index confirms the worker is up
func (hc *HealthController) Index(c *gin.Context) {
	c.String(http.StatusOK, "WhatsApp notification worker is running")
}

// Status returns uptime and the outcome of the last cycle
func (hc *HealthController) Status(c *gin.Context) {
	now := time.Now()
	if hc.Now != nil {
		now = hc.Now()
	}

	resp := StatusResponse{
		Status:     "ok",
		StartedAt:  hc.StartedAt,
		Uptime:     now.Sub(hc.StartedAt).Truncate(time.Second).String(),
		ServerTime: now,
	}
	if hc.Scheduler != nil {
		resp.Running = hc.Scheduler.Running()
		if last := hc.Scheduler.LastReport(); last != nil {
			summary := last.Summary()
			resp.LastCycle = &summary
			if last.Err != nil {
				resp.Status = "degraded"
			}
		}
	}

	c.JSON(http.StatusOK, resp)
}
