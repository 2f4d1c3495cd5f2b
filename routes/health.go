package routes

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"manimserve/logger"
	"manimserve/taskqueue"
)

const deepCheckTimeout = 10 * time.Second

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version"`
	GoVersion string            `json:"go_version"`
	Uptime    string            `json:"uptime"`
	StartTime string            `json:"start_time"`
	Checks    map[string]string `json:"checks,omitempty"`
	Queue     *taskqueue.Stats  `json:"queue,omitempty"`
	InFlight  *int              `json:"in_flight,omitempty"`
}

// Global start time for uptime calculation
var startTime = time.Now()

// formatUptime formats a duration into days, hours, minutes, seconds
func formatUptime(d time.Duration) string {
	days := int(d.Hours() / 24)
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
}

// Root identifies the service.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"service": "Manim Renderer",
		"status":  "running",
	})
}

// Health is a liveness probe. With ?deep=true it also checks the render
// history database and the storage backend, answering 503 if either fails.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	logger.Debugf("Health check request: remoteAddr=%s", r.RemoteAddr)

	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Version:   getVersion(),
		GoVersion: runtime.Version(),
		Uptime:    formatUptime(time.Since(startTime)),
		StartTime: startTime.Format("2006-01-02 15:04:05 MST"),
	}

	status := http.StatusOK
	if r.URL.Query().Get("deep") == "true" {
		response.Checks = h.deepChecks(r.Context())
		for _, result := range response.Checks {
			if result != "ok" {
				response.Status = "unhealthy"
				status = http.StatusServiceUnavailable
			}
		}
		if h.d.Pool != nil {
			stats := h.d.Pool.Stats()
			response.Queue = &stats
		}
		if h.d.Dispatcher != nil {
			n := h.d.Dispatcher.InFlight()
			response.InFlight = &n
		}
	}

	writeJSON(w, status, response)
}

func (h *Handler) deepChecks(ctx context.Context) map[string]string {
	checks := map[string]string{}
	if h.d.Store != nil {
		checks["records"] = resultOf(h.d.Store.CheckHealth())
	}
	if h.d.Backend != nil {
		ctx, cancel := context.WithTimeout(ctx, deepCheckTimeout)
		defer cancel()
		checks["storage:"+h.d.Backend.Name()] = resultOf(h.d.Backend.Check(ctx))
	}
	return checks
}

func resultOf(err error) string {
	if err != nil {
		logger.Warnf("health check failed: %v", err)
		return err.Error()
	}
	return "ok"
}
