package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"
)

// HealthChecker is implemented by infrastructure components that can report
// their own connectivity.
type HealthChecker interface {
	Name() string
	Check(ctx context.Context) error
}

// HealthHandler serves the kubernetes liveness and readiness probes.
type HealthHandler struct {
	checkers []HealthChecker
	version  string
	startAt  time.Time
}

func NewHealthHandler(version string, checkers ...HealthChecker) *HealthHandler {
	return &HealthHandler{
		checkers: checkers,
		version:  version,
		startAt:  time.Now(),
	}
}

type LivenessResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}

type ReadinessResponse struct {
	Status     string                    `json:"status"`
	Components map[string]ComponentCheck `json:"components,omitempty"`
}

type ComponentCheck struct {
	Status  string `json:"status"`
	Latency string `json:"latency,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Liveness never checks dependencies: a live process answers 200.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, LivenessResponse{
		Status:  "alive",
		Version: h.version,
		Uptime:  time.Since(h.startAt).Truncate(time.Second).String(),
	})
}

// Readiness probes every registered component concurrently. Any failure
// turns the whole response 503.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	components := make(map[string]ComponentCheck, len(h.checkers))
	var mu sync.Mutex
	var wg sync.WaitGroup
	ready := true

	for _, checker := range h.checkers {
		wg.Add(1)
		go func(c HealthChecker) {
			defer wg.Done()
			start := time.Now()
			err := c.Check(ctx)
			check := ComponentCheck{
				Status:  "up",
				Latency: time.Since(start).Truncate(time.Millisecond).String(),
			}
			if err != nil {
				check.Status = "down"
				check.Error = err.Error()
			}
			mu.Lock()
			components[c.Name()] = check
			if err != nil {
				ready = false
			}
			mu.Unlock()
		}(checker)
	}
	wg.Wait()

	status := http.StatusOK
	resp := ReadinessResponse{Status: "ready", Components: components}
	if !ready {
		status = http.StatusServiceUnavailable
		resp.Status = "not ready"
	}
	writeJSON(w, status, resp)
}
