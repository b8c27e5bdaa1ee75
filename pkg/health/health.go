// pkg/health/health.go
// Package health provides liveness and readiness endpoints for long-running
// simulation binaries, aggregating named checks.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// HealthCheck is one named component check.
type HealthCheck interface {
	Name() string
	// Check returns an error when the component is unhealthy.
	Check(ctx context.Context) error
}

const (
	statusHealthy   = "healthy"
	statusUnhealthy = "unhealthy"
)

// HealthStatus is the aggregated readiness report.
type HealthStatus struct {
	Status string                     `json:"status"`
	Checks map[string]ComponentHealth `json:"checks"`
}

// ComponentHealth is the result of a single check.
type ComponentHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// HealthChecker runs the registered checks.
type HealthChecker struct {
	checks  map[string]HealthCheck
	mu      sync.RWMutex
	started time.Time
	timeout time.Duration
}

// NewHealthChecker creates a checker whose readiness probe gives the checks
// five seconds.
func NewHealthChecker() *HealthChecker {
	return &HealthChecker{
		checks:  make(map[string]HealthCheck),
		started: time.Now(),
		timeout: 5 * time.Second,
	}
}

// SetTimeout changes the time budget of the readiness probe
func (hc *HealthChecker) SetTimeout(timeout time.Duration) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	hc.timeout = timeout
}

// AddCheck registers check, replacing one with the same name.
func (hc *HealthChecker) AddCheck(check HealthCheck) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	hc.checks[check.Name()] = check
}

// RemoveCheck removes a health check by name.
func (hc *HealthChecker) RemoveCheck(name string) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	delete(hc.checks, name)
}

// CheckHealth runs every check. The result is healthy only if all pass.
func (hc *HealthChecker) CheckHealth(ctx context.Context) HealthStatus {
	hc.mu.RLock()
	checks := make([]HealthCheck, 0, len(hc.checks))
	for _, check := range hc.checks {
		checks = append(checks, check)
	}
	hc.mu.RUnlock()

	status := HealthStatus{
		Status: statusHealthy,
		Checks: make(map[string]ComponentHealth, len(checks)),
	}
	for _, check := range checks {
		result := ComponentHealth{Status: statusHealthy}
		if err := check.Check(ctx); err != nil {
			status.Status = statusUnhealthy
			result = ComponentHealth{Status: statusUnhealthy, Message: err.Error()}
		}
		status.Checks[check.Name()] = result
	}
	return status
}

// Handler serves /healthz (liveness) and /readyz (readiness).
func (hc *HealthChecker) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", hc.LivenessHandler)
	mux.HandleFunc("/readyz", hc.ReadinessHandler)
	return mux
}

// NewServer returns an HTTP server for Handler on addr.
func (hc *HealthChecker) NewServer(addr string) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      hc.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
}

// LivenessHandler always answers 200 with the process uptime.
func (hc *HealthChecker) LivenessHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "alive",
		"uptime": time.Since(hc.started).Round(time.Second).String(),
	})
}

// ReadinessHandler runs all checks and answers 200 when healthy, 503
// otherwise.
func (hc *HealthChecker) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	hc.mu.RLock()
	timeout := hc.timeout
	hc.mu.RUnlock()

	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()

	health := hc.CheckHealth(ctx)
	code := http.StatusOK
	if health.Status != statusHealthy {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, health)
}

func writeJSON(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(body)
}

// SimulationProbe exposes the step loop counters the simulation check reads.
type SimulationProbe interface {
	// LastStep returns when the most recent fixed step finished.
	LastStep() time.Time
	// FrameStats returns the number of frames run and how many of them hit
	// the step limit.
	FrameStats() (frames, clamped uint64)
}

// SimulationHealthCheck reports a stalled or spiralling step loop.
type SimulationHealthCheck struct {
	probe        SimulationProbe
	stallTimeout time.Duration
	maxClamped   float64
	now          func() time.Time

	mu          sync.Mutex
	lastFrames  uint64
	lastClamped uint64
}

// NewSimulationHealthCheck creates a simulation check. The loop is stalled
// when no step finished within stallTimeout, and spiralling when more than
// maxClamped of the frames since the previous check hit the step limit.
func NewSimulationHealthCheck(probe SimulationProbe, stallTimeout time.Duration, maxClamped float64) *SimulationHealthCheck {
	return &SimulationHealthCheck{
		probe:        probe,
		stallTimeout: stallTimeout,
		maxClamped:   maxClamped,
		now:          time.Now,
	}
}

// Name returns the name of this health check.
func (s *SimulationHealthCheck) Name() string {
	return "simulation"
}

// Check verifies that the step loop is advancing and keeping up.
func (s *SimulationHealthCheck) Check(ctx context.Context) error {
	last := s.probe.LastStep()
	if last.IsZero() {
		return fmt.Errorf("simulation has not stepped yet")
	}
	if idle := s.now().Sub(last); s.stallTimeout > 0 && idle > s.stallTimeout {
		return fmt.Errorf("simulation stalled for %v", idle.Round(time.Millisecond))
	}

	frames, clamped := s.probe.FrameStats()
	s.mu.Lock()
	deltaFrames := frames - s.lastFrames
	deltaClamped := clamped - s.lastClamped
	s.lastFrames, s.lastClamped = frames, clamped
	s.mu.Unlock()

	if deltaFrames > 0 {
		ratio := float64(deltaClamped) / float64(deltaFrames)
		if ratio > s.maxClamped {
			return fmt.Errorf("simulation falling behind: %d of %d frames hit the step limit", deltaClamped, deltaFrames)
		}
	}
	return nil
}
