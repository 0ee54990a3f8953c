// Package health reports whether the upstream drug registry is reachable,
// based on periodic probes and the registry client's circuit breaker.
package health

import (
	"net/http"
	"sync"
	"time"

	"github.com/giygas/israeldrugs-mcp/interfaces"
)

const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// unhealthyAfter is the number of consecutive failed probes that marks
// the registry as down.
const unhealthyAfter = 3

var (
	_ interfaces.HealthChecker = (*HealthCheckerImpl)(nil)
	_ interfaces.UpstreamProbe = (*HealthCheckerImpl)(nil)
)

// HealthCheckerImpl keeps the latest probe outcomes. It stores no query data.
type HealthCheckerImpl struct {
	breakerState  func() string
	probeInterval time.Duration
	startedAt     time.Time
	now           func() time.Time

	mu                  sync.RWMutex
	lastSuccess         time.Time
	lastFailure         time.Time
	lastError           string
	lastLatency         time.Duration
	consecutiveFailures int
}

// NewHealthChecker creates a checker. breakerState may be nil when no
// circuit breaker is in use.
func NewHealthChecker(breakerState func() string, probeInterval time.Duration) *HealthCheckerImpl {
	return &HealthCheckerImpl{
		breakerState:  breakerState,
		probeInterval: probeInterval,
		startedAt:     time.Now(),
		now:           time.Now,
	}
}

// RecordSuccess notes a successful probe.
func (h *HealthCheckerImpl) RecordSuccess(at time.Time, latency time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastSuccess = at
	h.lastLatency = latency
	h.consecutiveFailures = 0
}

// RecordFailure notes a failed probe.
func (h *HealthCheckerImpl) RecordFailure(at time.Time, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastFailure = at
	h.consecutiveFailures++
	if err != nil {
		h.lastError = err.Error()
	}
}

// HealthCheck returns the service status for the /health endpoint.
// Degraded still answers 200: searches may work, just less reliably.
func (h *HealthCheckerImpl) HealthCheck() (status string, data map[string]any, httpStatus int) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	breaker := "closed"
	if h.breakerState != nil {
		breaker = h.breakerState()
	}
	now := h.now()
	stale := h.probeInterval > 0 && !h.lastSuccess.IsZero() && now.Sub(h.lastSuccess) > 3*h.probeInterval

	switch {
	case breaker == "open", h.consecutiveFailures >= unhealthyAfter:
		status, httpStatus = StatusUnhealthy, http.StatusServiceUnavailable
	case breaker == "half-open", h.consecutiveFailures > 0, stale:
		status, httpStatus = StatusDegraded, http.StatusOK
	default:
		status, httpStatus = StatusHealthy, http.StatusOK
	}

	data = map[string]any{
		"registry_breaker":     breaker,
		"consecutive_failures": h.consecutiveFailures,
		"uptime_seconds":       int64(now.Sub(h.startedAt).Seconds()),
	}
	if h.lastSuccess.IsZero() && h.lastFailure.IsZero() {
		data["probe"] = "pending"
	}
	if !h.lastSuccess.IsZero() {
		data["last_success"] = h.lastSuccess.Format(time.RFC3339)
		data["probe_latency_ms"] = h.lastLatency.Milliseconds()
	}
	if !h.lastFailure.IsZero() {
		data["last_failure"] = h.lastFailure.Format(time.RFC3339)
		data["last_error"] = h.lastError
	}

	return status, data, httpStatus
}
