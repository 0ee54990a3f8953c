package health

import (
	"errors"
	"net/http"
	"testing"
	"time"
)

func newTestChecker(breaker string) *HealthCheckerImpl {
	h := NewHealthChecker(func() string { return breaker }, 10*time.Minute)
	h.now = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }
	return h
}

func TestHealthCheck_Pending(t *testing.T) {
	h := newTestChecker("closed")

	status, data, code := h.HealthCheck()
	if status != StatusHealthy || code != http.StatusOK {
		t.Errorf("expected healthy/200 before the first probe, got %s/%d", status, code)
	}
	if data["probe"] != "pending" {
		t.Errorf("expected pending probe, got %v", data["probe"])
	}
}

func TestHealthCheck_Transitions(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	boom := errors.New("registry timeout")

	tests := []struct {
		name     string
		breaker  string
		setup    func(h *HealthCheckerImpl)
		status   string
		httpCode int
	}{
		{
			name:    "recent success",
			breaker: "closed",
			setup: func(h *HealthCheckerImpl) {
				h.RecordSuccess(now.Add(-time.Minute), 120*time.Millisecond)
			},
			status:   StatusHealthy,
			httpCode: http.StatusOK,
		},
		{
			name:    "one failure",
			breaker: "closed",
			setup: func(h *HealthCheckerImpl) {
				h.RecordSuccess(now.Add(-20*time.Minute), time.Millisecond)
				h.RecordFailure(now.Add(-time.Minute), boom)
			},
			status:   StatusDegraded,
			httpCode: http.StatusOK,
		},
		{
			name:    "three failures",
			breaker: "closed",
			setup: func(h *HealthCheckerImpl) {
				for i := 0; i < 3; i++ {
					h.RecordFailure(now, boom)
				}
			},
			status:   StatusUnhealthy,
			httpCode: http.StatusServiceUnavailable,
		},
		{
			name:    "failures reset by success",
			breaker: "closed",
			setup: func(h *HealthCheckerImpl) {
				h.RecordFailure(now.Add(-2*time.Minute), boom)
				h.RecordFailure(now.Add(-2*time.Minute), boom)
				h.RecordSuccess(now.Add(-time.Minute), time.Millisecond)
			},
			status:   StatusHealthy,
			httpCode: http.StatusOK,
		},
		{
			name:    "stale success",
			breaker: "closed",
			setup: func(h *HealthCheckerImpl) {
				h.RecordSuccess(now.Add(-time.Hour), time.Millisecond)
			},
			status:   StatusDegraded,
			httpCode: http.StatusOK,
		},
		{
			name:     "breaker open",
			breaker:  "open",
			setup:    func(h *HealthCheckerImpl) { h.RecordSuccess(now, time.Millisecond) },
			status:   StatusUnhealthy,
			httpCode: http.StatusServiceUnavailable,
		},
		{
			name:     "breaker half-open",
			breaker:  "half-open",
			setup:    func(h *HealthCheckerImpl) { h.RecordSuccess(now, time.Millisecond) },
			status:   StatusDegraded,
			httpCode: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestChecker(tt.breaker)
			tt.setup(h)

			status, data, code := h.HealthCheck()
			if status != tt.status || code != tt.httpCode {
				t.Errorf("got %s/%d, want %s/%d (data %v)", status, code, tt.status, tt.httpCode, data)
			}
			if data["registry_breaker"] != tt.breaker {
				t.Errorf("registry_breaker = %v, want %s", data["registry_breaker"], tt.breaker)
			}
		})
	}
}

func TestHealthCheck_ReportsLastError(t *testing.T) {
	h := newTestChecker("closed")
	h.RecordFailure(time.Date(2025, 3, 1, 11, 0, 0, 0, time.UTC), errors.New("dial tcp: refused"))

	_, data, _ := h.HealthCheck()
	if data["last_error"] != "dial tcp: refused" {
		t.Errorf("last_error = %v", data["last_error"])
	}
	if data["last_failure"] != "2025-03-01T11:00:00Z" {
		t.Errorf("last_failure = %v", data["last_failure"])
	}
	if _, ok := data["probe"]; ok {
		t.Error("probe should no longer be pending")
	}
}

func TestHealthCheck_NilBreaker(t *testing.T) {
	h := NewHealthChecker(nil, 0)
	status, data, _ := h.HealthCheck()
	if status != StatusHealthy || data["registry_breaker"] != "closed" {
		t.Errorf("unexpected %s %v", status, data)
	}
}
