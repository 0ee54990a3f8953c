package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/giygas/israeldrugs-mcp/config"
)

// routeEcho answers every endpoint with its own name.
type routeEcho struct{}

func (routeEcho) echo(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(name))
	}
}

func (e routeEcho) SearchByName(w http.ResponseWriter, r *http.Request) {
	e.echo("search")(w, r)
}

func (e routeEcho) SearchBySymptom(w http.ResponseWriter, r *http.Request) {
	e.echo("symptoms")(w, r)
}

func (e routeEcho) FindAlternatives(w http.ResponseWriter, r *http.Request) {
	e.echo("alternatives")(w, r)
}

func (e routeEcho) Suggest(w http.ResponseWriter, r *http.Request) {
	e.echo("suggest")(w, r)
}

func (e routeEcho) HealthCheck(w http.ResponseWriter, r *http.Request) {
	e.echo("health")(w, r)
}

func testConfig() *config.Config {
	return &config.Config{
		Port:           "8080",
		Address:        "127.0.0.1",
		Env:            "test",
		LogLevel:       "info",
		MaxRequestBody: 1048576,
		MaxHeaderSize:  1048576,
	}
}

func TestRoutes(t *testing.T) {
	s := NewServer(testConfig(), routeEcho{})

	tests := []struct {
		path string
		want string
	}{
		{"/v1/drugs/search?name=acamol", "search"},
		{"/v1/drugs/symptoms?category=a&symptom=b", "symptoms"},
		{"/v1/drugs/alternatives?atc_code=N02B", "alternatives"},
		{"/v1/drugs/suggest?q=aca", "suggest"},
		{"/health", "health"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			req.RemoteAddr = "127.0.0.1:5000"
			rr := httptest.NewRecorder()
			s.Router().ServeHTTP(rr, req)

			if rr.Code != http.StatusOK || rr.Body.String() != tt.want {
				t.Errorf("got %d %q, want 200 %q", rr.Code, rr.Body.String(), tt.want)
			}
			if rr.Header().Get("X-RateLimit-Remaining") == "" {
				t.Error("rate limit headers missing")
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := NewServer(testConfig(), routeEcho{})

	// one routed request so the request counters have a sample
	warm := httptest.NewRequest(http.MethodGet, "/v1/drugs/suggest?q=aca", nil)
	s.Router().ServeHTTP(httptest.NewRecorder(), warm)

	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "http_request_total") {
		t.Error("expected request counters in the exposition")
	}
}

func TestUnknownRouteAndMethod(t *testing.T) {
	s := NewServer(testConfig(), routeEcho{})

	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/drugs/nope", nil))
	if rr.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	s.Router().ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/v1/drugs/search", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rr.Code)
	}
}

func TestProdBlocksDirectAccess(t *testing.T) {
	cfg := testConfig()
	cfg.Env = "prod"
	s := NewServer(cfg, routeEcho{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.RemoteAddr = "192.0.2.44:1000"
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Errorf("expected 403 in prod without proxy headers, got %d", rr.Code)
	}
}

func TestStartAndShutdown(t *testing.T) {
	cfg := testConfig()
	cfg.Port = "0"
	s := NewServer(cfg, routeEcho{})

	errCh := make(chan error, 1)
	go func() { errCh <- s.Start() }()
	time.Sleep(50 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Start returned %v after graceful shutdown", err)
		}
	case <-time.After(2 * time.Second):
		t.Error("Start did not return after Shutdown")
	}
}
