package handlers

import (
	"net/http"
	"runtime"
	"time"

	"github.com/giygas/israeldrugs-mcp/entities"
	"github.com/giygas/israeldrugs-mcp/interfaces"
)

var _ interfaces.HTTPHandler = (*HTTPHandlerImpl)(nil)

// HTTPHandlerImpl implements the interfaces.HTTPHandler interface
type HTTPHandlerImpl struct {
	engine    interfaces.SearchEngine
	health    interfaces.HealthChecker
	startedAt time.Time
}

// NewHTTPHandler creates a new HTTP handler with injected dependencies
func NewHTTPHandler(engine interfaces.SearchEngine, health interfaces.HealthChecker) *HTTPHandlerImpl {
	return &HTTPHandlerImpl{
		engine:    engine,
		health:    health,
		startedAt: time.Now(),
	}
}

// SearchByName handles GET /v1/drugs/search?name=
func (h *HTTPHandlerImpl) SearchByName(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilters(r)
	if err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	rs, err := h.engine.ResolveByName(r.Context(), interfaces.NameRequest{
		Term:             r.URL.Query().Get("name"),
		Prescription:     f.Prescription,
		HealthBasketOnly: f.HealthBasketOnly,
		Order:            f.Order,
		Page:             f.Page,
	})
	if err != nil {
		RespondWithEngineError(w, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, rs)
}

// SearchBySymptom handles GET /v1/drugs/symptoms?category=&symptom=
func (h *HTTPHandlerImpl) SearchBySymptom(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilters(r)
	if err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	q := r.URL.Query()
	rs, err := h.engine.ResolveBySymptom(r.Context(), interfaces.SymptomRequest{
		Category:         q.Get("category"),
		Symptom:          q.Get("symptom"),
		Prescription:     f.Prescription,
		HealthBasketOnly: f.HealthBasketOnly,
		Order:            f.Order,
		Page:             f.Page,
	})
	if err != nil {
		RespondWithEngineError(w, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, rs)
}

// FindAlternatives handles GET /v1/drugs/alternatives with exactly one of
// active_ingredient, atc_code, route, reference_drug or free_text.
func (h *HTTPHandlerImpl) FindAlternatives(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilters(r)
	if err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	q := r.URL.Query()
	rs, err := h.engine.ResolveAlternatives(r.Context(), interfaces.AlternativesRequest{
		Criteria: entities.RawCriteria{
			ActiveIngredient:    q.Get("active_ingredient"),
			AtcCode:             q.Get("atc_code"),
			AdministrationRoute: q.Get("route"),
			ReferenceDrug:       q.Get("reference_drug"),
			FreeText:            q.Get("free_text"),
		},
		RouteFilter: q.Get("route_filter"),
		Order:       f.Order,
		Page:        f.Page,
	})
	if err != nil {
		RespondWithEngineError(w, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, rs)
}

// SuggestResponse wraps ranked suggestions.
type SuggestResponse struct {
	Query       string                `json:"query"`
	Suggestions []entities.Suggestion `json:"suggestions"`
}

// Suggest handles GET /v1/drugs/suggest?q=&limit=
func (h *HTTPHandlerImpl) Suggest(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit, err := parseInt(q.Get("limit"), "limit")
	if err == nil && limit < 0 {
		err = errNegativeLimit
	}
	if err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	trade, err := parseBool(q.Get("trade_names"), "trade_names")
	if err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	ingredients, err := parseBool(q.Get("ingredients"), "ingredients")
	if err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	suggestions, err := h.engine.Suggest(r.Context(), interfaces.SuggestRequest{
		Query:              q.Get("q"),
		Limit:              limit,
		IncludeTradeNames:  trade,
		IncludeIngredients: ingredients,
	})
	if err != nil {
		RespondWithEngineError(w, err)
		return
	}
	if suggestions == nil {
		suggestions = []entities.Suggestion{}
	}
	RespondWithJSON(w, http.StatusOK, SuggestResponse{Query: q.Get("q"), Suggestions: suggestions})
}

// HealthResponse defines the structure for consistent JSON ordering
type HealthResponse struct {
	Status        string         `json:"status"`
	Uptime        string         `json:"uptime"`
	UptimeSeconds float64        `json:"uptime_seconds"`
	Registry      map[string]any `json:"registry"`
	System        map[string]any `json:"system"`
}

// HealthCheck handles GET /health
func (h *HTTPHandlerImpl) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status, data, httpStatus := h.health.HealthCheck()

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	uptime := time.Since(h.startedAt)

	RespondWithJSON(w, httpStatus, HealthResponse{
		Status:        status,
		Uptime:        formatUptimeHuman(uptime),
		UptimeSeconds: uptime.Seconds(),
		Registry:      data,
		System: map[string]any{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]any{
				"alloc_mb": int(m.Alloc / 1024 / 1024),
				"sys_mb":   int(m.Sys / 1024 / 1024),
				"num_gc":   m.NumGC,
			},
		},
	})
}
