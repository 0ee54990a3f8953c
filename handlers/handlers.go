// Package handlers provides the HTTP JSON endpoints over the search engine:
// query parsing, error-to-status mapping and response formatting.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/giygas/israeldrugs-mcp/entities"
	"github.com/giygas/israeldrugs-mcp/logging"
)

// retryAfterSeconds is advertised on 503 responses.
const retryAfterSeconds = 30

var errNegativeLimit = errors.New("limit must not be negative")

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Code      int    `json:"code"`
	Retryable bool   `json:"retryable"`
}

// RespondWithJSON writes payload as JSON with the given status.
func RespondWithJSON(w http.ResponseWriter, code int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		logging.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(code)
	w.Write(data)
}

// RespondWithError writes a JSON error body.
func RespondWithError(w http.ResponseWriter, code int, message string) {
	RespondWithJSON(w, code, ErrorResponse{
		Error:   http.StatusText(code),
		Message: message,
		Code:    code,
	})
}

// RespondWithEngineError maps the engine's typed errors onto HTTP.
func RespondWithEngineError(w http.ResponseWriter, err error) {
	code := StatusForError(err)
	retryable := entities.Retryable(err)
	if code == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds))
	}
	if code >= http.StatusInternalServerError {
		logging.Warn("Request failed", "status", code, "error", err)
	}

	RespondWithJSON(w, code, ErrorResponse{
		Error:     http.StatusText(code),
		Message:   err.Error(),
		Code:      code,
		Retryable: retryable,
	})
}

// StatusForError returns the HTTP status for an engine error.
func StatusForError(err error) int {
	switch {
	case entities.IsInputError(err):
		return http.StatusBadRequest
	case errors.Is(err, entities.ErrDrugNotFound):
		return http.StatusNotFound
	case errors.Is(err, entities.ErrResolutionIncomplete):
		return http.StatusUnprocessableEntity
	case entities.Retryable(err):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// filters are the optional query parameters shared by the search routes.
type filters struct {
	Prescription     entities.PrescriptionFilter
	HealthBasketOnly bool
	Order            entities.SearchOrder
	Page             int
}

func parseFilters(r *http.Request) (filters, error) {
	q := r.URL.Query()
	var f filters
	var err error

	if f.Prescription, err = parsePrescription(q.Get("prescription")); err != nil {
		return f, err
	}
	if f.HealthBasketOnly, err = parseBool(q.Get("basket"), "basket"); err != nil {
		return f, err
	}
	if f.Order, err = entities.ParseSearchOrder(q.Get("order")); err != nil {
		return f, err
	}
	if f.Page, err = parseInt(q.Get("page"), "page"); err != nil {
		return f, err
	}
	return f, nil
}

// parsePrescription accepts "all" or "otc" (long forms too); empty means all.
func parsePrescription(s string) (entities.PrescriptionFilter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all", "all_drugs":
		return entities.AllDrugs, nil
	case "otc", "otc_only":
		return entities.OtcOnly, nil
	}
	return entities.AllDrugs, fmt.Errorf("prescription must be 'all' or 'otc', got %q", s)
}

func parseBool(s, name string) (bool, error) {
	if s == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("%s must be true or false, got %q", name, s)
	}
	return b, nil
}

func parseInt(s, name string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number, got %q", name, s)
	}
	return n, nil
}

// formatUptimeHuman formats duration into a human-readable string
func formatUptimeHuman(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	var parts []string
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 || days > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 || hours > 0 || days > 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	parts = append(parts, fmt.Sprintf("%ds", seconds))

	return strings.Join(parts, " ")
}
