// Package interfaces defines core abstractions for the drug registry search service
// to improve testability, maintainability, and separation of concerns.
package interfaces

import (
	"context"
	"net/http"
	"time"

	"github.com/giygas/israeldrugs-mcp/entities"
)

// RegistryClient is the narrow contract the search engine consumes from the
// upstream drug registry. Implementations must be safe for concurrent use:
// it is the only object shared between simultaneous resolutions.
type RegistryClient interface {
	// SearchByName queries the enveloped by-name endpoint
	SearchByName(ctx context.Context, params entities.NameParams) (entities.NamePage, error)

	// SearchBySymptom queries the enveloped by-symptom endpoint
	SearchBySymptom(ctx context.Context, params entities.SymptomParams) (entities.NamePage, error)

	// SearchGeneric queries the generic-name endpoint, which returns a bare array
	SearchGeneric(ctx context.Context, params entities.GenericParams) ([]entities.DrugRecord, error)

	// GetDrugDetail fetches the full record for one registration number
	GetDrugDetail(ctx context.Context, registrationNumber string) (entities.DrugDetail, error)

	// Autocomplete returns raw name suggestions for a partial term
	Autocomplete(ctx context.Context, params entities.AutocompleteParams) ([]string, error)
}

// SearchEngine exposes the four resolution entry points to the tool and HTTP layers.
type SearchEngine interface {
	ResolveByName(ctx context.Context, req NameRequest) (entities.ResultSet, error)
	ResolveBySymptom(ctx context.Context, req SymptomRequest) (entities.ResultSet, error)
	ResolveAlternatives(ctx context.Context, req AlternativesRequest) (entities.ResultSet, error)
	Suggest(ctx context.Context, req SuggestRequest) ([]entities.Suggestion, error)
}

// NameRequest searches by trade or generic name.
type NameRequest struct {
	Term             string
	Prescription     entities.PrescriptionFilter
	HealthBasketOnly bool
	Order            entities.SearchOrder
	Page             int
}

// SymptomRequest searches by a symptom category and symptom pair.
type SymptomRequest struct {
	Category         string
	Symptom          string
	Prescription     entities.PrescriptionFilter
	HealthBasketOnly bool
	Order            entities.SearchOrder
	Page             int
}

// AlternativesRequest searches the generic endpoint for therapeutic alternatives.
type AlternativesRequest struct {
	Criteria    entities.RawCriteria
	RouteFilter string // optional route name restricting ingredient/ATC searches
	Order       entities.SearchOrder
	Page        int
}

// SuggestRequest asks for ranked autocomplete suggestions.
type SuggestRequest struct {
	Query              string
	Limit              int
	IncludeTradeNames  bool
	IncludeIngredients bool
}

// InputValidator defines the contract for validating user supplied search terms.
type InputValidator interface {
	// ValidateInput checks a free search term
	ValidateInput(input string) error

	// ValidatePage checks a 1-based page number
	ValidatePage(page int) error
}

// UpstreamProbe records the outcome of periodic registry reachability checks.
type UpstreamProbe interface {
	RecordSuccess(at time.Time, latency time.Duration)
	RecordFailure(at time.Time, err error)
}

// HealthChecker defines the contract for health check functionality.
type HealthChecker interface {
	// HealthCheck returns current system health status
	HealthCheck() (status string, details map[string]any, httpStatus int)
}

// Scheduler defines the contract for background job scheduling.
type Scheduler interface {
	Start() error
	Stop()
}

// HTTPHandler defines the contract for HTTP request handlers.
type HTTPHandler interface {
	SearchByName(w http.ResponseWriter, r *http.Request)
	SearchBySymptom(w http.ResponseWriter, r *http.Request)
	FindAlternatives(w http.ResponseWriter, r *http.Request)
	Suggest(w http.ResponseWriter, r *http.Request)
	HealthCheck(w http.ResponseWriter, r *http.Request)
}
