// Package engine composes the normalizer, the reference resolver, the
// fallback cascade and the suggestion ranker behind the four entry points
// exposed to tools and HTTP clients.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/giygas/israeldrugs-mcp/cascade"
	"github.com/giygas/israeldrugs-mcp/entities"
	"github.com/giygas/israeldrugs-mcp/interfaces"
	"github.com/giygas/israeldrugs-mcp/logging"
	"github.com/giygas/israeldrugs-mcp/normalizer"
	"github.com/giygas/israeldrugs-mcp/resolver"
	"github.com/giygas/israeldrugs-mcp/suggest"
)

var _ interfaces.SearchEngine = (*Engine)(nil)

// Options tunes the engine; zero values select the defaults.
type Options struct {
	MaxResults   int
	SuggestLimit int
}

const defaultSuggestLimit = 10

// Engine is safe for concurrent use. Nothing but the registry client is
// shared between resolutions.
type Engine struct {
	client       interfaces.RegistryClient
	validator    interfaces.InputValidator
	normalizer   *normalizer.Normalizer
	resolver     *resolver.Resolver
	cascade      *cascade.Cascade
	suggestLimit int
}

// New wires an engine around a registry client.
func New(client interfaces.RegistryClient, validator interfaces.InputValidator, opts Options) *Engine {
	limit := opts.SuggestLimit
	if limit <= 0 {
		limit = defaultSuggestLimit
	}
	return &Engine{
		client:       client,
		validator:    validator,
		normalizer:   normalizer.New(validator),
		resolver:     resolver.New(client),
		cascade:      cascade.New(client, opts.MaxResults),
		suggestLimit: limit,
	}
}

// ResolveByName searches trade and generic names.
func (e *Engine) ResolveByName(ctx context.Context, req interfaces.NameRequest) (entities.ResultSet, error) {
	ctx, done := e.begin(ctx, entities.ModeName)

	term, err := e.normalizer.NormalizeTerm(req.Term)
	if err != nil {
		return done(entities.ResultSet{}, fmt.Errorf("name: %w", err))
	}
	page, err := e.page(req.Page)
	if err != nil {
		return done(entities.ResultSet{}, err)
	}

	rs, err := e.cascade.Execute(ctx, entities.ModeName, entities.QueryParams{
		Term:             term,
		Prescription:     req.Prescription,
		HealthBasketOnly: req.HealthBasketOnly,
		Order:            req.Order,
		Page:             page,
	})
	return done(rs, err)
}

// ResolveBySymptom searches a symptom category and symptom pair.
func (e *Engine) ResolveBySymptom(ctx context.Context, req interfaces.SymptomRequest) (entities.ResultSet, error) {
	ctx, done := e.begin(ctx, entities.ModeSymptom)

	category, err := e.normalizer.NormalizeTerm(req.Category)
	if err != nil {
		return done(entities.ResultSet{}, fmt.Errorf("category: %w", err))
	}
	symptom, err := e.normalizer.NormalizeTerm(req.Symptom)
	if err != nil {
		return done(entities.ResultSet{}, fmt.Errorf("symptom: %w", err))
	}
	page, err := e.page(req.Page)
	if err != nil {
		return done(entities.ResultSet{}, err)
	}

	rs, err := e.cascade.Execute(ctx, entities.ModeSymptom, entities.QueryParams{
		Category:         category,
		Symptom:          symptom,
		Prescription:     req.Prescription,
		HealthBasketOnly: req.HealthBasketOnly,
		Order:            req.Order,
		Page:             page,
	})
	return done(rs, err)
}

// ResolveAlternatives searches the generic endpoint for drugs sharing an
// ingredient, ATC class or route with the criterion. A reference drug is
// first resolved to one of those and then excluded from its own alternatives.
func (e *Engine) ResolveAlternatives(ctx context.Context, req interfaces.AlternativesRequest) (entities.ResultSet, error) {
	ctx, done := e.begin(ctx, entities.ModeGeneric)

	raw := req.Criteria
	if raw.AtcCode != "" {
		raw.AtcCode = normalizer.TruncateAtc(strings.ToUpper(raw.AtcCode))
	}
	criterion, err := e.normalizer.Classify(raw)
	if err != nil {
		return done(entities.ResultSet{}, err)
	}

	var routeFilter int
	if strings.TrimSpace(req.RouteFilter) != "" && criterion.Kind() != entities.KindAdministrationRoute {
		if routeFilter, err = normalizer.ResolveRoute(req.RouteFilter); err != nil {
			return done(entities.ResultSet{}, fmt.Errorf("route filter: %w", err))
		}
	}
	page, err := e.page(req.Page)
	if err != nil {
		return done(entities.ResultSet{}, err)
	}

	var reference *entities.ResolvedReference
	var opts []cascade.Option
	if criterion.Kind() == entities.KindReferenceDrug {
		ref, err := e.resolver.Resolve(ctx, criterion.Value())
		if err != nil {
			return done(entities.ResultSet{}, err)
		}
		logging.Info("Reference drug resolved",
			"trace_id", logging.TraceID(ctx),
			"reference", ref.ReferenceName,
			"registration_number", ref.RegistrationNumber,
			"criterion", ref.Criterion.String(),
		)
		reference = &ref
		criterion = ref.Criterion
		opts = append(opts, cascade.Excluding(ref.RegistrationNumber))
	}

	params := genericParams(criterion)
	params.RouteFilter = routeFilter
	params.Order = req.Order
	params.Page = page

	rs, err := e.cascade.Execute(ctx, entities.ModeGeneric, params, opts...)
	rs.Reference = reference
	return done(rs, err)
}

// genericParams maps a classified criterion onto the generic endpoint.
func genericParams(c entities.SearchCriterion) entities.QueryParams {
	switch c.Kind() {
	case entities.KindAtcCode:
		return entities.QueryParams{AtcCode: c.Value()}
	case entities.KindAdministrationRoute:
		return entities.QueryParams{RouteID: c.RouteID()}
	default:
		return entities.QueryParams{Term: c.Value()}
	}
}

// Suggest ranks the registry's autocomplete candidates for a partial name.
func (e *Engine) Suggest(ctx context.Context, req interfaces.SuggestRequest) ([]entities.Suggestion, error) {
	traceID := uuid.NewString()
	ctx = logging.WithTraceID(ctx, traceID)

	query, err := e.normalizer.NormalizeTerm(req.Query)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}

	limit := req.Limit
	if limit <= 0 {
		limit = e.suggestLimit
	}
	trade, ingredients := req.IncludeTradeNames, req.IncludeIngredients
	if !trade && !ingredients {
		trade, ingredients = true, true
	}

	raw, err := e.client.Autocomplete(ctx, entities.AutocompleteParams{
		Term:               query,
		IncludeTradeNames:  trade,
		IncludeIngredients: ingredients,
	})
	if err != nil {
		logging.Warn("Autocomplete failed", "trace_id", traceID, "query", query, "error", err)
		return nil, fmt.Errorf("suggest %q: %w", query, entities.AsUpstream("suggest", err))
	}

	suggestions := suggest.Rank(raw, query, limit)
	logging.Debug("Suggestions ranked",
		"trace_id", traceID,
		"query", query,
		"candidates", len(raw),
		"returned", len(suggestions),
	)
	return suggestions, nil
}

func (e *Engine) page(page int) (int, error) {
	if page == 0 {
		return 1, nil
	}
	if err := e.validator.ValidatePage(page); err != nil {
		return 0, fmt.Errorf("%w: %v", entities.ErrInvalidCriterion, err)
	}
	return page, nil
}

// begin tags ctx with a fresh trace id and returns a finisher that logs
// the outcome of the resolution.
func (e *Engine) begin(ctx context.Context, mode entities.SearchMode) (context.Context, func(entities.ResultSet, error) (entities.ResultSet, error)) {
	traceID := uuid.NewString()
	ctx = logging.WithTraceID(ctx, traceID)
	start := time.Now()

	return ctx, func(rs entities.ResultSet, err error) (entities.ResultSet, error) {
		elapsed := time.Since(start).Milliseconds()
		if err != nil {
			attrs := []any{
				"trace_id", traceID,
				"mode", mode,
				"retryable", entities.Retryable(err),
				"duration_ms", elapsed,
				"error", err,
			}
			var resErr *entities.ResolutionError
			switch {
			case entities.IsInputError(err), errors.As(err, &resErr):
				logging.Info("Resolution rejected", attrs...)
			default:
				logging.Warn("Resolution failed", attrs...)
			}
			return entities.ResultSet{}, err
		}

		step := "none"
		if rs.AcceptedStep != nil {
			step = rs.AcceptedStep.String()
		}
		rs.TraceID = traceID
		logging.Info("Resolution completed",
			"trace_id", traceID,
			"mode", mode,
			"accepted_step", step,
			"attempts", len(rs.Attempts),
			"drugs", len(rs.Drugs),
			"total", rs.TotalCount,
			"duration_ms", elapsed,
		)
		return rs, nil
	}
}
