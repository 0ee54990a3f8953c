// Package cascade runs a search against the registry and, when the answer is
// empty, retries it through a fixed sequence of relaxed query shapes.
//
// The sequence is:
//
//	0 primary              the query exactly as classified
//	1 invert_prescription  flip OTC-only <-> all drugs (name and symptom modes)
//	2 drop_basket          drop the health-basket-only filter
//	3 relax_ordering       popularity ordering -> default ordering
//	4 minimal_filters      core term or criterion only
//
// Steps 2 and 3 accumulate on the caller's parameters; step 1 is a probe
// that later steps do not inherit. A step that does not apply, or whose
// parameters were already tried, is skipped and not recorded. The ordering
// is empirical and worth revisiting if the registry's data changes shape.
package cascade

import (
	"context"
	"errors"
	"fmt"

	"github.com/giygas/israeldrugs-mcp/entities"
	"github.com/giygas/israeldrugs-mcp/interfaces"
	"github.com/giygas/israeldrugs-mcp/logging"
	"github.com/giygas/israeldrugs-mcp/metrics"
)

// DefaultMaxResults caps the page handed back to callers.
const DefaultMaxResults = 50

var errUnsupportedMode = errors.New("unsupported search mode")

// Cascade executes fallback searches. It is stateless and safe for concurrent use.
type Cascade struct {
	client     interfaces.RegistryClient
	maxResults int
}

// New creates a cascade; maxResults <= 0 selects DefaultMaxResults.
func New(client interfaces.RegistryClient, maxResults int) *Cascade {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	return &Cascade{client: client, maxResults: maxResults}
}

// Option adjusts a single Execute call.
type Option func(*execOptions)

type execOptions struct {
	exclude map[string]struct{}
}

// Excluding drops records with the given registration numbers before a step
// is judged, so a step that only finds excluded drugs counts as empty.
func Excluding(registrationNumbers ...string) Option {
	return func(o *execOptions) {
		for _, rn := range registrationNumbers {
			if rn == "" {
				continue
			}
			if o.exclude == nil {
				o.exclude = make(map[string]struct{})
			}
			o.exclude[rn] = struct{}{}
		}
	}
}

type plannedStep struct {
	step   entities.CascadeStep
	params entities.QueryParams
}

// plan lists the applicable steps for mode and base, in order. Duplicate
// parameter sets are removed later, at execution time.
func plan(mode entities.SearchMode, base entities.QueryParams) []plannedStep {
	steps := []plannedStep{{entities.StepPrimary, base}}

	if mode.HasPrescriptionFilter() {
		inverted := base
		inverted.Prescription = base.Prescription.Inverted()
		steps = append(steps, plannedStep{entities.StepInvertPrescription, inverted})
	}

	relaxed := base
	if mode.HasPrescriptionFilter() && relaxed.HealthBasketOnly {
		relaxed.HealthBasketOnly = false
		steps = append(steps, plannedStep{entities.StepDropBasket, relaxed})
	}

	if relaxed.Order == entities.OrderPopularity {
		relaxed.Order = entities.OrderDefault
		steps = append(steps, plannedStep{entities.StepRelaxOrdering, relaxed})
	}

	steps = append(steps, plannedStep{entities.StepMinimalFilters, minimal(mode, base)})
	return steps
}

// minimal keeps only what identifies the search: the term, the symptom pair,
// or the generic criterion. The page is kept because it is not a filter.
func minimal(mode entities.SearchMode, base entities.QueryParams) entities.QueryParams {
	switch mode {
	case entities.ModeSymptom:
		return entities.QueryParams{Category: base.Category, Symptom: base.Symptom, Page: base.Page}
	case entities.ModeGeneric:
		return entities.QueryParams{Term: base.Term, AtcCode: base.AtcCode, RouteID: base.RouteID, Page: base.Page}
	default:
		return entities.QueryParams{Term: base.Term, Page: base.Page}
	}
}

// Execute runs the cascade. Finding nothing after the last step is a valid
// outcome and returns a nil error. A transport failure at any step stops
// the cascade with ErrUpstreamUnavailable; cancellation stops it with the
// context's error.
func (c *Cascade) Execute(ctx context.Context, mode entities.SearchMode, base entities.QueryParams, opts ...Option) (entities.ResultSet, error) {
	var o execOptions
	for _, opt := range opts {
		opt(&o)
	}

	switch mode {
	case entities.ModeName, entities.ModeSymptom, entities.ModeGeneric:
	default:
		return entities.ResultSet{Mode: mode}, fmt.Errorf("%w %q", errUnsupportedMode, mode)
	}

	traceID := logging.TraceID(ctx)
	result := entities.ResultSet{Mode: mode, Drugs: []entities.DrugRecord{}}
	var tried []entities.QueryParams

	for _, s := range plan(mode, base) {
		if alreadyTried(tried, s.params) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("cascade aborted before %s: %w", s.step, err)
		}
		tried = append(tried, s.params)

		drugs, hasMore, err := c.run(ctx, mode, s.params)
		if err == nil {
			drugs = o.filter(drugs)
		}
		if err != nil {
			metrics.CascadeAttemptTotals.WithLabelValues(string(mode), s.step.String(), "error").Inc()
			return result, stepError(ctx, s.step, err)
		}

		attempt := entities.SearchAttempt{Step: s.step, Params: s.params, ResultCount: len(drugs)}
		if len(drugs) == 0 {
			metrics.CascadeAttemptTotals.WithLabelValues(string(mode), s.step.String(), "empty").Inc()
			logging.Debug("Cascade step returned no results", "trace_id", traceID, "mode", mode, "step", s.step.String())
			result.Attempts = append(result.Attempts, attempt)
			continue
		}

		attempt.Accepted = true
		result.Attempts = append(result.Attempts, attempt)
		metrics.CascadeAttemptTotals.WithLabelValues(string(mode), s.step.String(), "accepted").Inc()
		metrics.CascadeAcceptedStep.WithLabelValues(string(mode), s.step.String()).Inc()

		step := s.step
		result.AcceptedStep = &step
		result.HasMore = hasMore
		result.TotalCount = len(drugs)
		if len(drugs) > c.maxResults {
			drugs = drugs[:c.maxResults]
			result.Truncated = true
		}
		result.Drugs = drugs

		if step != entities.StepPrimary {
			logging.Info("Cascade recovered results with relaxed query",
				"trace_id", traceID,
				"mode", mode,
				"step", step.String(),
				"attempts", len(result.Attempts),
				"total", result.TotalCount,
			)
		}
		return result, nil
	}

	metrics.CascadeAcceptedStep.WithLabelValues(string(mode), "none").Inc()
	logging.Info("Cascade exhausted without results", "trace_id", traceID, "mode", mode, "attempts", len(result.Attempts))
	return result, nil
}

// run issues one upstream query and normalizes the answer of every
// endpoint to (records, hasMore).
func (c *Cascade) run(ctx context.Context, mode entities.SearchMode, p entities.QueryParams) ([]entities.DrugRecord, bool, error) {
	switch mode {
	case entities.ModeName:
		page, err := c.client.SearchByName(ctx, entities.NameParams{
			Term:             p.Term,
			Prescription:     p.Prescription,
			HealthBasketOnly: p.HealthBasketOnly,
			Page:             p.Page,
			Order:            p.Order,
		})
		return page.Results, page.HasMore, err

	case entities.ModeSymptom:
		page, err := c.client.SearchBySymptom(ctx, entities.SymptomParams{
			Category:         p.Category,
			Symptom:          p.Symptom,
			Prescription:     p.Prescription,
			HealthBasketOnly: p.HealthBasketOnly,
			Page:             p.Page,
			Order:            p.Order,
		})
		return page.Results, page.HasMore, err

	case entities.ModeGeneric:
		routeID := p.RouteID
		if routeID == 0 {
			routeID = p.RouteFilter
		}
		records, err := c.client.SearchGeneric(ctx, entities.GenericParams{
			Term:    p.Term,
			RouteID: routeID,
			AtcCode: p.AtcCode,
			Page:    p.Page,
			Order:   p.Order,
		})
		return records, false, err
	}

	return nil, false, fmt.Errorf("%w %q", errUnsupportedMode, mode)
}

func (o execOptions) filter(drugs []entities.DrugRecord) []entities.DrugRecord {
	if len(o.exclude) == 0 {
		return drugs
	}
	kept := drugs[:0:0]
	for _, d := range drugs {
		if _, skip := o.exclude[d.RegistrationNumber]; !skip {
			kept = append(kept, d)
		}
	}
	return kept
}

func alreadyTried(tried []entities.QueryParams, p entities.QueryParams) bool {
	for _, t := range tried {
		if t == p {
			return true
		}
	}
	return false
}

// stepError keeps the error taxonomy intact: cancellation stays a context
// error, and anything else is reported as the registry being unavailable.
func stepError(ctx context.Context, step entities.CascadeStep, err error) error {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("cascade aborted at %s: %w", step, err)
	}
	return fmt.Errorf("cascade step %s: %w", step, entities.AsUpstream(step.String(), err))
}
