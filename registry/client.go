// Package registry is the HTTP client for the Ministry of Health drug registry.
// It owns the transport policy: outbound throttling, bounded retries with
// exponential backoff, and a circuit breaker. The search engine above it
// never retries on its own.
package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/juju/ratelimit"
	"github.com/sony/gobreaker"

	"github.com/giygas/israeldrugs-mcp/entities"
	"github.com/giygas/israeldrugs-mcp/interfaces"
	"github.com/giygas/israeldrugs-mcp/logging"
	"github.com/giygas/israeldrugs-mcp/metrics"
)

// DefaultBaseURL is the public registry service root.
const DefaultBaseURL = "https://israeldrugs.health.gov.il/GovServiceList/IDRServer/"

// Endpoint paths relative to the base URL.
const (
	pathSearchByName    = "SearchByName"
	pathSearchBySymptom = "SearchBySymptom"
	pathSearchGeneric   = "SearchGenericName"
	pathDrugDetail      = "GetSpecificDrug"
	pathAutocomplete    = "GetSearchBoxAutocomplete"
)

const maxResponseBytes = 10 * 1024 * 1024

// ErrNotFound is returned when the registry answers 404 for a lookup.
var ErrNotFound = errors.New("not found in registry")

// Compile-time check to ensure Client implements RegistryClient
var _ interfaces.RegistryClient = (*Client)(nil)

// Options configures a Client. Zero values fall back to defaults.
type Options struct {
	BaseURL        string
	Timeout        time.Duration
	MaxRetries     int
	InitialBackoff time.Duration
	RatePerSecond  float64
	Burst          int64
	HTTPClient     *http.Client
}

// Client talks to the registry. It is safe for concurrent use.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	maxRetries     uint64
	initialBackoff time.Duration
	limiter        *ratelimit.Bucket
	breaker        *gobreaker.CircuitBreaker
}

// NewClient creates a registry client
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(opts.BaseURL, "/") {
		opts.BaseURL += "/"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.InitialBackoff <= 0 {
		opts.InitialBackoff = 200 * time.Millisecond
	}
	if opts.RatePerSecond <= 0 {
		opts.RatePerSecond = 5
	}
	if opts.Burst <= 0 {
		opts.Burst = 10
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}

	return &Client{
		baseURL:        opts.BaseURL,
		httpClient:     httpClient,
		maxRetries:     uint64(opts.MaxRetries),
		initialBackoff: opts.InitialBackoff,
		limiter:        ratelimit.NewBucketWithRate(opts.RatePerSecond, opts.Burst),
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "israeldrugs-registry",
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			IsSuccessful: countsAsHealthy,
			OnStateChange: func(name string, from, to gobreaker.State) {
				logging.Warn("Registry circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
			},
		}),
	}
}

// countsAsHealthy decides what the breaker records as a registry failure.
// A caller's own deadline or cancellation, and a 4xx the registry answered
// on purpose, say nothing about the registry's health.
func countsAsHealthy(err error) bool {
	var gone *callerGoneError
	if err == nil || errors.As(err, &gone) {
		return true
	}
	var se *statusError
	if errors.As(err, &se) {
		return se.code < 500 && se.code != http.StatusTooManyRequests
	}
	return false
}

// BreakerState reports the circuit breaker state: "closed", "half-open" or "open".
func (c *Client) BreakerState() string {
	return c.breaker.State().String()
}

// SearchByName queries the by-name endpoint
func (c *Client) SearchByName(ctx context.Context, params entities.NameParams) (entities.NamePage, error) {
	body := nameRequest{
		Val:            params.Term,
		Prescription:   params.Prescription.WireValue(),
		HealthServices: params.HealthBasketOnly,
		PageIndex:      pageOrFirst(params.Page),
		OrderBy:        int(params.Order),
	}

	var envelope searchEnvelope
	if err := c.post(ctx, "search_by_name", pathSearchByName, body, &envelope); err != nil {
		return entities.NamePage{}, err
	}

	records, err := toRecords(envelope.Results)
	if err != nil {
		return entities.NamePage{}, shapeError("search_by_name", err)
	}
	return entities.NamePage{Results: records, HasMore: envelope.HasMore}, nil
}

// SearchBySymptom queries the by-symptom endpoint
func (c *Client) SearchBySymptom(ctx context.Context, params entities.SymptomParams) (entities.NamePage, error) {
	body := symptomRequest{
		PrimarySymp:    params.Category,
		SecondarySymp:  params.Symptom,
		HealthServices: params.HealthBasketOnly,
		PageIndex:      pageOrFirst(params.Page),
		Prescription:   params.Prescription.WireValue(),
		OrderBy:        int(params.Order),
	}

	var envelope searchEnvelope
	if err := c.post(ctx, "search_by_symptom", pathSearchBySymptom, body, &envelope); err != nil {
		return entities.NamePage{}, err
	}

	records, err := toRecords(envelope.Results)
	if err != nil {
		return entities.NamePage{}, shapeError("search_by_symptom", err)
	}
	return entities.NamePage{Results: records, HasMore: envelope.HasMore}, nil
}

// SearchGeneric queries the generic-name endpoint, which answers with a bare array
func (c *Client) SearchGeneric(ctx context.Context, params entities.GenericParams) ([]entities.DrugRecord, error) {
	body := genericRequest{
		Val:       optionalString(params.Term),
		MatanID:   optionalInt(params.RouteID),
		AtcID:     optionalString(params.AtcCode),
		PageIndex: pageOrFirst(params.Page),
		OrderBy:   int(params.Order),
	}

	var results []wireDrug
	if err := c.post(ctx, "search_generic", pathSearchGeneric, body, &results); err != nil {
		return nil, err
	}

	records, err := toRecords(results)
	if err != nil {
		return nil, shapeError("search_generic", err)
	}
	return records, nil
}

// GetDrugDetail fetches one drug by registration number
func (c *Client) GetDrugDetail(ctx context.Context, registrationNumber string) (entities.DrugDetail, error) {
	var detail wireDetail
	if err := c.post(ctx, "drug_detail", pathDrugDetail, detailRequest{DragRegNum: registrationNumber}, &detail); err != nil {
		return entities.DrugDetail{}, err
	}
	if strings.TrimSpace(detail.DragRegNum) == "" {
		return entities.DrugDetail{}, fmt.Errorf("drug_detail %s: %w", registrationNumber, ErrNotFound)
	}
	return detail.toDetail(), nil
}

// Autocomplete returns the raw suggestion strings for a partial term
func (c *Client) Autocomplete(ctx context.Context, params entities.AutocompleteParams) ([]string, error) {
	body := autocompleteRequest{
		Val:                 params.Term,
		IsSearchTradeName:   params.IncludeTradeNames,
		IsSearchTradeMarkiv: params.IncludeIngredients,
	}

	var results []wireSuggestion
	if err := c.post(ctx, "autocomplete", pathAutocomplete, body, &results); err != nil {
		return nil, err
	}

	out := make([]string, 0, len(results))
	for _, r := range results {
		if v := strings.TrimSpace(r.Val); v != "" {
			out = append(out, v)
		}
	}
	return out, nil
}

// callerGoneError marks a call abandoned because the caller's context ended.
type callerGoneError struct {
	err error
}

func (e *callerGoneError) Error() string { return e.err.Error() }

func (e *callerGoneError) Unwrap() error { return e.err }

// statusError is a non-2xx answer from the registry.
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("registry answered %d %s", e.code, http.StatusText(e.code))
}

// post sends one JSON request through the limiter, the breaker and the
// retry loop, and decodes the answer into out.
func (c *Client) post(ctx context.Context, op, path string, body, out any) error {
	start := time.Now()
	status := "ok"
	defer func() {
		metrics.UpstreamRequestTotals.WithLabelValues(op, status).Inc()
		metrics.UpstreamRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}()

	payload, err := json.Marshal(body)
	if err != nil {
		status = "encode_error"
		return fmt.Errorf("%s: failed to encode request: %w", op, err)
	}

	if err := c.wait(ctx); err != nil {
		status = "canceled"
		return fmt.Errorf("%s: %w", op, err)
	}

	notFound := false
	_, err = c.breaker.Execute(func() (interface{}, error) {
		expo := backoff.NewExponentialBackOff()
		expo.InitialInterval = c.initialBackoff
		policy := backoff.WithContext(backoff.WithMaxRetries(expo, c.maxRetries), ctx)

		retryErr := backoff.Retry(func() error {
			return c.do(ctx, path, payload, out)
		}, policy)

		// A missing record is an answer, not an outage.
		if errors.Is(retryErr, ErrNotFound) {
			notFound = true
			return nil, nil
		}
		if retryErr != nil && ctx.Err() != nil {
			return nil, &callerGoneError{err: retryErr}
		}
		return nil, retryErr
	})

	switch {
	case notFound:
		status = "not_found"
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case err == nil:
		return nil
	case ctx.Err() != nil:
		status = "canceled"
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
		status = "error"
		logging.Warn("Registry call failed", "operation", op, "error", err, "duration_ms", time.Since(start).Milliseconds())
		return &entities.UpstreamError{Op: op, Err: err}
	}
}

// do performs a single HTTP round trip. Errors wrapped in backoff.Permanent
// are not retried.
func (c *Client) do(ctx context.Context, path string, payload []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return backoff.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		return err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logging.Warn("Failed to close response body", "error", err)
		}
	}()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return backoff.Permanent(ErrNotFound)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return &statusError{code: resp.StatusCode}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return backoff.Permanent(&statusError{code: resp.StatusCode})
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return backoff.Permanent(fmt.Errorf("unexpected response shape: %w", err))
	}
	return nil
}

// wait blocks until the outbound token bucket grants a token or ctx ends.
func (c *Client) wait(ctx context.Context) error {
	d := c.limiter.Take(1)
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func shapeError(op string, err error) error {
	logging.Warn("Registry returned a malformed record", "operation", op, "error", err)
	return &entities.UpstreamError{Op: op, Err: fmt.Errorf("unexpected response shape: %w", err)}
}

func pageOrFirst(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

// String describes the client for logs.
func (c *Client) String() string {
	return "registry(" + c.baseURL + ", retries=" + strconv.FormatUint(c.maxRetries, 10) + ")"
}
