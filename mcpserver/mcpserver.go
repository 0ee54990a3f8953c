// Package mcpserver exposes the search engine as MCP tools.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/giygas/israeldrugs-mcp/entities"
	"github.com/giygas/israeldrugs-mcp/interfaces"
	"github.com/giygas/israeldrugs-mcp/logging"
)

const serverName = "israeldrugs"

// SearchByNameInput are the arguments of search_drug_by_name.
type SearchByNameInput struct {
	Name         string `json:"name" jsonschema:"drug trade name or active ingredient, Hebrew or English"`
	Prescription string `json:"prescription,omitempty" jsonschema:"'all' (default) or 'otc' for over-the-counter only"`
	HealthBasket bool   `json:"health_basket,omitempty" jsonschema:"only drugs covered by the national health basket"`
	Order        string `json:"order,omitempty" jsonschema:"result ordering: default, popularity, alphabetical or price_ascending"`
	Page         int    `json:"page,omitempty" jsonschema:"1-based result page"`
}

// SearchBySymptomsInput are the arguments of search_by_symptoms.
type SearchBySymptomsInput struct {
	Category     string `json:"category" jsonschema:"symptom category, e.g. pain"`
	Symptom      string `json:"symptom" jsonschema:"symptom within the category, e.g. headache"`
	Prescription string `json:"prescription,omitempty" jsonschema:"'all' (default) or 'otc' for over-the-counter only"`
	HealthBasket bool   `json:"health_basket,omitempty" jsonschema:"only drugs covered by the national health basket"`
	Order        string `json:"order,omitempty" jsonschema:"result ordering: default, popularity, alphabetical or price_ascending"`
	Page         int    `json:"page,omitempty" jsonschema:"1-based result page"`
}

// FindAlternativesInput are the arguments of find_drug_alternatives. Exactly
// one criterion must be set.
type FindAlternativesInput struct {
	ActiveIngredient string `json:"active_ingredient,omitempty" jsonschema:"active ingredient name, e.g. ibuprofen"`
	AtcCode          string `json:"atc_code,omitempty" jsonschema:"ATC code; levels deeper than five characters are truncated"`
	Route            string `json:"route,omitempty" jsonschema:"administration route, e.g. oral or ophthalmic"`
	ReferenceDrug    string `json:"reference_drug,omitempty" jsonschema:"a known drug to find substitutes for"`
	FreeText         string `json:"free_text,omitempty" jsonschema:"free description, used when nothing more specific is known"`
	RouteFilter      string `json:"route_filter,omitempty" jsonschema:"restrict ingredient or ATC searches to one route"`
	Order            string `json:"order,omitempty" jsonschema:"result ordering: default, popularity, alphabetical or price_ascending"`
	Page             int    `json:"page,omitempty" jsonschema:"1-based result page"`
}

// DiscoverInput are the arguments of discover_drug_by_name.
type DiscoverInput struct {
	Query              string `json:"query" jsonschema:"partial drug or ingredient name"`
	Limit              int    `json:"limit,omitempty" jsonschema:"maximum number of suggestions"`
	IncludeTradeNames  bool   `json:"include_trade_names,omitempty" jsonschema:"include trade names"`
	IncludeIngredients bool   `json:"include_ingredients,omitempty" jsonschema:"include active ingredients"`
}

// DiscoverOutput is the body of a discover_drug_by_name result.
type DiscoverOutput struct {
	Query       string                `json:"query"`
	Suggestions []entities.Suggestion `json:"suggestions"`
}

// Tools holds the tool handlers.
type Tools struct {
	engine interfaces.SearchEngine
}

// NewTools wraps engine.
func NewTools(engine interfaces.SearchEngine) *Tools {
	return &Tools{engine: engine}
}

// NewServer builds an MCP server with every tool registered.
func NewServer(engine interfaces.SearchEngine, version string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: version}, nil)
	NewTools(engine).Register(server)
	return server
}

// Register adds the tools to server.
func (t *Tools) Register(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name: "search_drug_by_name",
		Description: "Search the Israeli Ministry of Health drug registry by trade name or active ingredient. " +
			"Filters are relaxed automatically when they leave no results; acceptedStep in the answer says which relaxation was used.",
	}, t.SearchByName)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_by_symptoms",
		Description: "Find registered drugs for a symptom, given the symptom category and the symptom.",
	}, t.SearchBySymptoms)

	mcp.AddTool(server, &mcp.Tool{
		Name: "find_drug_alternatives",
		Description: "Find therapeutic alternatives by active ingredient, ATC code, administration route, reference drug or free text. " +
			"Give exactly one of these criteria. A reference drug is never listed among its own alternatives.",
	}, t.FindAlternatives)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "discover_drug_by_name",
		Description: "Autocomplete a partial drug name into ranked trade name and ingredient suggestions. Use it before searching when the spelling is uncertain.",
	}, t.Discover)
}

// SearchByName handles search_drug_by_name.
func (t *Tools) SearchByName(ctx context.Context, _ *mcp.CallToolRequest, in SearchByNameInput) (*mcp.CallToolResult, any, error) {
	prescription, order, err := parseFilters(in.Prescription, in.Order)
	if err != nil {
		return errorResult(err), nil, nil
	}
	rs, err := t.engine.ResolveByName(ctx, interfaces.NameRequest{
		Term:             in.Name,
		Prescription:     prescription,
		HealthBasketOnly: in.HealthBasket,
		Order:            order,
		Page:             in.Page,
	})
	return respond("search_drug_by_name", rs, err)
}

// SearchBySymptoms handles search_by_symptoms.
func (t *Tools) SearchBySymptoms(ctx context.Context, _ *mcp.CallToolRequest, in SearchBySymptomsInput) (*mcp.CallToolResult, any, error) {
	prescription, order, err := parseFilters(in.Prescription, in.Order)
	if err != nil {
		return errorResult(err), nil, nil
	}
	rs, err := t.engine.ResolveBySymptom(ctx, interfaces.SymptomRequest{
		Category:         in.Category,
		Symptom:          in.Symptom,
		Prescription:     prescription,
		HealthBasketOnly: in.HealthBasket,
		Order:            order,
		Page:             in.Page,
	})
	return respond("search_by_symptoms", rs, err)
}

// FindAlternatives handles find_drug_alternatives.
func (t *Tools) FindAlternatives(ctx context.Context, _ *mcp.CallToolRequest, in FindAlternativesInput) (*mcp.CallToolResult, any, error) {
	order, err := entities.ParseSearchOrder(in.Order)
	if err != nil {
		return errorResult(err), nil, nil
	}
	rs, err := t.engine.ResolveAlternatives(ctx, interfaces.AlternativesRequest{
		Criteria: entities.RawCriteria{
			ActiveIngredient:    in.ActiveIngredient,
			AtcCode:             in.AtcCode,
			AdministrationRoute: in.Route,
			ReferenceDrug:       in.ReferenceDrug,
			FreeText:            in.FreeText,
		},
		RouteFilter: in.RouteFilter,
		Order:       order,
		Page:        in.Page,
	})
	return respond("find_drug_alternatives", rs, err)
}

// Discover handles discover_drug_by_name.
func (t *Tools) Discover(ctx context.Context, _ *mcp.CallToolRequest, in DiscoverInput) (*mcp.CallToolResult, any, error) {
	suggestions, err := t.engine.Suggest(ctx, interfaces.SuggestRequest{
		Query:              in.Query,
		Limit:              in.Limit,
		IncludeTradeNames:  in.IncludeTradeNames,
		IncludeIngredients: in.IncludeIngredients,
	})
	if suggestions == nil {
		suggestions = []entities.Suggestion{}
	}
	return respond("discover_drug_by_name", DiscoverOutput{Query: in.Query, Suggestions: suggestions}, err)
}

func parseFilters(prescription, order string) (entities.PrescriptionFilter, entities.SearchOrder, error) {
	var p entities.PrescriptionFilter
	switch strings.ToLower(strings.TrimSpace(prescription)) {
	case "", "all":
		p = entities.AllDrugs
	case "otc":
		p = entities.OtcOnly
	default:
		return p, 0, fmt.Errorf("prescription must be 'all' or 'otc', got %q", prescription)
	}
	o, err := entities.ParseSearchOrder(order)
	return p, o, err
}

func respond(tool string, payload any, err error) (*mcp.CallToolResult, any, error) {
	if err != nil {
		logging.Warn("Tool call failed", "tool", tool, "error", err, "retryable", entities.Retryable(err))
		return errorResult(err), nil, nil
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, fmt.Errorf("encode %s result: %w", tool, err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(body)}},
	}, nil, nil
}

// errorResult turns an engine error into a tool-level error the model can act on.
func errorResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: errorMessage(err)}},
	}
}

func errorMessage(err error) string {
	switch {
	case entities.Retryable(err):
		return fmt.Sprintf("The drug registry is temporarily unavailable. Retry the same call shortly. (%v)", err)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return fmt.Sprintf("The search did not finish in time. Retry, or narrow the query. (%v)", err)
	case errors.Is(err, entities.ErrDrugNotFound):
		return fmt.Sprintf("The reference drug was not found. Check the spelling with discover_drug_by_name, or search by active ingredient. (%v)", err)
	default:
		return fmt.Sprintf("Refine the query and try again: %v", err)
	}
}

// Run serves the tools over stdio until ctx is done or the client disconnects.
func Run(ctx context.Context, server *mcp.Server) error {
	logging.Info("Serving MCP over stdio", "server", serverName)
	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
