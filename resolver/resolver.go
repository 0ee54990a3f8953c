// Package resolver turns a reference drug name into the criterion used to
// search for its therapeutic alternatives.
package resolver

import (
	"context"
	"fmt"
	"strings"

	"github.com/giygas/israeldrugs-mcp/entities"
	"github.com/giygas/israeldrugs-mcp/interfaces"
	"github.com/giygas/israeldrugs-mcp/logging"
)

// Resolver is stateless; a ResolvedReference lives only for one request.
type Resolver struct {
	client interfaces.RegistryClient
}

// New creates a resolver using the given registry client.
func New(client interfaces.RegistryClient) *Resolver {
	return &Resolver{client: client}
}

// Resolve looks the drug up by name, trusts the registry's first match, and
// derives an ATC level-4 criterion from its detail record. When no ATC code
// is available it falls back to the leading token of the first active
// ingredient.
func (r *Resolver) Resolve(ctx context.Context, name string) (entities.ResolvedReference, error) {
	page, err := r.client.SearchByName(ctx, entities.NameParams{
		Term:         name,
		Prescription: entities.AllDrugs,
		Page:         1,
		Order:        entities.OrderDefault,
	})
	if err != nil {
		return entities.ResolvedReference{}, fmt.Errorf("resolving %q: %w", name, entities.AsUpstream("resolve_reference", err))
	}
	if len(page.Results) == 0 {
		return entities.ResolvedReference{}, &entities.ResolutionError{
			Kind:          entities.ErrDrugNotFound,
			ReferenceName: name,
		}
	}

	match := page.Results[0]

	if code := r.atcFromDetail(ctx, match.RegistrationNumber); code != "" {
		return entities.NewResolvedReference(name, match.RegistrationNumber, match.DisplayName(), entities.AtcCode(code)), nil
	}
	if err := ctx.Err(); err != nil {
		return entities.ResolvedReference{}, err
	}

	if ingredient := leadingIngredient(match.ActiveIngredients); ingredient != "" {
		return entities.NewResolvedReference(name, match.RegistrationNumber, match.DisplayName(), entities.ActiveIngredient(ingredient)), nil
	}

	return entities.ResolvedReference{}, &entities.ResolutionError{
		Kind:               entities.ErrResolutionIncomplete,
		ReferenceName:      name,
		RegistrationNumber: match.RegistrationNumber,
	}
}

// atcFromDetail returns the first level-4 ATC code of the drug, or "" when
// the detail is unavailable. A failed detail fetch only degrades the result.
func (r *Resolver) atcFromDetail(ctx context.Context, regNum string) string {
	detail, err := r.client.GetDrugDetail(ctx, regNum)
	if err != nil {
		logging.Warn("Drug detail unavailable, falling back to active ingredient",
			"registration_number", regNum,
			"error", err,
		)
		return ""
	}

	for _, atc := range detail.Atc {
		// the registry pads this field with trailing spaces
		if code := strings.TrimSpace(atc.Level4Code); code != "" {
			return code
		}
	}
	return ""
}

// leadingIngredient keeps only the chemical name: "PARACETAMOL 500MG" -> "PARACETAMOL".
func leadingIngredient(ingredients []string) string {
	if len(ingredients) == 0 {
		return ""
	}
	fields := strings.Fields(ingredients[0])
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
