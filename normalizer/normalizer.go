// Package normalizer sanitizes raw user criteria and classifies them into a
// single SearchCriterion.
package normalizer

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/giygas/israeldrugs-mcp/entities"
	"github.com/giygas/israeldrugs-mcp/interfaces"
)

const atcLevel4Length = 4

// Normalizer classifies raw criteria. It holds no per-request state.
type Normalizer struct {
	validator interfaces.InputValidator
}

// New creates a normalizer backed by the given input validator.
func New(validator interfaces.InputValidator) *Normalizer {
	return &Normalizer{validator: validator}
}

// Sanitize strips combining marks (Hebrew niqqud, Latin accents), applies NFC
// and collapses whitespace.
func Sanitize(s string) string {
	// transform.Chain is stateful, so build one per call.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.Join(strings.Fields(out), " ")
}

// NormalizeTerm sanitizes and validates a single free search term.
func (n *Normalizer) NormalizeTerm(raw string) (string, error) {
	term := Sanitize(raw)
	if term == "" {
		return "", entities.ErrInvalidCriterion
	}
	if err := n.validator.ValidateInput(term); err != nil {
		return "", fmt.Errorf("%w: %v", entities.ErrInvalidCriterion, err)
	}
	return term, nil
}

// Classify turns raw criteria into exactly one SearchCriterion. It fails with
// ErrInvalidCriterion when nothing is populated and ErrAmbiguousCriterion
// when more than one field is; it never picks one on the caller's behalf.
func (n *Normalizer) Classify(raw entities.RawCriteria) (entities.SearchCriterion, error) {
	fields := []struct {
		kind  entities.CriterionKind
		value string
	}{
		{entities.KindActiveIngredient, Sanitize(raw.ActiveIngredient)},
		{entities.KindAtcCode, strings.TrimSpace(raw.AtcCode)},
		{entities.KindAdministrationRoute, Sanitize(raw.AdministrationRoute)},
		{entities.KindReferenceDrug, Sanitize(raw.ReferenceDrug)},
		{entities.KindFreeText, Sanitize(raw.FreeText)},
	}

	var populated []entities.CriterionKind
	var kind entities.CriterionKind
	var value string
	for _, f := range fields {
		if f.value != "" {
			populated = append(populated, f.kind)
			kind, value = f.kind, f.value
		}
	}

	switch len(populated) {
	case 0:
		return entities.SearchCriterion{}, entities.ErrInvalidCriterion
	case 1:
	default:
		return entities.SearchCriterion{}, fmt.Errorf("%w: %v", entities.ErrAmbiguousCriterion, populated)
	}

	switch kind {
	case entities.KindAtcCode:
		if err := ValidateAtcCode(value); err != nil {
			return entities.SearchCriterion{}, err
		}
		return entities.AtcCode(value), nil

	case entities.KindAdministrationRoute:
		routeID, err := ResolveRoute(value)
		if err != nil {
			return entities.SearchCriterion{}, err
		}
		return entities.AdministrationRoute(routeID), nil
	}

	if err := n.validator.ValidateInput(value); err != nil {
		return entities.SearchCriterion{}, fmt.Errorf("%w: %s: %v", entities.ErrInvalidCriterion, kind, err)
	}

	switch kind {
	case entities.KindActiveIngredient:
		return entities.ActiveIngredient(value), nil
	case entities.KindReferenceDrug:
		return entities.ReferenceDrug(value), nil
	default:
		return entities.FreeText(value), nil
	}
}

// ValidateAtcCode accepts only level-4 codes: four uppercase letters or digits.
func ValidateAtcCode(code string) error {
	if len(code) != atcLevel4Length {
		return fmt.Errorf("%w: %q must be %d characters", entities.ErrInvalidAtcCode, code, atcLevel4Length)
	}
	for _, r := range code {
		if !(r >= 'A' && r <= 'Z') && !(r >= '0' && r <= '9') {
			return fmt.Errorf("%w: %q must contain only uppercase letters and digits", entities.ErrInvalidAtcCode, code)
		}
	}
	return nil
}

// TruncateAtc reduces a level-5 code to its level-4 parent. Callers apply it
// before classification; shorter codes are returned trimmed but unchanged.
func TruncateAtc(code string) string {
	code = strings.TrimSpace(code)
	if len(code) == atcLevel4Length+1 {
		return code[:atcLevel4Length]
	}
	return code
}
