package entities

import "fmt"

// CriterionKind tags the populated variant of a SearchCriterion.
type CriterionKind int

const (
	KindActiveIngredient CriterionKind = iota + 1
	KindAtcCode
	KindAdministrationRoute
	KindReferenceDrug
	KindFreeText
)

func (k CriterionKind) String() string {
	switch k {
	case KindActiveIngredient:
		return "active_ingredient"
	case KindAtcCode:
		return "atc_code"
	case KindAdministrationRoute:
		return "administration_route"
	case KindReferenceDrug:
		return "reference_drug"
	case KindFreeText:
		return "free_text"
	default:
		return "unknown"
	}
}

// SearchCriterion is a tagged union: exactly one variant is populated.
// Build it with the constructors below, never as a literal.
type SearchCriterion struct {
	kind    CriterionKind
	value   string
	routeID int
}

// ActiveIngredient builds an active-ingredient criterion.
func ActiveIngredient(value string) SearchCriterion {
	return SearchCriterion{kind: KindActiveIngredient, value: value}
}

// AtcCode builds a level-4 ATC criterion.
func AtcCode(value string) SearchCriterion {
	return SearchCriterion{kind: KindAtcCode, value: value}
}

// AdministrationRoute builds a route criterion from a numeric route id.
func AdministrationRoute(routeID int) SearchCriterion {
	return SearchCriterion{kind: KindAdministrationRoute, routeID: routeID}
}

// ReferenceDrug builds a reference-drug criterion.
func ReferenceDrug(name string) SearchCriterion {
	return SearchCriterion{kind: KindReferenceDrug, value: name}
}

// FreeText builds a free-text name criterion.
func FreeText(value string) SearchCriterion {
	return SearchCriterion{kind: KindFreeText, value: value}
}

func (c SearchCriterion) Kind() CriterionKind { return c.kind }

// Value returns the textual payload; empty for route criteria.
func (c SearchCriterion) Value() string { return c.value }

// RouteID returns the route identifier; zero unless Kind is KindAdministrationRoute.
func (c SearchCriterion) RouteID() int { return c.routeID }

// IsZero reports whether no variant is populated.
func (c SearchCriterion) IsZero() bool { return c.kind == 0 }

func (c SearchCriterion) String() string {
	if c.kind == KindAdministrationRoute {
		return fmt.Sprintf("%s(%d)", c.kind, c.routeID)
	}
	return fmt.Sprintf("%s(%q)", c.kind, c.value)
}

// RawCriteria is the caller-facing input; at most one field may be set.
type RawCriteria struct {
	ActiveIngredient    string `json:"active_ingredient,omitempty"`
	AtcCode             string `json:"atc_code,omitempty"`
	AdministrationRoute string `json:"administration_route,omitempty"`
	ReferenceDrug       string `json:"reference_drug,omitempty"`
	FreeText            string `json:"free_text,omitempty"`
}

// ResolvedReference is the outcome of resolving a reference drug name.
type ResolvedReference struct {
	ReferenceName      string          `json:"referenceName"`
	RegistrationNumber string          `json:"registrationNumber"`
	MatchedName        string          `json:"matchedName"`
	Criterion          SearchCriterion `json:"-"`
	CriterionKind      string          `json:"criterionKind"`
	CriterionValue     string          `json:"criterionValue"`
}

// NewResolvedReference fills the serialisable criterion fields from the criterion.
func NewResolvedReference(name, regNum, matched string, c SearchCriterion) ResolvedReference {
	return ResolvedReference{
		ReferenceName:      name,
		RegistrationNumber: regNum,
		MatchedName:        matched,
		Criterion:          c,
		CriterionKind:      c.Kind().String(),
		CriterionValue:     c.Value(),
	}
}
