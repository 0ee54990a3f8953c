package entities

import (
	"fmt"
	"strings"
)

// PrescriptionFilter wraps the upstream prescription flag, whose wire
// semantics are inverted: true selects over-the-counter drugs only and
// false selects every drug. Only WireValue may translate it.
type PrescriptionFilter int

const (
	AllDrugs PrescriptionFilter = iota
	OtcOnly
)

// WireValue returns the boolean the registry expects in the request body.
func (p PrescriptionFilter) WireValue() bool {
	return p == OtcOnly
}

// Inverted flips between OtcOnly and AllDrugs.
func (p PrescriptionFilter) Inverted() PrescriptionFilter {
	if p == OtcOnly {
		return AllDrugs
	}
	return OtcOnly
}

func (p PrescriptionFilter) String() string {
	if p == OtcOnly {
		return "otc_only"
	}
	return "all_drugs"
}

func (p PrescriptionFilter) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// SearchOrder selects the upstream ordering mode.
type SearchOrder int

const (
	OrderDefault SearchOrder = iota
	OrderPopularity
	OrderAlphabetical
	OrderPriceAscending
)

var orderNames = map[SearchOrder]string{
	OrderDefault:        "default",
	OrderPopularity:     "popularity",
	OrderAlphabetical:   "alphabetical",
	OrderPriceAscending: "price_ascending",
}

func (o SearchOrder) String() string {
	if name, ok := orderNames[o]; ok {
		return name
	}
	return fmt.Sprintf("order(%d)", int(o))
}

func (o SearchOrder) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// ParseSearchOrder accepts the names produced by String; empty means default.
func ParseSearchOrder(s string) (SearchOrder, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return OrderDefault, nil
	}
	for order, name := range orderNames {
		if name == s {
			return order, nil
		}
	}
	return OrderDefault, fmt.Errorf("unknown order %q", s)
}

// SearchMode identifies which upstream endpoint a query targets.
type SearchMode string

const (
	ModeName    SearchMode = "name"
	ModeSymptom SearchMode = "symptom"
	ModeGeneric SearchMode = "generic"
)

// HasPrescriptionFilter reports whether the endpoint behind the mode takes
// a prescription filter at all.
func (m SearchMode) HasPrescriptionFilter() bool {
	return m == ModeName || m == ModeSymptom
}

// QueryParams is the uniform parameter set the cascade mutates. Fields that
// the mode's endpoint does not take are ignored by the registry client.
type QueryParams struct {
	Term             string             `json:"term,omitempty"`
	Category         string             `json:"category,omitempty"`
	Symptom          string             `json:"symptom,omitempty"`
	AtcCode          string             `json:"atcCode,omitempty"`
	RouteID          int                `json:"routeId,omitempty"`     // route criterion (generic mode)
	RouteFilter      int                `json:"routeFilter,omitempty"` // optional route restriction (generic mode)
	Prescription     PrescriptionFilter `json:"prescription"`
	HealthBasketOnly bool               `json:"healthBasketOnly"`
	Order            SearchOrder        `json:"order"`
	Page             int                `json:"page"`
}

// NameParams are the arguments of the search-by-name endpoint.
type NameParams struct {
	Term             string
	Prescription     PrescriptionFilter
	HealthBasketOnly bool
	Page             int
	Order            SearchOrder
}

// SymptomParams are the arguments of the search-by-symptom endpoint.
type SymptomParams struct {
	Category         string
	Symptom          string
	Prescription     PrescriptionFilter
	HealthBasketOnly bool
	Page             int
	Order            SearchOrder
}

// GenericParams are the arguments of the generic-name endpoint; zero
// values mean the filter is absent.
type GenericParams struct {
	Term    string
	RouteID int
	AtcCode string
	Page    int
	Order   SearchOrder
}

// AutocompleteParams are the arguments of the autocomplete endpoint.
type AutocompleteParams struct {
	Term               string
	IncludeTradeNames  bool
	IncludeIngredients bool
}

// NamePage is one page of the enveloped search endpoints.
type NamePage struct {
	Results []DrugRecord
	HasMore bool
}

// CascadeStep names a position in the fallback sequence.
type CascadeStep int

const (
	StepPrimary CascadeStep = iota
	StepInvertPrescription
	StepDropBasket
	StepRelaxOrdering
	StepMinimalFilters
)

var stepNames = [...]string{"primary", "invert_prescription", "drop_basket", "relax_ordering", "minimal_filters"}

func (s CascadeStep) String() string {
	if int(s) >= 0 && int(s) < len(stepNames) {
		return stepNames[s]
	}
	return fmt.Sprintf("step(%d)", int(s))
}

func (s CascadeStep) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// SearchAttempt records one cascade step.
type SearchAttempt struct {
	Step        CascadeStep `json:"step"`
	Params      QueryParams `json:"params"`
	ResultCount int         `json:"resultCount"`
	Accepted    bool        `json:"accepted"`
}

// ResultSet is the outcome of a cascade run. An empty Drugs slice with a
// nil error is a valid "nothing found" response.
type ResultSet struct {
	TraceID      string             `json:"traceId,omitempty"`
	Mode         SearchMode         `json:"mode"`
	Drugs        []DrugRecord       `json:"drugs"`
	TotalCount   int                `json:"totalCount"`
	Truncated    bool               `json:"truncated"`
	HasMore      bool               `json:"hasMore"`
	Attempts     []SearchAttempt    `json:"attempts"`
	AcceptedStep *CascadeStep       `json:"acceptedStep,omitempty"`
	Reference    *ResolvedReference `json:"reference,omitempty"`
}

