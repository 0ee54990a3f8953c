// Package entities holds the records shared by the registry client and the search engine.
package entities

// DrugRecord is a projection of one upstream catalog entry.
// Records are built once at the registry boundary and never mutated afterwards.
type DrugRecord struct {
	RegistrationNumber   string   `json:"registrationNumber"`
	HebrewName           string   `json:"hebrewName"`
	EnglishName          string   `json:"englishName"`
	ActiveIngredients    []string `json:"activeIngredients"`
	RequiresPrescription bool     `json:"requiresPrescription"`
	InHealthBasket       bool     `json:"inHealthBasket"`
	IsActive             bool     `json:"isActive"`
	AtcCodes             []string `json:"atcCodes,omitempty"`
	Price                *float64 `json:"price,omitempty"` // nil means not priced
}

// DisplayName prefers the English name, falling back to the Hebrew one.
func (d DrugRecord) DisplayName() string {
	if d.EnglishName != "" {
		return d.EnglishName
	}
	return d.HebrewName
}

// AtcClassification is one ATC entry of a drug detail record.
type AtcClassification struct {
	Level4Code string `json:"atc4Code"`
	Level4Name string `json:"atc4Name"`
	Level5Code string `json:"atc5Code"`
	Level5Name string `json:"atc5Name"`
}

// DrugDetail is the full record returned by the detail endpoint.
type DrugDetail struct {
	RegistrationNumber string              `json:"registrationNumber"`
	HebrewName         string              `json:"hebrewName"`
	EnglishName        string              `json:"englishName"`
	ActiveIngredients  []string            `json:"activeIngredients"`
	Atc                []AtcClassification `json:"atc"`
	DosageForm         string              `json:"dosageForm,omitempty"`
	Routes             []string            `json:"routes,omitempty"`
}
