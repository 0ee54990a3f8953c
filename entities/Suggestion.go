package entities

// Confidence is the tier derived from a suggestion score.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// ConfidenceFor maps a score in [0,1] to its tier.
func ConfidenceFor(score float64) Confidence {
	switch {
	case score >= 0.8:
		return ConfidenceHigh
	case score >= 0.5:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// NameType is a heuristic guess about what a suggestion names.
// NameUnknown must never be used as evidence for filtering.
type NameType string

const (
	NameTradeName        NameType = "trade_name"
	NameActiveIngredient NameType = "active_ingredient"
	NameUnknown          NameType = "unknown"
)

type Suggestion struct {
	Name       string     `json:"name"`
	Score      float64    `json:"score"`
	Confidence Confidence `json:"confidence"`
	NameType   NameType   `json:"nameType"`
}
