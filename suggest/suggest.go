// Package suggest ranks autocomplete candidates against the user's query.
package suggest

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/giygas/israeldrugs-mcp/entities"
	"github.com/giygas/israeldrugs-mcp/similarity"
)

// Rank scores every candidate against query, sorts by score (ties go to the
// shorter name, then keep the upstream order), assigns confidence tiers and keeps at most limit entries.
// A limit <= 0 keeps everything. Blank candidates are dropped and repeated
// candidates collapse to their first occurrence, ignoring case.
func Rank(raw []string, query string, limit int) []entities.Suggestion {
	seen := make(map[string]struct{}, len(raw))
	out := make([]entities.Suggestion, 0, len(raw))

	for _, name := range raw {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		score := similarity.Score(name, query)
		out = append(out, entities.Suggestion{
			Name:       name,
			Score:      score,
			Confidence: entities.ConfidenceFor(score),
			NameType:   ClassifyName(name),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return utf8.RuneCountInString(out[i].Name) < utf8.RuneCountInString(out[j].Name)
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// ClassifyName guesses whether name is an active ingredient or a trade
// name from its casing. The registry lists ingredients in capitals
// ("PARACETAMOL") and brands in title case ("Acamol"). Scripts without
// case, such as Hebrew, are always unknown.
func ClassifyName(name string) entities.NameType {
	name = strings.TrimSpace(name)

	var upper, lower int
	for _, r := range name {
		switch {
		case unicode.IsUpper(r):
			upper++
		case unicode.IsLower(r):
			lower++
		}
	}

	if upper > 0 && lower == 0 && utf8.RuneCountInString(name) > 5 {
		return entities.NameActiveIngredient
	}

	first, size := utf8.DecodeRuneInString(name)
	second, _ := utf8.DecodeRuneInString(name[size:])
	if unicode.IsUpper(first) && unicode.IsLower(second) {
		return entities.NameTradeName
	}
	return entities.NameUnknown
}
