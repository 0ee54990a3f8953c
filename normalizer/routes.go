package normalizer

import (
	"fmt"
	"strings"

	"github.com/giygas/israeldrugs-mcp/entities"
	"github.com/giygas/israeldrugs-mcp/similarity"
)

// Registry route identifiers. The set is closed and curated.
const (
	RouteOral          = 1
	RouteTopical       = 2
	RouteOphthalmic    = 3
	RouteOtic          = 4
	RouteIntravenous   = 5
	RouteIntramuscular = 6
	RouteRectal        = 7
)

var englishRoutes = map[string]int{
	"oral":          RouteOral,
	"topical":       RouteTopical,
	"ophthalmic":    RouteOphthalmic,
	"otic":          RouteOtic,
	"intravenous":   RouteIntravenous,
	"intramuscular": RouteIntramuscular,
	"rectal":        RouteRectal,
}

var hebrewRoutes = map[string]int{
	"פומי":        RouteOral,
	"דרך הפה":     RouteOral,
	"עורי":        RouteTopical,
	"מקומי":       RouteTopical,
	"עיני":        RouteOphthalmic,
	"עיניים":      RouteOphthalmic,
	"אוזני":       RouteOtic,
	"אוזניים":     RouteOtic,
	"תוך ורידי":   RouteIntravenous,
	"תוך שרירי":   RouteIntramuscular,
	"רקטלי":       RouteRectal,
	"דרך החלחולת": RouteRectal,
}

// ResolveRoute maps a Hebrew or English route name to its identifier.
// Unknown names fail with ErrUnknownRoute: accepting a near miss could
// select the wrong clinical route, so similarity only feeds the hint.
func ResolveRoute(name string) (int, error) {
	key := strings.ToLower(Sanitize(strings.ReplaceAll(name, "-", " ")))
	if id, ok := englishRoutes[key]; ok {
		return id, nil
	}
	if id, ok := hebrewRoutes[key]; ok {
		return id, nil
	}

	if hint := closestRoute(key); hint != "" {
		return 0, fmt.Errorf("%w: %q (did you mean %q?)", entities.ErrUnknownRoute, name, hint)
	}
	return 0, fmt.Errorf("%w: %q", entities.ErrUnknownRoute, name)
}

func closestRoute(key string) string {
	best, bestScore := "", 0.5
	for _, vocab := range []map[string]int{englishRoutes, hebrewRoutes} {
		for name := range vocab {
			if s := similarity.Score(name, key); s > bestScore || (s == bestScore && (best == "" || name < best)) {
				best, bestScore = name, s
			}
		}
	}
	return best
}
