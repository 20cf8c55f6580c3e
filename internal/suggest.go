package internal

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// maxSuggestDistance bounds how far a pattern may be from the path to be suggested.
const maxSuggestDistance = 3

// suggestRoute returns the static route pattern closest to path, or ""
// when none is close enough. Parameterized patterns are skipped.
func suggestRoute(path string, routes []RouteInfo) string {
	best, bestDist := "", maxSuggestDistance+1
	for _, r := range routes {
		if strings.ContainsAny(r.Pattern, "{*") || r.Pattern == path {
			continue
		}
		if d := levenshtein.ComputeDistance(path, r.Pattern); d < bestDist {
			best, bestDist = r.Pattern, d
		}
	}
	return best
}
