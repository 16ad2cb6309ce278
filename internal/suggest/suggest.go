// Package suggest finds the closest known name for a misspelt one.
package suggest

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// Closest returns the candidate nearest to name, or "" when none is close
// enough to be a plausible typo. Comparison ignores case.
func Closest(name string, candidates []string) string {
	if name == "" {
		return ""
	}

	best := ""
	bestDist := -1
	lower := strings.ToLower(name)
	for _, c := range candidates {
		d := levenshtein.ComputeDistance(lower, strings.ToLower(c))
		if bestDist < 0 || d < bestDist {
			best, bestDist = c, d
		}
	}

	if bestDist < 0 || bestDist > threshold(name) {
		return ""
	}
	return best
}

// threshold allows roughly one edit per three characters, and always allows
// a swapped pair of letters.
func threshold(name string) int {
	t := len(name) / 3
	if t < 2 {
		return 2
	}
	return t
}
