// Package similarity scores how close two trademark names are.
package similarity

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// Similarity returns the case-insensitive Levenshtein similarity of a and b
// as an integer percentage in [0,100]. Two empty strings are identical.
func Similarity(a, b string) int {
	a, b = strings.ToLower(a), strings.ToLower(b)

	maxLen := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if maxLen == 0 {
		return 100
	}

	distance := levenshtein.ComputeDistance(a, b)
	return int(math.Round(100 * float64(maxLen-distance) / float64(maxLen)))
}
