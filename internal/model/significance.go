package model

import "strings"

// Significance labels are ordered per pattern type. Unknown labels rank 0.
var dyadSignificance = map[string]int{
	"low":       1,
	"medium":    2,
	"high":      3,
	"very-high": 4,
}

var progressionSignificance = map[string]int{
	"emerging":             1,
	"moderate-progression": 2,
	"strong-progression":   3,
	"complete-progression": 4,
}

const (
	MinDyadSignificance        = "high"
	MinProgressionSignificance = "strong-progression"
)

// SignificanceRank returns the rank of a label within the order for t.
func SignificanceRank(t PatternType, label string) int {
	label = strings.ToLower(strings.TrimSpace(label))
	switch t {
	case PatternDyad:
		return dyadSignificance[label]
	case PatternProgression:
		return progressionSignificance[label]
	default:
		return 0
	}
}

// Significant reports whether a key passes the retrieval gate. Triads and
// journey stages carry no significance and always pass.
func (k PatternKey) Significant() bool {
	switch k.Type {
	case PatternTriad, PatternJourney:
		return true
	case PatternDyad:
		return SignificanceRank(k.Type, k.Significance) >= dyadSignificance[MinDyadSignificance]
	case PatternProgression:
		return SignificanceRank(k.Type, k.Significance) >= progressionSignificance[MinProgressionSignificance]
	default:
		return false
	}
}
