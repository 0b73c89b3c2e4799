package model

// Priority is the fixed base rank of a candidate. Lower values sort first.
type Priority int

const (
	PriorityTriad       Priority = 1
	PriorityJourney     Priority = 2
	PriorityDyad        Priority = 3
	PriorityProgression Priority = 4
)

// PriorityFor returns the base priority for a pattern type, or 0 if unknown.
func PriorityFor(t PatternType) Priority {
	switch t {
	case PatternTriad:
		return PriorityTriad
	case PatternJourney:
		return PriorityJourney
	case PatternDyad:
		return PriorityDyad
	case PatternProgression:
		return PriorityProgression
	default:
		return 0
	}
}

// Compare returns -1 if p ranks ahead of o, 1 if behind, 0 if equal.
func (p Priority) Compare(o Priority) int {
	switch {
	case p < o:
		return -1
	case p > o:
		return 1
	default:
		return 0
	}
}

// Less reports whether p ranks strictly ahead of o.
func (p Priority) Less(o Priority) bool { return p.Compare(o) < 0 }

// Valid reports whether p is one of the defined priorities.
func (p Priority) Valid() bool {
	return p >= PriorityTriad && p <= PriorityProgression
}

func (p Priority) String() string {
	switch p {
	case PriorityTriad:
		return "triad"
	case PriorityJourney:
		return "journey"
	case PriorityDyad:
		return "dyad"
	case PriorityProgression:
		return "progression"
	default:
		return "unknown"
	}
}
