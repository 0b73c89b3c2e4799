package model

// Passage is a quoted excerpt with attribution.
type Passage struct {
	Text   string   `json:"text" yaml:"text"`
	Source string   `json:"source,omitempty" yaml:"source,omitempty"`
	Tags   []string `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// KnowledgeEntry groups the passages for one pattern. Entries are read-only
// once loaded into a knowledge base.
type KnowledgeEntry struct {
	PatternType PatternType `json:"patternType" yaml:"patternType"`
	PatternID   string      `json:"patternId" yaml:"patternId"`
	Title       string      `json:"title,omitempty" yaml:"title,omitempty"`
	Theme       string      `json:"theme,omitempty" yaml:"theme,omitempty"`
	Stage       string      `json:"stage,omitempty" yaml:"stage,omitempty"`
	CardPair    []int       `json:"cardPair,omitempty" yaml:"cardPair,omitempty"`
	Names       []string    `json:"names,omitempty" yaml:"names,omitempty"`
	Passages    []Passage   `json:"passages" yaml:"passages"`
}

// Candidate is a retrieval-time copy of a passage annotated with its pattern.
// Type is the discriminant; CardNumbers, Suit, Stage and Metadata are filled
// per type.
type Candidate struct {
	Type           PatternType    `json:"type"`
	PatternID      string         `json:"patternId"`
	Priority       Priority       `json:"priority"`
	Title          string         `json:"title,omitempty"`
	Theme          string         `json:"theme,omitempty"`
	Text           string         `json:"text"`
	Source         string         `json:"source,omitempty"`
	Tags           []string       `json:"tags,omitempty"`
	Boost          int            `json:"relevance,omitempty"`
	RelevanceScore *float64       `json:"relevanceScore,omitempty"`
	CardNumbers    []int          `json:"cardNumbers,omitempty"`
	Suit           string         `json:"suit,omitempty"`
	Stage          string         `json:"stage,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// Score returns the relevance score, or fallback when unscored.
func (c Candidate) Score(fallback float64) float64 {
	if c.RelevanceScore == nil {
		return fallback
	}
	return *c.RelevanceScore
}
