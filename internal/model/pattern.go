// Package model defines the core retrieval data types.
package model

import (
	"fmt"
	"strings"
)

// PatternType discriminates pattern keys, knowledge entries and candidates.
type PatternType string

const (
	PatternTriad       PatternType = "triad"
	PatternJourney     PatternType = "journey"
	PatternDyad        PatternType = "dyad"
	PatternProgression PatternType = "progression"
)

// ValidPatternTypes are the pattern types the knowledge base understands.
var ValidPatternTypes = map[PatternType]bool{
	PatternTriad:       true,
	PatternJourney:     true,
	PatternDyad:        true,
	PatternProgression: true,
}

// PatternKey is a single detected pattern. Which fields are meaningful
// depends on Type.
type PatternKey struct {
	Type         PatternType `json:"type"`
	ID           string      `json:"id,omitempty"`
	StageKey     string      `json:"stageKey,omitempty"`
	CardPair     [2]int      `json:"cardPair,omitempty"`
	Category     string      `json:"category,omitempty"`
	Stage        string      `json:"stage,omitempty"`
	Significance string      `json:"significance,omitempty"`
}

// KnowledgeID returns the id the pattern is stored under in the knowledge base.
func (k PatternKey) KnowledgeID() string {
	switch k.Type {
	case PatternTriad:
		return k.ID
	case PatternJourney:
		return k.StageKey
	case PatternDyad:
		return DyadID(k.CardPair[0], k.CardPair[1])
	case PatternProgression:
		return ProgressionID(k.Category, k.Stage)
	default:
		return ""
	}
}

// DyadID is order-independent: 7-2 and 2-7 name the same pair.
func DyadID(a, b int) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%d-%d", a, b)
}

// ProgressionID joins category and stage, e.g. "cups-culmination".
func ProgressionID(category, stage string) string {
	return strings.ToLower(strings.TrimSpace(category)) + "-" + strings.ToLower(strings.TrimSpace(stage))
}

// DyadPair is a detected pairwise combination.
type DyadPair struct {
	Cards        []int  `json:"cards" yaml:"cards"`
	Significance string `json:"significance" yaml:"significance"`
}

// Progression is a detected progression within a suit or category.
type Progression struct {
	Suit         string `json:"suit,omitempty" yaml:"suit,omitempty"`
	Category     string `json:"category,omitempty" yaml:"category,omitempty"`
	Stage        string `json:"stage" yaml:"stage"`
	Significance string `json:"significance" yaml:"significance"`
}

// PatternKeys is the pattern set handed over by the upstream detector.
// Any field may be empty.
type PatternKeys struct {
	CompleteTriadIDs []string      `json:"completeTriadIds,omitempty" yaml:"completeTriadIds,omitempty"`
	JourneyStage     string        `json:"journeyStage,omitempty" yaml:"journeyStage,omitempty"`
	DyadPairs        []DyadPair    `json:"dyadPairs,omitempty" yaml:"dyadPairs,omitempty"`
	SuitProgressions []Progression `json:"suitProgressions,omitempty" yaml:"suitProgressions,omitempty"`
}

// Keys flattens the set into pattern keys in fixed priority order. Malformed
// entries (blank ids, pairs without exactly two cards, progressions without a
// category or stage) are skipped. A nil receiver yields nil.
func (p *PatternKeys) Keys() []PatternKey {
	if p == nil {
		return nil
	}
	var keys []PatternKey
	for _, id := range p.CompleteTriadIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		keys = append(keys, PatternKey{Type: PatternTriad, ID: id})
	}
	if stage := strings.TrimSpace(p.JourneyStage); stage != "" {
		keys = append(keys, PatternKey{Type: PatternJourney, StageKey: stage})
	}
	for _, d := range p.DyadPairs {
		if len(d.Cards) != 2 {
			continue
		}
		keys = append(keys, PatternKey{
			Type:         PatternDyad,
			CardPair:     [2]int{d.Cards[0], d.Cards[1]},
			Significance: d.Significance,
		})
	}
	for _, pr := range p.SuitProgressions {
		category := pr.Category
		if category == "" {
			category = pr.Suit
		}
		if strings.TrimSpace(category) == "" || strings.TrimSpace(pr.Stage) == "" {
			continue
		}
		keys = append(keys, PatternKey{
			Type:         PatternProgression,
			Category:     category,
			Stage:        pr.Stage,
			Significance: pr.Significance,
		})
	}
	return keys
}
