package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPatternKeys_NilAndEmpty(t *testing.T) {
	var p *PatternKeys
	assert.Nil(t, p.Keys())
	assert.Empty(t, (&PatternKeys{}).Keys())
}

func TestPatternKeys_Order(t *testing.T) {
	p := &PatternKeys{
		SuitProgressions: []Progression{{Suit: "Cups", Stage: "Culmination", Significance: "strong-progression"}},
		DyadPairs:        []DyadPair{{Cards: []int{13, 6}, Significance: "high"}},
		JourneyStage:     "integration",
		CompleteTriadIDs: []string{"death-temperance-star"},
	}
	keys := p.Keys()
	require.Len(t, keys, 4)
	assert.Equal(t, PatternTriad, keys[0].Type)
	assert.Equal(t, PatternJourney, keys[1].Type)
	assert.Equal(t, PatternDyad, keys[2].Type)
	assert.Equal(t, PatternProgression, keys[3].Type)

	assert.Equal(t, "6-13", keys[2].KnowledgeID())
	assert.Equal(t, "cups-culmination", keys[3].KnowledgeID())
}

func TestPatternKeys_SkipsMalformed(t *testing.T) {
	p := &PatternKeys{
		CompleteTriadIDs: []string{"", "  "},
		DyadPairs:        []DyadPair{{Cards: []int{1}}, {Cards: nil}, {Cards: []int{1, 2, 3}}},
		SuitProgressions: []Progression{{Stage: "beginning"}, {Suit: "wands"}},
	}
	assert.Empty(t, p.Keys())
}

func TestSignificanceGate(t *testing.T) {
	tests := []struct {
		key  PatternKey
		want bool
	}{
		{PatternKey{Type: PatternTriad, ID: "x"}, true},
		{PatternKey{Type: PatternJourney, StageKey: "x"}, true},
		{PatternKey{Type: PatternDyad, Significance: "low"}, false},
		{PatternKey{Type: PatternDyad, Significance: "medium"}, false},
		{PatternKey{Type: PatternDyad, Significance: "high"}, true},
		{PatternKey{Type: PatternDyad, Significance: "Very-High"}, true},
		{PatternKey{Type: PatternDyad, Significance: ""}, false},
		{PatternKey{Type: PatternProgression, Significance: "moderate-progression"}, false},
		{PatternKey{Type: PatternProgression, Significance: "strong-progression"}, true},
		{PatternKey{Type: PatternProgression, Significance: "complete-progression"}, true},
		{PatternKey{Type: "bogus"}, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.key.Type)+"/"+tt.key.Significance, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.key.Significant())
		})
	}
}

func TestPriorityOrder(t *testing.T) {
	assert.True(t, PriorityTriad.Less(PriorityJourney))
	assert.True(t, PriorityDyad.Less(PriorityProgression))
	assert.False(t, PriorityDyad.Less(PriorityDyad))
	assert.Equal(t, 1, PriorityProgression.Compare(PriorityTriad))
	assert.Equal(t, PriorityDyad, PriorityFor(PatternDyad))
	assert.False(t, PriorityFor("bogus").Valid())
	assert.Equal(t, "journey", PriorityJourney.String())
}
