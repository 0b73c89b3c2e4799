package retrieval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/arcana/internal/knowledge"
	"github.com/rcliao/arcana/internal/model"
)

func newSeedEngine(t *testing.T) *Engine {
	t.Helper()
	b, err := knowledge.LoadSeed()
	require.NoError(t, err)
	return NewEngine(b, nil)
}

func fullKeys() *model.PatternKeys {
	return &model.PatternKeys{
		CompleteTriadIDs: []string{"death-temperance-star"},
		JourneyStage:     "inner-work",
		DyadPairs:        []model.DyadPair{{Cards: []int{18, 17}, Significance: "high"}},
		SuitProgressions: []model.Progression{{Suit: "Cups", Stage: "culmination", Significance: "strong-progression"}},
	}
}

func TestRetrieve_CompleteTriad(t *testing.T) {
	e := newSeedEngine(t)
	got := e.Retrieve(&model.PatternKeys{CompleteTriadIDs: []string{"death-temperance-star"}}, Options{MaxPassages: 5})

	require.NotEmpty(t, got)
	assert.Equal(t, model.PatternTriad, got[0].Type)
	assert.Equal(t, model.PriorityTriad, got[0].Priority)
	assert.NotEmpty(t, got[0].Text)
	assert.NotEmpty(t, got[0].Source)
}

func TestRetrieve_LowSignificanceFiltered(t *testing.T) {
	e := newSeedEngine(t)
	got := e.Retrieve(&model.PatternKeys{DyadPairs: []model.DyadPair{{Cards: []int{1, 2}, Significance: "low"}}}, Options{})
	assert.Empty(t, got)
	assert.NotNil(t, got)

	got = e.Retrieve(&model.PatternKeys{
		DyadPairs:        []model.DyadPair{{Cards: []int{13, 16}, Significance: "medium"}},
		SuitProgressions: []model.Progression{{Suit: "swords", Stage: "challenge", Significance: "moderate-progression"}},
	}, Options{})
	assert.Empty(t, got)
}

func TestRetrieve_NilAndMissing(t *testing.T) {
	e := newSeedEngine(t)
	assert.Empty(t, e.Retrieve(nil, Options{}))
	assert.Empty(t, e.Retrieve(&model.PatternKeys{}, Options{}))
	assert.Empty(t, e.Retrieve(&model.PatternKeys{CompleteTriadIDs: []string{"fool-world-fool"}}, Options{}))
	assert.Empty(t, NewEngine(nil, nil).Retrieve(fullKeys(), Options{}))
}

func TestRetrieve_PriorityOrderWithoutQuery(t *testing.T) {
	e := newSeedEngine(t)
	sets := []*model.PatternKeys{
		fullKeys(),
		{SuitProgressions: fullKeys().SuitProgressions, CompleteTriadIDs: []string{"tower-star-sun"}},
		{DyadPairs: []model.DyadPair{{Cards: []int{16, 13}, Significance: "very-high"}}, JourneyStage: "beginning"},
	}
	for _, keys := range sets {
		got := e.Retrieve(keys, Options{MaxPassages: 20})
		require.NotEmpty(t, got)
		for i := 1; i < len(got); i++ {
			assert.LessOrEqual(t, got[i-1].Priority, got[i].Priority)
		}
	}
}

func TestRetrieveKeys_GroupsRegardlessOfInputOrder(t *testing.T) {
	e := newSeedEngine(t)
	keys := []model.PatternKey{
		{Type: model.PatternProgression, Category: "wands", Stage: "beginning", Significance: "complete-progression"},
		{Type: model.PatternJourney, StageKey: "transcendence"},
		{Type: model.PatternTriad, ID: "tower-star-sun"},
	}
	got := e.RetrieveKeys(keys, Options{MaxPassages: 10})
	require.Len(t, got, 3)
	assert.Equal(t, []model.PatternType{model.PatternTriad, model.PatternJourney, model.PatternProgression},
		[]model.PatternType{got[0].Type, got[1].Type, got[2].Type})
}

func TestRetrieve_KeywordBoost(t *testing.T) {
	e := newSeedEngine(t)
	got := e.Retrieve(fullKeys(), Options{MaxPassages: 10, UserQuery: "Is there hope for me?"})
	require.Len(t, got, 5)

	// Triads stay in front, the boosted one first.
	assert.Equal(t, model.PatternTriad, got[0].Type)
	assert.Equal(t, 1, got[0].Boost)
	assert.Equal(t, model.PatternTriad, got[1].Type)
	assert.Equal(t, 0, got[1].Boost)
	// A boosted dyad overtakes the unboosted journey stage.
	assert.Equal(t, model.PatternDyad, got[2].Type)
	assert.Equal(t, model.PatternJourney, got[3].Type)
	assert.Equal(t, model.PatternProgression, got[4].Type)

	for _, c := range got {
		assert.Equal(t, model.PriorityFor(c.Type), c.Priority, "priority is never reassigned")
	}
}

func TestRetrieve_TruncatesAfterRanking(t *testing.T) {
	e := newSeedEngine(t)
	got := e.Retrieve(fullKeys(), Options{MaxPassages: 3, UserQuery: "hope"})
	require.Len(t, got, 3)
	assert.Equal(t, model.PatternDyad, got[2].Type)

	plain := e.Retrieve(fullKeys(), Options{MaxPassages: 3})
	require.Len(t, plain, 3)
	assert.Equal(t, model.PatternJourney, plain[2].Type)
}

func TestRetrieve_StopwordQueryDoesNotReorder(t *testing.T) {
	e := newSeedEngine(t)
	plain := e.Retrieve(fullKeys(), Options{MaxPassages: 10})
	got := e.Retrieve(fullKeys(), Options{MaxPassages: 10, UserQuery: "what does this card mean"})
	assert.Equal(t, plain, got)
}

func TestRetrieve_Limits(t *testing.T) {
	e := newSeedEngine(t)
	assert.Len(t, e.Retrieve(fullKeys(), Options{}), DefaultMaxPassages)
	assert.Empty(t, e.Retrieve(fullKeys(), Options{MaxPassages: -1}))
	assert.Len(t, e.Retrieve(fullKeys(), Options{MaxPassages: 1}), 1)
}

func TestRetrieve_Metadata(t *testing.T) {
	e := newSeedEngine(t)
	without := e.Retrieve(fullKeys(), Options{MaxPassages: 10})
	with := e.Retrieve(fullKeys(), Options{MaxPassages: 10, IncludeMetadata: true})
	require.Equal(t, len(without), len(with))

	for i := range with {
		assert.Nil(t, without[i].Metadata)
		require.NotNil(t, with[i].Metadata)
		stripped := with[i]
		stripped.Metadata = nil
		assert.Equal(t, without[i], stripped, "metadata must not alter other fields")
	}

	assert.Equal(t, map[string]any{"triadId": "death-temperance-star", "isComplete": true}, with[0].Metadata)
	dyad := with[3]
	require.Equal(t, model.PatternDyad, dyad.Type)
	assert.Equal(t, []int{17, 18}, dyad.CardNumbers)
	assert.Equal(t, []int{17, 18}, dyad.Metadata["cardPair"])

	prog := with[4]
	assert.Equal(t, "cups", prog.Suit)
	assert.Equal(t, "culmination", prog.Stage)
}

func TestRetrieve_DoesNotShareEntryData(t *testing.T) {
	b, err := knowledge.LoadSeed()
	require.NoError(t, err)
	e := NewEngine(b, nil)

	got := e.Retrieve(&model.PatternKeys{CompleteTriadIDs: []string{"death-temperance-star"}}, Options{})
	require.NotEmpty(t, got[0].Tags)
	got[0].Tags[0] = "mutated"

	entry, _ := b.Lookup(model.PatternTriad, "death-temperance-star")
	assert.NotEqual(t, "mutated", entry.Passages[0].Tags[0])
}
