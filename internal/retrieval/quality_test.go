package retrieval

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/rcliao/arcana/internal/knowledge"
	"github.com/rcliao/arcana/internal/model"
	"github.com/rcliao/arcana/internal/relevance"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// textScorer scores by fixed substrings and counts calls.
type textScorer struct {
	mu     sync.Mutex
	calls  int
	scores map[string]float64
}

func (s *textScorer) ScoreContext(_ context.Context, passage, _ string) float64 {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	for sub, v := range s.scores {
		if strings.Contains(passage, sub) {
			return v
		}
	}
	return 0.5
}

func TestRetrieveWithQuality_FiltersAndSorts(t *testing.T) {
	e := newSeedEngine(t)
	scorer := &textScorer{scores: map[string]float64{
		"Hope persists":  0.9, // dyad
		"Feelings that":  0.1, // progression
		"This sequence":  0.2, // second triad passage
		"The middle of ": 0.7, // journey
	}}

	got := e.RetrieveWithQuality(context.Background(), fullKeys(), scorer, QualityOptions{
		Options:           Options{MaxPassages: 3, UserQuery: "hope"},
		MinRelevanceScore: 0.3,
	})

	require.Len(t, got, 3)
	assert.Equal(t, model.PatternDyad, got[0].Type)
	assert.Equal(t, model.PatternJourney, got[1].Type)
	assert.Equal(t, model.PatternTriad, got[2].Type)
	for _, c := range got {
		require.NotNil(t, c.RelevanceScore)
		assert.GreaterOrEqual(t, *c.RelevanceScore, 0.3)
	}
	assert.Equal(t, 5, scorer.calls, "every pooled candidate is scored once")
}

func TestRetrieveWithQuality_TiesKeepPriorityOrder(t *testing.T) {
	e := newSeedEngine(t)
	got := e.RetrieveWithQuality(context.Background(), fullKeys(), &textScorer{}, QualityOptions{
		Options: Options{MaxPassages: 10},
	})
	require.Len(t, got, 5)
	for i := 1; i < len(got); i++ {
		assert.LessOrEqual(t, got[i-1].Priority, got[i].Priority)
	}
}

func TestRetrieveWithQuality_Dedup(t *testing.T) {
	src := fakeSource{entries: map[string]*model.KnowledgeEntry{
		"triad/a": {PatternType: model.PatternTriad, PatternID: "a", Passages: []model.Passage{
			{Text: "Identical opening words that run past the fingerprint, one."},
			{Text: "identical opening words that run past the fingerprint, two."},
			{Text: "Distinct."},
		}},
	}}
	e := NewEngine(src, nil)
	keys := &model.PatternKeys{CompleteTriadIDs: []string{"a"}}

	withDedup := e.RetrieveWithQuality(context.Background(), keys, nil, QualityOptions{Deduplicate: true})
	assert.Len(t, withDedup, 2)

	without := e.RetrieveWithQuality(context.Background(), keys, nil, QualityOptions{})
	assert.Len(t, without, 3)
}

func TestRetrieveWithQuality_RealScorer(t *testing.T) {
	e := newSeedEngine(t)
	s := relevance.NewScorer(relevance.Options{}, nil, nil)

	got := e.RetrieveWithQuality(context.Background(), fullKeys(), s, QualityOptions{
		Options:           Options{MaxPassages: 2, UserQuery: "hope"},
		MinRelevanceScore: 0.3,
	})
	// Only passages containing the word "hope" clear 0.3 (0.75 vs 0.25).
	require.Len(t, got, 2)
	for _, c := range got {
		assert.InDelta(t, 0.75, *c.RelevanceScore, 1e-9)
	}
}

func TestRetrieveWithQuality_Empty(t *testing.T) {
	e := newSeedEngine(t)
	assert.Empty(t, e.RetrieveWithQuality(context.Background(), nil, nil, QualityOptions{}))
	assert.Empty(t, e.RetrieveWithQuality(context.Background(), fullKeys(), nil, QualityOptions{Options: Options{MaxPassages: -1}}))
}

type fakeSource struct {
	entries map[string]*model.KnowledgeEntry
}

func (f fakeSource) Lookup(t model.PatternType, id string) (*model.KnowledgeEntry, bool) {
	e, ok := f.entries[string(t)+"/"+id]
	return e, ok
}

func (f fakeSource) Stats() knowledge.Stats { return knowledge.Stats{} }
