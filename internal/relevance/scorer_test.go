package relevance

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/rcliao/arcana/internal/embedding"
	"github.com/rcliao/arcana/internal/logging"
)

type fixedEmbedder struct {
	vecs map[string]embedding.Vector
	err  error
}

func (f fixedEmbedder) Embed(_ context.Context, text string) (embedding.Vector, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.vecs[text], nil
}

func (f fixedEmbedder) Dims() int { return 2 }

var readyProvider = embedding.Config{Provider: "openai", Endpoint: "http://embed", APIKey: "k"}

func TestScore_EmptyIsNeutral(t *testing.T) {
	s := NewScorer(Options{}, nil, nil)
	assert.Equal(t, Neutral, s.Score("", "love"))
	assert.Equal(t, Neutral, s.Score("text", ""))
	assert.Equal(t, Neutral, s.Score("   ", "\t"))
	assert.Equal(t, Neutral, s.ScoreContext(context.Background(), "", "love"))
}

func TestKeywordScore_NoSubstringMatch(t *testing.T) {
	assert.Equal(t, 0.0, KeywordScore("A beloved companion walks beside you.", "love"))
	assert.Equal(t, 1.0, KeywordScore("Love walks beside you.", "love"))
	assert.Equal(t, 0.0, KeywordScore("The heart opens.", "hear"))
	assert.Equal(t, Neutral, KeywordScore("The heart opens.", "art"), "tokens under four characters are dropped")
}

func TestKeywordScore_Ratio(t *testing.T) {
	passage := "Endings make room for healing and renewed hope."
	assert.InDelta(t, 2.0/3.0, KeywordScore(passage, "healing hope career"), 1e-9)
	assert.Equal(t, Neutral, KeywordScore(passage, "what does this card mean"))
}

func TestKeywordScore_CraftedQuery(t *testing.T) {
	assert.NotPanics(t, func() {
		got := KeywordScore("anything (here)", `(here|.*)+ [a-z]{4,} \\`)
		assert.GreaterOrEqual(t, got, 0.0)
		assert.LessOrEqual(t, got, 1.0)
	})
}

func TestScore_Blend(t *testing.T) {
	s := NewScorer(Options{Weights: Weights{Keyword: 0.8, Semantic: 0.2}}, nil, nil)
	// keyword 1.0, semantic neutral 0.5
	assert.InDelta(t, 0.9, s.Score("Hope returns.", "hope"), 1e-9)
	assert.InDelta(t, 0.1, s.Score("Nothing here.", "hope"), 1e-9)
}

func TestScore_ClampsWeights(t *testing.T) {
	s := NewScorer(Options{Weights: Weights{Keyword: 3, Semantic: 2}}, nil, nil)
	got := s.Score("Hope returns.", "hope")
	assert.LessOrEqual(t, got, 1.0)
}

func TestScoreContext_Semantic(t *testing.T) {
	emb := fixedEmbedder{vecs: map[string]embedding.Vector{
		"Hope returns.": {1, 0},
		"hope":          {1, 0},
	}}
	s := NewScorer(Options{EnableSemanticScoring: true, Provider: readyProvider}, emb, nil)
	assert.True(t, s.Semantic())
	assert.InDelta(t, 1.0, s.ScoreContext(context.Background(), "Hope returns.", "hope"), 1e-9)
}

func TestScoreContext_SemanticDisabled(t *testing.T) {
	emb := fixedEmbedder{err: errors.New("must not be called")}
	s := NewScorer(Options{EnableSemanticScoring: false}, emb, nil)
	assert.False(t, s.Semantic())
	assert.InDelta(t, 0.75, s.ScoreContext(context.Background(), "Hope returns.", "hope"), 1e-9)
}

func TestScoreContext_EmbeddingFailureIsNeutral(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	emb := fixedEmbedder{err: errors.New("timeout")}
	s := NewScorer(Options{EnableSemanticScoring: true, Provider: readyProvider}, emb, logging.FromZap(zap.New(core)))

	got := s.ScoreContext(context.Background(), "Nothing here.", "hope")
	assert.InDelta(t, 0.25, got, 1e-9)
	assert.Equal(t, 1, logs.Len())
}

func TestIsSemanticScoringAvailable(t *testing.T) {
	assert.False(t, IsSemanticScoringAvailable(embedding.Config{}))
	assert.False(t, IsSemanticScoringAvailable(embedding.Config{Endpoint: "http://x"}))
	assert.False(t, IsSemanticScoringAvailable(embedding.Config{APIKey: "k"}))
	assert.True(t, IsSemanticScoringAvailable(embedding.Config{Endpoint: "http://x", APIKey: "k"}))
}

func TestScoreContext_UnreadyProviderIsNeutral(t *testing.T) {
	cfg := embedding.Config{Provider: "local"}
	emb, err := embedding.New(context.Background(), cfg)
	assert.NoError(t, err)
	assert.Nil(t, emb)
	assert.False(t, IsSemanticScoringAvailable(cfg))

	s := NewScorer(Options{EnableSemanticScoring: true, Provider: cfg}, embedding.NewLocalEmbedder(64), nil)
	assert.False(t, s.Semantic())
	got := s.ScoreContext(context.Background(), "The tower falls in sudden upheaval.", "career promotion")
	assert.InDelta(t, 0.25, got, 1e-9)
}

func TestScoreContext_LocalOptIn(t *testing.T) {
	cfg := embedding.Config{Provider: "local", AllowLocal: true}
	s := NewScorer(Options{EnableSemanticScoring: true, Provider: cfg}, embedding.NewLocalEmbedder(64), nil)
	assert.True(t, s.Semantic())
	got := s.ScoreContext(context.Background(), "Hope, dawn.", "hope dawn")
	assert.InDelta(t, 1.0, got, 1e-6)
}
