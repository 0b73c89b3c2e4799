// Package relevance scores passages against a free-text query by blending
// whole-word keyword overlap with embedding similarity.
package relevance

import (
	"context"
	"math"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/rcliao/arcana/internal/embedding"
	"github.com/rcliao/arcana/internal/keyword"
	"github.com/rcliao/arcana/internal/logging"
)

// Neutral is returned when there is nothing to compare.
const Neutral = 0.5

// Weights blends the keyword and semantic components. They need not sum to 1.
type Weights struct {
	Keyword  float64 `yaml:"keyword_weight"`
	Semantic float64 `yaml:"semantic_weight"`
}

// DefaultWeights splits evenly.
func DefaultWeights() Weights { return Weights{Keyword: 0.5, Semantic: 0.5} }

// Options configures a Scorer.
type Options struct {
	Weights               Weights
	EnableSemanticScoring bool

	// Provider describes the embedder. The semantic component runs only
	// when it is embedding.Ready.
	Provider embedding.Config
}

// Scorer computes relevance in [0,1].
type Scorer struct {
	weights  Weights
	semantic bool
	embedder embedding.Embedder
	log      *logging.Logger
}

// NewScorer creates a scorer. embedder may be nil, in which case the
// semantic component is always neutral. It is also neutral when
// opts.Provider is not ready, so an unconfigured or local fallback
// embedder never contributes a similarity.
func NewScorer(opts Options, embedder embedding.Embedder, log *logging.Logger) *Scorer {
	w := opts.Weights
	if w.Keyword == 0 && w.Semantic == 0 {
		w = DefaultWeights()
	}
	w.Keyword = clamp01(w.Keyword)
	w.Semantic = clamp01(w.Semantic)
	return &Scorer{
		weights:  w,
		semantic: opts.EnableSemanticScoring && embedder != nil && embedding.Ready(opts.Provider),
		embedder: embedder,
		log:      logging.OrNop(log).With("component", "relevance"),
	}
}

// IsSemanticScoringAvailable reports whether cfg carries both an endpoint
// and a credential.
func IsSemanticScoringAvailable(cfg embedding.Config) bool {
	return embedding.IsConfigured(cfg)
}

// Semantic reports whether the scorer will call the embedder.
func (s *Scorer) Semantic() bool { return s.semantic }

// Score returns the blended score without any embedding calls; the semantic
// component is neutral.
func (s *Scorer) Score(passage, query string) float64 {
	if blank(passage) || blank(query) {
		return Neutral
	}
	return s.blend(KeywordScore(passage, query), Neutral)
}

// ScoreContext is Score with the semantic component computed from
// embeddings when enabled. Embedding failures are logged and degrade to a
// neutral semantic component; ScoreContext never fails.
func (s *Scorer) ScoreContext(ctx context.Context, passage, query string) float64 {
	if blank(passage) || blank(query) {
		return Neutral
	}
	sem := Neutral
	if s.semantic {
		sem = s.semanticScore(ctx, passage, query)
	}
	return s.blend(KeywordScore(passage, query), sem)
}

func (s *Scorer) semanticScore(ctx context.Context, passage, query string) float64 {
	var pv, qv embedding.Vector
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		pv, err = s.embedder.Embed(gctx, passage)
		return err
	})
	g.Go(func() error {
		var err error
		qv, err = s.embedder.Embed(gctx, query)
		return err
	})
	if err := g.Wait(); err != nil {
		s.log.Warn("embedding failed, using neutral semantic score", "error", err)
		return Neutral
	}
	return embedding.CosineSimilarity(pv, qv)
}

func (s *Scorer) blend(kw, sem float64) float64 {
	return clamp01(s.weights.Keyword*kw + s.weights.Semantic*sem)
}

// KeywordScore is the fraction of the query's keywords present in passage
// as whole words. Queries with no usable keywords score Neutral.
func KeywordScore(passage, query string) float64 {
	if blank(passage) || blank(query) {
		return Neutral
	}
	kws := keyword.Extract(query)
	if len(kws) == 0 {
		return Neutral
	}
	return clamp01(float64(keyword.CountMatches(passage, kws)) / float64(len(kws)))
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }

func clamp01(x float64) float64 {
	if math.IsNaN(x) {
		return 0
	}
	return math.Max(0, math.Min(1, x))
}
