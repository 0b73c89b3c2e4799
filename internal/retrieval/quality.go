package retrieval

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/rcliao/arcana/internal/model"
)

// scoreConcurrency bounds in-flight scoring calls.
const scoreConcurrency = 8

// Scorer scores a passage against a query in [0,1]. It must not fail.
type Scorer interface {
	ScoreContext(ctx context.Context, passage, query string) float64
}

// QualityOptions extends Options with the quality pipeline controls.
type QualityOptions struct {
	Options
	MinRelevanceScore float64
	Deduplicate       bool
	FingerprintLength int
	// PoolSize is the internal retrieval cap; 0 means max(3*MaxPassages, 15).
	PoolSize int
}

// RetrieveWithQuality retrieves a generous pool, scores every candidate
// against the query concurrently, drops low scorers, deduplicates and
// returns the best MaxPassages by score. Ties keep priority order.
func (e *Engine) RetrieveWithQuality(ctx context.Context, keys *model.PatternKeys, scorer Scorer, opts QualityOptions) []model.Candidate {
	limit := opts.MaxPassages
	if limit == 0 {
		limit = DefaultMaxPassages
	}
	if limit < 0 {
		return []model.Candidate{}
	}
	pool := opts.PoolSize
	if pool <= 0 {
		pool = max(3*limit, 15)
	}

	inner := opts.Options
	inner.MaxPassages = pool
	cands := e.Retrieve(keys, inner)
	if len(cands) == 0 {
		return cands
	}

	scores := make([]float64, len(cands))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(scoreConcurrency)
	for i := range cands {
		g.Go(func() error {
			if scorer == nil {
				scores[i] = 0.5
				return nil
			}
			scores[i] = scorer.ScoreContext(gctx, cands[i].Text, opts.UserQuery)
			return nil
		})
	}
	_ = g.Wait()

	kept := make([]model.Candidate, 0, len(cands))
	for i, c := range cands {
		if scores[i] < opts.MinRelevanceScore {
			continue
		}
		s := scores[i]
		c.RelevanceScore = &s
		kept = append(kept, c)
	}
	e.log.Debug("quality filter", "pool", len(cands), "kept", len(kept), "min", opts.MinRelevanceScore)

	if opts.Deduplicate {
		kept = Deduplicate(kept, opts.FingerprintLength)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Score(0) > kept[j].Score(0)
	})

	if len(kept) > limit {
		kept = kept[:limit]
	}
	return kept
}
