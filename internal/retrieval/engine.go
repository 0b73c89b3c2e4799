// Package retrieval turns detected pattern keys into ranked knowledge passages.
package retrieval

import (
	"sort"
	"strings"

	"github.com/rcliao/arcana/internal/keyword"
	"github.com/rcliao/arcana/internal/knowledge"
	"github.com/rcliao/arcana/internal/logging"
	"github.com/rcliao/arcana/internal/model"
)

// DefaultMaxPassages applies when Options.MaxPassages is zero.
const DefaultMaxPassages = 5

// Source is the read side of a knowledge base.
type Source interface {
	Lookup(t model.PatternType, id string) (*model.KnowledgeEntry, bool)
	Stats() knowledge.Stats
}

// Options controls a single retrieval.
type Options struct {
	// MaxPassages caps the result; 0 means DefaultMaxPassages and negative
	// values yield no results.
	MaxPassages     int
	IncludeMetadata bool
	UserQuery       string
}

// Engine retrieves passages from a Source. It holds no mutable state and is
// safe for concurrent use.
type Engine struct {
	src Source
	log *logging.Logger
}

// NewEngine creates an engine over src.
func NewEngine(src Source, log *logging.Logger) *Engine {
	return &Engine{src: src, log: logging.OrNop(log).With("component", "retrieval")}
}

// Stats reports the underlying corpus counts.
func (e *Engine) Stats() knowledge.Stats {
	if e.src == nil {
		return knowledge.Stats{}
	}
	return e.src.Stats()
}

// Retrieve resolves the pattern set. It never fails: missing knowledge,
// malformed keys and weak significance simply contribute nothing.
func (e *Engine) Retrieve(keys *model.PatternKeys, opts Options) []model.Candidate {
	return e.RetrieveKeys(keys.Keys(), opts)
}

// RetrieveKeys is Retrieve over already-flattened keys. Output is grouped by
// priority regardless of input order.
func (e *Engine) RetrieveKeys(keys []model.PatternKey, opts Options) []model.Candidate {
	limit := opts.MaxPassages
	if limit == 0 {
		limit = DefaultMaxPassages
	}
	if limit < 0 || len(keys) == 0 || e.src == nil {
		return []model.Candidate{}
	}

	buckets := make(map[model.Priority][]model.Candidate, 4)
	for _, k := range keys {
		if !k.Significant() {
			continue
		}
		id := k.KnowledgeID()
		if id == "" || id == "-" {
			continue
		}
		entry, ok := e.src.Lookup(k.Type, id)
		if !ok {
			e.log.Debug("no knowledge for pattern", "type", k.Type, "id", id)
			continue
		}
		p := model.PriorityFor(k.Type)
		buckets[p] = append(buckets[p], candidatesFor(k, entry, opts.IncludeMetadata)...)
	}

	out := make([]model.Candidate, 0, limit)
	for p := model.PriorityTriad; p <= model.PriorityProgression; p++ {
		out = append(out, buckets[p]...)
	}

	if kws := keyword.Extract(opts.UserQuery); len(kws) > 0 {
		boostRank(out, kws)
	}

	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// boostRank counts whole-word keyword hits per candidate and reorders.
// Triads stay at the front; everything else is ordered by hit count
// (descending) then priority. Ties keep their existing order.
func boostRank(cands []model.Candidate, kws []string) {
	for i := range cands {
		cands[i].Boost = keyword.CountMatches(cands[i].Text, kws)
	}
	sort.SliceStable(cands, func(i, j int) bool {
		a, b := cands[i], cands[j]
		pa, pb := a.Priority == model.PriorityTriad, b.Priority == model.PriorityTriad
		if pa != pb {
			return pa
		}
		if a.Boost != b.Boost {
			return a.Boost > b.Boost
		}
		return a.Priority.Less(b.Priority)
	})
}

func candidatesFor(k model.PatternKey, e *model.KnowledgeEntry, withMeta bool) []model.Candidate {
	var out []model.Candidate
	for _, p := range e.Passages {
		if strings.TrimSpace(p.Text) == "" {
			continue
		}
		c := model.Candidate{
			Type:      k.Type,
			PatternID: e.PatternID,
			Priority:  model.PriorityFor(k.Type),
			Title:     e.Title,
			Theme:     e.Theme,
			Text:      p.Text,
			Source:    p.Source,
			Tags:      append([]string(nil), p.Tags...),
		}
		switch k.Type {
		case model.PatternTriad:
			if withMeta {
				c.Metadata = map[string]any{"triadId": e.PatternID, "isComplete": true}
			}
		case model.PatternJourney:
			c.Stage = e.Stage
			if c.Stage == "" {
				c.Stage = k.StageKey
			}
			if withMeta {
				c.Metadata = map[string]any{"stageKey": k.StageKey}
			}
		case model.PatternDyad:
			lo, hi := k.CardPair[0], k.CardPair[1]
			if lo > hi {
				lo, hi = hi, lo
			}
			c.CardNumbers = []int{lo, hi}
			if withMeta {
				c.Metadata = map[string]any{"cardPair": []int{lo, hi}, "significance": k.Significance}
			}
		case model.PatternProgression:
			c.Suit = strings.ToLower(k.Category)
			c.Stage = strings.ToLower(k.Stage)
			if withMeta {
				c.Metadata = map[string]any{"category": c.Suit, "stage": c.Stage, "significance": k.Significance}
			}
		}
		out = append(out, c)
	}
	return out
}
