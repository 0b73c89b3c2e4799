package prompt

import (
	"context"
	"fmt"
	"strings"

	"github.com/rcliao/arcana/internal/budget"
	"github.com/rcliao/arcana/internal/config"
	"github.com/rcliao/arcana/internal/logging"
	"github.com/rcliao/arcana/internal/model"
	"github.com/rcliao/arcana/internal/relevance"
	"github.com/rcliao/arcana/internal/retrieval"
)

// DefaultInstructions closes the prompt when a request carries none.
const DefaultInstructions = "Write a warm, grounded reading that answers the question. " +
	"Weave the cards together rather than listing them, and draw on the wisdom above where it fits."

// CardLine is one drawn card.
type CardLine struct {
	Position string `json:"position,omitempty"`
	Name     string `json:"name"`
	Reversed bool   `json:"reversed,omitempty"`
}

// Request is the input to Compose.
type Request struct {
	Question      string             `json:"question"`
	Context       string             `json:"context,omitempty"`
	Cards         []CardLine         `json:"cards,omitempty"`
	CardSynthesis string             `json:"cardSynthesis,omitempty"`
	Thematic      string             `json:"thematic,omitempty"`
	Patterns      *model.PatternKeys `json:"patterns,omitempty"`
	UserQuery     string             `json:"userQuery,omitempty"`
	SpreadSize    int                `json:"spreadSize,omitempty"`
	Instructions  string             `json:"instructions,omitempty"`
}

// Composition is the assembled prompt.
type Composition struct {
	Text       string            `json:"text"`
	Tokens     int               `json:"tokens"`
	Sections   []budget.Section  `json:"sections"`
	Passages   []model.Candidate `json:"passages"`
	Truncation *budget.Result    `json:"truncation,omitempty"`
}

// Options configures a Composer.
type Options struct {
	GraphRAGEnabled   bool
	SemanticScoring   bool
	PromptSlimming    bool
	TokenBudget       int
	MinRelevance      float64
	FingerprintLength int
	IncludeSource     bool
	Tiers             config.PassageTiers
	Hints             budget.Hints
}

// OptionsFromConfig maps loaded settings onto composer options.
func OptionsFromConfig(cfg config.Config) Options {
	return Options{
		GraphRAGEnabled:   cfg.GraphRAGEnabled,
		SemanticScoring:   cfg.SemanticScoring,
		PromptSlimming:    cfg.PromptSlimming,
		TokenBudget:       cfg.TokenBudget,
		MinRelevance:      cfg.MinRelevance,
		FingerprintLength: cfg.FingerprintLength,
		IncludeSource:     true,
		Tiers:             cfg.MaxPassages,
		Hints:             cfg.BudgetHints(),
	}
}

// Composer builds reading prompts from a request, retrieving knowledge for
// the request's patterns and fitting the result into the token budget.
type Composer struct {
	engine *retrieval.Engine
	scorer *relevance.Scorer
	opts   Options
	log    *logging.Logger
}

// NewComposer creates a composer. scorer may be nil, which disables the
// quality pipeline.
func NewComposer(engine *retrieval.Engine, scorer *relevance.Scorer, opts Options, log *logging.Logger) *Composer {
	return &Composer{
		engine: engine,
		scorer: scorer,
		opts:   opts,
		log:    logging.OrNop(log).With("component", "composer"),
	}
}

// Compose assembles the prompt. It fails only when ctx is done.
func (c *Composer) Compose(ctx context.Context, req Request) (Composition, error) {
	if err := ctx.Err(); err != nil {
		return Composition{}, err
	}

	passages := c.retrieve(ctx, req)
	sections := c.sections(req, passages)

	comp := Composition{Sections: sections, Passages: passages}
	if c.opts.PromptSlimming && c.opts.TokenBudget > 0 {
		res := budget.TruncateSections(sections, c.opts.TokenBudget, c.opts.Hints)
		comp.Text = res.Text
		comp.Truncation = &res
		if res.Truncated {
			c.log.Info("prompt slimmed",
				"budget", c.opts.TokenBudget,
				"dropped", res.DroppedSections,
				"shortened", res.ShortenedSections)
		}
	} else {
		comp.Text = budget.Join(sections)
	}
	comp.Tokens = budget.EstimateTokens(comp.Text)
	return comp, nil
}

func (c *Composer) retrieve(ctx context.Context, req Request) []model.Candidate {
	if !c.opts.GraphRAGEnabled || req.Patterns == nil || c.engine == nil {
		return nil
	}
	size := req.SpreadSize
	if size == 0 {
		size = len(req.Cards)
	}
	query := strings.TrimSpace(req.UserQuery)
	if query == "" {
		query = strings.TrimSpace(req.Question)
	}
	opts := retrieval.Options{MaxPassages: c.opts.Tiers.For(size), UserQuery: query}

	if c.opts.SemanticScoring && c.scorer != nil && c.scorer.Semantic() {
		return c.engine.RetrieveWithQuality(ctx, req.Patterns, c.scorer, retrieval.QualityOptions{
			Options:           opts,
			MinRelevanceScore: c.opts.MinRelevance,
			Deduplicate:       true,
			FingerprintLength: c.opts.FingerprintLength,
		})
	}
	return c.engine.Retrieve(req.Patterns, opts)
}

func (c *Composer) sections(req Request, passages []model.Candidate) []budget.Section {
	hints := c.opts.Hints
	if hints.KnowledgeStart == "" {
		hints = budget.DefaultHints()
	}

	var out []budget.Section
	add := func(id string, role budget.Role, text string) {
		if text != "" {
			out = append(out, budget.Section{ID: id, Role: role, Text: text})
		}
	}

	add(budget.IDHead, budget.RoleHead, head(req))
	if s := strings.TrimSpace(req.CardSynthesis); s != "" {
		add(budget.IDCards, budget.RoleCards, hints.CardsHeading+"\n"+s+"\n\n")
	}
	if s := strings.TrimSpace(req.Thematic); s != "" {
		add(budget.IDThematic, budget.RoleThematic, hints.ThematicHeading+"\n"+s+"\n\n")
	}
	if block := Format(passages, FormatOptions{IncludeSource: c.opts.IncludeSource, Markdown: true}); block != "" {
		add(budget.IDKnowledge, budget.RoleKnowledge, hints.KnowledgeStart+"\n"+block+hints.KnowledgeEnd+"\n\n")
	}
	instructions := strings.TrimSpace(req.Instructions)
	if instructions == "" {
		instructions = DefaultInstructions
	}
	add(budget.IDTail, budget.RoleTail, hints.TailHeading+"\n"+instructions+"\n")
	return out
}

func head(req Request) string {
	var sb strings.Builder
	sb.WriteString("You are an experienced tarot reader.\n\n")
	if q := strings.TrimSpace(req.Question); q != "" {
		fmt.Fprintf(&sb, "## Question\n%s\n\n", q)
	}
	if ctx := strings.TrimSpace(req.Context); ctx != "" {
		fmt.Fprintf(&sb, "## Context\n%s\n\n", ctx)
	}
	if len(req.Cards) > 0 {
		sb.WriteString("## Cards Drawn\n")
		for i, card := range req.Cards {
			fmt.Fprintf(&sb, "%d. ", i+1)
			if card.Position != "" {
				fmt.Fprintf(&sb, "%s: ", card.Position)
			}
			sb.WriteString(card.Name)
			if card.Reversed {
				sb.WriteString(" (reversed)")
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
