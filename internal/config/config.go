// Package config loads arcana settings from defaults, an optional YAML file
// and ARCANA_* environment variables. Command-line flags are applied last by
// the cli package.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rcliao/arcana/internal/budget"
	"github.com/rcliao/arcana/internal/embedding"
	"github.com/rcliao/arcana/internal/relevance"
	"github.com/rcliao/arcana/internal/retrieval"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "ARCANA_"

// PassageTiers caps retrieved passages by spread size.
type PassageTiers struct {
	Single    int `yaml:"single"`
	ThreeCard int `yaml:"three_card"`
	Medium    int `yaml:"medium"`
	Large     int `yaml:"large"`
}

// For returns the cap for a spread of n cards: 1 card is single, up to 3 is
// three_card, up to 7 is medium and anything larger is large.
func (t PassageTiers) For(n int) int {
	switch {
	case n <= 1:
		return t.Single
	case n <= 3:
		return t.ThreeCard
	case n <= 7:
		return t.Medium
	default:
		return t.Large
	}
}

// Config is the full settings surface.
type Config struct {
	GraphRAGEnabled   bool             `yaml:"graphrag_enabled"`
	SemanticScoring   bool             `yaml:"semantic_scoring"`
	MaxPassages       PassageTiers     `yaml:"max_passages"`
	MinRelevance      float64          `yaml:"min_relevance"`
	FingerprintLength int              `yaml:"fingerprint_length"`
	KeywordWeight     float64          `yaml:"keyword_weight"`
	SemanticWeight    float64          `yaml:"semantic_weight"`
	TokenBudget       int              `yaml:"token_budget"`
	TailTokens        int              `yaml:"tail_tokens"`
	PromptSlimming    bool             `yaml:"prompt_slimming"`
	DBPath            string           `yaml:"db_path"`
	CorpusPath        string           `yaml:"corpus_path"`
	LogMode           string           `yaml:"log_mode"`
	LogLevel          string           `yaml:"log_level"`
	Embedding         embedding.Config `yaml:"embedding"`
	Hints             budget.Hints     `yaml:"markers"`
}

// Default returns the built-in settings.
func Default() Config {
	home, _ := os.UserHomeDir()
	return Config{
		GraphRAGEnabled: true,
		MaxPassages: PassageTiers{
			Single:    3,
			ThreeCard: retrieval.DefaultMaxPassages,
			Medium:    7,
			Large:     10,
		},
		MinRelevance:      0.3,
		FingerprintLength: retrieval.DefaultFingerprintLength,
		KeywordWeight:     relevance.DefaultWeights().Keyword,
		SemanticWeight:    relevance.DefaultWeights().Semantic,
		TokenBudget:       6000,
		TailTokens:        budget.DefaultTailTokens,
		PromptSlimming:    true,
		DBPath:            filepath.Join(home, ".arcana", "knowledge.db"),
		LogMode:           "prod",
		LogLevel:          "info",
		Embedding: embedding.Config{
			CacheSize: embedding.DefaultCacheSize,
		},
		Hints: budget.DefaultHints(),
	}
}

// Load builds a Config from defaults, then path (or $ARCANA_CONFIG when path
// is empty), then the environment. A missing file named only by default is
// not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = os.Getenv(EnvPrefix + "CONFIG")
		explicit = path != ""
	}
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(b, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		case errors.Is(err, fs.ErrNotExist) && !explicit:
		default:
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Weights returns the scorer weights.
func (c Config) Weights() relevance.Weights {
	return relevance.Weights{Keyword: c.KeywordWeight, Semantic: c.SemanticWeight}
}

// BudgetHints returns the section markers with the configured tail size.
func (c Config) BudgetHints() budget.Hints {
	h := c.Hints
	if c.TailTokens != 0 {
		h.TailTokens = c.TailTokens
	}
	return h
}

type lookupFunc func(string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	var errs []error
	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = v
		}
	}
	boolean := func(key string, dst *bool) {
		if v, ok := lookup(EnvPrefix + key); ok {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = b
		}
	}
	integer := func(key string, dst *int) {
		if v, ok := lookup(EnvPrefix + key); ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = n
		}
	}
	float := func(key string, dst *float64) {
		if v, ok := lookup(EnvPrefix + key); ok {
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = f
		}
	}

	boolean("GRAPHRAG_ENABLED", &c.GraphRAGEnabled)
	boolean("SEMANTIC_SCORING", &c.SemanticScoring)
	boolean("PROMPT_SLIMMING", &c.PromptSlimming)
	integer("MAX_PASSAGES_SINGLE", &c.MaxPassages.Single)
	integer("MAX_PASSAGES_THREE_CARD", &c.MaxPassages.ThreeCard)
	integer("MAX_PASSAGES_MEDIUM", &c.MaxPassages.Medium)
	integer("MAX_PASSAGES_LARGE", &c.MaxPassages.Large)
	float("MIN_RELEVANCE", &c.MinRelevance)
	integer("FINGERPRINT_LENGTH", &c.FingerprintLength)
	float("KEYWORD_WEIGHT", &c.KeywordWeight)
	float("SEMANTIC_WEIGHT", &c.SemanticWeight)
	integer("TOKEN_BUDGET", &c.TokenBudget)
	integer("TAIL_TOKENS", &c.TailTokens)
	str("DB", &c.DBPath)
	str("CORPUS", &c.CorpusPath)
	str("LOG_MODE", &c.LogMode)
	str("LOG_LEVEL", &c.LogLevel)
	str("EMBEDDING_PROVIDER", &c.Embedding.Provider)
	str("EMBEDDING_ENDPOINT", &c.Embedding.Endpoint)
	str("EMBEDDING_API_KEY", &c.Embedding.APIKey)
	str("EMBEDDING_MODEL", &c.Embedding.Model)
	integer("EMBEDDING_DIMS", &c.Embedding.Dims)
	integer("EMBEDDING_CACHE_SIZE", &c.Embedding.CacheSize)
	str("REDIS_ADDR", &c.Embedding.RedisAddr)
	boolean("EMBEDDING_ALLOW_LOCAL", &c.Embedding.AllowLocal)

	return errors.Join(errs...)
}
