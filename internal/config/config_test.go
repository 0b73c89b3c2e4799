package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPassageTiers(t *testing.T) {
	tiers := PassageTiers{Single: 2, ThreeCard: 4, Medium: 6, Large: 9}
	cases := map[int]int{0: 2, 1: 2, 2: 4, 3: 4, 5: 6, 7: 6, 10: 9}
	for n, want := range cases {
		assert.Equal(t, want, tiers.For(n), "spread size %d", n)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ARCANA_CONFIG", "")
	cfg, err := Load("")
	require.NoError(t, err)

	assert.True(t, cfg.GraphRAGEnabled)
	assert.False(t, cfg.SemanticScoring)
	assert.Equal(t, 0.3, cfg.MinRelevance)
	assert.Equal(t, "<graphrag>", cfg.BudgetHints().KnowledgeStart)
	assert.Equal(t, 0.5, cfg.Weights().Keyword)
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arcana.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
graphrag_enabled: false
min_relevance: 0.6
token_budget: 2000
max_passages:
  large: 12
embedding:
  provider: ollama
  endpoint: http://localhost:11434
`), 0o644))

	t.Setenv("ARCANA_TOKEN_BUDGET", "1500")
	t.Setenv("ARCANA_EMBEDDING_API_KEY", "k-123")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.False(t, cfg.GraphRAGEnabled)
	assert.Equal(t, 0.6, cfg.MinRelevance)
	assert.Equal(t, 1500, cfg.TokenBudget)
	assert.Equal(t, 12, cfg.MaxPassages.Large)
	assert.Equal(t, 3, cfg.MaxPassages.Single, "unset tiers keep defaults")
	assert.Equal(t, "ollama", cfg.Embedding.Provider)
	assert.Equal(t, "k-123", cfg.Embedding.APIKey)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestApplyEnvRejectsBadValues(t *testing.T) {
	env := map[string]string{
		"ARCANA_TOKEN_BUDGET":    "lots",
		"ARCANA_PROMPT_SLIMMING": "maybe",
		"ARCANA_KEYWORD_WEIGHT":  "0.8",
	}
	cfg := Default()
	err := cfg.applyEnv(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "ARCANA_TOKEN_BUDGET")
	assert.Contains(t, err.Error(), "ARCANA_PROMPT_SLIMMING")
	assert.Equal(t, 0.8, cfg.KeywordWeight)
}
