// Package cli implements the arcana CLI commands.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rcliao/arcana/internal/config"
	"github.com/rcliao/arcana/internal/embedding"
	"github.com/rcliao/arcana/internal/knowledge"
	"github.com/rcliao/arcana/internal/logging"
	"github.com/rcliao/arcana/internal/relevance"
)

var (
	configPath string
	dbPath     string
	corpusPath string
	formatFlag string
	logMode    string

	cfg    config.Config
	logger = logging.Nop()
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "arcana",
	Short: "Pattern-keyed knowledge retrieval for tarot reading prompts",
	Long: "Retrieve curated passages for detected card patterns, score them against a question, " +
		"and assemble reading prompts that fit a token budget.",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) { logger.Sync() },
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: $ARCANA_CONFIG)")
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Knowledge database path (default: $ARCANA_DB or ~/.arcana/knowledge.db)")
	RootCmd.PersistentFlags().StringVar(&corpusPath, "corpus", "", "Corpus file to use instead of the database (YAML or JSON)")
	RootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "json", "Output format: json or text")
	RootCmd.PersistentFlags().StringVar(&logMode, "log-mode", "", "Log mode: prod or dev (default from config)")
}

func setup(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load(configPath)
	if err != nil {
		return err
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	if corpusPath != "" {
		cfg.CorpusPath = corpusPath
	}
	if logMode != "" {
		cfg.LogMode = logMode
	}
	logger, err = logging.New(cfg.LogMode, cfg.LogLevel)
	return err
}

func openStore() (*knowledge.SQLiteStore, error) {
	return knowledge.NewSQLiteStore(cfg.DBPath)
}

// loadBase picks the knowledge source: an explicit corpus file, then the
// database when it exists, then the embedded seed corpus.
func loadBase(ctx context.Context) (*knowledge.Base, error) {
	if cfg.CorpusPath != "" {
		return knowledge.LoadFile(cfg.CorpusPath)
	}
	if _, err := os.Stat(cfg.DBPath); err == nil {
		s, err := openStore()
		if err != nil {
			return nil, err
		}
		defer s.Close()
		return s.Load(ctx)
	}
	logger.Debug("no database, using seed corpus", "db", cfg.DBPath)
	return knowledge.LoadSeed()
}

// newScorer builds a scorer over the configured embedder, wrapped in the
// in-process cache and, when configured, the Redis tier. The returned func
// releases the Redis connection.
func newScorer(ctx context.Context) (*relevance.Scorer, func(), error) {
	closeFn := func() {}
	emb, err := embedding.New(ctx, cfg.Embedding)
	if err != nil {
		return nil, closeFn, err
	}
	if emb != nil {
		var shared embedding.SharedCache
		if cfg.Embedding.RedisAddr != "" {
			rc, err := embedding.NewRedisCache(ctx, cfg.Embedding.RedisAddr, 24*time.Hour)
			if err != nil {
				logger.Warn("redis cache unavailable", "addr", cfg.Embedding.RedisAddr, "error", err)
			} else {
				shared = rc
				closeFn = func() { _ = rc.Close() }
			}
		}
		emb = embedding.NewCache(emb, cfg.Embedding.CacheSize, shared)
	}
	opts := relevance.Options{
		Weights:               cfg.Weights(),
		EnableSemanticScoring: cfg.SemanticScoring,
		Provider:              cfg.Embedding,
	}
	return relevance.NewScorer(opts, emb, logger), closeFn, nil
}

// readInput reads the named file, or stdin for "" and "-".
func readInput(path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func printJSON(v any) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
