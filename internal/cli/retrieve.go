package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/arcana/internal/model"
	"github.com/rcliao/arcana/internal/prompt"
	"github.com/rcliao/arcana/internal/retrieval"
)

func init() {
	cmd := &cobra.Command{
		Use:   "retrieve [patterns.json]",
		Short: "Retrieve passages for detected patterns",
		Long: "Read pattern keys as JSON (file or stdin) and print the ranked passages. " +
			"With --quality, passages are scored against the query, filtered and deduplicated.",
		Args: cobra.MaximumNArgs(1),
		Run:  runRetrieve,
	}

	cmd.Flags().IntP("max", "m", 0, "Max passages (0: by --spread, or the engine default)")
	cmd.Flags().Int("spread", 0, "Spread size used to pick the passage cap from config")
	cmd.Flags().StringP("query", "q", "", "User question used for keyword boost and scoring")
	cmd.Flags().Bool("metadata", false, "Attach pattern metadata to each passage")
	cmd.Flags().Bool("quality", false, "Score, filter and deduplicate passages")
	cmd.Flags().Float64("min-score", -1, "Minimum relevance score with --quality (default from config)")
	cmd.Flags().Bool("plain", false, "With --format text, render without markdown")
	cmd.Flags().Bool("source", true, "With --format text, include passage sources")

	RootCmd.AddCommand(cmd)
}

func runRetrieve(cmd *cobra.Command, args []string) {
	maxPassages, _ := cmd.Flags().GetInt("max")
	spread, _ := cmd.Flags().GetInt("spread")
	query, _ := cmd.Flags().GetString("query")
	metadata, _ := cmd.Flags().GetBool("metadata")
	quality, _ := cmd.Flags().GetBool("quality")
	minScore, _ := cmd.Flags().GetFloat64("min-score")
	plain, _ := cmd.Flags().GetBool("plain")
	withSource, _ := cmd.Flags().GetBool("source")

	path := ""
	if len(args) > 0 {
		path = args[0]
	}
	data, err := readInput(path)
	if err != nil {
		exitErr("read patterns", err)
	}
	var keys model.PatternKeys
	if err := json.Unmarshal(data, &keys); err != nil {
		exitErr("parse patterns", err)
	}

	base, err := loadBase(cmd.Context())
	if err != nil {
		exitErr("load knowledge", err)
	}
	engine := retrieval.NewEngine(base, logger)

	if maxPassages == 0 && spread > 0 {
		maxPassages = cfg.MaxPassages.For(spread)
	}
	opts := retrieval.Options{MaxPassages: maxPassages, IncludeMetadata: metadata, UserQuery: query}

	var passages []model.Candidate
	if quality {
		scorer, closeScorer, err := newScorer(cmd.Context())
		if err != nil {
			exitErr("embedder", err)
		}
		defer closeScorer()
		if minScore < 0 {
			minScore = cfg.MinRelevance
		}
		passages = engine.RetrieveWithQuality(cmd.Context(), &keys, scorer, retrieval.QualityOptions{
			Options:           opts,
			MinRelevanceScore: minScore,
			Deduplicate:       true,
			FingerprintLength: cfg.FingerprintLength,
		})
	} else {
		passages = engine.Retrieve(&keys, opts)
	}

	if formatFlag == "text" {
		fmt.Print(prompt.Format(passages, prompt.FormatOptions{IncludeSource: withSource, Markdown: !plain}))
		return
	}
	printJSON(passages)
}
