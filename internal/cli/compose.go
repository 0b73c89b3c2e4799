package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/arcana/internal/prompt"
	"github.com/rcliao/arcana/internal/retrieval"
)

func init() {
	cmd := &cobra.Command{
		Use:   "compose [request.json]",
		Short: "Assemble a reading prompt",
		Long: "Read a compose request as JSON (file or stdin): question, cards, card synthesis, " +
			"thematic context and detected patterns. Prints the assembled prompt fitted to the token budget.",
		Args: cobra.MaximumNArgs(1),
		Run:  runCompose,
	}

	cmd.Flags().IntP("budget", "b", 0, "Token budget (default from config)")
	cmd.Flags().Bool("no-slim", false, "Skip token budgeting")
	cmd.Flags().Bool("no-graphrag", false, "Skip knowledge retrieval")

	RootCmd.AddCommand(cmd)
}

func runCompose(cmd *cobra.Command, args []string) {
	tokenBudget, _ := cmd.Flags().GetInt("budget")
	noSlim, _ := cmd.Flags().GetBool("no-slim")
	noGraphRAG, _ := cmd.Flags().GetBool("no-graphrag")

	path := ""
	if len(args) > 0 {
		path = args[0]
	}
	data, err := readInput(path)
	if err != nil {
		exitErr("read request", err)
	}
	var req prompt.Request
	if err := json.Unmarshal(data, &req); err != nil {
		exitErr("parse request", err)
	}

	opts := prompt.OptionsFromConfig(cfg)
	if tokenBudget > 0 {
		opts.TokenBudget = tokenBudget
	}
	if noSlim {
		opts.PromptSlimming = false
	}
	if noGraphRAG {
		opts.GraphRAGEnabled = false
	}

	base, err := loadBase(cmd.Context())
	if err != nil {
		exitErr("load knowledge", err)
	}
	scorer, closeScorer, err := newScorer(cmd.Context())
	if err != nil {
		exitErr("embedder", err)
	}
	defer closeScorer()

	composer := prompt.NewComposer(retrieval.NewEngine(base, logger), scorer, opts, logger)
	comp, err := composer.Compose(cmd.Context(), req)
	if err != nil {
		exitErr("compose", err)
	}

	if formatFlag == "text" {
		fmt.Print(comp.Text)
		return
	}
	printJSON(comp)
}
