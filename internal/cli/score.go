package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/arcana/internal/relevance"
)

func init() {
	cmd := &cobra.Command{
		Use:   "score [passage...]",
		Short: "Score a passage against a query",
		Long:  "Score passage text (args or stdin) against --query. Semantic scoring is used when enabled and an embedder is configured.",
		Run:   runScore,
	}

	cmd.Flags().StringP("query", "q", "", "Query to score against")

	RootCmd.AddCommand(cmd)
}

type scoreResult struct {
	Score    float64 `json:"score"`
	Keyword  float64 `json:"keyword"`
	Semantic bool    `json:"semantic"`
}

func runScore(cmd *cobra.Command, args []string) {
	query, _ := cmd.Flags().GetString("query")

	passage := strings.Join(args, " ")
	if passage == "" {
		data, err := readInput("")
		if err != nil {
			exitErr("read stdin", err)
		}
		passage = string(data)
	}

	scorer, closeScorer, err := newScorer(cmd.Context())
	if err != nil {
		exitErr("embedder", err)
	}
	defer closeScorer()

	res := scoreResult{
		Score:    scorer.ScoreContext(cmd.Context(), passage, query),
		Keyword:  relevance.KeywordScore(passage, query),
		Semantic: scorer.Semantic(),
	}
	if formatFlag == "text" {
		fmt.Printf("%.3f\n", res.Score)
		return
	}
	printJSON(res)
}
