package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/arcana/internal/budget"
)

func init() {
	cmd := &cobra.Command{
		Use:   "truncate [file]",
		Short: "Fit text into a token budget",
		Long: "Truncate text (file or stdin) to --max tokens. With --structured, recognised prompt " +
			"sections are kept whole and the knowledge block is shortened or dropped first.",
		Args: cobra.MaximumNArgs(1),
		Run:  runTruncate,
	}

	cmd.Flags().IntP("max", "m", 0, "Token budget (default from config)")
	cmd.Flags().Int("tail", 0, "Tail tokens kept verbatim (default from config)")
	cmd.Flags().BoolP("structured", "s", false, "Section-aware truncation")

	RootCmd.AddCommand(cmd)
}

func runTruncate(cmd *cobra.Command, args []string) {
	maxTokens, _ := cmd.Flags().GetInt("max")
	tail, _ := cmd.Flags().GetInt("tail")
	structured, _ := cmd.Flags().GetBool("structured")

	if maxTokens == 0 {
		maxTokens = cfg.TokenBudget
	}
	if maxTokens <= 0 {
		exitErr("truncate", errors.New("--max must be positive"))
	}

	path := ""
	if len(args) > 0 {
		path = args[0]
	}
	data, err := readInput(path)
	if err != nil {
		exitErr("read input", err)
	}

	hints := cfg.BudgetHints()
	if tail != 0 {
		hints.TailTokens = tail
	}

	var res budget.Result
	if structured {
		res = budget.TruncateStructured(string(data), maxTokens, hints)
	} else {
		res = budget.Truncate(string(data), maxTokens, budget.Options{TailTokens: hints.TailTokens})
	}
	logger.Debug("truncate", "max", maxTokens, "truncated", res.Truncated, "preserved", res.PreservedSections)

	if formatFlag == "text" {
		fmt.Print(res.Text)
		return
	}
	printJSON(res)
}
