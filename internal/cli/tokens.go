package cli

import (
	"fmt"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/rcliao/arcana/internal/budget"
)

func init() {
	cmd := &cobra.Command{
		Use:   "tokens [file]",
		Short: "Estimate the token count of text",
		Args:  cobra.MaximumNArgs(1),
		Run:   runTokens,
	}

	RootCmd.AddCommand(cmd)
}

func runTokens(cmd *cobra.Command, args []string) {
	path := ""
	if len(args) > 0 {
		path = args[0]
	}
	data, err := readInput(path)
	if err != nil {
		exitErr("read input", err)
	}

	n := budget.EstimateTokens(string(data))
	if formatFlag == "text" {
		fmt.Println(n)
		return
	}
	fmt.Printf(`{"tokens":%d,"chars":%d}`+"\n", n, utf8.RuneCount(data))
}
