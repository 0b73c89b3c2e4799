package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rcliao/arcana/internal/knowledge"
	"github.com/rcliao/arcana/internal/model"
)

var kbCmd = &cobra.Command{
	Use:   "kb",
	Short: "Manage the knowledge database",
}

func init() {
	importCmd := &cobra.Command{
		Use:   "import [corpus.yaml]",
		Short: "Import a corpus file (YAML or JSON) into the database",
		Long:  "Import a corpus file into the database, replacing entries with the same pattern type and id. With --seed, imports the built-in corpus.",
		Args:  cobra.MaximumNArgs(1),
		Run:   runKBImport,
	}
	importCmd.Flags().Bool("seed", false, "Import the built-in seed corpus")

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Export the database as a YAML corpus",
		Run:   runKBExport,
	}

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show database statistics",
		Run:   runKBStats,
	}

	watchCmd := &cobra.Command{
		Use:   "watch <corpus.yaml>",
		Short: "Re-import a corpus file whenever it changes",
		Args:  cobra.ExactArgs(1),
		Run:   runKBWatch,
	}

	rmCmd := &cobra.Command{
		Use:   "rm",
		Short: "Delete a knowledge entry and its passages",
		Run:   runKBRm,
	}
	rmCmd.Flags().StringP("type", "t", "", "Pattern type: triad, journey, dyad or progression (required)")
	rmCmd.Flags().StringP("id", "i", "", "Pattern id (required)")
	rmCmd.MarkFlagRequired("type")
	rmCmd.MarkFlagRequired("id")

	kbCmd.AddCommand(importCmd, exportCmd, statsCmd, watchCmd, rmCmd)
	RootCmd.AddCommand(kbCmd)
}

func runKBImport(cmd *cobra.Command, args []string) {
	seed, _ := cmd.Flags().GetBool("seed")

	var (
		entries []model.KnowledgeEntry
		err     error
	)
	switch {
	case seed:
		entries, err = knowledge.SeedEntries()
	case len(args) == 1:
		entries, err = knowledge.ReadCorpusFile(args[0])
	default:
		var data []byte
		data, err = readInput("")
		if err == nil {
			entries, err = knowledge.ParseCorpus(data)
		}
	}
	if err != nil {
		exitErr("read corpus", err)
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	imported, err := s.Import(cmd.Context(), entries)
	if err != nil {
		exitErr("import", err)
	}

	fmt.Printf(`{"ok":true,"imported":%d}`+"\n", imported)
}

func runKBExport(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	entries, err := s.Entries(cmd.Context())
	if err != nil {
		exitErr("export", err)
	}
	out, err := knowledge.MarshalCorpus(entries)
	if err != nil {
		exitErr("export", err)
	}
	os.Stdout.Write(out)
}

func runKBStats(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	stats, err := s.Stats(cmd.Context(), cfg.DBPath)
	if err != nil {
		exitErr("stats", err)
	}

	if formatFlag == "text" {
		fmt.Printf("%s: %d entries, %d passages, %s\n", stats.DBPath, stats.Entries, stats.Passages, stats.DBSize)
		for _, t := range stats.Types {
			fmt.Printf("  %-12s %4d entries %5d passages\n", t.PatternType, t.Entries, t.Passages)
		}
		return
	}
	printJSON(stats)
}

func runKBRm(cmd *cobra.Command, args []string) {
	typ, _ := cmd.Flags().GetString("type")
	id, _ := cmd.Flags().GetString("id")

	t := model.PatternType(typ)
	if !model.ValidPatternTypes[t] {
		exitErr("rm", fmt.Errorf("unknown pattern type %q", typ))
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	if err := s.Remove(cmd.Context(), t, id); err != nil {
		exitErr("rm", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), `{"ok":true,"type":%q,"id":%q}`+"\n", typ, id)
}

func runKBWatch(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	entries, err := knowledge.ReadCorpusFile(args[0])
	if err != nil {
		exitErr("read corpus", err)
	}
	if _, err := s.Import(cmd.Context(), entries); err != nil {
		exitErr("import", err)
	}

	logger.Info("watching corpus", "path", args[0], "db", cfg.DBPath)
	w := knowledge.NewWatcher(args[0], logger)
	err = w.Run(cmd.Context(), func(ctx context.Context, entries []model.KnowledgeEntry) error {
		n, err := s.Import(ctx, entries)
		if err != nil {
			return err
		}
		logger.Info("corpus re-imported", "entries", n)
		return nil
	})
	if err != nil {
		exitErr("watch", err)
	}
}
