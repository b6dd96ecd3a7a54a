package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mender/internal/evolution"
	"mender/internal/history"
)

var evolutionMax int

var evolutionCmd = &cobra.Command{
	Use:   "evolution <file>",
	Short: "Analyze how a file changed across its generations",
	Long: `Retrieves the file's revision history and derives size, structure and
complexity trends plus a stability score, and selects the generation
best suited as a reconstruction template.`,
	Args: cobra.ExactArgs(1),
	RunE: runEvolution,
}

func init() {
	evolutionCmd.Flags().IntVar(&evolutionMax, "max-generations", 0,
		"Maximum revisions to analyze (default from config)")
	rootCmd.AddCommand(evolutionCmd)
}

func runEvolution(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	max := cfg.History.MaxGenerations
	if evolutionMax > 0 {
		max = evolutionMax
	}

	scratch, err := history.NewScratch()
	if err != nil {
		return err
	}
	defer scratch.Release()

	retriever := history.NewRetriever(logger)
	revisions, ok := retriever.History(cmd.Context(), scratch, args[0], max)
	if !ok {
		return fmt.Errorf("no version control history for %s", args[0])
	}

	profile, err := evolution.Analyze(revisions)
	if err != nil {
		return err
	}
	profile.Path = args[0]

	return printResponse(profile)
}
