package main

import (
	"github.com/spf13/cobra"

	"mender/internal/history"
)

var historyMax int

// HistoryResponse is the payload for the history command.
type HistoryResponse struct {
	Path      string                   `json:"path"`
	Available bool                     `json:"available"`
	Revisions []history.RevisionRecord `json:"revisions,omitempty"`
}

var historyCmd = &cobra.Command{
	Use:   "history <file>",
	Short: "Retrieve prior generations of a file from version control",
	Long: `Fetches up to the configured number of prior revisions of the file,
parses each generation, and reports which of them are structurally valid.
A file outside version control yields an empty history, not an error.`,
	Args: cobra.ExactArgs(1),
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyMax, "max-generations", 0,
		"Maximum revisions to retrieve (default from config)")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	max := cfg.History.MaxGenerations
	if historyMax > 0 {
		max = historyMax
	}

	scratch, err := history.NewScratch()
	if err != nil {
		return err
	}
	defer scratch.Release()

	retriever := history.NewRetriever(logger)
	revisions, ok := retriever.History(cmd.Context(), scratch, args[0], max)

	resp := &HistoryResponse{
		Path:      args[0],
		Available: ok,
		Revisions: revisions,
	}
	return printResponse(resp)
}
