package main

import (
	"os"

	"github.com/spf13/cobra"

	"mender/internal/reconstruct"
)

var (
	reconstructWrite bool
	reconstructMax   int
)

var reconstructCmd = &cobra.Command{
	Use:   "reconstruct <file>",
	Short: "Reconstruct a broken source file",
	Long: `Runs the full recovery pipeline on one file: staged parsing, history
retrieval, evolution analysis, and template-guided reconstruction.
The result is printed either way; a reconstruction that still fails
full validation is reported with a failing exit code.`,
	Args: cobra.ExactArgs(1),
	RunE: runReconstruct,
}

func init() {
	reconstructCmd.Flags().BoolVarP(&reconstructWrite, "write", "w", false,
		"Write the reconstructed content back to the file (validated output only)")
	reconstructCmd.Flags().IntVar(&reconstructMax, "max-generations", 0,
		"Maximum revisions to consult (default from config)")
	rootCmd.AddCommand(reconstructCmd)
}

func runReconstruct(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	max := cfg.History.MaxGenerations
	if reconstructMax > 0 {
		max = reconstructMax
	}

	r := reconstruct.New(logger, reconstruct.Options{
		MaxGenerations:    max,
		HeaderWindowLines: cfg.Recovery.HeaderWindowLines,
		IndentUnit:        cfg.Recovery.IndentUnit,
	})

	result, err := r.ReconstructFile(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if reconstructWrite && result.Validated {
		if writeErr := os.WriteFile(args[0], []byte(result.Output), 0644); writeErr != nil {
			return writeErr
		}
		logger.Info("wrote reconstructed file", "path", args[0], "strategy", result.Strategy)
	}

	if err := printResponse(result); err != nil {
		return err
	}
	if !result.Validated {
		return errExitDegraded
	}
	return nil
}
