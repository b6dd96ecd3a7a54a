package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mender/internal/extract"
)

var projectOut string

var projectCmd = &cobra.Command{
	Use:   "project <file>",
	Short: "Extract code nodes and project them back as canonical source",
	Long: `Extracts imports, module constants, classes, methods and functions from
the file, even when it does not fully parse, and emits them in canonical
order: imports, constants, classes with their methods, then functions.`,
	Args: cobra.ExactArgs(1),
	RunE: runProject,
}

func init() {
	projectCmd.Flags().StringVar(&projectOut, "out", "",
		"Write projected source to this file instead of stdout")
	rootCmd.AddCommand(projectCmd)
}

func runProject(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	extractor := extract.NewExtractor(cfg.Recovery.HeaderWindowLines)
	arena, err := extractor.Extract(cmd.Context(), string(data))
	if err != nil {
		return err
	}
	projected := extract.Project(arena)

	if projectOut != "" {
		return os.WriteFile(projectOut, []byte(projected), 0644)
	}
	fmt.Print(projected)
	return nil
}
