package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"mender/internal/config"
	"mender/internal/errors"
	"mender/internal/paths"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize mender configuration",
	Long:  "Creates a .mender/ directory with default configuration in the current directory",
	RunE:  runInit,
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false,
		"Force reinitialization (removes existing .mender directory)")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return errors.New(errors.InternalError, "failed to get current directory", err)
	}

	stateDir := paths.StateDir(cwd)
	if _, statErr := os.Stat(stateDir); statErr == nil {
		if !initForce {
			// Already initialized is success (CI-friendly).
			fmt.Println("mender already initialized.")
			fmt.Printf("Configuration at: %s\n", paths.ConfigPath(cwd))
			fmt.Println("\nRun 'mender init --force' to reinitialize.")
			return nil
		}
		if removeErr := os.RemoveAll(stateDir); removeErr != nil {
			return errors.New(errors.InternalError, "failed to remove existing .mender directory", removeErr)
		}
	}

	if _, err := paths.EnsureStateDir(cwd); err != nil {
		return err
	}
	if _, err := paths.EnsureLogsDir(cwd); err != nil {
		return err
	}

	cfg := config.DefaultConfig()
	cfg.RepoRoot = cwd
	if err := cfg.Save(); err != nil {
		return err
	}

	fmt.Println("mender initialized.")
	fmt.Printf("Configuration written to: %s\n", paths.ConfigPath(cwd))
	fmt.Println("\nNext steps:")
	fmt.Printf("  1. Run 'mender parse <file>' to inspect a source file\n")
	fmt.Printf("  2. Run 'mender batch %s' to process a tree\n", filepath.Base(cwd))

	return nil
}
