package main

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"mender/internal/paths"
	"mender/internal/pipeline"
	"mender/internal/registry"
	"mender/internal/store"
)

var (
	batchWorkers int
	batchWrite   bool
	batchNoCache bool
)

var batchCmd = &cobra.Command{
	Use:   "batch <path>...",
	Short: "Run the recovery pipeline over many files",
	Long: `Runs one recovery pipeline per file on a bounded worker pool.
Directories are walked for Python sources. Parse models are cached in
the state database and recorded in the registry; files whose content is
unchanged since the last run skip re-parsing.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().IntVar(&batchWorkers, "workers", 0,
		"Concurrent per-file pipelines (default from config)")
	batchCmd.Flags().BoolVarP(&batchWrite, "write", "w", false,
		"Write validated reconstructions back to the source files")
	batchCmd.Flags().BoolVar(&batchNoCache, "no-cache", false,
		"Bypass the parse model cache")
	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	files, err := collectSources(args)
	if err != nil {
		return err
	}

	// Registry keys are repo-relative canonical paths; files outside the
	// repo root keep the path they were given.
	for i, f := range files {
		abs, absErr := filepath.Abs(f)
		if absErr != nil {
			continue
		}
		if paths.IsWithinRepo(abs, cfg.RepoRoot) {
			if rel, relErr := paths.CanonicalizePath(abs, cfg.RepoRoot); relErr == nil {
				files[i] = filepath.FromSlash(rel)
			}
		}
	}

	workers := cfg.Pipeline.Workers
	if batchWorkers > 0 {
		workers = batchWorkers
	}

	if _, err := paths.EnsureStateDir(cfg.RepoRoot); err != nil {
		return err
	}

	var cache *store.Store
	if !batchNoCache {
		cache, err = store.Open(paths.DBPath(cfg.RepoRoot), logger)
		if err != nil {
			logger.Warn("parse cache unavailable", "error", err)
		} else {
			defer cache.Close()
		}
	}

	reg, err := registry.Open(paths.RegistryPath(cfg.RepoRoot))
	if err != nil {
		return err
	}

	runner := pipeline.NewRunner(logger, pipeline.Options{
		Workers:        workers,
		MaxGenerations: cfg.History.MaxGenerations,
		HeaderWindow:   cfg.Recovery.HeaderWindowLines,
		IndentUnit:     cfg.Recovery.IndentUnit,
		WriteBack:      batchWrite,
	}, cache, reg)

	report := runner.Run(cmd.Context(), files)

	if err := reg.Save(); err != nil {
		logger.Warn("registry save failed", "error", err)
	}

	if err := printResponse(report); err != nil {
		return err
	}
	if report.Failed > 0 || report.StillBroken > 0 {
		return errExitDegraded
	}
	return nil
}

// collectSources expands arguments into a file list, walking
// directories for Python sources.
func collectSources(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if strings.HasPrefix(d.Name(), ".") && path != arg {
					return filepath.SkipDir
				}
				return nil
			}
			if strings.HasSuffix(d.Name(), ".py") {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}
