package main

import (
	"github.com/spf13/cobra"

	"mender/internal/consistency"
	"mender/internal/history"
	"mender/internal/model"
	"mender/internal/parser"
	"mender/internal/paths"
	"mender/internal/registry"
)

// DriftResponse holds drift checks of a working copy against its last
// committed revision and against the registered model, when available.
type DriftResponse struct {
	Path              string                   `json:"path"`
	WorkingVsHead     *model.ConsistencyReport `json:"workingVsHead,omitempty"`
	WorkingVsRegistry *model.ConsistencyReport `json:"workingVsRegistry,omitempty"`
	Drifted           bool                     `json:"drifted"`
}

var driftCmd = &cobra.Command{
	Use:   "drift <file> [other-file]",
	Short: "Check structural drift between source versions",
	Long: `With one argument, compares the working copy against its last committed
revision and against the model recorded in the registry. With two
arguments, compares the two files directly.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runDrift,
}

func init() {
	rootCmd.AddCommand(driftCmd)
}

func runDrift(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	domains, err := consistency.LoadDomains(paths.DomainsPath(cfg.RepoRoot))
	if err != nil {
		logger.Warn("domain manifest unreadable", "error", err)
	}
	analyzer := consistency.NewAnalyzer(cfg.Recovery.DriftThreshold, domains)
	p := parser.New()

	if len(args) == 2 {
		reportAB := analyzer.Compare(
			p.ParseFile(cmd.Context(), args[0]),
			p.ParseFile(cmd.Context(), args[1]),
		)
		if err := printResponse(reportAB); err != nil {
			return err
		}
		if reportAB.Similarity < cfg.Recovery.DriftThreshold {
			return errExitDegraded
		}
		return nil
	}

	path := args[0]
	working := p.ParseFile(cmd.Context(), path)
	resp := &DriftResponse{Path: path}

	// Last committed revision, when the file is under version control.
	scratch, err := history.NewScratch()
	if err != nil {
		return err
	}
	defer scratch.Release()

	retriever := history.NewRetriever(logger)
	if revisions, ok := retriever.History(cmd.Context(), scratch, path, 1); ok && len(revisions) > 0 && revisions[0].Model != nil {
		resp.WorkingVsHead = compareLabeled(analyzer, working, revisions[0].Model, path+"@HEAD")
	}

	// Registered model from the last recorded run.
	if reg, regErr := registry.Open(paths.RegistryPath(cfg.RepoRoot)); regErr == nil {
		if recorded, ok := reg.Get(working.Path); ok {
			resp.WorkingVsRegistry = compareLabeled(analyzer, working, recorded, path+"@registry")
		}
	} else {
		logger.Warn("registry unreadable", "error", regErr)
	}

	threshold := cfg.Recovery.DriftThreshold
	if resp.WorkingVsHead != nil && resp.WorkingVsHead.Similarity < threshold {
		resp.Drifted = true
	}
	if resp.WorkingVsRegistry != nil && resp.WorkingVsRegistry.Similarity < threshold {
		resp.Drifted = true
	}

	if err := printResponse(resp); err != nil {
		return err
	}
	if resp.Drifted {
		return errExitDegraded
	}
	return nil
}

// compareLabeled compares the working model against another version and
// relabels the report's second path. Models are never mutated here: the
// registry's model is shared with the in-memory document, so writing a
// label into it would leak into any later save.
func compareLabeled(analyzer *consistency.Analyzer, working, other *model.SourceModel, label string) *model.ConsistencyReport {
	report := analyzer.Compare(working, other)
	report.PathB = label
	return report
}
