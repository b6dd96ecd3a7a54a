// Package reconstruct repairs a broken source file by consulting its
// revision history for a structural template and reconciling the
// current text against it. Recovery is a deliberate single pass: a
// result that still fails validation is returned with Validated=false
// rather than retried to convergence.
package reconstruct

import (
	"context"
	"log/slog"
	"os"

	menderrors "mender/internal/errors"
	"mender/internal/evolution"
	"mender/internal/extract"
	"mender/internal/history"
	"mender/internal/model"
	"mender/internal/parser"
)

// Strategy names the terminal state that produced the output.
type Strategy string

const (
	// StrategyUnchanged means the input already parsed fully.
	StrategyUnchanged Strategy = "unchanged"
	// StrategyHeuristic means no history existed; heuristic-only repair.
	StrategyHeuristic Strategy = "heuristic"
	// StrategyTemplate means entity counts matched and the template's
	// content was emitted verbatim.
	StrategyTemplate Strategy = "template"
	// StrategyMerge means the current text was selectively merged
	// against the template.
	StrategyMerge Strategy = "merge"
)

// Result is the outcome of one reconstruction run.
type Result struct {
	Path             string            `json:"path"`
	Output           string            `json:"output"`
	Validated        bool              `json:"validated"`
	Strategy         Strategy          `json:"strategy"`
	FinalStatus      model.ParseStatus `json:"finalStatus"`
	TemplateRevision string            `json:"templateRevision,omitempty"`
	Generations      int               `json:"generations"`
}

// Options configures a Reconstructor.
type Options struct {
	MaxGenerations    int
	HeaderWindowLines int
	IndentUnit        string
}

// Reconstructor drives the recovery state machine for single files.
type Reconstructor struct {
	parser    *parser.StagedParser
	retriever *history.Retriever
	extractor *extract.Extractor
	logger    *slog.Logger
	opts      Options
}

// New creates a Reconstructor.
func New(logger *slog.Logger, opts Options) *Reconstructor {
	if opts.MaxGenerations < 1 {
		opts.MaxGenerations = 5
	}
	if opts.IndentUnit == "" {
		opts.IndentUnit = "    "
	}
	return &Reconstructor{
		parser:    parser.New(),
		retriever: history.NewRetriever(logger),
		extractor: extract.NewExtractor(opts.HeaderWindowLines),
		logger:    logger,
		opts:      opts,
	}
}

// ReconstructFile reads path and reconstructs its content. Total
// unreadability of the initial input is the one hard failure: it halts
// this file's pipeline immediately.
func (r *Reconstructor) ReconstructFile(ctx context.Context, path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, menderrors.New(menderrors.UnreadableSource, "cannot read input file", err).
			WithDetails(map[string]string{"path": path})
	}
	return r.Reconstruct(ctx, path, string(data))
}

// Reconstruct runs the recovery state machine over content.
func (r *Reconstructor) Reconstruct(ctx context.Context, path, content string) (*Result, error) {
	current := r.parser.Parse(ctx, path, content)

	if current.Status == model.Unreadable {
		return nil, menderrors.New(menderrors.UnreadableSource, "input cannot be interpreted", nil).
			WithDetails(map[string]string{"path": path, "diagnostic": current.Diagnostic})
	}

	// Start: an already-valid file passes through unchanged.
	if current.Status == model.FullParseOk {
		return &Result{
			Path:        path,
			Output:      content,
			Validated:   true,
			Strategy:    StrategyUnchanged,
			FinalStatus: model.FullParseOk,
		}, nil
	}

	// NeedsHistory: scratch storage is scoped to this run and released
	// on every exit path.
	scratch, err := history.NewScratch()
	if err != nil {
		return nil, err
	}
	defer func() {
		if releaseErr := scratch.Release(); releaseErr != nil {
			r.logger.Warn("scratch release failed", "path", path, "error", releaseErr)
		}
	}()

	revisions, ok := r.retriever.History(ctx, scratch, path, r.opts.MaxGenerations)
	if !ok {
		// HeuristicFallback: terminal pass with no template available.
		output := heuristicRepair(content, r.opts.IndentUnit)
		return r.validate(ctx, &Result{
			Path:     path,
			Output:   output,
			Strategy: StrategyHeuristic,
		}), nil
	}

	profile, err := evolution.Analyze(revisions)
	if err != nil {
		return nil, menderrors.New(menderrors.InternalError, "evolution analysis failed", err)
	}
	template := profile.Template()

	r.logger.Debug("template selected",
		"path", path,
		"generation", profile.BestTemplateGeneration,
		"revision", template.RevisionID,
		"stability", profile.StabilityScore)

	// StructuralCompare: matching named-entity counts are taken to mean
	// equivalent intent, so the template content is the reconstruction.
	if len(current.Functions) == len(template.Model.Functions) &&
		len(current.Classes) == len(template.Model.Classes) {
		return r.validate(ctx, &Result{
			Path:             path,
			Output:           template.Content,
			Strategy:         StrategyTemplate,
			TemplateRevision: template.RevisionID,
			Generations:      profile.Generations,
		}), nil
	}

	// SelectiveMerge, then emission through the extractor/projector so
	// every recovered unit is emitted exactly once.
	merged := mergeWithTemplate(content, template.Model, r.opts.IndentUnit)
	output := r.project(ctx, merged)

	return r.validate(ctx, &Result{
		Path:             path,
		Output:           output,
		Strategy:         StrategyMerge,
		TemplateRevision: template.RevisionID,
		Generations:      profile.Generations,
	}), nil
}

// project re-emits merged text through extraction/projection when the
// projected form validates; otherwise the merged text stands.
func (r *Reconstructor) project(ctx context.Context, merged string) string {
	arena, err := r.extractor.Extract(ctx, merged)
	if err != nil || arena.Len() == 0 {
		return merged
	}
	projected := extract.Project(arena)
	if r.parser.ProbeValid(ctx, projected) {
		return projected
	}
	return merged
}

// validate re-parses the produced text and records whether it reached a
// full parse. A still-broken result is returned, not retried.
func (r *Reconstructor) validate(ctx context.Context, res *Result) *Result {
	final := r.parser.Parse(ctx, res.Path, res.Output)
	res.FinalStatus = final.Status
	res.Validated = final.Status == model.FullParseOk
	return res
}
