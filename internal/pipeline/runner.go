// Package pipeline runs one recovery pipeline instance per file on
// independent workers. Files share no mutable state, so the only
// coordination is the jobs channel in and the results channel out;
// no locking happens inside a single file's pipeline.
package pipeline

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"mender/internal/model"
	"mender/internal/parser"
	"mender/internal/reconstruct"
	"mender/internal/registry"
	"mender/internal/store"
)

// FileOutcome is the per-file result of a batch run.
type FileOutcome struct {
	Path       string                `json:"path"`
	Status     model.ParseStatus     `json:"status"`
	Strategy   reconstruct.Strategy  `json:"strategy,omitempty"`
	Validated  bool                  `json:"validated"`
	CacheHit   bool                  `json:"cacheHit,omitempty"`
	DurationMs int64                 `json:"durationMs"`
	Error      string                `json:"error,omitempty"`

	// Model travels to the collector for registry persistence only.
	Model *model.SourceModel `json:"-"`
}

// RunReport summarizes a batch run.
type RunReport struct {
	RunID         string        `json:"runId"`
	StartedAt     time.Time     `json:"startedAt"`
	DurationMs    int64         `json:"durationMs"`
	TotalFiles    int           `json:"totalFiles"`
	AlreadyValid  int           `json:"alreadyValid"`
	Reconstructed int           `json:"reconstructed"`
	StillBroken   int           `json:"stillBroken"`
	Failed        int           `json:"failed"`
	Cancelled     bool          `json:"cancelled,omitempty"`
	Files         []FileOutcome `json:"files"`
}

// Options configures a Runner.
type Options struct {
	Workers        int
	MaxGenerations int
	HeaderWindow   int
	IndentUnit     string
	// WriteBack rewrites source files with validated reconstructions.
	// Unvalidated output is never written back.
	WriteBack bool
}

// Runner executes recovery pipelines over many files.
type Runner struct {
	logger *slog.Logger
	opts   Options
	cache  *store.Store       // optional
	reg    *registry.Registry // optional
}

// NewRunner creates a batch runner. cache and reg may be nil.
func NewRunner(logger *slog.Logger, opts Options, cache *store.Store, reg *registry.Registry) *Runner {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Runner{logger: logger, opts: opts, cache: cache, reg: reg}
}

// Run processes paths with a bounded worker pool and collects outcomes
// through a results channel. Cancellation is honored between files.
func (r *Runner) Run(ctx context.Context, paths []string) *RunReport {
	report := &RunReport{
		RunID:      uuid.NewString(),
		StartedAt:  time.Now().UTC(),
		TotalFiles: len(paths),
	}
	start := time.Now()

	jobs := make(chan string)
	results := make(chan FileOutcome)

	var wg sync.WaitGroup
	for i := 0; i < r.opts.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Each worker owns its own parser and reconstructor.
			w := newWorker(r.logger, r.opts, r.cache)
			for path := range jobs {
				results <- w.process(ctx, path)
			}
		}()
	}

	go func() {
	feed:
		for _, path := range paths {
			if ctx.Err() != nil {
				report.Cancelled = true
				break
			}
			select {
			case <-ctx.Done():
				report.Cancelled = true
				break feed
			case jobs <- path:
			}
		}
		close(jobs)
		wg.Wait()
		close(results)
	}()

	for outcome := range results {
		report.Files = append(report.Files, outcome)
		switch {
		case outcome.Error != "":
			report.Failed++
		case outcome.Strategy == reconstruct.StrategyUnchanged || outcome.Strategy == "":
			if outcome.Validated {
				report.AlreadyValid++
			} else {
				report.StillBroken++
			}
		case outcome.Validated:
			report.Reconstructed++
		default:
			report.StillBroken++
		}

		// Registry writes happen here, on the collecting goroutine.
		if r.reg != nil && outcome.Model != nil {
			r.reg.Put(outcome.Model)
		}
	}

	report.DurationMs = time.Since(start).Milliseconds()
	return report
}

// worker holds the per-goroutine pipeline instances.
type worker struct {
	parser        *parser.StagedParser
	reconstructor *reconstruct.Reconstructor
	cache         *store.Store
	opts          Options
	logger        *slog.Logger
}

func newWorker(logger *slog.Logger, opts Options, cache *store.Store) *worker {
	return &worker{
		parser: parser.New(),
		reconstructor: reconstruct.New(logger, reconstruct.Options{
			MaxGenerations:    opts.MaxGenerations,
			HeaderWindowLines: opts.HeaderWindow,
			IndentUnit:        opts.IndentUnit,
		}),
		cache:  cache,
		opts:   opts,
		logger: logger,
	}
}

func (w *worker) process(ctx context.Context, path string) FileOutcome {
	start := time.Now()
	outcome := FileOutcome{Path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		outcome.Status = model.Unreadable
		outcome.Error = err.Error()
		outcome.DurationMs = time.Since(start).Milliseconds()
		return outcome
	}
	content := string(data)
	hash := store.ContentHash(data)

	m, hit := w.lookup(path, hash)
	if !hit {
		m = w.parser.Parse(ctx, path, content)
		w.persist(m, hash)
	}
	outcome.CacheHit = hit
	outcome.Status = m.Status
	outcome.Model = m

	if m.Status == model.FullParseOk {
		outcome.Strategy = reconstruct.StrategyUnchanged
		outcome.Validated = true
		outcome.DurationMs = time.Since(start).Milliseconds()
		return outcome
	}

	result, err := w.reconstructor.Reconstruct(ctx, path, content)
	if err != nil {
		outcome.Error = err.Error()
		outcome.DurationMs = time.Since(start).Milliseconds()
		return outcome
	}

	outcome.Strategy = result.Strategy
	outcome.Validated = result.Validated
	outcome.Status = result.FinalStatus

	if result.Validated {
		final := w.parser.Parse(ctx, path, result.Output)
		outcome.Model = final
		w.persist(final, store.ContentHash([]byte(result.Output)))

		if w.opts.WriteBack {
			if err := os.WriteFile(path, []byte(result.Output), 0644); err != nil {
				outcome.Error = err.Error()
			}
		}
	}

	outcome.DurationMs = time.Since(start).Milliseconds()
	return outcome
}

func (w *worker) lookup(path, hash string) (*model.SourceModel, bool) {
	if w.cache == nil {
		return nil, false
	}
	m, ok, err := w.cache.Get(path, hash)
	if err != nil {
		w.logger.Warn("cache lookup failed", "path", path, "error", err)
		return nil, false
	}
	return m, ok
}

func (w *worker) persist(m *model.SourceModel, hash string) {
	if w.cache == nil {
		return
	}
	if err := w.cache.Put(m, hash); err != nil {
		w.logger.Warn("cache write failed", "path", m.Path, "error", err)
	}
}
