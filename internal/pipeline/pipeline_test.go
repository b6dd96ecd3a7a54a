package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"mender/internal/model"
	"mender/internal/reconstruct"
	"mender/internal/registry"
	"mender/internal/slogutil"
	"mender/internal/store"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRun_MixedBatch(t *testing.T) {
	dir := t.TempDir()
	valid := writeFile(t, dir, "valid.py", "def f():\n    return 1\n")
	fixable := writeFile(t, dir, "fixable.py", "def g(x)\n    return x\n")
	missing := filepath.Join(dir, "missing.py")

	runner := NewRunner(slogutil.NewDiscardLogger(), Options{Workers: 2}, nil, nil)
	report := runner.Run(context.Background(), []string{valid, fixable, missing})

	if report.RunID == "" {
		t.Error("expected a run id")
	}
	if report.TotalFiles != 3 || len(report.Files) != 3 {
		t.Fatalf("expected 3 outcomes, got %d/%d", report.TotalFiles, len(report.Files))
	}
	if report.AlreadyValid != 1 {
		t.Errorf("expected 1 already-valid file, got %d", report.AlreadyValid)
	}
	if report.Reconstructed != 1 {
		t.Errorf("expected 1 reconstructed file, got %d", report.Reconstructed)
	}
	if report.Failed != 1 {
		t.Errorf("expected 1 failed file, got %d", report.Failed)
	}

	outcomes := make(map[string]FileOutcome, len(report.Files))
	for _, f := range report.Files {
		outcomes[f.Path] = f
	}

	if o := outcomes[valid]; !o.Validated || o.Strategy != reconstruct.StrategyUnchanged {
		t.Errorf("unexpected outcome for valid file: %+v", o)
	}
	if o := outcomes[fixable]; !o.Validated || o.Strategy != reconstruct.StrategyHeuristic {
		t.Errorf("unexpected outcome for fixable file: %+v", o)
	}
	if o := outcomes[missing]; o.Error == "" || o.Status != model.Unreadable {
		t.Errorf("unexpected outcome for missing file: %+v", o)
	}

	// Write-back was not requested; the broken file stays broken on disk.
	data, err := os.ReadFile(fixable)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "def g(x)\n    return x\n" {
		t.Error("file must not be rewritten without write-back")
	}
}

func TestRun_WriteBack(t *testing.T) {
	dir := t.TempDir()
	fixable := writeFile(t, dir, "fixable.py", "def g(x)\n    return x\n")

	runner := NewRunner(slogutil.NewDiscardLogger(), Options{Workers: 1, WriteBack: true}, nil, nil)
	report := runner.Run(context.Background(), []string{fixable})

	if report.Reconstructed != 1 {
		t.Fatalf("expected reconstruction, got %+v", report)
	}
	data, err := os.ReadFile(fixable)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "def g(x):\n    return x\n" {
		t.Errorf("expected repaired content on disk, got %q", string(data))
	}
}

func TestRun_CacheSkipsUnchangedFiles(t *testing.T) {
	dir := t.TempDir()
	valid := writeFile(t, dir, "valid.py", "def f():\n    return 1\n")

	logger := slogutil.NewDiscardLogger()
	cache, err := store.Open(filepath.Join(dir, "models.db"), logger)
	if err != nil {
		t.Fatalf("cache open failed: %v", err)
	}
	defer cache.Close()

	runner := NewRunner(logger, Options{Workers: 1}, cache, nil)

	first := runner.Run(context.Background(), []string{valid})
	if first.Files[0].CacheHit {
		t.Error("first run must be a cache miss")
	}

	second := runner.Run(context.Background(), []string{valid})
	if !second.Files[0].CacheHit {
		t.Error("second run over unchanged content must hit the cache")
	}

	// Content change invalidates the entry.
	writeFile(t, dir, "valid.py", "def f():\n    return 2\n")
	third := runner.Run(context.Background(), []string{valid})
	if third.Files[0].CacheHit {
		t.Error("changed content must miss the cache")
	}
}

func TestRun_RecordsModelsInRegistry(t *testing.T) {
	dir := t.TempDir()
	valid := writeFile(t, dir, "valid.py", "def f():\n    return 1\n")

	reg, err := registry.Open(filepath.Join(dir, "registry.json"))
	if err != nil {
		t.Fatalf("registry open failed: %v", err)
	}

	runner := NewRunner(slogutil.NewDiscardLogger(), Options{Workers: 1}, nil, reg)
	runner.Run(context.Background(), []string{valid})

	m, ok := reg.Get(valid)
	if !ok {
		t.Fatal("expected model recorded in registry")
	}
	if m.Status != model.FullParseOk {
		t.Errorf("unexpected registered status: %s", m.Status)
	}
}

func TestRun_Cancellation(t *testing.T) {
	dir := t.TempDir()
	valid := writeFile(t, dir, "valid.py", "def f():\n    return 1\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := NewRunner(slogutil.NewDiscardLogger(), Options{Workers: 1}, nil, nil)
	report := runner.Run(ctx, []string{valid, valid, valid})

	if !report.Cancelled {
		t.Error("expected cancelled report")
	}
	if len(report.Files) != 0 {
		t.Errorf("no files should be processed after cancellation, got %d", len(report.Files))
	}
}
