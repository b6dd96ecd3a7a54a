package reconstruct

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"mender/internal/model"
	"mender/internal/slogutil"
)

func TestHeuristicRepair_InsertsMissingColon(t *testing.T) {
	got := heuristicRepair("def f(x)\n    return x\n", "    ")
	want := "def f(x):\n    return x\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestHeuristicRepair_NormalizesIndentation(t *testing.T) {
	got := heuristicRepair("def f():\nreturn 1\n", "    ")
	want := "def f():\n    return 1\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestHeuristicRepair_AddsSubprocessCheck(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{
			`result = subprocess.run(["ls", "-l"])`,
			`result = subprocess.run(["ls", "-l"], check=True)`,
		},
		{
			`subprocess.run()`,
			`subprocess.run(check=True)`,
		},
		{
			`subprocess.run(cmd, check=False)`,
			`subprocess.run(cmd, check=False)`,
		},
	}
	for _, tc := range cases {
		if got := heuristicRepair(tc.in, "    "); got != tc.want {
			t.Errorf("heuristicRepair(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func templateModel() *model.SourceModel {
	return &model.SourceModel{
		Path:    "svc.py",
		Status:  model.FullParseOk,
		Imports: []string{"os"},
		Functions: []model.FunctionInfo{
			{Name: "f", Params: []string{"x", "y"}},
		},
		Classes: []model.ClassInfo{
			{Name: "C", Bases: []string{"Base"}, Methods: []string{"m"}},
		},
	}
}

func TestMergeWithTemplate_RebuildsDefHeader(t *testing.T) {
	got := mergeWithTemplate("def f(xx\n", templateModel(), "    ")
	want := "def f(x, y):\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestMergeWithTemplate_RebuildsClassHeader(t *testing.T) {
	got := mergeWithTemplate("class C\n", templateModel(), "    ")
	want := "class C(Base):\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestMergeWithTemplate_ImportHandling(t *testing.T) {
	// The template knows os; the unknown from-import collapses to its
	// canonical safe form.
	content := "import os\nfrom weird import thing\n"
	got := mergeWithTemplate(content, templateModel(), "    ")
	want := "import os\nimport weird\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestMergeWithTemplate_IndentsBodyUnderHeader(t *testing.T) {
	// g is not in the template; its header keeps the colon and the
	// unindented statement moves into its body.
	got := mergeWithTemplate("def g():\nprint(1)\n", templateModel(), "    ")
	want := "def g():\n    print(1)\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestReconstruct_ValidInputPassesThrough(t *testing.T) {
	r := New(slogutil.NewDiscardLogger(), Options{})
	content := "def f():\n    return 1\n"

	res, err := r.Reconstruct(context.Background(), "ok.py", content)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Strategy != StrategyUnchanged {
		t.Errorf("expected unchanged strategy, got %s", res.Strategy)
	}
	if !res.Validated || res.FinalStatus != model.FullParseOk {
		t.Errorf("expected validated full parse, got %+v", res)
	}
	if res.Output != content {
		t.Error("valid input must pass through byte-identical")
	}
}

func TestReconstruct_HeuristicWithoutHistory(t *testing.T) {
	// A file outside any repository has no history; the heuristic pass
	// must still fix the missing colon.
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.py")
	content := "def f(x)\n    return x\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	r := New(slogutil.NewDiscardLogger(), Options{})
	res, err := r.ReconstructFile(context.Background(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Strategy != StrategyHeuristic {
		t.Errorf("expected heuristic strategy, got %s", res.Strategy)
	}
	if !res.Validated || res.FinalStatus != model.FullParseOk {
		t.Errorf("expected validated result, got validated=%v status=%s", res.Validated, res.FinalStatus)
	}
	if res.Output != "def f(x):\n    return x\n" {
		t.Errorf("unexpected output: %q", res.Output)
	}
}

func TestReconstruct_UnreadableInputFails(t *testing.T) {
	r := New(slogutil.NewDiscardLogger(), Options{})
	if _, err := r.Reconstruct(context.Background(), "bad.py", string([]byte{0xff, 0xfe})); err == nil {
		t.Error("undecodable input must fail reconstruction")
	}
}

func TestReconstructFile_MissingFile(t *testing.T) {
	r := New(slogutil.NewDiscardLogger(), Options{})
	if _, err := r.ReconstructFile(context.Background(), "/nonexistent/x.py"); err == nil {
		t.Error("missing file must fail reconstruction")
	}
}
