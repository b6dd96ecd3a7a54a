package parser

import (
	"context"
	"strings"
	"testing"

	"mender/internal/model"
)

func TestParse_ValidSource(t *testing.T) {
	source := `import os
from collections import OrderedDict

MAX_RETRIES = 3


def greet(name, count=1):
    """Say hello."""
    for _ in range(count):
        print(name)


@lru_cache
def helper(x):
    return x * 2


class Runner(Base):
    def run(self):
        if self.ready and self.active:
            return True
        return False
`

	p := New()
	m := p.Parse(context.Background(), "runner.py", source)

	if m.Status != model.FullParseOk {
		t.Fatalf("expected full parse, got %s (diagnostic: %s)", m.Status, m.Diagnostic)
	}
	if m.Path != "runner.py" {
		t.Errorf("expected path runner.py, got %s", m.Path)
	}
	if m.LineCount != 22 {
		t.Errorf("expected 22 lines, got %d", m.LineCount)
	}
	if m.StructureHash == "" {
		t.Error("expected non-empty structure hash")
	}

	if len(m.Imports) != 2 || m.Imports[0] != "os" || m.Imports[1] != "collections" {
		t.Errorf("unexpected imports: %v", m.Imports)
	}
	if len(m.Variables) != 1 || m.Variables[0] != "MAX_RETRIES" {
		t.Errorf("unexpected variables: %v", m.Variables)
	}

	if len(m.Functions) != 2 {
		t.Fatalf("expected 2 functions, got %d", len(m.Functions))
	}
	greet := m.Functions[0]
	if greet.Name != "greet" || greet.Line != 7 {
		t.Errorf("unexpected first function: %+v", greet)
	}
	if len(greet.Params) != 2 || greet.Params[0] != "name" || greet.Params[1] != "count" {
		t.Errorf("unexpected greet params: %v", greet.Params)
	}
	if !greet.HasDocstring {
		t.Error("greet should have a docstring")
	}
	helper := m.Functions[1]
	if helper.Name != "helper" || helper.Line != 14 {
		t.Errorf("unexpected second function: %+v", helper)
	}
	if len(helper.Decorators) != 1 || helper.Decorators[0] != "lru_cache" {
		t.Errorf("unexpected helper decorators: %v", helper.Decorators)
	}
	if helper.HasDocstring {
		t.Error("helper should not have a docstring")
	}

	if len(m.Classes) != 1 {
		t.Fatalf("expected 1 class, got %d", len(m.Classes))
	}
	runner := m.Classes[0]
	if runner.Name != "Runner" || runner.Line != 18 {
		t.Errorf("unexpected class: %+v", runner)
	}
	if len(runner.Bases) != 1 || runner.Bases[0] != "Base" {
		t.Errorf("unexpected bases: %v", runner.Bases)
	}
	if len(runner.Methods) != 1 || runner.Methods[0] != "run" {
		t.Errorf("unexpected methods: %v", runner.Methods)
	}

	// for + if = 2 branches; one boolean operator.
	if m.Complexity.Cyclomatic != 3 {
		t.Errorf("expected cyclomatic 3, got %d", m.Complexity.Cyclomatic)
	}
	if m.Complexity.Cognitive != 3 {
		t.Errorf("expected cognitive 3, got %d", m.Complexity.Cognitive)
	}
	// class > method > if is the deepest chain.
	if m.Complexity.MaxNesting != 3 {
		t.Errorf("expected max nesting 3, got %d", m.Complexity.MaxNesting)
	}
}

func TestParse_BrokenSyntaxFallsBackToTokens(t *testing.T) {
	source := "import sys\n\ndef broken(x\n    return x and y\n"

	p := New()
	m := p.Parse(context.Background(), "broken.py", source)

	if m.Status != model.TokenFallback {
		t.Fatalf("expected token fallback, got %s", m.Status)
	}
	if len(m.Imports) != 1 || m.Imports[0] != "sys" {
		t.Errorf("unexpected imports: %v", m.Imports)
	}
	if len(m.Functions) != 1 {
		t.Fatalf("expected 1 function, got %d", len(m.Functions))
	}
	f := m.Functions[0]
	if f.Name != "broken" || f.Line != 3 {
		t.Errorf("unexpected function: %+v", f)
	}
	// Parameter lists are unrecoverable at the token level.
	if len(f.Params) != 1 || f.Params[0] != "unknown" {
		t.Errorf("expected unknown params, got %v", f.Params)
	}
	// No branch keywords; one boolean operator.
	if m.Complexity.Cyclomatic != 1 || m.Complexity.Cognitive != 1 {
		t.Errorf("unexpected complexity: %+v", m.Complexity)
	}
}

func TestParse_UnterminatedStringFallsBackToPatterns(t *testing.T) {
	source := "title = \"unterminated\ndef show():\n    print(title)\n"

	p := New()
	m := p.Parse(context.Background(), "show.py", source)

	if m.Status != model.PatternFallback {
		t.Fatalf("expected pattern fallback, got %s", m.Status)
	}
	if len(m.Functions) != 1 || m.Functions[0].Name != "show" {
		t.Errorf("unexpected functions: %+v", m.Functions)
	}
}

func TestPatternStage_FlagsIssues(t *testing.T) {
	source := "def f(x):\nprint(x)\nif x > 0\n    print(\"pos\")\n"

	s := newPatternStage()
	m, ok := s.parse(context.Background(), source)
	if !ok {
		t.Fatal("pattern stage must accept any text")
	}

	if len(m.Issues) != 2 {
		t.Fatalf("expected 2 issues, got %v", m.Issues)
	}
	if !strings.Contains(m.Issues[0], "indentation error at line 2") {
		t.Errorf("unexpected first issue: %s", m.Issues[0])
	}
	if !strings.Contains(m.Issues[1], "missing colon at line 3") {
		t.Errorf("unexpected second issue: %s", m.Issues[1])
	}
	// The bare if counts as a branch even without a colon.
	if m.Complexity.Cyclomatic != 2 {
		t.Errorf("expected cyclomatic 2, got %d", m.Complexity.Cyclomatic)
	}
}

func TestParse_InvalidUTF8(t *testing.T) {
	p := New()
	m := p.Parse(context.Background(), "bad.py", string([]byte{0xff, 0xfe, 0x00}))

	if m.Status != model.Unreadable {
		t.Fatalf("expected unreadable, got %s", m.Status)
	}
	if m.Diagnostic == "" {
		t.Error("expected a diagnostic for invalid encoding")
	}
}

func TestParseFile_MissingFile(t *testing.T) {
	p := New()
	m := p.ParseFile(context.Background(), "/nonexistent/missing.py")

	if m.Status != model.Unreadable {
		t.Fatalf("expected unreadable, got %s", m.Status)
	}
	if m.Diagnostic == "" {
		t.Error("expected a diagnostic for the read failure")
	}
}

func TestParse_EmptyContent(t *testing.T) {
	p := New()
	m := p.Parse(context.Background(), "empty.py", "")

	if m.Status != model.FullParseOk {
		t.Fatalf("expected full parse of empty file, got %s", m.Status)
	}
	if m.LineCount != 0 {
		t.Errorf("expected 0 lines, got %d", m.LineCount)
	}
	if len(m.Functions) != 0 || len(m.Classes) != 0 {
		t.Errorf("expected empty model, got %+v", m)
	}
}

func TestProbeValid(t *testing.T) {
	p := New()
	if !p.ProbeValid(context.Background(), "x = 1\n") {
		t.Error("valid source should probe true")
	}
	if p.ProbeValid(context.Background(), "def f(:\n") {
		t.Error("broken source should probe false")
	}
	if p.ProbeValid(context.Background(), string([]byte{0xff})) {
		t.Error("invalid encoding should probe false")
	}
}

func TestStructureHash_IgnoresFormatting(t *testing.T) {
	p := New()
	a := p.Parse(context.Background(), "a.py", "def f():\n    return 1\n")
	b := p.Parse(context.Background(), "b.py", "def f():\n\n\n    return  1\n")

	if a.StructureHash != b.StructureHash {
		t.Error("formatting-only differences must not change the structure hash")
	}

	c := p.Parse(context.Background(), "c.py", "def g():\n    return 1\n")
	if a.StructureHash == c.StructureHash {
		t.Error("renamed entities must change the structure hash")
	}
}

func TestCountLines(t *testing.T) {
	cases := []struct {
		content string
		want    int
	}{
		{"", 0},
		{"x = 1", 1},
		{"x = 1\n", 1},
		{"x = 1\ny = 2\n", 2},
	}
	for _, tc := range cases {
		if got := countLines(tc.content); got != tc.want {
			t.Errorf("countLines(%q) = %d, want %d", tc.content, got, tc.want)
		}
	}
}
