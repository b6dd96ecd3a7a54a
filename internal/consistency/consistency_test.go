package consistency

import (
	"os"
	"path/filepath"
	"testing"

	"mender/internal/model"
)

func modelWith(path string, functions []string, classes []string) *model.SourceModel {
	m := &model.SourceModel{Path: path, Status: model.FullParseOk}
	for _, name := range functions {
		m.Functions = append(m.Functions, model.FunctionInfo{Name: name})
	}
	for _, name := range classes {
		m.Classes = append(m.Classes, model.ClassInfo{Name: name})
	}
	return m
}

func TestSimilarity_IdenticalModels(t *testing.T) {
	a := modelWith("a.py", []string{"f", "g"}, []string{"C"})
	if got := Similarity(a, a); got != 1.0 {
		t.Errorf("a model compared with itself must score 1.0, got %f", got)
	}

	b := modelWith("b.py", []string{"f", "g"}, []string{"C"})
	if got := Similarity(a, b); got != 1.0 {
		t.Errorf("identical name sets must score 1.0, got %f", got)
	}
}

func TestSimilarity_Symmetric(t *testing.T) {
	a := modelWith("a.py", []string{"f", "g"}, nil)
	b := modelWith("b.py", []string{"f", "g", "h"}, nil)

	if Similarity(a, b) != Similarity(b, a) {
		t.Error("similarity must be symmetric")
	}
}

func TestSimilarity_PartialOverlap(t *testing.T) {
	a := modelWith("a.py", []string{"f", "g"}, nil)
	b := modelWith("b.py", []string{"f", "g", "h"}, nil)

	// 2 shared names over 5 total entities.
	if got := Similarity(a, b); got != 0.4 {
		t.Errorf("expected 0.4, got %f", got)
	}
}

func TestSimilarity_Disjoint(t *testing.T) {
	a := modelWith("a.py", []string{"f"}, nil)
	b := modelWith("b.py", []string{"g"}, nil)

	if got := Similarity(a, b); got != 0.0 {
		t.Errorf("expected 0.0, got %f", got)
	}
}

func TestSimilarity_BothEmpty(t *testing.T) {
	a := modelWith("a.py", nil, nil)
	b := modelWith("b.py", nil, nil)

	if got := Similarity(a, b); got != 1.0 {
		t.Errorf("two entity-free models must score 1.0, got %f", got)
	}
}

func TestCompare_FlagsDrift(t *testing.T) {
	analyzer := NewAnalyzer(0.8, nil)
	a := modelWith("a.py", []string{"f", "g"}, nil)
	b := modelWith("b.py", []string{"f", "g", "h"}, nil)

	report := analyzer.Compare(a, b)
	if report.Similarity != 0.4 {
		t.Errorf("expected similarity 0.4, got %f", report.Similarity)
	}
	if len(report.Recommendations) != 1 {
		t.Fatalf("expected drift recommendation, got %v", report.Recommendations)
	}
}

func TestCompare_FlagsDegradedStatus(t *testing.T) {
	analyzer := NewAnalyzer(0.8, nil)
	a := modelWith("a.py", []string{"f"}, nil)
	a.Status = model.TokenFallback
	b := modelWith("b.py", []string{"f"}, nil)

	report := analyzer.Compare(a, b)
	if report.Similarity != 1.0 {
		t.Errorf("expected similarity 1.0, got %f", report.Similarity)
	}
	if len(report.Recommendations) != 1 {
		t.Fatalf("expected re-validate recommendation, got %v", report.Recommendations)
	}
}

func TestLoadDomains_MissingFileIsOptional(t *testing.T) {
	manifest, err := LoadDomains(filepath.Join(t.TempDir(), "DOMAINS.toml"))
	if err != nil {
		t.Fatalf("missing manifest must not error: %v", err)
	}
	if manifest != nil {
		t.Error("missing manifest must load as nil")
	}
}

func TestDomainManifest_Match(t *testing.T) {
	path := filepath.Join(t.TempDir(), "DOMAINS.toml")
	content := `[domains.billing]
patterns = ["invoice_*.py", "billing/"]
description = "billing pipeline"

[domains.auth]
patterns = ["auth_*.py"]
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	manifest, err := LoadDomains(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if manifest == nil {
		t.Fatal("expected manifest")
	}

	cases := []struct {
		path   string
		domain string
		ok     bool
	}{
		{"src/invoice_gen.py", "billing", true},
		{"billing/models.py", "billing", true},
		{"auth_token.py", "auth", true},
		{"src/other.py", "", false},
	}
	for _, tc := range cases {
		domain, ok := manifest.Match(tc.path)
		if ok != tc.ok || domain != tc.domain {
			t.Errorf("Match(%q) = (%q, %v), want (%q, %v)", tc.path, domain, ok, tc.domain, tc.ok)
		}
	}

	analyzer := NewAnalyzer(0.8, manifest)
	report := analyzer.Compare(modelWith("billing/models.py", nil, nil), modelWith("x", nil, nil))
	if report.DomainMatch != "billing" {
		t.Errorf("expected domain match billing, got %q", report.DomainMatch)
	}
}
