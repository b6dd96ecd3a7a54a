package evolution

import (
	"testing"

	"mender/internal/history"
	"mender/internal/model"
)

func revision(gen int, status model.ParseStatus, lines int, functions ...string) history.RevisionRecord {
	m := &model.SourceModel{
		Path:      "svc.py",
		Status:    status,
		LineCount: lines,
	}
	for _, name := range functions {
		m.Functions = append(m.Functions, model.FunctionInfo{Name: name})
	}
	m.Complexity = model.Complexity{Cyclomatic: 1 + len(functions)}
	return history.RevisionRecord{
		RevisionID:      "rev",
		GenerationIndex: gen,
		IsValid:         status == model.FullParseOk,
		Model:           m,
	}
}

func TestAnalyze_RequiresRevisions(t *testing.T) {
	if _, err := Analyze(nil); err == nil {
		t.Error("expected error for empty history")
	}
}

func TestAnalyze_SingleGeneration(t *testing.T) {
	profile, err := Analyze([]history.RevisionRecord{
		revision(0, model.FullParseOk, 10, "f"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if profile.Generations != 1 {
		t.Errorf("expected 1 generation, got %d", profile.Generations)
	}
	if profile.SizeTrend != Stable || profile.StructureTrend != Stable || profile.ComplexityTrend != Stable {
		t.Error("single-generation trends must be stable")
	}
	if profile.StabilityScore != 1.0 {
		t.Errorf("single generation stability must be 1.0, got %f", profile.StabilityScore)
	}
	if profile.BestTemplateGeneration != 0 {
		t.Errorf("expected template generation 0, got %d", profile.BestTemplateGeneration)
	}
}

func TestAnalyze_Trends(t *testing.T) {
	// Generation 0 is newest; the file grew from 10 to 30 lines and
	// gained functions.
	revisions := []history.RevisionRecord{
		revision(0, model.FullParseOk, 30, "f", "g", "h"),
		revision(1, model.FullParseOk, 20, "f", "g"),
		revision(2, model.FullParseOk, 10, "f"),
	}

	profile, err := Analyze(revisions)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if profile.SizeTrend != Increasing {
		t.Errorf("expected increasing size, got %s", profile.SizeTrend)
	}
	if profile.StructureTrend != Increasing {
		t.Errorf("expected increasing structure, got %s", profile.StructureTrend)
	}
	if profile.ComplexityTrend != Increasing {
		t.Errorf("expected increasing complexity, got %s", profile.ComplexityTrend)
	}
}

func TestAnalyze_StabilityScore(t *testing.T) {
	identical := []history.RevisionRecord{
		revision(0, model.FullParseOk, 10, "f", "g"),
		revision(1, model.FullParseOk, 10, "f", "g"),
		revision(2, model.FullParseOk, 10, "f", "g"),
	}
	profile, err := Analyze(identical)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if profile.StabilityScore != 1.0 {
		t.Errorf("identical generations must score 1.0, got %f", profile.StabilityScore)
	}

	churning := []history.RevisionRecord{
		revision(0, model.FullParseOk, 10, "a"),
		revision(1, model.FullParseOk, 10, "b"),
	}
	profile, err = Analyze(churning)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if profile.StabilityScore != 0.0 {
		t.Errorf("disjoint generations must score 0.0, got %f", profile.StabilityScore)
	}
}

func TestAnalyze_TemplatePrefersMostRecentValid(t *testing.T) {
	revisions := []history.RevisionRecord{
		revision(0, model.TokenFallback, 10, "f"),
		revision(1, model.FullParseOk, 10, "f"),
		revision(2, model.FullParseOk, 10, "f"),
	}

	profile, err := Analyze(revisions)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if profile.BestTemplateGeneration != 1 {
		t.Errorf("expected generation 1 as template, got %d", profile.BestTemplateGeneration)
	}
	if profile.Template().GenerationIndex != 1 {
		t.Errorf("Template() disagrees with BestTemplateGeneration")
	}
}

func TestAnalyze_NoValidGenerationFallsBackToNewest(t *testing.T) {
	revisions := []history.RevisionRecord{
		revision(0, model.PatternFallback, 10, "f"),
		revision(1, model.TokenFallback, 10, "f"),
	}

	profile, err := Analyze(revisions)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if profile.BestTemplateGeneration != 0 {
		t.Errorf("expected fallback to generation 0, got %d", profile.BestTemplateGeneration)
	}
}
