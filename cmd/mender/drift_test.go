package main

import (
	"testing"

	"mender/internal/consistency"
	"mender/internal/model"
)

func TestCompareLabeled_DoesNotMutateModels(t *testing.T) {
	working := &model.SourceModel{
		Path:      "svc.py",
		Status:    model.FullParseOk,
		Functions: []model.FunctionInfo{{Name: "run"}},
	}
	recorded := &model.SourceModel{
		Path:      "svc.py",
		Status:    model.FullParseOk,
		Functions: []model.FunctionInfo{{Name: "run"}},
	}

	analyzer := consistency.NewAnalyzer(0.8, nil)
	report := compareLabeled(analyzer, working, recorded, "svc.py@registry")

	if report.PathB != "svc.py@registry" {
		t.Errorf("expected labeled PathB, got %q", report.PathB)
	}
	if report.PathA != "svc.py" {
		t.Errorf("expected working path, got %q", report.PathA)
	}
	// The recorded model is shared with the registry document; the
	// label must never be written back into it.
	if recorded.Path != "svc.py" {
		t.Errorf("recorded model mutated: path is %q", recorded.Path)
	}
	if working.Path != "svc.py" {
		t.Errorf("working model mutated: path is %q", working.Path)
	}
}
