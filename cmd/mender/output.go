package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"mender/internal/evolution"
	"mender/internal/model"
	"mender/internal/pipeline"
	"mender/internal/reconstruct"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatJSON  OutputFormat = "json"
	FormatYAML  OutputFormat = "yaml"
	FormatHuman OutputFormat = "human"
)

// FormatResponse formats a response according to the specified format
func FormatResponse(resp interface{}, format OutputFormat) (string, error) {
	switch format {
	case FormatJSON:
		return formatJSON(resp)
	case FormatYAML:
		return formatYAML(resp)
	case FormatHuman:
		return formatHuman(resp)
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

// printResponse formats and writes a response to stdout.
func printResponse(resp interface{}) error {
	out, err := FormatResponse(resp, OutputFormat(outputFlag))
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}

func formatJSON(resp interface{}) (string, error) {
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(data), nil
}

func formatYAML(resp interface{}) (string, error) {
	data, err := yaml.Marshal(resp)
	if err != nil {
		return "", fmt.Errorf("failed to marshal YAML: %w", err)
	}
	return strings.TrimRight(string(data), "\n"), nil
}

// formatHuman formats the response in human-readable format
func formatHuman(resp interface{}) (string, error) {
	switch v := resp.(type) {
	case *model.SourceModel:
		return formatModelHuman(v)
	case *HistoryResponse:
		return formatHistoryHuman(v)
	case *evolution.EvolutionProfile:
		return formatEvolutionHuman(v)
	case *reconstruct.Result:
		return formatReconstructHuman(v)
	case *model.ConsistencyReport:
		return formatDriftHuman(v)
	case *pipeline.RunReport:
		return formatBatchHuman(v)
	default:
		// For unknown types, fall back to JSON
		return formatJSON(resp)
	}
}

func formatModelHuman(m *model.SourceModel) (string, error) {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Parse Result: %s\n", m.Path))
	b.WriteString(strings.Repeat("=", 60) + "\n\n")

	b.WriteString(fmt.Sprintf("Status: %s\n", m.Status))
	b.WriteString(fmt.Sprintf("Lines: %d\n", m.LineCount))
	if m.StructureHash != "" {
		b.WriteString(fmt.Sprintf("Structure: %s\n", shortHash(m.StructureHash)))
	}
	b.WriteString("\n")

	if len(m.Imports) > 0 {
		b.WriteString(fmt.Sprintf("Imports (%d): %s\n", len(m.Imports), strings.Join(m.Imports, ", ")))
	}
	if len(m.Functions) > 0 {
		b.WriteString(fmt.Sprintf("Functions (%d):\n", len(m.Functions)))
		for _, f := range m.Functions {
			doc := ""
			if f.HasDocstring {
				doc = " [doc]"
			}
			b.WriteString(fmt.Sprintf("  %s(%s) line %d%s\n", f.Name, strings.Join(f.Params, ", "), f.Line, doc))
		}
	}
	if len(m.Classes) > 0 {
		b.WriteString(fmt.Sprintf("Classes (%d):\n", len(m.Classes)))
		for _, c := range m.Classes {
			b.WriteString(fmt.Sprintf("  %s line %d", c.Name, c.Line))
			if len(c.Bases) > 0 {
				b.WriteString(fmt.Sprintf(" (%s)", strings.Join(c.Bases, ", ")))
			}
			if len(c.Methods) > 0 {
				b.WriteString(fmt.Sprintf(" - %d methods", len(c.Methods)))
			}
			b.WriteString("\n")
		}
	}
	if len(m.Variables) > 0 {
		b.WriteString(fmt.Sprintf("Variables (%d): %s\n", len(m.Variables), strings.Join(m.Variables, ", ")))
	}

	b.WriteString(fmt.Sprintf("\nComplexity: cyclomatic=%d cognitive=%d nesting=%d\n",
		m.Complexity.Cyclomatic, m.Complexity.Cognitive, m.Complexity.MaxNesting))

	if len(m.Issues) > 0 {
		b.WriteString("\nIssues:\n")
		for _, issue := range m.Issues {
			b.WriteString(fmt.Sprintf("  ! %s\n", issue))
		}
	}
	if m.Diagnostic != "" {
		b.WriteString(fmt.Sprintf("\nDiagnostic: %s\n", m.Diagnostic))
	}

	return strings.TrimRight(b.String(), "\n"), nil
}

func formatHistoryHuman(resp *HistoryResponse) (string, error) {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("History: %s\n", resp.Path))
	b.WriteString(strings.Repeat("=", 60) + "\n\n")

	if !resp.Available {
		b.WriteString("No version control history available.\n")
		return strings.TrimRight(b.String(), "\n"), nil
	}

	b.WriteString(fmt.Sprintf("Generations: %d\n\n", len(resp.Revisions)))
	for _, rev := range resp.Revisions {
		valid := "✗"
		if rev.IsValid {
			valid = "✓"
		}
		b.WriteString(fmt.Sprintf("%s gen %d  %s  %s\n", valid, rev.GenerationIndex,
			shortHash(rev.RevisionID), rev.Timestamp.Format("2006-01-02 15:04")))
		if rev.Message != "" {
			b.WriteString(fmt.Sprintf("    %s\n", rev.Message))
		}
	}

	return strings.TrimRight(b.String(), "\n"), nil
}

func formatEvolutionHuman(p *evolution.EvolutionProfile) (string, error) {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Evolution: %s\n", p.Path))
	b.WriteString(strings.Repeat("=", 60) + "\n\n")

	b.WriteString(fmt.Sprintf("Generations: %d\n", p.Generations))
	b.WriteString(fmt.Sprintf("Size Trend: %s\n", p.SizeTrend))
	b.WriteString(fmt.Sprintf("Structure Trend: %s\n", p.StructureTrend))
	b.WriteString(fmt.Sprintf("Complexity Trend: %s\n", p.ComplexityTrend))
	b.WriteString(fmt.Sprintf("Stability: %.2f\n", p.StabilityScore))

	tpl := p.Template()
	b.WriteString(fmt.Sprintf("\nTemplate: gen %d (%s)\n", p.BestTemplateGeneration, shortHash(tpl.RevisionID)))

	return strings.TrimRight(b.String(), "\n"), nil
}

func formatReconstructHuman(res *reconstruct.Result) (string, error) {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Reconstruction: %s\n", res.Path))
	b.WriteString(strings.Repeat("=", 60) + "\n\n")

	icon := "✗"
	if res.Validated {
		icon = "✓"
	}
	b.WriteString(fmt.Sprintf("%s Validated: %v\n", icon, res.Validated))
	b.WriteString(fmt.Sprintf("Strategy: %s\n", res.Strategy))
	b.WriteString(fmt.Sprintf("Final Status: %s\n", res.FinalStatus))
	if res.TemplateRevision != "" {
		b.WriteString(fmt.Sprintf("Template Revision: %s\n", shortHash(res.TemplateRevision)))
	}
	if res.Generations > 0 {
		b.WriteString(fmt.Sprintf("Generations Consulted: %d\n", res.Generations))
	}

	b.WriteString("\n--- output ---\n")
	b.WriteString(res.Output)

	return strings.TrimRight(b.String(), "\n"), nil
}

func formatDriftHuman(rep *model.ConsistencyReport) (string, error) {
	var b strings.Builder

	b.WriteString("Consistency Check\n")
	b.WriteString(strings.Repeat("=", 60) + "\n\n")

	b.WriteString(fmt.Sprintf("A: %s\n", rep.PathA))
	b.WriteString(fmt.Sprintf("B: %s\n", rep.PathB))
	b.WriteString(fmt.Sprintf("Structural Similarity: %.2f\n", rep.Similarity))
	if rep.DomainMatch != "" {
		b.WriteString(fmt.Sprintf("Domain: %s\n", rep.DomainMatch))
	}

	if len(rep.Recommendations) > 0 {
		b.WriteString("\nRecommendations:\n")
		for _, r := range rep.Recommendations {
			b.WriteString(fmt.Sprintf("  - %s\n", r))
		}
	}

	return strings.TrimRight(b.String(), "\n"), nil
}

func formatBatchHuman(rep *pipeline.RunReport) (string, error) {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Batch Run %s\n", rep.RunID))
	b.WriteString(strings.Repeat("=", 60) + "\n\n")

	b.WriteString(fmt.Sprintf("Files: %d (took %dms)\n", rep.TotalFiles, rep.DurationMs))
	b.WriteString(fmt.Sprintf("  Already valid: %d\n", rep.AlreadyValid))
	b.WriteString(fmt.Sprintf("  Reconstructed: %d\n", rep.Reconstructed))
	b.WriteString(fmt.Sprintf("  Still broken:  %d\n", rep.StillBroken))
	b.WriteString(fmt.Sprintf("  Failed:        %d\n", rep.Failed))
	if rep.Cancelled {
		b.WriteString("  Run cancelled before completion.\n")
	}
	b.WriteString("\n")

	for _, f := range rep.Files {
		icon := "✗"
		if f.Validated {
			icon = "✓"
		}
		line := fmt.Sprintf("%s %s [%s]", icon, f.Path, f.Status)
		if f.Strategy != "" && f.Strategy != reconstruct.StrategyUnchanged {
			line += fmt.Sprintf(" via %s", f.Strategy)
		}
		if f.CacheHit {
			line += " (cached)"
		}
		if f.Error != "" {
			line += fmt.Sprintf(" error: %s", f.Error)
		}
		b.WriteString(line + "\n")
	}

	return strings.TrimRight(b.String(), "\n"), nil
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
