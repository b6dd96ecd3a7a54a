// Package parser turns raw source text into a SourceModel through a
// graded fallback chain: full tree-sitter parse, lexical token scan,
// then line-pattern matching. The parser never fails outward; a worse
// stage only degrades the parse status of the returned model.
package parser

import (
	"context"
	"os"
	"unicode/utf8"

	"mender/internal/model"
)

// stage is one level of the fallback chain. ok=false means the stage
// could not interpret the content and the next stage should run.
type stage interface {
	status() model.ParseStatus
	parse(ctx context.Context, content string) (*model.SourceModel, bool)
}

// StagedParser parses source files with graded fallback.
type StagedParser struct {
	stages []stage
}

// New creates a StagedParser with the full fallback chain.
func New() *StagedParser {
	return &StagedParser{
		stages: []stage{
			newFullParseStage(),
			newTokenStage(),
			newPatternStage(),
		},
	}
}

// Parse produces a SourceModel for content. The pattern stage accepts
// any text, so a model is always returned; only its status varies.
func (p *StagedParser) Parse(ctx context.Context, path, content string) *model.SourceModel {
	if !utf8.ValidString(content) {
		return unreadableModel(path, "content is not valid UTF-8")
	}

	for _, s := range p.stages {
		if m, ok := s.parse(ctx, content); ok {
			m.Path = path
			m.Status = s.status()
			m.LineCount = countLines(content)
			m.StructureHash = model.ComputeStructureHash(m)
			return m
		}
	}

	// Unreachable: the pattern stage never declines.
	return unreadableModel(path, "no parser stage accepted the content")
}

// ParseFile reads path and parses its content. Read and decode failures
// produce an Unreadable model with the error preserved as a diagnostic,
// never an error return.
func (p *StagedParser) ParseFile(ctx context.Context, path string) *model.SourceModel {
	data, err := os.ReadFile(path)
	if err != nil {
		return unreadableModel(path, err.Error())
	}
	return p.Parse(ctx, path, string(data))
}

// ProbeValid reports whether content passes the full-parse stage.
// Used as the validity probe when tagging historical revisions.
func (p *StagedParser) ProbeValid(ctx context.Context, content string) bool {
	if !utf8.ValidString(content) {
		return false
	}
	_, ok := p.stages[0].parse(ctx, content)
	return ok
}

func unreadableModel(path, diagnostic string) *model.SourceModel {
	return &model.SourceModel{
		Path:       path,
		Status:     model.Unreadable,
		Imports:    []string{},
		Functions:  []model.FunctionInfo{},
		Classes:    []model.ClassInfo{},
		Variables:  []string{},
		Diagnostic: diagnostic,
	}
}

func countLines(content string) int {
	if content == "" {
		return 0
	}
	n := 1
	for _, r := range content {
		if r == '\n' {
			n++
		}
	}
	if len(content) > 0 && content[len(content)-1] == '\n' {
		n--
	}
	return n
}
