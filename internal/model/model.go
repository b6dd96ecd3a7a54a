// Package model defines the shared data types produced and consumed by the
// recovery pipeline: parsed source models, revision records, evolution
// profiles, and extracted node records.
package model

import (
	"encoding/hex"
	"sort"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// ParseStatus indicates which parser stage produced a SourceModel.
type ParseStatus string

const (
	// FullParseOk means the full structural parse succeeded.
	FullParseOk ParseStatus = "full_parse"
	// TokenFallback means the lexical-token stage recovered the model.
	TokenFallback ParseStatus = "token_fallback"
	// PatternFallback means only line-pattern matching was possible.
	PatternFallback ParseStatus = "pattern_fallback"
	// Unreadable means the file could not be read or decoded at all.
	Unreadable ParseStatus = "unreadable"
)

// FunctionInfo describes a single function or method discovered in a file.
type FunctionInfo struct {
	Name         string   `json:"name"`
	Line         int      `json:"line"`
	Params       []string `json:"params"`
	Decorators   []string `json:"decorators,omitempty"`
	HasDocstring bool     `json:"hasDocstring"`
}

// ClassInfo describes a class and the methods defined inside it.
type ClassInfo struct {
	Name    string   `json:"name"`
	Line    int      `json:"line"`
	Bases   []string `json:"bases,omitempty"`
	Methods []string `json:"methods,omitempty"`
}

// Complexity holds file-level complexity counters.
type Complexity struct {
	Cyclomatic int `json:"cyclomatic"`
	Cognitive  int `json:"cognitive"`
	MaxNesting int `json:"maxNesting"`
}

// SourceModel is the structured interpretation of one source file.
// A model is created fresh on every parse attempt and never mutated
// after the parser returns it.
type SourceModel struct {
	Path          string         `json:"path"`
	Status        ParseStatus    `json:"parseStatus"`
	Imports       []string       `json:"imports"`
	Functions     []FunctionInfo `json:"functions"`
	Classes       []ClassInfo    `json:"classes"`
	Variables     []string       `json:"variables"`
	Complexity    Complexity     `json:"complexity"`
	LineCount     int            `json:"lineCount"`
	StructureHash string         `json:"structureHash"`
	Issues        []string       `json:"issues,omitempty"`
	Diagnostic    string         `json:"diagnostic,omitempty"`
}

// FunctionNames returns the set of function names in the model.
func (m *SourceModel) FunctionNames() map[string]bool {
	names := make(map[string]bool, len(m.Functions))
	for _, f := range m.Functions {
		names[f.Name] = true
	}
	return names
}

// ClassNames returns the set of class names in the model.
func (m *SourceModel) ClassNames() map[string]bool {
	names := make(map[string]bool, len(m.Classes))
	for _, c := range m.Classes {
		names[c.Name] = true
	}
	return names
}

// NamedEntityCount returns the number of named functions plus classes.
func (m *SourceModel) NamedEntityCount() int {
	return len(m.Functions) + len(m.Classes)
}

// ComputeStructureHash digests the sorted (kind, name) entity list so
// that formatting-only edits produce the same hash.
func ComputeStructureHash(m *SourceModel) string {
	entries := make([]string, 0, len(m.Imports)+len(m.Functions)+len(m.Classes))
	for _, imp := range m.Imports {
		entries = append(entries, "import:"+imp)
	}
	for _, f := range m.Functions {
		entries = append(entries, "function:"+f.Name)
	}
	for _, c := range m.Classes {
		entries = append(entries, "class:"+c.Name)
	}
	sort.Strings(entries)

	sum := blake2b.Sum256([]byte(strings.Join(entries, "\n")))
	return hex.EncodeToString(sum[:])
}

// ConsistencyReport describes structural drift between two models.
// Reports are produced on demand and are advisory only.
type ConsistencyReport struct {
	PathA           string   `json:"pathA"`
	PathB           string   `json:"pathB"`
	Similarity      float64  `json:"structuralSimilarity"`
	Recommendations []string `json:"recommendations,omitempty"`
	DomainMatch     string   `json:"domainMatch,omitempty"`
}
