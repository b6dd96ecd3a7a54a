package extract

import (
	"sort"
	"strings"

	"mender/internal/model"
)

// Project re-assembles arena records into source text in four fixed
// groups, each internally ordered by OrderKey: imports, constants,
// classes (each immediately followed by its methods), then standalone
// functions. Every record is emitted exactly once no matter how many
// traversal passes observed it; that property is what keeps projected
// output free of duplicated functions.
func Project(arena *Arena) string {
	records := arena.Records()
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].OrderKey < records[j].OrderKey
	})

	var imports, constants []model.NodeRecord
	var classes []model.NodeRecord
	members := make(map[int][]model.NodeRecord)
	var functions []model.NodeRecord

	for _, rec := range records {
		switch rec.Kind {
		case model.KindImport:
			imports = append(imports, rec)
		case model.KindConstant:
			constants = append(constants, rec)
		case model.KindClass:
			// A class owned by another class renders inside its owner's
			// block, interleaved with the owner's methods.
			if rec.EnclosingScope != model.ModuleScope {
				members[rec.EnclosingScope] = append(members[rec.EnclosingScope], rec)
				continue
			}
			classes = append(classes, rec)
		case model.KindMethod:
			members[rec.EnclosingScope] = append(members[rec.EnclosingScope], rec)
		case model.KindFunction:
			functions = append(functions, rec)
		}
	}

	var sections []string

	if len(imports) > 0 {
		seen := make(map[string]bool)
		var lines []string
		for _, rec := range imports {
			// Imports dedup by exact rendered text.
			if seen[rec.ContentText] {
				continue
			}
			seen[rec.ContentText] = true
			lines = append(lines, rec.ContentText)
		}
		sections = append(sections, strings.Join(lines, "\n"))
	}

	if len(constants) > 0 {
		var lines []string
		for _, rec := range constants {
			lines = append(lines, rec.ContentText)
		}
		sections = append(sections, strings.Join(lines, "\n"))
	}

	for _, cls := range classes {
		sections = append(sections, renderClass(cls, members))
	}

	for _, fn := range functions {
		sections = append(sections, fn.ContentText)
	}

	if len(sections) == 0 {
		return ""
	}
	return strings.Join(sections, "\n\n\n") + "\n"
}

// renderClass emits a class header followed by its members: methods
// and nested classes in their original order. A class with no captured
// members gets a pass body so the emitted text stays syntactically
// complete.
func renderClass(cls model.NodeRecord, members map[int][]model.NodeRecord) string {
	children := members[cls.ID]
	if len(children) == 0 {
		return cls.ContentText + "\n" + leadingIndent(cls.ContentText) + "    pass"
	}

	parts := make([]string, 0, len(children)+1)
	parts = append(parts, cls.ContentText)
	for _, m := range children {
		if m.Kind == model.KindClass {
			parts = append(parts, renderClass(m, members))
			continue
		}
		parts = append(parts, m.ContentText)
	}
	return strings.Join(parts, "\n\n")
}

func leadingIndent(text string) string {
	for i := 0; i < len(text); i++ {
		if text[i] != ' ' {
			return text[:i]
		}
	}
	return text
}
