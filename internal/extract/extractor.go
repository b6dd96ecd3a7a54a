package extract

import (
	"context"
	"regexp"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"mender/internal/model"
	"mender/internal/parser"
)

// DefaultHeaderWindow bounds module-level constant capture to the top
// of the file. Assignments past this window are deliberately ignored to
// avoid capturing unrelated later assignments; a documented limitation,
// not a general solution.
const DefaultHeaderWindow = 50

// Extractor walks a file's syntax tree exactly once and records every
// import, header constant, class, method, and standalone function into
// an arena owned by the call.
type Extractor struct {
	headerWindow int
}

// NewExtractor creates an extractor with the given header window in
// lines; values < 1 fall back to DefaultHeaderWindow.
func NewExtractor(headerWindowLines int) *Extractor {
	if headerWindowLines < 1 {
		headerWindowLines = DefaultHeaderWindow
	}
	return &Extractor{headerWindow: headerWindowLines}
}

// Extract parses content and returns a fresh arena of node records.
// The tree-sitter tree is used as recovered, so extraction succeeds on
// broken files; only a hard parser failure returns an error.
func (e *Extractor) Extract(ctx context.Context, content string) (*Arena, error) {
	source := []byte(content)
	root, err := parser.ParseTree(ctx, source)
	if err != nil {
		return nil, err
	}

	arena := NewArena()

	// Explicit frame stack: one pass, no recursion. classID carries the
	// enclosing class for method records.
	type frame struct {
		node    *sitter.Node
		classID int
	}
	stack := make([]frame, 0, int(root.NamedChildCount()))
	for i := int(root.NamedChildCount()) - 1; i >= 0; i-- {
		if child := root.NamedChild(i); child != nil {
			stack = append(stack, frame{node: child, classID: model.ModuleScope})
		}
	}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		node := f.node
		line := int(node.StartPoint().Row) + 1

		// Unwrap decorators; the record text keeps them.
		textNode := node
		if node.Type() == "decorated_definition" {
			def := node.ChildByFieldName("definition")
			if def == nil {
				continue
			}
			node = def
		}

		switch node.Type() {
		case "import_statement", "import_from_statement", "future_import_statement":
			if f.classID != model.ModuleScope {
				continue
			}
			arena.add(model.NodeRecord{
				Kind:           model.KindImport,
				Name:           importName(node, source),
				SourceLine:     line,
				EnclosingScope: model.ModuleScope,
				ContentText:    renderLine(textNode, source),
			})

		case "expression_statement":
			if f.classID != model.ModuleScope || line > e.headerWindow {
				continue
			}
			if name, ok := assignedName(node, source); ok {
				arena.add(model.NodeRecord{
					Kind:           model.KindConstant,
					Name:           name,
					SourceLine:     line,
					EnclosingScope: model.ModuleScope,
					ContentText:    renderLine(textNode, source),
				})
			}

		case "class_definition":
			name := fieldText(node, "name", source)
			if name == "" {
				continue
			}
			classID, added := arena.add(model.NodeRecord{
				Kind:           model.KindClass,
				Name:           name,
				SourceLine:     line,
				EnclosingScope: f.classID,
				ContentText:    classHeader(textNode, node, source),
			})
			if !added {
				continue
			}
			if body := node.ChildByFieldName("body"); body != nil {
				for i := int(body.NamedChildCount()) - 1; i >= 0; i-- {
					if child := body.NamedChild(i); child != nil {
						stack = append(stack, frame{node: child, classID: classID})
					}
				}
			}

		case "function_definition":
			name := fieldText(node, "name", source)
			if name == "" {
				continue
			}
			kind := model.KindFunction
			scope := model.ModuleScope
			if f.classID != model.ModuleScope {
				// A def inside a class is a Method, never also a Function.
				kind = model.KindMethod
				scope = f.classID
			}
			arena.add(model.NodeRecord{
				Kind:           kind,
				Name:           name,
				SourceLine:     line,
				EnclosingScope: scope,
				ContentText:    renderBlock(textNode, source),
			})
		}
	}

	linkDependencies(arena)
	return arena, nil
}

// linkDependencies records, for each class/function/method, the ids of
// other named entities referenced in its text.
func linkDependencies(arena *Arena) {
	byName := make(map[string]int)
	for _, rec := range arena.Records() {
		if rec.Kind == model.KindClass || rec.Kind == model.KindFunction {
			byName[rec.Name] = rec.ID
		}
	}

	for _, rec := range arena.Records() {
		if rec.Kind == model.KindImport || rec.Kind == model.KindConstant {
			continue
		}
		var deps []int
		for _, ident := range identifiers(rec.ContentText) {
			id, ok := byName[ident]
			if !ok || id == rec.ID {
				continue
			}
			deps = appendUnique(deps, id)
		}
		if deps != nil {
			arena.setDependencies(rec.ID, deps)
		}
	}
}

var identPattern = regexp.MustCompile(`[A-Za-z_]\w*`)

func identifiers(text string) []string {
	// Skip the definition's own header line so a function doesn't
	// depend on itself through its name.
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		text = text[idx+1:]
	}
	return identPattern.FindAllString(text, -1)
}

func appendUnique(ids []int, id int) []int {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}

// importName returns the first imported module name, or the raw line.
func importName(node *sitter.Node, source []byte) string {
	if mod := node.ChildByFieldName("module_name"); mod != nil {
		return nodeText(mod, source)
	}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child == nil {
			continue
		}
		switch child.Type() {
		case "dotted_name":
			return nodeText(child, source)
		case "aliased_import":
			if name := child.ChildByFieldName("name"); name != nil {
				return nodeText(name, source)
			}
		}
	}
	return strings.TrimSpace(nodeText(node, source))
}

// assignedName returns the identifier of a simple assignment statement.
func assignedName(stmt *sitter.Node, source []byte) (string, bool) {
	inner := stmt.NamedChild(0)
	if inner == nil || inner.Type() != "assignment" {
		return "", false
	}
	left := inner.ChildByFieldName("left")
	if left == nil || left.Type() != "identifier" {
		return "", false
	}
	return nodeText(left, source), true
}

// classHeader renders the class signature (decorators included) up to
// the start of its body, restoring the first line's source indentation
// so nested class headers stay aligned when re-emitted.
func classHeader(textNode, classNode *sitter.Node, source []byte) string {
	end := classNode.EndByte()
	if body := classNode.ChildByFieldName("body"); body != nil {
		end = body.StartByte()
	}
	indent := strings.Repeat(" ", int(textNode.StartPoint().Column))
	header := string(source[textNode.StartByte():end])
	return indent + strings.TrimRight(header, " \t\n")
}

// renderLine renders a single-line node with no indentation handling.
func renderLine(node *sitter.Node, source []byte) string {
	return strings.TrimSpace(nodeText(node, source))
}

// renderBlock renders a block node, restoring the first line's source
// indentation so method bodies stay aligned when re-emitted.
func renderBlock(node *sitter.Node, source []byte) string {
	indent := strings.Repeat(" ", int(node.StartPoint().Column))
	return indent + nodeText(node, source)
}

func fieldText(node *sitter.Node, field string, source []byte) string {
	child := node.ChildByFieldName(field)
	if child == nil {
		return ""
	}
	return nodeText(child, source)
}

func nodeText(node *sitter.Node, source []byte) string {
	return string(source[node.StartByte():node.EndByte()])
}
