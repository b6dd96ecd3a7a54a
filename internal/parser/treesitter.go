package parser

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"mender/internal/model"
)

// fullParseStage is the strict stage: tree-sitter must produce a tree
// with no error or missing nodes.
type fullParseStage struct {
	parser *sitter.Parser
}

func newFullParseStage() *fullParseStage {
	p := sitter.NewParser()
	p.SetLanguage(python.GetLanguage())
	return &fullParseStage{parser: p}
}

func (s *fullParseStage) status() model.ParseStatus {
	return model.FullParseOk
}

func (s *fullParseStage) parse(ctx context.Context, content string) (*model.SourceModel, bool) {
	source := []byte(content)
	tree, err := s.parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, false
	}
	root := tree.RootNode()
	if root == nil || root.HasError() {
		return nil, false
	}

	m := &model.SourceModel{
		Imports:   []string{},
		Functions: []model.FunctionInfo{},
		Classes:   []model.ClassInfo{},
		Variables: []string{},
	}
	buildModel(root, source, m)
	m.Complexity = computeComplexity(root)
	return m, true
}

// ParseTree exposes the raw tree-sitter parse for callers that walk the
// tree themselves (extraction). The tree is returned even when it
// contains error nodes; tree-sitter recovers around them.
func ParseTree(ctx context.Context, source []byte) (*sitter.Node, error) {
	p := sitter.NewParser()
	p.SetLanguage(python.GetLanguage())
	tree, err := p.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, err
	}
	return tree.RootNode(), nil
}

// buildModel walks the module's top level once and fills imports,
// functions, classes, and variables.
func buildModel(root *sitter.Node, source []byte, m *model.SourceModel) {
	for i := 0; i < int(root.NamedChildCount()); i++ {
		child := root.NamedChild(i)
		if child == nil {
			continue
		}
		switch child.Type() {
		case "import_statement", "future_import_statement":
			m.Imports = append(m.Imports, importedModules(child, source)...)
		case "import_from_statement":
			if mod := child.ChildByFieldName("module_name"); mod != nil {
				m.Imports = append(m.Imports, nodeText(mod, source))
			}
		case "function_definition":
			m.Functions = append(m.Functions, functionInfo(child, source, nil))
		case "class_definition":
			m.Classes = append(m.Classes, classInfo(child, source))
		case "decorated_definition":
			def := child.ChildByFieldName("definition")
			if def == nil {
				continue
			}
			decorators := decoratorNames(child, source)
			switch def.Type() {
			case "function_definition":
				m.Functions = append(m.Functions, functionInfo(def, source, decorators))
			case "class_definition":
				m.Classes = append(m.Classes, classInfo(def, source))
			}
		case "expression_statement":
			if name, ok := assignmentTarget(child, source); ok {
				m.Variables = append(m.Variables, name)
			}
		}
	}
}

// importedModules returns the dotted module names of an import statement.
func importedModules(node *sitter.Node, source []byte) []string {
	var mods []string
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child == nil {
			continue
		}
		switch child.Type() {
		case "dotted_name":
			mods = append(mods, nodeText(child, source))
		case "aliased_import":
			if name := child.ChildByFieldName("name"); name != nil {
				mods = append(mods, nodeText(name, source))
			}
		}
	}
	return mods
}

func functionInfo(node *sitter.Node, source []byte, decorators []string) model.FunctionInfo {
	info := model.FunctionInfo{
		Name:       "<unknown>",
		Line:       int(node.StartPoint().Row) + 1,
		Params:     []string{},
		Decorators: decorators,
	}
	if name := node.ChildByFieldName("name"); name != nil {
		info.Name = nodeText(name, source)
	}
	if params := node.ChildByFieldName("parameters"); params != nil {
		info.Params = parameterNames(params, source)
	}
	if body := node.ChildByFieldName("body"); body != nil {
		info.HasDocstring = blockHasDocstring(body)
	}
	return info
}

func classInfo(node *sitter.Node, source []byte) model.ClassInfo {
	info := model.ClassInfo{
		Name: "<unknown>",
		Line: int(node.StartPoint().Row) + 1,
	}
	if name := node.ChildByFieldName("name"); name != nil {
		info.Name = nodeText(name, source)
	}
	if supers := node.ChildByFieldName("superclasses"); supers != nil {
		for i := 0; i < int(supers.NamedChildCount()); i++ {
			base := supers.NamedChild(i)
			if base != nil {
				info.Bases = append(info.Bases, nodeText(base, source))
			}
		}
	}
	if body := node.ChildByFieldName("body"); body != nil {
		info.Methods = methodNames(body, source)
	}
	return info
}

// methodNames lists the functions defined directly in a class body.
func methodNames(body *sitter.Node, source []byte) []string {
	var names []string
	for i := 0; i < int(body.NamedChildCount()); i++ {
		child := body.NamedChild(i)
		if child == nil {
			continue
		}
		def := child
		if child.Type() == "decorated_definition" {
			def = child.ChildByFieldName("definition")
			if def == nil {
				continue
			}
		}
		if def.Type() != "function_definition" {
			continue
		}
		if name := def.ChildByFieldName("name"); name != nil {
			names = append(names, nodeText(name, source))
		}
	}
	return names
}

// parameterNames extracts identifier names from a parameters node,
// covering plain, typed, defaulted, and splat forms.
func parameterNames(params *sitter.Node, source []byte) []string {
	var names []string
	for i := 0; i < int(params.NamedChildCount()); i++ {
		p := params.NamedChild(i)
		if p == nil {
			continue
		}
		switch p.Type() {
		case "identifier":
			names = append(names, nodeText(p, source))
		case "typed_parameter":
			if id := firstChildOfType(p, "identifier"); id != nil {
				names = append(names, nodeText(id, source))
			}
		case "default_parameter", "typed_default_parameter":
			if name := p.ChildByFieldName("name"); name != nil {
				names = append(names, nodeText(name, source))
			}
		case "list_splat_pattern", "dictionary_splat_pattern":
			if id := firstChildOfType(p, "identifier"); id != nil {
				names = append(names, nodeText(id, source))
			}
		}
	}
	if names == nil {
		names = []string{}
	}
	return names
}

func decoratorNames(decorated *sitter.Node, source []byte) []string {
	var names []string
	for i := 0; i < int(decorated.NamedChildCount()); i++ {
		child := decorated.NamedChild(i)
		if child == nil || child.Type() != "decorator" {
			continue
		}
		text := strings.TrimPrefix(nodeText(child, source), "@")
		// Strip call arguments: @app.route("/x") -> app.route
		if idx := strings.IndexByte(text, '('); idx >= 0 {
			text = text[:idx]
		}
		names = append(names, strings.TrimSpace(text))
	}
	return names
}

// blockHasDocstring reports whether a function body opens with a string
// expression statement.
func blockHasDocstring(body *sitter.Node) bool {
	first := body.NamedChild(0)
	if first == nil || first.Type() != "expression_statement" {
		return false
	}
	inner := first.NamedChild(0)
	return inner != nil && inner.Type() == "string"
}

// assignmentTarget returns the identifier assigned by a module-level
// expression statement, if it is a simple assignment.
func assignmentTarget(stmt *sitter.Node, source []byte) (string, bool) {
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

func firstChildOfType(node *sitter.Node, typ string) *sitter.Node {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child != nil && child.Type() == typ {
			return child
		}
	}
	return nil
}

func nodeText(node *sitter.Node, source []byte) string {
	return string(source[node.StartByte():node.EndByte()])
}
