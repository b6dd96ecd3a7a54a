package parser

import (
	sitter "github.com/smacker/go-tree-sitter"

	"mender/internal/model"
)

// branchNodeTypes are the node types that count toward cyclomatic
// complexity: conditionals, loops, and exception handlers. These exact
// counts are persisted in registries, so the set must stay stable.
var branchNodeTypes = map[string]bool{
	"if_statement":           true,
	"elif_clause":            true,
	"conditional_expression": true,
	"for_statement":          true,
	"while_statement":        true,
	"except_clause":          true,
}

// nestingNodeTypes increase nesting depth for the MaxNesting metric.
var nestingNodeTypes = map[string]bool{
	"if_statement":        true,
	"for_statement":       true,
	"while_statement":     true,
	"try_statement":       true,
	"with_statement":      true,
	"function_definition": true,
	"class_definition":    true,
}

// computeComplexity walks the tree iteratively with an explicit stack
// carrying a depth counter, so no recursion or parent back-references
// are needed.
//
// Cyclomatic = 1 + branch-like nodes. Cognitive adds one per branch or
// exception node plus one per boolean operator (each tree-sitter
// boolean_operator node is binary, so operand count minus one is
// always one per node).
func computeComplexity(root *sitter.Node) model.Complexity {
	c := model.Complexity{Cyclomatic: 1}

	type frame struct {
		node  *sitter.Node
		depth int
	}
	stack := []frame{{node: root, depth: 0}}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		nodeType := f.node.Type()
		if branchNodeTypes[nodeType] {
			c.Cyclomatic++
			c.Cognitive++
		}
		if nodeType == "boolean_operator" {
			c.Cognitive++
		}

		childDepth := f.depth
		if nestingNodeTypes[nodeType] {
			childDepth++
			if childDepth > c.MaxNesting {
				c.MaxNesting = childDepth
			}
		}

		for i := int(f.node.NamedChildCount()) - 1; i >= 0; i-- {
			child := f.node.NamedChild(i)
			if child != nil {
				stack = append(stack, frame{node: child, depth: childDepth})
			}
		}
	}

	return c
}
