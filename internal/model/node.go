package model

import "fmt"

// NodeKind classifies an extracted semantic unit.
type NodeKind string

const (
	KindImport   NodeKind = "import"
	KindConstant NodeKind = "constant"
	KindClass    NodeKind = "class"
	KindMethod   NodeKind = "method"
	KindFunction NodeKind = "function"
)

// ModuleScope is the EnclosingScope value for top-level nodes.
const ModuleScope = 0

// NodeRecord is one uniquely keyed semantic unit extracted from a file.
// OrderKey is a monotonic integer assigned in source order during a
// single extraction pass.
type NodeRecord struct {
	ID             int      `json:"id"`
	Kind           NodeKind `json:"kind"`
	Name           string   `json:"name"`
	SourceLine     int      `json:"sourceLine"`
	EnclosingScope int      `json:"enclosingScope"`
	ContentText    string   `json:"contentText"`
	DependencyIDs  []int    `json:"dependencyIds,omitempty"`
	OrderKey       int      `json:"orderKey"`
}

// DedupKey returns the uniqueness key for a node record. No two records
// in one extraction pass may share this key.
func (n *NodeRecord) DedupKey() string {
	return fmt.Sprintf("%s|%s|%d|%d", n.Kind, n.Name, n.SourceLine, n.EnclosingScope)
}
