// Package models defines data types for the code knowledge graph.
package models

import (
	"sort"
	"strings"
	"time"
)

// NodeKind classifies a CodeNode.
type NodeKind string

// Node kinds. The taxonomy is fixed: namespaces contain classes, classes
// contain methods.
const (
	KindNamespace NodeKind = "namespace"
	KindClass     NodeKind = "class"
	KindMethod    NodeKind = "method"
)

// Valid reports whether k is a known node kind.
func (k NodeKind) Valid() bool {
	switch k {
	case KindNamespace, KindClass, KindMethod:
		return true
	}

	return false
}

// CodeNode represents a namespace, class, or method in the code graph.
// The ID is the qualified path ("Namespace/Class/Method"), derived
// deterministically from the source so re-ingestion of unchanged code
// produces identical IDs.
type CodeNode struct {
	ID        string    `json:"id"`
	Kind      NodeKind  `json:"kind"`
	Name      string    `json:"name"`
	Namespace string    `json:"namespace,omitempty"`
	Class     string    `json:"class,omitempty"`
	FilePath  string    `json:"file_path,omitempty"`
	StartLine int       `json:"start_line,omitempty"`
	EndLine   int       `json:"end_line,omitempty"`
	Signature string    `json:"signature,omitempty"`
	Doc       string    `json:"doc,omitempty"`
	Source    string    `json:"source,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// NodeID builds the qualified path ID for the given parts. Empty trailing
// parts are omitted, so NodeID("Acme", "", "") is just "Acme".
func NodeID(namespace, class, method string) string {
	parts := []string{namespace}
	if class != "" {
		parts = append(parts, class)
	}

	if method != "" {
		parts = append(parts, method)
	}

	return strings.Join(parts, "/")
}

// ParentID returns the ID of the node's containing parent, or "" for a
// namespace. Contains edges derived this way always form a forest: each
// node names exactly one parent, a prefix of its own path.
func (n *CodeNode) ParentID() string {
	switch n.Kind {
	case KindClass:
		return NodeID(n.Namespace, "", "")
	case KindMethod:
		return NodeID(n.Namespace, n.Class, "")
	default:
		return ""
	}
}

// SortNodes orders nodes by ID for deterministic batch output.
func SortNodes(nodes []CodeNode) {
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })
}
