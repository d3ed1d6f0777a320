package models

import "sort"

// Edge relations between code nodes.
const (
	RelationContains   = "contains"
	RelationCalls      = "calls"
	RelationReferences = "references"
)

// Edge represents a directed relationship between two code nodes.
// Contains edges form a forest (one parent per node); calls and
// references edges may be cyclic and many-to-many.
type Edge struct {
	Source   string `json:"source"`
	Target   string `json:"target"`
	Relation string `json:"relation"`
}

// ValidRelation reports whether r is a known edge relation.
func ValidRelation(r string) bool {
	switch r {
	case RelationContains, RelationCalls, RelationReferences:
		return true
	}

	return false
}

// SortEdges orders edges by (source, target, relation) for deterministic
// batch output.
func SortEdges(edges []Edge) {
	sort.Slice(edges, func(i, j int) bool {
		a, b := edges[i], edges[j]
		if a.Source != b.Source {
			return a.Source < b.Source
		}

		if a.Target != b.Target {
			return a.Target < b.Target
		}

		return a.Relation < b.Relation
	})
}
