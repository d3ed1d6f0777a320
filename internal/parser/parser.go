// Package parser builds the code knowledge graph from C# source units.
//
// Parsing uses tree-sitter. The builder walks namespace, class, struct, and
// method declarations into CodeNodes with qualified-path IDs, then resolves
// call sites against a symbol table accumulated across the whole batch.
package parser

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/csharp"
)

// parse parses one source unit and returns the AST root.
func parse(ctx context.Context, source []byte) (*sitter.Node, error) {
	p := sitter.NewParser()
	p.SetLanguage(csharp.GetLanguage())

	tree, err := p.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}

	root := tree.RootNode()
	if root.HasError() {
		return nil, fmt.Errorf("syntax error near line %d", firstErrorLine(root))
	}

	return root, nil
}

// firstErrorLine finds the 1-indexed line of the first ERROR node.
func firstErrorLine(root *sitter.Node) int {
	var line int

	var walk func(n *sitter.Node) bool
	walk = func(n *sitter.Node) bool {
		if n.IsError() || n.IsMissing() {
			line = int(n.StartPoint().Row) + 1

			return true
		}

		for i := 0; i < int(n.ChildCount()); i++ {
			if walk(n.Child(i)) {
				return true
			}
		}

		return false
	}
	walk(root)

	if line == 0 {
		line = 1
	}

	return line
}

// findNodes collects all descendants of root whose type is in types,
// in document order.
func findNodes(root *sitter.Node, types ...string) []*sitter.Node {
	var result []*sitter.Node

	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		for _, t := range types {
			if n.Type() == t {
				result = append(result, n)

				break
			}
		}

		for i := 0; i < int(n.NamedChildCount()); i++ {
			walk(n.NamedChild(i))
		}
	}
	walk(root)

	return result
}

// fieldText returns the source text of a named field child, or "".
func fieldText(n *sitter.Node, field string, source []byte) string {
	child := n.ChildByFieldName(field)
	if child == nil {
		return ""
	}

	return child.Content(source)
}

// leadingComment collects the contiguous comment block immediately above a
// declaration, with comment markers stripped.
func leadingComment(n *sitter.Node, source []byte) string {
	var lines []string

	cur := n

	for {
		prev := cur.PrevNamedSibling()
		if prev == nil || prev.Type() != "comment" {
			break
		}

		// Only take comments directly adjacent to the declaration.
		if cur.StartPoint().Row-prev.EndPoint().Row > 1 {
			break
		}

		text := strings.TrimSpace(prev.Content(source))
		text = strings.TrimLeft(text, "/ ")
		lines = append([]string{text}, lines...)
		cur = prev
	}

	return strings.Join(lines, "\n")
}

// signatureText extracts the declaration header: everything before the body.
func signatureText(n *sitter.Node, source []byte) string {
	body := n.ChildByFieldName("body")
	if body == nil {
		return strings.TrimSpace(n.Content(source))
	}

	header := string(source[n.StartByte():body.StartByte()])

	return strings.TrimSpace(header)
}
