package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/codelens-ai/codelens/internal/models"
)

// insertNodeBatch writes one multi-row INSERT for a batch of nodes.
func insertNodeBatch(ctx context.Context, tx pgx.Tx, nodes []models.CodeNode) error {
	if len(nodes) == 0 {
		return nil
	}

	const nodeCols = 11

	var sb strings.Builder
	sb.WriteString(`INSERT INTO code_nodes
		(id, kind, name, namespace, class, file_path, start_line, end_line, signature, doc, source)
		VALUES `)

	args := make([]any, 0, len(nodes)*nodeCols)

	for i, n := range nodes {
		if i > 0 {
			sb.WriteByte(',')
		}

		sb.WriteString(placeholders(i*nodeCols+1, nodeCols))

		args = append(args, n.ID, string(n.Kind), n.Name, n.Namespace, n.Class,
			n.FilePath, n.StartLine, n.EndLine, n.Signature, n.Doc, n.Source)
	}

	if _, err := tx.Exec(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("inserting node batch: %w", err)
	}

	return nil
}

// insertEdgeBatch writes one multi-row INSERT for a batch of edges.
// ON CONFLICT DO NOTHING tolerates duplicate edges across source units.
func insertEdgeBatch(ctx context.Context, tx pgx.Tx, edges []models.Edge) error {
	if len(edges) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString(`INSERT INTO code_edges (source, target, relation) VALUES `)

	args := make([]any, 0, len(edges)*3)

	for i, e := range edges {
		if i > 0 {
			sb.WriteByte(',')
		}

		sb.WriteString(placeholders(i*3+1, 3))
		args = append(args, e.Source, e.Target, e.Relation)
	}

	sb.WriteString(" ON CONFLICT DO NOTHING")

	if _, err := tx.Exec(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("inserting edge batch: %w", err)
	}

	return nil
}

// placeholders renders "($n, $n+1, ...)" for one VALUES tuple.
func placeholders(start, count int) string {
	var sb strings.Builder
	sb.WriteByte('(')

	for i := 0; i < count; i++ {
		if i > 0 {
			sb.WriteByte(',')
		}

		fmt.Fprintf(&sb, "$%d", start+i)
	}

	sb.WriteByte(')')

	return sb.String()
}
