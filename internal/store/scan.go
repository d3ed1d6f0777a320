package store

import (
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/codelens-ai/codelens/internal/models"
)

// nodeColumns lists the columns selected for node queries.
const nodeColumns = `id, kind, name, namespace, class, file_path,
	start_line, end_line, signature, doc, source, created_at, updated_at`

// chunkColumns lists the columns selected for chunk queries (excluding embedding).
const chunkColumns = `id, node_id, seq, content, kind, namespace, class,
	method, file_path, degraded`

// scanCodeNode scans a single row into a models.CodeNode.
func scanCodeNode(scan func(dest ...any) error) (*models.CodeNode, error) {
	var n models.CodeNode
	var kind string

	err := scan(
		&n.ID,
		&kind,
		&n.Name,
		&n.Namespace,
		&n.Class,
		&n.FilePath,
		&n.StartLine,
		&n.EndLine,
		&n.Signature,
		&n.Doc,
		&n.Source,
		&n.CreatedAt,
		&n.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	n.Kind = models.NodeKind(kind)

	return &n, nil
}

// collectCodeNodes scans all rows into a node slice.
func collectCodeNodes(rows pgx.Rows) ([]models.CodeNode, error) {
	nodes := make([]models.CodeNode, 0, 16)

	for rows.Next() {
		n, err := scanCodeNode(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning node row: %w", err)
		}

		nodes = append(nodes, *n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating node rows: %w", err)
	}

	return nodes, nil
}

// collectEdges scans all rows into an edge slice.
func collectEdges(rows pgx.Rows) ([]models.Edge, error) {
	edges := make([]models.Edge, 0, 16)

	for rows.Next() {
		var e models.Edge

		if err := rows.Scan(&e.Source, &e.Target, &e.Relation); err != nil {
			return nil, fmt.Errorf("scanning edge row: %w", err)
		}

		edges = append(edges, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating edge rows: %w", err)
	}

	return edges, nil
}

// scanChunk scans a single row into a models.Chunk.
func scanChunk(scan func(dest ...any) error) (*models.Chunk, error) {
	var c models.Chunk

	err := scan(
		&c.ID,
		&c.NodeID,
		&c.Seq,
		&c.Text,
		&c.Metadata.Kind,
		&c.Metadata.Namespace,
		&c.Metadata.Class,
		&c.Metadata.Method,
		&c.Metadata.FilePath,
		&c.Degraded,
	)
	if err != nil {
		return nil, err
	}

	return &c, nil
}
