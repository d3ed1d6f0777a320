package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/codelens-ai/codelens/internal/models"
)

// maxBatchSize limits the number of rows per INSERT statement to stay
// within PostgreSQL's parameter limit (65535 params).
const maxBatchSize = 500

// GraphStore handles code graph persistence and structural queries.
type GraphStore struct {
	Base
}

// NewGraphStore creates a new GraphStore.
func NewGraphStore(base Base) *GraphStore {
	return &GraphStore{Base: base}
}

// StructuralResult holds the rows returned by a structural query, with
// column names preserved in select order.
type StructuralResult struct {
	Columns []string
	Rows    [][]any
}

// ReplaceGraph atomically swaps the stored graph for the given one.
// Deleting code_nodes cascades to edges and chunks, so a replace leaves
// no orphans; the indexer rewrites chunks immediately after.
func (s *GraphStore) ReplaceGraph(ctx context.Context, nodes []models.CodeNode, edges []models.Edge) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return storeErr("replacing graph", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	if _, err := tx.Exec(ctx, "DELETE FROM code_nodes"); err != nil {
		return fmt.Errorf("clearing graph: %w", err)
	}

	for i := 0; i < len(nodes); i += maxBatchSize {
		end := min(i+maxBatchSize, len(nodes))
		if err := insertNodeBatch(ctx, tx, nodes[i:end]); err != nil {
			return err
		}
	}

	for i := 0; i < len(edges); i += maxBatchSize {
		end := min(i+maxBatchSize, len(edges))
		if err := insertEdgeBatch(ctx, tx, edges[i:end]); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing graph replace: %w", err)
	}

	return nil
}

// ExecuteStructural runs a validated structural query in a read-only
// transaction. SQL-level failures (bad column, type mismatch) come back as
// a QueryValidationError so the caller can repair and retry; transport
// failures do not.
func (s *GraphStore) ExecuteStructural(ctx context.Context, query string) (*StructuralResult, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginReadTx(ctx)
	if err != nil {
		return nil, storeErr("structural query", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	rows, err := tx.Query(ctx, query)
	if err != nil {
		return nil, classifyQueryErr(query, err)
	}
	defer rows.Close()

	result := &StructuralResult{}
	for _, fd := range rows.FieldDescriptions() {
		result.Columns = append(result.Columns, fd.Name)
	}

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("reading structural row: %w", err)
		}

		result.Rows = append(result.Rows, values)
	}

	if err := rows.Err(); err != nil {
		return nil, classifyQueryErr(query, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing structural query: %w", err)
	}

	return result, nil
}

// classifyQueryErr maps server-side SQL errors to QueryValidationError.
// The validator catches grammar violations before execution; this catches
// what only the database can know, like a hallucinated column name.
func classifyQueryErr(query string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return &models.QueryValidationError{Query: query, Reason: "postgres: " + pgErr.Message}
	}

	return storeErr("executing structural query", err)
}

// GetNode fetches one node by its qualified path ID.
func (s *GraphStore) GetNode(ctx context.Context, id string) (*models.CodeNode, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	row := s.Pool.QueryRow(ctx, `SELECT `+nodeColumns+` FROM code_nodes WHERE id = $1`, id)

	n, err := scanCodeNode(row.Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNodeNotFound
		}

		return nil, fmt.Errorf("fetching node %s: %w", id, err)
	}

	return n, nil
}

// ListNodes returns nodes filtered by kind and namespace, ordered by ID.
// Empty filters match everything.
func (s *GraphStore) ListNodes(ctx context.Context, kind, namespace string, limit, offset int) ([]models.CodeNode, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	sql := `SELECT ` + nodeColumns + ` FROM code_nodes WHERE 1=1`
	args := []any{}
	argIdx := 1

	if kind != "" {
		sql += fmt.Sprintf(" AND kind = $%d", argIdx)
		args = append(args, kind)
		argIdx++
	}

	if namespace != "" {
		sql += fmt.Sprintf(" AND namespace = $%d", argIdx)
		args = append(args, namespace)
		argIdx++
	}

	sql += fmt.Sprintf(" ORDER BY id LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, limit, offset)

	rows, err := s.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, storeErr("listing nodes", err)
	}
	defer rows.Close()

	return collectCodeNodes(rows)
}

// ListEdges returns edges touching the given node, in both directions.
func (s *GraphStore) ListEdges(ctx context.Context, nodeID string) ([]models.Edge, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := s.Pool.Query(ctx,
		`SELECT source, target, relation FROM code_edges
		 WHERE source = $1 OR target = $1
		 ORDER BY source, target, relation`, nodeID)
	if err != nil {
		return nil, storeErr("listing edges", err)
	}
	defer rows.Close()

	return collectEdges(rows)
}

// Counts returns the node and edge totals, used by readiness checks and
// gauge metrics.
func (s *GraphStore) Counts(ctx context.Context) (nodes, edges int64, err error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	err = s.Pool.QueryRow(ctx,
		"SELECT (SELECT count(*) FROM code_nodes), (SELECT count(*) FROM code_edges)").
		Scan(&nodes, &edges)
	if err != nil {
		return 0, 0, storeErr("counting graph rows", err)
	}

	return nodes, edges, nil
}
