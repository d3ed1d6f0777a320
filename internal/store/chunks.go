package store

import (
	"context"
	"fmt"

	"github.com/codelens-ai/codelens/internal/models"
)

// ChunkStore handles chunk persistence and semantic search.
type ChunkStore struct {
	Base
}

// NewChunkStore creates a new ChunkStore.
func NewChunkStore(base Base) *ChunkStore {
	return &ChunkStore{Base: base}
}

// ChunkFilter restricts semantic search to chunks whose metadata matches
// every set field exactly. The zero value matches all chunks.
type ChunkFilter struct {
	Kind      string
	Namespace string
	Class     string
	Method    string
	FilePath  string
}

// Empty reports whether the filter matches all chunks.
func (f ChunkFilter) Empty() bool {
	return f == ChunkFilter{}
}

// UpsertChunks writes chunks in batches, replacing any prior row with the
// same deterministic ID. Chunks without an embedding are stored with a
// NULL vector and the degraded flag set by the caller.
func (s *ChunkStore) UpsertChunks(ctx context.Context, chunks []models.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return storeErr("upserting chunks", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	const sql = `INSERT INTO code_chunks
		(id, node_id, seq, content, embedding, kind, namespace, class, method, file_path, degraded)
		VALUES ($1, $2, $3, $4, $5::vector, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			content = EXCLUDED.content,
			embedding = EXCLUDED.embedding,
			kind = EXCLUDED.kind,
			namespace = EXCLUDED.namespace,
			class = EXCLUDED.class,
			method = EXCLUDED.method,
			file_path = EXCLUDED.file_path,
			degraded = EXCLUDED.degraded`

	for _, c := range chunks {
		var embedding *string
		if len(c.Embedding) > 0 {
			v := formatEmbedding(c.Embedding)
			embedding = &v
		}

		_, err := tx.Exec(ctx, sql, c.ID, c.NodeID, c.Seq, c.Text, embedding,
			c.Metadata.Kind, c.Metadata.Namespace, c.Metadata.Class,
			c.Metadata.Method, c.Metadata.FilePath, c.Degraded)
		if err != nil {
			return fmt.Errorf("upserting chunk %s: %w", c.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing chunk upsert: %w", err)
	}

	return nil
}

// SemanticSearch finds the chunks nearest to the query embedding by cosine
// distance. Degraded chunks never match: the NULL-embedding predicate keeps
// them out and keeps the query on the partial HNSW index.
func (s *ChunkStore) SemanticSearch(
	ctx context.Context,
	embedding []float32,
	filter ChunkFilter,
	limit int,
) ([]models.ScoredChunk, error) {
	if limit <= 0 {
		limit = 7
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginReadTx(ctx)
	if err != nil {
		return nil, storeErr("semantic search", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	sql := `SELECT ` + chunkColumns + `, 1 - (embedding <=> $1::vector) AS similarity
		FROM code_chunks
		WHERE embedding IS NOT NULL`

	args := []any{formatEmbedding(embedding)}
	sql, args = appendFilter(sql, args, filter)

	args = append(args, limit)
	sql += fmt.Sprintf(` ORDER BY embedding <=> $1::vector LIMIT $%d`, len(args))

	rows, err := tx.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("executing semantic search: %w", err)
	}
	defer rows.Close()

	scored := make([]models.ScoredChunk, 0, limit)

	for rows.Next() {
		var score float64

		c, err := scanChunk(func(dest ...any) error {
			return rows.Scan(append(dest, &score)...) //nolint:gocritic // append to extend scan targets
		})
		if err != nil {
			return nil, fmt.Errorf("scanning semantic result: %w", err)
		}

		scored = append(scored, models.ScoredChunk{Chunk: *c, Score: score})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating semantic rows: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing semantic search: %w", err)
	}

	return scored, nil
}

// appendFilter adds one AND predicate per set filter field.
func appendFilter(sql string, args []any, f ChunkFilter) (string, []any) {
	add := func(col, val string) {
		if val == "" {
			return
		}

		args = append(args, val)
		sql += fmt.Sprintf(" AND %s = $%d", col, len(args))
	}

	add("kind", f.Kind)
	add("namespace", f.Namespace)
	add("class", f.Class)
	add("method", f.Method)
	add("file_path", f.FilePath)

	return sql, args
}

// ChunkStats reports chunk totals for readiness checks and ingest reports.
type ChunkStats struct {
	Total    int64
	Degraded int64
}

// Stats returns chunk counts.
func (s *ChunkStore) Stats(ctx context.Context) (ChunkStats, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var stats ChunkStats

	err := s.Pool.QueryRow(ctx,
		"SELECT count(*), count(*) FILTER (WHERE degraded) FROM code_chunks").
		Scan(&stats.Total, &stats.Degraded)
	if err != nil {
		return ChunkStats{}, storeErr("counting chunks", err)
	}

	return stats, nil
}
