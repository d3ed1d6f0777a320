// Package service provides the business logic for codelens: ingestion of
// source into the graph and chunk stores, and question answering over them.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/codelens-ai/codelens/internal/chunker"
	"github.com/codelens-ai/codelens/internal/llm"
	"github.com/codelens-ai/codelens/internal/metrics"
	"github.com/codelens-ai/codelens/internal/models"
	"github.com/codelens-ai/codelens/internal/parser"
)

// GraphWriter persists a built code graph.
type GraphWriter interface {
	ReplaceGraph(ctx context.Context, nodes []models.CodeNode, edges []models.Edge) error
	Counts(ctx context.Context) (nodes, edges int64, err error)
}

// ChunkWriter persists embedded chunks.
type ChunkWriter interface {
	UpsertChunks(ctx context.Context, chunks []models.Chunk) error
}

// IngestService builds the code graph and chunk index from source units.
// Ingestion is a maintenance operation: it is serialized against itself
// and must not run concurrently with another ingest.
type IngestService struct {
	builder  *parser.Builder
	chunker  *chunker.Chunker
	embedder llm.Embedder
	graph    GraphWriter
	chunks   ChunkWriter
	log      *logrus.Logger

	workers int
	retries int

	mu sync.Mutex
}

// NewIngestService wires the ingestion pipeline.
func NewIngestService(
	builder *parser.Builder,
	chunk *chunker.Chunker,
	embedder llm.Embedder,
	graph GraphWriter,
	chunks ChunkWriter,
	log *logrus.Logger,
	workers, retries int,
) *IngestService {
	if workers <= 0 {
		workers = 4
	}

	return &IngestService{
		builder:  builder,
		chunker:  chunk,
		embedder: embedder,
		graph:    graph,
		chunks:   chunks,
		log:      log,
		workers:  workers,
		retries:  retries,
	}
}

// Ingest parses the units, replaces the stored graph, then chunks and
// embeds all node source. Unparseable units are skipped and reported;
// chunks whose embedding fails after retries are persisted degraded.
func (s *IngestService) Ingest(ctx context.Context, units []models.SourceUnit) (*models.IngestReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()

	built, err := s.builder.Build(ctx, units)
	if err != nil {
		return nil, fmt.Errorf("building code graph: %w", err)
	}

	if err := s.graph.ReplaceGraph(ctx, built.Nodes, built.Edges); err != nil {
		return nil, fmt.Errorf("storing code graph: %w", err)
	}

	var chunks []models.Chunk
	for i := range built.Nodes {
		chunks = append(chunks, s.chunker.Split(&built.Nodes[i])...)
	}

	degraded := s.embedAll(ctx, chunks)

	if err := s.chunks.UpsertChunks(ctx, chunks); err != nil {
		return nil, fmt.Errorf("storing chunks: %w", err)
	}

	metrics.NodeCount.Set(float64(len(built.Nodes)))
	metrics.EdgeCount.Set(float64(len(built.Edges)))

	report := &models.IngestReport{
		Nodes:     len(built.Nodes),
		Edges:     len(built.Edges),
		Chunks:    len(chunks),
		Degraded:  degraded,
		Failed:    built.Failed,
		DurationS: time.Since(start).Seconds(),
	}

	s.log.WithFields(logrus.Fields{
		"nodes":    report.Nodes,
		"edges":    report.Edges,
		"chunks":   report.Chunks,
		"degraded": report.Degraded,
		"failed":   len(report.Failed),
	}).Info("ingest complete")

	return report, nil
}

// embedAll fills chunk embeddings with a bounded worker pool. Each chunk
// gets a fixed retry budget with exponential backoff; a chunk that still
// has no vector afterwards is marked degraded rather than failing the
// whole ingest. Returns the degraded count.
func (s *IngestService) embedAll(ctx context.Context, chunks []models.Chunk) int {
	if len(chunks) == 0 {
		return 0
	}

	jobs := make(chan int, len(chunks))
	for i := range chunks {
		jobs <- i
	}
	close(jobs)

	metrics.EmbedQueueDepth.Set(float64(len(chunks)))
	defer metrics.EmbedQueueDepth.Set(0)

	var wg sync.WaitGroup

	var mu sync.Mutex
	degraded := 0

	for w := 0; w < s.workers; w++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for i := range jobs {
				if ctx.Err() != nil {
					mu.Lock()
					chunks[i].Degraded = true
					degraded++
					mu.Unlock()

					continue
				}

				if s.embedChunk(ctx, &chunks[i]) {
					metrics.EmbedQueueDepth.Dec()

					continue
				}

				mu.Lock()
				chunks[i].Degraded = true
				degraded++
				mu.Unlock()
				metrics.EmbedQueueDepth.Dec()
			}
		}()
	}

	wg.Wait()

	return degraded
}

const embedRetryBase = 500 * time.Millisecond

// embedChunk tries to embed one chunk within the retry budget.
func (s *IngestService) embedChunk(ctx context.Context, c *models.Chunk) bool {
	for attempt := 0; attempt <= s.retries; attempt++ {
		vector, err := s.embedder.Embed(ctx, c.Text)
		if err == nil {
			c.Embedding = vector

			return true
		}

		s.log.WithError(err).WithFields(logrus.Fields{
			"chunk_id": c.ID,
			"attempt":  attempt + 1,
		}).Warn("chunk embedding failed")

		if attempt < s.retries {
			delay := embedRetryBase * (1 << attempt) // exponential backoff
			select {
			case <-ctx.Done():
				return false
			case <-time.After(delay):
			}
		}
	}

	return false
}
