package service

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/codelens-ai/codelens/internal/models"
	"github.com/codelens-ai/codelens/internal/retrieval"
	"github.com/codelens-ai/codelens/internal/store"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)

	return log
}

// memGraphWriter records the replaced graph.
type memGraphWriter struct {
	mu    sync.Mutex
	nodes []models.CodeNode
	edges []models.Edge
	err   error
}

func (m *memGraphWriter) ReplaceGraph(_ context.Context, nodes []models.CodeNode, edges []models.Edge) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return m.err
	}

	m.nodes = nodes
	m.edges = edges

	return nil
}

func (m *memGraphWriter) Counts(_ context.Context) (int64, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return int64(len(m.nodes)), int64(len(m.edges)), nil
}

// memChunkWriter records upserted chunks.
type memChunkWriter struct {
	mu     sync.Mutex
	chunks []models.Chunk
}

func (m *memChunkWriter) UpsertChunks(_ context.Context, chunks []models.Chunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.chunks = append(m.chunks, chunks...)

	return nil
}

// flakyEmbedder fails the first failures calls per text, then succeeds.
type flakyEmbedder struct {
	mu       sync.Mutex
	failures int
	attempts map[string]int
	alwaysUp bool
}

func newFlakyEmbedder(failures int) *flakyEmbedder {
	return &flakyEmbedder{failures: failures, attempts: map[string]int{}}
}

func (e *flakyEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.attempts[text]++
	if !e.alwaysUp && e.attempts[text] <= e.failures {
		return nil, errors.New("embedder unavailable")
	}

	return []float32{0.1, 0.2}, nil
}

func (e *flakyEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))

	for i, t := range texts {
		v, err := e.Embed(ctx, t)
		if err != nil {
			return nil, err
		}

		out[i] = v
	}

	return out, nil
}

// stubGraphPath returns a canned graph result.
type stubGraphPath struct {
	out *retrieval.GraphResult
	err error
}

func (s *stubGraphPath) Retrieve(_ context.Context, _ string) (*retrieval.GraphResult, error) {
	return s.out, s.err
}

// stubVectorPath returns a canned vector result.
type stubVectorPath struct {
	out    *retrieval.VectorResult
	err    error
	filter store.ChunkFilter
}

func (s *stubVectorPath) Retrieve(_ context.Context, _ string, filter store.ChunkFilter) (*retrieval.VectorResult, error) {
	s.filter = filter

	return s.out, s.err
}

// stubGenerator returns one canned completion.
type stubGenerator struct {
	completion string
	err        error
	prompts    []string
}

func (g *stubGenerator) Generate(_ context.Context, _, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)

	if g.err != nil {
		return "", g.err
	}

	return g.completion, nil
}
