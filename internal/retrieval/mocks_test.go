package retrieval

import (
	"context"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/codelens-ai/codelens/internal/models"
	"github.com/codelens-ai/codelens/internal/store"
)

// testLogger returns a logger that stays quiet during tests.
func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)

	return log
}

// scriptedGenerator returns canned completions in order, recording the
// prompts it was given.
type scriptedGenerator struct {
	completions []string
	errs        []error
	calls       int
	prompts     []string
}

func (g *scriptedGenerator) Generate(_ context.Context, _, prompt string) (string, error) {
	i := g.calls
	g.calls++
	g.prompts = append(g.prompts, prompt)

	if i < len(g.errs) && g.errs[i] != nil {
		return "", g.errs[i]
	}
	if i < len(g.completions) {
		return g.completions[i], nil
	}

	return "", io.EOF
}

// scriptedExecutor maps queries to canned results, recording execution order.
type scriptedExecutor struct {
	results  map[string]*store.StructuralResult
	errs     map[string]error
	executed []string
}

func (e *scriptedExecutor) ExecuteStructural(_ context.Context, query string) (*store.StructuralResult, error) {
	e.executed = append(e.executed, query)

	if err, ok := e.errs[query]; ok {
		return nil, err
	}
	if res, ok := e.results[query]; ok {
		return res, nil
	}

	return &store.StructuralResult{Columns: []string{"id"}}, nil
}

// fixedEmbedder returns one vector for every input.
type fixedEmbedder struct {
	vector []float32
	err    error
	texts  []string
}

func (e *fixedEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.texts = append(e.texts, text)

	if e.err != nil {
		return nil, e.err
	}

	return e.vector, nil
}

func (e *fixedEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = e.vector
	}

	return out, nil
}

// scriptedSearcher returns canned chunk sets per call, recording the
// filters it saw.
type scriptedSearcher struct {
	sets    [][]models.ScoredChunk
	calls   int
	filters []store.ChunkFilter
}

func (s *scriptedSearcher) SemanticSearch(_ context.Context, _ []float32, filter store.ChunkFilter, _ int) ([]models.ScoredChunk, error) {
	s.filters = append(s.filters, filter)

	i := s.calls
	s.calls++

	if i < len(s.sets) {
		return s.sets[i], nil
	}

	return nil, nil
}

func chunk(nodeID string, seq int, text string, score float64) models.ScoredChunk {
	return models.ScoredChunk{
		Chunk: models.Chunk{
			ID:     models.ChunkID(nodeID, seq),
			NodeID: nodeID,
			Seq:    seq,
			Text:   text,
		},
		Score: score,
	}
}
