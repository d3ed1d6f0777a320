package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/codelens-ai/codelens/internal/llm"
	"github.com/codelens-ai/codelens/internal/metrics"
	"github.com/codelens-ai/codelens/internal/models"
	"github.com/codelens-ai/codelens/internal/retrieval"
	"github.com/codelens-ai/codelens/internal/store"
)

// GraphPath is the structural retrieval path.
type GraphPath interface {
	Retrieve(ctx context.Context, question string) (*retrieval.GraphResult, error)
}

// VectorPath is the semantic retrieval path.
type VectorPath interface {
	Retrieve(ctx context.Context, question string, filter store.ChunkFilter) (*retrieval.VectorResult, error)
}

// Orchestrator runs both retrieval paths under a shared wall-clock
// budget, fuses their output, and generates the final answer.
type Orchestrator struct {
	graph     GraphPath
	vector    VectorPath
	generator llm.Generator
	log       *logrus.Logger

	budget   time.Duration
	maxTotal int
}

// NewOrchestrator wires the retrieval pipeline.
func NewOrchestrator(
	graph GraphPath,
	vector VectorPath,
	generator llm.Generator,
	log *logrus.Logger,
	budget time.Duration,
	maxTotal int,
) *Orchestrator {
	return &Orchestrator{
		graph:     graph,
		vector:    vector,
		generator: generator,
		log:       log,
		budget:    budget,
		maxTotal:  maxTotal,
	}
}

// Answer retrieves context for the question and generates an answer over
// it. The two retrievers run concurrently and independently: a failing or
// overrunning path contributes an empty set instead of failing the
// request. Only when both paths come back empty is the question
// unanswerable, reported as ErrInsufficientContext.
func (o *Orchestrator) Answer(ctx context.Context, question string, filter store.ChunkFilter) (*models.Context, error) {
	ctx, cancel := context.WithTimeout(ctx, o.budget)
	defer cancel()

	var graphOut *retrieval.GraphResult
	var vectorOut *retrieval.VectorResult

	// Retriever errors are absorbed here, so the group never reports one.
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		start := time.Now()

		out, err := o.graph.Retrieve(gctx, question)
		metrics.RetrievalDuration.WithLabelValues("graph").Observe(time.Since(start).Seconds())

		if err != nil {
			o.log.WithError(err).Warn("graph retrieval failed, degrading to vector-only")
		}

		// Partial output (the attempt log) is kept even on failure.
		graphOut = out

		return nil
	})

	g.Go(func() error {
		start := time.Now()

		out, err := o.vector.Retrieve(gctx, question, filter)
		metrics.RetrievalDuration.WithLabelValues("vector").Observe(time.Since(start).Seconds())

		if err != nil {
			o.log.WithError(err).Warn("vector retrieval failed, degrading to graph-only")

			return nil
		}

		vectorOut = out

		return nil
	})

	g.Wait() //nolint:errcheck // goroutines never return errors.

	if graphOut == nil {
		graphOut = &retrieval.GraphResult{}
	}
	if vectorOut == nil {
		vectorOut = &retrieval.VectorResult{}
	}

	fused := retrieval.Fuse(graphOut.Results, vectorOut.Results, o.maxTotal)
	if len(fused) == 0 {
		return nil, models.ErrInsufficientContext
	}

	result := &models.Context{
		Question: question,
		Results:  fused,
		Provenance: models.Provenance{
			Graph:  entityIDs(graphOut.Results),
			Vector: vectorOut.ChunkIDs,
		},
		Attempts: graphOut.Attempts,
	}

	answer, err := o.generate(ctx, question, graphOut.Results, vectorOut.Results)
	if err != nil {
		return nil, fmt.Errorf("generating answer: %w", err)
	}

	result.Answer = answer

	return result, nil
}

// generate renders the fused context into the answer prompt and calls the
// model once.
func (o *Orchestrator) generate(ctx context.Context, question string, graph, vector []models.RetrievalResult) (string, error) {
	return o.generator.Generate(ctx, retrieval.AnswerSystem,
		retrieval.AnswerPrompt(question, renderResults(graph), renderResults(vector)))
}

// renderResults formats one path's results as a bulleted context section.
func renderResults(results []models.RetrievalResult) string {
	var sb strings.Builder

	for _, r := range results {
		sb.WriteString("- ")
		sb.WriteString(r.EntityID)
		sb.WriteString(": ")
		sb.WriteString(r.Snippet)
		sb.WriteByte('\n')
	}

	return sb.String()
}

func entityIDs(results []models.RetrievalResult) []string {
	ids := make([]string, 0, len(results))
	for _, r := range results {
		ids = append(ids, r.EntityID)
	}

	return ids
}
