// Package retrieval implements the two retrieval paths over the indexed
// codebase and the deterministic fusion of their results. The graph path
// generates structural queries with an LLM and repairs them under a
// bounded attempt budget; the vector path searches chunk embeddings with
// a single optional query rewrite.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/codelens-ai/codelens/internal/llm"
	"github.com/codelens-ai/codelens/internal/metrics"
	"github.com/codelens-ai/codelens/internal/models"
	"github.com/codelens-ai/codelens/internal/store"
	"github.com/codelens-ai/codelens/internal/structural"
)

// snippetLimit caps snippet length in the fused context.
const snippetLimit = 800

// StructuralExecutor runs validated structural queries.
type StructuralExecutor interface {
	ExecuteStructural(ctx context.Context, query string) (*store.StructuralResult, error)
}

// GraphRetriever turns a question into graph anchors via the
// generate/validate/execute/repair loop.
type GraphRetriever struct {
	generator llm.Generator
	validator *structural.Validator
	executor  StructuralExecutor
	log       *logrus.Logger

	maxAttempts int
}

// GraphResult carries the graph path's contribution: ranked anchors plus
// the attempt log and the queries that produced rows.
type GraphResult struct {
	Results  []models.RetrievalResult
	Attempts []models.QueryAttempt
	Queries  []string
}

// NewGraphRetriever wires the graph retrieval loop.
func NewGraphRetriever(
	generator llm.Generator,
	validator *structural.Validator,
	executor StructuralExecutor,
	log *logrus.Logger,
	maxAttempts int,
) *GraphRetriever {
	return &GraphRetriever{
		generator:   generator,
		validator:   validator,
		executor:    executor,
		log:         log,
		maxAttempts: maxAttempts,
	}
}

// Retrieve runs up to maxAttempts generate/validate/execute iterations.
// A rejected or server-failed query feeds a repair prompt into the next
// attempt; a transport failure aborts immediately. When every attempt is
// spent without rows the result is empty: only the vector path contributes,
// and the attempt log records what was tried.
func (r *GraphRetriever) Retrieve(ctx context.Context, question string) (*GraphResult, error) {
	out := &GraphResult{}

	lastQuery, lastReason := "", ""

	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return out, fmt.Errorf("graph retrieval: %w", models.ErrBudgetExceeded)
		}

		query, err := r.generate(ctx, question, lastQuery, lastReason)
		if err != nil {
			// Generation failure is not repairable with more prompts.
			return out, fmt.Errorf("generating structural query: %w", err)
		}

		sanitized, err := r.validator.Validate(query)
		if err != nil {
			var verr *models.QueryValidationError
			if errors.As(err, &verr) {
				out.Attempts = append(out.Attempts, models.QueryAttempt{
					Attempt: attempt, Query: query,
					Outcome: models.AttemptRejected, Detail: verr.Reason,
				})
				metrics.QueriesRejected.Inc()
				r.log.WithFields(logrus.Fields{"attempt": attempt, "reason": verr.Reason}).
					Debug("structural query rejected")

				lastQuery, lastReason = query, verr.Reason

				continue
			}

			return out, err
		}

		result, err := r.executor.ExecuteStructural(ctx, sanitized)
		if err != nil {
			var verr *models.QueryValidationError
			if errors.As(err, &verr) {
				out.Attempts = append(out.Attempts, models.QueryAttempt{
					Attempt: attempt, Query: sanitized,
					Outcome: models.AttemptFailed, Detail: verr.Reason,
				})
				r.log.WithFields(logrus.Fields{"attempt": attempt, "reason": verr.Reason}).
					Debug("structural query failed at execution")

				lastQuery, lastReason = sanitized, verr.Reason

				continue
			}

			return out, fmt.Errorf("executing structural query: %w", err)
		}

		if len(result.Rows) == 0 {
			out.Attempts = append(out.Attempts, models.QueryAttempt{
				Attempt: attempt, Query: sanitized, Outcome: models.AttemptEmpty,
			})

			lastQuery, lastReason = sanitized, "the query matched no rows"

			continue
		}

		out.Attempts = append(out.Attempts, models.QueryAttempt{
			Attempt: attempt, Query: sanitized, Outcome: models.AttemptAccepted,
		})
		out.Queries = append(out.Queries, sanitized)
		out.Results = rowsToResults(result)
		metrics.GraphQueryAttempts.Observe(float64(attempt))

		return out, nil
	}

	metrics.GraphQueryAttempts.Observe(float64(r.maxAttempts))
	r.log.WithField("attempts", r.maxAttempts).Debug("graph retrieval exhausted its attempt budget")

	return out, nil
}

// generate produces the next query candidate: a fresh attempt on the
// first pass, a repair on every later one.
func (r *GraphRetriever) generate(ctx context.Context, question, lastQuery, lastReason string) (string, error) {
	prompt := generatePrompt(question)
	if lastQuery != "" {
		prompt = repairPrompt(question, lastQuery, lastReason)
	}

	raw, err := r.generator.Generate(ctx, generateSystem, prompt)
	if err != nil {
		return "", err
	}

	return stripFences(raw), nil
}

// rowsToResults renders structural rows as retrieval results. Graph hits
// are precision signals: every row scores 1.0 and keeps its row order.
func rowsToResults(result *store.StructuralResult) []models.RetrievalResult {
	idCol := -1

	for i, col := range result.Columns {
		if col == "id" {
			idCol = i

			break
		}
	}

	results := make([]models.RetrievalResult, 0, len(result.Rows))

	for i, row := range result.Rows {
		entityID := fmt.Sprintf("row:%d", i+1)
		if idCol >= 0 && idCol < len(row) {
			if s, ok := row[idCol].(string); ok && s != "" {
				entityID = s
			}
		}

		results = append(results, models.RetrievalResult{
			Source:   models.SourceGraph,
			EntityID: entityID,
			Snippet:  truncate(renderRow(result.Columns, row), snippetLimit),
			Score:    1.0,
			Rank:     i + 1,
		})
	}

	return results
}

// renderRow flattens one row into "col=value" pairs.
func renderRow(columns []string, row []any) string {
	var sb strings.Builder

	for i, col := range columns {
		if i > 0 {
			sb.WriteString(", ")
		}

		sb.WriteString(col)
		sb.WriteByte('=')
		fmt.Fprintf(&sb, "%v", row[i])
	}

	return sb.String()
}

// truncate cuts s at limit runes.
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}

	return string(runes[:limit])
}
