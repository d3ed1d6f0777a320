package retrieval

import (
	"context"
	"strings"
	"testing"

	"github.com/codelens-ai/codelens/internal/models"
	"github.com/codelens-ai/codelens/internal/store"
	"github.com/codelens-ai/codelens/internal/structural"
)

func newGraphRetriever(gen *scriptedGenerator, exec *scriptedExecutor, maxAttempts int) *GraphRetriever {
	return NewGraphRetriever(gen, structural.NewValidator(25), exec, testLogger(), maxAttempts)
}

func TestGraphRetrieveFirstAttemptSucceeds(t *testing.T) {
	query := "SELECT id, name FROM code_nodes WHERE kind = 'method' LIMIT 5"
	gen := &scriptedGenerator{completions: []string{query}}
	exec := &scriptedExecutor{results: map[string]*store.StructuralResult{
		query: {
			Columns: []string{"id", "name"},
			Rows: [][]any{
				{"Acme/Calc/Run", "Run"},
				{"Acme/Calc/Reset", "Reset"},
			},
		},
	}}

	out, err := newGraphRetriever(gen, exec, 3).Retrieve(context.Background(), "which methods exist?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(out.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(out.Results))
	}
	if out.Results[0].EntityID != "Acme/Calc/Run" || out.Results[0].Rank != 1 {
		t.Errorf("unexpected first result %+v", out.Results[0])
	}
	if out.Results[0].Score != 1.0 {
		t.Errorf("graph results must score 1.0, got %v", out.Results[0].Score)
	}
	if !strings.Contains(out.Results[0].Snippet, "name=Run") {
		t.Errorf("snippet missing row data: %q", out.Results[0].Snippet)
	}

	if len(out.Attempts) != 1 || out.Attempts[0].Outcome != models.AttemptAccepted {
		t.Errorf("unexpected attempt log %+v", out.Attempts)
	}
	if len(out.Queries) != 1 {
		t.Errorf("expected one provenance query, got %v", out.Queries)
	}
}

func TestGraphRetrieveRepairsRejectedQuery(t *testing.T) {
	good := "SELECT id FROM code_nodes LIMIT 5"
	gen := &scriptedGenerator{completions: []string{
		"DROP TABLE code_nodes",
		good,
	}}
	exec := &scriptedExecutor{results: map[string]*store.StructuralResult{
		good: {Columns: []string{"id"}, Rows: [][]any{{"Acme/Calc"}}},
	}}

	out, err := newGraphRetriever(gen, exec, 3).Retrieve(context.Background(), "q")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(out.Attempts) != 2 {
		t.Fatalf("expected 2 attempts, got %+v", out.Attempts)
	}
	if out.Attempts[0].Outcome != models.AttemptRejected {
		t.Errorf("first attempt should be rejected, got %s", out.Attempts[0].Outcome)
	}
	if out.Attempts[1].Outcome != models.AttemptAccepted {
		t.Errorf("second attempt should be accepted, got %s", out.Attempts[1].Outcome)
	}

	// The repair prompt must carry the rejected query and the reason.
	if len(gen.prompts) != 2 || !strings.Contains(gen.prompts[1], "DROP TABLE code_nodes") {
		t.Errorf("repair prompt missing rejected query: %q", gen.prompts)
	}

	// The rejected query must never reach the executor.
	for _, q := range exec.executed {
		if strings.Contains(q, "DROP") {
			t.Fatalf("rejected query was executed: %q", q)
		}
	}
}

func TestGraphRetrieveRepairsServerSideFailure(t *testing.T) {
	bad := "SELECT nope FROM code_nodes LIMIT 5"
	good := "SELECT id FROM code_nodes LIMIT 5"
	gen := &scriptedGenerator{completions: []string{bad, good}}
	exec := &scriptedExecutor{
		errs: map[string]error{
			bad: &models.QueryValidationError{Query: bad, Reason: `postgres: column "nope" does not exist`},
		},
		results: map[string]*store.StructuralResult{
			good: {Columns: []string{"id"}, Rows: [][]any{{"Acme/Calc"}}},
		},
	}

	out, err := newGraphRetriever(gen, exec, 3).Retrieve(context.Background(), "q")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if out.Attempts[0].Outcome != models.AttemptFailed {
		t.Errorf("server-side failure should log as failed, got %s", out.Attempts[0].Outcome)
	}
	if len(out.Results) != 1 {
		t.Errorf("expected repaired query results, got %d", len(out.Results))
	}
}

func TestGraphRetrieveExhaustedBudgetYieldsEmpty(t *testing.T) {
	gen := &scriptedGenerator{completions: []string{
		"DELETE FROM code_nodes",
		"TRUNCATE code_nodes",
	}}
	exec := &scriptedExecutor{}

	out, err := newGraphRetriever(gen, exec, 2).Retrieve(context.Background(), "q")
	if err != nil {
		t.Fatalf("exhaustion must not surface an error: %v", err)
	}

	if gen.calls != 2 {
		t.Errorf("expected exactly maxAttempts generator calls, got %d", gen.calls)
	}
	if len(out.Results) != 0 {
		t.Fatalf("exhausted attempts must yield no results, got %+v", out.Results)
	}
	if len(exec.executed) != 0 {
		t.Errorf("no query should reach the store, got %v", exec.executed)
	}
	if len(out.Attempts) != 2 {
		t.Fatalf("expected 2 logged attempts, got %+v", out.Attempts)
	}
	for i, a := range out.Attempts {
		if a.Outcome != models.AttemptRejected {
			t.Errorf("attempt %d outcome = %s, want rejected", i, a.Outcome)
		}
	}
}

func TestGraphExhaustionLeavesVectorResultsAlone(t *testing.T) {
	gen := &scriptedGenerator{completions: []string{
		"DROP TABLE code_nodes",
		"DROP TABLE code_edges",
	}}

	out, err := newGraphRetriever(gen, &scriptedExecutor{}, 2).Retrieve(context.Background(), "where is bar?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	vector := []models.RetrievalResult{
		{Source: models.SourceVector, EntityID: "Acme/B/Bar", Score: 0.92},
		{Source: models.SourceVector, EntityID: "Acme/A/Foo", Score: 0.31},
	}

	fused := Fuse(out.Results, vector, 1)
	if len(fused) != 1 || fused[0].EntityID != "Acme/B/Bar" {
		t.Fatalf("fused = %+v, want only the top vector hit", fused)
	}
}

func TestGraphRetrieveEmptyRowsTriggerRetry(t *testing.T) {
	empty := "SELECT id FROM code_nodes WHERE name = 'Missing' LIMIT 5"
	good := "SELECT id FROM code_nodes LIMIT 5"
	gen := &scriptedGenerator{completions: []string{empty, good}}
	exec := &scriptedExecutor{results: map[string]*store.StructuralResult{
		empty: {Columns: []string{"id"}},
		good:  {Columns: []string{"id"}, Rows: [][]any{{"Acme/Calc"}}},
	}}

	out, err := newGraphRetriever(gen, exec, 3).Retrieve(context.Background(), "q")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if out.Attempts[0].Outcome != models.AttemptEmpty {
		t.Errorf("expected an empty outcome first, got %s", out.Attempts[0].Outcome)
	}
	if len(out.Results) != 1 {
		t.Errorf("expected results from the second attempt, got %d", len(out.Results))
	}
}

func TestGraphRetrieveStripsCodeFences(t *testing.T) {
	gen := &scriptedGenerator{completions: []string{
		"```sql\nSELECT id FROM code_nodes LIMIT 5\n```",
	}}
	exec := &scriptedExecutor{results: map[string]*store.StructuralResult{
		"SELECT id FROM code_nodes LIMIT 5": {Columns: []string{"id"}, Rows: [][]any{{"Acme/Calc"}}},
	}}

	out, err := newGraphRetriever(gen, exec, 3).Retrieve(context.Background(), "q")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.Results) != 1 {
		t.Errorf("fenced query should still execute, got %+v", out.Attempts)
	}
}

func TestGraphRetrieveCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	gen := &scriptedGenerator{completions: []string{"SELECT id FROM code_nodes LIMIT 5"}}

	_, err := newGraphRetriever(gen, &scriptedExecutor{}, 3).Retrieve(ctx, "q")
	if err == nil {
		t.Fatal("expected an error for a cancelled context")
	}
	if gen.calls != 0 {
		t.Errorf("no generation should happen after cancellation, got %d calls", gen.calls)
	}
}
