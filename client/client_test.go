package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/codelens-ai/codelens/internal/models"
)

func TestQueryRoundTrip(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/query" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}

		var req QueryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if req.Question != "what does bar do" || req.Filter.Class != "B" {
			t.Errorf("unexpected request payload %+v", req)
		}

		json.NewEncoder(w).Encode(models.Context{ //nolint:errcheck // test server.
			Question: req.Question,
			Answer:   "Bar resets the total.",
		})
	}))
	defer server.Close()

	c := New(server.URL)

	ctx, err := c.Query(context.Background(), QueryRequest{
		Question: "what does bar do",
		Filter:   QueryFilter{Class: "B"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ctx.Answer != "Bar resets the total." {
		t.Errorf("unexpected answer %q", ctx.Answer)
	}
}

func TestIngestRoundTrip(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/ingest" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}

		json.NewEncoder(w).Encode(models.IngestReport{Nodes: 4, Edges: 3, Chunks: 6}) //nolint:errcheck // test server.
	}))
	defer server.Close()

	report, err := New(server.URL).Ingest(context.Background(),
		[]models.SourceUnit{{Path: "Calc.cs", Content: "namespace Acme {}"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Nodes != 4 {
		t.Errorf("unexpected report %+v", report)
	}
}

func TestAPIErrorDecoding(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{ //nolint:errcheck // test server.
			"code":       "insufficient_context",
			"message":    "no relevant context found for the question",
			"request_id": "req-1",
		})
	}))
	defer server.Close()

	_, err := New(server.URL).Query(context.Background(), QueryRequest{Question: "q"})
	if err == nil {
		t.Fatal("expected an error")
	}

	if !IsNotFound(err) {
		t.Errorf("expected a not-found classification, got %v", err)
	}

	apiErr, ok := err.(*APIError)
	if !ok || apiErr.Code != "insufficient_context" || apiErr.RequestID != "req-1" {
		t.Errorf("unexpected error payload %+v", err)
	}
}

func TestGraphGetEscapesQualifiedPath(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("id"); got != "Acme/Calc/Run" {
			t.Errorf("unexpected id %q", got)
		}

		json.NewEncoder(w).Encode(models.CodeNode{ID: "Acme/Calc/Run", Kind: models.KindMethod}) //nolint:errcheck // test server.
	}))
	defer server.Close()

	node, err := New(server.URL).Graph.Get(context.Background(), "Acme/Calc/Run")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if node.Kind != models.KindMethod {
		t.Errorf("unexpected node %+v", node)
	}
}
