package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/codelens-ai/codelens/internal/models"
	"github.com/codelens-ai/codelens/internal/store"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)

	return log
}

// stubAnswerer returns a canned context, recording the last call.
type stubAnswerer struct {
	out      *models.Context
	err      error
	question string
	filter   store.ChunkFilter
}

func (s *stubAnswerer) Answer(_ context.Context, question string, filter store.ChunkFilter) (*models.Context, error) {
	s.question = question
	s.filter = filter

	return s.out, s.err
}

// stubIngester returns a canned report.
type stubIngester struct {
	out   *models.IngestReport
	err   error
	units []models.SourceUnit
}

func (s *stubIngester) Ingest(_ context.Context, units []models.SourceUnit) (*models.IngestReport, error) {
	s.units = units

	return s.out, s.err
}

// stubNodeReader serves nodes from a map.
type stubNodeReader struct {
	nodes map[string]*models.CodeNode
	edges []models.Edge
	err   error
}

func (s *stubNodeReader) GetNode(_ context.Context, id string) (*models.CodeNode, error) {
	if s.err != nil {
		return nil, s.err
	}

	n, ok := s.nodes[id]
	if !ok {
		return nil, models.ErrNodeNotFound
	}

	return n, nil
}

func (s *stubNodeReader) ListNodes(_ context.Context, kind, namespace string, limit, offset int) ([]models.CodeNode, error) {
	if s.err != nil {
		return nil, s.err
	}

	var out []models.CodeNode
	for _, n := range s.nodes {
		if kind != "" && string(n.Kind) != kind {
			continue
		}
		if namespace != "" && n.Namespace != namespace {
			continue
		}

		out = append(out, *n)
	}

	models.SortNodes(out)

	return out, nil
}

func (s *stubNodeReader) ListEdges(_ context.Context, nodeID string) ([]models.Edge, error) {
	if s.err != nil {
		return nil, s.err
	}

	var out []models.Edge
	for _, e := range s.edges {
		if e.Source == nodeID || e.Target == nodeID {
			out = append(out, e)
		}
	}

	return out, nil
}

func (s *stubNodeReader) Counts(_ context.Context) (int64, int64, error) {
	return int64(len(s.nodes)), int64(len(s.edges)), nil
}

// newTestRouter builds a router with rate limiting sized for tests.
func newTestRouter(t *testing.T, deps *RouterDeps) http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)

	if deps.Log == nil {
		deps.Log = testLogger()
	}
	if deps.CORSOrigins == nil {
		deps.CORSOrigins = []string{"http://localhost:3000"}
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	return NewRouter(ctx, deps)
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshaling request body: %v", err)
		}

		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, into any) {
	t.Helper()

	if err := json.Unmarshal(w.Body.Bytes(), into); err != nil {
		t.Fatalf("decoding response %q: %v", w.Body.String(), err)
	}
}
