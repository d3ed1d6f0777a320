package api

import (
	"net/http"
	"testing"

	"github.com/codelens-ai/codelens/internal/models"
)

func TestIngestOK(t *testing.T) {
	ingester := &stubIngester{out: &models.IngestReport{Nodes: 4, Edges: 3, Chunks: 6}}
	router := newTestRouter(t, &RouterDeps{Ingester: ingester, Nodes: &stubNodeReader{}})

	w := doJSON(t, router, http.MethodPost, "/api/v1/ingest", map[string]any{
		"units": []map[string]string{{"path": "Calc.cs", "content": "namespace Acme {}"}},
	})

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var report models.IngestReport
	decodeBody(t, w, &report)

	if report.Nodes != 4 || report.Chunks != 6 {
		t.Errorf("unexpected report %+v", report)
	}
	if len(ingester.units) != 1 || ingester.units[0].Path != "Calc.cs" {
		t.Errorf("units not forwarded: %+v", ingester.units)
	}
}

func TestIngestValidation(t *testing.T) {
	router := newTestRouter(t, &RouterDeps{Ingester: &stubIngester{}, Nodes: &stubNodeReader{}})

	tests := []struct {
		name string
		body any
	}{
		{"missing units", map[string]any{}},
		{"empty units", map[string]any{"units": []map[string]string{}}},
		{"unit without path", map[string]any{"units": []map[string]string{{"content": "x"}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, router, http.MethodPost, "/api/v1/ingest", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d: %s", w.Code, w.Body.String())
			}
		})
	}
}
