package retrieval

import (
	"testing"

	"github.com/codelens-ai/codelens/internal/models"
)

func graphResult(id string, rank int) models.RetrievalResult {
	return models.RetrievalResult{Source: models.SourceGraph, EntityID: id, Score: 1.0, Rank: rank}
}

func vectorResult(id string, score float64) models.RetrievalResult {
	return models.RetrievalResult{Source: models.SourceVector, EntityID: id, Score: score}
}

func TestFuseGraphAnchorsLead(t *testing.T) {
	fused := Fuse(
		[]models.RetrievalResult{graphResult("Acme/A/Foo", 1), graphResult("Acme/B/Bar", 2)},
		[]models.RetrievalResult{vectorResult("Acme/C/Baz", 0.95)},
		10,
	)

	if len(fused) != 3 {
		t.Fatalf("expected 3 results, got %d", len(fused))
	}

	// A high-scoring vector result never displaces a graph anchor.
	wantOrder := []string{"Acme/A/Foo", "Acme/B/Bar", "Acme/C/Baz"}
	for i, want := range wantOrder {
		if fused[i].EntityID != want {
			t.Errorf("position %d: got %s, want %s", i, fused[i].EntityID, want)
		}
		if fused[i].Rank != i+1 {
			t.Errorf("position %d: rank %d not reassigned", i, fused[i].Rank)
		}
	}
}

func TestFuseDedupFirstSeenWins(t *testing.T) {
	fused := Fuse(
		[]models.RetrievalResult{graphResult("Acme/B/Bar", 1)},
		[]models.RetrievalResult{vectorResult("Acme/B/Bar", 0.9), vectorResult("Acme/A/Foo", 0.4)},
		10,
	)

	if len(fused) != 2 {
		t.Fatalf("expected 2 results after dedup, got %d", len(fused))
	}
	if fused[0].Source != models.SourceGraph {
		t.Errorf("the graph occurrence must win the dedup, got %+v", fused[0])
	}
}

func TestFuseTruncatesVectorTailOnly(t *testing.T) {
	fused := Fuse(
		[]models.RetrievalResult{graphResult("Acme/A/Foo", 1), graphResult("Acme/B/Bar", 2)},
		[]models.RetrievalResult{vectorResult("Acme/C/Baz", 0.99), vectorResult("Acme/D/Qux", 0.98)},
		3,
	)

	if len(fused) != 3 {
		t.Fatalf("expected the cap to hold, got %d", len(fused))
	}
	if fused[0].Source != models.SourceGraph || fused[1].Source != models.SourceGraph {
		t.Errorf("truncation must cut the vector tail, never graph anchors: %+v", fused)
	}
	if fused[2].EntityID != "Acme/C/Baz" {
		t.Errorf("highest-scoring vector result should survive, got %s", fused[2].EntityID)
	}
}

func TestFuseEmptyGraphWithCap(t *testing.T) {
	// Question answered by vector search alone under a tight budget.
	fused := Fuse(
		nil,
		[]models.RetrievalResult{vectorResult("Acme/B/Bar", 0.92), vectorResult("Acme/A/Foo", 0.31)},
		1,
	)

	if len(fused) != 1 || fused[0].EntityID != "Acme/B/Bar" {
		t.Errorf("expected exactly [Acme/B/Bar], got %+v", fused)
	}
}

func TestFuseBothEmpty(t *testing.T) {
	if fused := Fuse(nil, nil, 10); len(fused) != 0 {
		t.Errorf("expected no results, got %+v", fused)
	}
}

func TestFuseDeterministic(t *testing.T) {
	graph := []models.RetrievalResult{graphResult("Acme/A/Foo", 1)}
	vector := []models.RetrievalResult{vectorResult("Acme/B/Bar", 0.5), vectorResult("Acme/C/Baz", 0.5)}

	first := Fuse(graph, vector, 10)

	for i := 0; i < 10; i++ {
		again := Fuse(graph, vector, 10)
		for j := range first {
			if again[j].EntityID != first[j].EntityID {
				t.Fatalf("fusion order changed between runs")
			}
		}
	}
}
