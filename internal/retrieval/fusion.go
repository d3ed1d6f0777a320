package retrieval

import (
	"github.com/codelens-ai/codelens/internal/metrics"
	"github.com/codelens-ai/codelens/internal/models"
)

// Fuse merges the two retrieval paths deterministically: graph anchors
// lead in their row order, vector results follow by score, and the first
// occurrence of an entity wins. The fused sequence is truncated at
// maxTotal and re-ranked 1..n. No randomness, no model calls: identical
// inputs always fuse identically.
func Fuse(graph, vector []models.RetrievalResult, maxTotal int) []models.RetrievalResult {
	seen := make(map[string]bool, len(graph)+len(vector))
	fused := make([]models.RetrievalResult, 0, maxTotal)

	appendNew := func(results []models.RetrievalResult) {
		for _, r := range results {
			if len(fused) >= maxTotal || seen[r.EntityID] {
				continue
			}

			seen[r.EntityID] = true
			fused = append(fused, r)
		}
	}

	appendNew(graph)
	appendNew(vector)

	for i := range fused {
		fused[i].Rank = i + 1
	}

	metrics.FusedResults.Observe(float64(len(fused)))

	return fused
}
