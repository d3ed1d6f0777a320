package retrieval

import (
	"context"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/codelens-ai/codelens/internal/llm"
	"github.com/codelens-ai/codelens/internal/models"
	"github.com/codelens-ai/codelens/internal/store"
)

// ChunkSearcher runs similarity search over the chunk index.
type ChunkSearcher interface {
	SemanticSearch(ctx context.Context, embedding []float32, filter store.ChunkFilter, limit int) ([]models.ScoredChunk, error)
}

// VectorRetriever searches chunk embeddings for a question, with one
// recall-oriented query rewrite when the initial results look weak.
type VectorRetriever struct {
	embedder  llm.Embedder
	generator llm.Generator
	searcher  ChunkSearcher
	log       *logrus.Logger

	k                int
	rewriteThreshold float64
}

// VectorResult carries the vector path's contribution plus the chunk IDs
// behind it for provenance.
type VectorResult struct {
	Results  []models.RetrievalResult
	ChunkIDs []string
	// Rewritten holds the reformulated query when the rewrite won, empty
	// otherwise.
	Rewritten string
}

// NewVectorRetriever wires the vector retrieval path.
func NewVectorRetriever(
	embedder llm.Embedder,
	generator llm.Generator,
	searcher ChunkSearcher,
	log *logrus.Logger,
	k int,
	rewriteThreshold float64,
) *VectorRetriever {
	return &VectorRetriever{
		embedder:         embedder,
		generator:        generator,
		searcher:         searcher,
		log:              log,
		k:                k,
		rewriteThreshold: rewriteThreshold,
	}
}

// Retrieve embeds the question and searches the chunk index. When the
// best similarity falls below the rewrite threshold, the question is
// reformulated once and the better-scoring result set wins; ties keep the
// original. A non-empty filter that matches nothing is retried unfiltered
// before any rewrite.
func (r *VectorRetriever) Retrieve(ctx context.Context, question string, filter store.ChunkFilter) (*VectorResult, error) {
	chunks, err := r.search(ctx, question, filter)
	if err != nil {
		return nil, err
	}

	out := &VectorResult{}

	if topScore(chunks) < r.rewriteThreshold {
		rewritten, rchunks, rerr := r.rewriteAndSearch(ctx, question, filter)
		if rerr != nil {
			// The rewrite is an optimization; weak originals still count.
			r.log.WithError(rerr).Warn("query rewrite failed, keeping original results")
		} else if topScore(rchunks) > topScore(chunks) {
			chunks = rchunks
			out.Rewritten = rewritten
		}
	}

	out.Results, out.ChunkIDs = chunksToResults(chunks)

	return out, nil
}

// search runs one embed+search pass. A filtered search that comes back
// empty falls back to the unfiltered index: a wrong filter guess must not
// blind the whole path.
func (r *VectorRetriever) search(ctx context.Context, query string, filter store.ChunkFilter) ([]models.ScoredChunk, error) {
	embedding, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	chunks, err := r.searcher.SemanticSearch(ctx, embedding, filter, r.k)
	if err != nil {
		return nil, fmt.Errorf("semantic search: %w", err)
	}

	if len(chunks) == 0 && !filter.Empty() {
		r.log.WithField("filter", fmt.Sprintf("%+v", filter)).
			Debug("filtered search empty, retrying unfiltered")

		chunks, err = r.searcher.SemanticSearch(ctx, embedding, store.ChunkFilter{}, r.k)
		if err != nil {
			return nil, fmt.Errorf("unfiltered semantic search: %w", err)
		}
	}

	return chunks, nil
}

func (r *VectorRetriever) rewriteAndSearch(ctx context.Context, question string, filter store.ChunkFilter) (string, []models.ScoredChunk, error) {
	rewritten, err := r.generator.Generate(ctx, rewriteSystem, rewritePrompt(question))
	if err != nil {
		return "", nil, fmt.Errorf("rewriting query: %w", err)
	}

	rewritten = stripFences(rewritten)

	chunks, err := r.search(ctx, rewritten, filter)
	if err != nil {
		return "", nil, err
	}

	return rewritten, chunks, nil
}

// chunksToResults collapses chunks onto their owning nodes, keeping each
// node's best-scoring chunk, then orders by score descending with entity
// ID as the deterministic tiebreak.
func chunksToResults(chunks []models.ScoredChunk) ([]models.RetrievalResult, []string) {
	best := map[string]models.ScoredChunk{}
	chunkIDs := make([]string, 0, len(chunks))

	for _, c := range chunks {
		chunkIDs = append(chunkIDs, c.ID)

		if prev, ok := best[c.NodeID]; !ok || c.Score > prev.Score {
			best[c.NodeID] = c
		}
	}

	results := make([]models.RetrievalResult, 0, len(best))
	for nodeID, c := range best {
		results = append(results, models.RetrievalResult{
			Source:   models.SourceVector,
			EntityID: nodeID,
			Snippet:  truncate(c.Text, snippetLimit),
			Score:    c.Score,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}

		return results[i].EntityID < results[j].EntityID
	})

	for i := range results {
		results[i].Rank = i + 1
	}

	return results, chunkIDs
}

// topScore returns the best similarity in a result set, 0 when empty.
func topScore(chunks []models.ScoredChunk) float64 {
	top := 0.0
	for _, c := range chunks {
		if c.Score > top {
			top = c.Score
		}
	}

	return top
}
