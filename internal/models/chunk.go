package models

import (
	"strconv"

	"github.com/google/uuid"
)

// chunkIDSpace is the UUID namespace for deterministic chunk IDs.
// Re-chunking unchanged source must yield identical IDs so re-ingestion
// is an idempotent upsert rather than an append.
var chunkIDSpace = uuid.MustParse("6f1c2a44-9d68-4c4e-8f3a-2b7f0d1e5c90")

// ChunkMetadata carries the filterable attributes of a chunk, mirrored
// from its owning node.
type ChunkMetadata struct {
	Kind      string `json:"kind"`
	Namespace string `json:"namespace,omitempty"`
	Class     string `json:"class,omitempty"`
	Method    string `json:"method,omitempty"`
	FilePath  string `json:"file_path,omitempty"`
}

// Chunk is a bounded slice of a node's source text, the unit of semantic
// embedding and retrieval. A chunk has at most one owning node, whose
// attributes drive metadata filtering.
type Chunk struct {
	ID        string        `json:"id"`
	NodeID    string        `json:"node_id"`
	Seq       int           `json:"seq"`
	Text      string        `json:"text"`
	Embedding []float32     `json:"embedding,omitempty"`
	Metadata  ChunkMetadata `json:"metadata"`

	// Degraded marks a chunk whose embedding could not be computed after
	// bounded retries. Degraded chunks are persisted for bookkeeping but
	// never participate in similarity search.
	Degraded bool `json:"degraded,omitempty"`
}

// ChunkID derives the deterministic ID for the seq-th chunk of a node.
func ChunkID(nodeID string, seq int) string {
	return uuid.NewSHA1(chunkIDSpace, []byte(nodeID+"#"+strconv.Itoa(seq))).String()
}

// ScoredChunk pairs a chunk with its similarity score from vector search.
type ScoredChunk struct {
	Chunk
	Score float64 `json:"score"`
}
