package api

import (
	"context"

	"github.com/codelens-ai/codelens/internal/models"
	"github.com/codelens-ai/codelens/internal/store"
)

// Answerer answers questions over the indexed codebase.
type Answerer interface {
	Answer(ctx context.Context, question string, filter store.ChunkFilter) (*models.Context, error)
}

// Ingester rebuilds the graph and chunk index from source units.
type Ingester interface {
	Ingest(ctx context.Context, units []models.SourceUnit) (*models.IngestReport, error)
}

// NodeReader serves graph browsing endpoints.
type NodeReader interface {
	GetNode(ctx context.Context, id string) (*models.CodeNode, error)
	ListNodes(ctx context.Context, kind, namespace string, limit, offset int) ([]models.CodeNode, error)
	ListEdges(ctx context.Context, nodeID string) ([]models.Edge, error)
	Counts(ctx context.Context) (nodes, edges int64, err error)
}
