package client

import "github.com/codelens-ai/codelens/internal/models"

// QueryRequest is the payload for Query. The optional filter narrows the
// semantic search to chunks whose metadata matches every set field.
type QueryRequest struct {
	Question string      `json:"question"`
	Filter   QueryFilter `json:"filter,omitempty"`
}

// QueryFilter restricts semantic retrieval by chunk metadata.
type QueryFilter struct {
	Kind      string `json:"kind,omitempty"`
	Namespace string `json:"namespace,omitempty"`
	Class     string `json:"class,omitempty"`
	Method    string `json:"method,omitempty"`
	FilePath  string `json:"file_path,omitempty"`
}

type ingestRequest struct {
	Units []models.SourceUnit `json:"units"`
}

// HealthResponse is the liveness payload.
type HealthResponse struct {
	Status              string  `json:"status"`
	Version             string  `json:"version"`
	Database            string  `json:"database"`
	EmbeddingModel      string  `json:"embedding_model"`
	EmbeddingDimensions int     `json:"embedding_dimensions"`
	UptimeSeconds       float64 `json:"uptime_seconds"`
}

// ReadyResponse is the readiness payload.
type ReadyResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
	Nodes  int64             `json:"nodes"`
	Edges  int64             `json:"edges"`
}

// NodeList is the graph node listing payload.
type NodeList struct {
	Nodes []models.CodeNode `json:"nodes"`
	Count int               `json:"count"`
}

// EdgeList is the node edge listing payload.
type EdgeList struct {
	Edges []models.Edge `json:"edges"`
	Count int           `json:"count"`
}
