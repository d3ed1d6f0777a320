package models

// ResultSource tells which retrieval path produced a result.
type ResultSource string

// Retrieval result sources.
const (
	SourceGraph  ResultSource = "graph"
	SourceVector ResultSource = "vector"
)

// RetrievalResult is one candidate entity in the fused context. Graph
// results carry a uniform score of 1.0 (precision signals, ordered by row
// position); vector results carry the similarity score of their best chunk.
type RetrievalResult struct {
	Source   ResultSource `json:"source"`
	EntityID string       `json:"entity_id"`
	Snippet  string       `json:"snippet"`
	Score    float64      `json:"score"`
	Rank     int          `json:"rank"`
}

// StructuralQuery is a validated, executable graph query. Text is the
// read-only SQL accepted by the validator; RowCap bounds the result size
// enforced at execution.
type StructuralQuery struct {
	Text   string `json:"text"`
	RowCap int    `json:"row_cap"`
}

// AttemptOutcome classifies one iteration of the generate/validate/repair loop.
type AttemptOutcome string

// Attempt outcomes.
const (
	AttemptAccepted AttemptOutcome = "accepted"
	AttemptRejected AttemptOutcome = "rejected"
	AttemptFailed   AttemptOutcome = "failed"
	AttemptEmpty    AttemptOutcome = "empty"
)

// QueryAttempt records one generate/validate/execute iteration for
// observability. Attempts are diagnostic only; retrieval correctness never
// depends on them.
type QueryAttempt struct {
	Attempt int            `json:"attempt"`
	Query   string         `json:"query"`
	Outcome AttemptOutcome `json:"outcome"`
	Detail  string         `json:"detail,omitempty"`
}

// Provenance records which entity IDs each retrieval path contributed.
type Provenance struct {
	Graph  []string `json:"graph"`
	Vector []string `json:"vector"`
}

// Context is the final retrieval product handed to generation: the fused,
// deduplicated result sequence plus provenance and the graph attempt log.
type Context struct {
	Question   string            `json:"question"`
	Answer     string            `json:"answer,omitempty"`
	Results    []RetrievalResult `json:"results"`
	Provenance Provenance        `json:"provenance"`
	Attempts   []QueryAttempt    `json:"attempts,omitempty"`
}

// SourceUnit is one file handed to the code graph builder.
type SourceUnit struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// IngestReport summarizes one ingestion run.
type IngestReport struct {
	Nodes     int          `json:"nodes"`
	Edges     int          `json:"edges"`
	Chunks    int          `json:"chunks"`
	Degraded  int          `json:"degraded"`
	Failed    []ParseError `json:"failed,omitempty"`
	DurationS float64      `json:"duration_seconds"`
}
