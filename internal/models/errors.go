package models

import (
	"errors"
	"fmt"
)

// Sentinel errors for entity lookups.
var (
	ErrNodeNotFound  = errors.New("node not found")
	ErrChunkNotFound = errors.New("chunk not found")
)

// ErrInsufficientContext is returned when neither retrieval path yields
// any candidate; the caller must surface this instead of generating an
// answer from nothing.
var ErrInsufficientContext = errors.New("insufficient context")

// ErrBudgetExceeded marks a retrieval that ran out of its wall-clock
// budget. It degrades to partial results and never propagates past the
// orchestrator.
var ErrBudgetExceeded = errors.New("retrieval budget exceeded")

// ErrStoreUnavailable marks a transport or connection failure to a
// backing store. Fatal for that retriever's contribution, not for the
// request.
var ErrStoreUnavailable = errors.New("store unavailable")

// ParseError reports a single source unit that could not be parsed.
// It never aborts the batch: failed units are skipped and reported.
type ParseError struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %s", e.Path, e.Reason)
}

// QueryValidationError reports a generated structural query rejected by
// the allow-list validator. It triggers the repair loop and is only
// surfaced once attempts are exhausted.
type QueryValidationError struct {
	Query  string
	Reason string
}

func (e *QueryValidationError) Error() string {
	return "invalid structural query: " + e.Reason
}

// DimensionMismatchError reports an embedding dimensionality that does not
// match the vector store schema. This is a configuration error detected at
// startup, never at query time.
type DimensionMismatchError struct {
	Configured int
	Stored     int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("embedding dimension mismatch: configured %d, store has %d", e.Configured, e.Stored)
}
