// Package llm wraps the Ollama HTTP API behind small interfaces for
// embedding and text generation. Callers in the retrieval and indexing
// layers depend on the interfaces, never on Ollama directly.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"
)

const embedTimeout = 30 * time.Second

// Circuit breaker configuration.
const (
	cbFailureThreshold = 5
	cbCooldown         = 30 * time.Second
)

// Circuit breaker states.
const (
	cbClosed   = iota // Normal operation.
	cbOpen            // Fail fast.
	cbHalfOpen        // Probe with one request.
)

// ErrCircuitOpen is returned when the circuit breaker is open and requests
// are being rejected without calling the model server.
var ErrCircuitOpen = errors.New("ollama circuit breaker is open")

// Embedder produces vector embeddings for text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// OllamaEmbedder generates embeddings via the Ollama API. A shared circuit
// breaker protects both single and batch calls: when Ollama is down, bulk
// indexing fails fast instead of timing out chunk by chunk.
type OllamaEmbedder struct {
	baseURL string
	model   string
	client  *http.Client

	mu              sync.Mutex
	cbState         int
	cbFailures      int
	cbLastFailureAt time.Time
}

type embedRequest struct {
	Model string `json:"model"`
	Input any    `json:"input"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// NewOllamaEmbedder creates an OllamaEmbedder for the given endpoint and model.
func NewOllamaEmbedder(baseURL, model string) *OllamaEmbedder {
	return &OllamaEmbedder{
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{Timeout: embedTimeout, Transport: loopbackTransport()},
		cbState: cbClosed,
	}
}

// loopbackTransport restricts outbound connections to localhost. The model
// server is always co-located; a URL pointing anywhere else is a
// misconfiguration, not a feature.
func loopbackTransport() *http.Transport {
	return &http.Transport{
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			host, _, err := net.SplitHostPort(addr)
			if err != nil {
				return nil, fmt.Errorf("invalid address: %w", err)
			}

			ips, err := net.DefaultResolver.LookupIPAddr(ctx, host)
			if err != nil {
				return nil, fmt.Errorf("resolving model host: %w", err)
			}

			for _, ip := range ips {
				if !ip.IP.IsLoopback() {
					return nil, fmt.Errorf("model server connections restricted to localhost")
				}
			}

			return (&net.Dialer{}).DialContext(ctx, network, addr)
		},
	}
}

// Embed produces a vector embedding for one text.
func (e *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.embed(ctx, text, 1)
	if err != nil {
		return nil, err
	}

	return vectors[0], nil
}

// EmbedBatch produces embeddings for several texts in one round trip.
// The result has one vector per input, in input order.
func (e *OllamaEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	return e.embed(ctx, texts, len(texts))
}

func (e *OllamaEmbedder) embed(ctx context.Context, input any, want int) ([][]float32, error) {
	if err := e.cbAllow(); err != nil {
		return nil, err
	}

	vectors, err := e.doEmbed(ctx, input)
	if err != nil {
		e.cbRecordFailure()

		return nil, err
	}

	if len(vectors) != want {
		e.cbRecordFailure()

		return nil, fmt.Errorf("ollama returned %d embeddings for %d inputs", len(vectors), want)
	}

	e.cbRecordSuccess()

	return vectors, nil
}

func (e *OllamaEmbedder) doEmbed(ctx context.Context, input any) ([][]float32, error) {
	body, err := json.Marshal(embedRequest{Model: e.model, Input: input})
	if err != nil {
		return nil, fmt.Errorf("marshaling embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/api/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating embed request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling ollama embed API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain body so the connection can be reused.
		io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20)) //nolint:errcheck // best-effort drain before close.
		return nil, fmt.Errorf("ollama embed API returned status %d", resp.StatusCode)
	}

	var result embedResponse

	limited := io.LimitReader(resp.Body, 10<<20) // 10 MB
	if err := json.NewDecoder(limited).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding embed response: %w", err)
	}

	if len(result.Embeddings) == 0 {
		return nil, fmt.Errorf("ollama returned empty embeddings")
	}

	return result.Embeddings, nil
}

// cbAllow checks whether the circuit breaker permits a request.
// In closed state, all requests pass. In open state, requests are rejected
// until the cooldown expires, at which point we transition to half-open.
// In half-open state, one probe request is allowed.
func (e *OllamaEmbedder) cbAllow() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.cbState {
	case cbClosed:
		return nil
	case cbOpen:
		if time.Since(e.cbLastFailureAt) >= cbCooldown {
			e.cbState = cbHalfOpen

			return nil
		}

		return ErrCircuitOpen
	case cbHalfOpen:
		// Already probing — reject additional requests.
		return ErrCircuitOpen
	}

	return nil
}

// cbRecordSuccess records a successful call. In half-open state this closes
// the circuit breaker, restoring normal operation.
func (e *OllamaEmbedder) cbRecordSuccess() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.cbFailures = 0
	e.cbState = cbClosed
}

// cbRecordFailure records a failed call. After reaching the failure threshold
// the circuit breaker transitions to open state.
func (e *OllamaEmbedder) cbRecordFailure() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.cbFailures++
	e.cbLastFailureAt = time.Now()

	if e.cbFailures >= cbFailureThreshold || e.cbState == cbHalfOpen {
		e.cbState = cbOpen
	}
}
