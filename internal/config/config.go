// Package config provides environment-driven configuration for codelens.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Secret wraps a sensitive string to prevent accidental logging or marshalling.
type Secret string

// String implements fmt.Stringer, returning a redacted placeholder.
func (s Secret) String() string { return "[REDACTED]" }

// GoString implements fmt.GoStringer, returning a redacted placeholder.
func (s Secret) GoString() string { return "[REDACTED]" }

// MarshalText implements encoding.TextMarshaler, returning a redacted placeholder.
func (s Secret) MarshalText() ([]byte, error) { return []byte("[REDACTED]"), nil }

// Value returns the underlying secret string.
func (s Secret) Value() string { return string(s) }

// Config holds all application configuration values.
type Config struct {
	DatabaseURL Secret
	Port        string
	ListenHost  string
	CORSOrigins []string
	LogLevel    string

	OllamaURL           string
	EmbeddingModel      string
	EmbeddingDimensions int
	GenerationModel     string

	EmbedWorkers    int
	EmbedRetries    int
	ChunkSize       int
	ChunkOverlap    int
	GraphMaxAttempt int
	GraphRowCap     int
	VectorK         int
	RewriteThresh   float64
	FusionMaxTotal  int
	RetrievalBudget time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:     Secret(envOrDefault("DATABASE_URL", "")),
		Port:            envOrDefault("PORT", "3040"),
		ListenHost:      envOrDefault("LISTEN_HOST", "127.0.0.1"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		OllamaURL:       envOrDefault("OLLAMA_URL", "http://localhost:11434"),
		EmbeddingModel:  envOrDefault("EMBEDDING_MODEL", "all-minilm"),
		GenerationModel: envOrDefault("GENERATION_MODEL", "mistral"),
	}

	intFields := []struct {
		dst      *int
		env      string
		fallback int
		min, max int
	}{
		{&cfg.EmbeddingDimensions, "EMBEDDING_DIMENSIONS", 384, 1, 4096},
		{&cfg.EmbedWorkers, "EMBED_WORKERS", 4, 1, 16},
		{&cfg.EmbedRetries, "EMBED_RETRIES", 2, 0, 10},
		{&cfg.ChunkSize, "CHUNK_SIZE", 500, 50, 8192},
		{&cfg.ChunkOverlap, "CHUNK_OVERLAP", 100, 0, 4096},
		{&cfg.GraphMaxAttempt, "GRAPH_MAX_ATTEMPTS", 3, 1, 10},
		{&cfg.GraphRowCap, "GRAPH_ROW_CAP", 25, 1, 500},
		{&cfg.VectorK, "VECTOR_K", 7, 1, 100},
		{&cfg.FusionMaxTotal, "FUSION_MAX_TOTAL", 10, 1, 100},
	}

	for _, f := range intFields {
		v, err := strconv.Atoi(envOrDefault(f.env, strconv.Itoa(f.fallback)))
		if err != nil || v < f.min || v > f.max {
			return nil, fmt.Errorf("%s must be an integer between %d and %d", f.env, f.min, f.max)
		}

		*f.dst = v
	}

	thresh, err := strconv.ParseFloat(envOrDefault("VECTOR_REWRITE_THRESHOLD", "0.35"), 64)
	if err != nil || thresh < -1 || thresh > 1 {
		return nil, fmt.Errorf("VECTOR_REWRITE_THRESHOLD must be a number in [-1, 1]")
	}
	cfg.RewriteThresh = thresh

	budgetMS, err := strconv.Atoi(envOrDefault("RETRIEVAL_BUDGET_MS", "30000"))
	if err != nil || budgetMS < 100 || budgetMS > 600000 {
		return nil, fmt.Errorf("RETRIEVAL_BUDGET_MS must be an integer between 100 and 600000")
	}
	cfg.RetrievalBudget = time.Duration(budgetMS) * time.Millisecond

	origins := envOrDefault("CORS_ORIGINS", "http://localhost:3002")
	cfg.CORSOrigins = strings.Split(origins, ",")

	for i, o := range cfg.CORSOrigins {
		cfg.CORSOrigins[i] = strings.TrimSpace(o)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// Addr returns the listen address in host:port format.
func (c *Config) Addr() string {
	return c.ListenHost + ":" + c.Port
}

func (c *Config) validate() error {
	if err := c.validateDatabase(); err != nil {
		return err
	}

	if err := c.validateNetwork(); err != nil {
		return err
	}

	if err := c.validateOllama(); err != nil {
		return err
	}

	return c.validateRetrieval()
}

func (c *Config) validateDatabase() error {
	if c.DatabaseURL.Value() == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	u, err := url.Parse(c.DatabaseURL.Value())
	if err != nil {
		return fmt.Errorf("DATABASE_URL is not a valid URL")
	}

	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return fmt.Errorf("DATABASE_URL must use postgres:// or postgresql:// scheme")
	}

	return nil
}

func (c *Config) validateNetwork() error {
	port, err := strconv.Atoi(c.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("PORT must be a number between 1 and 65535")
	}

	for _, o := range c.CORSOrigins {
		if o == "*" {
			return fmt.Errorf("CORS_ORIGINS must not contain a wildcard origin")
		}
	}

	return nil
}

func (c *Config) validateOllama() error {
	u, err := url.Parse(c.OllamaURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("OLLAMA_URL must be a valid http(s) URL")
	}

	if c.EmbeddingModel == "" {
		return fmt.Errorf("EMBEDDING_MODEL is required")
	}

	if c.GenerationModel == "" {
		return fmt.Errorf("GENERATION_MODEL is required")
	}

	return nil
}

func (c *Config) validateRetrieval() error {
	if c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("CHUNK_OVERLAP must be smaller than CHUNK_SIZE")
	}

	return nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}
