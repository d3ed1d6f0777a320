package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/codelens-ai/codelens/internal/dbpool"
	"github.com/codelens-ai/codelens/internal/middleware"
)

// RouterDeps holds all dependencies needed by the router.
type RouterDeps struct {
	Log                 *logrus.Logger
	Pool                *dbpool.Pool
	Answerer            Answerer
	Ingester            Ingester
	Nodes               NodeReader
	CORSOrigins         []string
	Version             string
	OllamaURL           string
	EmbeddingModel      string
	EmbeddingDimensions int
}

// Router-level limits. Ingest uploads whole source trees, so the body cap
// is generous compared to query traffic.
const (
	maxBodySize = 50 << 20 // 50 MB
	rateLimit   = 100      // requests per second per IP
	rateBurst   = 200      // token bucket burst size
)

// setupMiddleware configures all middleware on the Gin engine.
func setupMiddleware(ctx context.Context, r *gin.Engine, deps *RouterDeps) {
	r.SetTrustedProxies(nil) //nolint:errcheck // nil always succeeds.
	r.Use(middleware.RequestID(deps.Log))
	r.Use(ginLogger(deps.Log))
	r.Use(gin.Recovery())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.MaxBodySize(maxBodySize))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     deps.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type"},
		MaxAge:           1 * time.Hour,
		AllowCredentials: false,
	}))
	r.Use(middleware.NewRateLimiter(ctx, rateLimit, rateBurst).Handler())
	r.Use(middleware.PrometheusMiddleware())

	// Metrics endpoint (unauthenticated, like health).
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// registerRoutes sets up all API route handlers on the given router group.
func registerRoutes(api *gin.RouterGroup, deps *RouterDeps) {
	log := deps.Log

	health := NewHealthHandler(deps.Pool, deps.Nodes, log, deps.Version,
		deps.OllamaURL, deps.EmbeddingModel, deps.EmbeddingDimensions)
	query := NewQueryHandler(deps.Answerer, log)
	ingest := NewIngestHandler(deps.Ingester, log)
	nodes := NewNodeHandler(deps.Nodes, log)

	api.GET("/health", health.Liveness)
	api.GET("/ready", health.Readiness)

	// Retrieval.
	api.POST("/query", query.Answer)

	// Ingestion.
	api.POST("/ingest", ingest.Ingest)

	// Graph browsing. Node IDs are qualified paths containing slashes, so
	// single-node lookups take the ID as a query parameter.
	api.GET("/graph/nodes", nodes.List)
	api.GET("/graph/node", nodes.Get)
	api.GET("/graph/node/edges", nodes.Edges)
}

// NewRouter creates and configures the Gin engine with all middleware and routes.
func NewRouter(ctx context.Context, deps *RouterDeps) http.Handler {
	r := gin.New()
	setupMiddleware(ctx, r, deps)
	registerRoutes(r.Group("/api/v1"), deps)

	return r
}
