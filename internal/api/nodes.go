package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/codelens-ai/codelens/internal/models"
)

// NodeHandler serves graph browsing endpoints.
type NodeHandler struct {
	repo NodeReader
	log  *logrus.Logger
}

// NewNodeHandler creates a NodeHandler.
func NewNodeHandler(repo NodeReader, log *logrus.Logger) *NodeHandler {
	return &NodeHandler{repo: repo, log: log}
}

// List handles GET /api/v1/graph/nodes.
func (h *NodeHandler) List(c *gin.Context) {
	kind := c.Query("kind")
	if kind != "" && !models.NodeKind(kind).Valid() {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "kind must be namespace, class, or method")

		return
	}

	namespace := c.Query("namespace")
	limit := parseInt(c.DefaultQuery("limit", "100"), 100)
	offset := parseOffset(c.DefaultQuery("offset", "0"))

	nodes, err := h.repo.ListNodes(c.Request.Context(), kind, namespace, limit, offset)
	if err != nil {
		h.log.WithError(err).Error("listing nodes")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")

		return
	}

	c.JSON(http.StatusOK, gin.H{"nodes": nodes, "count": len(nodes)})
}

// Get handles GET /api/v1/graph/node?id=<qualified path>.
func (h *NodeHandler) Get(c *gin.Context) {
	id := c.Query("id")
	if err := validatePathID(id); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	node, err := h.repo.GetNode(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrNodeNotFound) {
			respondError(c, http.StatusNotFound, ErrCodeNotFound, "node not found")

			return
		}

		h.log.WithError(err).Error("fetching node")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")

		return
	}

	c.JSON(http.StatusOK, node)
}

// Edges handles GET /api/v1/graph/node/edges?id=<qualified path>.
func (h *NodeHandler) Edges(c *gin.Context) {
	id := c.Query("id")
	if err := validatePathID(id); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	edges, err := h.repo.ListEdges(c.Request.Context(), id)
	if err != nil {
		h.log.WithError(err).Error("listing edges")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")

		return
	}

	c.JSON(http.StatusOK, gin.H{"edges": edges, "count": len(edges)})
}
