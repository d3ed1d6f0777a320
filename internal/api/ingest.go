package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/codelens-ai/codelens/internal/models"
)

// maxIngestUnits bounds one ingest request.
const maxIngestUnits = 5000

// IngestHandler serves the ingestion endpoint.
type IngestHandler struct {
	ingester Ingester
	log      *logrus.Logger
}

// NewIngestHandler creates an IngestHandler.
func NewIngestHandler(ingester Ingester, log *logrus.Logger) *IngestHandler {
	return &IngestHandler{ingester: ingester, log: log}
}

// ingestRequest is the POST /ingest payload.
type ingestRequest struct {
	Units []models.SourceUnit `json:"units" binding:"required"`
}

// Ingest handles POST /api/v1/ingest. The request replaces the stored
// index wholesale; it is expected to run as a maintenance operation.
func (h *IngestHandler) Ingest(c *gin.Context) {
	var req ingestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "units are required")

		return
	}

	if len(req.Units) == 0 || len(req.Units) > maxIngestUnits {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "units must contain 1-5000 entries")

		return
	}

	for _, u := range req.Units {
		if strings.TrimSpace(u.Path) == "" {
			respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "every unit needs a path")

			return
		}
	}

	report, err := h.ingester.Ingest(c.Request.Context(), req.Units)
	if err != nil {
		h.log.WithError(err).Error("ingesting source units")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")

		return
	}

	h.log.WithFields(logrus.Fields{
		"units":  len(req.Units),
		"nodes":  report.Nodes,
		"chunks": report.Chunks,
	}).Info("ingest request complete")

	c.JSON(http.StatusOK, report)
}
