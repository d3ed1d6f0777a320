package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/codelens-ai/codelens/internal/models"
	"github.com/codelens-ai/codelens/internal/store"
)

// maxQuestionLength bounds the accepted question size.
const maxQuestionLength = 2000

// QueryHandler serves the retrieval endpoint.
type QueryHandler struct {
	answerer Answerer
	log      *logrus.Logger
}

// NewQueryHandler creates a QueryHandler.
func NewQueryHandler(answerer Answerer, log *logrus.Logger) *QueryHandler {
	return &QueryHandler{answerer: answerer, log: log}
}

// queryRequest is the POST /query payload. The optional filter narrows
// the vector path to matching chunks.
type queryRequest struct {
	Question string `json:"question" binding:"required"`
	Filter   struct {
		Kind      string `json:"kind"`
		Namespace string `json:"namespace"`
		Class     string `json:"class"`
		Method    string `json:"method"`
		FilePath  string `json:"file_path"`
	} `json:"filter"`
}

// Answer handles POST /api/v1/query.
func (h *QueryHandler) Answer(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "question is required")

		return
	}

	req.Question = strings.TrimSpace(req.Question)
	if req.Question == "" || len(req.Question) > maxQuestionLength {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "question must be 1-2000 characters")

		return
	}

	filter := store.ChunkFilter{
		Kind:      req.Filter.Kind,
		Namespace: req.Filter.Namespace,
		Class:     req.Filter.Class,
		Method:    req.Filter.Method,
		FilePath:  req.Filter.FilePath,
	}

	result, err := h.answerer.Answer(c.Request.Context(), req.Question, filter)
	if err != nil {
		if errors.Is(err, models.ErrInsufficientContext) {
			respondError(c, http.StatusNotFound, ErrCodeInsufficientContext,
				"no relevant context found for the question")

			return
		}

		h.log.WithError(err).Error("answering query")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")

		return
	}

	c.JSON(http.StatusOK, result)
}
