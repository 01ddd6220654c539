package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fundlens/fundlens-backend/internal/http/response"
	"github.com/fundlens/fundlens-backend/internal/services"
	"github.com/fundlens/fundlens-backend/internal/types"
)

type IngestHandler struct {
	svc services.AnalysisService
}

func NewIngestHandler(svc services.AnalysisService) *IngestHandler {
	return &IngestHandler{svc: svc}
}

type ingestRequest struct {
	Records []types.GrantRecord `json:"records"`
}

// POST /api/grants/ingest
func (h *IngestHandler) Ingest(c *gin.Context) {
	var body ingestRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	if len(body.Records) == 0 {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", fmt.Errorf("records required"))
		return
	}

	summary, err := h.svc.Ingest(c.Request.Context(), nil, body.Records)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	response.RespondOK(c, summary)
}
