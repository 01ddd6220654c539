package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fundlens/fundlens-backend/internal/http/response"
	"github.com/fundlens/fundlens-backend/internal/modules/analysis"
	"github.com/fundlens/fundlens-backend/internal/services"
)

type AnalysisHandler struct {
	svc services.AnalysisService
}

func NewAnalysisHandler(svc services.AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{svc: svc}
}

type runAnalysisRequest struct {
	FoundationIDs  []string `json:"foundation_ids"`
	TaxYears       []int    `json:"tax_years"`
	MinFoundations int      `json:"min_foundations"`
	TimeoutSeconds int      `json:"timeout_seconds"`
}

// POST /api/analysis/run
func (h *AnalysisHandler) Run(c *gin.Context) {
	var body runAnalysisRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}

	req := analysis.Request{
		FoundationIDs:  body.FoundationIDs,
		TaxYears:       body.TaxYears,
		MinFoundations: body.MinFoundations,
		Timeout:        time.Duration(body.TimeoutSeconds) * time.Second,
	}
	result, err := h.svc.Run(c.Request.Context(), nil, req)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	response.RespondOK(c, result)
}
