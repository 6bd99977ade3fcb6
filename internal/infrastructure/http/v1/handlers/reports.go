package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"memorial/internal/core/apperror"
	"memorial/internal/domain/reports"
	"memorial/internal/infrastructure/http/v1/dto"
)

// ReportsHandler handles HTTP requests for reports.
type ReportsHandler struct {
	*BaseHandler
	service *reports.Service
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(base *BaseHandler, service *reports.Service) *ReportsHandler {
	return &ReportsHandler{
		BaseHandler: base,
		service:     service,
	}
}

// GetAgentCommissions handles GET /reports/commissions
func (h *ReportsHandler) GetAgentCommissions(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CommissionsReportRequest
	if !h.BindQuery(c, &req) {
		return
	}

	var filter reports.CommissionsFilter
	if req.FromDate != "" {
		t, err := time.Parse(time.RFC3339, req.FromDate)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid from format, expected RFC3339"))
			return
		}
		filter.FromDate = t
	}
	if req.ToDate != "" {
		t, err := time.Parse(time.RFC3339, req.ToDate)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid to format, expected RFC3339"))
			return
		}
		filter.ToDate = t
	}

	report, err := h.service.AgentCommissions(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

// GetContractSummary handles GET /reports/contracts
func (h *ReportsHandler) GetContractSummary(c *gin.Context) {
	summary, err := h.service.ContractSummary(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// RegisterRoutes registers report routes.
func (h *ReportsHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/commissions", h.GetAgentCommissions)
	rg.GET("/contracts", h.GetContractSummary)
}
