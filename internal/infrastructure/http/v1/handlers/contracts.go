package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"memorial/internal/core/apperror"
	"memorial/internal/domain/audit"
	"memorial/internal/domain/billing"
	"memorial/internal/domain/catalog"
	"memorial/internal/infrastructure/http/v1/dto"
)

// CatalogLookup resolves catalog items referenced by a request.
type CatalogLookup interface {
	GetByID(ctx context.Context, id string) (*catalog.Item, error)
}

// ClientChecker reports whether a client exists.
type ClientChecker interface {
	Exists(ctx context.Context, id string) (bool, error)
}

// AuditTrail returns the recorded history of an entity.
type AuditTrail interface {
	Trail(ctx context.Context, entityID string) ([]*audit.Entry, error)
}

// ContractsHandler handles contract and payment endpoints.
type ContractsHandler struct {
	*BaseHandler
	service *billing.Service
	catalog CatalogLookup
	clients ClientChecker
	audit   AuditTrail
}

// ContractsHandlerConfig wires the contracts handler.
type ContractsHandlerConfig struct {
	Service *billing.Service
	Catalog CatalogLookup
	Clients ClientChecker
	Audit   AuditTrail
}

// NewContractsHandler creates a new contracts handler.
func NewContractsHandler(base *BaseHandler, cfg ContractsHandlerConfig) *ContractsHandler {
	return &ContractsHandler{
		BaseHandler: base,
		service:     cfg.Service,
		catalog:     cfg.Catalog,
		clients:     cfg.Clients,
		audit:       cfg.Audit,
	}
}

// Create handles POST /contracts.
func (h *ContractsHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateContractRequest
	if !h.BindJSON(c, &req) {
		return
	}

	exists, err := h.clients.Exists(ctx, req.ClientID)
	if err != nil {
		h.Error(c, err)
		return
	}
	if !exists {
		h.Error(c, apperror.NewNotFound("client", req.ClientID))
		return
	}

	items := make([]billing.Item, 0, len(req.ItemIDs))
	for _, itemID := range req.ItemIDs {
		item, err := h.resolveItem(ctx, itemID)
		if err != nil {
			h.Error(c, err)
			return
		}
		items = append(items, item)
	}

	contract, err := h.service.CreateContract(ctx, req.ToInput(items))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, dto.FromContract(contract))
}

// List handles GET /contracts?clientId=&status=.
func (h *ContractsHandler) List(c *gin.Context) {
	var req dto.ContractListRequest
	if !h.BindQuery(c, &req) {
		return
	}
	req.Defaults()

	result, err := h.service.ListContracts(c.Request.Context(), billing.ContractFilter{
		ClientID: req.ClientID,
		Status:   billing.Status(req.Status),
		Limit:    req.Limit,
		Offset:   req.Offset,
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]dto.ContractResponse, len(result.Items))
	for i, contract := range result.Items {
		items[i] = dto.FromContract(contract)
	}

	c.JSON(http.StatusOK, dto.ListResponse{
		Items:      items,
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}

// Get handles GET /contracts/:id.
func (h *ContractsHandler) Get(c *gin.Context) {
	contractID, ok := h.PathID(c)
	if !ok {
		return
	}

	contract, err := h.service.GetContract(c.Request.Context(), contractID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromContract(contract))
}

// AddItem handles POST /contracts/:id/items.
func (h *ContractsHandler) AddItem(c *gin.Context) {
	ctx := c.Request.Context()

	contractID, ok := h.PathID(c)
	if !ok {
		return
	}

	var req dto.AddItemRequest
	if !h.BindJSON(c, &req) {
		return
	}

	item, err := h.resolveItem(ctx, req.ItemID)
	if err != nil {
		h.Error(c, err)
		return
	}

	contract, err := h.service.AddItemToContract(ctx, contractID, item)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromContract(contract))
}

// ApplyPayment handles POST /contracts/:id/payments.
// The collecting agent is taken from the request context.
func (h *ContractsHandler) ApplyPayment(c *gin.Context) {
	contractID, ok := h.PathID(c)
	if !ok {
		return
	}

	var req dto.ApplyPaymentRequest
	if !h.BindJSON(c, &req) {
		return
	}

	payment, err := h.service.ApplyPayment(c.Request.Context(), billing.ApplyPaymentInput{
		ContractID:        contractID,
		InstallmentCount:  req.InstallmentCount,
		Agent:             h.Agent(c),
		CommissionPercent: req.CommissionPercent,
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, dto.FromPayment(payment))
}

// Payments handles GET /contracts/:id/payments, newest first.
func (h *ContractsHandler) Payments(c *gin.Context) {
	contractID, ok := h.PathID(c)
	if !ok {
		return
	}

	payments, err := h.service.PaymentHistory(c.Request.Context(), contractID)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]dto.PaymentResponse, len(payments))
	for i, p := range payments {
		items[i] = dto.FromPayment(p)
	}
	h.OK(c, gin.H{"items": items})
}

// SetStatus handles PUT /contracts/:id/status.
func (h *ContractsHandler) SetStatus(c *gin.Context) {
	contractID, ok := h.PathID(c)
	if !ok {
		return
	}

	var req dto.SetStatusRequest
	if !h.BindJSON(c, &req) {
		return
	}

	contract, err := h.service.SetStatus(c.Request.Context(), contractID, billing.Status(req.Status))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromContract(contract))
}

// Audit handles GET /contracts/:id/audit.
func (h *ContractsHandler) Audit(c *gin.Context) {
	ctx := c.Request.Context()

	contractID, ok := h.PathID(c)
	if !ok {
		return
	}

	if _, err := h.service.GetContract(ctx, contractID); err != nil {
		h.Error(c, err)
		return
	}

	entries, err := h.audit.Trail(ctx, contractID)
	if err != nil {
		h.Error(c, err)
		return
	}
	if entries == nil {
		entries = []*audit.Entry{}
	}
	h.OK(c, gin.H{"items": entries})
}

// PreviewTerms handles POST /terms/preview.
func (h *ContractsHandler) PreviewTerms(c *gin.Context) {
	var req dto.TermsPreviewRequest
	if !h.BindJSON(c, &req) {
		return
	}

	source := billing.Source(req.Source)
	if source == "" {
		source = billing.SourceCatalog
	}

	terms := h.service.PreviewTerms(req.Amount, source)
	h.OK(c, dto.TermsResponse{
		Amount:            req.Amount,
		Rate:              h.service.Config().RateFor(source),
		InstallmentAmount: terms.InstallmentAmount,
		InstallmentsTotal: terms.InstallmentsTotal,
	})
}

func (h *ContractsHandler) resolveItem(ctx context.Context, itemID string) (billing.Item, error) {
	ci, err := h.catalog.GetByID(ctx, itemID)
	if err != nil {
		return billing.Item{}, err
	}
	return billing.ItemFromCatalog(ci), nil
}

// RegisterRoutes registers contract routes.
func (h *ContractsHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Create)
	rg.GET("", h.List)
	rg.GET("/:id", h.Get)
	rg.POST("/:id/items", h.AddItem)
	rg.POST("/:id/payments", h.ApplyPayment)
	rg.GET("/:id/payments", h.Payments)
	rg.PUT("/:id/status", h.SetStatus)
	rg.GET("/:id/audit", h.Audit)
}
