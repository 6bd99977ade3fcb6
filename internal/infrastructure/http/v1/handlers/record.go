package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"memorial/internal/domain"
	"memorial/internal/infrastructure/http/v1/dto"
)

// RecordService is the part of domain.RecordService the handler needs.
type RecordService[T domain.Entity] interface {
	Create(ctx context.Context, e T) error
	GetByID(ctx context.Context, id string) (T, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[T], error)
}

// RecordHandler provides generic HTTP handlers for reference records
// (catalog items, clients).
type RecordHandler[T domain.Entity, CreateDTO any] struct {
	*BaseHandler
	service RecordService[T]

	// Mapper functions
	mapCreateDTO func(dto CreateDTO) T
	mapToDTO     func(entity T) any

	// listFilter adds entity-specific query filters to the list filter.
	listFilter func(c *gin.Context, filter *domain.ListFilter)
}

// RecordHandlerConfig configures the record handler.
type RecordHandlerConfig[T domain.Entity, CreateDTO any] struct {
	Service      RecordService[T]
	MapCreateDTO func(dto CreateDTO) T
	MapToDTO     func(entity T) any
	ListFilter   func(c *gin.Context, filter *domain.ListFilter) // Optional
}

// NewRecordHandler creates a new record handler.
func NewRecordHandler[T domain.Entity, CreateDTO any](
	base *BaseHandler,
	cfg RecordHandlerConfig[T, CreateDTO],
) *RecordHandler[T, CreateDTO] {
	return &RecordHandler[T, CreateDTO]{
		BaseHandler:  base,
		service:      cfg.Service,
		mapCreateDTO: cfg.MapCreateDTO,
		mapToDTO:     cfg.MapToDTO,
		listFilter:   cfg.ListFilter,
	}
}

// List handles GET /{entity} - list with filtering and pagination.
func (h *RecordHandler[T, CreateDTO]) List(c *gin.Context) {
	ctx := c.Request.Context()

	var page dto.PaginationRequest
	if !h.BindQuery(c, &page) {
		return
	}
	page.Defaults()

	filter := domain.DefaultListFilter()
	filter.Limit = page.Limit
	filter.Offset = page.Offset
	if h.listFilter != nil {
		h.listFilter(c, &filter)
	}

	result, err := h.service.List(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]any, len(result.Items))
	for i, item := range result.Items {
		items[i] = h.mapToDTO(item)
	}

	c.JSON(http.StatusOK, dto.ListResponse{
		Items:      items,
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}

// Get handles GET /{entity}/:id - get single entity.
func (h *RecordHandler[T, CreateDTO]) Get(c *gin.Context) {
	entityID, ok := h.PathID(c)
	if !ok {
		return
	}

	entity, err := h.service.GetByID(c.Request.Context(), entityID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, h.mapToDTO(entity))
}

// Create handles POST /{entity} - create new entity.
func (h *RecordHandler[T, CreateDTO]) Create(c *gin.Context) {
	var req CreateDTO
	if !h.BindJSON(c, &req) {
		return
	}

	entity := h.mapCreateDTO(req)
	if err := h.service.Create(c.Request.Context(), entity); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, h.mapToDTO(entity))
}

// Delete handles DELETE /{entity}/:id.
func (h *RecordHandler[T, CreateDTO]) Delete(c *gin.Context) {
	entityID, ok := h.PathID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), entityID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}
