package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"memorial/internal/core/apperror"
	appctx "memorial/internal/core/context"
	"memorial/internal/core/validation"
	"memorial/internal/domain/billing"
)

// BaseHandler provides common handler utilities.
type BaseHandler struct{}

// NewBaseHandler creates a new base handler.
func NewBaseHandler() *BaseHandler {
	return &BaseHandler{}
}

// BindJSON binds and validates JSON request body.
func (h *BaseHandler) BindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		h.Error(c, validation.Translate(err))
		return false
	}
	return true
}

// BindQuery binds and validates query parameters.
func (h *BaseHandler) BindQuery(c *gin.Context, obj any) bool {
	if err := c.ShouldBindQuery(obj); err != nil {
		h.Error(c, validation.Translate(err))
		return false
	}
	return true
}

// Error registers error on Gin context and aborts request.
// Actual JSON response is produced by middleware.ErrorHandler (single source of truth).
func (h *BaseHandler) Error(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// PathID returns the :id path parameter or registers a validation error.
func (h *BaseHandler) PathID(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if id == "" {
		h.Error(c, apperror.NewValidation("id is required"))
		return "", false
	}
	return id, true
}

// Agent returns the acting agent set by middleware.Agent.
func (h *BaseHandler) Agent(c *gin.Context) billing.Agent {
	a := appctx.GetAgent(c.Request.Context())
	if a == nil {
		return billing.Agent{}
	}
	return billing.Agent{ID: a.AgentID, Name: a.AgentName}
}

// Created sends 201 response with data.
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

// OK sends 200 response with data.
func (h *BaseHandler) OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

// NoContent sends 204 response.
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
