// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"
)

// RecordRouteHandler defines the interface for reference record handlers.
type RecordRouteHandler interface {
	List(c *gin.Context)
	Create(c *gin.Context)
	Get(c *gin.Context)
	Delete(c *gin.Context)
}

// RegisterRecordRoutes registers the standard routes for a reference record.
//
// Usage:
//
//	handler := handlers.NewRecordHandler(baseHandler, handlers.RecordHandlerConfig[*clients.Client, dto.CreateClientRequest]{...})
//	RegisterRecordRoutes(api.Group("/clients"), handler)
func RegisterRecordRoutes(group *gin.RouterGroup, handler RecordRouteHandler) {
	group.GET("", handler.List)
	group.POST("", handler.Create)
	group.GET("/:id", handler.Get)
	group.DELETE("/:id", handler.Delete)
}
