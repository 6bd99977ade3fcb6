package middleware

import (
	"github.com/gin-gonic/gin"

	appctx "memorial/internal/core/context"
)

const (
	HeaderAgentID   = "X-Agent-ID"
	HeaderAgentName = "X-Agent-Name"
)

// Agent reads the acting agent from request headers into the context.
// The identity is trusted as sent; there is no authentication.
func Agent() gin.HandlerFunc {
	return func(c *gin.Context) {
		agentID := c.GetHeader(HeaderAgentID)
		if agentID != "" {
			ctx := appctx.WithAgent(c.Request.Context(), &appctx.AgentContext{
				AgentID:   agentID,
				AgentName: c.GetHeader(HeaderAgentName),
			})
			c.Request = c.Request.WithContext(ctx)
			c.Set("agent_id", agentID)
		}
		c.Next()
	}
}
