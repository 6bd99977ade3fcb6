// Package context provides request-scoped values extraction.
package context

import (
	"context"
)

// AgentContext identifies the party acting on the request (the collecting
// agent for payments, or an administrator). Identity only: the service
// does not authenticate it.
type AgentContext struct {
	AgentID   string
	AgentName string
	IsAdmin   bool
}

type agentContextKey struct{}

// WithAgent adds AgentContext to context.
func WithAgent(ctx context.Context, agent *AgentContext) context.Context {
	return context.WithValue(ctx, agentContextKey{}, agent)
}

// GetAgent returns AgentContext from context.
func GetAgent(ctx context.Context) *AgentContext {
	if v, ok := ctx.Value(agentContextKey{}).(*AgentContext); ok {
		return v
	}
	return nil
}

// GetAgentID returns agent ID from context or empty string.
func GetAgentID(ctx context.Context) string {
	if a := GetAgent(ctx); a != nil {
		return a.AgentID
	}
	return ""
}
