package audit

import (
	"context"
	"time"

	appctx "memorial/internal/core/context"
)

// Enrich fills the acting agent from the request context and stamps the
// entry time. Values already set on the entry win.
func Enrich(ctx context.Context, entry *Entry) {
	if agent := appctx.GetAgent(ctx); agent != nil {
		if entry.AgentID == "" {
			entry.AgentID = agent.AgentID
		}
		if entry.AgentName == "" {
			entry.AgentName = agent.AgentName
		}
	}
	if entry.At.IsZero() {
		entry.At = time.Now().UTC()
	}
}
