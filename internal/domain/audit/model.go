// Package audit records who changed which contract, and how.
package audit

import (
	"context"
	"fmt"
	"time"
)

// Action represents the type of audited operation.
type Action string

const (
	ActionCreate  Action = "create"
	ActionAddItem Action = "add_item"
	ActionPayment Action = "payment"
	ActionStatus  Action = "status"
)

// Entry represents a single audit log entry.
type Entry struct {
	ID         string         `json:"id"`
	EntityType string         `json:"entityType"`
	EntityID   string         `json:"entityId"`
	Action     Action         `json:"action"`
	AgentID    string         `json:"agentId,omitempty"`
	AgentName  string         `json:"agentName,omitempty"`
	Changes    map[string]any `json:"changes,omitempty"`
	At         time.Time      `json:"at"`
}

// Repository persists entries.
type Repository interface {
	Append(ctx context.Context, entry *Entry) error
	ListByEntity(ctx context.Context, entityID string) ([]*Entry, error)
}

// Recorder is what other domain services depend on.
type Recorder interface {
	Record(ctx context.Context, entry Entry)
}

// Diff calculates the difference between old and new entity states.
func Diff(oldState, newState map[string]any) map[string]any {
	changes := make(map[string]any)

	// Find changed and new fields
	for key, newVal := range newState {
		oldVal, exists := oldState[key]
		if !exists {
			changes[key] = map[string]any{"old": nil, "new": newVal}
		} else if !equal(oldVal, newVal) {
			changes[key] = map[string]any{"old": oldVal, "new": newVal}
		}
	}

	// Find deleted fields
	for key, oldVal := range oldState {
		if _, exists := newState[key]; !exists {
			changes[key] = map[string]any{"old": oldVal, "new": nil}
		}
	}

	return changes
}

// equal compares values by their printed form, which is how decimals and
// counters are displayed in the trail.
func equal(a, b any) bool {
	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}
