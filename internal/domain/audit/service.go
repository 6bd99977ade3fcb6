package audit

import (
	"context"
	"sort"

	"memorial/pkg/logger"
)

// Service records and reads the audit trail.
type Service struct {
	repo Repository
}

// Ensure compile-time interface compliance.
var _ Recorder = (*Service)(nil)

// NewService creates an audit service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Record appends entry. Failures are logged and swallowed: the audited
// operation has already happened.
func (s *Service) Record(ctx context.Context, entry Entry) {
	Enrich(ctx, &entry)

	if err := s.repo.Append(ctx, &entry); err != nil {
		logger.Warn(ctx, "audit record failed",
			"entity_type", entry.EntityType,
			"entity_id", entry.EntityID,
			"action", entry.Action,
			"error", err)
	}
}

// Trail returns the entries of one entity, newest first.
func (s *Service) Trail(ctx context.Context, entityID string) ([]*Entry, error) {
	entries, err := s.repo.ListByEntity(ctx, entityID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].At.After(entries[j].At)
	})
	return entries, nil
}
