package service

import (
	"context"
	"fmt"
	"time"

	"github.com/nandanugg/fleet-routing/module/core/domain"
	"github.com/nandanugg/fleet-routing/module/core/internal/repository/database"
)

type AuditService struct {
	repo database.AuditLogRepository
	now  func() time.Time
}

func NewAuditService(repo database.AuditLogRepository) *AuditService {
	return &AuditService{repo: repo, now: time.Now}
}

func (s *AuditService) Log(ctx context.Context, vehicleID string, event domain.AuditEvent, details string) error {
	entry := &domain.AuditLog{
		VehicleID: vehicleID,
		EventType: event,
		Details:   details,
		Timestamp: s.now().UTC(),
	}
	if err := s.repo.Insert(ctx, entry); err != nil {
		return fmt.Errorf("audit %s: %w", event, err)
	}
	return nil
}
