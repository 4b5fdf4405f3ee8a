package service

import (
	"context"
	"fmt"
	"time"

	"github.com/nandanugg/fleet-routing/internal/logging"
	"github.com/nandanugg/fleet-routing/module/core/domain"
	"github.com/nandanugg/fleet-routing/module/core/internal/repository/database"
	"github.com/nandanugg/fleet-routing/module/core/internal/repository/publisher"
)

// AlertSink records alerts raised by the routing and ingest paths.
type AlertSink interface {
	AddAlert(ctx context.Context, alert *domain.Alert) error
}

type AlertService struct {
	repo database.AlertRepository
	pub  publisher.AlertPublisher
	log  logging.Logger
	now  func() time.Time
}

// NewAlertService persists alerts through repo and, when pub is non-nil, fans
// them out best-effort.
func NewAlertService(repo database.AlertRepository, pub publisher.AlertPublisher, log logging.Logger) *AlertService {
	if log == nil {
		log = logging.Noop()
	}
	return &AlertService{repo: repo, pub: pub, log: log, now: time.Now}
}

func (s *AlertService) AddAlert(ctx context.Context, alert *domain.Alert) error {
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = s.now().UTC()
	}
	if err := s.repo.Insert(ctx, alert); err != nil {
		return fmt.Errorf("add alert: %w", err)
	}

	if s.pub != nil {
		if err := s.pub.PublishAlert(ctx, alert); err != nil {
			s.log.Warn(ctx, "alert publish failed",
				logging.String("vehicle_id", alert.VehicleID),
				logging.String("type", string(alert.Type)),
				logging.Err(err),
			)
		}
	}
	return nil
}

func (s *AlertService) GetAlerts(ctx context.Context) ([]domain.Alert, error) {
	alerts, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("get alerts: %w", err)
	}
	return alerts, nil
}
