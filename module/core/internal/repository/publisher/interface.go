package publisher

import (
	"context"

	"github.com/nandanugg/fleet-routing/module/core/domain"
)

type AlertPublisher interface {
	PublishAlert(ctx context.Context, alert *domain.Alert) error
}
