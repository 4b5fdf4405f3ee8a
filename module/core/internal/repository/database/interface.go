package database

import (
	"context"

	"github.com/nandanugg/fleet-routing/module/core/domain"
)

type RouteRepository interface {
	Insert(ctx context.Context, route *domain.Route) error
	GetAll(ctx context.Context) ([]domain.Route, error)
	GetByVehicle(ctx context.Context, query *domain.RouteQuery) ([]domain.Route, error)
}

type AlertRepository interface {
	Insert(ctx context.Context, alert *domain.Alert) error
	GetAll(ctx context.Context) ([]domain.Alert, error)
}

type WaypointRepository interface {
	GetAll(ctx context.Context) ([]domain.Waypoint, error)
}

type VehicleRepository interface {
	GetAll(ctx context.Context) ([]domain.Vehicle, error)
	GetByID(ctx context.Context, id string) (*domain.Vehicle, error)
	Update(ctx context.Context, v *domain.Vehicle) error
	// Delete removes the row in a transaction that commits only if
	// beforeCommit succeeds.
	Delete(ctx context.Context, id string, beforeCommit func(ctx context.Context) error) error
}

type AuditLogRepository interface {
	Insert(ctx context.Context, entry *domain.AuditLog) error
}
