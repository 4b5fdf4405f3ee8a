package cache

import (
	"context"
	"time"

	"github.com/nandanugg/fleet-routing/module/core/domain"
)

// RouteCache is the TTL-bounded store for routes and last coordinates, plus
// the zone lock used to serialize route computation. Misses return (nil, nil).
type RouteCache interface {
	GetCachedRoute(ctx context.Context, vehicleID, origin, destination string) (*domain.Route, error)
	SaveRoute(ctx context.Context, route *domain.Route) error
	GetLastCoordinate(ctx context.Context, vehicleID string) (*domain.Coordinate, error)
	SaveCoordinate(ctx context.Context, c *domain.Coordinate) error
	DeleteCoordinate(ctx context.Context, vehicleID string) (bool, error)
	AcquireZoneLock(ctx context.Context, origin, destination, ownerID string, timeout time.Duration) (bool, error)
	ReleaseZoneLock(ctx context.Context, origin, destination, ownerID string) error
}
