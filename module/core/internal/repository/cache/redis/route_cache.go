package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/nandanugg/fleet-routing/module/core/domain"
	"github.com/nandanugg/fleet-routing/module/core/internal/repository/cache"
)

var _ cache.RouteCache = (*RouteCache)(nil)

const (
	DefaultRouteTTL      = 5 * time.Minute
	DefaultCoordinateTTL = 10 * time.Minute
)

// releaseScript deletes the lock only while it is still held by ARGV[1].
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type RouteCache struct {
	client        goredis.UniversalClient
	routeTTL      time.Duration
	coordinateTTL time.Duration
}

func NewRouteCache(client goredis.UniversalClient, routeTTL, coordinateTTL time.Duration) *RouteCache {
	if routeTTL <= 0 {
		routeTTL = DefaultRouteTTL
	}
	if coordinateTTL <= 0 {
		coordinateTTL = DefaultCoordinateTTL
	}
	return &RouteCache{
		client:        client,
		routeTTL:      routeTTL,
		coordinateTTL: coordinateTTL,
	}
}

// keyEscaper keeps ':'-joined keys unambiguous for ids that contain ':'.
var keyEscaper = strings.NewReplacer(`\`, `\\`, `:`, `\:`)

func keyPart(s string) string {
	return keyEscaper.Replace(s)
}

func routeKey(vehicleID, origin, destination string) string {
	return fmt.Sprintf("route:%s:%s:%s", keyPart(vehicleID), keyPart(origin), keyPart(destination))
}

func coordinateKey(vehicleID string) string {
	return "coord:" + keyPart(vehicleID)
}

func zoneLockKey(origin, destination string) string {
	return fmt.Sprintf("lock:zone:%s:%s", keyPart(origin), keyPart(destination))
}

func (c *RouteCache) GetCachedRoute(ctx context.Context, vehicleID, origin, destination string) (*domain.Route, error) {
	var route domain.Route
	found, err := c.getJSON(ctx, routeKey(vehicleID, origin, destination), &route)
	if err != nil || !found {
		return nil, err
	}
	return &route, nil
}

func (c *RouteCache) SaveRoute(ctx context.Context, route *domain.Route) error {
	if len(route.Path) == 0 {
		return errors.New("save route: empty path")
	}
	key := routeKey(route.VehicleID, route.Origin(), route.Destination())
	return c.setJSON(ctx, key, route, c.routeTTL)
}

func (c *RouteCache) GetLastCoordinate(ctx context.Context, vehicleID string) (*domain.Coordinate, error) {
	var coord domain.Coordinate
	found, err := c.getJSON(ctx, coordinateKey(vehicleID), &coord)
	if err != nil || !found {
		return nil, err
	}
	return &coord, nil
}

func (c *RouteCache) SaveCoordinate(ctx context.Context, coord *domain.Coordinate) error {
	return c.setJSON(ctx, coordinateKey(coord.VehicleID), coord, c.coordinateTTL)
}

func (c *RouteCache) DeleteCoordinate(ctx context.Context, vehicleID string) (bool, error) {
	n, err := c.client.Del(ctx, coordinateKey(vehicleID)).Result()
	if err != nil {
		return false, fmt.Errorf("redis del %s: %w", coordinateKey(vehicleID), err)
	}
	return n > 0, nil
}

// AcquireZoneLock is a single SET NX PX so two callers can never both see the
// zone as free.
func (c *RouteCache) AcquireZoneLock(ctx context.Context, origin, destination, ownerID string, timeout time.Duration) (bool, error) {
	if timeout <= 0 {
		return false, fmt.Errorf("acquire zone lock: timeout must be positive, got %v", timeout)
	}
	ok, err := c.client.SetNX(ctx, zoneLockKey(origin, destination), ownerID, timeout).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx %s: %w", zoneLockKey(origin, destination), err)
	}
	return ok, nil
}

// ReleaseZoneLock is a no-op when the lock expired and was taken by someone
// else in the meantime.
func (c *RouteCache) ReleaseZoneLock(ctx context.Context, origin, destination, ownerID string) error {
	key := zoneLockKey(origin, destination)
	if err := releaseScript.Run(ctx, c.client, []string{key}, ownerID).Err(); err != nil {
		return fmt.Errorf("redis release %s: %w", key, err)
	}
	return nil
}

func (c *RouteCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RouteCache) getJSON(ctx context.Context, key string, dst any) (bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (c *RouteCache) setJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := c.client.Set(ctx, key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}
