package service

import (
	"context"
	"sync"
	"time"

	"github.com/nandanugg/fleet-routing/module/core/domain"
)

// fakeCache is an in-memory RouteCache whose zone locks never expire.
type fakeCache struct {
	mu     sync.Mutex
	routes map[string]domain.Route
	coords map[string]domain.Coordinate
	locks  map[string]string

	acquires int
	releases int
	saves    int

	getRouteErr    error
	saveRouteErr   error
	getCoordErr    error
	deleteCoordErr error
	acquireErr     error
	saveCoordFn    func(c *domain.Coordinate) error
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		routes: map[string]domain.Route{},
		coords: map[string]domain.Coordinate{},
		locks:  map[string]string{},
	}
}

func routeKey(vehicleID, origin, destination string) string {
	return vehicleID + ":" + origin + ":" + destination
}

func (f *fakeCache) GetCachedRoute(ctx context.Context, vehicleID, origin, destination string) (*domain.Route, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getRouteErr != nil {
		return nil, f.getRouteErr
	}
	r, ok := f.routes[routeKey(vehicleID, origin, destination)]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (f *fakeCache) SaveRoute(ctx context.Context, route *domain.Route) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveRouteErr != nil {
		return f.saveRouteErr
	}
	f.routes[routeKey(route.VehicleID, route.Origin(), route.Destination())] = *route
	return nil
}

func (f *fakeCache) GetLastCoordinate(ctx context.Context, vehicleID string) (*domain.Coordinate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getCoordErr != nil {
		return nil, f.getCoordErr
	}
	c, ok := f.coords[vehicleID]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (f *fakeCache) SaveCoordinate(ctx context.Context, c *domain.Coordinate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveCoordFn != nil {
		if err := f.saveCoordFn(c); err != nil {
			return err
		}
	}
	f.saves++
	f.coords[c.VehicleID] = *c
	return nil
}

func (f *fakeCache) DeleteCoordinate(ctx context.Context, vehicleID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteCoordErr != nil {
		return false, f.deleteCoordErr
	}
	_, ok := f.coords[vehicleID]
	delete(f.coords, vehicleID)
	return ok, nil
}

func (f *fakeCache) AcquireZoneLock(ctx context.Context, origin, destination, ownerID string, timeout time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.acquireErr != nil {
		return false, f.acquireErr
	}
	key := origin + ":" + destination
	if _, held := f.locks[key]; held {
		return false, nil
	}
	f.locks[key] = ownerID
	f.acquires++
	return true, nil
}

func (f *fakeCache) ReleaseZoneLock(ctx context.Context, origin, destination, ownerID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	key := origin + ":" + destination
	if f.locks[key] == ownerID {
		delete(f.locks, key)
		f.releases++
	}
	return nil
}

func (f *fakeCache) holdLock(origin, destination, owner string) {
	f.mu.Lock()
	f.locks[origin+":"+destination] = owner
	f.mu.Unlock()
}

func (f *fakeCache) counts() (acquires, releases int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.acquires, f.releases
}

type fakeRecorder struct {
	mu       sync.Mutex
	recorded []domain.Route
	recordFn func(route *domain.Route) error
}

func (f *fakeRecorder) Record(ctx context.Context, route *domain.Route) error {
	if f.recordFn != nil {
		if err := f.recordFn(route); err != nil {
			return err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recorded = append(f.recorded, *route)
	return nil
}

type fakeAlertSink struct {
	mu     sync.Mutex
	alerts []domain.Alert
}

func (f *fakeAlertSink) AddAlert(ctx context.Context, alert *domain.Alert) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alerts = append(f.alerts, *alert)
	return nil
}

func (f *fakeAlertSink) ofType(t domain.AlertType) []domain.Alert {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Alert
	for _, a := range f.alerts {
		if a.Type == t {
			out = append(out, a)
		}
	}
	return out
}

type plannerFunc func(ctx context.Context, origin, destination string) ([]string, error)

func (f plannerFunc) Plan(ctx context.Context, origin, destination string) ([]string, error) {
	return f(ctx, origin, destination)
}

type mockWaypointRepo struct {
	getAllFn func(ctx context.Context) ([]domain.Waypoint, error)
}

func (m *mockWaypointRepo) GetAll(ctx context.Context) ([]domain.Waypoint, error) {
	return m.getAllFn(ctx)
}

type mockVehicleRepo struct {
	getAllFn  func(ctx context.Context) ([]domain.Vehicle, error)
	getByIDFn func(ctx context.Context, id string) (*domain.Vehicle, error)
	updateFn  func(ctx context.Context, v *domain.Vehicle) error
	deleteFn  func(ctx context.Context, id string, beforeCommit func(context.Context) error) error
}

func (m *mockVehicleRepo) GetAll(ctx context.Context) ([]domain.Vehicle, error) {
	return m.getAllFn(ctx)
}

func (m *mockVehicleRepo) GetByID(ctx context.Context, id string) (*domain.Vehicle, error) {
	return m.getByIDFn(ctx, id)
}

func (m *mockVehicleRepo) Update(ctx context.Context, v *domain.Vehicle) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, v)
	}
	return nil
}

func (m *mockVehicleRepo) Delete(ctx context.Context, id string, beforeCommit func(context.Context) error) error {
	return m.deleteFn(ctx, id, beforeCommit)
}
