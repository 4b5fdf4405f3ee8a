package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nandanugg/fleet-routing/module/core/domain"
)

func coord(vehicleID string, lat, lon float64, ts int64) *domain.Coordinate {
	return &domain.Coordinate{VehicleID: vehicleID, Lat: lat, Lon: lon, Timestamp: time.Unix(ts, 0)}
}

func newTestGeolocation(c *fakeCache, opts GeolocationOptions) (*GeolocationService, *PendingWriteQueue) {
	q := NewPendingWriteQueue(0, nil)
	return NewGeolocationService(c, q, opts), q
}

func TestStoreCoordinate_Stores(t *testing.T) {
	c := newFakeCache()
	svc, _ := newTestGeolocation(c, GeolocationOptions{})

	if err := svc.StoreCoordinate(context.Background(), coord("B1234XYZ", -6.2088, 106.8456, 1715003456)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.saves != 1 {
		t.Fatalf("expected 1 write, got %d", c.saves)
	}
	last, err := svc.LastCoordinate(context.Background(), "B1234XYZ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if last.Lat != -6.2088 {
		t.Errorf("expected lat -6.2088, got %f", last.Lat)
	}
}

func TestStoreCoordinate_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		lat, lon float64
	}{
		{"lat too high", 91, 0},
		{"lat too low", -90.5, 0},
		{"lon too high", 0, 180.1},
		{"lon too low", 0, -181},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newFakeCache()
			c.getCoordErr = errors.New("must not be called")
			svc, q := newTestGeolocation(c, GeolocationOptions{})

			err := svc.StoreCoordinate(context.Background(), coord("V1", tt.lat, tt.lon, 1))
			if !errors.Is(err, domain.ErrInvalidCoordinate) {
				t.Fatalf("expected ErrInvalidCoordinate, got %v", err)
			}
			if q.Len() != 0 {
				t.Errorf("invalid input must not be queued")
			}
		})
	}
}

func TestStoreCoordinate_BoundariesAccepted(t *testing.T) {
	c := newFakeCache()
	svc, _ := newTestGeolocation(c, GeolocationOptions{})

	if err := svc.StoreCoordinate(context.Background(), coord("V1", 90, 180, 1)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.StoreCoordinate(context.Background(), coord("V2", -90, -180, 1)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestStoreCoordinate_DuplicateWithinThreshold(t *testing.T) {
	c := newFakeCache()
	svc, _ := newTestGeolocation(c, GeolocationOptions{})
	ctx := context.Background()

	if err := svc.StoreCoordinate(ctx, coord("V1", -6.2088, 106.8456, 100)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// identical
	if err := svc.StoreCoordinate(ctx, coord("V1", -6.2088, 106.8456, 100)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// about 5.5m north, later timestamp
	if err := svc.StoreCoordinate(ctx, coord("V1", -6.20875, 106.8456, 200)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.saves != 1 {
		t.Fatalf("expected duplicates to cause no writes, got %d writes", c.saves)
	}

	// about 111m away
	if err := svc.StoreCoordinate(ctx, coord("V1", -6.2078, 106.8456, 300)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.saves != 2 {
		t.Fatalf("expected 2 writes, got %d", c.saves)
	}
}

func TestStoreCoordinate_FailureQueuesAndRetries(t *testing.T) {
	c := newFakeCache()
	down := true
	c.saveCoordFn = func(*domain.Coordinate) error {
		if down {
			return errors.New("connection refused")
		}
		return nil
	}
	svc, q := newTestGeolocation(c, GeolocationOptions{})
	ctx := context.Background()

	err := svc.StoreCoordinate(ctx, coord("V1", 1, 1, 100))
	if !errors.Is(err, domain.ErrStoreCoordinate) {
		t.Fatalf("expected ErrStoreCoordinate, got %v", err)
	}
	if q.Len() != 1 {
		t.Fatalf("expected 1 pending, got %d", q.Len())
	}

	// still down: the queued item stays and the new one joins it
	_ = svc.StoreCoordinate(ctx, coord("V2", 2, 2, 100))
	if q.Len() != 2 {
		t.Fatalf("expected 2 pending, got %d", q.Len())
	}

	down = false
	if err := svc.StoreCoordinate(ctx, coord("V3", 3, 3, 100)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Len() != 0 {
		t.Fatalf("expected queue drained, got %d", q.Len())
	}
	for _, id := range []string{"V1", "V2", "V3"} {
		if _, err := svc.LastCoordinate(ctx, id); err != nil {
			t.Errorf("expected %s stored, got %v", id, err)
		}
	}
}

func TestStoreCoordinate_LookupFailureQueues(t *testing.T) {
	c := newFakeCache()
	c.getCoordErr = errors.New("timeout")
	svc, q := newTestGeolocation(c, GeolocationOptions{})

	err := svc.StoreCoordinate(context.Background(), coord("V1", 1, 1, 100))
	if !errors.Is(err, domain.ErrStoreCoordinate) {
		t.Fatalf("expected ErrStoreCoordinate, got %v", err)
	}
	if q.Len() != 1 {
		t.Errorf("expected 1 pending, got %d", q.Len())
	}
}

func TestProcessPending_SkipsSuperseded(t *testing.T) {
	c := newFakeCache()
	svc, q := newTestGeolocation(c, GeolocationOptions{})
	ctx := context.Background()

	q.Enqueue(*coord("V1", 1, 1, 100))
	if err := c.SaveCoordinate(ctx, coord("V1", 5, 5, 200)); err != nil {
		t.Fatal(err)
	}

	if n := svc.ProcessPending(ctx); n != 1 {
		t.Fatalf("expected 1 processed, got %d", n)
	}
	last, _ := svc.LastCoordinate(ctx, "V1")
	if last.Lat != 5 {
		t.Errorf("older replay must not overwrite newer fix, got lat %f", last.Lat)
	}
}

func TestStoreCoordinate_UpdatesVehicle(t *testing.T) {
	c := newFakeCache()
	var updated *domain.Vehicle
	vehicles := &mockVehicleRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.Vehicle, error) {
			return &domain.Vehicle{ID: id, Name: "Truck"}, nil
		},
		updateFn: func(ctx context.Context, v *domain.Vehicle) error {
			updated = v
			return nil
		},
	}
	svc, _ := newTestGeolocation(c, GeolocationOptions{Vehicles: vehicles})

	if err := svc.StoreCoordinate(context.Background(), coord("V1", -6.2088, 106.8456, 1715003456)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated == nil {
		t.Fatal("expected vehicle update")
	}
	if updated.LastLocation != "-6.2088,106.8456" {
		t.Errorf("unexpected last location %q", updated.LastLocation)
	}
	if !updated.LastSeen.Equal(time.Unix(1715003456, 0)) {
		t.Errorf("unexpected last seen %v", updated.LastSeen)
	}
}

func TestStoreCoordinate_VehicleFailureIgnored(t *testing.T) {
	c := newFakeCache()
	vehicles := &mockVehicleRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.Vehicle, error) {
			return nil, errors.New("db down")
		},
	}
	svc, q := newTestGeolocation(c, GeolocationOptions{Vehicles: vehicles})

	if err := svc.StoreCoordinate(context.Background(), coord("V1", 1, 1, 1)); err != nil {
		t.Fatalf("vehicle directory failure must not fail ingest: %v", err)
	}
	if q.Len() != 0 {
		t.Errorf("expected nothing queued, got %d", q.Len())
	}
}

func TestStoreCoordinate_RunsGeofence(t *testing.T) {
	c := newFakeCache()
	alerts := &fakeAlertSink{}
	geofence := NewGeofenceService(alerts, []domain.GeoPoint{{Lat: -6.2088, Lon: 106.8456, Radius: 50}})
	svc, _ := newTestGeolocation(c, GeolocationOptions{Geofence: geofence})

	if err := svc.StoreCoordinate(context.Background(), coord("V1", -6.2088, 106.8456, 1)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(alerts.ofType(domain.AlertGeofenceEntry)) != 1 {
		t.Errorf("expected 1 geofence alert, got %v", alerts.alerts)
	}
}

func TestDeleteCoordinate(t *testing.T) {
	c := newFakeCache()
	svc, _ := newTestGeolocation(c, GeolocationOptions{})
	ctx := context.Background()

	if err := svc.DeleteCoordinate(ctx, "V1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	_ = svc.StoreCoordinate(ctx, coord("V1", 1, 1, 1))
	if err := svc.DeleteCoordinate(ctx, "V1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.LastCoordinate(ctx, "V1"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestRunPendingDrain_StopsOnCancel(t *testing.T) {
	c := newFakeCache()
	svc, q := newTestGeolocation(c, GeolocationOptions{})
	q.Enqueue(*coord("V1", 1, 1, 1))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.RunPendingDrain(ctx, 5*time.Millisecond)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for q.Len() != 0 {
		select {
		case <-deadline:
			t.Fatal("pending item never drained")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("drain loop did not stop")
	}
}
