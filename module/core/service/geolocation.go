package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/nandanugg/fleet-routing/internal/logging"
	"github.com/nandanugg/fleet-routing/internal/observability"
	"github.com/nandanugg/fleet-routing/module/core/domain"
	"github.com/nandanugg/fleet-routing/module/core/internal/repository/cache"
	"github.com/nandanugg/fleet-routing/module/core/internal/repository/database"
)

// DefaultDuplicateThreshold is the distance in meters under which a new fix
// repeats the last one.
const DefaultDuplicateThreshold = 10.0

type CoordinateMetrics interface {
	ObserveCoordinate(outcome string)
}

type GeofenceChecker interface {
	CheckAndAlert(ctx context.Context, c *domain.Coordinate) error
}

type GeolocationOptions struct {
	DuplicateThreshold float64
	Vehicles           database.VehicleRepository
	Geofence           GeofenceChecker
	Logger             logging.Logger
	Metrics            CoordinateMetrics
}

type GeolocationService struct {
	cache     cache.RouteCache
	pending   *PendingWriteQueue
	threshold float64
	vehicles  database.VehicleRepository
	geofence  GeofenceChecker
	log       logging.Logger
	metrics   CoordinateMetrics
	now       func() time.Time
}

func NewGeolocationService(rc cache.RouteCache, pending *PendingWriteQueue, opts GeolocationOptions) *GeolocationService {
	if opts.DuplicateThreshold <= 0 {
		opts.DuplicateThreshold = DefaultDuplicateThreshold
	}
	if opts.Logger == nil {
		opts.Logger = logging.Noop()
	}
	if opts.Metrics == nil {
		opts.Metrics = (*observability.Collector)(nil)
	}
	return &GeolocationService{
		cache:     rc,
		pending:   pending,
		threshold: opts.DuplicateThreshold,
		vehicles:  opts.Vehicles,
		geofence:  opts.Geofence,
		log:       opts.Logger,
		metrics:   opts.Metrics,
		now:       time.Now,
	}
}

// StoreCoordinate validates c and caches it as the vehicle's last known
// position unless it lies within the duplicate threshold of the previous one.
// A failed write is queued for replay and reported as
// domain.ErrStoreCoordinate.
func (s *GeolocationService) StoreCoordinate(ctx context.Context, c *domain.Coordinate) error {
	if err := c.Validate(); err != nil {
		s.metrics.ObserveCoordinate(observability.CoordinateInvalid)
		return err
	}
	if c.Timestamp.IsZero() {
		c.Timestamp = s.now().UTC()
	}

	last, err := s.cache.GetLastCoordinate(ctx, c.VehicleID)
	if err != nil {
		return s.queueForRetry(ctx, c, err)
	}
	if s.isDuplicate(last, c) {
		s.metrics.ObserveCoordinate(observability.CoordinateDuplicate)
		return nil
	}

	if err := s.cache.SaveCoordinate(ctx, c); err != nil {
		return s.queueForRetry(ctx, c, err)
	}
	s.metrics.ObserveCoordinate(observability.CoordinateStored)

	s.recordVehicle(ctx, c)
	if s.geofence != nil {
		if err := s.geofence.CheckAndAlert(ctx, c); err != nil {
			s.log.Warn(ctx, "geofence check failed",
				logging.String("vehicle_id", c.VehicleID),
				logging.Err(err),
			)
		}
	}

	s.ProcessPending(ctx)
	return nil
}

func (s *GeolocationService) isDuplicate(last, c *domain.Coordinate) bool {
	if last == nil || last.VehicleID != c.VehicleID {
		return false
	}
	return last.Equal(c) || Distance(last, c) < s.threshold
}

func (s *GeolocationService) queueForRetry(ctx context.Context, c *domain.Coordinate, cause error) error {
	s.pending.Enqueue(*c)
	s.metrics.ObserveCoordinate(observability.CoordinateQueued)
	s.log.Warn(ctx, "coordinate queued for retry",
		logging.String("vehicle_id", c.VehicleID),
		logging.Int("pending", s.pending.Len()),
		logging.Err(cause),
	)
	return fmt.Errorf("%w: %w", domain.ErrStoreCoordinate, cause)
}

// ProcessPending replays queued coordinates until the queue is empty or a
// write fails again. The failure is logged, not returned.
func (s *GeolocationService) ProcessPending(ctx context.Context) int {
	if s.pending.Len() == 0 {
		return 0
	}
	n, err := s.pending.Drain(ctx, s.replay)
	if err != nil {
		s.log.Warn(ctx, "pending drain stopped",
			logging.Int("replayed", n),
			logging.Int("remaining", s.pending.Len()),
			logging.Err(err),
		)
	} else if n > 0 {
		s.log.Info(ctx, "pending coordinates replayed", logging.Int("replayed", n))
	}
	return n
}

// replay writes c unless a newer fix for the vehicle has been cached since
// it was queued.
func (s *GeolocationService) replay(ctx context.Context, c *domain.Coordinate) error {
	last, err := s.cache.GetLastCoordinate(ctx, c.VehicleID)
	if err != nil {
		return err
	}
	if last != nil && last.Timestamp.After(c.Timestamp) {
		return nil
	}
	if err := s.cache.SaveCoordinate(ctx, c); err != nil {
		return err
	}
	s.metrics.ObserveCoordinate(observability.CoordinateReplayed)
	s.recordVehicle(ctx, c)
	return nil
}

// RunPendingDrain drains the queue every interval until ctx is done.
func (s *GeolocationService) RunPendingDrain(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.ProcessPending(ctx)
		}
	}
}

func (s *GeolocationService) recordVehicle(ctx context.Context, c *domain.Coordinate) {
	if s.vehicles == nil {
		return
	}
	v, err := s.vehicles.GetByID(ctx, c.VehicleID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.log.Warn(ctx, "vehicle lookup failed",
				logging.String("vehicle_id", c.VehicleID),
				logging.Err(err),
			)
		}
		return
	}

	v.LastLocation = strconv.FormatFloat(c.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(c.Lon, 'f', -1, 64)
	v.LastSeen = c.Timestamp
	if err := s.vehicles.Update(ctx, v); err != nil {
		s.log.Warn(ctx, "vehicle update failed",
			logging.String("vehicle_id", c.VehicleID),
			logging.Err(err),
		)
	}
}

func (s *GeolocationService) LastCoordinate(ctx context.Context, vehicleID string) (*domain.Coordinate, error) {
	c, err := s.cache.GetLastCoordinate(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, domain.ErrNotFound
	}
	return c, nil
}

func (s *GeolocationService) DeleteCoordinate(ctx context.Context, vehicleID string) error {
	deleted, err := s.cache.DeleteCoordinate(ctx, vehicleID)
	if err != nil {
		return err
	}
	if !deleted {
		return domain.ErrNotFound
	}
	return nil
}
