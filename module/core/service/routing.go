package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/nandanugg/fleet-routing/internal/logging"
	"github.com/nandanugg/fleet-routing/internal/observability"
	"github.com/nandanugg/fleet-routing/module/core/domain"
	"github.com/nandanugg/fleet-routing/module/core/internal/repository/cache"
)

const (
	DefaultLockTimeout    = 10 * time.Second
	DefaultReleaseTimeout = 2 * time.Second
)

// RouteRecorder is the durable route log.
type RouteRecorder interface {
	Record(ctx context.Context, route *domain.Route) error
}

type RouteMetrics interface {
	ObserveRoute(outcome string)
}

type RoutingOptions struct {
	LockTimeout    time.Duration
	ReleaseTimeout time.Duration
	Logger         logging.Logger
	Metrics        RouteMetrics
}

// RoutingService coordinates route calculation. Computation for a zone
// (origin, destination) only runs while holding that zone's lock; cache hits
// never take it.
type RoutingService struct {
	cache          cache.RouteCache
	routes         RouteRecorder
	alerts         AlertSink
	planner        PathPlanner
	lockTimeout    time.Duration
	releaseTimeout time.Duration
	log            logging.Logger
	metrics        RouteMetrics
	tracer         trace.Tracer
	now            func() time.Time
	newOwner       func(vehicleID string) string
}

func NewRoutingService(rc cache.RouteCache, routes RouteRecorder, alerts AlertSink, planner PathPlanner, opts RoutingOptions) *RoutingService {
	if opts.LockTimeout <= 0 {
		opts.LockTimeout = DefaultLockTimeout
	}
	if opts.ReleaseTimeout <= 0 {
		opts.ReleaseTimeout = DefaultReleaseTimeout
	}
	if opts.Logger == nil {
		opts.Logger = logging.Noop()
	}
	if opts.Metrics == nil {
		opts.Metrics = (*observability.Collector)(nil)
	}
	return &RoutingService{
		cache:          rc,
		routes:         routes,
		alerts:         alerts,
		planner:        planner,
		lockTimeout:    opts.LockTimeout,
		releaseTimeout: opts.ReleaseTimeout,
		log:            opts.Logger,
		metrics:        opts.Metrics,
		tracer:         otel.Tracer("github.com/nandanugg/fleet-routing/module/core/service"),
		now:            time.Now,
		newOwner: func(vehicleID string) string {
			return vehicleID + "/" + uuid.NewString()
		},
	}
}

// CalculateRoute returns the cached route for the request or computes a new
// one under the zone lock. A held zone yields domain.ErrZoneBusy unwrapped;
// every other failure wraps domain.ErrRoutingService around its cause.
func (s *RoutingService) CalculateRoute(ctx context.Context, req *domain.RouteRequest) (*domain.Route, error) {
	ctx, span := s.tracer.Start(ctx, "RoutingService.CalculateRoute", trace.WithAttributes(
		attribute.String("vehicle_id", req.VehicleID),
		attribute.String("origin", req.Origin),
		attribute.String("destination", req.Destination),
	))
	defer span.End()

	route, err := s.calculate(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return route, err
}

func (s *RoutingService) calculate(ctx context.Context, req *domain.RouteRequest) (*domain.Route, error) {
	if strings.TrimSpace(req.Origin) == "" || strings.TrimSpace(req.Destination) == "" {
		s.metrics.ObserveRoute(observability.RouteInvalid)
		return nil, fmt.Errorf("%w: %w", domain.ErrRoutingService, domain.ErrInvalidRoute)
	}

	cached, err := s.cache.GetCachedRoute(ctx, req.VehicleID, req.Origin, req.Destination)
	if err != nil {
		return nil, s.fail(ctx, req, err)
	}
	if cached != nil {
		if err := s.routes.Record(ctx, cached); err != nil {
			return nil, s.fail(ctx, req, err)
		}
		s.metrics.ObserveRoute(observability.RouteCacheHit)
		return cached, nil
	}

	owner := s.newOwner(req.VehicleID)
	acquired, err := s.cache.AcquireZoneLock(ctx, req.Origin, req.Destination, owner, s.lockTimeout)
	if err != nil {
		return nil, s.fail(ctx, req, err)
	}
	if !acquired {
		s.raise(ctx, req.VehicleID, domain.AlertDeadlock,
			fmt.Sprintf("Zona ocupada: %s -> %s", req.Origin, req.Destination))
		s.metrics.ObserveRoute(observability.RouteZoneBusy)
		return nil, domain.ErrZoneBusy
	}
	defer s.release(ctx, req, owner)

	route, err := s.compute(ctx, req)
	if err != nil {
		return nil, s.fail(ctx, req, err)
	}
	s.metrics.ObserveRoute(observability.RouteComputed)
	return route, nil
}

func (s *RoutingService) compute(ctx context.Context, req *domain.RouteRequest) (*domain.Route, error) {
	path, err := s.planner.Plan(ctx, req.Origin, req.Destination)
	if err != nil {
		return nil, err
	}

	route := &domain.Route{
		VehicleID:    req.VehicleID,
		Path:         path,
		Distance:     PlaceholderDistance(path),
		CalculatedAt: s.now().UTC(),
	}
	if err := s.cache.SaveRoute(ctx, route); err != nil {
		return nil, err
	}
	if err := s.routes.Record(ctx, route); err != nil {
		return nil, err
	}
	return route, nil
}

// release must not inherit the request's cancellation, or a cancelled
// request would strand the lock until it expires.
func (s *RoutingService) release(ctx context.Context, req *domain.RouteRequest, owner string) {
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.releaseTimeout)
	defer cancel()

	if err := s.cache.ReleaseZoneLock(rctx, req.Origin, req.Destination, owner); err != nil {
		s.log.Warn(ctx, "zone lock release failed",
			logging.String("origin", req.Origin),
			logging.String("destination", req.Destination),
			logging.Err(err),
		)
	}
}

func (s *RoutingService) fail(ctx context.Context, req *domain.RouteRequest, err error) error {
	s.log.Error(ctx, "route calculation failed",
		logging.String("vehicle_id", req.VehicleID),
		logging.String("origin", req.Origin),
		logging.String("destination", req.Destination),
		logging.Err(err),
	)
	s.raise(ctx, req.VehicleID, domain.AlertError, "Error al calcular ruta: "+err.Error())
	s.metrics.ObserveRoute(observability.RouteError)
	return fmt.Errorf("%w: %w", domain.ErrRoutingService, err)
}

func (s *RoutingService) raise(ctx context.Context, vehicleID string, typ domain.AlertType, msg string) {
	alert := &domain.Alert{
		VehicleID: vehicleID,
		Type:      typ,
		Message:   msg,
		CreatedAt: s.now().UTC(),
	}
	if err := s.alerts.AddAlert(context.WithoutCancel(ctx), alert); err != nil {
		s.log.Warn(ctx, "alert not recorded",
			logging.String("type", string(typ)),
			logging.Err(err),
		)
	}
}
