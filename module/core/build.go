package core

import (
	"context"
	"database/sql"
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gin-gonic/gin"
	amqp "github.com/rabbitmq/amqp091-go"
	goredis "github.com/redis/go-redis/v9"

	"github.com/nandanugg/fleet-routing/config"
	"github.com/nandanugg/fleet-routing/internal/logging"
	"github.com/nandanugg/fleet-routing/internal/observability"
	"github.com/nandanugg/fleet-routing/module/core/domain"
	handler "github.com/nandanugg/fleet-routing/module/core/internal/handler/http"
	"github.com/nandanugg/fleet-routing/module/core/internal/handler/subscriber"
	"github.com/nandanugg/fleet-routing/module/core/internal/repository/cache/redis"
	"github.com/nandanugg/fleet-routing/module/core/internal/repository/database/postgres"
	"github.com/nandanugg/fleet-routing/module/core/internal/repository/publisher/rabbitmq"
	"github.com/nandanugg/fleet-routing/module/core/service"
)

type Module struct {
	Routing     *service.RoutingService
	Geolocation *service.GeolocationService
	Breaker     *service.CircuitBreaker
	Pending     *service.PendingWriteQueue

	cfg        *config.Config
	log        logging.Logger
	cache      *redis.RouteCache
	handlers   []interface{ Register(r *gin.RouterGroup) }
	subscriber *subscriber.LocationSubscriber
}

// Build wires the module. metrics may be nil. geofences may be empty, which
// disables geofence alerts.
func Build(cfg *config.Config, db *sql.DB, rdb goredis.UniversalClient, amqpConn *amqp.Connection, mqttClient mqtt.Client, geofences []domain.GeoPoint, log logging.Logger, metrics *observability.Collector) (*Module, error) {
	if log == nil {
		log = logging.Noop()
	}
	routeCache := redis.NewRouteCache(rdb, cfg.RouteCacheTTL, cfg.CoordinateTTL)
	routeRepo := postgres.NewRouteRepo(db)
	alertRepo := postgres.NewAlertRepo(db)
	waypointRepo := postgres.NewWaypointRepo(db)
	vehicleRepo := postgres.NewVehicleRepo(db)
	auditRepo := postgres.NewAuditLogRepo(db)

	alertPub, err := rabbitmq.NewAlertPublisher(amqpConn)
	if err != nil {
		return nil, fmt.Errorf("alert publisher: %w", err)
	}

	alertSvc := service.NewAlertService(alertRepo, alertPub, log)
	routeSvc := service.NewRouteService(routeRepo)
	auditSvc := service.NewAuditService(auditRepo)
	vehicleSvc := service.NewVehicleService(vehicleRepo, routeCache)
	planner := service.NewRandomWaypointPlanner(waypointRepo, service.DefaultMaxStops)

	routingSvc := service.NewRoutingService(routeCache, routeSvc, alertSvc, planner, service.RoutingOptions{
		LockTimeout: cfg.ZoneLockTimeout,
		Logger:      log,
		Metrics:     metrics,
	})

	opts := service.GeolocationOptions{
		DuplicateThreshold: cfg.DuplicateThresholdM,
		Vehicles:           vehicleRepo,
		Logger:             log,
		Metrics:            metrics,
	}
	if len(geofences) > 0 {
		opts.Geofence = service.NewGeofenceService(alertSvc, geofences)
	}
	pending := service.NewPendingWriteQueue(cfg.PendingQueueMax, metrics)
	geolocationSvc := service.NewGeolocationService(routeCache, pending, opts)

	breaker := service.NewCircuitBreaker(cfg.FailureThreshold, metrics)

	return &Module{
		Routing:     routingSvc,
		Geolocation: geolocationSvc,
		Breaker:     breaker,
		Pending:     pending,
		cfg:         cfg,
		log:         log,
		cache:       routeCache,
		handlers: []interface{ Register(r *gin.RouterGroup) }{
			handler.NewRoutingHandler(routingSvc, breaker, auditSvc, log, cfg.ZoneLockTimeout),
			handler.NewGeolocationHandler(geolocationSvc),
			handler.NewRouteHandler(routeSvc),
			handler.NewAlertHandler(alertSvc),
			handler.NewVehicleHandler(geolocationSvc, vehicleSvc),
		},
		subscriber: subscriber.NewLocationSubscriber(mqttClient, geolocationSvc, log, 0),
	}, nil
}

// RegisterRoutes mounts every handler under r behind the request logger.
func (m *Module) RegisterRoutes(r *gin.RouterGroup) {
	g := r.Group("", handler.RequestLogger(m.log))
	for _, h := range m.handlers {
		h.Register(g)
	}
}

func (m *Module) StartSubscribers() error {
	return m.subscriber.Start()
}

func (m *Module) StopSubscribers() {
	if err := m.subscriber.Stop(); err != nil {
		m.log.Warn(context.Background(), "unsubscribe failed", logging.Err(err))
	}
}

// HealthChecks reports the stores owned by the module.
func (m *Module) HealthChecks() map[string]config.Pinger {
	return map[string]config.Pinger{
		"redis": config.PingFunc(m.cache.Ping),
	}
}

// RunBackground starts the periodic pending-queue drain; it stops with ctx.
func (m *Module) RunBackground(ctx context.Context) {
	go m.Geolocation.RunPendingDrain(ctx, m.cfg.PendingDrainInterval)
}
