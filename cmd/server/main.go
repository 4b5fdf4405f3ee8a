package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/nandanugg/fleet-routing/config"
	"github.com/nandanugg/fleet-routing/internal/logging"
	"github.com/nandanugg/fleet-routing/internal/observability"
	"github.com/nandanugg/fleet-routing/module/core"
	"github.com/nandanugg/fleet-routing/module/core/domain"
)

func main() {
	cfg := config.Load()
	log := logging.New(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error(ctx, "server exited", logging.Err(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log logging.Logger) error {
	shutdownTracing, err := observability.InitTracing(ctx, cfg.Tracing, log)
	if err != nil {
		return err
	}
	defer observability.Shutdown(context.Background(), shutdownTracing, log)

	metrics, err := observability.NewCollector(prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}

	db, err := config.NewPostgres(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	rdb, err := config.NewRedis(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = rdb.Close() }()

	amqpConn, err := config.NewRabbitMQ(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = amqpConn.Close() }()

	mqttClient, err := config.NewMQTT(cfg)
	if err != nil {
		return err
	}
	defer mqttClient.Disconnect(250)

	geofences := []domain.GeoPoint{
		{Lat: -6.2088, Lon: 106.8456, Radius: 50},
	}

	coreModule, err := core.Build(cfg, db, rdb, amqpConn, mqttClient, geofences, log, metrics)
	if err != nil {
		return err
	}

	if err := coreModule.StartSubscribers(); err != nil {
		return err
	}
	defer coreModule.StopSubscribers()

	coreModule.RunBackground(ctx)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), metrics.GinMiddleware())

	deps := map[string]config.Pinger{
		"postgres": config.PingFunc(db.PingContext),
		"rabbitmq": config.PingFunc(func(context.Context) error {
			if amqpConn.IsClosed() {
				return errors.New("connection closed")
			}
			return nil
		}),
		"mqtt": config.PingFunc(func(context.Context) error {
			if !mqttClient.IsConnectionOpen() {
				return errors.New("not connected")
			}
			return nil
		}),
	}
	for name, p := range coreModule.HealthChecks() {
		deps[name] = p
	}
	health := config.NewHealthChecker(deps)
	health.Register(r)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	coreModule.RegisterRoutes(&r.RouterGroup)

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "listening", logging.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info(ctx, "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
