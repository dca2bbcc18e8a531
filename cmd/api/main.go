package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/plateops/ops-backend/api/controllers"
	"github.com/plateops/ops-backend/api/routes"
	"github.com/plateops/ops-backend/internal/heartbeat"
	"github.com/plateops/ops-backend/internal/jobs"
	"github.com/plateops/ops-backend/internal/notifications"
	"github.com/plateops/ops-backend/internal/realtime"
	"github.com/plateops/ops-backend/pkg/config"
	"github.com/plateops/ops-backend/pkg/db"
	"github.com/plateops/ops-backend/pkg/eventbus"
	"github.com/plateops/ops-backend/pkg/logger"
	"github.com/plateops/ops-backend/pkg/metrics"
	"github.com/plateops/ops-backend/pkg/migrate"
	"github.com/plateops/ops-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	requireResource(context.Background(), logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)

	requireResource(ctx, logg, "dev migrations", migrate.MaybeRunDev(ctx, cfg, logg, dbClient))

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)

	reg := prometheus.DefaultRegisterer
	notificationMetrics := metrics.NewNotificationMetrics(reg)

	bus, err := eventbus.New(eventbus.Params{Logger: logg, Metrics: metrics.NewBusMetrics(reg)})
	requireResource(ctx, logg, "event bus", err)

	hub, err := realtime.NewHub(realtime.HubParams{
		Logger:       logg,
		Metrics:      notificationMetrics,
		PingInterval: cfg.Realtime.PingInterval,
		WriteTimeout: cfg.Realtime.WriteTimeout,
	})
	requireResource(ctx, logg, "realtime hub", err)

	// With the redis transport every push, including this process's own,
	// comes back through the relay so all API instances see it.
	var dispatcher realtime.Dispatcher = hub
	relayDone := make(chan struct{})
	relayCtx, stopRelay := context.WithCancel(context.WithoutCancel(ctx))
	defer stopRelay()
	if cfg.Realtime.UsesRedis() {
		redisDispatcher, err := realtime.NewRedisDispatcher(redisClient)
		requireResource(ctx, logg, "realtime dispatcher", err)
		dispatcher = redisDispatcher

		relay, err := realtime.NewRelay(redisClient, hub, logg)
		requireResource(ctx, logg, "realtime relay", err)
		go func() {
			defer close(relayDone)
			if err := relay.Run(relayCtx); err != nil && !errors.Is(err, context.Canceled) {
				logg.Error(relayCtx, "realtime relay stopped", err)
			}
		}()
	} else {
		close(relayDone)
	}

	notificationRepo := notifications.NewRepository(dbClient.DB())
	_, err = notifications.NewPipeline(notifications.PipelineParams{
		Bus:        bus,
		Store:      notificationRepo,
		Dispatcher: dispatcher,
		Logger:     logg,
		Metrics:    notificationMetrics,
	})
	requireResource(ctx, logg, "notification pipeline", err)

	notificationService, err := notifications.NewService(notificationRepo)
	requireResource(ctx, logg, "notifications service", err)

	router := routes.NewRouter(routes.Deps{
		Config:        cfg,
		Logger:        logg,
		Pingers:       map[string]controllers.Pinger{"db": dbClient, "redis": redisClient},
		Gatherer:      prometheus.DefaultGatherer,
		Bus:           bus,
		Notifications: notificationService,
		Jobs:          jobs.NewRepository(dbClient.DB()),
		Liveness:      heartbeat.NewChecker(heartbeat.NewRepository(dbClient.DB()), cfg.Worker.StaleAfter),
		Hub:           hub,
	})

	server := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(logg.WithField(ctx, "addr", server.Addr), "api listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	exitCode := 0
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		logg.Error(ctx, "api server stopped unexpectedly", err)
		exitCode = 1
	}

	logg.Info(ctx, "api shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Worker.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Error(shutdownCtx, "http shutdown failed", err)
	}
	// Hijacked websocket connections are invisible to Shutdown.
	hub.CloseAll()

	stopRelay()
	<-relayDone

	if err := bus.Drain(shutdownCtx); err != nil {
		logg.Warn(shutdownCtx, "event bus drain timed out; in-flight handlers abandoned")
	}
	if err := redisClient.Close(); err != nil {
		logg.Error(shutdownCtx, "error closing redis", err)
	}
	if err := dbClient.Close(); err != nil {
		logg.Error(shutdownCtx, "error closing database", err)
	}

	if exitCode != 0 {
		os.Exit(exitCode)
	}
	logg.Info(shutdownCtx, "api shut down gracefully")
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(logg.WithField(ctx, "resource", resource), "api startup failed", err)
	os.Exit(1)
}
