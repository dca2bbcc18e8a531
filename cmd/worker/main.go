package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/plateops/ops-backend/api/controllers"
	"github.com/plateops/ops-backend/api/routes"
	"github.com/plateops/ops-backend/internal/eventbridge"
	"github.com/plateops/ops-backend/internal/heartbeat"
	"github.com/plateops/ops-backend/internal/jobs"
	"github.com/plateops/ops-backend/internal/jobs/handlers"
	"github.com/plateops/ops-backend/internal/notifications"
	"github.com/plateops/ops-backend/internal/realtime"
	"github.com/plateops/ops-backend/pkg/config"
	"github.com/plateops/ops-backend/pkg/db"
	"github.com/plateops/ops-backend/pkg/eventbus"
	"github.com/plateops/ops-backend/pkg/idempotency"
	"github.com/plateops/ops-backend/pkg/instance"
	"github.com/plateops/ops-backend/pkg/logger"
	"github.com/plateops/ops-backend/pkg/metrics"
	"github.com/plateops/ops-backend/pkg/migrate"
	"github.com/plateops/ops-backend/pkg/pubsub"
	"github.com/plateops/ops-backend/pkg/redis"
	"github.com/plateops/ops-backend/pkg/voiceordering"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	requireResource(context.Background(), logg, "config", err)
	cfg.Service.Kind = "worker"

	logg = logger.New(logger.Options{
		ServiceName: "worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	instanceID := instance.GetID()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"instance":    instanceID,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)

	requireResource(ctx, logg, "dev migrations", migrate.MaybeRunDev(ctx, cfg, logg, dbClient))

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)

	var psClient *pubsub.Client
	if cfg.FeatureFlags.PubSub {
		psClient, err = pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
		requireResource(ctx, logg, "pubsub", err)
	}

	reg := prometheus.DefaultRegisterer

	bus, err := eventbus.New(eventbus.Params{Logger: logg, Metrics: metrics.NewBusMetrics(reg)})
	requireResource(ctx, logg, "event bus", err)

	dispatcher, err := realtime.NewRedisDispatcher(redisClient)
	requireResource(ctx, logg, "realtime dispatcher", err)

	_, err = notifications.NewPipeline(notifications.PipelineParams{
		Bus:        bus,
		Store:      notifications.NewRepository(dbClient.DB()),
		Dispatcher: dispatcher,
		Logger:     logg,
		Metrics:    metrics.NewNotificationMetrics(reg),
	})
	requireResource(ctx, logg, "notification pipeline", err)

	beat, err := heartbeat.New(heartbeat.Params{
		Logger:   logg,
		Store:    heartbeat.NewRepository(dbClient.DB()),
		Metrics:  metrics.NewHeartbeatMetrics(reg),
		Instance: instanceID,
		Interval: cfg.Worker.HeartbeatInterval,
	})
	requireResource(ctx, logg, "heartbeat", err)

	handlerParams := handlers.Params{
		Logger:  logg,
		Catalog: handlers.NewCatalog(dbClient.DB()),
		Events:  bus,
	}
	if cfg.VoiceOrdering.MenuSyncURL != "" {
		voiceClient, err := voiceordering.NewClient(
			cfg.VoiceOrdering.MenuSyncURL,
			cfg.VoiceOrdering.APIKey,
			voiceordering.WithTimeout(cfg.VoiceOrdering.Timeout),
		)
		requireResource(ctx, logg, "voice ordering client", err)
		handlerParams.MenuPublisher = voiceClient
	} else {
		logg.Warn(ctx, "voice ordering menu sync url not set; menu_sync jobs will fail")
	}

	var outbound *pubsub.TopicPublisher
	if psClient != nil {
		outbound = psClient.OutboundPublisher()
	}
	if outbound != nil {
		handlerParams.Outbound = outbound
	} else {
		logg.Warn(ctx, "pubsub disabled; outbound_messaging jobs will fail")
	}

	registry := jobs.NewRegistry()
	requireResource(ctx, logg, "job handlers", handlers.Register(registry, handlerParams))

	runner, err := jobs.NewRunner(jobs.RunnerParams{
		Logger:       logg,
		Registry:     registry,
		Queue:        jobs.NewRepository(dbClient.DB()),
		Metrics:      metrics.NewJobMetrics(reg),
		Events:       bus,
		PollInterval: cfg.Worker.PollInterval(),
		BatchSize:    cfg.Worker.BatchSize,
		Concurrency:  cfg.Worker.Concurrency,
	})
	requireResource(ctx, logg, "job runner", err)

	var bridge blockingRunner
	if psClient != nil {
		subscription := psClient.EventsSubscription()
		if subscription == nil {
			requireResource(ctx, logg, "events subscription", errMissingSubscription)
		}
		guard, err := idempotency.NewGuard(redisClient, cfg.Eventing.IdempotencyTTL)
		requireResource(ctx, logg, "idempotency guard", err)
		consumer, err := eventbridge.NewConsumer(eventbridge.ConsumerParams{
			Subscription: subscription,
			Guard:        guard,
			Bus:          bus,
			Logger:       logg,
		})
		requireResource(ctx, logg, "event bridge", err)
		bridge = consumer
	}

	pingers := map[string]controllers.Pinger{"db": dbClient, "redis": redisClient}
	if psClient != nil {
		pingers["pubsub"] = psClient
	}
	opsServer := &http.Server{
		Addr:              ":" + cfg.Worker.OpsPort,
		Handler:           routes.NewOpsRouter(cfg, logg, pingers, prometheus.DefaultGatherer),
		ReadHeaderTimeout: 5 * time.Second,
	}

	closers := []closer{}
	if outbound != nil {
		closers = append(closers, closer{name: "outbound publisher", close: func() error {
			outbound.Stop()
			return nil
		}})
	}
	if psClient != nil {
		closers = append(closers, closer{name: "pubsub", close: psClient.Close})
	}
	closers = append(closers,
		closer{name: "redis", close: redisClient.Close},
		closer{name: "database", close: dbClient.Close},
	)

	service, err := NewService(ServiceParams{
		Config:    cfg,
		Logger:    logg,
		Heartbeat: beat,
		Runner:    runner,
		Bus:       bus,
		Bridge:    bridge,
		OpsServer: opsServer,
		Closers:   closers,
	})
	requireResource(ctx, logg, "worker service", err)

	logg.Info(ctx, "starting worker")
	if err := service.Run(ctx); err != nil {
		logg.Error(ctx, "worker stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "worker shut down gracefully")
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(logg.WithField(ctx, "resource", resource), "worker startup failed", err)
	os.Exit(1)
}
