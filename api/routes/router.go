package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/plateops/ops-backend/api/controllers"
	"github.com/plateops/ops-backend/api/middleware"
	"github.com/plateops/ops-backend/internal/notifications"
	"github.com/plateops/ops-backend/internal/realtime"
	"github.com/plateops/ops-backend/pkg/config"
	"github.com/plateops/ops-backend/pkg/eventbus"
	"github.com/plateops/ops-backend/pkg/logger"
)

// Deps are the collaborators the API routes are built from. Nil services
// still mount their routes and answer 500.
type Deps struct {
	Config        *config.Config
	Logger        *logger.Logger
	Pingers       map[string]controllers.Pinger
	Gatherer      prometheus.Gatherer
	Bus           eventbus.Emitter
	Notifications notifications.Service
	Jobs          controllers.JobQueue
	Liveness      controllers.LivenessChecker
	Hub           *realtime.Hub
}

func NewRouter(deps Deps) http.Handler {
	cfg, logg := deps.Config, deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.Realtime.AllowedOrigins),
	)

	mountOps(r, cfg, logg, deps.Pingers, deps.Gatherer)

	r.Route("/ws/restaurants/{restaurantId}", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RestaurantScope(logg))
		r.Get("/", controllers.RealtimeSubscribe(deps.Hub, cfg.Realtime.AllowedOrigins, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/system/health", controllers.SystemHealth(deps.Liveness, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))

			r.Route("/restaurants/{restaurantId}", func(r chi.Router) {
				r.Use(middleware.RestaurantScope(logg))

				r.Get("/notifications", controllers.ListNotifications(deps.Notifications, logg))
				r.Post("/notifications/read-all", controllers.MarkAllNotificationsRead(deps.Notifications, logg))
				r.Post("/notifications/{notificationId}/read", controllers.MarkNotificationRead(deps.Notifications, logg))

				r.Post("/events", controllers.IngestEvent(deps.Bus, logg))

				r.Post("/jobs", controllers.EnqueueJob(deps.Jobs, logg))
				r.Get("/jobs/{jobId}", controllers.GetJob(deps.Jobs, logg))
			})
		})
	})

	return r
}

// NewOpsRouter serves only health and metrics. The worker exposes it on its
// ops port.
func NewOpsRouter(cfg *config.Config, logg *logger.Logger, pingers map[string]controllers.Pinger, gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
	)
	mountOps(r, cfg, logg, pingers, gatherer)
	return r
}

func mountOps(r chi.Router, cfg *config.Config, logg *logger.Logger, pingers map[string]controllers.Pinger, gatherer prometheus.Gatherer) {
	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, pingers))
	})

	if cfg.Metrics.Enabled {
		if gatherer == nil {
			gatherer = prometheus.DefaultGatherer
		}
		path := cfg.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		r.Method(http.MethodGet, path, promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
}
