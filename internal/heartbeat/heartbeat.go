package heartbeat

import (
	"context"
	"fmt"
	"time"

	"github.com/plateops/ops-backend/pkg/logger"
	"github.com/plateops/ops-backend/pkg/metrics"
)

const defaultInterval = 30 * time.Second

type writer interface {
	Beat(ctx context.Context, instance string, at time.Time) error
}

type Params struct {
	Logger   *logger.Logger
	Store    writer
	Metrics  *metrics.HeartbeatMetrics
	Instance string
	Interval time.Duration
	Now      func() time.Time
}

// Service records worker liveness on a fixed cadence.
type Service struct {
	logg     *logger.Logger
	store    writer
	metrics  *metrics.HeartbeatMetrics
	instance string
	interval time.Duration
	now      func() time.Time
}

func New(params Params) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Store == nil {
		return nil, fmt.Errorf("heartbeat store required")
	}
	interval := params.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		logg:     params.Logger,
		store:    params.Store,
		metrics:  params.Metrics,
		instance: params.Instance,
		interval: interval,
		now:      now,
	}, nil
}

// Beat records one heartbeat synchronously. The worker calls it before the
// job runner starts so a fresh row exists before any job is claimed.
func (s *Service) Beat(ctx context.Context) {
	s.beat(s.logg.WithField(ctx, "worker_instance", s.instance))
}

// Run writes a heartbeat every interval until ctx is canceled. Write failures
// are logged and never stop the loop.
func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = s.logg.WithField(ctx, "worker_instance", s.instance)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.logg.Info(context.WithoutCancel(ctx), "heartbeat stopped")
			return ctx.Err()
		case <-ticker.C:
			s.beat(ctx)
		}
	}
}

func (s *Service) beat(ctx context.Context) {
	at := s.now().UTC()
	if err := s.store.Beat(ctx, s.instance, at); err != nil {
		if ctx.Err() != nil {
			return
		}
		s.metrics.IncFailure()
		s.logg.Error(ctx, "heartbeat write failed", err)
		return
	}
	s.metrics.MarkSuccess(at)
	s.logg.Debug(ctx, "heartbeat recorded")
}
