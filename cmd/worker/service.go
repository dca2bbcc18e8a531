package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/plateops/ops-backend/pkg/config"
	"github.com/plateops/ops-backend/pkg/logger"
)

type jobRunner interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

type blockingRunner interface {
	Run(ctx context.Context) error
}

type heartbeater interface {
	Beat(ctx context.Context)
	Run(ctx context.Context) error
}

type drainer interface {
	Drain(ctx context.Context) error
}

// closer releases one external resource at shutdown.
type closer struct {
	name  string
	close func() error
}

type ServiceParams struct {
	Config    *config.Config
	Logger    *logger.Logger
	Heartbeat heartbeater
	Runner    jobRunner
	Bus       drainer
	// Bridge is the optional Pub/Sub domain-event consumer.
	Bridge    blockingRunner
	OpsServer *http.Server
	Closers   []closer
}

// Service owns the worker's long-running parts and tears them down in order:
// heartbeat, bridge, job runner, bus drain, ops server, then external clients.
type Service struct {
	cfg       *config.Config
	logg      *logger.Logger
	heartbeat heartbeater
	runner    jobRunner
	bus       drainer
	bridge    blockingRunner
	ops       *http.Server
	closers   []closer
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Config == nil {
		return nil, errors.New("config is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.Heartbeat == nil {
		return nil, errors.New("heartbeat is required")
	}
	if params.Runner == nil {
		return nil, errors.New("job runner is required")
	}
	if params.Bus == nil {
		return nil, errors.New("event bus is required")
	}
	return &Service{
		cfg:       params.Config,
		logg:      params.Logger,
		heartbeat: params.Heartbeat,
		runner:    params.Runner,
		bus:       params.Bus,
		bridge:    params.Bridge,
		ops:       params.OpsServer,
		closers:   params.Closers,
	}, nil
}

// Run starts every component and blocks until ctx is cancelled or the ops
// server fails, then shuts down. A clean shutdown returns nil.
func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	// Components get contexts detached from ctx so shutdown can stop them one
	// at a time instead of all at once on the signal.
	base := context.WithoutCancel(ctx)

	heartbeatCtx, stopHeartbeat := context.WithCancel(base)
	defer stopHeartbeat()
	s.heartbeat.Beat(heartbeatCtx)
	heartbeatDone := s.goRun(heartbeatCtx, "heartbeat", s.heartbeat)

	if err := s.runner.Start(base); err != nil {
		stopHeartbeat()
		<-heartbeatDone
		s.closeAll(ctx)
		return err
	}

	bridgeCtx, stopBridge := context.WithCancel(base)
	defer stopBridge()
	var bridgeDone <-chan struct{}
	if s.bridge != nil {
		bridgeDone = s.goRun(bridgeCtx, "event bridge", s.bridge)
	}

	opsErr := make(chan error, 1)
	if s.ops != nil {
		go func() {
			s.logg.Info(s.logg.WithField(ctx, "addr", s.ops.Addr), "worker ops server listening")
			if err := s.ops.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				opsErr <- err
			}
		}()
	}

	s.logg.Info(ctx, "worker started")

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-opsErr:
		s.logg.Error(ctx, "worker ops server stopped unexpectedly", runErr)
	}

	s.logg.Info(ctx, "worker shutting down")
	shutdownCtx, cancel := context.WithTimeout(base, s.shutdownTimeout())
	defer cancel()

	stopHeartbeat()
	<-heartbeatDone

	if bridgeDone != nil {
		stopBridge()
		<-bridgeDone
	}

	if err := s.runner.Stop(shutdownCtx); err != nil {
		s.logg.Error(shutdownCtx, "job runner did not stop cleanly", err)
	}

	drainCtx, cancelDrain := shutdownCtx, context.CancelFunc(func() {})
	if d := s.cfg.Eventing.DrainTimeout; d > 0 {
		drainCtx, cancelDrain = context.WithTimeout(shutdownCtx, d)
	}
	if err := s.bus.Drain(drainCtx); err != nil {
		s.logg.Warn(shutdownCtx, "event bus drain timed out; in-flight handlers abandoned")
	}
	cancelDrain()

	if s.ops != nil {
		if err := s.ops.Shutdown(shutdownCtx); err != nil {
			s.logg.Error(shutdownCtx, "worker ops server shutdown failed", err)
		}
	}

	s.closeAll(shutdownCtx)
	return runErr
}

func (s *Service) goRun(ctx context.Context, name string, r blockingRunner) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := r.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.logg.Error(s.logg.WithField(ctx, "component", name), "worker component stopped", err)
		}
	}()
	return done
}

// closeAll runs closers in registration order.
func (s *Service) closeAll(ctx context.Context) {
	for _, c := range s.closers {
		if c.close == nil {
			continue
		}
		if err := c.close(); err != nil {
			s.logg.Error(s.logg.WithField(ctx, "resource", c.name), "error closing resource", err)
		}
	}
}

func (s *Service) shutdownTimeout() time.Duration {
	if s.cfg.Worker.ShutdownTimeout > 0 {
		return s.cfg.Worker.ShutdownTimeout
	}
	return 30 * time.Second
}

var errMissingSubscription = errors.New("pubsub events subscription not configured")
