package main

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plateops/ops-backend/pkg/config"
	"github.com/plateops/ops-backend/pkg/logger"
)

type stepLog struct {
	mu    sync.Mutex
	steps []string
}

func (l *stepLog) add(step string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.steps = append(l.steps, step)
}

func (l *stepLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.steps...)
}

type fakeLoop struct {
	name    string
	log     *stepLog
	started chan struct{}
}

func newFakeLoop(name string, log *stepLog) *fakeLoop {
	return &fakeLoop{name: name, log: log, started: make(chan struct{})}
}

func (f *fakeLoop) Run(ctx context.Context) error {
	close(f.started)
	<-ctx.Done()
	f.log.add(f.name + ".stopped")
	return ctx.Err()
}

type fakeHeartbeat struct {
	*fakeLoop
}

func newFakeHeartbeat(log *stepLog) fakeHeartbeat {
	return fakeHeartbeat{fakeLoop: newFakeLoop("heartbeat", log)}
}

func (f fakeHeartbeat) Beat(context.Context) {
	f.log.add("heartbeat.beat")
}

type fakeRunner struct {
	log      *stepLog
	startErr error
}

func (f *fakeRunner) Start(ctx context.Context) error {
	f.log.add("runner.started")
	return f.startErr
}

func (f *fakeRunner) Stop(ctx context.Context) error {
	f.log.add("runner.stopped")
	return nil
}

type fakeBus struct {
	log *stepLog
	err error
}

func (f *fakeBus) Drain(ctx context.Context) error {
	f.log.add("bus.drained")
	return f.err
}

func testConfig() *config.Config {
	return &config.Config{
		Worker:   config.WorkerConfig{ShutdownTimeout: time.Second},
		Eventing: config.EventingConfig{DrainTimeout: time.Second},
	}
}

func recordingCloser(name string, log *stepLog, err error) closer {
	return closer{name: name, close: func() error {
		log.add(name + ".closed")
		return err
	}}
}

func TestServiceShutsDownInOrder(t *testing.T) {
	log := &stepLog{}
	beat := newFakeHeartbeat(log)
	bridge := newFakeLoop("bridge", log)

	svc, err := NewService(ServiceParams{
		Config:    testConfig(),
		Logger:    logger.Nop(),
		Heartbeat: beat,
		Runner:    &fakeRunner{log: log},
		Bus:       &fakeBus{log: log},
		Bridge:    bridge,
		Closers: []closer{
			recordingCloser("pubsub", log, nil),
			recordingCloser("redis", log, errors.New("already closed")),
			recordingCloser("database", log, nil),
		},
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	<-beat.started
	<-bridge.started
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("service did not shut down")
	}

	assert.Equal(t, []string{
		"heartbeat.beat",
		"runner.started",
		"heartbeat.stopped",
		"bridge.stopped",
		"runner.stopped",
		"bus.drained",
		"pubsub.closed",
		"redis.closed",
		"database.closed",
	}, log.snapshot())
}

func TestServiceDrainTimeoutIsNotFatal(t *testing.T) {
	log := &stepLog{}
	beat := newFakeHeartbeat(log)
	svc, err := NewService(ServiceParams{
		Config:    testConfig(),
		Logger:    logger.Nop(),
		Heartbeat: beat,
		Runner:    &fakeRunner{log: log},
		Bus:       &fakeBus{log: log, err: context.DeadlineExceeded},
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()
	<-beat.started
	cancel()

	require.NoError(t, <-done)
	assert.Contains(t, log.snapshot(), "bus.drained")
}

func TestServiceRunnerStartFailureReleasesResources(t *testing.T) {
	log := &stepLog{}
	svc, err := NewService(ServiceParams{
		Config:    testConfig(),
		Logger:    logger.Nop(),
		Heartbeat: newFakeHeartbeat(log),
		Runner:    &fakeRunner{log: log, startErr: errors.New("runner already started")},
		Bus:       &fakeBus{log: log},
		Closers:   []closer{recordingCloser("database", log, nil)},
	})
	require.NoError(t, err)

	err = svc.Run(context.Background())
	require.EqualError(t, err, "runner already started")
	assert.Equal(t, []string{"heartbeat.beat", "runner.started", "heartbeat.stopped", "database.closed"}, log.snapshot())
}

func TestNewServiceValidatesParams(t *testing.T) {
	log := &stepLog{}
	base := ServiceParams{
		Config:    testConfig(),
		Logger:    logger.Nop(),
		Heartbeat: newFakeHeartbeat(log),
		Runner:    &fakeRunner{log: log},
		Bus:       &fakeBus{log: log},
	}

	missing := []func(p *ServiceParams){
		func(p *ServiceParams) { p.Config = nil },
		func(p *ServiceParams) { p.Logger = nil },
		func(p *ServiceParams) { p.Heartbeat = nil },
		func(p *ServiceParams) { p.Runner = nil },
		func(p *ServiceParams) { p.Bus = nil },
	}
	for _, mutate := range missing {
		params := base
		mutate(&params)
		_, err := NewService(params)
		assert.Error(t, err)
	}
}
