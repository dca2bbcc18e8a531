package heartbeat

import (
	"context"
	"time"

	"github.com/plateops/ops-backend/pkg/db"
	"github.com/plateops/ops-backend/pkg/db/models"
)

// Status is the worker liveness view served to external monitors.
type Status struct {
	WorkerLastSeenAt *time.Time `json:"workerLastSeenAt"`
	WorkerInstance   string     `json:"workerInstance,omitempty"`
	AgeSeconds       int64      `json:"ageSeconds"`
	Stale            bool       `json:"stale"`
}

type reader interface {
	Get(ctx context.Context) (*models.SystemHealth, error)
}

// Checker derives Status from the heartbeat row.
type Checker struct {
	store      reader
	staleAfter time.Duration
	now        func() time.Time
}

func NewChecker(store reader, staleAfter time.Duration) *Checker {
	if staleAfter <= 0 {
		staleAfter = 4 * defaultInterval
	}
	return &Checker{store: store, staleAfter: staleAfter, now: time.Now}
}

// Check reports a missing row as stale rather than as an error.
func (c *Checker) Check(ctx context.Context) (Status, error) {
	row, err := c.store.Get(ctx)
	if db.IsNotFound(err) {
		return Status{Stale: true}, nil
	}
	if err != nil {
		return Status{}, err
	}
	lastSeen := row.WorkerLastSeenAt.UTC()
	age := c.now().UTC().Sub(lastSeen)
	if age < 0 {
		age = 0
	}
	return Status{
		WorkerLastSeenAt: &lastSeen,
		WorkerInstance:   row.WorkerInstance,
		AgeSeconds:       int64(age / time.Second),
		Stale:            age > c.staleAfter,
	}, nil
}
