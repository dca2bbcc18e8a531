package jobs

import (
	"context"
	"sort"
	"sync"

	"github.com/plateops/ops-backend/pkg/db/models"
	"github.com/plateops/ops-backend/pkg/enums"
)

// HandlerFunc executes one job. The returned value is stored as the job result.
type HandlerFunc func(ctx context.Context, job models.Job) (any, error)

// Registry maps job types to handlers.
type Registry struct {
	mu       sync.RWMutex
	handlers map[enums.JobType]HandlerFunc
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[enums.JobType]HandlerFunc)}
}

// Register associates jobType with handler. A later registration for the same
// type replaces the earlier one.
func (r *Registry) Register(jobType enums.JobType, handler HandlerFunc) {
	if handler == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[jobType] = handler
}

func (r *Registry) Lookup(jobType enums.JobType) (HandlerFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	handler, ok := r.handlers[jobType]
	return handler, ok
}

// Types lists registered job types in lexical order.
func (r *Registry) Types() []enums.JobType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]enums.JobType, 0, len(r.handlers))
	for jobType := range r.handlers {
		out = append(out, jobType)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
