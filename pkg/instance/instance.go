package instance

import (
	"os"

	"github.com/plateops/ops-backend/pkg/env"
)

// GetID returns the worker instance identifier recorded alongside heartbeats.
func GetID() string {
	if id := env.Get("RO_WORKER_ID", ""); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "worker-0"
}
