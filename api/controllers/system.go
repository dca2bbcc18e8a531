package controllers

import (
	"context"
	"net/http"

	"github.com/plateops/ops-backend/api/responses"
	"github.com/plateops/ops-backend/internal/heartbeat"
	pkgerrors "github.com/plateops/ops-backend/pkg/errors"
	"github.com/plateops/ops-backend/pkg/logger"
)

// LivenessChecker is implemented by heartbeat.Checker.
type LivenessChecker interface {
	Check(ctx context.Context) (heartbeat.Status, error)
}

// SystemHealth reports worker liveness from the heartbeat row. A stale worker
// is still a 200; monitors alert on the flag.
func SystemHealth(checker LivenessChecker, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if checker == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "liveness checker unavailable"))
			return
		}
		status, err := checker.Check(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read worker heartbeat"))
			return
		}
		responses.WriteSuccess(w, status)
	}
}
