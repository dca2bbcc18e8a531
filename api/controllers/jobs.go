package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/plateops/ops-backend/api/middleware"
	"github.com/plateops/ops-backend/api/responses"
	"github.com/plateops/ops-backend/api/validators"
	"github.com/plateops/ops-backend/internal/jobs"
	"github.com/plateops/ops-backend/pkg/db"
	"github.com/plateops/ops-backend/pkg/db/models"
	"github.com/plateops/ops-backend/pkg/enums"
	pkgerrors "github.com/plateops/ops-backend/pkg/errors"
	"github.com/plateops/ops-backend/pkg/logger"
)

// JobQueue is the slice of the job repository the API needs.
type JobQueue interface {
	Enqueue(ctx context.Context, params jobs.EnqueueParams) (*models.Job, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Job, error)
}

type enqueueJobRequest struct {
	Type     string          `json:"type" validate:"required,oneof=menu_sync inventory_sync outbound_messaging"`
	Channels []string        `json:"channels" validate:"omitempty,max=3,dive,required"`
	Details  json.RawMessage `json:"details"`
}

// EnqueueJob inserts a pending job for the restaurant in the path.
func EnqueueJob(queue JobQueue, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if queue == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "job queue unavailable"))
			return
		}

		restaurantID := middleware.RestaurantIDFromContext(r.Context())
		if restaurantID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "restaurant context missing"))
			return
		}

		var body enqueueJobRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		channels := make([]string, 0, len(body.Channels))
		for _, ch := range body.Channels {
			channels = append(channels, strings.ToLower(strings.TrimSpace(ch)))
		}

		job, err := queue.Enqueue(r.Context(), jobs.EnqueueParams{
			Type:         enums.JobType(body.Type),
			RestaurantID: restaurantID,
			Channels:     channels,
			Details:      body.Details,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if logg != nil {
			ctx := logg.WithJobID(r.Context(), job.ID.String())
			logg.Info(logg.WithField(ctx, "job_type", string(job.Type)), "job enqueued")
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, job)
	}
}

// GetJob returns one job. Jobs of other restaurants read as not found.
func GetJob(queue JobQueue, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if queue == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "job queue unavailable"))
			return
		}

		restaurantID := middleware.RestaurantIDFromContext(r.Context())
		if restaurantID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "restaurant context missing"))
			return
		}

		jobID, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, "jobId")))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid job id"))
			return
		}

		job, err := queue.Get(r.Context(), jobID)
		if db.IsNotFound(err) || (err == nil && (job.RestaurantID == nil || *job.RestaurantID != restaurantID)) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "job not found"))
			return
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "get job"))
			return
		}
		responses.WriteSuccess(w, job)
	}
}
