package middleware

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/plateops/ops-backend/api/responses"
	pkgerrors "github.com/plateops/ops-backend/pkg/errors"
	"github.com/plateops/ops-backend/pkg/logger"
)

// RestaurantParam is the chi URL parameter naming the tenant.
const RestaurantParam = "restaurantId"

// RestaurantScope rejects requests whose token is not scoped to the restaurant
// in the path. Platform admins pass for every restaurant. Must run after Auth.
func RestaurantScope(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			restaurantID := strings.TrimSpace(chi.URLParam(r, RestaurantParam))
			if restaurantID == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "restaurant id required"))
				return
			}

			claims := ClaimsFromContext(r.Context())
			if claims == nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}
			if !claims.CanAccessRestaurant(restaurantID) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "restaurant access denied"))
				return
			}

			ctx := WithRestaurantID(r.Context(), restaurantID)
			if logg != nil {
				ctx = logg.WithRestaurantID(ctx, restaurantID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
