package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plateops/ops-backend/pkg/auth"
	"github.com/plateops/ops-backend/pkg/auth/authtest"
	"github.com/plateops/ops-backend/pkg/enums"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthRejectsMissingToken(t *testing.T) {
	handler := Auth(authtest.Config, nil)(okHandler())

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestAuthRejectsInvalidToken(t *testing.T) {
	handler := Auth(authtest.Config, nil)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer invalid")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestAuthRejectsExpiredToken(t *testing.T) {
	past := time.Now().Add(-2 * time.Hour)
	token := authtest.Sign(t, authtest.Config.Secret, auth.AccessTokenClaims{
		UserID:       "user-1",
		RestaurantID: "rest-1",
		Role:         enums.MemberRoleOwner,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    authtest.Config.Issuer,
			ExpiresAt: jwt.NewNumericDate(past),
		},
	})
	handler := Auth(authtest.Config, nil)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestAuthAllowsValidToken(t *testing.T) {
	token := authtest.Token(t, "rest-1", enums.MemberRoleManager)

	var captured *auth.AccessTokenClaims
	handler := Auth(authtest.Config, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	require.NotNil(t, captured)
	assert.Equal(t, "user-1", captured.UserID)
	assert.Equal(t, "rest-1", captured.RestaurantID)
	assert.Equal(t, enums.MemberRoleManager, captured.Role)
}

func TestAuthAcceptsQueryTokenOnlyForWebsocketUpgrade(t *testing.T) {
	token := authtest.Token(t, "rest-1", enums.MemberRoleStaff)
	handler := Auth(authtest.Config, nil)(okHandler())

	plain := httptest.NewRequest(http.MethodGet, "/?access_token="+token, nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, plain)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	upgrade := httptest.NewRequest(http.MethodGet, "/?access_token="+token, nil)
	upgrade.Header.Set("Connection", "Upgrade")
	upgrade.Header.Set("Upgrade", "websocket")
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, upgrade)
	assert.Equal(t, http.StatusOK, resp.Code)
}

func scopedRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(Auth(authtest.Config, nil))
	r.With(RestaurantScope(nil)).Get("/restaurants/{restaurantId}", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(RestaurantIDFromContext(r.Context())))
	})
	return r
}

func TestRestaurantScope(t *testing.T) {
	cases := []struct {
		name   string
		token  string
		path   string
		status int
	}{
		{"own restaurant", authtest.Token(t, "rest-1", enums.MemberRoleOwner), "/restaurants/rest-1", http.StatusOK},
		{"other restaurant", authtest.Token(t, "rest-1", enums.MemberRoleOwner), "/restaurants/rest-2", http.StatusForbidden},
		{"platform admin", authtest.Token(t, "", enums.MemberRolePlatformAdmin), "/restaurants/rest-2", http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			req.Header.Set("Authorization", "Bearer "+tc.token)
			resp := httptest.NewRecorder()
			scopedRouter().ServeHTTP(resp, req)
			assert.Equal(t, tc.status, resp.Code)
			if tc.status == http.StatusOK {
				assert.Equal(t, strings.TrimPrefix(tc.path, "/restaurants/"), resp.Body.String())
			}
		})
	}
}

func TestRequestIDEchoesOrMints(t *testing.T) {
	handler := RequestID(nil)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", "abc-123")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	assert.Equal(t, "abc-123", resp.Header().Get("X-Request-Id"))

	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, resp.Header().Get("X-Request-Id"), 36)
}

func TestRecovererReturns500(t *testing.T) {
	handler := Recoverer(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, resp.Code)
	assert.Contains(t, resp.Body.String(), "INTERNAL_ERROR")
}

func TestLoggingRecordsStatusAndKeepsHijacker(t *testing.T) {
	var hijackable bool
	handler := Logging(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hijackable = w.(http.Hijacker)
		w.WriteHeader(http.StatusTeapot)
	}))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, resp.Code)
	assert.True(t, hijackable)
}

func TestCORSAllowsConfiguredOrigin(t *testing.T) {
	handler := CORS([]string{"https://dash.example.com"})(okHandler())

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://dash.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	assert.Equal(t, "https://dash.example.com", resp.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	assert.Empty(t, resp.Header().Get("Access-Control-Allow-Origin"))
}
