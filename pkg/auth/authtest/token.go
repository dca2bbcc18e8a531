// Package authtest mints access tokens for handler and middleware tests.
package authtest

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/plateops/ops-backend/pkg/auth"
	"github.com/plateops/ops-backend/pkg/config"
	"github.com/plateops/ops-backend/pkg/enums"
)

// Config is the JWT configuration the minted tokens validate against.
var Config = config.JWTConfig{Secret: "test-secret", Issuer: "plateops-identity"}

// Token signs a token for restaurantID with role, valid for one hour.
func Token(t testing.TB, restaurantID string, role enums.MemberRole) string {
	t.Helper()
	now := time.Now()
	return Sign(t, Config.Secret, auth.AccessTokenClaims{
		UserID:       "user-1",
		RestaurantID: restaurantID,
		Role:         role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	})
}

// Sign signs arbitrary claims with secret.
func Sign(t testing.TB, secret string, claims auth.AccessTokenClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(auth.SigningMethod, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}
