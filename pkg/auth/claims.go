package auth

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/plateops/ops-backend/pkg/enums"
)

// AccessTokenClaims is the typed JWT minted by the identity service.
type AccessTokenClaims struct {
	UserID       string           `json:"user_id"`
	RestaurantID string           `json:"restaurant_id,omitempty"`
	Role         enums.MemberRole `json:"role"`
	jwt.RegisteredClaims
}

// IsPlatformAdmin reports whether the token may act on any restaurant.
func (c *AccessTokenClaims) IsPlatformAdmin() bool {
	return c != nil && c.Role == enums.MemberRolePlatformAdmin
}

// CanAccessRestaurant reports whether the token is scoped to restaurantID.
func (c *AccessTokenClaims) CanAccessRestaurant(restaurantID string) bool {
	if c == nil || restaurantID == "" {
		return false
	}
	return c.IsPlatformAdmin() || c.RestaurantID == restaurantID
}
