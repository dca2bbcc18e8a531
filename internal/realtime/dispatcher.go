package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/plateops/ops-backend/pkg/enums"
	pkgerrors "github.com/plateops/ops-backend/pkg/errors"
)

// Dispatcher pushes a message to every live connection of a restaurant.
// Delivery is best-effort: with no connected client the message is dropped.
type Dispatcher interface {
	EmitToRestaurant(ctx context.Context, restaurantID string, payload any) error
}

// ErrRecipientUnsupported is returned for role and user addressing, which is
// reserved but not routed yet.
var ErrRecipientUnsupported = pkgerrors.New(pkgerrors.CodeUnsupported, "recipient kind not supported")

// Recipient addresses a push: a whole restaurant, a role within it, or one user.
type Recipient struct {
	Kind         enums.RecipientKind
	RestaurantID string
	Role         enums.MemberRole
	UserID       string
}

func RestaurantRecipient(restaurantID string) Recipient {
	return Recipient{Kind: enums.RecipientRestaurant, RestaurantID: restaurantID}
}

func RoleRecipient(restaurantID string, role enums.MemberRole) Recipient {
	return Recipient{Kind: enums.RecipientRole, RestaurantID: restaurantID, Role: role}
}

func UserRecipient(restaurantID, userID string) Recipient {
	return Recipient{Kind: enums.RecipientUser, RestaurantID: restaurantID, UserID: userID}
}

// Send routes payload to recipient through d.
func Send(ctx context.Context, d Dispatcher, recipient Recipient, payload any) error {
	if strings.TrimSpace(recipient.RestaurantID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "recipient restaurantId is required")
	}
	switch recipient.Kind {
	case enums.RecipientRestaurant:
		return d.EmitToRestaurant(ctx, recipient.RestaurantID, payload)
	case enums.RecipientRole, enums.RecipientUser:
		return ErrRecipientUnsupported
	default:
		return pkgerrors.Newf(pkgerrors.CodeValidation, "unknown recipient kind %q", recipient.Kind)
	}
}

func encode(payload any) ([]byte, error) {
	switch v := payload.(type) {
	case json.RawMessage:
		return v, nil
	case []byte:
		return v, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode realtime payload: %w", err)
	}
	return raw, nil
}
