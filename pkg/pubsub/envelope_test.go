package pubsub

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEnvelopeFallsBackToAttributes(t *testing.T) {
	env, err := DecodeEnvelope([]byte(`{"version":1,"data":{"orderId":"o-1"}}`), map[string]string{
		AttrEventID:      "evt-1",
		AttrEventType:    "order.created",
		AttrRestaurantID: "r1",
	})
	require.NoError(t, err)
	assert.Equal(t, "evt-1", env.EventID)
	assert.Equal(t, "order.created", env.EventType)
	assert.Equal(t, "r1", env.RestaurantID)
	assert.JSONEq(t, `{"orderId":"o-1"}`, string(env.Data))
}

func TestDecodeEnvelopeRequiresEventID(t *testing.T) {
	_, err := DecodeEnvelope([]byte(`{"eventType":"order.created"}`), nil)
	assert.Error(t, err)

	_, err = DecodeEnvelope([]byte(`not json`), nil)
	assert.Error(t, err)
}

func TestResourceName(t *testing.T) {
	assert.Equal(t, "projects/p1/topics/outbound", resourceName("p1", "topics", "outbound"))
	assert.Equal(t, "projects/x/topics/t", resourceName("p1", "topics", "projects/x/topics/t"))
	assert.Equal(t, "projects/p1/subscriptions/s", resourceName("p1", "subscriptions", " s "))
	assert.Empty(t, resourceName("", "topics", "outbound"))
	assert.Empty(t, resourceName("p1", "topics", ""))
}
