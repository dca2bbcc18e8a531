package jobs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plateops/ops-backend/pkg/db/models"
	"github.com/plateops/ops-backend/pkg/enums"
)

func TestRegistryLastRegistrationWins(t *testing.T) {
	registry := NewRegistry()
	registry.Register(enums.JobTypeMenuSync, func(context.Context, models.Job) (any, error) { return "first", nil })
	registry.Register(enums.JobTypeMenuSync, func(context.Context, models.Job) (any, error) { return "second", nil })
	registry.Register(enums.JobTypeInventorySync, nil)

	handler, ok := registry.Lookup(enums.JobTypeMenuSync)
	require.True(t, ok)
	out, err := handler(context.Background(), models.Job{})
	require.NoError(t, err)
	assert.Equal(t, "second", out)

	_, ok = registry.Lookup(enums.JobTypeInventorySync)
	assert.False(t, ok)
	assert.Equal(t, []enums.JobType{enums.JobTypeMenuSync}, registry.Types())
}
