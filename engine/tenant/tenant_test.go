package tenant

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foofork/riptidecrawler-sub009/engine/models"
)

func TestRegisterAndGet(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(models.Tenant{ID: "acme", MaxPages: 100}))

	got, err := r.Get("acme")
	require.NoError(t, err)
	assert.Equal(t, "acme", got.ID)

	err = r.Register(models.Tenant{ID: "acme"})
	assert.ErrorIs(t, err, ErrTenantExists)
}

func TestReserveEnforcesQuota(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(models.Tenant{ID: "acme", MaxPages: 10}))

	require.NoError(t, r.Reserve("acme", 10))
	err := r.Reserve("acme", 1)
	assert.ErrorIs(t, err, ErrQuotaExhausted)

	r.Release("acme", 5)
	assert.NoError(t, r.Reserve("acme", 5))
}

func TestNamespaceDependsOnIsolation(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(models.Tenant{ID: "logical"}))
	require.NoError(t, r.Register(models.Tenant{ID: "strong", Isolation: models.IsolationStrong}))

	assert.Equal(t, "", r.Namespace("logical"))
	assert.Equal(t, "tenant:strong:", r.Namespace("strong"))
}

func TestUsageUnboundedIsZero(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(models.Tenant{ID: "unbounded"}))
	require.NoError(t, r.Reserve("unbounded", 1000))
	assert.Equal(t, float64(0), r.Usage("unbounded"))
}
