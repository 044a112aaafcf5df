package directory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemory_Authenticate(t *testing.T) {
	mem := NewInMemory()
	ctx := context.Background()

	id, err := mem.Add("tenant-a", "alice", "correct horse battery staple")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	t.Run("correct password", func(t *testing.T) {
		user, err := mem.Authenticate(ctx, "tenant-a", "alice", "correct horse battery staple")
		require.NoError(t, err)
		assert.Equal(t, id, user.ID)
		assert.Equal(t, "tenant-a", user.TenantID)
		assert.Equal(t, "alice", user.Username)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := mem.Authenticate(ctx, "tenant-a", "alice", "wrong")
		assert.ErrorIs(t, err, ErrInvalidLogin)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := mem.Authenticate(ctx, "tenant-a", "bob", "whatever")
		assert.ErrorIs(t, err, ErrInvalidLogin)
	})

	t.Run("wrong tenant", func(t *testing.T) {
		_, err := mem.Authenticate(ctx, "tenant-b", "alice", "correct horse battery staple")
		assert.ErrorIs(t, err, ErrInvalidLogin)
	})

	t.Run("deactivated user", func(t *testing.T) {
		_, err := mem.Add("tenant-a", "carol", "pw")
		require.NoError(t, err)
		mem.Deactivate("tenant-a", "carol")

		_, err = mem.Authenticate(ctx, "tenant-a", "carol", "pw")
		assert.ErrorIs(t, err, ErrInvalidLogin)
	})
}

func TestInMemory_SameUsernameAcrossTenants(t *testing.T) {
	mem := NewInMemory()
	ctx := context.Background()

	idA, err := mem.Add("tenant-a", "alice", "password-a")
	require.NoError(t, err)
	idB, err := mem.Add("tenant-b", "alice", "password-b")
	require.NoError(t, err)
	assert.NotEqual(t, idA, idB)

	userA, err := mem.Authenticate(ctx, "tenant-a", "alice", "password-a")
	require.NoError(t, err)
	assert.Equal(t, idA, userA.ID)

	// Tenant A's password does not work in tenant B
	_, err = mem.Authenticate(ctx, "tenant-b", "alice", "password-a")
	assert.ErrorIs(t, err, ErrInvalidLogin)
}
