package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/rummy-backend/internal/apperror"
	"github.com/rocketscienceinc/rummy-backend/testing/suite"
)

func TestUserRepository_ClaimTable(t *testing.T) {
	ctx, st := suite.NewInMemory(t)

	userRepo := NewUserRepository(st.Storage)

	// When: the user is claimed by a table
	claimed, err := userRepo.ClaimTable(ctx, "user-1", "table-1")
	require.NoError(t, err)
	assert.True(t, claimed)

	// Then: a second table cannot claim the same user
	claimed, err = userRepo.ClaimTable(ctx, "user-1", "table-2")
	require.NoError(t, err)
	assert.False(t, claimed)

	tableID, err := userRepo.GetTableID(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "table-1", tableID)
}

func TestUserRepository_ReleaseTable(t *testing.T) {
	t.Run("ReleaseTable clears the active table", func(t *testing.T) {
		ctx, st := suite.NewInMemory(t)

		userRepo := NewUserRepository(st.Storage)

		_, err := userRepo.ClaimTable(ctx, "user-1", "table-1")
		require.NoError(t, err)

		require.NoError(t, userRepo.ReleaseTable(ctx, "user-1", "table-1"))

		_, err = userRepo.GetTableID(ctx, "user-1")
		require.ErrorIs(t, err, apperror.ErrNoActiveTable)
	})

	t.Run("ReleaseTable of another table keeps the current one", func(t *testing.T) {
		ctx, st := suite.NewInMemory(t)

		userRepo := NewUserRepository(st.Storage)

		_, err := userRepo.ClaimTable(ctx, "user-1", "table-2")
		require.NoError(t, err)

		// When: a finished table releases a user that already moved on
		require.NoError(t, userRepo.ReleaseTable(ctx, "user-1", "table-1"))

		// Then: the user still points at the new table
		tableID, err := userRepo.GetTableID(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, "table-2", tableID)
	})
}

func TestUserRepository_MarkBusy(t *testing.T) {
	ctx, st := suite.NewInMemory(t)

	userRepo := NewUserRepository(st.Storage)

	ok, err := userRepo.MarkBusy(ctx, "user-1", time.Second)
	require.NoError(t, err)
	assert.True(t, ok)

	// When: a second action arrives while the first is in flight
	ok, err = userRepo.MarkBusy(ctx, "user-1", time.Second)

	// Then: it is refused
	require.NoError(t, err)
	assert.False(t, ok)

	// Then: clearing the flag admits the next action
	require.NoError(t, userRepo.ClearBusy(ctx, "user-1"))

	ok, err = userRepo.MarkBusy(ctx, "user-1", time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
}
