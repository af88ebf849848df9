package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/rummy-backend/internal/apperror"
	"github.com/rocketscienceinc/rummy-backend/internal/entity"
)

func TestMatchmaker_Enqueue(t *testing.T) {
	t.Run("Enqueue stores a funded user in the pool", func(t *testing.T) {
		env := newTestEnv(t)
		env.fund(t, 100, "alice")

		player, err := env.matchmaker.Enqueue(env.ctx, "alice", twoSeats.ID)
		require.NoError(t, err)
		assert.Equal(t, "alice", player.UserID)
		assert.Equal(t, env.conf.Matchmaker.WaitTimeout, player.ExpiresAt.Sub(player.JoinedAt))

		waiting, err := env.pool.List(env.ctx, twoSeats.ID)
		require.NoError(t, err)
		require.Len(t, waiting, 1)
		assert.Len(t, env.notifier.events(entity.EventQueued), 1)
	})

	t.Run("Enqueue refuses what cannot be matched", func(t *testing.T) {
		env := newTestEnv(t)
		env.fund(t, 100, "alice", "bob", "carol")
		env.fund(t, 10, "poor")

		_, err := env.matchmaker.Enqueue(env.ctx, "alice", "points-1000")
		require.ErrorIs(t, err, apperror.ErrUnknownTableType)

		_, err = env.matchmaker.Enqueue(env.ctx, "poor", twoSeats.ID)
		require.ErrorIs(t, err, apperror.ErrInsufficientFunds)

		_, err = env.matchmaker.Enqueue(env.ctx, "alice", twoSeats.ID)
		require.NoError(t, err)
		_, err = env.matchmaker.Enqueue(env.ctx, "alice", twoSeats.ID)
		require.ErrorIs(t, err, apperror.ErrAlreadyQueued)

		env.dealtTable(t, twoSeats, "bob", "carol")
		_, err = env.matchmaker.Enqueue(env.ctx, "bob", twoSeats.ID)
		require.ErrorIs(t, err, apperror.ErrAlreadySeated)
	})

	t.Run("Cancel removes the waiting entry", func(t *testing.T) {
		env := newTestEnv(t)
		env.fund(t, 100, "alice")

		_, err := env.matchmaker.Enqueue(env.ctx, "alice", twoSeats.ID)
		require.NoError(t, err)

		require.NoError(t, env.matchmaker.Cancel(env.ctx, "alice", twoSeats.ID))
		require.ErrorIs(t, env.matchmaker.Cancel(env.ctx, "alice", twoSeats.ID), apperror.ErrNotFound)
	})
}

func TestMatchmaker_RunOnce(t *testing.T) {
	t.Run("Two ready players get exactly one table even with concurrent passes", func(t *testing.T) {
		env := newTestEnv(t)
		env.fund(t, 100, "alice", "bob")

		// Given: two waiting players and no open table
		for _, userID := range []string{"alice", "bob"} {
			_, err := env.matchmaker.Enqueue(env.ctx, userID, twoSeats.ID)
			require.NoError(t, err)
		}

		// When: two passes run at the same time
		var wg sync.WaitGroup
		for range 2 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				env.matchmaker.RunOnce(env.ctx)
			}()
		}
		wg.Wait()

		// Then: both sit at the same, single table
		aliceTable, err := env.users.GetTableID(env.ctx, "alice")
		require.NoError(t, err)
		bobTable, err := env.users.GetTableID(env.ctx, "bob")
		require.NoError(t, err)
		assert.Equal(t, aliceTable, bobTable)

		table := env.table(t, aliceTable)
		assert.Len(t, table.Players, 2)

		// Then: the pool is empty and no second table exists
		waiting, err := env.pool.List(env.ctx, twoSeats.ID)
		require.NoError(t, err)
		assert.Empty(t, waiting)

		assert.Len(t, env.sched.jobs, 1)
		assert.Len(t, env.notifier.events(entity.EventPlayerJoined), 2)
	})

	t.Run("A lone player keeps waiting", func(t *testing.T) {
		env := newTestEnv(t)
		env.fund(t, 100, "alice")

		_, err := env.matchmaker.Enqueue(env.ctx, "alice", twoSeats.ID)
		require.NoError(t, err)

		env.matchmaker.RunOnce(env.ctx)

		waiting, err := env.pool.List(env.ctx, twoSeats.ID)
		require.NoError(t, err)
		assert.Len(t, waiting, 1)

		_, err = env.users.GetTableID(env.ctx, "alice")
		require.ErrorIs(t, err, apperror.ErrNoActiveTable)
	})

	t.Run("Expired players are dropped and told so", func(t *testing.T) {
		env := newTestEnv(t)
		env.fund(t, 100, "alice")

		_, err := env.matchmaker.Enqueue(env.ctx, "alice", twoSeats.ID)
		require.NoError(t, err)

		// When: the pass runs after the waiting deadline
		env.matchmaker.now = func() time.Time { return time.Now().Add(2 * env.conf.Matchmaker.WaitTimeout) }
		env.matchmaker.RunOnce(env.ctx)

		// Then: the entry is gone
		waiting, err := env.pool.List(env.ctx, twoSeats.ID)
		require.NoError(t, err)
		assert.Empty(t, waiting)

		expired := env.notifier.events(entity.EventMatchExpired)
		require.Len(t, expired, 1)
		assert.Equal(t, []string{"alice"}, expired[0].userIDs)
	})

	t.Run("Open tables are filled before new ones are made", func(t *testing.T) {
		env := newTestEnv(t)
		env.fund(t, 100, "alice", "bob", "carol")

		// Given: a six-seat table with two players
		tableID := env.dealtTable(t, sixSeats, "alice", "bob")

		_, err := env.matchmaker.Enqueue(env.ctx, "carol", sixSeats.ID)
		require.NoError(t, err)

		// When: the matchmaker runs
		env.matchmaker.RunOnce(env.ctx)

		// Then: carol joins the running table as a late player
		carolTable, err := env.users.GetTableID(env.ctx, "carol")
		require.NoError(t, err)
		assert.Equal(t, tableID, carolTable)
		assert.True(t, env.table(t, tableID).PlayerByUser("carol").Late)

		waiting, err := env.pool.List(env.ctx, sixSeats.ID)
		require.NoError(t, err)
		assert.Empty(t, waiting)
	})

	t.Run("Run stops with its context", func(t *testing.T) {
		env := newTestEnv(t)

		ctx, cancel := context.WithCancel(env.ctx)
		done := make(chan struct{})

		go func() {
			env.matchmaker.Run(ctx)
			close(done)
		}()

		cancel()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("matchmaker did not stop")
		}
	})
}
