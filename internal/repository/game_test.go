package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gridrush/tictactoe-server/internal/apperror"
	"github.com/gridrush/tictactoe-server/internal/entity"
	"github.com/gridrush/tictactoe-server/testing/suite"
)

func TestGameRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping docker-backed test in short mode")
	}

	ctx, st := suite.New(t)
	repo := NewGameRepository(st.Storage, time.Minute)

	t.Run("CreateOrUpdate and GetByID round-trip", func(t *testing.T) {
		// Given: a game with two players and one move
		game := entity.NewGame()
		_, err := game.Join("Alice")
		require.NoError(t, err)
		_, err = game.Join("Bob")
		require.NoError(t, err)
		require.NoError(t, game.MakeMove(entity.PlayerX, 0, 0))

		// When: the snapshot is written and read back
		err = repo.CreateOrUpdate(ctx, "round-trip", game)
		require.NoError(t, err)

		restored, err := repo.GetByID(ctx, "round-trip")
		require.NoError(t, err)

		// Then: the stored snapshot matches
		require.Equal(t, game.Board, restored.Board)
		require.Equal(t, game.Turn, restored.Turn)
		require.Equal(t, game.PlayerNames, restored.PlayerNames)
		require.Equal(t, game.Scores, restored.Scores)
	})

	t.Run("GetByID on a missing game", func(t *testing.T) {
		// When: reading an id that was never written
		_, err := repo.GetByID(ctx, "missing")

		// Then: ErrGameNotFound is returned
		require.ErrorIs(t, err, apperror.ErrGameNotFound)
	})

	t.Run("Updates overwrite in place", func(t *testing.T) {
		// Given: a stored snapshot
		game := entity.NewGame()
		_, err := game.Join("Alice")
		require.NoError(t, err)
		require.NoError(t, repo.CreateOrUpdate(ctx, "overwrite", game))

		// When: a later snapshot of the same game is written
		_, err = game.Join("Bob")
		require.NoError(t, err)
		require.NoError(t, repo.CreateOrUpdate(ctx, "overwrite", game))

		// Then: the read returns the latest snapshot
		restored, err := repo.GetByID(ctx, "overwrite")
		require.NoError(t, err)
		require.Equal(t, []entity.Mark{entity.PlayerX, entity.PlayerO}, restored.Players)
	})

	t.Run("DeleteByID removes the snapshot", func(t *testing.T) {
		// Given: a stored snapshot
		require.NoError(t, repo.CreateOrUpdate(ctx, "doomed", entity.NewGame()))

		// When: it is deleted
		require.NoError(t, repo.DeleteByID(ctx, "doomed"))

		// Then: it is gone, and deleting again is not an error
		_, err := repo.GetByID(ctx, "doomed")
		require.ErrorIs(t, err, apperror.ErrGameNotFound)
		require.NoError(t, repo.DeleteByID(ctx, "doomed"))
	})

	t.Run("Entries carry the configured TTL", func(t *testing.T) {
		// When: a snapshot is written
		require.NoError(t, repo.CreateOrUpdate(ctx, "expiring", entity.NewGame()))

		// Then: the key expires on its own
		ttl, err := st.Storage.TTL(ctx, "game:expiring").Result()
		require.NoError(t, err)
		require.Greater(t, ttl, time.Duration(0))
		require.LessOrEqual(t, ttl, time.Minute)
	})
}
