package repository

import (
	"context"
	"testing"

	"tally/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPositionRepository_Upsert(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	ctx := context.Background()
	repo := NewPositionRepository(testDB.DB)
	userRepo := NewUserRepository(testDB.DB)

	user, err := userRepo.Create(ctx, "alice", 1000)
	require.NoError(t, err)

	t.Run("insert on first write", func(t *testing.T) {
		require.NoError(t, repo.Upsert(ctx, testutil.CreateTestPosition(user.ID, 101, 10, 0)))

		got, err := repo.Get(ctx, user.ID, 101)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, float64(10), got.StakeYes)
		assert.Equal(t, float64(0), got.StakeNo)
	})

	t.Run("overwrite on second write", func(t *testing.T) {
		require.NoError(t, repo.Upsert(ctx, testutil.CreateTestPosition(user.ID, 101, 4, 7.5)))

		got, err := repo.Get(ctx, user.ID, 101)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, float64(4), got.StakeYes)
		assert.Equal(t, 7.5, got.StakeNo)
	})

	t.Run("never traded returns nil", func(t *testing.T) {
		got, err := repo.Get(ctx, user.ID, 999)
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestPositionRepository_Lists(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	ctx := context.Background()
	repo := NewPositionRepository(testDB.DB)
	userRepo := NewUserRepository(testDB.DB)

	alice, err := userRepo.Create(ctx, "alice", 1000)
	require.NoError(t, err)
	bob, err := userRepo.Create(ctx, "bob", 1000)
	require.NoError(t, err)

	require.NoError(t, repo.Upsert(ctx, testutil.CreateTestPosition(alice.ID, 202, 5, 0)))
	require.NoError(t, repo.Upsert(ctx, testutil.CreateTestPosition(alice.ID, 201, 10, 0)))
	require.NoError(t, repo.Upsert(ctx, testutil.CreateTestPosition(bob.ID, 201, 0, 3)))

	t.Run("by question, ordered by user", func(t *testing.T) {
		positions, err := repo.ListByQuestion(ctx, 201)
		require.NoError(t, err)
		require.Len(t, positions, 2)
		assert.Equal(t, alice.ID, positions[0].UserID)
		assert.Equal(t, bob.ID, positions[1].UserID)
	})

	t.Run("by user, ordered by question", func(t *testing.T) {
		positions, err := repo.ListByUser(ctx, alice.ID)
		require.NoError(t, err)
		require.Len(t, positions, 2)
		assert.Equal(t, int64(201), positions[0].QuestionID)
		assert.Equal(t, int64(202), positions[1].QuestionID)
	})
}

func TestPositionRepository_Delete(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	ctx := context.Background()
	repo := NewPositionRepository(testDB.DB)
	userRepo := NewUserRepository(testDB.DB)

	user, err := userRepo.Create(ctx, "carol", 1000)
	require.NoError(t, err)
	require.NoError(t, repo.Upsert(ctx, testutil.CreateTestPosition(user.ID, 301, 0, 0)))

	t.Run("removes an emptied position", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, testutil.CreateTestPosition(user.ID, 301, 0, 0)))

		got, err := repo.Get(ctx, user.ID, 301)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("panics when stakes are still held", func(t *testing.T) {
		assert.Panics(t, func() {
			_ = repo.Delete(ctx, testutil.CreateTestPosition(user.ID, 301, 2, 0))
		})
	})
}
