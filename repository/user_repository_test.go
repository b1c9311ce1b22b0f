package repository

import (
	"context"
	"testing"

	"tally/models"
	"tally/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_CreateAndGet(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewUserRepository(testDB.DB)
	ctx := context.Background()

	t.Run("create assigns an id and keeps the budget", func(t *testing.T) {
		user, err := repo.Create(ctx, "alice", 1000)
		require.NoError(t, err)
		assert.NotZero(t, user.ID)
		assert.Equal(t, "alice", user.Username)
		assert.Equal(t, float64(1000), user.Budget)
	})

	t.Run("get by username", func(t *testing.T) {
		user, err := repo.GetByUsername(ctx, "alice")
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, "alice", user.Username)
	})

	t.Run("get by username returns nil for unknown user", func(t *testing.T) {
		user, err := repo.GetByUsername(ctx, "nobody")
		require.NoError(t, err)
		assert.Nil(t, user)
	})

	t.Run("get by id", func(t *testing.T) {
		alice, err := repo.GetByUsername(ctx, "alice")
		require.NoError(t, err)

		user, err := repo.GetByID(ctx, alice.ID)
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, "alice", user.Username)
	})

	t.Run("duplicate username maps to ErrDuplicate", func(t *testing.T) {
		_, err := repo.Create(ctx, "alice", 500)
		assert.ErrorIs(t, err, models.ErrDuplicate)
	})
}

func TestUserRepository_Budget(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewUserRepository(testDB.DB)
	ctx := context.Background()

	user, err := repo.Create(ctx, "bob", 1000)
	require.NoError(t, err)

	t.Run("add budget applies a signed delta", func(t *testing.T) {
		require.NoError(t, repo.AddBudget(ctx, user.ID, -40))
		require.NoError(t, repo.AddBudget(ctx, user.ID, 15.5))

		got, err := repo.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.InDelta(t, 975.5, got.Budget, 1e-9)
	})

	t.Run("update budget sets an absolute value", func(t *testing.T) {
		require.NoError(t, repo.UpdateBudget(ctx, user.ID, 1234))

		got, err := repo.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, float64(1234), got.Budget)
	})

	t.Run("unknown user maps to ErrNotFound", func(t *testing.T) {
		assert.ErrorIs(t, repo.AddBudget(ctx, 999999, 10), models.ErrNotFound)
		assert.ErrorIs(t, repo.UpdateBudget(ctx, 999999, 10), models.ErrNotFound)
	})
}

func TestUserRepository_GetAll(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewUserRepository(testDB.DB)
	ctx := context.Background()

	t.Run("empty table", func(t *testing.T) {
		users, err := repo.GetAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, users)
	})

	t.Run("richest first, ties broken by username", func(t *testing.T) {
		_, err := repo.Create(ctx, "carol", 800)
		require.NoError(t, err)
		_, err = repo.Create(ctx, "bob", 1200)
		require.NoError(t, err)
		_, err = repo.Create(ctx, "alice", 1200)
		require.NoError(t, err)

		users, err := repo.GetAll(ctx)
		require.NoError(t, err)
		require.Len(t, users, 3)
		assert.Equal(t, "alice", users[0].Username)
		assert.Equal(t, "bob", users[1].Username)
		assert.Equal(t, "carol", users[2].Username)
	})
}

func TestUserRepository_DeleteCascades(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	ctx := context.Background()
	userRepo := NewUserRepository(testDB.DB)
	statsRepo := NewStatsRepository(testDB.DB)
	positionRepo := NewPositionRepository(testDB.DB)

	user, err := userRepo.Create(ctx, "dave", 1000)
	require.NoError(t, err)
	require.NoError(t, statsRepo.CreateDefault(ctx, user.ID))
	require.NoError(t, positionRepo.Upsert(ctx, testutil.CreateTestPosition(user.ID, 1, 10, 0)))

	require.NoError(t, userRepo.Delete(ctx, user.ID))

	got, err := userRepo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	stats, err := statsRepo.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Nil(t, stats)

	positions, err := positionRepo.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, positions)

	t.Run("deleting twice maps to ErrNotFound", func(t *testing.T) {
		assert.ErrorIs(t, userRepo.Delete(ctx, user.ID), models.ErrNotFound)
	})
}

func TestUserRepository_Exists(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewUserRepository(testDB.DB)
	ctx := context.Background()

	user, err := repo.Create(ctx, "erin", 1000)
	require.NoError(t, err)

	exists, err := repo.Exists(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.Exists(ctx, 999999)
	require.NoError(t, err)
	assert.False(t, exists)
}
