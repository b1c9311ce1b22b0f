package repository

import (
	"context"
	"testing"
	"time"

	"tally/models"
	"tally/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponseRepository_Create(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	ctx := context.Background()
	repo := NewResponseRepository(testDB.DB)
	userRepo := NewUserRepository(testDB.DB)

	user, err := userRepo.Create(ctx, "alice", 1000)
	require.NoError(t, err)

	t.Run("create returns the stored row ungraded", func(t *testing.T) {
		at := time.Now().UTC().Truncate(time.Microsecond)
		created, err := repo.Create(ctx, testutil.CreateTestResponse(user.ID, 101, models.SideYes, at))
		require.NoError(t, err)
		assert.NotZero(t, created.ID)
		assert.Equal(t, models.SideYes, created.Answer)
		assert.Equal(t, models.GradeUngraded, created.Correct)
		assert.True(t, at.Equal(created.CreatedAt))
		assert.Nil(t, created.Explanation)
	})

	t.Run("zero timestamp defaults to now", func(t *testing.T) {
		resp := testutil.CreateTestResponse(user.ID, 101, models.SideNo, time.Time{})
		created, err := repo.Create(ctx, resp)
		require.NoError(t, err)
		assert.False(t, created.CreatedAt.IsZero())
		assert.WithinDuration(t, time.Now(), created.CreatedAt, 5*time.Second)
	})

	t.Run("explanation round-trips", func(t *testing.T) {
		explanation := "gut feeling"
		resp := testutil.CreateTestResponse(user.ID, 102, models.SideYes, time.Now().UTC())
		resp.Explanation = &explanation

		created, err := repo.Create(ctx, resp)
		require.NoError(t, err)
		require.NotNil(t, created.Explanation)
		assert.Equal(t, "gut feeling", *created.Explanation)
	})

	t.Run("unknown user is rejected by the foreign key", func(t *testing.T) {
		_, err := repo.Create(ctx, testutil.CreateTestResponse(999999, 101, models.SideYes, time.Now().UTC()))
		assert.Error(t, err)
	})
}

func TestResponseRepository_GetLatest(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	ctx := context.Background()
	repo := NewResponseRepository(testDB.DB)
	userRepo := NewUserRepository(testDB.DB)

	user, err := userRepo.Create(ctx, "bob", 1000)
	require.NoError(t, err)

	base := time.Now().UTC().Truncate(time.Microsecond)
	_, err = repo.Create(ctx, testutil.CreateTestResponse(user.ID, 201, models.SideYes, base.Add(-2*time.Hour)))
	require.NoError(t, err)
	_, err = repo.Create(ctx, testutil.CreateTestResponse(user.ID, 201, models.SideNo, base))
	require.NoError(t, err)
	_, err = repo.Create(ctx, testutil.CreateTestResponse(user.ID, 202, models.SideYes, base.Add(time.Hour)))
	require.NoError(t, err)

	t.Run("newest answer wins", func(t *testing.T) {
		latest, err := repo.GetLatest(ctx, user.ID, 201)
		require.NoError(t, err)
		require.NotNil(t, latest)
		assert.Equal(t, models.SideNo, latest.Answer)
		assert.True(t, base.Equal(latest.CreatedAt))
	})

	t.Run("no response returns nil", func(t *testing.T) {
		latest, err := repo.GetLatest(ctx, user.ID, 999)
		require.NoError(t, err)
		assert.Nil(t, latest)
	})
}

func TestResponseRepository_Lists(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	ctx := context.Background()
	repo := NewResponseRepository(testDB.DB)
	userRepo := NewUserRepository(testDB.DB)

	alice, err := userRepo.Create(ctx, "alice", 1000)
	require.NoError(t, err)
	bob, err := userRepo.Create(ctx, "bob", 1000)
	require.NoError(t, err)

	base := time.Now().UTC().Truncate(time.Microsecond)
	_, err = repo.Create(ctx, testutil.CreateTestResponse(alice.ID, 301, models.SideYes, base.Add(time.Minute)))
	require.NoError(t, err)
	_, err = repo.Create(ctx, testutil.CreateTestResponse(bob.ID, 301, models.SideNo, base))
	require.NoError(t, err)
	_, err = repo.Create(ctx, testutil.CreateTestResponse(alice.ID, 302, models.SideNo, base.Add(2*time.Minute)))
	require.NoError(t, err)

	t.Run("by question, oldest first", func(t *testing.T) {
		responses, err := repo.ListByQuestion(ctx, 301)
		require.NoError(t, err)
		require.Len(t, responses, 2)
		assert.Equal(t, bob.ID, responses[0].UserID)
		assert.Equal(t, alice.ID, responses[1].UserID)
	})

	t.Run("by user, oldest first", func(t *testing.T) {
		responses, err := repo.ListByUser(ctx, alice.ID)
		require.NoError(t, err)
		require.Len(t, responses, 2)
		assert.Equal(t, int64(301), responses[0].QuestionID)
		assert.Equal(t, int64(302), responses[1].QuestionID)
	})
}

func TestResponseRepository_SetGrade(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	ctx := context.Background()
	repo := NewResponseRepository(testDB.DB)
	userRepo := NewUserRepository(testDB.DB)

	user, err := userRepo.Create(ctx, "carol", 1000)
	require.NoError(t, err)

	base := time.Now().UTC().Truncate(time.Microsecond)
	_, err = repo.Create(ctx, testutil.CreateTestResponse(user.ID, 401, models.SideYes, base.Add(-time.Hour)))
	require.NoError(t, err)
	latest, err := repo.Create(ctx, testutil.CreateTestResponse(user.ID, 401, models.SideNo, base))
	require.NoError(t, err)

	t.Run("grades only the row at the given timestamp", func(t *testing.T) {
		require.NoError(t, repo.SetGrade(ctx, user.ID, 401, latest.CreatedAt, false))

		responses, err := repo.ListByQuestion(ctx, 401)
		require.NoError(t, err)
		require.Len(t, responses, 2)
		assert.Equal(t, models.GradeUngraded, responses[0].Correct)
		assert.Equal(t, models.GradeIncorrect, responses[1].Correct)
	})

	t.Run("correct grade reads back as correct", func(t *testing.T) {
		require.NoError(t, repo.SetGrade(ctx, user.ID, 401, latest.CreatedAt, true))

		got, err := repo.GetLatest(ctx, user.ID, 401)
		require.NoError(t, err)
		assert.Equal(t, models.GradeCorrect, got.Correct)
	})

	t.Run("no matching row maps to ErrNotFound", func(t *testing.T) {
		err := repo.SetGrade(ctx, user.ID, 401, base.Add(time.Minute), true)
		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}
