package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"tally/database"
	"tally/models"
)

// StatsRepository provides access to cumulative per-user accuracy counters.
type StatsRepository struct {
	q queryable
}

// NewStatsRepository creates a new stats repository
func NewStatsRepository(db *database.DB) *StatsRepository {
	return &StatsRepository{q: db.Pool}
}

// newStatsRepositoryWithTx creates a new stats repository with a transaction
func newStatsRepositoryWithTx(tx queryable) *StatsRepository {
	return &StatsRepository{q: tx}
}

// CreateDefault inserts a zeroed stats row for a new user
func (r *StatsRepository) CreateDefault(ctx context.Context, userID int64) error {
	query := `
		INSERT INTO stats (user_id, correct_answers, incorrect_answers)
		VALUES ($1, 0, 0)
	`

	if _, err := r.q.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to insert default stats for user %d: %w", userID, mapConstraintError(err))
	}
	return nil
}

// Get returns a user's stats row, or nil when none exists
func (r *StatsRepository) Get(ctx context.Context, userID int64) (*models.UserStats, error) {
	query := `
		SELECT user_id, correct_answers, incorrect_answers
		FROM stats
		WHERE user_id = $1
	`

	var stats models.UserStats
	err := r.q.QueryRow(ctx, query, userID).Scan(&stats.UserID, &stats.CorrectAnswers, &stats.IncorrectAnswers)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get stats for user %d: %w", userID, err)
	}
	return &stats, nil
}

// Increment adds newly scored answers to the cumulative counters. The
// counters only ever grow.
func (r *StatsRepository) Increment(ctx context.Context, userID int64, correct, incorrect int) error {
	if correct < 0 || incorrect < 0 {
		panic(fmt.Sprintf("repository: negative stats increment (correct=%d incorrect=%d) for user %d", correct, incorrect, userID))
	}

	query := `
		UPDATE stats
		SET correct_answers = correct_answers + $1, incorrect_answers = incorrect_answers + $2
		WHERE user_id = $3
	`

	result, err := r.q.Exec(ctx, query, correct, incorrect, userID)
	if err != nil {
		return fmt.Errorf("failed to update stats for user %d: %w", userID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("stats for user %d: %w", userID, models.ErrNotFound)
	}
	return nil
}
