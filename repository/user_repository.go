package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"tally/database"
	"tally/models"
)

// UserRepository provides access to the users table.
type UserRepository struct {
	q queryable
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{q: db.Pool}
}

// newUserRepositoryWithTx creates a new user repository with a transaction
func newUserRepositoryWithTx(tx queryable) *UserRepository {
	return &UserRepository{q: tx}
}

// GetByUsername retrieves a user by their unique username
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `
		SELECT id, username, budget
		FROM users
		WHERE username = $1
	`

	var user models.User
	err := r.q.QueryRow(ctx, query, username).Scan(&user.ID, &user.Username, &user.Budget)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user %q: %w", username, err)
	}

	return &user, nil
}

// GetByID retrieves a user by id
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query := `
		SELECT id, username, budget
		FROM users
		WHERE id = $1
	`

	var user models.User
	err := r.q.QueryRow(ctx, query, id).Scan(&user.ID, &user.Username, &user.Budget)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user %d: %w", id, err)
	}

	return &user, nil
}

// Create creates a new user with the given starting budget
func (r *UserRepository) Create(ctx context.Context, username string, budget float64) (*models.User, error) {
	query := `
		INSERT INTO users (username, budget)
		VALUES ($1, $2)
		RETURNING id, username, budget
	`

	var user models.User
	err := r.q.QueryRow(ctx, query, username, budget).Scan(&user.ID, &user.Username, &user.Budget)
	if err != nil {
		return nil, fmt.Errorf("failed to create user %q: %w", username, mapConstraintError(err))
	}

	return &user, nil
}

// UpdateBudget sets a user's budget to an absolute value
func (r *UserRepository) UpdateBudget(ctx context.Context, id int64, budget float64) error {
	query := `
		UPDATE users
		SET budget = $1
		WHERE id = $2
	`

	result, err := r.q.Exec(ctx, query, budget, id)
	if err != nil {
		return fmt.Errorf("failed to update budget for user %d: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("user %d: %w", id, models.ErrNotFound)
	}

	return nil
}

// AddBudget applies a signed budget delta atomically
func (r *UserRepository) AddBudget(ctx context.Context, id int64, delta float64) error {
	query := `
		UPDATE users
		SET budget = budget + $1
		WHERE id = $2
	`

	result, err := r.q.Exec(ctx, query, delta, id)
	if err != nil {
		return fmt.Errorf("failed to adjust budget for user %d: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("user %d: %w", id, models.ErrNotFound)
	}

	return nil
}

// Exists reports whether a user with the given id exists
func (r *UserRepository) Exists(ctx context.Context, id int64) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`

	var exists bool
	if err := r.q.QueryRow(ctx, query, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check user %d: %w", id, err)
	}
	return exists, nil
}

// GetAll returns all users ordered by budget, richest first
func (r *UserRepository) GetAll(ctx context.Context) ([]*models.User, error) {
	query := `
		SELECT id, username, budget
		FROM users
		ORDER BY budget DESC, username ASC
	`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get all users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		var user models.User
		if err := rows.Scan(&user.ID, &user.Username, &user.Budget); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, &user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}

	return users, nil
}

// Delete removes a user. Responses, transactions, positions, and stats
// recorded against the user are removed by cascade.
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.q.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user %d: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("user %d: %w", id, models.ErrNotFound)
	}
	return nil
}
