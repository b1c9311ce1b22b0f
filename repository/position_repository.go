package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"tally/database"
	"tally/models"
)

// PositionRepository provides access to current share holdings.
type PositionRepository struct {
	q queryable
}

// NewPositionRepository creates a new position repository
func NewPositionRepository(db *database.DB) *PositionRepository {
	return &PositionRepository{q: db.Pool}
}

// newPositionRepositoryWithTx creates a new position repository with a transaction
func newPositionRepositoryWithTx(tx queryable) *PositionRepository {
	return &PositionRepository{q: tx}
}

// Get returns the position a user holds on a question, or nil when the user
// has never traded it.
func (r *PositionRepository) Get(ctx context.Context, userID, questionID int64) (*models.Position, error) {
	query := `
		SELECT user_id, question_id, stake_yes, stake_no
		FROM positions
		WHERE user_id = $1 AND question_id = $2
	`

	var p models.Position
	err := r.q.QueryRow(ctx, query, userID, questionID).Scan(&p.UserID, &p.QuestionID, &p.StakeYes, &p.StakeNo)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get position for user %d question %d: %w", userID, questionID, err)
	}
	return &p, nil
}

// Upsert writes the position row for (user, question), inserting or
// overwriting as needed.
func (r *PositionRepository) Upsert(ctx context.Context, p *models.Position) error {
	query := `
		INSERT INTO positions (user_id, question_id, stake_yes, stake_no)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, question_id)
		DO UPDATE SET stake_yes = EXCLUDED.stake_yes, stake_no = EXCLUDED.stake_no
	`

	if _, err := r.q.Exec(ctx, query, p.UserID, p.QuestionID, p.StakeYes, p.StakeNo); err != nil {
		return fmt.Errorf("failed to upsert position for user %d question %d: %w", p.UserID, p.QuestionID, err)
	}
	return nil
}

// ListByQuestion returns every open position on a question
func (r *PositionRepository) ListByQuestion(ctx context.Context, questionID int64) ([]*models.Position, error) {
	query := `
		SELECT user_id, question_id, stake_yes, stake_no
		FROM positions
		WHERE question_id = $1
		ORDER BY user_id
	`
	return r.list(ctx, query, questionID)
}

// ListByUser returns every open position a user holds
func (r *PositionRepository) ListByUser(ctx context.Context, userID int64) ([]*models.Position, error) {
	query := `
		SELECT user_id, question_id, stake_yes, stake_no
		FROM positions
		WHERE user_id = $1
		ORDER BY question_id
	`
	return r.list(ctx, query, userID)
}

func (r *PositionRepository) list(ctx context.Context, query string, arg any) ([]*models.Position, error) {
	rows, err := r.q.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query positions: %w", err)
	}
	defer rows.Close()

	var positions []*models.Position
	for rows.Next() {
		var p models.Position
		if err := rows.Scan(&p.UserID, &p.QuestionID, &p.StakeYes, &p.StakeNo); err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		positions = append(positions, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate positions: %w", err)
	}

	return positions, nil
}

// Delete removes a position row. Callers must have liquidated both stakes
// first; deleting a position that still holds shares is a caller bug.
func (r *PositionRepository) Delete(ctx context.Context, p *models.Position) error {
	if p.StakeYes != 0 || p.StakeNo != 0 {
		panic(fmt.Sprintf("repository: deleting position (user=%d question=%d) with nonzero stakes yes=%v no=%v",
			p.UserID, p.QuestionID, p.StakeYes, p.StakeNo))
	}

	if _, err := r.q.Exec(ctx,
		`DELETE FROM positions WHERE user_id = $1 AND question_id = $2`,
		p.UserID, p.QuestionID,
	); err != nil {
		return fmt.Errorf("failed to delete position for user %d question %d: %w", p.UserID, p.QuestionID, err)
	}
	return nil
}
