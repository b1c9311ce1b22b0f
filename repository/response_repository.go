package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"tally/database"
	"tally/models"
)

// ResponseRepository provides access to the append-only responses log.
type ResponseRepository struct {
	q queryable
}

// NewResponseRepository creates a new response repository
func NewResponseRepository(db *database.DB) *ResponseRepository {
	return &ResponseRepository{q: db.Pool}
}

// newResponseRepositoryWithTx creates a new response repository with a transaction
func newResponseRepositoryWithTx(tx queryable) *ResponseRepository {
	return &ResponseRepository{q: tx}
}

func scanResponse(row pgx.Row) (*models.Response, error) {
	var (
		resp    models.Response
		answer  string
		correct *bool
	)
	err := row.Scan(&resp.ID, &resp.UserID, &resp.QuestionID, &answer, &resp.CreatedAt, &correct, &resp.Explanation)
	if err != nil {
		return nil, err
	}

	side, err := models.ParseSide(answer)
	if err != nil {
		return nil, fmt.Errorf("malformed response row %d: %w", resp.ID, err)
	}
	resp.Answer = side

	switch {
	case correct == nil:
		resp.Correct = models.GradeUngraded
	case *correct:
		resp.Correct = models.GradeCorrect
	default:
		resp.Correct = models.GradeIncorrect
	}

	return &resp, nil
}

const responseColumns = `id, user_id, question_id, answer, created_at, correct, explanation`

// Create appends a new response row. The correctness flag always starts
// ungraded; it is backfilled by settlement.
func (r *ResponseRepository) Create(ctx context.Context, resp *models.Response) (*models.Response, error) {
	query := `
		INSERT INTO responses (user_id, question_id, answer, created_at, explanation)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + responseColumns

	createdAt := resp.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	created, err := scanResponse(r.q.QueryRow(ctx, query,
		resp.UserID, resp.QuestionID, string(resp.Answer), createdAt, resp.Explanation))
	if err != nil {
		return nil, fmt.Errorf("failed to insert response: %w", mapConstraintError(err))
	}
	return created, nil
}

// GetLatest returns the newest response a user gave to a question, or nil.
func (r *ResponseRepository) GetLatest(ctx context.Context, userID, questionID int64) (*models.Response, error) {
	query := `
		SELECT ` + responseColumns + `
		FROM responses
		WHERE user_id = $1 AND question_id = $2
		ORDER BY created_at DESC
		LIMIT 1
	`

	resp, err := scanResponse(r.q.QueryRow(ctx, query, userID, questionID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest response for user %d question %d: %w", userID, questionID, err)
	}
	return resp, nil
}

// ListByQuestion returns every response ever recorded against a question.
func (r *ResponseRepository) ListByQuestion(ctx context.Context, questionID int64) ([]*models.Response, error) {
	query := `
		SELECT ` + responseColumns + `
		FROM responses
		WHERE question_id = $1
		ORDER BY created_at ASC
	`
	return r.list(ctx, query, questionID)
}

// ListByUser returns every response a user has recorded, oldest first.
func (r *ResponseRepository) ListByUser(ctx context.Context, userID int64) ([]*models.Response, error) {
	query := `
		SELECT ` + responseColumns + `
		FROM responses
		WHERE user_id = $1
		ORDER BY created_at ASC
	`
	return r.list(ctx, query, userID)
}

func (r *ResponseRepository) list(ctx context.Context, query string, arg any) ([]*models.Response, error) {
	rows, err := r.q.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query responses: %w", err)
	}
	defer rows.Close()

	var responses []*models.Response
	for rows.Next() {
		resp, err := scanResponse(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan response: %w", err)
		}
		responses = append(responses, resp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate responses: %w", err)
	}

	return responses, nil
}

// SetGrade backfills the correctness flag onto the single response row
// identified by (user, question, timestamp). Older responses to the same
// question keep an ungraded flag; only the answer that stood at resolution
// time is scored.
func (r *ResponseRepository) SetGrade(ctx context.Context, userID, questionID int64, createdAt time.Time, correct bool) error {
	query := `
		UPDATE responses
		SET correct = $1
		WHERE user_id = $2 AND question_id = $3 AND created_at = $4
	`

	result, err := r.q.Exec(ctx, query, correct, userID, questionID, createdAt)
	if err != nil {
		return fmt.Errorf("failed to grade response for user %d question %d: %w", userID, questionID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("response for user %d question %d at %s: %w", userID, questionID, createdAt, models.ErrNotFound)
	}
	return nil
}
