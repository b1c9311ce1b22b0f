package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"tally/database"
	"tally/models"
)

// QuestionRepository provides access to the cached question snapshots.
type QuestionRepository struct {
	q queryable
}

// NewQuestionRepository creates a new question repository
func NewQuestionRepository(db *database.DB) *QuestionRepository {
	return &QuestionRepository{q: db.Pool}
}

// newQuestionRepositoryWithTx creates a new question repository with a transaction
func newQuestionRepositoryWithTx(tx queryable) *QuestionRepository {
	return &QuestionRepository{q: tx}
}

func scanQuestion(row pgx.Row) (*models.Question, error) {
	var (
		q           models.Question
		outcome     *string
		probsJSON   []byte
		labelsJSON  []byte
	)
	err := row.Scan(&q.ID, &q.Question, &q.Tag, &q.EndDate, &q.Description, &outcome, &probsJSON, &labelsJSON)
	if err != nil {
		return nil, err
	}

	if outcome == nil {
		q.Outcome = models.OutcomeUnresolved
	} else {
		q.Outcome = models.Outcome(*outcome)
	}
	if err := json.Unmarshal(probsJSON, &q.OutcomeProbs); err != nil {
		return nil, fmt.Errorf("malformed outcome_probs for question %d: %w", q.ID, err)
	}
	if err := json.Unmarshal(labelsJSON, &q.Outcomes); err != nil {
		return nil, fmt.Errorf("malformed outcomes for question %d: %w", q.ID, err)
	}

	return &q, nil
}

// GetByID retrieves a cached question snapshot
func (r *QuestionRepository) GetByID(ctx context.Context, id int64) (*models.Question, error) {
	query := `
		SELECT id, question, tag, end_date, description, outcome, outcome_probs, outcomes
		FROM questions
		WHERE id = $1
	`

	q, err := scanQuestion(r.q.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get question %d: %w", id, err)
	}
	return q, nil
}

// Insert stores a question snapshot
func (r *QuestionRepository) Insert(ctx context.Context, q *models.Question) error {
	probsJSON, err := json.Marshal(q.OutcomeProbs)
	if err != nil {
		return fmt.Errorf("failed to encode outcome_probs: %w", err)
	}
	labelsJSON, err := json.Marshal(q.Outcomes)
	if err != nil {
		return fmt.Errorf("failed to encode outcomes: %w", err)
	}

	var outcome *string
	if q.Outcome.IsResolved() {
		s := string(q.Outcome)
		outcome = &s
	}

	query := `
		INSERT INTO questions (id, question, tag, end_date, description, outcome, outcome_probs, outcomes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	if _, err := r.q.Exec(ctx, query, q.ID, q.Question, q.Tag, q.EndDate, q.Description, outcome, probsJSON, labelsJSON); err != nil {
		return fmt.Errorf("failed to insert question %d: %w", q.ID, mapConstraintError(err))
	}
	return nil
}

// Delete removes a cached question snapshot
func (r *QuestionRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM questions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete question %d: %w", id, err)
	}
	return nil
}

// Replace overwrites the cached snapshot for a question with a fresher one.
// The row is deleted and reinserted whole; there is no field-level merge.
func (r *QuestionRepository) Replace(ctx context.Context, q *models.Question) error {
	if err := r.Delete(ctx, q.ID); err != nil {
		return err
	}
	return r.Insert(ctx, q)
}

// Exists reports whether a question with the given id is cached
func (r *QuestionRepository) Exists(ctx context.Context, id int64) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM questions WHERE id = $1)`

	var exists bool
	if err := r.q.QueryRow(ctx, query, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check question %d: %w", id, err)
	}
	return exists, nil
}

// ListActiveIDs returns the ids of every cached question that has not
// resolved yet.
func (r *QuestionRepository) ListActiveIDs(ctx context.Context) ([]int64, error) {
	query := `
		SELECT id
		FROM questions
		WHERE outcome IS NULL
		ORDER BY id
	`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list active questions: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan question id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate question ids: %w", err)
	}

	return ids, nil
}

// GetByIDs retrieves the cached snapshots for the given ids, keyed by id.
// Missing ids are simply absent from the result.
func (r *QuestionRepository) GetByIDs(ctx context.Context, ids []int64) (map[int64]*models.Question, error) {
	query := `
		SELECT id, question, tag, end_date, description, outcome, outcome_probs, outcomes
		FROM questions
		WHERE id = ANY($1)
	`

	rows, err := r.q.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get questions by ids: %w", err)
	}
	defer rows.Close()

	questions := make(map[int64]*models.Question, len(ids))
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}
		questions[q.ID] = q
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate questions: %w", err)
	}

	return questions, nil
}
