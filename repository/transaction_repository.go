package repository

import (
	"context"
	"fmt"
	"time"

	"tally/database"
	"tally/models"
)

// TransactionRepository provides access to the append-only transactions log.
type TransactionRepository struct {
	q queryable
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *database.DB) *TransactionRepository {
	return &TransactionRepository{q: db.Pool}
}

// newTransactionRepositoryWithTx creates a new transaction repository with a transaction
func newTransactionRepositoryWithTx(tx queryable) *TransactionRepository {
	return &TransactionRepository{q: tx}
}

// Create appends a ledger entry
func (r *TransactionRepository) Create(ctx context.Context, t *models.Transaction) (*models.Transaction, error) {
	query := `
		INSERT INTO transactions (user_id, question_id, type, side, amount, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	createdAt := t.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	created := *t
	err := r.q.QueryRow(ctx, query,
		t.UserID, t.QuestionID, string(t.Type), string(t.Side), t.Amount, createdAt,
	).Scan(&created.ID, &created.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert transaction: %w", mapConstraintError(err))
	}

	return &created, nil
}

// ListByUser returns a user's ledger entries, oldest first
func (r *TransactionRepository) ListByUser(ctx context.Context, userID int64) ([]*models.Transaction, error) {
	query := `
		SELECT id, user_id, question_id, type, side, amount, created_at
		FROM transactions
		WHERE user_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.q.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions for user %d: %w", userID, err)
	}
	defer rows.Close()

	var transactions []*models.Transaction
	for rows.Next() {
		var (
			t     models.Transaction
			kind  string
			side  string
		)
		if err := rows.Scan(&t.ID, &t.UserID, &t.QuestionID, &kind, &side, &t.Amount, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		t.Type = models.TransactionType(kind)
		parsedSide, err := models.ParseSide(side)
		if err != nil {
			return nil, fmt.Errorf("malformed transaction row %d: %w", t.ID, err)
		}
		t.Side = parsedSide
		transactions = append(transactions, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}

	return transactions, nil
}
