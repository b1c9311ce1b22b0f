package models

import "time"

// TransactionType distinguishes buys from sells.
type TransactionType string

const (
	TransactionBuy  TransactionType = "buy"
	TransactionSell TransactionType = "sell"
)

// Transaction is one append-only ledger entry: a user exchanged Amount of
// budget for shares on one side of a question (buy), or the reverse (sell).
// Amount is always the positive money value of the trade.
type Transaction struct {
	ID         int64           `db:"id"`
	UserID     int64           `db:"user_id"`
	QuestionID int64           `db:"question_id"`
	Type       TransactionType `db:"type"`
	Side       Side            `db:"side"`
	Amount     float64         `db:"amount"`
	CreatedAt  time.Time       `db:"created_at"`
}
