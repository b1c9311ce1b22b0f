package models

import "time"

// Grade is the tri-state correctness of a response. A response stays
// ungraded until its question resolves; only the latest response a user
// gave to a question is ever graded.
type Grade string

const (
	GradeUngraded  Grade = "ungraded"
	GradeCorrect   Grade = "correct"
	GradeIncorrect Grade = "incorrect"
)

// Response is one prediction a user made against a question. Responses are
// append-only: editing an answer inserts a new row, and the latest row by
// CreatedAt is the one that counts.
type Response struct {
	ID          int64     `db:"id"`
	UserID      int64     `db:"user_id"`
	QuestionID  int64     `db:"question_id"`
	Answer      Side      `db:"answer"`
	CreatedAt   time.Time `db:"created_at"`
	Correct     Grade     `db:"correct"`
	Explanation *string   `db:"explanation"`
}

// NewestResponse returns the response with the greatest CreatedAt, or nil
// for an empty slice.
func NewestResponse(responses []*Response) *Response {
	var newest *Response
	for _, r := range responses {
		if newest == nil || r.CreatedAt.After(newest.CreatedAt) {
			newest = r
		}
	}
	return newest
}
