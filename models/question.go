package models

import "time"

// Question is a cached snapshot of a prediction-market question. OutcomeProbs
// and Outcomes are parallel arrays with index 0 = Yes and index 1 = No; each
// price is in [0,1] and the pair sums to approximately 1. The cached row is
// fully overwritten whenever a fresher snapshot arrives.
type Question struct {
	ID           int64     `db:"id"`
	Question     string    `db:"question"`
	OutcomeProbs []float64 `db:"outcome_probs"`
	Outcomes     []string  `db:"outcomes"`
	Tag          string    `db:"tag"`
	Outcome      Outcome   `db:"outcome"`
	EndDate      time.Time `db:"end_date"`
	Description  string    `db:"description"`
}

// IsResolved reports whether the market has settled.
func (q *Question) IsResolved() bool {
	return q.Outcome.IsResolved()
}

// Price returns the current price for the given side.
func (q *Question) Price(side Side) float64 {
	if side == SideYes {
		return q.OutcomeProbs[0]
	}
	return q.OutcomeProbs[1]
}
