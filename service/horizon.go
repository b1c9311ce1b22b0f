package service

import (
	"time"

	"tally/models"
)

// withinHorizon drops questions whose end date lies further out than the
// configured number of days. Zero or negative days disables the filter.
func withinHorizon(questions []*models.Question, days int) []*models.Question {
	if days <= 0 {
		return questions
	}
	cutoff := time.Now().Add(time.Duration(days) * 24 * time.Hour)
	kept := make([]*models.Question, 0, len(questions))
	for _, q := range questions {
		if q.EndDate.Before(cutoff) {
			kept = append(kept, q)
		}
	}
	return kept
}
