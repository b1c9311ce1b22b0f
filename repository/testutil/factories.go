package testutil

import (
	"time"

	"tally/models"
)

// CreateTestQuestion creates an open test question with the given Yes price
func CreateTestQuestion(id int64, text string, priceYes float64) *models.Question {
	return &models.Question{
		ID:           id,
		Question:     text,
		OutcomeProbs: []float64{priceYes, 1 - priceYes},
		Outcomes:     []string{"Yes", "No"},
		Tag:          "Politics",
		Outcome:      models.OutcomeUnresolved,
		EndDate:      time.Now().Add(72 * time.Hour).UTC().Truncate(time.Second),
		Description:  "test market",
	}
}

// CreateResolvedQuestion creates a question already settled to the given outcome
func CreateResolvedQuestion(id int64, text string, outcome models.Outcome) *models.Question {
	q := CreateTestQuestion(id, text, 0.5)
	q.Outcome = outcome
	if outcome == models.OutcomeYes {
		q.OutcomeProbs = []float64{1, 0}
	} else {
		q.OutcomeProbs = []float64{0, 1}
	}
	return q
}

// CreateTestResponse creates an ungraded response
func CreateTestResponse(userID, questionID int64, answer models.Side, at time.Time) *models.Response {
	return &models.Response{
		UserID:     userID,
		QuestionID: questionID,
		Answer:     answer,
		CreatedAt:  at,
		Correct:    models.GradeUngraded,
	}
}

// CreateTestPosition creates a position with the given stakes
func CreateTestPosition(userID, questionID int64, stakeYes, stakeNo float64) *models.Position {
	return &models.Position{
		UserID:     userID,
		QuestionID: questionID,
		StakeYes:   stakeYes,
		StakeNo:    stakeNo,
	}
}
