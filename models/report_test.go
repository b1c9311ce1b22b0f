package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserChange_Counts(t *testing.T) {
	change := &UserChange{
		User: &User{ID: 1, Username: "alice"},
		Graded: []GradedResponse{
			{Answer: SideYes, Correct: true},
			{Answer: SideNo, Correct: false},
			{Answer: SideYes, Correct: true},
		},
	}

	assert.Equal(t, 2, change.CorrectCount())
	assert.Equal(t, 1, change.IncorrectCount())
}

func TestUserChange_NetProfit(t *testing.T) {
	change := &UserChange{
		Positions: []PositionChange{
			{Profit: -2},
			{Profit: -10},
			{Profit: 4.5},
		},
	}

	assert.InDelta(t, -7.5, change.NetProfit(), 1e-9)
}

func TestChangeReport_IsEmpty(t *testing.T) {
	assert.True(t, (&ChangeReport{}).IsEmpty())
	assert.False(t, (&ChangeReport{Users: []*UserChange{{}}}).IsEmpty())
}
