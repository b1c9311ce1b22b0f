package models

// GradedResponse records how one user's latest answer to a resolved
// question was scored during settlement.
type GradedResponse struct {
	Question *Question
	Answer   Side
	Correct  bool
}

// PositionChange describes how one of a user's positions moved between the
// previously cached snapshot and the freshly fetched one. Profit is marked
// to market from the price deltas (DeltaYes*StakeYes + DeltaNo*StakeNo) and
// is computed independently from any forced-sell proceeds; when a position
// is liquidated below its last-seen mark the two figures diverge, which is
// intentional.
type PositionChange struct {
	Question *Question
	StakeYes float64
	StakeNo  float64
	DeltaYes float64
	DeltaNo  float64
	Profit   float64
	Sold     bool
}

// UserChange aggregates everything settlement did to one user: scored
// predictions and position movements on refreshed questions.
type UserChange struct {
	User      *User
	Graded    []GradedResponse
	Positions []PositionChange
}

// CorrectCount returns how many graded responses were right.
func (u *UserChange) CorrectCount() int {
	n := 0
	for _, g := range u.Graded {
		if g.Correct {
			n++
		}
	}
	return n
}

// IncorrectCount returns how many graded responses were wrong.
func (u *UserChange) IncorrectCount() int {
	return len(u.Graded) - u.CorrectCount()
}

// NetProfit sums the mark-to-market profit over all position changes.
func (u *UserChange) NetProfit() float64 {
	total := 0.0
	for _, p := range u.Positions {
		total += p.Profit
	}
	return total
}

// ChangeReport is the structured result of one settlement run, ordered by
// username for stable presentation.
type ChangeReport struct {
	Users []*UserChange
}

// IsEmpty reports whether the run changed nothing worth reporting.
func (r *ChangeReport) IsEmpty() bool {
	return len(r.Users) == 0
}

// HistoryEntry pairs a response with the question it answered.
type HistoryEntry struct {
	Response *Response
	Question *Question
}

// PositionEntry pairs a position with its question snapshot.
type PositionEntry struct {
	Position *Position
	Question *Question
}

// UserHistory is the read-only projection behind the history command.
type UserHistory struct {
	User      *User
	Stats     *UserStats
	Responses []HistoryEntry
	Positions []PositionEntry
}
