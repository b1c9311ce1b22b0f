package models

// User represents a participant identified by a unique username. Budget is
// the user's simulated cash balance; it goes down on buys and up on sells.
type User struct {
	ID       int64   `db:"id"`
	Username string  `db:"username"`
	Budget   float64 `db:"budget"`
}

// UserStats holds cumulative prediction accuracy counters for one user.
// Both counters are monotonically non-decreasing.
type UserStats struct {
	UserID           int64 `db:"user_id"`
	CorrectAnswers   int   `db:"correct_answers"`
	IncorrectAnswers int   `db:"incorrect_answers"`
}

// UserOverview pairs a user with their stats for ranked listings.
type UserOverview struct {
	User  *User
	Stats *UserStats
}
