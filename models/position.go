package models

import "fmt"

// stakeEpsilon absorbs binary float round-off when a sell liquidates a full
// stake; anything closer to zero than this is treated as exactly zero.
const stakeEpsilon = 1e-9

// Position is a user's current share holdings on one question. Stakes are
// share counts, never money, and must never go negative.
type Position struct {
	UserID     int64   `db:"user_id"`
	QuestionID int64   `db:"question_id"`
	StakeYes   float64 `db:"stake_yes"`
	StakeNo    float64 `db:"stake_no"`
}

// NewPosition returns an empty position for the given user and question.
// A missing position row is equivalent to an empty position.
func NewPosition(userID, questionID int64) *Position {
	return &Position{UserID: userID, QuestionID: questionID}
}

// Stake returns the share count held on the given side.
func (p *Position) Stake(side Side) float64 {
	if side == SideYes {
		return p.StakeYes
	}
	return p.StakeNo
}

// IsEmpty reports whether both stakes are zero.
func (p *Position) IsEmpty() bool {
	return p.StakeYes == 0 && p.StakeNo == 0
}

// Apply runs one transaction against the position at the given price and
// returns the resulting position together with the budget delta for the
// user (negative for buys, positive for sells).
//
// Callers must pre-constrain sell amounts to stake*price; a resulting
// negative stake, a mismatched user/question id, or a non-positive price is
// a programming error and panics.
func (p *Position) Apply(t *Transaction, price float64) (*Position, float64) {
	if t.UserID != p.UserID || t.QuestionID != p.QuestionID {
		panic(fmt.Sprintf("models: transaction (user=%d question=%d) does not match position (user=%d question=%d)",
			t.UserID, t.QuestionID, p.UserID, p.QuestionID))
	}
	if price <= 0 {
		panic(fmt.Sprintf("models: non-positive price %v for %s on question %d", price, t.Type, t.QuestionID))
	}

	sign := 1.0
	if t.Type == TransactionSell {
		sign = -1.0
	}
	deltaShares := sign * t.Amount / price

	next := *p
	newStake := p.Stake(t.Side) + deltaShares
	// The clamp absorbs full-stake sell round-off only; a buy may leave an
	// arbitrarily small positive stake.
	if t.Type == TransactionSell && newStake > -stakeEpsilon && newStake < stakeEpsilon {
		newStake = 0
	}
	switch t.Type {
	case TransactionBuy:
		if newStake <= 0 {
			panic(fmt.Sprintf("models: buy left non-positive stake %v on %s of question %d", newStake, t.Side, t.QuestionID))
		}
	case TransactionSell:
		if newStake < 0 {
			panic(fmt.Sprintf("models: sell left negative stake %v on %s of question %d", newStake, t.Side, t.QuestionID))
		}
	default:
		panic(fmt.Sprintf("models: unknown transaction type %q", t.Type))
	}

	if t.Side == SideYes {
		next.StakeYes = newStake
	} else {
		next.StakeNo = newStake
	}
	return &next, -sign * t.Amount
}

// SellCeiling returns the maximum money value a user can sell on the given
// side at the given price.
func (p *Position) SellCeiling(side Side, price float64) float64 {
	return p.Stake(side) * price
}
