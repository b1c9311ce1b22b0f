package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPosition_Apply_BuyAddsShares(t *testing.T) {
	pos := NewPosition(1, 10)
	tx := &Transaction{UserID: 1, QuestionID: 10, Type: TransactionBuy, Side: SideYes, Amount: 50}

	next, budgetDelta := pos.Apply(tx, 0.5)

	assert.Equal(t, float64(100), next.StakeYes)
	assert.Equal(t, float64(0), next.StakeNo)
	assert.Equal(t, float64(-50), budgetDelta)
	// The original position is unchanged.
	assert.True(t, pos.IsEmpty())
}

func TestPosition_Apply_SidesAreIndependent(t *testing.T) {
	pos := &Position{UserID: 1, QuestionID: 10, StakeYes: 100}
	tx := &Transaction{UserID: 1, QuestionID: 10, Type: TransactionBuy, Side: SideNo, Amount: 30}

	next, budgetDelta := pos.Apply(tx, 0.6)

	assert.Equal(t, float64(100), next.StakeYes)
	assert.InDelta(t, 50, next.StakeNo, 1e-9)
	assert.Equal(t, float64(-30), budgetDelta)
}

func TestPosition_Apply_SellReturnsProceeds(t *testing.T) {
	pos := &Position{UserID: 1, QuestionID: 10, StakeYes: 100}
	tx := &Transaction{UserID: 1, QuestionID: 10, Type: TransactionSell, Side: SideYes, Amount: 20}

	next, budgetDelta := pos.Apply(tx, 0.4)

	assert.InDelta(t, 50, next.StakeYes, 1e-9)
	assert.Equal(t, float64(20), budgetDelta)
}

func TestPosition_Apply_TinyBuyKeepsPositiveStake(t *testing.T) {
	// A buy below the sell round-off threshold is still a valid trade and
	// must leave its tiny stake in place, not panic.
	pos := NewPosition(1, 10)
	tx := &Transaction{UserID: 1, QuestionID: 10, Type: TransactionBuy, Side: SideYes, Amount: 1e-12}

	var next *Position
	var budgetDelta float64
	assert.NotPanics(t, func() { next, budgetDelta = pos.Apply(tx, 0.5) })

	assert.Equal(t, 2e-12, next.StakeYes)
	assert.Equal(t, -1e-12, budgetDelta)
	assert.False(t, next.IsEmpty())
}

func TestPosition_Apply_SellFullStakeClampsToZero(t *testing.T) {
	// 0.3 is not exactly representable; selling the full ceiling must not
	// leave a residual negative stake.
	pos := &Position{UserID: 1, QuestionID: 10, StakeYes: 7}
	price := 0.3
	ceiling := pos.SellCeiling(SideYes, price)
	tx := &Transaction{UserID: 1, QuestionID: 10, Type: TransactionSell, Side: SideYes, Amount: ceiling}

	next, budgetDelta := pos.Apply(tx, price)

	assert.Equal(t, float64(0), next.StakeYes)
	assert.True(t, next.IsEmpty())
	assert.Equal(t, ceiling, budgetDelta)
}

func TestPosition_Apply_RoundTripPreservesBudget(t *testing.T) {
	pos := NewPosition(1, 10)
	buy := &Transaction{UserID: 1, QuestionID: 10, Type: TransactionBuy, Side: SideNo, Amount: 37.5}

	afterBuy, buyDelta := pos.Apply(buy, 0.25)

	sell := &Transaction{UserID: 1, QuestionID: 10, Type: TransactionSell, Side: SideNo, Amount: afterBuy.SellCeiling(SideNo, 0.25)}
	afterSell, sellDelta := afterBuy.Apply(sell, 0.25)

	assert.True(t, afterSell.IsEmpty())
	assert.InDelta(t, 0, buyDelta+sellDelta, 1e-9)
}

func TestPosition_Apply_PanicsOnMismatchedIDs(t *testing.T) {
	pos := NewPosition(1, 10)
	tx := &Transaction{UserID: 2, QuestionID: 10, Type: TransactionBuy, Side: SideYes, Amount: 5}

	assert.Panics(t, func() { pos.Apply(tx, 0.5) })
}

func TestPosition_Apply_PanicsOnNonPositivePrice(t *testing.T) {
	pos := NewPosition(1, 10)
	tx := &Transaction{UserID: 1, QuestionID: 10, Type: TransactionBuy, Side: SideYes, Amount: 5}

	assert.Panics(t, func() { pos.Apply(tx, 0) })
}

func TestPosition_Apply_PanicsOnOversell(t *testing.T) {
	pos := &Position{UserID: 1, QuestionID: 10, StakeYes: 10}
	tx := &Transaction{UserID: 1, QuestionID: 10, Type: TransactionSell, Side: SideYes, Amount: 100}

	assert.Panics(t, func() { pos.Apply(tx, 0.5) })
}

func TestPosition_SellCeiling(t *testing.T) {
	pos := &Position{UserID: 1, QuestionID: 10, StakeYes: 40, StakeNo: 10}

	assert.InDelta(t, 24, pos.SellCeiling(SideYes, 0.6), 1e-9)
	assert.InDelta(t, 4, pos.SellCeiling(SideNo, 0.4), 1e-9)
	assert.Equal(t, float64(0), NewPosition(1, 10).SellCeiling(SideYes, 0.6))
}
