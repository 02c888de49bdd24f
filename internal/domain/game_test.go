package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestGameState(t *testing.T) {
	now := time.Date(2026, time.October, 15, 10, 0, 0, 0, time.UTC)
	published := now.Add(-time.Hour)

	scheduled := Game{ID: uuid.New(), GuessDeadline: now.Add(time.Hour)}
	assert.Equal(t, GameScheduled, scheduled.State())
	assert.False(t, scheduled.AcceptsBoards(now))

	active := scheduled
	active.IsActive = true
	assert.Equal(t, GameActive, active.State())
	assert.True(t, active.AcceptsBoards(now))
	assert.False(t, active.AcceptsBoards(now.Add(time.Hour)))

	ended := active
	ended.IsActive = false
	ended.NumbersPublishedAt = &published
	assert.Equal(t, GameEnded, ended.State())
	assert.False(t, ended.IsOpen())
}

func TestGameWinning(t *testing.T) {
	one, two, three := 1, 2, 3
	published := time.Now()

	g := Game{WinningNumber1: &one, WinningNumber2: &two, WinningNumber3: &three}
	_, ok := g.Winning()
	assert.False(t, ok, "numbers are hidden until published")

	g.NumbersPublishedAt = &published
	w, ok := g.Winning()
	assert.True(t, ok)
	assert.Equal(t, WinningNumbers{1, 2, 3}, w)
}

func TestBalance(t *testing.T) {
	txs := []Transaction{
		{Type: TransactionDeposit, Amount: 500, Status: StatusApproved},
		{Type: TransactionDeposit, Amount: 1000, Status: StatusPending},
		{Type: TransactionDeposit, Amount: 300, Status: StatusRejected},
		{Type: TransactionPurchase, Amount: 20, Status: StatusApproved},
	}
	assert.Equal(t, 480, Balance(txs))

	overdrawn := []Transaction{
		{Type: TransactionDeposit, Amount: 20, Status: StatusApproved},
		{Type: TransactionPurchase, Amount: 40, Status: StatusApproved},
	}
	assert.Equal(t, 0, Balance(overdrawn))
	assert.Equal(t, 0, Balance(nil))
}

func TestSubscriptionExhausted(t *testing.T) {
	three := 3
	assert.False(t, BoardSubscription{GamesAlreadyPlayed: 100}.Exhausted())
	assert.False(t, BoardSubscription{TotalGames: &three, GamesAlreadyPlayed: 2}.Exhausted())
	assert.True(t, BoardSubscription{TotalGames: &three, GamesAlreadyPlayed: 3}.Exhausted())
}
