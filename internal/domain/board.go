package domain

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

type Board struct {
	ID             uuid.UUID  `json:"id"`
	GameID         uuid.UUID  `json:"game_id"`
	PlayerID       uuid.UUID  `json:"player_id"`
	Numbers        []int      `json:"numbers"`
	Price          int        `json:"price"`
	IsWinningBoard bool       `json:"is_winning_board"`
	SubscriptionID *uuid.UUID `json:"subscription_id,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// WinningNumbers are the three numbers published when a game ends.
type WinningNumbers [3]int

func (w WinningNumbers) Validate() error {
	for _, n := range w {
		if n < MinNumber || n > MaxNumber {
			return ErrWinningNumberRange
		}
	}
	if w[0] == w[1] || w[0] == w[2] || w[1] == w[2] {
		return ErrWinningNumberUnique
	}
	return nil
}

// ValidateNumbers checks count, range and uniqueness, in that order.
func ValidateNumbers(numbers []int) error {
	if len(numbers) < MinNumbersPerBoard || len(numbers) > MaxNumbersPerBoard {
		return ErrNumberCount
	}

	for _, n := range numbers {
		if n < MinNumber || n > MaxNumber {
			return ErrNumberRange
		}
	}

	seen := make(map[int]struct{}, len(numbers))
	for _, n := range numbers {
		if _, ok := seen[n]; ok {
			return ErrNumbersNotUnique
		}
		seen[n] = struct{}{}
	}

	return nil
}

// SortedNumbers returns an ascending copy of numbers.
func SortedNumbers(numbers []int) []int {
	sorted := make([]int, len(numbers))
	copy(sorted, numbers)
	sort.Ints(sorted)
	return sorted
}
