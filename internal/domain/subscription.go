package domain

import (
	"time"

	"github.com/google/uuid"
)

type BoardSubscription struct {
	ID                 uuid.UUID  `json:"id"`
	PlayerID           uuid.UUID  `json:"player_id"`
	Numbers            []int      `json:"numbers"`
	PricePerGame       int        `json:"price_per_game"`
	StartGameID        uuid.UUID  `json:"start_game_id"`
	TotalGames         *int       `json:"total_games,omitempty"`
	GamesAlreadyPlayed int        `json:"games_already_played"`
	IsActive           bool       `json:"is_active"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// Exhausted reports whether the subscription has played all its games. A
// subscription without a cap lasts as long as the balance does.
func (s BoardSubscription) Exhausted() bool {
	return s.TotalGames != nil && s.GamesAlreadyPlayed >= *s.TotalGames
}

// RenewalReport summarises one ProcessRenewals run.
type RenewalReport struct {
	GameID      uuid.UUID `json:"game_id"`
	Candidates  int       `json:"candidates"`
	Renewed     int       `json:"renewed"`
	Deactivated int       `json:"deactivated"`
	Skipped     int       `json:"skipped"`
	Failed      int       `json:"failed"`
}
