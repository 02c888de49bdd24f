package domain

import (
	"time"

	"github.com/google/uuid"
)

type GameState string

const (
	GameScheduled GameState = "Scheduled"
	GameActive    GameState = "Active"
	GameEnded     GameState = "Ended"
)

type Game struct {
	ID                 uuid.UUID  `json:"id"`
	WeekNumber         int        `json:"week_number"`
	Year               int        `json:"year"`
	StartDate          time.Time  `json:"start_date"`
	EndDate            time.Time  `json:"end_date"`
	GuessDeadline      time.Time  `json:"guess_deadline"`
	IsActive           bool       `json:"is_active"`
	WinningNumber1     *int       `json:"winning_number1,omitempty"`
	WinningNumber2     *int       `json:"winning_number2,omitempty"`
	WinningNumber3     *int       `json:"winning_number3,omitempty"`
	NumbersPublishedAt *time.Time `json:"numbers_published_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

func (g Game) State() GameState {
	switch {
	case g.NumbersPublishedAt != nil:
		return GameEnded
	case g.IsActive:
		return GameActive
	default:
		return GameScheduled
	}
}

// IsOpen reports whether the game is the one accepting boards, ignoring the
// deadline.
func (g Game) IsOpen() bool {
	return g.State() == GameActive
}

// AcceptsBoards reports whether a board bought at now would be valid.
func (g Game) AcceptsBoards(now time.Time) bool {
	return g.IsOpen() && now.Before(g.GuessDeadline)
}

// Winning returns the published numbers, or false while the game is open.
func (g Game) Winning() (WinningNumbers, bool) {
	if g.NumbersPublishedAt == nil || g.WinningNumber1 == nil || g.WinningNumber2 == nil || g.WinningNumber3 == nil {
		return WinningNumbers{}, false
	}
	return WinningNumbers{*g.WinningNumber1, *g.WinningNumber2, *g.WinningNumber3}, true
}

type GameStats struct {
	GameID             uuid.UUID  `json:"game_id"`
	WeekNumber         int        `json:"week_number"`
	Year               int        `json:"year"`
	TotalBoards        int        `json:"total_boards"`
	TotalWinningBoards int        `json:"total_winning_boards"`
	WinningNumber1     *int       `json:"winning_number1,omitempty"`
	WinningNumber2     *int       `json:"winning_number2,omitempty"`
	WinningNumber3     *int       `json:"winning_number3,omitempty"`
	NumbersPublishedAt *time.Time `json:"numbers_published_at,omitempty"`
	IsFinished         bool       `json:"is_finished"`
}

type GameOverview struct {
	Game            Game        `json:"game"`
	WinningNumbers  []int       `json:"winning_numbers"`
	TotalBoards     int         `json:"total_boards"`
	WinningBoards   int         `json:"winning_boards"`
	WinningBoardIDs []uuid.UUID `json:"winning_board_ids"`
	Boards          []Board     `json:"boards"`
}

const (
	EventGameEnded     = "game_ended"
	EventGameActivated = "game_activated"
)

// GameEvent is pushed to feed subscribers when a game changes state.
type GameEvent struct {
	Type          string    `json:"type"`
	Game          Game      `json:"game"`
	WinningBoards int       `json:"winning_boards,omitempty"`
	At            time.Time `json:"at"`
}
