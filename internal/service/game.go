package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jerneif/lotto-api/internal/domain"
	"github.com/jerneif/lotto-api/internal/metrics"
	"github.com/jerneif/lotto-api/internal/pkg/isoweek"
)

type GameRepository interface {
	CreateMany(ctx context.Context, games []domain.Game) error
	FindByID(ctx context.Context, id uuid.UUID) (domain.Game, error)
	FindOpen(ctx context.Context) (domain.Game, error)
	FindUnpublishedByWeek(ctx context.Context, week isoweek.Key) (domain.Game, error)
	FindByWeek(ctx context.Context, week isoweek.Key) (domain.Game, error)
	ExistingWeeks(ctx context.Context) (map[isoweek.Key]struct{}, error)
	DeactivateOpen(ctx context.Context, now time.Time) (int64, error)
	Activate(ctx context.Context, id uuid.UUID, now time.Time) (bool, error)
	ActivateWeek(ctx context.Context, week isoweek.Key, now time.Time) (bool, error)
	Publish(ctx context.Context, id uuid.UUID, w domain.WinningNumbers, now time.Time) (bool, error)
	History(ctx context.Context) ([]domain.Game, error)
	ActiveOrPublished(ctx context.Context) ([]domain.Game, error)
	Stats(ctx context.Context, games []domain.Game) ([]domain.GameStats, error)
}

type WinnerMarker interface {
	MarkWinners(ctx context.Context, gameID uuid.UUID, w domain.WinningNumbers, now time.Time) ([]uuid.UUID, error)
	ListByGame(ctx context.Context, gameID uuid.UUID) ([]domain.Board, error)
}

// Renewer buys the boards of active subscriptions for a game.
type Renewer interface {
	ProcessRenewals(ctx context.Context, gameID uuid.UUID) (domain.RenewalReport, error)
}

type GameService struct {
	tx       Transactor
	locker   Locker
	games    GameRepository
	boards   WinnerMarker
	renewer  Renewer
	notifier Notifier
	clock    Clock
	opts     Options
}

func NewGameService(tx Transactor, locker Locker, games GameRepository, boards WinnerMarker, renewer Renewer,
	notifier Notifier, clock Clock, opts Options) *GameService {
	return &GameService{
		tx:       tx,
		locker:   locker,
		games:    games,
		boards:   boards,
		renewer:  renewer,
		notifier: notifier,
		clock:    clock,
		opts:     opts,
	}
}

// GetOrActivateOpenGame returns the game currently accepting boards. When
// there is none, the game scheduled for the current ISO week is activated.
func (s *GameService) GetOrActivateOpenGame(ctx context.Context) (domain.Game, error) {
	game, err := s.games.FindOpen(ctx)
	if err == nil {
		return game, nil
	}
	if !errors.Is(err, domain.ErrGameNotFound) {
		return domain.Game{}, fmt.Errorf("s.games.FindOpen -> %w", err)
	}

	txCtx, cancel := context.WithTimeout(ctx, s.opts.TxTimeout)
	defer cancel()

	activated := false
	err = s.tx.WithinTransaction(txCtx, func(ctx context.Context) error {
		if err := s.locker.Acquire(ctx, gameActivationLockKey); err != nil {
			return fmt.Errorf("s.locker.Acquire -> %w", lockErr(ctx, err))
		}

		// Another caller may have activated it while we waited.
		game, err = s.games.FindOpen(ctx)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrGameNotFound) {
			return fmt.Errorf("s.games.FindOpen -> %w", err)
		}

		now := s.clock.Now()
		week := isoweek.Of(now, s.opts.Location)

		game, err = s.games.FindUnpublishedByWeek(ctx, week)
		if err != nil {
			if errors.Is(err, domain.ErrGameNotFound) {
				zap.L().Error("no scheduled game for the current week",
					zap.Int("week", week.Week),
					zap.Int("year", week.Year),
				)
				return fmt.Errorf("%w: %s", domain.ErrNoScheduledGame, week)
			}
			return fmt.Errorf("s.games.FindUnpublishedByWeek -> %w", err)
		}

		if _, err := s.games.DeactivateOpen(ctx, now); err != nil {
			return fmt.Errorf("s.games.DeactivateOpen -> %w", err)
		}

		ok, err := s.games.Activate(ctx, game.ID, now)
		if err != nil {
			return fmt.Errorf("s.games.Activate -> %w", err)
		}
		if !ok {
			return fmt.Errorf("%w: %s", domain.ErrNoScheduledGame, week)
		}

		game.IsActive = true
		game.UpdatedAt = now
		activated = true

		return nil
	})
	if err != nil {
		if domain.KindOf(err) == domain.KindUnknown {
			err = lockErr(txCtx, err)
		}
		return domain.Game{}, err
	}

	if activated {
		zap.L().Info("game activated",
			zap.String("gameID", game.ID.String()),
			zap.Int("week", game.WeekNumber),
			zap.Int("year", game.Year),
		)
		s.publish(domain.GameEvent{Type: domain.EventGameActivated, Game: game, At: s.clock.Now()})
	}

	return game, nil
}

// EndGame publishes the winning numbers of an active game whose deadline has
// passed, marks the winning boards and activates next week's game, all in
// one transaction. Among concurrent callers at most one succeeds.
func (s *GameService) EndGame(ctx context.Context, gameID uuid.UUID, w domain.WinningNumbers) (ended domain.Game, err error) {
	defer func() {
		metrics.RecordGameEnd(resultLabel(err))
	}()

	if err := w.Validate(); err != nil {
		return domain.Game{}, err
	}

	txCtx, cancel := context.WithTimeout(ctx, s.opts.TxTimeout)
	defer cancel()

	var next domain.Game
	var winners []uuid.UUID

	// The guarded publish is the only serialization point: a concurrent
	// caller waits for the row, then matches nothing and is told why.
	err = s.tx.WithinTransaction(txCtx, func(ctx context.Context) error {
		now := s.clock.Now()

		ok, err := s.games.Publish(ctx, gameID, w, now)
		if err != nil {
			return fmt.Errorf("s.games.Publish -> %w", err)
		}
		if !ok {
			return s.diagnoseEndGame(ctx, gameID, now)
		}

		ended, err = s.games.FindByID(ctx, gameID)
		if err != nil {
			return fmt.Errorf("s.games.FindByID -> %w", err)
		}

		winners, err = s.boards.MarkWinners(ctx, gameID, w, now)
		if err != nil {
			return fmt.Errorf("s.boards.MarkWinners -> %w", err)
		}

		next, err = s.activateNextWeek(ctx, ended, now)
		return err
	})
	if err != nil {
		if domain.KindOf(err) == domain.KindUnknown {
			err = lockErr(txCtx, err)
		}
		return domain.Game{}, err
	}

	zap.L().Info("game ended",
		zap.String("gameID", ended.ID.String()),
		zap.Int("week", ended.WeekNumber),
		zap.Int("year", ended.Year),
		zap.Ints("winningNumbers", w[:]),
		zap.Int("winningBoards", len(winners)),
		zap.String("nextGameID", next.ID.String()),
	)

	at := s.clock.Now()
	s.publish(domain.GameEvent{Type: domain.EventGameEnded, Game: ended, WinningBoards: len(winners), At: at})
	s.publish(domain.GameEvent{Type: domain.EventGameActivated, Game: next, At: at})

	if s.renewer != nil {
		report, err := s.renewer.ProcessRenewals(context.WithoutCancel(ctx), next.ID)
		if err != nil {
			zap.L().Error("subscription renewals failed",
				zap.String("gameID", next.ID.String()),
				zap.Error(err),
			)
		} else {
			zap.L().Info("subscription renewals processed",
				zap.String("gameID", report.GameID.String()),
				zap.Int("renewed", report.Renewed),
				zap.Int("deactivated", report.Deactivated),
				zap.Int("skipped", report.Skipped),
				zap.Int("failed", report.Failed),
			)
		}
	}

	return ended, nil
}

// diagnoseEndGame explains why the guarded update matched no row.
func (s *GameService) diagnoseEndGame(ctx context.Context, gameID uuid.UUID, now time.Time) error {
	game, err := s.games.FindByID(ctx, gameID)
	if err != nil {
		return fmt.Errorf("s.games.FindByID -> %w", err)
	}

	switch {
	case now.Before(game.GuessDeadline):
		return domain.ErrDeadlineNotPassed
	case game.NumbersPublishedAt != nil:
		return domain.ErrGameFinished
	case !game.IsActive:
		return domain.ErrGameNotActive
	}

	// Nothing explains the miss; answer as for a finished game.
	return domain.ErrGameFinished
}

func (s *GameService) activateNextWeek(ctx context.Context, ended domain.Game, now time.Time) (domain.Game, error) {
	week := isoweek.Next(isoweek.Key{Year: ended.Year, Week: ended.WeekNumber}, s.opts.Location)
	fields := []zap.Field{
		zap.String("gameID", ended.ID.String()),
		zap.Int("nextWeek", week.Week),
		zap.Int("nextYear", week.Year),
	}

	ok, err := s.games.ActivateWeek(ctx, week, now)
	if err != nil {
		return domain.Game{}, fmt.Errorf("s.games.ActivateWeek -> %w", err)
	}

	next, err := s.games.FindByWeek(ctx, week)
	if err != nil {
		if errors.Is(err, domain.ErrGameNotFound) {
			zap.L().Error("next game is missing", fields...)
			return domain.Game{}, fmt.Errorf("%w: %s", domain.ErrNextGameMissing, week)
		}
		return domain.Game{}, fmt.Errorf("s.games.FindByWeek -> %w", err)
	}

	if ok {
		return next, nil
	}

	switch {
	case next.NumbersPublishedAt != nil:
		zap.L().Error("next game is already finished", fields...)
		return domain.Game{}, fmt.Errorf("%w: %s", domain.ErrNextGameAlreadyFinished, week)
	case next.IsActive:
		zap.L().Error("next game is already active", fields...)
		return domain.Game{}, fmt.Errorf("%w: %s", domain.ErrNextGameAlreadyActive, week)
	default:
		zap.L().Error("next game could not be activated", fields...)
		return domain.Game{}, fmt.Errorf("%w: %s", domain.ErrNextGameMissing, week)
	}
}

func (s *GameService) publish(event domain.GameEvent) {
	if s.notifier != nil {
		s.notifier.Publish(event)
	}
}

func (s *GameService) GetGame(ctx context.Context, gameID uuid.UUID) (domain.Game, error) {
	game, err := s.games.FindByID(ctx, gameID)
	if err != nil {
		return domain.Game{}, fmt.Errorf("s.games.FindByID -> %w", err)
	}

	return game, nil
}

func (s *GameService) GetGameHistory(ctx context.Context) ([]domain.Game, error) {
	games, err := s.games.History(ctx)
	if err != nil {
		return nil, fmt.Errorf("s.games.History -> %w", err)
	}

	return games, nil
}

func (s *GameService) GetGameAdminOverview(ctx context.Context, gameID uuid.UUID) (domain.GameOverview, error) {
	game, err := s.games.FindByID(ctx, gameID)
	if err != nil {
		return domain.GameOverview{}, fmt.Errorf("s.games.FindByID -> %w", err)
	}

	boards, err := s.boards.ListByGame(ctx, gameID)
	if err != nil {
		return domain.GameOverview{}, fmt.Errorf("s.boards.ListByGame -> %w", err)
	}

	overview := domain.GameOverview{
		Game:            game,
		WinningNumbers:  []int{},
		TotalBoards:     len(boards),
		WinningBoardIDs: []uuid.UUID{},
		Boards:          boards,
	}

	if w, ok := game.Winning(); ok {
		overview.WinningNumbers = w[:]
		for _, b := range boards {
			if b.IsWinningBoard {
				overview.WinningBoardIDs = append(overview.WinningBoardIDs, b.ID)
			}
		}
	}
	overview.WinningBoards = len(overview.WinningBoardIDs)

	return overview, nil
}

// GetAllGameStats covers the open game and every ended one.
func (s *GameService) GetAllGameStats(ctx context.Context) ([]domain.GameStats, error) {
	games, err := s.games.ActiveOrPublished(ctx)
	if err != nil {
		return nil, fmt.Errorf("s.games.ActiveOrPublished -> %w", err)
	}

	stats, err := s.games.Stats(ctx, games)
	if err != nil {
		return nil, fmt.Errorf("s.games.Stats -> %w", err)
	}

	return stats, nil
}

func (s *GameService) GetGameStats(ctx context.Context, gameID uuid.UUID) (domain.GameStats, error) {
	game, err := s.games.FindByID(ctx, gameID)
	if err != nil {
		return domain.GameStats{}, fmt.Errorf("s.games.FindByID -> %w", err)
	}
	if game.State() == domain.GameScheduled {
		return domain.GameStats{}, domain.ErrNoGameStats
	}

	stats, err := s.games.Stats(ctx, []domain.Game{game})
	if err != nil {
		return domain.GameStats{}, fmt.Errorf("s.games.Stats -> %w", err)
	}

	return stats[0], nil
}

// SeedGames schedules a game for each of the next weeks ISO weeks, starting
// with the current one, skipping weeks that already have a game. When no
// game is open afterwards, the current week's game is activated.
func (s *GameService) SeedGames(ctx context.Context, weeks int) (int, error) {
	existing, err := s.games.ExistingWeeks(ctx)
	if err != nil {
		return 0, fmt.Errorf("s.games.ExistingWeeks -> %w", err)
	}

	week := isoweek.Of(s.clock.Now(), s.opts.Location)

	var games []domain.Game
	for i := 0; i < weeks; i++ {
		if _, ok := existing[week]; !ok {
			window := isoweek.WindowFor(week, s.opts.Location, s.opts.DeadlineHour)
			games = append(games, domain.Game{
				ID:            uuid.New(),
				WeekNumber:    week.Week,
				Year:          week.Year,
				StartDate:     window.Start,
				EndDate:       window.End,
				GuessDeadline: window.GuessDeadline,
			})
		}
		week = isoweek.Next(week, s.opts.Location)
	}

	if err := s.games.CreateMany(ctx, games); err != nil {
		return 0, fmt.Errorf("s.games.CreateMany -> %w", err)
	}

	if _, err := s.GetOrActivateOpenGame(ctx); err != nil {
		return len(games), fmt.Errorf("s.GetOrActivateOpenGame -> %w", err)
	}

	zap.L().Info("games seeded", zap.Int("created", len(games)), zap.Int("weeks", weeks))

	return len(games), nil
}
