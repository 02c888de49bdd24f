package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jerneif/lotto-api/internal/domain"
	"github.com/jerneif/lotto-api/internal/metrics"
)

const (
	outcomeRenewed     = "renewed"
	outcomeDeactivated = "deactivated"
	outcomeSkipped     = "skipped"
	outcomeFailed      = "failed"
)

var errLockStillHeld = errors.New("player lock still held")

type SubscriptionRepository interface {
	Create(ctx context.Context, sub domain.BoardSubscription) (domain.BoardSubscription, error)
	FindByID(ctx context.Context, id uuid.UUID) (domain.BoardSubscription, error)
	ListByPlayer(ctx context.Context, playerID uuid.UUID) ([]domain.BoardSubscription, error)
	RenewalCandidates(ctx context.Context, game domain.Game) ([]domain.BoardSubscription, error)
	Deactivate(ctx context.Context, id uuid.UUID, now time.Time) (bool, error)
	Cancel(ctx context.Context, id, playerID uuid.UUID, now time.Time) (bool, error)
	RecordPlayed(ctx context.Context, id uuid.UUID, now time.Time) (domain.BoardSubscription, error)
}

type SubscriptionBoardRepository interface {
	Create(ctx context.Context, board domain.Board) (domain.Board, error)
	ExistsForSubscription(ctx context.Context, subscriptionID, gameID uuid.UUID) (bool, error)
}

type OpenGameFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (domain.Game, error)
	FindOpen(ctx context.Context) (domain.Game, error)
}

type SubscriptionService struct {
	tx            Transactor
	locker        Locker
	subscriptions SubscriptionRepository
	boards        SubscriptionBoardRepository
	games         OpenGameFinder
	players       PlayerFinder
	transactions  TransactionWriter
	ledger        *Ledger
	clock         Clock
	opts          Options
}

func NewSubscriptionService(tx Transactor, locker Locker, subscriptions SubscriptionRepository, boards SubscriptionBoardRepository,
	games OpenGameFinder, players PlayerFinder, transactions TransactionWriter, ledger *Ledger, clock Clock, opts Options) *SubscriptionService {
	return &SubscriptionService{
		tx:            tx,
		locker:        locker,
		subscriptions: subscriptions,
		boards:        boards,
		games:         games,
		players:       players,
		transactions:  transactions,
		ledger:        ledger,
		clock:         clock,
		opts:          opts,
	}
}

// CreateSubscription freezes the current price of the numbers and starts
// with the open game. totalGames nil means no cap.
func (s *SubscriptionService) CreateSubscription(ctx context.Context, playerID uuid.UUID, numbers []int, totalGames *int) (domain.BoardSubscription, error) {
	if err := domain.ValidateNumbers(numbers); err != nil {
		return domain.BoardSubscription{}, err
	}
	if totalGames != nil && *totalGames <= 0 {
		return domain.BoardSubscription{}, domain.ErrTotalGames
	}

	price, err := domain.Price(len(numbers))
	if err != nil {
		return domain.BoardSubscription{}, err
	}

	player, err := s.players.FindByID(ctx, playerID)
	if err != nil {
		return domain.BoardSubscription{}, fmt.Errorf("s.players.FindByID -> %w", err)
	}
	if !player.IsActive {
		return domain.BoardSubscription{}, domain.ErrPlayerInactive
	}

	game, err := s.games.FindOpen(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrGameNotFound) {
			return domain.BoardSubscription{}, domain.ErrGameNotOpen
		}
		return domain.BoardSubscription{}, fmt.Errorf("s.games.FindOpen -> %w", err)
	}

	sub, err := s.subscriptions.Create(ctx, domain.BoardSubscription{
		ID:           uuid.New(),
		PlayerID:     playerID,
		Numbers:      numbers,
		PricePerGame: price,
		StartGameID:  game.ID,
		TotalGames:   totalGames,
		IsActive:     true,
	})
	if err != nil {
		return domain.BoardSubscription{}, fmt.Errorf("s.subscriptions.Create -> %w", err)
	}

	return sub, nil
}

func (s *SubscriptionService) CancelSubscription(ctx context.Context, subscriptionID, playerID uuid.UUID) error {
	ok, err := s.subscriptions.Cancel(ctx, subscriptionID, playerID, s.clock.Now())
	if err != nil {
		return fmt.Errorf("s.subscriptions.Cancel -> %w", err)
	}
	if ok {
		return nil
	}

	sub, err := s.subscriptions.FindByID(ctx, subscriptionID)
	if err != nil {
		return fmt.Errorf("s.subscriptions.FindByID -> %w", err)
	}
	if sub.PlayerID != playerID {
		return domain.ErrSubscriptionNotFound
	}

	return domain.ErrSubscriptionCancelled
}

func (s *SubscriptionService) GetPlayerSubscriptions(ctx context.Context, playerID uuid.UUID) ([]domain.BoardSubscription, error) {
	subs, err := s.subscriptions.ListByPlayer(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("s.subscriptions.ListByPlayer -> %w", err)
	}

	return subs, nil
}

// ProcessRenewals buys this game's board for every eligible subscription.
// Each subscription is renewed in its own transaction, so one failure never
// affects another. Players are processed concurrently, a player's own
// subscriptions one after another.
func (s *SubscriptionService) ProcessRenewals(ctx context.Context, gameID uuid.UUID) (domain.RenewalReport, error) {
	report := domain.RenewalReport{GameID: gameID}

	game, err := s.games.FindByID(ctx, gameID)
	if err != nil {
		return report, fmt.Errorf("s.games.FindByID -> %w", err)
	}

	switch {
	case !game.IsActive:
		return report, domain.ErrGameNotOpen
	case game.NumbersPublishedAt != nil:
		return report, domain.ErrGameFinished
	case !s.clock.Now().Before(game.GuessDeadline):
		return report, domain.ErrDeadlinePassed
	}

	candidates, err := s.subscriptions.RenewalCandidates(ctx, game)
	if err != nil {
		return report, fmt.Errorf("s.subscriptions.RenewalCandidates -> %w", err)
	}
	report.Candidates = len(candidates)

	var order []uuid.UUID
	byPlayer := make(map[uuid.UUID][]domain.BoardSubscription)
	for _, sub := range candidates {
		if reason := s.frozenTermsProblem(sub); reason != "" {
			zap.L().Warn("subscription skipped",
				zap.String("subscriptionID", sub.ID.String()),
				zap.String("playerID", sub.PlayerID.String()),
				zap.String("reason", reason),
			)
			report.Skipped++
			continue
		}

		if _, ok := byPlayer[sub.PlayerID]; !ok {
			order = append(order, sub.PlayerID)
		}
		byPlayer[sub.PlayerID] = append(byPlayer[sub.PlayerID], sub)
	}

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(s.opts.RenewalWorkers)

	for _, playerID := range order {
		subs := byPlayer[playerID]
		g.Go(func() error {
			for _, sub := range subs {
				outcome := s.renew(ctx, game, sub)

				mu.Lock()
				switch outcome {
				case outcomeRenewed:
					report.Renewed++
				case outcomeDeactivated:
					report.Deactivated++
				case outcomeSkipped:
					report.Skipped++
				default:
					report.Failed++
				}
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	metrics.RecordRenewal(outcomeRenewed, report.Renewed)
	metrics.RecordRenewal(outcomeDeactivated, report.Deactivated)
	metrics.RecordRenewal(outcomeSkipped, report.Skipped)
	metrics.RecordRenewal(outcomeFailed, report.Failed)

	return report, nil
}

// frozenTermsProblem reports why a subscription's stored numbers or price
// can no longer be used. A price that differs from the current table is
// never repriced silently.
func (s *SubscriptionService) frozenTermsProblem(sub domain.BoardSubscription) string {
	if err := domain.ValidateNumbers(sub.Numbers); err != nil {
		return err.Error()
	}

	price, err := domain.Price(len(sub.Numbers))
	if err != nil {
		return err.Error()
	}
	if price != sub.PricePerGame {
		return fmt.Sprintf("frozen price %d differs from current price %d", sub.PricePerGame, price)
	}

	return ""
}

func (s *SubscriptionService) renew(ctx context.Context, game domain.Game, sub domain.BoardSubscription) string {
	fields := []zap.Field{
		zap.String("subscriptionID", sub.ID.String()),
		zap.String("playerID", sub.PlayerID.String()),
		zap.String("gameID", game.ID.String()),
	}

	txCtx, cancel := context.WithTimeout(ctx, s.opts.TxTimeout)
	defer cancel()

	outcome := outcomeSkipped
	err := s.tx.WithinReadCommitted(txCtx, func(ctx context.Context) error {
		if err := s.acquirePlayer(ctx, sub.PlayerID); err != nil {
			return err
		}

		// Re-read under the lock; a concurrent run may have renewed it.
		current, err := s.subscriptions.FindByID(ctx, sub.ID)
		if err != nil {
			return fmt.Errorf("s.subscriptions.FindByID -> %w", err)
		}
		if !current.IsActive || current.Exhausted() {
			return nil
		}

		exists, err := s.boards.ExistsForSubscription(ctx, sub.ID, game.ID)
		if err != nil {
			return fmt.Errorf("s.boards.ExistsForSubscription -> %w", err)
		}
		if exists {
			return nil
		}

		now := s.clock.Now()

		balance, err := s.ledger.GetBalance(ctx, sub.PlayerID)
		if err != nil {
			return fmt.Errorf("s.ledger.GetBalance -> %w", err)
		}
		if balance < current.PricePerGame {
			if _, err := s.subscriptions.Deactivate(ctx, sub.ID, now); err != nil {
				return fmt.Errorf("s.subscriptions.Deactivate -> %w", err)
			}
			outcome = outcomeDeactivated
			return nil
		}

		board, err := s.boards.Create(ctx, domain.Board{
			ID:             uuid.New(),
			GameID:         game.ID,
			PlayerID:       sub.PlayerID,
			Numbers:        current.Numbers,
			Price:          current.PricePerGame,
			SubscriptionID: &current.ID,
		})
		if err != nil {
			return fmt.Errorf("s.boards.Create -> %w", err)
		}

		_, err = s.transactions.Create(ctx, domain.Transaction{
			ID:       uuid.New(),
			PlayerID: sub.PlayerID,
			Type:     domain.TransactionPurchase,
			Amount:   current.PricePerGame,
			Status:   domain.StatusApproved,
			BoardID:  &board.ID,
		})
		if err != nil {
			return fmt.Errorf("s.transactions.Create -> %w", err)
		}

		if _, err := s.subscriptions.RecordPlayed(ctx, sub.ID, now); err != nil {
			return fmt.Errorf("s.subscriptions.RecordPlayed -> %w", err)
		}

		outcome = outcomeRenewed
		return nil
	})

	switch {
	case err == nil:
		if outcome == outcomeDeactivated {
			zap.L().Info("subscription deactivated for insufficient funds", fields...)
		}
		return outcome
	case errors.Is(err, errLockStillHeld):
		zap.L().Warn("subscription skipped, player is busy", fields...)
		return outcomeSkipped
	default:
		zap.L().Error("subscription renewal failed", append(fields, zap.Error(err))...)
		return outcomeFailed
	}
}

// acquirePlayer retries the non-blocking lock with exponential backoff for
// up to RenewalMaxWait.
func (s *SubscriptionService) acquirePlayer(ctx context.Context, playerID uuid.UUID) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 20 * time.Millisecond
	b.MaxInterval = 500 * time.Millisecond
	b.MaxElapsedTime = s.opts.RenewalMaxWait

	err := backoff.Retry(func() error {
		acquired, err := s.locker.TryAcquire(ctx, playerLockKey(playerID))
		if err != nil {
			return backoff.Permanent(err)
		}
		if !acquired {
			return errLockStillHeld
		}
		return nil
	}, backoff.WithContext(b, ctx))
	if err != nil {
		if errors.Is(err, errLockStillHeld) {
			metrics.RecordLock(s.opts.LockDriver, "busy")
			return errLockStillHeld
		}
		return fmt.Errorf("s.locker.TryAcquire -> %w", err)
	}

	metrics.RecordLock(s.opts.LockDriver, "acquired")

	return nil
}
