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
)

type BoardRepository interface {
	Create(ctx context.Context, board domain.Board) (domain.Board, error)
	FindByID(ctx context.Context, id uuid.UUID) (domain.Board, error)
	FindIncludingDeleted(ctx context.Context, id uuid.UUID) (domain.Board, bool, error)
	ListByPlayer(ctx context.Context, playerID uuid.UUID, gameID *uuid.UUID) ([]domain.Board, error)
	ListWinningByPlayer(ctx context.Context, playerID uuid.UUID) ([]domain.Board, error)
	ListByGame(ctx context.Context, gameID uuid.UUID) ([]domain.Board, error)
	ListWinningByGame(ctx context.Context, gameID uuid.UUID) ([]domain.Board, error)
	SoftDelete(ctx context.Context, id uuid.UUID) (bool, error)
}

type GameFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (domain.Game, error)
}

type PlayerFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (domain.Player, error)
}

type TransactionWriter interface {
	Create(ctx context.Context, t domain.Transaction) (domain.Transaction, error)
}

type BoardService struct {
	tx           Transactor
	locker       Locker
	boards       BoardRepository
	games        GameFinder
	players      PlayerFinder
	transactions TransactionWriter
	ledger       *Ledger
	clock        Clock
	opts         Options
}

func NewBoardService(tx Transactor, locker Locker, boards BoardRepository, games GameFinder, players PlayerFinder,
	transactions TransactionWriter, ledger *Ledger, clock Clock, opts Options) *BoardService {
	return &BoardService{
		tx:           tx,
		locker:       locker,
		boards:       boards,
		games:        games,
		players:      players,
		transactions: transactions,
		ledger:       ledger,
		clock:        clock,
		opts:         opts,
	}
}

// Purchase buys one board for the player and returns it with the balance
// left after paying for it. Either both the board and its purchase
// transaction are stored or neither is.
func (s *BoardService) Purchase(ctx context.Context, gameID, playerID uuid.UUID, numbers []int) (board domain.Board, balance int, err error) {
	started := time.Now()
	defer func() {
		metrics.RecordPurchase(resultLabel(err), started)
	}()

	if err := domain.ValidateNumbers(numbers); err != nil {
		return domain.Board{}, 0, err
	}

	if err := s.checkGameAcceptsBoards(ctx, gameID); err != nil {
		return domain.Board{}, 0, err
	}

	if err := s.checkPlayerActive(ctx, playerID); err != nil {
		return domain.Board{}, 0, err
	}

	price, err := domain.Price(len(numbers))
	if err != nil {
		return domain.Board{}, 0, err
	}

	txCtx, cancel := context.WithTimeout(ctx, s.opts.TxTimeout)
	defer cancel()

	err = s.tx.WithinReadCommitted(txCtx, func(ctx context.Context) error {
		acquired, err := s.locker.TryAcquire(ctx, playerLockKey(playerID))
		if err != nil {
			return fmt.Errorf("s.locker.TryAcquire -> %w", lockErr(ctx, err))
		}
		if !acquired {
			metrics.RecordLock(s.opts.LockDriver, "busy")
			return domain.ErrLockBusy
		}
		metrics.RecordLock(s.opts.LockDriver, "acquired")

		current, err := s.ledger.GetBalance(ctx, playerID)
		if err != nil {
			return fmt.Errorf("s.ledger.GetBalance -> %w", err)
		}
		if current < price {
			return domain.ErrInsufficientFunds
		}

		board, err = s.boards.Create(ctx, domain.Board{
			ID:       uuid.New(),
			GameID:   gameID,
			PlayerID: playerID,
			Numbers:  numbers,
			Price:    price,
		})
		if err != nil {
			return fmt.Errorf("s.boards.Create -> %w", err)
		}

		_, err = s.transactions.Create(ctx, domain.Transaction{
			ID:       uuid.New(),
			PlayerID: playerID,
			Type:     domain.TransactionPurchase,
			Amount:   price,
			Status:   domain.StatusApproved,
			BoardID:  &board.ID,
		})
		if err != nil {
			return fmt.Errorf("s.transactions.Create -> %w", err)
		}

		balance = current - price

		return nil
	})
	if err != nil {
		if domain.KindOf(err) == domain.KindUnknown {
			err = lockErr(txCtx, err)
		}
		return domain.Board{}, 0, err
	}

	zap.L().Info("board purchased",
		zap.String("boardID", board.ID.String()),
		zap.String("gameID", gameID.String()),
		zap.String("playerID", playerID.String()),
		zap.Int("price", price),
	)

	return board, balance, nil
}

func (s *BoardService) checkGameAcceptsBoards(ctx context.Context, gameID uuid.UUID) error {
	game, err := s.games.FindByID(ctx, gameID)
	if err != nil {
		return fmt.Errorf("s.games.FindByID -> %w", err)
	}

	if game.AcceptsBoards(s.clock.Now()) {
		return nil
	}

	switch game.State() {
	case domain.GameEnded:
		return domain.ErrGameFinished
	case domain.GameScheduled:
		return domain.ErrGameNotOpen
	default:
		return domain.ErrDeadlinePassed
	}
}

func (s *BoardService) checkPlayerActive(ctx context.Context, playerID uuid.UUID) error {
	player, err := s.players.FindByID(ctx, playerID)
	if err != nil {
		return fmt.Errorf("s.players.FindByID -> %w", err)
	}
	if !player.IsActive {
		return domain.ErrPlayerInactive
	}

	return nil
}

// CanAcceptNewBoards is advisory; Purchase checks again.
func (s *BoardService) CanAcceptNewBoards(ctx context.Context, gameID uuid.UUID) (bool, error) {
	err := s.checkGameAcceptsBoards(ctx, gameID)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, domain.ErrGameNotFound):
		return false, err
	case domain.KindOf(err) == domain.KindConflict:
		return false, nil
	default:
		return false, err
	}
}

// CanPlayerAffordBoard is advisory; Purchase checks again under the lock.
func (s *BoardService) CanPlayerAffordBoard(ctx context.Context, playerID uuid.UUID, numberCount int) (bool, error) {
	price, err := domain.Price(numberCount)
	if err != nil {
		return false, err
	}

	balance, err := s.ledger.GetBalance(ctx, playerID)
	if err != nil {
		return false, fmt.Errorf("s.ledger.GetBalance -> %w", err)
	}

	return balance >= price, nil
}

func (s *BoardService) GetBoard(ctx context.Context, boardID uuid.UUID) (domain.Board, error) {
	board, err := s.boards.FindByID(ctx, boardID)
	if err != nil {
		return domain.Board{}, fmt.Errorf("s.boards.FindByID -> %w", err)
	}

	return board, nil
}

func (s *BoardService) GetPlayerBoards(ctx context.Context, playerID uuid.UUID, gameID *uuid.UUID) ([]domain.Board, error) {
	boards, err := s.boards.ListByPlayer(ctx, playerID, gameID)
	if err != nil {
		return nil, fmt.Errorf("s.boards.ListByPlayer -> %w", err)
	}

	return boards, nil
}

func (s *BoardService) GetPlayerWinningBoards(ctx context.Context, playerID uuid.UUID) ([]domain.Board, error) {
	boards, err := s.boards.ListWinningByPlayer(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("s.boards.ListWinningByPlayer -> %w", err)
	}

	return boards, nil
}

func (s *BoardService) GetBoardsForGame(ctx context.Context, gameID uuid.UUID) ([]domain.Board, error) {
	boards, err := s.boards.ListByGame(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("s.boards.ListByGame -> %w", err)
	}

	return boards, nil
}

// GetWinningBoardsForGame is empty until the game's numbers are published.
func (s *BoardService) GetWinningBoardsForGame(ctx context.Context, gameID uuid.UUID) ([]domain.Board, error) {
	game, err := s.games.FindByID(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("s.games.FindByID -> %w", err)
	}
	if game.NumbersPublishedAt == nil {
		return []domain.Board{}, nil
	}

	boards, err := s.boards.ListWinningByGame(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("s.boards.ListWinningByGame -> %w", err)
	}

	return boards, nil
}

// DeleteBoard soft-deletes a board and refunds its price to the owner in
// the same transaction. Deleting a board twice refunds it once.
func (s *BoardService) DeleteBoard(ctx context.Context, boardID, adminID uuid.UUID) error {
	txCtx, cancel := context.WithTimeout(ctx, s.opts.TxTimeout)
	defer cancel()

	err := s.tx.WithinReadCommitted(txCtx, func(ctx context.Context) error {
		board, deleted, err := s.boards.FindIncludingDeleted(ctx, boardID)
		if err != nil {
			return fmt.Errorf("s.boards.FindIncludingDeleted -> %w", err)
		}
		if deleted {
			return nil
		}

		if err := s.locker.Acquire(ctx, playerLockKey(board.PlayerID)); err != nil {
			return fmt.Errorf("s.locker.Acquire -> %w", lockErr(ctx, err))
		}

		ok, err := s.boards.SoftDelete(ctx, boardID)
		if err != nil {
			return fmt.Errorf("s.boards.SoftDelete -> %w", err)
		}
		if !ok {
			return nil
		}

		now := s.clock.Now()
		_, err = s.transactions.Create(ctx, domain.Transaction{
			ID:          uuid.New(),
			PlayerID:    board.PlayerID,
			Type:        domain.TransactionDeposit,
			Amount:      board.Price,
			Status:      domain.StatusApproved,
			BoardID:     &board.ID,
			ProcessedBy: &adminID,
			ProcessedAt: &now,
		})
		if err != nil {
			return fmt.Errorf("s.transactions.Create -> %w", err)
		}

		zap.L().Info("board deleted and refunded",
			zap.String("boardID", boardID.String()),
			zap.String("playerID", board.PlayerID.String()),
			zap.String("adminID", adminID.String()),
			zap.Int("amount", board.Price),
		)

		return nil
	})
	if err != nil {
		if domain.KindOf(err) == domain.KindUnknown {
			err = lockErr(txCtx, err)
		}
		return err
	}

	return nil
}
