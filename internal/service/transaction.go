package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jerneif/lotto-api/internal/domain"
)

// A deposit reference is 4-64 letters, digits or dashes with at least one
// digit.
var depositRefPattern = regexp2.MustCompile(`^(?=.*[0-9])[A-Za-z0-9-]{4,64}$`, regexp2.None)

type TransactionRepository interface {
	Create(ctx context.Context, t domain.Transaction) (domain.Transaction, error)
	FindByID(ctx context.Context, id uuid.UUID) (domain.Transaction, error)
	FindByReference(ctx context.Context, ref string) (domain.Transaction, error)
	Process(ctx context.Context, id uuid.UUID, status domain.TransactionStatus, adminID uuid.UUID, now time.Time) (bool, error)
	ListByPlayer(ctx context.Context, playerID uuid.UUID) ([]domain.Transaction, error)
	ListPendingDeposits(ctx context.Context) ([]domain.Transaction, error)
	ListAll(ctx context.Context) ([]domain.Transaction, error)
}

type TransactionService struct {
	repo    TransactionRepository
	players PlayerFinder
	ledger  *Ledger
	clock   Clock
}

func NewTransactionService(repo TransactionRepository, players PlayerFinder, ledger *Ledger, clock Clock) *TransactionService {
	return &TransactionService{
		repo:    repo,
		players: players,
		ledger:  ledger,
		clock:   clock,
	}
}

// ValidDepositReference reports whether ref, after trimming, is an accepted
// external payment reference.
func ValidDepositReference(ref string) bool {
	ok, err := depositRefPattern.MatchString(strings.TrimSpace(ref))
	return err == nil && ok
}

// CreateDeposit records a pending deposit. Submitting the same reference
// again for the same player and amount succeeds without creating a second
// row; any other reuse of the reference is a conflict.
func (s *TransactionService) CreateDeposit(ctx context.Context, playerID uuid.UUID, amount int, externalRef string) (domain.Transaction, error) {
	if amount <= 0 {
		return domain.Transaction{}, domain.ErrDepositAmount
	}

	ref := strings.TrimSpace(externalRef)
	if !ValidDepositReference(ref) {
		return domain.Transaction{}, domain.ErrDepositReference
	}

	if _, err := s.players.FindByID(ctx, playerID); err != nil {
		return domain.Transaction{}, fmt.Errorf("s.players.FindByID -> %w", err)
	}

	created, err := s.repo.Create(ctx, domain.Transaction{
		ID:          uuid.New(),
		PlayerID:    playerID,
		Type:        domain.TransactionDeposit,
		Amount:      amount,
		Status:      domain.StatusPending,
		ExternalRef: &ref,
	})
	if err == nil {
		return created, nil
	}
	if !errors.Is(err, domain.ErrDuplicateReference) {
		return domain.Transaction{}, fmt.Errorf("s.repo.Create -> %w", err)
	}

	existing, findErr := s.repo.FindByReference(ctx, ref)
	if findErr != nil {
		return domain.Transaction{}, fmt.Errorf("s.repo.FindByReference -> %w", findErr)
	}
	if existing.PlayerID == playerID && existing.Type == domain.TransactionDeposit && existing.Amount == amount {
		return existing, nil
	}

	return domain.Transaction{}, domain.ErrDuplicateReference
}

func (s *TransactionService) ApproveDeposit(ctx context.Context, transactionID, adminID uuid.UUID) (domain.Transaction, error) {
	return s.processDeposit(ctx, transactionID, adminID, domain.StatusApproved)
}

func (s *TransactionService) RejectDeposit(ctx context.Context, transactionID, adminID uuid.UUID) (domain.Transaction, error) {
	return s.processDeposit(ctx, transactionID, adminID, domain.StatusRejected)
}

func (s *TransactionService) processDeposit(ctx context.Context, transactionID, adminID uuid.UUID, status domain.TransactionStatus) (domain.Transaction, error) {
	ok, err := s.repo.Process(ctx, transactionID, status, adminID, s.clock.Now())
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("s.repo.Process -> %w", err)
	}

	t, err := s.repo.FindByID(ctx, transactionID)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	if !ok {
		if t.Type != domain.TransactionDeposit {
			return domain.Transaction{}, domain.ErrNotDeposit
		}
		return domain.Transaction{}, domain.ErrNotPending
	}

	zap.L().Info("deposit processed",
		zap.String("transactionID", transactionID.String()),
		zap.String("playerID", t.PlayerID.String()),
		zap.String("adminID", adminID.String()),
		zap.String("status", string(status)),
		zap.Int("amount", t.Amount),
	)

	return t, nil
}

func (s *TransactionService) GetBalance(ctx context.Context, playerID uuid.UUID) (int, error) {
	return s.ledger.GetBalance(ctx, playerID)
}

func (s *TransactionService) GetTransaction(ctx context.Context, transactionID uuid.UUID) (domain.Transaction, error) {
	t, err := s.repo.FindByID(ctx, transactionID)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	return t, nil
}

func (s *TransactionService) GetByReference(ctx context.Context, ref string) (domain.Transaction, error) {
	t, err := s.repo.FindByReference(ctx, strings.TrimSpace(ref))
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("s.repo.FindByReference -> %w", err)
	}

	return t, nil
}

func (s *TransactionService) GetPersonalHistory(ctx context.Context, playerID uuid.UUID) ([]domain.Transaction, error) {
	txs, err := s.repo.ListByPlayer(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("s.repo.ListByPlayer -> %w", err)
	}

	return txs, nil
}

func (s *TransactionService) GetPendingDeposits(ctx context.Context) ([]domain.Transaction, error) {
	txs, err := s.repo.ListPendingDeposits(ctx)
	if err != nil {
		return nil, fmt.Errorf("s.repo.ListPendingDeposits -> %w", err)
	}

	return txs, nil
}

func (s *TransactionService) GetHistory(ctx context.Context) ([]domain.Transaction, error) {
	txs, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("s.repo.ListAll -> %w", err)
	}

	return txs, nil
}
