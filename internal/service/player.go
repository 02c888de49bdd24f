package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/google/uuid"

	"github.com/jerneif/lotto-api/internal/domain"
)

type PlayerRepository interface {
	Create(ctx context.Context, player domain.Player) (domain.Player, error)
	FindByID(ctx context.Context, id uuid.UUID) (domain.Player, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool, now time.Time) (domain.Player, error)
}

type PlayerService struct {
	repo  PlayerRepository
	clock Clock
}

func NewPlayerService(repo PlayerRepository, clock Clock) *PlayerService {
	return &PlayerService{
		repo:  repo,
		clock: clock,
	}
}

// RegisterPlayer creates an inactive player. Credentials live with the
// identity provider.
func (s *PlayerService) RegisterPlayer(ctx context.Context, fullName, email string) (domain.Player, error) {
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return domain.Player{}, domain.ErrFullName
	}

	email = strings.ToLower(strings.TrimSpace(email))
	if err := validation.Validate(email, validation.Required, is.Email); err != nil {
		return domain.Player{}, domain.ErrInvalidEmail
	}

	player, err := s.repo.Create(ctx, domain.Player{
		ID:       uuid.New(),
		FullName: fullName,
		Email:    email,
	})
	if err != nil {
		return domain.Player{}, fmt.Errorf("s.repo.Create -> %w", err)
	}

	return player, nil
}

func (s *PlayerService) GetPlayer(ctx context.Context, playerID uuid.UUID) (domain.Player, error) {
	player, err := s.repo.FindByID(ctx, playerID)
	if err != nil {
		return domain.Player{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	return player, nil
}

func (s *PlayerService) SetPlayerActive(ctx context.Context, playerID uuid.UUID, active bool) (domain.Player, error) {
	player, err := s.repo.SetActive(ctx, playerID, active, s.clock.Now())
	if err != nil {
		return domain.Player{}, fmt.Errorf("s.repo.SetActive -> %w", err)
	}

	return player, nil
}
