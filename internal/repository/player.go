package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jerneif/lotto-api/internal/domain"
	"github.com/jerneif/lotto-api/internal/repository/dao"
)

type PlayerDAO interface {
	Insert(ctx context.Context, player dao.Player) (dao.Player, error)
	FindByID(ctx context.Context, id uuid.UUID) (dao.Player, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool, now time.Time) (dao.Player, error)
}

type PlayerRepository struct {
	dao PlayerDAO
}

func NewPlayerRepository(dao PlayerDAO) *PlayerRepository {
	return &PlayerRepository{
		dao: dao,
	}
}

func (r *PlayerRepository) Create(ctx context.Context, player domain.Player) (domain.Player, error) {
	created, err := r.dao.Insert(ctx, dao.Player{
		ID:       player.ID,
		FullName: player.FullName,
		Email:    player.Email,
		IsActive: player.IsActive,
	})
	if err != nil {
		return domain.Player{}, fmt.Errorf("r.dao.Insert -> %w", translate(err))
	}

	return r.daoToDomain(created), nil
}

func (r *PlayerRepository) FindByID(ctx context.Context, id uuid.UUID) (domain.Player, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.Player{}, fmt.Errorf("r.dao.FindByID -> %w", translate(err))
	}

	return r.daoToDomain(found), nil
}

func (r *PlayerRepository) SetActive(ctx context.Context, id uuid.UUID, active bool, now time.Time) (domain.Player, error) {
	updated, err := r.dao.SetActive(ctx, id, active, now)
	if err != nil {
		return domain.Player{}, fmt.Errorf("r.dao.SetActive -> %w", translate(err))
	}

	return r.daoToDomain(updated), nil
}

func (r *PlayerRepository) daoToDomain(p dao.Player) domain.Player {
	return domain.Player{
		ID:        p.ID,
		FullName:  p.FullName,
		Email:     p.Email,
		IsActive:  p.IsActive,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}
