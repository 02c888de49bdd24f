package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	RolePlayer = "player"
	RoleAdmin  = "admin"
)

type Player struct {
	ID        uuid.UUID `json:"id"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Principal is the authenticated caller of an API request.
type Principal struct {
	PlayerID uuid.UUID
	Role     string
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}
