package models

import (
	"context"

	"github.com/google/uuid"
)

type UserRepositoryInterface interface {
	GetByID(id uuid.UUID) (*User, error)
	CountActiveByUsernameLower(ctx context.Context, usernameLower string) (int, error)
}

type UsedUsernameRepositoryInterface interface {
	CountByUsername(ctx context.Context, usernameLower string) (int, error)
}
