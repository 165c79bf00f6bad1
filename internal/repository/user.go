package repository

import (
	"context"

	"blog-api/internal/domain"
)

// UserRepository defines persistence operations for User entities.
// Lookups return domain.ErrNotFound when nothing matches and Create returns
// domain.ErrDuplicateAccount when the username or email is taken.
type UserRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateVerification(ctx context.Context, id string, verified bool, token *string) error
}
