package auth

import (
	"context"

	"github.com/techvocates/nyaya/internal/domain"
)

// UserRepository defines the storage contract for user accounts.
type UserRepository interface {
	Create(ctx context.Context, u domain.User) error
	Get(ctx context.Context, username string) (domain.User, error)
}
