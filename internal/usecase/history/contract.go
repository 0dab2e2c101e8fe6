package history

import (
	"context"

	"github.com/techvocates/nyaya/internal/domain"
)

// SessionRepository defines the storage contract for chat sessions.
type SessionRepository interface {
	Save(ctx context.Context, s domain.ChatSession) error
	Get(ctx context.Context, id string) (domain.ChatSession, error)
	Latest(ctx context.Context, username string) (domain.ChatSession, error)
	List(ctx context.Context, username string) ([]domain.ChatSession, error)
}
