// Package history groups chat turns into sessions with a rolling time window.
package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/techvocates/nyaya/internal/domain"
)

// DefaultSessionWindow is how long after a session starts that new turns
// still join it.
const DefaultSessionWindow = 60 * time.Minute

// Service manages per-user chat history.
type Service struct {
	repo   SessionRepository
	window time.Duration
	now    func() time.Time
}

// New creates a history service.
func New(repo SessionRepository, window time.Duration) *Service {
	if window <= 0 {
		window = DefaultSessionWindow
	}
	return &Service{repo: repo, window: window, now: time.Now}
}

// AppendTurn records one question/answer exchange. The turn joins the user's
// latest session unless newChat is set, no session exists, or the latest
// session started longer than the window ago. Returns the session the turn
// was written to.
func (s *Service) AppendTurn(ctx context.Context, username, question, answer string, newChat bool) (domain.ChatSession, error) {
	now := s.now().UTC()

	session, err := s.currentSession(ctx, username, now, newChat)
	if err != nil {
		return domain.ChatSession{}, err
	}

	session.Messages = append(session.Messages,
		domain.ChatMessage{Role: "user", Text: question, Timestamp: now},
		domain.ChatMessage{Role: "assistant", Text: answer, Timestamp: now},
	)

	if err := s.repo.Save(ctx, session); err != nil {
		return domain.ChatSession{}, fmt.Errorf("save session: %w", err)
	}
	return session, nil
}

func (s *Service) currentSession(ctx context.Context, username string, now time.Time, newChat bool) (domain.ChatSession, error) {
	if newChat {
		return s.newSession(username, now), nil
	}

	latest, err := s.repo.Latest(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return s.newSession(username, now), nil
		}
		return domain.ChatSession{}, fmt.Errorf("latest session: %w", err)
	}

	if now.Sub(latest.StartedAt) >= s.window {
		return s.newSession(username, now), nil
	}
	return latest, nil
}

func (s *Service) newSession(username string, now time.Time) domain.ChatSession {
	return domain.ChatSession{
		ID:        uuid.NewString(),
		Username:  username,
		StartedAt: now,
	}
}

// ListSessions returns the user's sessions newest-first.
func (s *Service) ListSessions(ctx context.Context, username string) ([]domain.ChatSession, error) {
	sessions, err := s.repo.List(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

// GetSession retrieves one session, enforcing ownership. A session belonging
// to another user reads as not found.
func (s *Service) GetSession(ctx context.Context, username, id string) (domain.ChatSession, error) {
	session, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.ChatSession{}, err
	}
	if session.Username != username {
		return domain.ChatSession{}, domain.ErrSessionNotFound
	}
	return session, nil
}
