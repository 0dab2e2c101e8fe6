// Package history persists chat sessions as JSON blobs with a per-user
// sorted-set index ordered by session start time.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/techvocates/nyaya/internal/db"
	"github.com/techvocates/nyaya/internal/domain"
)

// store is the consumer interface for history persistence (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	ZAdd(ctx context.Context, key string, score float64, member string) error
	ZRevRange(ctx context.Context, key string, start, stop int64) ([]string, error)
}

// Repo implements usecase/history.SessionRepository.
type Repo struct {
	store  store
	prefix string
}

// New creates a chat history repository. Keys are namespaced under prefix.
func New(s store, prefix string) *Repo {
	return &Repo{store: s, prefix: prefix}
}

func (r *Repo) sessionKey(id string) string {
	return r.prefix + "session:" + id
}

func (r *Repo) indexKey(username string) string {
	return r.prefix + "sessions:" + username
}

// Save upserts a session blob and indexes it by start time.
// Re-saving an existing session keeps its score, so appends are idempotent
// with respect to ordering.
func (r *Repo) Save(ctx context.Context, s domain.ChatSession) error {
	blob, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session %s: %w", s.ID, err)
	}

	if err := r.store.Set(ctx, r.sessionKey(s.ID), blob); err != nil {
		return fmt.Errorf("set session %s: %w", s.ID, err)
	}
	score := float64(s.StartedAt.Unix())
	if err := r.store.ZAdd(ctx, r.indexKey(s.Username), score, s.ID); err != nil {
		return fmt.Errorf("index session %s: %w", s.ID, err)
	}
	return nil
}

// Get retrieves a session by id. Returns domain.ErrSessionNotFound when absent.
func (r *Repo) Get(ctx context.Context, id string) (domain.ChatSession, error) {
	blob, err := r.store.Get(ctx, r.sessionKey(id))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domain.ChatSession{}, domain.ErrSessionNotFound
		}
		return domain.ChatSession{}, fmt.Errorf("get session %s: %w", id, err)
	}

	var s domain.ChatSession
	if err := json.Unmarshal(blob, &s); err != nil {
		return domain.ChatSession{}, fmt.Errorf("unmarshal session %s: %w", id, err)
	}
	return s, nil
}

// Latest returns the user's most recently started session.
// Returns domain.ErrSessionNotFound when the user has no sessions.
func (r *Repo) Latest(ctx context.Context, username string) (domain.ChatSession, error) {
	ids, err := r.store.ZRevRange(ctx, r.indexKey(username), 0, 0)
	if err != nil {
		return domain.ChatSession{}, fmt.Errorf("latest session for %s: %w", username, err)
	}
	if len(ids) == 0 {
		return domain.ChatSession{}, domain.ErrSessionNotFound
	}
	return r.Get(ctx, ids[0])
}

// List returns the user's sessions newest-first.
func (r *Repo) List(ctx context.Context, username string) ([]domain.ChatSession, error) {
	ids, err := r.store.ZRevRange(ctx, r.indexKey(username), 0, -1)
	if err != nil {
		return nil, fmt.Errorf("list sessions for %s: %w", username, err)
	}

	sessions := make([]domain.ChatSession, 0, len(ids))
	for _, id := range ids {
		s, err := r.Get(ctx, id)
		if err != nil {
			// A dangling index entry is skipped, not fatal.
			if errors.Is(err, domain.ErrSessionNotFound) {
				continue
			}
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, nil
}
