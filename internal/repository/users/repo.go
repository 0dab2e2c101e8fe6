// Package users persists user accounts as hashes in the key-value store.
package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/techvocates/nyaya/internal/db"
	"github.com/techvocates/nyaya/internal/domain"
)

// store is the consumer interface for user persistence (ISP).
type store interface {
	HSetNX(ctx context.Context, key, field, value string) (bool, error)
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
}

// Repo implements usecase/auth.UserRepository.
type Repo struct {
	store  store
	prefix string
}

// New creates a user repository. Keys are namespaced under prefix.
func New(s store, prefix string) *Repo {
	return &Repo{store: s, prefix: prefix}
}

func (r *Repo) userKey(username string) string {
	return r.prefix + "users:" + username
}

// Create stores a new user. The HSETNX on the username field is the
// uniqueness guard: a second registration for the same name loses the race.
func (r *Repo) Create(ctx context.Context, u domain.User) error {
	key := r.userKey(u.Username)

	created, err := r.store.HSetNX(ctx, key, "username", u.Username)
	if err != nil {
		return fmt.Errorf("hsetnx user %s: %w", u.Username, err)
	}
	if !created {
		return domain.ErrUserExists
	}

	fields := map[string]string{
		"password_hash": u.PasswordHash,
		"created_at":    u.CreatedAt.UTC().Format(time.RFC3339),
	}
	if err := r.store.HSet(ctx, key, fields); err != nil {
		return fmt.Errorf("hset user %s: %w", u.Username, err)
	}
	return nil
}

// Get retrieves a user by username. Returns db.ErrKeyNotFound when absent.
func (r *Repo) Get(ctx context.Context, username string) (domain.User, error) {
	m, err := r.store.HGetAll(ctx, r.userKey(username))
	if err != nil && !errors.Is(err, db.ErrKeyNotFound) {
		return domain.User{}, fmt.Errorf("hgetall user %s: %w", username, err)
	}
	if len(m) == 0 {
		return domain.User{}, db.ErrKeyNotFound
	}

	u := domain.User{
		Username:     m["username"],
		PasswordHash: m["password_hash"],
	}
	if raw := m["created_at"]; raw != "" {
		if t, perr := time.Parse(time.RFC3339, raw); perr == nil {
			u.CreatedAt = t
		}
	}
	return u, nil
}
