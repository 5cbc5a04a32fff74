// Package store persists tutor sessions, saved events, profiles and the
// shared stargazing event listings.
//
// Two backends implement Store: SQLite (default, also used in memory for
// tests and anonymous runs) and Redis. Writes are last-writer-wins; there
// is no optimistic concurrency.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/abelbrown/skydeck/internal/model"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// Store is the persistence collaborator.
type Store interface {
	CreateSession(ctx context.Context, s model.ChatSession) error
	GetSession(ctx context.Context, id string) (model.ChatSession, error)
	// ListSessions returns the owner's sessions, most recently updated first.
	ListSessions(ctx context.Context, owner string) ([]model.ChatSession, error)
	// UpdateSession replaces a stored session. ErrNotFound if it does not exist.
	UpdateSession(ctx context.Context, s model.ChatSession) error
	DeleteSession(ctx context.Context, id string) error

	SaveEvent(ctx context.Context, e model.SavedEvent) error
	// ListEvents returns the owner's saved events ordered by date ascending.
	ListEvents(ctx context.Context, owner string) ([]model.SavedEvent, error)
	DeleteEvent(ctx context.Context, owner, id string) error

	GetProfile(ctx context.Context, owner string) (model.Profile, error)
	UpsertProfile(ctx context.Context, p model.Profile) error

	SaveStargazingEvent(ctx context.Context, e model.StargazingEvent) error
	// ListStargazingEvents returns events dated at or after from, soonest
	// first. limit <= 0 returns all of them.
	ListStargazingEvents(ctx context.Context, from time.Time, limit int) ([]model.StargazingEvent, error)
	DeleteStargazingEvent(ctx context.Context, id string) error

	Close() error
}

// Options selects and configures a backend.
type Options struct {
	Backend  string // "sqlite", "memory" or "redis"
	Path     string
	RedisURL string
}

// Open returns the backend named by opts.Backend.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case "", "sqlite":
		return OpenSQLite(opts.Path)
	case "memory":
		return OpenSQLite(":memory:")
	case "redis":
		return OpenRedis(ctx, opts.RedisURL)
	default:
		return nil, fmt.Errorf("unknown store backend %q", opts.Backend)
	}
}
