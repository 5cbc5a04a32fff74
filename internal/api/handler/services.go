package handler

import (
	"context"
	"time"

	"github.com/abelbrown/skydeck/internal/coord"
	"github.com/abelbrown/skydeck/internal/model"
	"github.com/abelbrown/skydeck/internal/tutor"
)

// FeedService is the part of the coordinator the API reads and triggers.
type FeedService interface {
	Snapshot() []coord.State
	State(name string) (coord.State, bool)
	Refresh(name string) bool
	Metrics(now time.Time) []model.Metric
}

// ChatService is implemented by *tutor.Service.
type ChatService interface {
	Active(ctx context.Context, owner string) model.ChatSession
	Send(ctx context.Context, owner, text string, mode tutor.Mode) (model.ChatSession, tutor.Reply, error)
	Clear(ctx context.Context, owner string) (model.ChatSession, error)
	History(ctx context.Context, owner string) ([]model.ChatSession, error)
	Open(ctx context.Context, owner, id string) (model.ChatSession, error)
}

// UserService is implemented by *app.App.
type UserService interface {
	SaveEvent(ctx context.Context, owner string, e model.SavedEvent) (model.SavedEvent, error)
	ListEvents(ctx context.Context, owner string) ([]model.SavedEvent, error)
	DeleteEvent(ctx context.Context, owner, id string) error
	Profile(ctx context.Context, owner string) (model.Profile, error)
	SaveProfile(ctx context.Context, owner string, p model.Profile) (model.Profile, error)
}

// StargazingService is implemented by *app.App.
type StargazingService interface {
	UpcomingStargazing(ctx context.Context) ([]model.StargazingEvent, error)
	AddStargazingEvent(ctx context.Context, owner string, e model.StargazingEvent) (model.StargazingEvent, error)
}
