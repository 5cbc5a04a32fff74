package handler_test

import (
	"context"
	"time"

	"github.com/abelbrown/skydeck/internal/coord"
	"github.com/abelbrown/skydeck/internal/model"
	"github.com/abelbrown/skydeck/internal/tutor"
)

type mockFeedService struct {
	states    map[string]coord.State
	refreshFn func(name string) bool
}

func (m *mockFeedService) Snapshot() []coord.State {
	var out []coord.State
	for _, name := range model.FeedNames {
		if s, ok := m.states[name]; ok {
			out = append(out, s)
		}
	}
	return out
}

func (m *mockFeedService) State(name string) (coord.State, bool) {
	s, ok := m.states[name]
	return s, ok
}

func (m *mockFeedService) Refresh(name string) bool {
	if m.refreshFn != nil {
		return m.refreshFn(name)
	}
	return true
}

func (m *mockFeedService) Metrics(now time.Time) []model.Metric {
	return []model.Metric{{Feed: "moon", Name: "age_days", Value: 3.5, At: now}}
}

type mockChatService struct {
	sendFn    func(ctx context.Context, owner, text string, mode tutor.Mode) (model.ChatSession, tutor.Reply, error)
	clearFn   func(ctx context.Context, owner string) (model.ChatSession, error)
	historyFn func(ctx context.Context, owner string) ([]model.ChatSession, error)
	openFn    func(ctx context.Context, owner, id string) (model.ChatSession, error)
}

func (m *mockChatService) Active(ctx context.Context, owner string) model.ChatSession {
	return model.ChatSession{ID: "active", Owner: owner, Title: tutor.DefaultTitle}
}

func (m *mockChatService) Send(ctx context.Context, owner, text string, mode tutor.Mode) (model.ChatSession, tutor.Reply, error) {
	if m.sendFn != nil {
		return m.sendFn(ctx, owner, text, mode)
	}
	return model.ChatSession{}, tutor.Reply{}, nil
}

func (m *mockChatService) Clear(ctx context.Context, owner string) (model.ChatSession, error) {
	if m.clearFn != nil {
		return m.clearFn(ctx, owner)
	}
	return model.ChatSession{}, nil
}

func (m *mockChatService) History(ctx context.Context, owner string) ([]model.ChatSession, error) {
	if m.historyFn != nil {
		return m.historyFn(ctx, owner)
	}
	return nil, nil
}

func (m *mockChatService) Open(ctx context.Context, owner, id string) (model.ChatSession, error) {
	if m.openFn != nil {
		return m.openFn(ctx, owner, id)
	}
	return model.ChatSession{}, nil
}

type mockUserService struct {
	saveEventFn   func(ctx context.Context, owner string, e model.SavedEvent) (model.SavedEvent, error)
	listEventsFn  func(ctx context.Context, owner string) ([]model.SavedEvent, error)
	deleteEventFn func(ctx context.Context, owner, id string) error
	profileFn     func(ctx context.Context, owner string) (model.Profile, error)
	saveProfileFn func(ctx context.Context, owner string, p model.Profile) (model.Profile, error)
}

func (m *mockUserService) SaveEvent(ctx context.Context, owner string, e model.SavedEvent) (model.SavedEvent, error) {
	if m.saveEventFn != nil {
		return m.saveEventFn(ctx, owner, e)
	}
	return e, nil
}

func (m *mockUserService) ListEvents(ctx context.Context, owner string) ([]model.SavedEvent, error) {
	if m.listEventsFn != nil {
		return m.listEventsFn(ctx, owner)
	}
	return nil, nil
}

func (m *mockUserService) DeleteEvent(ctx context.Context, owner, id string) error {
	if m.deleteEventFn != nil {
		return m.deleteEventFn(ctx, owner, id)
	}
	return nil
}

func (m *mockUserService) Profile(ctx context.Context, owner string) (model.Profile, error) {
	if m.profileFn != nil {
		return m.profileFn(ctx, owner)
	}
	return model.Profile{Owner: owner}, nil
}

func (m *mockUserService) SaveProfile(ctx context.Context, owner string, p model.Profile) (model.Profile, error) {
	if m.saveProfileFn != nil {
		return m.saveProfileFn(ctx, owner, p)
	}
	return p, nil
}

type mockStargazingService struct {
	upcomingFn func(ctx context.Context) ([]model.StargazingEvent, error)
	addFn      func(ctx context.Context, owner string, e model.StargazingEvent) (model.StargazingEvent, error)
}

func (m *mockStargazingService) UpcomingStargazing(ctx context.Context) ([]model.StargazingEvent, error) {
	if m.upcomingFn != nil {
		return m.upcomingFn(ctx)
	}
	return nil, nil
}

func (m *mockStargazingService) AddStargazingEvent(ctx context.Context, owner string, e model.StargazingEvent) (model.StargazingEvent, error) {
	if m.addFn != nil {
		return m.addFn(ctx, owner, e)
	}
	return e, nil
}
