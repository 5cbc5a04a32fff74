package ui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/abelbrown/skydeck/internal/app"
	"github.com/abelbrown/skydeck/internal/coord"
	"github.com/abelbrown/skydeck/internal/tutor"
)

// ConfigFor builds the dashboard's command functions around a.
func ConfigFor(ctx context.Context, a *app.App) AppConfig {
	return AppConfig{
		LoadSnapshot: func() tea.Cmd {
			return func() tea.Msg {
				return SnapshotLoaded{States: a.Coord.Snapshot()}
			}
		},
		Refresh: func(feed string) tea.Cmd {
			return func() tea.Msg {
				return RefreshRequested{Feed: feed, Accepted: a.Coord.Refresh(feed)}
			}
		},
		RefreshAll: func() tea.Cmd {
			return func() tea.Msg {
				// Results arrive one by one as FeedUpdated.
				_ = a.Coord.RefreshAll(ctx)
				return nil
			}
		},
		Ask: func(question string, mode tutor.Mode) tea.Cmd {
			return func() tea.Msg {
				_, reply, err := a.Tutor.Send(ctx, a.Session.Owner(), question, mode)
				return AnswerReady{Question: question, Reply: reply, Err: err}
			}
		},
		Events:  a.Ring,
		Log:     a.Events,
		Session: a.Session,
	}
}

// Run starts polling and the dashboard, and blocks until the user quits.
func Run(ctx context.Context, a *app.App) error {
	program := tea.NewProgram(NewApp(ConfigFor(ctx, a)), tea.WithAltScreen(), tea.WithContext(ctx))

	// Updates that arrive after the program exits are dropped by Send.
	a.Coord.OnUpdate(func(s coord.State) {
		program.Send(FeedUpdated{State: s})
	})
	a.Start(ctx)

	if _, err := program.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("run dashboard: %w", err)
	}
	return nil
}
