package ui

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/abelbrown/skydeck/internal/app"
	"github.com/abelbrown/skydeck/internal/coord"
	"github.com/abelbrown/skydeck/internal/model"
	"github.com/abelbrown/skydeck/internal/otel"
	"github.com/abelbrown/skydeck/internal/tutor"
)

// AppConfig holds the command functions and context the dashboard needs.
// App never touches the coordinator or the tutor directly; it receives
// their results as messages.
type AppConfig struct {
	LoadSnapshot func() tea.Cmd
	Refresh      func(feed string) tea.Cmd
	RefreshAll   func() tea.Cmd
	Ask          func(question string, mode tutor.Mode) tea.Cmd

	Events  *otel.RingBuffer
	Log     *otel.Logger
	Session *app.Session
	Now     func() time.Time
}

// App is the root Bubble Tea model.
type App struct {
	cfg AppConfig

	states map[string]coord.State
	order  []string
	focus  int

	spinner spinner.Model
	input   textinput.Model
	asking  bool
	waiting bool
	mode    tutor.Mode
	answer  string

	notice    string
	showDebug bool
	now       time.Time
	width     int
	height    int
	ready     bool
}

// NewApp creates the dashboard.
func NewApp(cfg AppConfig) App {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Session == nil {
		cfg.Session = app.NewSession("", app.ThemeDark)
	}

	s := spinner.New()
	s.Spinner = spinner.Dot

	ti := textinput.New()
	ti.Placeholder = "Ask about space..."
	ti.CharLimit = 500

	return App{
		cfg:     cfg,
		states:  make(map[string]coord.State),
		order:   slices.Clone(model.FeedNames),
		spinner: s,
		input:   ti,
		mode:    tutor.ModeSimple,
		now:     cfg.Now(),
	}
}

// countdownTick schedules the next one-second countdown update.
func countdownTick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return CountdownTick{At: t}
	})
}

// Init loads the initial snapshot and starts the spinner and the countdown.
func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{a.spinner.Tick, countdownTick()}
	if a.cfg.LoadSnapshot != nil {
		cmds = append(cmds, a.cfg.LoadSnapshot())
	}
	return tea.Batch(cmds...)
}

// Update handles messages and returns the updated model and any commands.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if otel.TraceEnabled() {
		a.cfg.Log.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindMsgReceived, Comp: "ui", Msg: fmt.Sprintf("%T", msg)})
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if a.asking {
			return a.handleAskKey(msg)
		}
		return a.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.ready = true
		return a, nil

	case SnapshotLoaded:
		for _, s := range msg.States {
			a.setState(s)
		}
		return a, nil

	case FeedUpdated:
		a.setState(msg.State)
		return a, nil

	case RefreshRequested:
		if !msg.Accepted {
			a.notice = FeedTitle(msg.Feed) + " is already refreshing"
			return a, nil
		}
		if s, ok := a.states[msg.Feed]; ok {
			s.Fetching = true
			a.states[msg.Feed] = s
		}
		return a, nil

	case CountdownTick:
		a.now = msg.At
		return a, countdownTick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case AnswerReady:
		a.waiting = false
		if msg.Err != nil {
			a.answer = msg.Err.Error()
		} else {
			a.answer = msg.Reply.Text
		}
		return a, nil
	}

	return a, nil
}

func (a *App) setState(s coord.State) {
	if !slices.Contains(a.order, s.Feed) {
		a.order = append(a.order, s.Feed)
	}
	a.states[s.Feed] = s
}

// handleKeyMsg processes keyboard input on the dashboard.
func (a App) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a.notice = ""
	a.cfg.Log.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindKeyPress, Comp: "ui", Msg: msg.String()})

	switch {
	case key.Matches(msg, keys.Quit):
		return a, tea.Quit

	case key.Matches(msg, keys.Focus):
		if n := len(a.visible()); n > 0 {
			a.focus = (a.focus + 1) % n
		}
		return a, nil

	case key.Matches(msg, keys.FocusBack):
		if n := len(a.visible()); n > 0 {
			a.focus = (a.focus - 1 + n) % n
		}
		return a, nil

	case key.Matches(msg, keys.Refresh):
		feed := a.Focused()
		if feed != "" && a.cfg.Refresh != nil {
			return a, a.cfg.Refresh(feed)
		}
		return a, nil

	case key.Matches(msg, keys.RefreshAll):
		if a.cfg.RefreshAll != nil {
			a.notice = "Refreshing all feeds"
			return a, a.cfg.RefreshAll()
		}
		return a, nil

	case key.Matches(msg, keys.Theme):
		a.cfg.Session.ToggleTheme()
		return a, nil

	case key.Matches(msg, keys.Mode):
		if a.mode == tutor.ModeSimple {
			a.mode = tutor.ModeDetailed
		} else {
			a.mode = tutor.ModeSimple
		}
		return a, nil

	case key.Matches(msg, keys.Ask):
		if a.cfg.Ask == nil {
			return a, nil
		}
		a.asking = true
		a.input.Reset()
		cmd := a.input.Focus()
		return a, cmd

	case key.Matches(msg, keys.Debug):
		a.showDebug = !a.showDebug
		return a, nil
	}

	return a, nil
}

// handleAskKey routes keys to the question input.
func (a App) handleAskKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Escape):
		a.asking = false
		a.input.Blur()
		return a, nil

	case key.Matches(msg, keys.Submit):
		q := strings.TrimSpace(a.input.Value())
		a.asking = false
		a.input.Blur()
		if q == "" || a.waiting {
			return a, nil
		}
		a.waiting = true
		a.answer = ""
		return a, a.cfg.Ask(q, a.mode)
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

// visible returns the feeds that have a state, in display order.
func (a App) visible() []string {
	var out []string
	for _, name := range a.order {
		if _, ok := a.states[name]; ok {
			out = append(out, name)
		}
	}
	return out
}

// View renders the UI.
func (a App) View() string {
	if !a.ready {
		return "Loading..."
	}
	palette := PaletteFor(a.cfg.Session.Theme())

	if a.showDebug {
		return debugOverlay(a.cfg.Events, a.Focused(), a.width, a.height-1, a.now) + "\n" + debugStatusBar(palette, a.width)
	}

	sections := []string{a.renderHeader()}
	sections = append(sections, a.renderPanels(palette))
	if box := a.renderTutor(palette); box != "" {
		sections = append(sections, box)
	}
	if a.notice != "" {
		sections = append(sections, FairStyle.Render(fit(a.notice, a.width)))
	}
	if line := a.recentEvent(); line != "" {
		sections = append(sections, MutedStyle.Render(fit(line, a.width)))
	}
	sections = append(sections, a.renderStatusBar(palette))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (a App) renderHeader() string {
	title := Header.Render("SKYDECK")
	info := fmt.Sprintf(" %s · %s", a.now.Local().Format("Mon Jan 2 15:04:05"), lunarLine(a.now))
	return title + MutedStyle.Render(fit(info, a.width-lipgloss.Width(title)))
}

// renderPanels lays feeds out in two columns on wide terminals.
func (a App) renderPanels(palette Palette) string {
	feeds := a.visible()
	if len(feeds) == 0 {
		return palette.Placeholder.Render(a.spinner.View() + " Waiting for feeds...")
	}

	cols := 1
	if a.width >= 80 {
		cols = 2
	}
	colWidth := a.width / cols

	var rows []string
	for i := 0; i < len(feeds); i += cols {
		var cells []string
		for j := i; j < i+cols && j < len(feeds); j++ {
			cells = append(cells, renderPanel(panelView{
				state:   a.states[feeds[j]],
				now:     a.now,
				spinner: a.spinner.View(),
				width:   colWidth,
				focused: j == a.focus,
				palette: palette,
			}))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (a App) renderTutor(palette Palette) string {
	switch {
	case a.asking:
		return TutorStyle.Width(a.width).Render(a.mode.Label() + "\n" + a.input.View())
	case a.waiting:
		return TutorStyle.Width(a.width).Render(a.spinner.View() + " Thinking...")
	case a.answer != "":
		return TutorStyle.Width(a.width).Render(palette.Text.Render(a.answer))
	}
	return ""
}

// recentEvent renders the newest event from the ring.
func (a App) recentEvent() string {
	if a.cfg.Events == nil {
		return ""
	}
	last := a.cfg.Events.Last(1)
	if len(last) == 0 {
		return ""
	}
	return "last event " + strings.TrimSpace(eventLine(last[0], a.now))
}

func (a App) renderStatusBar(palette Palette) string {
	hint := func(k, desc string) string {
		return StatusBarKey.Render(k) + StatusBarText.Render(":"+desc)
	}
	parts := []string{
		hint("tab", "focus"),
		hint("r", "refresh"),
		hint("R", "all"),
		hint("/", "ask"),
		hint("m", string(a.mode)),
		hint("t", a.cfg.Session.Theme()),
		hint("D", "debug"),
		hint("q", "quit"),
	}
	return palette.StatusBar.Width(a.width).Render(strings.Join(parts, "  "))
}

// Focused returns the feed under focus, or "" before any state arrives.
func (a App) Focused() string {
	feeds := a.visible()
	if a.focus < 0 || a.focus >= len(feeds) {
		return ""
	}
	return feeds[a.focus]
}

// State returns the dashboard's copy of a feed's state (for testing).
func (a App) State(feed string) (coord.State, bool) {
	s, ok := a.states[feed]
	return s, ok
}

// Asking reports whether the question input is open.
func (a App) Asking() bool {
	return a.asking
}

// Answer returns the last tutor answer shown.
func (a App) Answer() string {
	return a.answer
}

// Mode returns the tutor mode used for the next question.
func (a App) Mode() tutor.Mode {
	return a.mode
}
