package app

import (
	"fmt"
	"sync"
)

// Themes the dashboard understands.
const (
	ThemeDark  = "dark"
	ThemeLight = "light"
)

// Session holds per-process user context: who is using skydeck and how
// they like it rendered. It is created by App and handed to consumers.
type Session struct {
	mu    sync.RWMutex
	owner string
	theme string
}

// NewSession creates a Session. An empty owner is anonymous; an unknown
// theme falls back to dark.
func NewSession(owner, theme string) *Session {
	s := &Session{owner: owner, theme: ThemeDark}
	_ = s.SetTheme(theme)
	return s
}

// Owner returns the current owner id. Empty means anonymous.
func (s *Session) Owner() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.owner
}

// SetOwner switches the signed-in owner.
func (s *Session) SetOwner(owner string) {
	s.mu.Lock()
	s.owner = owner
	s.mu.Unlock()
}

// Anonymous reports whether no owner is set.
func (s *Session) Anonymous() bool {
	return s.Owner() == ""
}

// Theme returns ThemeDark or ThemeLight.
func (s *Session) Theme() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.theme
}

// SetTheme sets the theme. Empty leaves it unchanged.
func (s *Session) SetTheme(theme string) error {
	switch theme {
	case "":
		return nil
	case ThemeDark, ThemeLight:
		s.mu.Lock()
		s.theme = theme
		s.mu.Unlock()
		return nil
	default:
		return fmt.Errorf("unknown theme %q", theme)
	}
}

// ToggleTheme flips between dark and light and returns the new theme.
func (s *Session) ToggleTheme() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.theme == ThemeDark {
		s.theme = ThemeLight
	} else {
		s.theme = ThemeDark
	}
	return s.theme
}
