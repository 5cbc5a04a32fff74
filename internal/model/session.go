package model

import (
	"encoding/json"
	"time"
)

// ChatSession is a tutor conversation owned by one user.
// ID is fixed at creation; Messages only grow through Append.
type ChatSession struct {
	ID        string        `json:"id"`
	Owner     string        `json:"owner"`
	Title     string        `json:"title"`
	Messages  []ChatMessage `json:"messages"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// Append adds messages to the end of the transcript and bumps UpdatedAt.
func (s *ChatSession) Append(at time.Time, msgs ...ChatMessage) {
	s.Messages = append(s.Messages, msgs...)
	s.UpdatedAt = at
}

// Clone returns a copy whose Messages slice does not alias s.
func (s ChatSession) Clone() ChatSession {
	msgs := make([]ChatMessage, len(s.Messages))
	copy(msgs, s.Messages)
	s.Messages = msgs
	return s
}

// SavedEvent is an event a user bookmarked (launch, shower, close approach).
type SavedEvent struct {
	ID        string          `json:"id"`
	Owner     string          `json:"owner"`
	Type      string          `json:"type"`
	Title     string          `json:"title"`
	Date      time.Time       `json:"date"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// Profile holds per-user preferences.
type Profile struct {
	ID           string    `json:"id"`
	Owner        string    `json:"owner"`
	DisplayName  string    `json:"display_name"`
	LocationName string    `json:"location_name,omitempty"`
	Latitude     *float64  `json:"latitude,omitempty"`
	Longitude    *float64  `json:"longitude,omitempty"`
	DarkMode     bool      `json:"dark_mode"`
	Units        string    `json:"units,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
