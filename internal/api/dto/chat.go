package dto

import (
	"github.com/abelbrown/skydeck/internal/model"
	"github.com/abelbrown/skydeck/internal/tutor"
)

type ChatRequest struct {
	Message string `json:"message" binding:"required"`
	Mode    string `json:"mode"`
}

type ChatResponse struct {
	Session model.ChatSession `json:"session"`
	Reply   tutor.Reply       `json:"reply"`
	Mode    string            `json:"mode"`
}

// SessionSummary is a list entry without the transcript.
type SessionSummary struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Messages int    `json:"messages"`
	Updated  string `json:"updated_at"`
}

func ToSessionSummaries(sessions []model.ChatSession) []SessionSummary {
	out := make([]SessionSummary, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, SessionSummary{
			ID:       s.ID,
			Title:    s.Title,
			Messages: len(s.Messages),
			Updated:  s.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	return out
}
