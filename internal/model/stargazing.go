package model

import "time"

// UpcomingStargazingLimit is how many organized events the dashboard lists.
const UpcomingStargazingLimit = 6

// StargazingEvent is an organized observing night at a named site. Unlike
// SavedEvent it is shared by everyone rather than owned by one user.
type StargazingEvent struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	EventType    string    `json:"event_type,omitempty"`
	Date         time.Time `json:"date"`
	LocationName string    `json:"location_name"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	Organizer    string    `json:"organizer,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
