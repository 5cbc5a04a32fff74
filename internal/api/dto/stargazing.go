package dto

import (
	"time"

	"github.com/abelbrown/skydeck/internal/model"
)

type StargazingEventRequest struct {
	Title        string    `json:"title" binding:"required"`
	Description  string    `json:"description"`
	EventType    string    `json:"event_type"`
	Date         time.Time `json:"date" binding:"required"`
	LocationName string    `json:"location_name" binding:"required"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	Organizer    string    `json:"organizer"`
}

func (r StargazingEventRequest) ToModel() model.StargazingEvent {
	return model.StargazingEvent{
		Title:        r.Title,
		Description:  r.Description,
		EventType:    r.EventType,
		Date:         r.Date,
		LocationName: r.LocationName,
		Latitude:     r.Latitude,
		Longitude:    r.Longitude,
		Organizer:    r.Organizer,
	}
}
