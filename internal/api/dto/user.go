package dto

import (
	"encoding/json"
	"time"

	"github.com/abelbrown/skydeck/internal/model"
)

type SaveEventRequest struct {
	Type    string          `json:"type"`
	Title   string          `json:"title" binding:"required"`
	Date    time.Time       `json:"date"`
	Payload json.RawMessage `json:"payload"`
}

func (r SaveEventRequest) ToModel() model.SavedEvent {
	return model.SavedEvent{
		Type:    r.Type,
		Title:   r.Title,
		Date:    r.Date,
		Payload: r.Payload,
	}
}

type ProfileRequest struct {
	DisplayName  string   `json:"display_name"`
	LocationName string   `json:"location_name"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
	DarkMode     bool     `json:"dark_mode"`
	Units        string   `json:"units"`
}

func (r ProfileRequest) ToModel() model.Profile {
	return model.Profile{
		DisplayName:  r.DisplayName,
		LocationName: r.LocationName,
		Latitude:     r.Latitude,
		Longitude:    r.Longitude,
		DarkMode:     r.DarkMode,
		Units:        r.Units,
	}
}
