// Package model defines the records shared by feeds, the scheduler, the
// store and every view.
package model

import "time"

// Record is one normalized feed record. The concrete type is one of the
// variants below; switch on Kind() or use a type switch.
type Record interface {
	Kind() Kind
	RecordID() string
	Stamp() time.Time
	Origin() Source
}

// Meta holds the fields every record variant carries.
type Meta struct {
	ID     string    `json:"id"`
	Time   time.Time `json:"time"`
	Source Source    `json:"source,omitempty"`
}

func (m Meta) RecordID() string { return m.ID }
func (m Meta) Stamp() time.Time { return m.Time }
func (m Meta) Origin() Source { return m.Source }

// StationPosition is the ground-track point of the orbiting station.
type StationPosition struct {
	Meta
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	AltitudeKm  float64 `json:"altitude_km"`
	VelocityKmh float64 `json:"velocity_kmh"`
	Visibility  string  `json:"visibility"`
}

func (StationPosition) Kind() Kind { return KindStationPosition }

// CrewMember is one person aboard the tracked craft.
type CrewMember struct {
	Meta
	Name        string `json:"name"`
	Craft       string `json:"craft"`
	Role        string `json:"role,omitempty"`
	Nationality string `json:"nationality,omitempty"`
}

func (CrewMember) Kind() Kind { return KindCrewRoster }

// NearEarthObject is a close approach reported for a given day.
// Meta.Time is the close-approach instant.
type NearEarthObject struct {
	Meta
	Name           string  `json:"name"`
	DiameterMinKm  float64 `json:"diameter_min_km"`
	DiameterMaxKm  float64 `json:"diameter_max_km"`
	MissDistanceKm float64 `json:"miss_distance_km"`
	VelocityKmh    float64 `json:"velocity_kmh,omitempty"`
	Hazardous      bool    `json:"hazardous"`
}

func (NearEarthObject) Kind() Kind { return KindNearEarthObject }

// LaunchLinks are optional media links for a launch.
type LaunchLinks struct {
	Webcast   string `json:"webcast,omitempty"`
	Article   string `json:"article,omitempty"`
	Wikipedia string `json:"wikipedia,omitempty"`
}

// LaunchEvent is a scheduled or past launch. Meta.Time is the launch date (UTC).
type LaunchEvent struct {
	Meta
	Name      string      `json:"name"`
	Rocket    string      `json:"rocket"`
	Launchpad string      `json:"launchpad"`
	Locality  string      `json:"locality,omitempty"`
	Region    string      `json:"region,omitempty"`
	Details   string      `json:"details,omitempty"`
	Links     LaunchLinks `json:"links"`
	Success   *bool       `json:"success,omitempty"`
	Upcoming  bool        `json:"upcoming"`
}

func (LaunchEvent) Kind() Kind { return KindLaunchEvent }

// WeatherSnapshot is current conditions at the observer's location.
type WeatherSnapshot struct {
	Meta
	TemperatureC  float64 `json:"temperature_c"`
	HumidityPct   float64 `json:"humidity_pct"`
	CloudCoverPct float64 `json:"cloud_cover_pct"`
	VisibilityKm  float64 `json:"visibility_km"`
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	PlaceName     string  `json:"place_name,omitempty"`
}

func (WeatherSnapshot) Kind() Kind { return KindWeatherSnapshot }

// AstronomyEvent is a calendar entry (meteor shower, eclipse, ...).
// Meta.Time is the event peak.
type AstronomyEvent struct {
	Meta
	Title       string `json:"title"`
	Category    string `json:"category"`
	Description string `json:"description,omitempty"`
	Visibility  string `json:"visibility,omitempty"`
	Link        string `json:"link,omitempty"`
}

func (AstronomyEvent) Kind() Kind { return KindAstronomyEvent }

// SpaceWeatherReading is a geomagnetic activity sample.
type SpaceWeatherReading struct {
	Meta
	KpIndex      float64 `json:"kp_index"`
	SolarWindKms float64 `json:"solar_wind_kms,omitempty"`
}

func (SpaceWeatherReading) Kind() Kind { return KindSpaceWeather }

// Role is the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is one turn in a tutor conversation.
type ChatMessage struct {
	Meta
	Role Role   `json:"role"`
	Text string `json:"text"`
}

func (ChatMessage) Kind() Kind { return KindChatMessage }

// Metric is a derived value keyed by (Feed, Name). Never persisted.
type Metric struct {
	Feed  string    `json:"feed"`
	Name  string    `json:"name"`
	Value float64   `json:"value"`
	Label string    `json:"label,omitempty"`
	At    time.Time `json:"at"`
}

// Key returns the "feed/name" identity of the metric.
func (m Metric) Key() string {
	return m.Feed + "/" + m.Name
}
