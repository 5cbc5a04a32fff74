package model

// Source tags a record with where its data came from.
type Source string

const (
	SourceLive     Source = "live"
	SourceFallback Source = "fallback"
)

// Kind identifies the variant of a Record.
type Kind string

const (
	KindStationPosition Kind = "station_position"
	KindCrewRoster      Kind = "crew_roster"
	KindNearEarthObject Kind = "near_earth_object"
	KindLaunchEvent     Kind = "launch_event"
	KindWeatherSnapshot Kind = "weather_snapshot"
	KindChatMessage     Kind = "chat_message"
	KindAstronomyEvent  Kind = "astronomy_event"
	KindSpaceWeather    Kind = "space_weather"
)

// Feed names. These are the keys the coordinator, API and UI share.
const (
	FeedStation          = "station"
	FeedCrew             = "crew"
	FeedNEO              = "neo"
	FeedLaunchesUpcoming = "launches-upcoming"
	FeedLaunchesRecent   = "launches-recent"
	FeedWeather          = "weather"
	FeedEvents           = "events"
	FeedSpaceWeather     = "space-weather"
)

// FeedNames lists every feed in display order.
var FeedNames = []string{
	FeedStation,
	FeedCrew,
	FeedLaunchesUpcoming,
	FeedLaunchesRecent,
	FeedNEO,
	FeedWeather,
	FeedSpaceWeather,
	FeedEvents,
}
