package dto

import (
	"time"

	"github.com/abelbrown/skydeck/internal/coord"
	"github.com/abelbrown/skydeck/internal/derive"
	"github.com/abelbrown/skydeck/internal/model"
)

type FeedResponse struct {
	Feed          string         `json:"feed"`
	Loading       bool           `json:"loading"`
	Fetching      bool           `json:"fetching"`
	UsingFallback bool           `json:"using_fallback"`
	LastUpdated   *time.Time     `json:"last_updated,omitempty"`
	Error         string         `json:"error,omitempty"`
	ErrorKind     string         `json:"error_kind,omitempty"`
	Attempts      int            `json:"attempts"`
	Failures      int            `json:"failures"`
	Records       []model.Record `json:"records"`
	Metrics       []model.Metric `json:"metrics,omitempty"`
}

func ToFeedResponse(s coord.State, now time.Time) FeedResponse {
	resp := FeedResponse{
		Feed:          s.Feed,
		Loading:       s.Loading,
		Fetching:      s.Fetching,
		UsingFallback: s.UsingFallback,
		Error:         s.ErrorText(),
		Attempts:      s.Attempts,
		Failures:      s.Failures,
		Records:       s.Data,
	}
	if resp.Records == nil {
		resp.Records = []model.Record{}
	}
	if s.Err != nil {
		resp.ErrorKind = string(s.Err.Kind)
	}
	if !s.LastUpdated.IsZero() {
		t := s.LastUpdated
		resp.LastUpdated = &t
	}
	if s.HasData() {
		resp.Metrics = derive.Metrics(s.Feed, s.Data, now)
	}
	return resp
}

type RefreshResponse struct {
	Feed   string `json:"feed"`
	Status string `json:"status"`
}
