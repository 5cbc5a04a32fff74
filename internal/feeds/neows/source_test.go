package neows

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/abelbrown/skydeck/internal/fetch"
	"github.com/abelbrown/skydeck/internal/model"
)

const sampleFeed = `{
  "element_count": 5,
  "near_earth_objects": {
    "2025-03-02": [
      {"id":"1","name":"(2025 AA)","is_potentially_hazardous_asteroid":false,
       "estimated_diameter":{"kilometers":{"estimated_diameter_min":0.1,"estimated_diameter_max":0.2}},
       "close_approach_data":[{"close_approach_date":"2025-03-02","epoch_date_close_approach":1740916800000,
         "relative_velocity":{"kilometers_per_hour":"45000.5"},"miss_distance":{"kilometers":"7000000.25"}}]},
      {"id":"2","name":"(2025 AB)","is_potentially_hazardous_asteroid":true,
       "estimated_diameter":{"kilometers":{"estimated_diameter_min":0.5,"estimated_diameter_max":1.1}},
       "close_approach_data":[{"close_approach_date":"2025-03-02","epoch_date_close_approach":1740880800000,
         "relative_velocity":{"kilometers_per_hour":"30000"},"miss_distance":{"kilometers":"1000000"}}]},
      {"id":"3","name":"(2025 AC)","is_potentially_hazardous_asteroid":false,
       "estimated_diameter":{"kilometers":{"estimated_diameter_min":0.01,"estimated_diameter_max":0.02}},
       "close_approach_data":[{"close_approach_date":"2025-03-02","epoch_date_close_approach":1740934800000,
         "relative_velocity":{"kilometers_per_hour":"12000"},"miss_distance":{"kilometers":"300000"}}]},
      {"id":"4","name":"(2025 AD)","is_potentially_hazardous_asteroid":false,
       "estimated_diameter":{"kilometers":{"estimated_diameter_min":0.03,"estimated_diameter_max":0.04}},
       "close_approach_data":[{"close_approach_date":"2025-03-02","epoch_date_close_approach":1740952800000,
         "relative_velocity":{"kilometers_per_hour":"9000"},"miss_distance":{"kilometers":"800000"}}]}
    ],
    "2025-03-01": [
      {"id":"5","name":"(2025 AE)","is_potentially_hazardous_asteroid":false,
       "estimated_diameter":{"kilometers":{"estimated_diameter_min":0.2,"estimated_diameter_max":0.3}},
       "close_approach_data":[{"close_approach_date":"2025-03-01","epoch_date_close_approach":1740830400000,
         "relative_velocity":{"kilometers_per_hour":"20000"},"miss_distance":{"kilometers":"5000000"}}]}
    ]
  }
}`

func TestLoadCapsPerDayAndSorts(t *testing.T) {
	var gotKey, gotStart, gotEnd string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.URL.Query().Get("api_key")
		gotStart = r.URL.Query().Get("start_date")
		gotEnd = r.URL.Query().Get("end_date")
		w.Write([]byte(sampleFeed))
	}))
	defer server.Close()

	now := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	s := New(fetch.NewClient(time.Second), server.URL, "")
	records, err := s.Load(context.Background(), now)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if gotKey != DemoKey {
		t.Errorf("expected demo key, got %q", gotKey)
	}
	if gotStart != "2025-03-01" || gotEnd != "2025-03-08" {
		t.Errorf("unexpected window %s..%s", gotStart, gotEnd)
	}

	// 1 object on Mar 1, 3 of 4 on Mar 2
	if len(records) != 4 {
		t.Fatalf("expected 4 records, got %d", len(records))
	}
	for i := 1; i < len(records); i++ {
		if records[i].Stamp().Before(records[i-1].Stamp()) {
			t.Errorf("records not ascending at %d", i)
		}
	}

	first := records[0].(model.NearEarthObject)
	if first.Name != "(2025 AE)" {
		t.Errorf("expected earliest approach first, got %s", first.Name)
	}
	for _, r := range records {
		if r.(model.NearEarthObject).Name == "(2025 AD)" {
			t.Error("fourth approach of the day should be dropped")
		}
	}

	hazardous := records[1].(model.NearEarthObject)
	if !hazardous.Hazardous || hazardous.MissDistanceKm != 1000000 {
		t.Errorf("unexpected parse: %+v", hazardous)
	}
}

func TestLoadBadNumber(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"near_earth_objects":{"2025-03-01":[{"id":"1","name":"x",
			"close_approach_data":[{"close_approach_date":"2025-03-01","miss_distance":{"kilometers":"far"}}]}]}}`))
	}))
	defer server.Close()

	s := New(fetch.NewClient(time.Second), server.URL, "KEY")
	_, err := s.Load(context.Background(), time.Now())
	if !errors.Is(err, fetch.ErrParse) {
		t.Errorf("expected parse error, got %v", err)
	}
}

func TestLoadEmptyWindow(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"element_count":0,"near_earth_objects":{}}`))
	}))
	defer server.Close()

	s := New(fetch.NewClient(time.Second), server.URL, "KEY")
	_, err := s.Load(context.Background(), time.Now())
	if !errors.Is(err, fetch.ErrEmpty) {
		t.Errorf("expected empty error, got %v", err)
	}
}

func TestFallback(t *testing.T) {
	now := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	s := New(fetch.NewClient(time.Second), "", "")

	records := s.Fallback(now)
	if len(records) != 3 {
		t.Fatalf("expected 3 fallback objects, got %d", len(records))
	}
	for i, r := range records {
		if r.Origin() != model.SourceFallback {
			t.Errorf("record %d not tagged fallback", i)
		}
		if !r.Stamp().After(now) {
			t.Errorf("record %d should approach after now", i)
		}
	}
}
