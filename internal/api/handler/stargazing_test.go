package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/abelbrown/skydeck/internal/api/handler"
	"github.com/abelbrown/skydeck/internal/api/middleware"
	"github.com/abelbrown/skydeck/internal/api/router"
	"github.com/abelbrown/skydeck/internal/app"
	"github.com/abelbrown/skydeck/internal/model"
)

var _ = Describe("StargazingHandler", func() {
	var (
		r      *gin.Engine
		events *mockStargazingService
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		r = gin.New()
		r.Use(middleware.Owner(nil))
		events = &mockStargazingService{}
		router.StargazingRouter(r.Group("/api/stargazing-events"), handler.NewStargazingHandler(events))
	})

	do := func(method, body, owner string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, "/api/stargazing-events", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		if owner != "" {
			req.Header.Set(middleware.OwnerHeader, owner)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	Describe("GET", func() {
		It("lists upcoming events with their location", func() {
			events.upcomingFn = func(ctx context.Context) ([]model.StargazingEvent, error) {
				return []model.StargazingEvent{{
					ID: "sg-1", Title: "Perseids watch", Date: time.Date(2026, 8, 12, 21, 0, 0, 0, time.UTC),
					LocationName: "Cherry Springs", Latitude: 41.66, Longitude: -77.82, Organizer: "ASH",
				}}, nil
			}

			w := do(http.MethodGet, "", "")

			Expect(w.Code).To(Equal(http.StatusOK))
			var got []model.StargazingEvent
			Expect(json.Unmarshal(w.Body.Bytes(), &got)).To(Succeed())
			Expect(got).To(HaveLen(1))
			Expect(got[0].LocationName).To(Equal("Cherry Springs"))
			Expect(got[0].Latitude).To(BeNumerically("~", 41.66))
			Expect(got[0].Organizer).To(Equal("ASH"))
		})

		It("returns an empty array when nothing is scheduled", func() {
			w := do(http.MethodGet, "", "")

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.String()).To(Equal("[]"))
		})

		It("returns 500 when the store fails", func() {
			events.upcomingFn = func(ctx context.Context) ([]model.StargazingEvent, error) {
				return nil, errors.New("database is locked")
			}

			w := do(http.MethodGet, "", "")

			Expect(w.Code).To(Equal(http.StatusInternalServerError))
			Expect(w.Body.String()).NotTo(ContainSubstring("locked"))
		})
	})

	Describe("POST", func() {
		It("creates an event for the caller", func() {
			var gotOwner string
			events.addFn = func(ctx context.Context, owner string, e model.StargazingEvent) (model.StargazingEvent, error) {
				gotOwner = owner
				e.ID = "sg-2"
				return e, nil
			}

			w := do(http.MethodPost,
				`{"title":"Geminids night","date":"2026-12-13T22:00:00Z","location_name":"Big Bend","latitude":29.25,"longitude":-103.25}`, "alice")

			Expect(w.Code).To(Equal(http.StatusCreated))
			Expect(gotOwner).To(Equal("alice"))
			var saved model.StargazingEvent
			Expect(json.Unmarshal(w.Body.Bytes(), &saved)).To(Succeed())
			Expect(saved.ID).To(Equal("sg-2"))
			Expect(saved.LocationName).To(Equal("Big Bend"))
			Expect(saved.Longitude).To(BeNumerically("~", -103.25))
		})

		It("returns 400 without a location", func() {
			w := do(http.MethodPost, `{"title":"Geminids night","date":"2026-12-13T22:00:00Z"}`, "alice")

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("returns 401 for anonymous callers", func() {
			events.addFn = func(ctx context.Context, owner string, e model.StargazingEvent) (model.StargazingEvent, error) {
				return model.StargazingEvent{}, app.ErrAnonymous
			}

			w := do(http.MethodPost,
				`{"title":"Geminids night","date":"2026-12-13T22:00:00Z","location_name":"Big Bend"}`, "")

			Expect(w.Code).To(Equal(http.StatusUnauthorized))
		})
	})
})
