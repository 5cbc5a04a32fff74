package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/abelbrown/skydeck/internal/api/handler"
	"github.com/abelbrown/skydeck/internal/api/middleware"
	"github.com/abelbrown/skydeck/internal/api/router"
	"github.com/abelbrown/skydeck/internal/app"
	"github.com/abelbrown/skydeck/internal/model"
	"github.com/abelbrown/skydeck/internal/store"
)

var _ = Describe("UserHandler", func() {
	var (
		r     *gin.Engine
		users *mockUserService
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		r = gin.New()
		r.Use(middleware.Owner(nil))
		users = &mockUserService{}
		router.UserRouter(r.Group("/api"), handler.NewUserHandler(users))
	})

	do := func(method, path, body, owner string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		if owner != "" {
			req.Header.Set(middleware.OwnerHeader, owner)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	Describe("events", func() {
		It("saves an event and returns 201", func() {
			var gotOwner string
			users.saveEventFn = func(ctx context.Context, owner string, e model.SavedEvent) (model.SavedEvent, error) {
				gotOwner = owner
				e.ID = "ev-1"
				e.Owner = owner
				return e, nil
			}

			w := do(http.MethodPost, "/api/events",
				`{"type":"launch","title":"Starship IFT-9","date":"2026-04-01T14:00:00Z","payload":{"rocket":"Starship"}}`, "alice")

			Expect(w.Code).To(Equal(http.StatusCreated))
			Expect(gotOwner).To(Equal("alice"))
			var saved model.SavedEvent
			Expect(json.Unmarshal(w.Body.Bytes(), &saved)).To(Succeed())
			Expect(saved.ID).To(Equal("ev-1"))
			Expect(saved.Title).To(Equal("Starship IFT-9"))
			Expect(saved.Date.Year()).To(Equal(2026))
			Expect(string(saved.Payload)).To(ContainSubstring("Starship"))
		})

		It("returns 400 when the title is missing", func() {
			w := do(http.MethodPost, "/api/events", `{"type":"launch"}`, "alice")

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("returns 401 for anonymous callers", func() {
			users.listEventsFn = func(ctx context.Context, owner string) ([]model.SavedEvent, error) {
				Expect(owner).To(BeEmpty())
				return nil, app.ErrAnonymous
			}

			w := do(http.MethodGet, "/api/events", "", "")

			Expect(w.Code).To(Equal(http.StatusUnauthorized))
		})

		It("lists the owner's events", func() {
			users.listEventsFn = func(ctx context.Context, owner string) ([]model.SavedEvent, error) {
				return []model.SavedEvent{{ID: "a", Owner: owner, Title: "Perseids"}}, nil
			}

			w := do(http.MethodGet, "/api/events", "", "alice")

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.String()).To(ContainSubstring("Perseids"))
		})

		It("deletes an event with 204", func() {
			var gotID string
			users.deleteEventFn = func(ctx context.Context, owner, id string) error {
				gotID = id
				return nil
			}

			w := do(http.MethodDelete, "/api/events/ev-1", "", "alice")

			Expect(w.Code).To(Equal(http.StatusNoContent))
			Expect(gotID).To(Equal("ev-1"))
		})

		It("returns 404 when deleting someone else's event", func() {
			users.deleteEventFn = func(ctx context.Context, owner, id string) error {
				return store.ErrNotFound
			}

			w := do(http.MethodDelete, "/api/events/ev-1", "", "bob")

			Expect(w.Code).To(Equal(http.StatusNotFound))
		})
	})

	Describe("profile", func() {
		It("returns the stored profile", func() {
			w := do(http.MethodGet, "/api/profile", "", "alice")

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.String()).To(ContainSubstring(`"owner":"alice"`))
		})

		It("saves coordinates and preferences", func() {
			var got model.Profile
			users.saveProfileFn = func(ctx context.Context, owner string, p model.Profile) (model.Profile, error) {
				got = p
				p.Owner = owner
				return p, nil
			}

			w := do(http.MethodPut, "/api/profile",
				`{"display_name":"Alice","latitude":51.5,"longitude":-0.12,"dark_mode":true}`, "alice")

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(got.DisplayName).To(Equal("Alice"))
			Expect(got.Latitude).NotTo(BeNil())
			Expect(*got.Latitude).To(BeNumerically("~", 51.5))
			Expect(*got.Longitude).To(BeNumerically("~", -0.12))
			Expect(got.DarkMode).To(BeTrue())
		})

		It("returns 400 for invalid coordinates", func() {
			users.saveProfileFn = func(ctx context.Context, owner string, p model.Profile) (model.Profile, error) {
				return model.Profile{}, app.ErrInvalid
			}

			w := do(http.MethodPut, "/api/profile", `{"latitude":123}`, "alice")

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("returns 400 for malformed JSON", func() {
			w := do(http.MethodPut, "/api/profile", `{"latitude":`, "alice")

			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(strings.TrimSpace(w.Body.String())).To(HavePrefix(`{"error":`))
		})
	})
})
