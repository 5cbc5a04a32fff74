package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/abelbrown/skydeck/internal/api/handler"
	"github.com/abelbrown/skydeck/internal/api/middleware"
	"github.com/abelbrown/skydeck/internal/api/router"
	"github.com/abelbrown/skydeck/internal/model"
	"github.com/abelbrown/skydeck/internal/store"
	"github.com/abelbrown/skydeck/internal/tutor"
)

var _ = Describe("ChatHandler", func() {
	var (
		r    *gin.Engine
		chat *mockChatService
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		r = gin.New()
		r.Use(middleware.Owner(func() string { return "local" }))
		chat = &mockChatService{}
		router.ChatRouter(r.Group("/api/chat"), handler.NewChatHandler(chat))
	})

	do := func(method, path string, body interface{}, owner string) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		if body != nil {
			Expect(json.NewEncoder(&buf).Encode(body)).To(Succeed())
		}
		req := httptest.NewRequest(method, path, &buf)
		req.Header.Set("Content-Type", "application/json")
		if owner != "" {
			req.Header.Set(middleware.OwnerHeader, owner)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	Describe("POST /api/chat", func() {
		It("returns the reply and the updated session", func() {
			var gotOwner, gotText string
			var gotMode tutor.Mode
			chat.sendFn = func(ctx context.Context, owner, text string, mode tutor.Mode) (model.ChatSession, tutor.Reply, error) {
				gotOwner, gotText, gotMode = owner, text, mode
				return model.ChatSession{ID: "s1", Owner: owner, Title: "Black holes"}, tutor.Reply{Text: "They are dense."}, nil
			}

			w := do(http.MethodPost, "/api/chat", map[string]string{"message": "What is a black hole?", "mode": "detailed"}, "alice")

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(gotOwner).To(Equal("alice"))
			Expect(gotText).To(Equal("What is a black hole?"))
			Expect(gotMode).To(Equal(tutor.ModeDetailed))

			var resp struct {
				Session model.ChatSession `json:"session"`
				Reply   tutor.Reply       `json:"reply"`
				Mode    string            `json:"mode"`
			}
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp.Session.ID).To(Equal("s1"))
			Expect(resp.Reply.Text).To(Equal("They are dense."))
			Expect(resp.Mode).To(Equal(string(tutor.ModeDetailed)))
		})

		It("uses the default owner when the header is missing", func() {
			var gotOwner string
			chat.sendFn = func(ctx context.Context, owner, text string, mode tutor.Mode) (model.ChatSession, tutor.Reply, error) {
				gotOwner = owner
				return model.ChatSession{}, tutor.Reply{}, nil
			}

			w := do(http.MethodPost, "/api/chat", map[string]string{"message": "hi"}, "")

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(gotOwner).To(Equal("local"))
		})

		It("returns 400 when the message is missing", func() {
			called := false
			chat.sendFn = func(ctx context.Context, owner, text string, mode tutor.Mode) (model.ChatSession, tutor.Reply, error) {
				called = true
				return model.ChatSession{}, tutor.Reply{}, nil
			}

			w := do(http.MethodPost, "/api/chat", map[string]string{"mode": "simple"}, "alice")

			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(called).To(BeFalse())
		})

		It("returns 400 for a blank message", func() {
			chat.sendFn = func(ctx context.Context, owner, text string, mode tutor.Mode) (model.ChatSession, tutor.Reply, error) {
				return model.ChatSession{}, tutor.Reply{}, tutor.ErrEmptyMessage
			}

			w := do(http.MethodPost, "/api/chat", map[string]string{"message": "   "}, "alice")

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("returns 500 when the service fails", func() {
			chat.sendFn = func(ctx context.Context, owner, text string, mode tutor.Mode) (model.ChatSession, tutor.Reply, error) {
				return model.ChatSession{}, tutor.Reply{}, errors.New("store down")
			}

			w := do(http.MethodPost, "/api/chat", map[string]string{"message": "hi"}, "alice")

			Expect(w.Code).To(Equal(http.StatusInternalServerError))
			Expect(w.Body.String()).NotTo(ContainSubstring("store down"))
		})
	})

	It("returns the active session", func() {
		w := do(http.MethodGet, "/api/chat", nil, "alice")

		Expect(w.Code).To(Equal(http.StatusOK))
		var s model.ChatSession
		Expect(json.Unmarshal(w.Body.Bytes(), &s)).To(Succeed())
		Expect(s.Owner).To(Equal("alice"))
		Expect(s.Title).To(Equal(tutor.DefaultTitle))
	})

	It("starts a new session on DELETE", func() {
		chat.clearFn = func(ctx context.Context, owner string) (model.ChatSession, error) {
			return model.ChatSession{ID: "fresh", Owner: owner}, nil
		}

		w := do(http.MethodDelete, "/api/chat", nil, "alice")

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(ContainSubstring(`"fresh"`))
	})

	It("lists session summaries without transcripts", func() {
		updated := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		chat.historyFn = func(ctx context.Context, owner string) ([]model.ChatSession, error) {
			return []model.ChatSession{{
				ID:        "s1",
				Title:     "Mars",
				Messages:  []model.ChatMessage{{Role: model.RoleUser, Text: "secret question"}, {Role: model.RoleAssistant, Text: "answer"}},
				UpdatedAt: updated,
			}}, nil
		}

		w := do(http.MethodGet, "/api/chat/sessions", nil, "alice")

		Expect(w.Code).To(Equal(http.StatusOK))
		var resp []map[string]interface{}
		Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp).To(HaveLen(1))
		Expect(resp[0]["messages"]).To(BeNumerically("==", 2))
		Expect(resp[0]["updated_at"]).To(Equal("2026-03-01T12:00:00Z"))
		Expect(w.Body.String()).NotTo(ContainSubstring("secret question"))
	})

	It("returns 404 for a session the owner cannot see", func() {
		chat.openFn = func(ctx context.Context, owner, id string) (model.ChatSession, error) {
			Expect(id).To(Equal("other"))
			return model.ChatSession{}, store.ErrNotFound
		}

		w := do(http.MethodGet, "/api/chat/sessions/other", nil, "alice")

		Expect(w.Code).To(Equal(http.StatusNotFound))
	})
})
