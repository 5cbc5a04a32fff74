package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/abelbrown/skydeck/internal/api"
	"github.com/abelbrown/skydeck/internal/api/middleware"
	"github.com/abelbrown/skydeck/internal/app"
	"github.com/abelbrown/skydeck/internal/config"
	"github.com/abelbrown/skydeck/internal/feeds"
	"github.com/abelbrown/skydeck/internal/model"
)

type crewFeed struct{}

func (crewFeed) Name() string     { return model.FeedCrew }
func (crewFeed) Kind() model.Kind { return model.KindCrewRoster }

func (crewFeed) Load(ctx context.Context, now time.Time) ([]model.Record, error) {
	return []model.Record{model.CrewMember{Meta: model.Meta{ID: "1", Time: now, Source: model.SourceLive}, Name: "Ada", Craft: "ISS"}}, nil
}

func (crewFeed) Fallback(now time.Time) []model.Record {
	return []model.Record{model.CrewMember{Meta: model.Meta{ID: "f", Time: now, Source: model.SourceFallback}, Name: "Fallback"}}
}

var _ = Describe("Router", func() {
	var (
		a *app.App
		r *gin.Engine
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		cfg := config.DefaultConfig()
		cfg.DataDir = GinkgoT().TempDir()
		cfg.Store.Backend = config.BackendMemory
		cfg.Models.Gemini.APIKey = ""
		cfg.Models.OpenAI.APIKey = ""

		var err error
		a, err = app.New(context.Background(), cfg, app.Options{
			Owner:     "local",
			LogOutput: io.Discard,
			Adapters:  []feeds.Adapter{crewFeed{}},
		})
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(a.Close)

		_, err = a.Coord.PollOnce(context.Background())
		Expect(err).NotTo(HaveOccurred())
		r = api.NewRouter(a)
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

	It("reports health", func() {
		w := do(http.MethodGet, "/health", "", "")
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(ContainSubstring(`"ok"`))
	})

	It("serves polled feed state", func() {
		w := do(http.MethodGet, "/api/feeds/crew", "", "")

		Expect(w.Code).To(Equal(http.StatusOK))
		var resp struct {
			Feed    string           `json:"feed"`
			Records []map[string]any `json:"records"`
			Metrics []model.Metric   `json:"metrics"`
		}
		Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp.Records).To(HaveLen(1))
		Expect(resp.Records[0]["name"]).To(Equal("Ada"))
		Expect(resp.Metrics).To(ContainElement(HaveField("Name", "count")))
	})

	It("answers canned tutor questions without a provider", func() {
		w := do(http.MethodPost, "/api/chat", `{"message":"Tell me about black holes"}`, "alice")

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(ContainSubstring(`"canned":true`))

		w = do(http.MethodGet, "/api/chat/sessions", "", "alice")
		Expect(w.Code).To(Equal(http.StatusOK))
		var sessions []struct {
			Messages int `json:"messages"`
		}
		Expect(json.Unmarshal(w.Body.Bytes(), &sessions)).To(Succeed())
		Expect(sessions).To(HaveLen(1))
		// greeting, question, answer
		Expect(sessions[0].Messages).To(Equal(3))
	})

	It("keeps saved events per owner", func() {
		w := do(http.MethodPost, "/api/events", `{"type":"launch","title":"Artemis III","date":"2027-01-01T00:00:00Z"}`, "alice")
		Expect(w.Code).To(Equal(http.StatusCreated))
		var saved model.SavedEvent
		Expect(json.Unmarshal(w.Body.Bytes(), &saved)).To(Succeed())
		Expect(saved.ID).NotTo(BeEmpty())
		Expect(saved.Owner).To(Equal("alice"))

		Expect(do(http.MethodGet, "/api/events", "", "bob").Body.String()).NotTo(ContainSubstring("Artemis"))
		Expect(do(http.MethodDelete, "/api/events/"+saved.ID, "", "bob").Code).To(Equal(http.StatusNotFound))
		Expect(do(http.MethodDelete, "/api/events/"+saved.ID, "", "alice").Code).To(Equal(http.StatusNoContent))
	})

	It("lists only upcoming stargazing events to everyone", func() {
		for _, body := range []string{
			`{"title":"Leonids 2020","date":"2020-11-17T03:00:00Z","location_name":"Joshua Tree","latitude":33.87,"longitude":-115.9}`,
			`{"title":"Dark Sky Night","date":"2099-06-01T03:00:00Z","location_name":"Joshua Tree","latitude":33.87,"longitude":-115.9}`,
		} {
			Expect(do(http.MethodPost, "/api/stargazing-events", body, "alice").Code).To(Equal(http.StatusCreated))
		}

		w := do(http.MethodGet, "/api/stargazing-events", "", "bob")
		Expect(w.Code).To(Equal(http.StatusOK))
		var listed []model.StargazingEvent
		Expect(json.Unmarshal(w.Body.Bytes(), &listed)).To(Succeed())
		Expect(listed).To(HaveLen(1))
		Expect(listed[0].Title).To(Equal("Dark Sky Night"))
		Expect(listed[0].Organizer).To(Equal("alice"))
	})

	It("falls back to the session owner without a header", func() {
		w := do(http.MethodGet, "/api/profile", "", "")

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(ContainSubstring(`"owner":"local"`))
	})

	It("rejects out-of-range coordinates", func() {
		w := do(http.MethodPut, "/api/profile", `{"latitude":123,"longitude":0}`, "alice")
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("refuses to refresh an unknown feed", func() {
		Expect(do(http.MethodPost, "/api/feeds/weather/refresh", "", "").Code).To(Equal(http.StatusNotFound))
	})
})
