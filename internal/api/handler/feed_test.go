package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/abelbrown/skydeck/internal/api/handler"
	"github.com/abelbrown/skydeck/internal/api/router"
	"github.com/abelbrown/skydeck/internal/coord"
	"github.com/abelbrown/skydeck/internal/fetch"
	"github.com/abelbrown/skydeck/internal/model"
)

var now = time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC)

var _ = Describe("FeedHandler", func() {
	var (
		r     *gin.Engine
		feeds *mockFeedService
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		r = gin.New()
		feeds = &mockFeedService{states: map[string]coord.State{
			model.FeedWeather: {
				Feed:        model.FeedWeather,
				Data:        []model.Record{model.WeatherSnapshot{Meta: model.Meta{ID: "w"}, CloudCoverPct: 10, VisibilityKm: 15}},
				LastUpdated: now.Add(-time.Minute),
				Attempts:    1,
			},
			model.FeedCrew: {
				Feed:          model.FeedCrew,
				Data:          []model.Record{model.CrewMember{Meta: model.Meta{ID: "f", Source: model.SourceFallback}, Name: "Fallback"}},
				Err:           &fetch.Error{Kind: fetch.KindUnreachable},
				UsingFallback: true,
				Attempts:      1,
				Failures:      1,
			},
		}}
		router.FeedRouter(r.Group("/api"), handler.NewFeedHandler(feeds, func() time.Time { return now }))
	})

	get := func(path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		return w
	}

	It("lists every feed in display order", func() {
		w := get("/api/feeds")

		Expect(w.Code).To(Equal(http.StatusOK))
		var resp []map[string]interface{}
		Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp).To(HaveLen(2))
		Expect(resp[0]["feed"]).To(Equal(model.FeedCrew))
		Expect(resp[0]["using_fallback"]).To(BeTrue())
		Expect(resp[0]["error_kind"]).To(Equal("unreachable"))
		Expect(resp[0]).NotTo(HaveKey("last_updated"))
		Expect(resp[1]["feed"]).To(Equal(model.FeedWeather))
	})

	It("returns one feed with derived metrics", func() {
		w := get("/api/feeds/weather")

		Expect(w.Code).To(Equal(http.StatusOK))
		var resp struct {
			Records []map[string]interface{} `json:"records"`
			Metrics []model.Metric           `json:"metrics"`
		}
		Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp.Records).To(HaveLen(1))

		byName := map[string]model.Metric{}
		for _, m := range resp.Metrics {
			byName[m.Name] = m
		}
		Expect(byName).To(HaveKey("stargazing"))
		Expect(byName["stargazing"].Value).To(BeNumerically("==", 95))
		Expect(byName["stargazing"].Label).To(Equal("Excellent"))
	})

	It("returns 404 for an unknown feed", func() {
		Expect(get("/api/feeds/pluto").Code).To(Equal(http.StatusNotFound))
	})

	Describe("refresh", func() {
		post := func(path string) *httptest.ResponseRecorder {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, path, nil))
			return w
		}

		It("returns 202 when the fetch starts", func() {
			var refreshed []string
			feeds.refreshFn = func(name string) bool {
				refreshed = append(refreshed, name)
				return true
			}

			w := post("/api/feeds/crew/refresh")

			Expect(w.Code).To(Equal(http.StatusAccepted))
			Expect(refreshed).To(Equal([]string{model.FeedCrew}))
		})

		It("returns 409 while the feed is fetching", func() {
			feeds.refreshFn = func(string) bool { return false }

			w := post("/api/feeds/crew/refresh")

			Expect(w.Code).To(Equal(http.StatusConflict))
			Expect(w.Body.String()).To(ContainSubstring("already fetching"))
		})

		It("returns 404 without triggering anything for an unknown feed", func() {
			called := false
			feeds.refreshFn = func(string) bool {
				called = true
				return true
			}

			Expect(post("/api/feeds/pluto/refresh").Code).To(Equal(http.StatusNotFound))
			Expect(called).To(BeFalse())
		})
	})

	It("serves metrics", func() {
		w := get("/api/metrics")

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(ContainSubstring(`"age_days"`))
	})

	It("serves the lunar phases for the current time", func() {
		w := get("/api/lunar")

		Expect(w.Code).To(Equal(http.StatusOK))
		var resp struct {
			NextNew time.Time `json:"next_new"`
		}
		Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
		want := time.Date(2024, 2, 9, 12, 43, 12, 0, time.UTC)
		Expect(resp.NextNew).To(BeTemporally("~", want, time.Minute))
	})
})
