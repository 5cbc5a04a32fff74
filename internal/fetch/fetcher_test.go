package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"
)

func TestGetJSONDecodes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("api_key") != "DEMO" {
			t.Errorf("expected api_key=DEMO, got %q", r.URL.RawQuery)
		}
		if ua := r.Header.Get("User-Agent"); ua == "" {
			t.Error("expected a User-Agent header")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"message":"success","number":7}`))
	}))
	defer server.Close()

	c := NewClient(time.Second)
	var out struct {
		Message string `json:"message"`
		Number  int    `json:"number"`
	}
	err := c.GetJSON(context.Background(), server.URL, url.Values{"api_key": {"DEMO"}}, &out)
	if err != nil {
		t.Fatalf("GetJSON failed: %v", err)
	}
	if out.Message != "success" || out.Number != 7 {
		t.Errorf("unexpected decode: %+v", out)
	}
}

func TestGetJSONHTTPStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	c := NewClient(time.Second)
	var out map[string]any
	err := c.GetJSON(context.Background(), server.URL, nil, &out)
	if err == nil {
		t.Fatal("expected error for 429")
	}
	if !errors.Is(err, ErrHTTP) {
		t.Errorf("expected ErrHTTP, got %v", err)
	}
	fe := Classify(err)
	if fe.Status != http.StatusTooManyRequests {
		t.Errorf("expected status 429, got %d", fe.Status)
	}
}

func TestGetJSONParseError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>not json</html>`))
	}))
	defer server.Close()

	c := NewClient(time.Second)
	var out map[string]any
	err := c.GetJSON(context.Background(), server.URL, nil, &out)
	if !errors.Is(err, ErrParse) {
		t.Errorf("expected ErrParse, got %v", err)
	}
}

func TestGetRawUnreachable(t *testing.T) {
	c := NewClient(time.Second)
	_, err := c.GetRaw(context.Background(), "http://localhost:99999/nothing", nil)
	if !errors.Is(err, ErrUnreachable) {
		t.Errorf("expected ErrUnreachable, got %v", err)
	}
}

func TestGetRawRelativeURL(t *testing.T) {
	c := NewClient(time.Second)
	_, err := c.GetRaw(context.Background(), "/relative/path", nil)
	if !errors.Is(err, ErrUnreachable) {
		t.Errorf("expected ErrUnreachable for relative url, got %v", err)
	}
}

func TestGetRawTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	c := NewClient(5 * time.Second)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := c.GetRaw(ctx, server.URL, nil)
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !IsTimeout(err) {
		t.Errorf("expected deadline error, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Errorf("request did not honor context deadline")
	}
}

func TestGetRawCancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewClient(time.Second)
	_, err := c.GetRaw(ctx, "http://example.invalid", nil)
	if !errors.Is(err, ErrUnreachable) {
		t.Errorf("expected ErrUnreachable, got %v", err)
	}
}

func TestBuildURLMergesQuery(t *testing.T) {
	got, err := buildURL("https://api.example.com/v1?limit=5&keep=1", url.Values{"limit": {"10"}})
	if err != nil {
		t.Fatalf("buildURL failed: %v", err)
	}
	u, _ := url.Parse(got)
	if u.Query().Get("limit") != "10" {
		t.Errorf("expected limit override, got %s", got)
	}
	if u.Query().Get("keep") != "1" {
		t.Errorf("expected keep to survive, got %s", got)
	}
}

func TestClassify(t *testing.T) {
	if Classify(nil) != nil {
		t.Error("Classify(nil) should be nil")
	}

	fe := Classify(errors.New("boom"))
	if fe.Kind != KindUnreachable {
		t.Errorf("expected unreachable, got %s", fe.Kind)
	}

	empty := Empty("https://x", "no items")
	wrapped := errors.Join(errors.New("context"), empty)
	if got := Classify(wrapped); got.Kind != KindEmpty {
		t.Errorf("expected empty kind through wrapping, got %s", got.Kind)
	}
}

func TestErrorIsMatchesStatus(t *testing.T) {
	err := &Error{Kind: KindHTTP, Status: 503, URL: "https://x"}
	if !errors.Is(err, &Error{Kind: KindHTTP, Status: 503}) {
		t.Error("expected match on same status")
	}
	if errors.Is(err, &Error{Kind: KindHTTP, Status: 404}) {
		t.Error("expected no match on different status")
	}
	if errors.Is(err, ErrParse) {
		t.Error("http error should not match parse")
	}
}
