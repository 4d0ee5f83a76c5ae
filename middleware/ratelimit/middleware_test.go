package ratelimit

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"contact-stream/middleware/ratelimit/domain"
	"contact-stream/middleware/ratelimit/infra"
)

func okHandler(calls *int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls != nil {
			*calls++
		}
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "ok")
	})
}

func serve(h http.Handler, method, target, remote string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(method, target, nil)
	r.RemoteAddr = remote
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func TestMiddleware_AllowsThenRejectsSameKey(t *testing.T) {
	store := infra.NewStore(domain.PerMinute(1))

	calls := 0
	h := Middleware(Options{
		Store:               store,
		RetryAfter:          1 * time.Second,
		AddRateLimitHeaders: true,
	})(okHandler(&calls))

	w1 := serve(h, http.MethodGet, "http://example/contact", "10.0.0.1:1234")
	if w1.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w1.Code)
	}
	if got := w1.Header().Get("RateLimit-Limit"); got != "1" {
		t.Fatalf("expected RateLimit-Limit=1, got %q", got)
	}
	if got := w1.Header().Get("RateLimit-Remaining"); got != "0" {
		t.Fatalf("expected RateLimit-Remaining=0, got %q", got)
	}
	if got := w1.Header().Get("RateLimit-Policy"); got != "1;w=60" {
		t.Fatalf("expected RateLimit-Policy=1;w=60, got %q", got)
	}

	w2 := serve(h, http.MethodGet, "http://example/contact", "10.0.0.1:1234")
	if w2.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w2.Code)
	}
	if got := w2.Header().Get("Retry-After"); got != "1" {
		t.Fatalf("expected Retry-After=1, got %q", got)
	}
	if ct := w2.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("expected JSON content type, got %q", ct)
	}
	if body := strings.TrimSpace(w2.Body.String()); body != `{"error":"Too many requests"}` {
		t.Fatalf("unexpected body %q", body)
	}

	if calls != 1 {
		t.Fatalf("expected next handler to be called once, got %d", calls)
	}
}

func TestMiddleware_ThirtyPerMinutePerClient(t *testing.T) {
	h := Middleware(Options{Store: infra.NewStore(domain.PerMinute(30))})(okHandler(nil))

	for i := 0; i < 30; i++ {
		if w := serve(h, http.MethodPost, "http://example/contact", "10.0.0.1:1"); w.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, w.Code)
		}
	}
	w := serve(h, http.MethodPost, "http://example/contact", "10.0.0.1:1")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 31st request to be limited, got %d", w.Code)
	}
	if got := w.Header().Get("Retry-After"); got != "60" {
		t.Fatalf("expected default Retry-After=60, got %q", got)
	}

	if w := serve(h, http.MethodPost, "http://example/contact", "10.0.0.2:1"); w.Code != http.StatusOK {
		t.Fatalf("expected another client to pass, got %d", w.Code)
	}
}

func TestMiddleware_KeyByHeader(t *testing.T) {
	h := Middleware(Options{
		Store:     infra.NewStore(domain.PerMinute(1)),
		KeyHeader: "X-Api-Key",
	})(okHandler(nil))

	// mesmo IP, chaves diferentes: cada uma tem seu próprio bucket
	for _, key := range []string{"k1", "k2"} {
		r := httptest.NewRequest(http.MethodGet, "http://example/", nil)
		r.Header.Set("X-Api-Key", key)
		r.RemoteAddr = "10.0.0.1:1234"
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200 for key %s, got %d", key, w.Code)
		}
	}
}

func TestMiddleware_RetryAfterUsesSeconds(t *testing.T) {
	h := Middleware(Options{
		Store:      infra.NewStore(domain.PerMinute(1)),
		RetryAfter: 2500 * time.Millisecond,
	})(okHandler(nil))

	if w := serve(h, http.MethodGet, "http://example/", "10.0.0.1:1234"); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	w := serve(h, http.MethodGet, "http://example/", "10.0.0.1:1234")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	// int(2.5s.Seconds()) == 2
	if got := strings.TrimSpace(w.Header().Get("Retry-After")); got != "2" {
		t.Fatalf("expected Retry-After=2, got %q", got)
	}
}

type failingStats struct{ calls int }

func (f *failingStats) Record(context.Context, domain.StatsEvent) error {
	f.calls++
	return errors.New("unavailable")
}

func TestMiddleware_StatsAreBestEffort(t *testing.T) {
	mem := infra.NewMemoryStatsStore()
	bad := &failingStats{}
	h := Middleware(Options{
		Store:   infra.NewStore(domain.PerMinute(1)),
		Stats:   infra.FanOutStats{bad, mem},
		RouteFn: func(*http.Request) string { return "/contact" },
	})(okHandler(nil))

	serve(h, http.MethodPost, "http://example/api/contact", "10.0.0.1:1")
	w := serve(h, http.MethodPost, "http://example/api/contact", "10.0.0.1:1")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	if bad.calls != 2 {
		t.Fatalf("expected failing stats to be called twice, got %d", bad.calls)
	}
	got := mem.ByRoute()["POST /contact"]
	if got.Allowed != 1 || got.Denied != 1 {
		t.Fatalf("unexpected route counters %+v", got)
	}
}

func TestMiddleware_CustomReject(t *testing.T) {
	var gotStatus int
	h := Middleware(Options{
		Store: infra.NewStore(domain.PerMinute(1)),
		OnReject: func(w http.ResponseWriter, _ *http.Request, status int, _ string) {
			gotStatus = status
			w.WriteHeader(status)
		},
	})(okHandler(nil))

	serve(h, http.MethodGet, "http://example/", "10.0.0.1:1")
	serve(h, http.MethodGet, "http://example/", "10.0.0.1:1")
	if gotStatus != http.StatusTooManyRequests {
		t.Fatalf("expected custom reject to see 429, got %d", gotStatus)
	}
}
