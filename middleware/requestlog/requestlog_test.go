package requestlog

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestMiddleware_GeneratesRequestIDAndLogs(t *testing.T) {
	req := require.New(t)
	var buf bytes.Buffer

	var seen string
	h := Middleware(newLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = FromContext(r.Context())
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, "hello")
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/contact", nil))

	id := w.Header().Get(HeaderRequestID)
	_, err := uuid.Parse(id)
	req.NoError(err)
	req.Equal(id, seen)

	line := buf.String()
	req.Contains(line, "method=POST")
	req.Contains(line, "path=/contact")
	req.Contains(line, "status=201")
	req.Contains(line, "bytes=5")
	req.Contains(line, "request_id="+id)
	req.Contains(line, "level=INFO")
}

func TestMiddleware_KeepsIncomingRequestID(t *testing.T) {
	req := require.New(t)
	var buf bytes.Buffer
	h := Middleware(newLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	r := httptest.NewRequest(http.MethodGet, "/health", nil)
	r.Header.Set(HeaderRequestID, "abc-123")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	req.Equal("abc-123", w.Header().Get(HeaderRequestID))
	req.Contains(buf.String(), "status=200")

	r = httptest.NewRequest(http.MethodGet, "/health", nil)
	r.Header.Set(HeaderRequestID, strings.Repeat("x", 500))
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	req.NotEqual(strings.Repeat("x", 500), w.Header().Get(HeaderRequestID))
}

func TestMiddleware_ServerErrorsLogAtError(t *testing.T) {
	var buf bytes.Buffer
	h := Middleware(newLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/contact", nil))
	require.Contains(t, buf.String(), "level=ERROR")
}

func TestMiddleware_KeepsFlusher(t *testing.T) {
	var flushed bool
	h := Middleware(newLogger(&bytes.Buffer{}))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f, ok := w.(http.Flusher)
		if ok {
			f.Flush()
			flushed = true
		}
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/contact/stream", nil))
	require.True(t, flushed)
	require.True(t, w.Flushed)
}
