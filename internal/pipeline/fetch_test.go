package pipeline

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestFetcher(t *testing.T, handler http.HandlerFunc) (*Fetcher, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	f, err := NewFetcher(FetcherConfig{
		BaseURL:     srv.URL,
		APIKey:      "test-key",
		MaxAttempts: 2,
		BaseDelay:   time.Millisecond,
	})
	if err != nil {
		t.Fatalf("new fetcher: %v", err)
	}
	return f, srv
}

func TestNewFetcherRequiresAPIKey(t *testing.T) {
	_, err := NewFetcher(FetcherConfig{})
	if err == nil || !strings.Contains(err.Error(), "not configured") {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestFetchTranscriptJoinsSegments(t *testing.T) {
	f, _ := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Basic test-key" {
			t.Errorf("unexpected auth header: %q", got)
		}
		if got := r.URL.Query().Get("video_id"); got != "dQw4w9WgXcQ" {
			t.Errorf("unexpected video_id: %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"content":[{"text":"  Hello there. "},{"text":"This   is"},{"text":"a transcript."}]}`))
	})

	text, err := f.FetchTranscript(context.Background(), "dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	want := "Hello there. This is a transcript."
	if text != want {
		t.Fatalf("got %q, want %q", text, want)
	}
}

func TestFetchTranscriptMapsNotFound(t *testing.T) {
	attempts := 0
	f, _ := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := f.FetchTranscript(context.Background(), "missing12345")
	if err == nil || !strings.Contains(err.Error(), "captions") {
		t.Fatalf("expected captions error, got %v", err)
	}
	// retries are unconditional on error type
	if attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", attempts)
	}
}

func TestFetchTranscriptMapsForbiddenAndRateLimit(t *testing.T) {
	cases := []struct {
		status int
		want   string
	}{
		{http.StatusForbidden, "private or restricted"},
		{http.StatusTooManyRequests, "rate limit"},
	}
	for _, c := range cases {
		status := c.status
		f, _ := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		})
		_, err := f.FetchTranscript(context.Background(), "aaaaaaaaaaa")
		if err == nil || !strings.Contains(strings.ToLower(err.Error()), c.want) {
			t.Fatalf("status %d: expected %q in error, got %v", c.status, c.want, err)
		}
	}
}

func TestFetchTranscriptEmptyContent(t *testing.T) {
	f, _ := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"content":[]}`))
	})
	_, err := f.FetchTranscript(context.Background(), "aaaaaaaaaaa")
	if err == nil || !strings.Contains(err.Error(), "no transcript content") {
		t.Fatalf("expected empty-content error, got %v", err)
	}
}

func TestFetchTranscriptWhitespaceOnlySegments(t *testing.T) {
	f, _ := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"content":[{"text":"   "},{"text":"\n"}]}`))
	})
	_, err := f.FetchTranscript(context.Background(), "aaaaaaaaaaa")
	if err == nil || !strings.Contains(err.Error(), "empty") {
		t.Fatalf("expected empty error, got %v", err)
	}
}

func TestFetchTranscriptConnectivityMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	f, err := NewFetcher(FetcherConfig{
		BaseURL:     srv.URL,
		APIKey:      "test-key",
		MaxAttempts: 2,
		BaseDelay:   time.Millisecond,
	})
	if err != nil {
		t.Fatalf("new fetcher: %v", err)
	}

	_, err = f.FetchTranscript(context.Background(), "aaaaaaaaaaa")
	if err == nil || !strings.Contains(err.Error(), "could not connect") {
		t.Fatalf("expected connectivity error, got %v", err)
	}
}
