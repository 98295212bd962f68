package mbfeatures

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestFetchByMBIDReturnsBodyVerbatim(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"lowlevel":{}}`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, Timeout: time.Second, RateLimit: time.Millisecond, Burst: 4})
	body, err := c.FetchByMBID(context.Background(), "abc-123")
	if err != nil {
		t.Fatalf("FetchByMBID: %v", err)
	}
	if string(body) != `{"lowlevel":{}}` {
		t.Fatalf("body = %q, want verbatim passthrough", body)
	}
}

func TestFetchByMBIDRetriesOn429(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`ok`))
	}))
	defer srv.Close()

	c := NewClient(Config{
		BaseURL: srv.URL, Timeout: time.Second,
		RateLimit: time.Millisecond, Burst: 4, RetryBaseDelay: time.Millisecond,
	})
	body, err := c.FetchByMBID(context.Background(), "abc-123")
	if err != nil {
		t.Fatalf("FetchByMBID: %v", err)
	}
	if string(body) != "ok" {
		t.Fatalf("body = %q, want %q", body, "ok")
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}

func TestFetchByMBIDErrorsOnNonOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, Timeout: time.Second, RateLimit: time.Millisecond, Burst: 4})
	if _, err := c.FetchByMBID(context.Background(), "abc-123"); err == nil {
		t.Fatal("expected an error for a 500 response")
	}
}

func TestFetchByMBIDRejectsEmptyMBID(t *testing.T) {
	c := NewClient(Config{BaseURL: "http://example.invalid"})
	if _, err := c.FetchByMBID(context.Background(), ""); err == nil {
		t.Fatal("expected an error for an empty mbid")
	}
}
