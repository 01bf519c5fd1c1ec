package lookup

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"leaksift/internal/core"
)

func newTestClient(url string) *Client {
	return New(Config{
		URL:     url,
		Token:   "test-token",
		Lang:    "id",
		Timeout: 2 * time.Second,
	})
}

func TestLookup_SendsRequestEnvelope(t *testing.T) {
	var got request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q, want application/json", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Write([]byte(`{"NumOfResults": 0, "List": {}}`))
	}))
	defer srv.Close()

	raw, err := newTestClient(srv.URL).Lookup(context.Background(), "a@x.com")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if len(raw) == 0 {
		t.Error("Lookup() returned empty body")
	}

	if got.Token != "test-token" {
		t.Errorf("token = %q, want %q", got.Token, "test-token")
	}
	if got.Request != "a@x.com" {
		t.Errorf("request = %q, want %q", got.Request, "a@x.com")
	}
	if got.Lang != "id" {
		t.Errorf("lang = %q, want %q", got.Lang, "id")
	}
}

func TestLookup_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Lookup(context.Background(), "jane")

	var ue *core.UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("Lookup() error = %v, want UpstreamError", err)
	}
	if ue.Status != http.StatusTooManyRequests {
		t.Errorf("Status = %d, want %d", ue.Status, http.StatusTooManyRequests)
	}
	if ue.Reason != "status" {
		t.Errorf("Reason = %q, want %q", ue.Reason, "status")
	}
}

func TestLookup_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := New(Config{
		URL:     srv.URL,
		Token:   "t",
		Lang:    "id",
		Timeout: 20 * time.Millisecond,
	})

	_, err := client.Lookup(context.Background(), "jane")

	var ue *core.UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("Lookup() error = %v, want UpstreamError", err)
	}
	if ue.Reason != "transport" {
		t.Errorf("Reason = %q, want %q", ue.Reason, "transport")
	}
}

func TestLookup_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestClient(srv.URL).Lookup(ctx, "jane")
	var ue *core.UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("Lookup() error = %v, want UpstreamError", err)
	}
}

func TestLookup_UnreachableHost(t *testing.T) {
	// Port 1 on localhost is essentially guaranteed closed.
	client := New(Config{
		URL:     "http://127.0.0.1:1/",
		Token:   "t",
		Lang:    "id",
		Timeout: time.Second,
	})

	_, err := client.Lookup(context.Background(), "jane")
	var ue *core.UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("Lookup() error = %v, want UpstreamError", err)
	}
	if ue.Reason != "transport" {
		t.Errorf("Reason = %q, want %q", ue.Reason, "transport")
	}
}
