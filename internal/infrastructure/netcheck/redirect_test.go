package netcheck

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"phishguard/pkg/logger"
)

func TestRedirectClient_Follow(t *testing.T) {
	mux := http.NewServeMux()
	var server *httptest.Server
	mux.HandleFunc("/start", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, server.URL+"/hop", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/hop", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, server.URL+"/final", http.StatusFound)
	})
	mux.HandleFunc("/final", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	server = httptest.NewServer(mux)
	defer server.Close()

	c := NewRedirectClient(2*time.Second, 10, logger.NewDefault())
	hops, err := c.Follow(context.Background(), server.URL+"/start")
	if err != nil {
		t.Fatalf("Follow() error = %v", err)
	}
	if len(hops) != 2 {
		t.Fatalf("hops = %d, want 2", len(hops))
	}
	if hops[0].Status != http.StatusMovedPermanently || hops[1].Status != http.StatusFound {
		t.Errorf("statuses = %d, %d", hops[0].Status, hops[1].Status)
	}
	if hops[1].To != server.URL+"/final" {
		t.Errorf("final hop to = %q, want %q", hops[1].To, server.URL+"/final")
	}
}

func TestRedirectClient_NoRedirect(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := NewRedirectClient(2*time.Second, 10, logger.NewDefault())
	hops, err := c.Follow(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Follow() error = %v", err)
	}
	if len(hops) != 0 {
		t.Errorf("hops = %d, want 0", len(hops))
	}
}

func TestRedirectClient_HopLimit(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Redirect to itself forever.
		http.Redirect(w, r, server.URL+r.URL.Path, http.StatusFound)
	}))
	defer server.Close()

	c := NewRedirectClient(2*time.Second, 3, logger.NewDefault())
	hops, err := c.Follow(context.Background(), server.URL+"/loop")
	if err != nil {
		t.Fatalf("Follow() error = %v", err)
	}
	if len(hops) != 3 {
		t.Errorf("hops = %d, want hop limit 3", len(hops))
	}
}

func TestRedirectClient_UnreachableFirstHop(t *testing.T) {
	c := NewRedirectClient(500*time.Millisecond, 10, logger.NewDefault())
	if _, err := c.Follow(context.Background(), "http://127.0.0.1:1/"); err == nil {
		t.Error("expected error for unreachable URL")
	}
}
