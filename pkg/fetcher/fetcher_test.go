package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGet_SendsUserAgent(t *testing.T) {
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte("hello"))
	}))
	defer server.Close()

	client := NewClient(WithUserAgent("digest-bot"), WithRobots(false))
	body, err := client.Get(context.Background(), server.URL+"/page")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if body != "hello" {
		t.Errorf("body = %q, want hello", body)
	}
	if gotUA != "digest-bot" {
		t.Errorf("User-Agent = %q, want digest-bot", gotUA)
	}
}

func TestGet_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	client := NewClient(WithRobots(false))
	_, err := client.Get(context.Background(), server.URL+"/missing")

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("Get() error = %v, want *StatusError", err)
	}
	if statusErr.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d, want 404", statusErr.StatusCode)
	}
}

func TestGet_RobotsDisallowed(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("User-agent: *\nDisallow: /private/\n"))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("page"))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewClient()

	if _, err := client.Get(context.Background(), server.URL+"/private/page"); !errors.Is(err, ErrRobotsDisallowed) {
		t.Errorf("Get(private) error = %v, want ErrRobotsDisallowed", err)
	}

	body, err := client.Get(context.Background(), server.URL+"/public")
	if err != nil {
		t.Fatalf("Get(public) error = %v", err)
	}
	if body != "page" {
		t.Errorf("body = %q, want page", body)
	}
}

func TestGet_RobotsMissingFailsOpen(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", http.NotFound)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("page"))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewClient()
	body, err := client.Get(context.Background(), server.URL+"/anything")
	if err != nil {
		t.Fatalf("Get() error = %v, missing robots.txt must fail open", err)
	}
	if body != "page" {
		t.Errorf("body = %q, want page", body)
	}
}

func TestGet_RobotsIgnoredWhenDisabled(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("User-agent: *\nDisallow: /\n"))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("page"))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewClient(WithRobots(false))
	if _, err := client.Get(context.Background(), server.URL+"/page"); err != nil {
		t.Errorf("Get() error = %v, robots should be ignored", err)
	}
}
