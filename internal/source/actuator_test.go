package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pulsewatch/pulsewatch/internal/config"
)

func actuatorFrom(t *testing.T, url string) Source {
	t.Helper()
	s, err := New(config.SourceConfig{Type: "actuator", Endpoint: url, Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestActuator_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"name": "system.cpu.usage",
			"measurements": [{"statistic": "VALUE", "value": 0.4375}],
			"availableTags": []
		}`))
	}))
	defer srv.Close()

	got, err := actuatorFrom(t, srv.URL).Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if got != 0.4375 {
		t.Errorf("Fetch = %v, want 0.4375", got)
	}
}

func TestActuator_NonJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>not json</html>"))
	}))
	defer srv.Close()

	_, err := actuatorFrom(t, srv.URL).Fetch(context.Background())
	if !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("Fetch on non-JSON body: got %v, want ErrMalformedResponse", err)
	}
}

func TestActuator_EmptyMeasurements(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"measurements": []}`))
	}))
	defer srv.Close()

	_, err := actuatorFrom(t, srv.URL).Fetch(context.Background())
	if !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("Fetch on empty measurements: got %v, want ErrMalformedResponse", err)
	}
}

func TestActuator_MissingValueField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"measurements": [{"statistic": "VALUE"}]}`))
	}))
	defer srv.Close()

	_, err := actuatorFrom(t, srv.URL).Fetch(context.Background())
	if !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("Fetch on missing value: got %v, want ErrMalformedResponse", err)
	}
}

func TestActuator_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := actuatorFrom(t, srv.URL).Fetch(context.Background())
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Fatalf("Fetch on 500: got %v, want ErrSourceUnavailable", err)
	}
}

func TestActuator_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := actuatorFrom(t, url).Fetch(context.Background())
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Fatalf("Fetch on closed server: got %v, want ErrSourceUnavailable", err)
	}
}

func TestNew_UnsupportedType(t *testing.T) {
	_, err := New(config.SourceConfig{Type: "graphite", Endpoint: "http://x", Timeout: time.Second})
	if err == nil {
		t.Fatal("New with unsupported type: expected error, got nil")
	}
}

func TestAuthRoundTripper_Bearer(t *testing.T) {
	t.Setenv("SRC_TOKEN", "tok-123")

	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"measurements": [{"value": 1}]}`))
	}))
	defer srv.Close()

	s, err := New(config.SourceConfig{
		Type:     "actuator",
		Endpoint: srv.URL,
		Timeout:  5 * time.Second,
		Auth:     config.AuthConfig{Mode: "bearer", TokenEnv: "SRC_TOKEN"},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := s.Fetch(context.Background()); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if gotAuth != "Bearer tok-123" {
		t.Errorf("Authorization header: got %q, want %q", gotAuth, "Bearer tok-123")
	}
}

func TestAuthRoundTripper_APIKey(t *testing.T) {
	t.Setenv("SRC_KEY", "k-456")

	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-Api-Key")
		_, _ = w.Write([]byte(`{"measurements": [{"value": 1}]}`))
	}))
	defer srv.Close()

	s, err := New(config.SourceConfig{
		Type:     "actuator",
		Endpoint: srv.URL,
		Timeout:  5 * time.Second,
		Auth:     config.AuthConfig{Mode: "apikey", Header: "X-Api-Key", KeyEnv: "SRC_KEY"},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := s.Fetch(context.Background()); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if gotKey != "k-456" {
		t.Errorf("X-Api-Key header: got %q, want %q", gotKey, "k-456")
	}
}
