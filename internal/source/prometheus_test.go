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

// nodeMetrics is a realistic subset of a node_exporter /metrics page.
const nodeMetrics = `
# HELP node_load1 1m load average.
# TYPE node_load1 gauge
node_load1 0.82

# HELP node_cpu_seconds_total Seconds the CPUs spent in each mode.
# TYPE node_cpu_seconds_total counter
node_cpu_seconds_total{cpu="0",mode="idle"} 119564.5
node_cpu_seconds_total{cpu="1",mode="idle"} 119021.5

# HELP node_memory_MemAvailable_bytes Memory available in bytes.
# TYPE node_memory_MemAvailable_bytes gauge
node_memory_MemAvailable_bytes 8.192e+09
`

func promFrom(t *testing.T, url, metricName string) Source {
	t.Helper()
	s, err := New(config.SourceConfig{
		Type:     "prometheus",
		Endpoint: url,
		Metric:   metricName,
		Timeout:  5 * time.Second,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestProm_Fetch_Gauge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		_, _ = w.Write([]byte(nodeMetrics))
	}))
	defer srv.Close()

	got, err := promFrom(t, srv.URL, "node_load1").Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if got != 0.82 {
		t.Errorf("Fetch = %v, want 0.82", got)
	}
}

func TestProm_Fetch_SumsLabelSets(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(nodeMetrics))
	}))
	defer srv.Close()

	got, err := promFrom(t, srv.URL, "node_cpu_seconds_total").Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if want := 119564.5 + 119021.5; got != want {
		t.Errorf("Fetch = %v, want %v", got, want)
	}
}

func TestProm_MissingFamily(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(nodeMetrics))
	}))
	defer srv.Close()

	_, err := promFrom(t, srv.URL, "node_does_not_exist").Fetch(context.Background())
	if !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("Fetch on missing family: got %v, want ErrMalformedResponse", err)
	}
}

func TestProm_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := promFrom(t, srv.URL, "node_load1").Fetch(context.Background())
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Fatalf("Fetch on 502: got %v, want ErrSourceUnavailable", err)
	}
}
