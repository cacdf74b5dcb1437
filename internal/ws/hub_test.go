package ws_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pulsewatch/pulsewatch/internal/alert"
	"github.com/pulsewatch/pulsewatch/internal/metric"
	"github.com/pulsewatch/pulsewatch/internal/store"
	"github.com/pulsewatch/pulsewatch/internal/threshold"
	wsHub "github.com/pulsewatch/pulsewatch/internal/ws"
)

const testInterval = 20 * time.Millisecond

// --- helpers ----------------------------------------------------------------

// fakeStore serves canned samples; empty simulates a series with no data yet.
type fakeStore struct {
	samples []metric.Sample
}

func (f *fakeStore) Append(context.Context, string, metric.Sample) error { return nil }

func (f *fakeStore) QueryRange(context.Context, string, time.Time, time.Time) ([]metric.Sample, error) {
	if len(f.samples) == 0 {
		return nil, fmt.Errorf("%w: cpu", store.ErrSeriesNotFound)
	}
	return f.samples, nil
}

func (f *fakeStore) Latest(context.Context, string) (metric.Sample, error) {
	if len(f.samples) == 0 {
		return metric.Sample{}, fmt.Errorf("%w: cpu", store.ErrSeriesNotFound)
	}
	return f.samples[len(f.samples)-1], nil
}

func (f *fakeStore) Close() error { return nil }

type noopNotifier struct{}

func (noopNotifier) Name() string                               { return "noop" }
func (noopNotifier) Notify(context.Context, metric.Alert) error { return nil }
func (noopNotifier) Close() error                               { return nil }

func seededStore() *fakeStore {
	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	return &fakeStore{samples: []metric.Sample{
		{Timestamp: base, Value: 10},
		{Timestamp: base.Add(time.Minute), Value: 20},
		{Timestamp: base.Add(2 * time.Minute), Value: 30},
	}}
}

// startHub starts a test HTTP server with the hub as its handler.
// Returns the ws:// URL and the hub.
func startHub(t *testing.T, fs *fakeStore) (wsURL string, hub *wsHub.Hub) {
	t.Helper()

	calc := threshold.New(fs, 1.2)
	eval := alert.NewEvaluator("cpu", fs, calc, noopNotifier{}, 6*time.Hour, 20.0)
	hub = wsHub.New(fs, eval, calc, "cpu", 6*time.Hour, testInterval)

	ctx, cancel := context.WithCancel(context.Background())
	srv := httptest.NewServer(http.HandlerFunc(hub.ServeHTTP))
	go hub.Run(ctx)

	t.Cleanup(func() {
		cancel()
		srv.Close()
	})

	return "ws" + strings.TrimPrefix(srv.URL, "http"), hub
}

// dial connects a WebSocket client to wsURL and returns the connection.
func dial(t *testing.T, wsURL string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", wsURL, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readMessage reads one text message from conn with a short deadline.
func readMessage(t *testing.T, conn *websocket.Conn) []byte {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	return msg
}

// --- tests ------------------------------------------------------------------

func TestHub_Connect_ReceivesImmediateStatus(t *testing.T) {
	wsURL, _ := startHub(t, seededStore())

	conn := dial(t, wsURL)
	raw := readMessage(t, conn)

	var msg wsHub.Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		t.Fatalf("message not JSON: %v", err)
	}
	if msg.Event != "status" {
		t.Errorf("event = %q, want status", msg.Event)
	}
	if msg.Data.Latest == nil || msg.Data.Latest.Value != 30 {
		t.Errorf("latest = %+v, want value 30", msg.Data.Latest)
	}
	if msg.Data.Threshold != 24.0 {
		t.Errorf("threshold = %v, want 24.0", msg.Data.Threshold)
	}
}

func TestHub_EmptySeries_StatusWithoutLatest(t *testing.T) {
	wsURL, _ := startHub(t, &fakeStore{})

	conn := dial(t, wsURL)
	raw := readMessage(t, conn)

	var msg wsHub.Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		t.Fatalf("message not JSON: %v", err)
	}
	if msg.Data.Latest != nil {
		t.Errorf("latest = %+v, want nil for empty series", msg.Data.Latest)
	}
	if msg.Data.SampleCount != 0 {
		t.Errorf("sample_count = %d, want 0", msg.Data.SampleCount)
	}
}

func TestHub_BroadcastTicks(t *testing.T) {
	wsURL, _ := startHub(t, seededStore())

	conn := dial(t, wsURL)
	readMessage(t, conn) // immediate status on connect

	// Next message arrives from the broadcast ticker.
	raw := readMessage(t, conn)
	var msg wsHub.Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		t.Fatalf("broadcast message not JSON: %v", err)
	}
	if msg.Event != "status" {
		t.Errorf("event = %q, want status", msg.Event)
	}
}

func TestHub_CountTracksClients(t *testing.T) {
	wsURL, hub := startHub(t, seededStore())

	if n := hub.Count(); n != 0 {
		t.Fatalf("Count before connect = %d, want 0", n)
	}

	conn := dial(t, wsURL)
	readMessage(t, conn)

	if n := hub.Count(); n != 1 {
		t.Errorf("Count after connect = %d, want 1", n)
	}

	conn.Close()
	deadline := time.Now().Add(2 * time.Second)
	for hub.Count() != 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if n := hub.Count(); n != 0 {
		t.Errorf("Count after disconnect = %d, want 0", n)
	}
}
