package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/pulsewatch/pulsewatch/internal/alert"
	"github.com/pulsewatch/pulsewatch/internal/store"
	"github.com/pulsewatch/pulsewatch/internal/threshold"
)

// Handler is the HTTP handler for all /api/v1/* endpoints. It reads the
// monitored series from the store and alert history from the evaluator.
type Handler struct {
	store  store.Store
	eval   *alert.Evaluator
	calc   *threshold.Calculator
	series string
	window time.Duration
	now    func() time.Time
	mux    *http.ServeMux
}

// New creates a Handler and registers all routes.
func New(st store.Store, eval *alert.Evaluator, calc *threshold.Calculator, series string, window time.Duration) http.Handler {
	h := &Handler{
		store:  st,
		eval:   eval,
		calc:   calc,
		series: series,
		window: window,
		now:    time.Now,
		mux:    http.NewServeMux(),
	}

	h.mux.HandleFunc("/api/v1/health", h.health)
	h.mux.HandleFunc("/api/v1/samples", h.samples)
	h.mux.HandleFunc("/api/v1/latest", h.latest)
	h.mux.HandleFunc("/api/v1/alerts", h.alerts)

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// --- route handlers ---------------------------------------------------------

// health serves GET /api/v1/health: liveness plus the latest observation.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	resp := HealthResponse{
		Status:       "ok",
		Series:       h.series,
		RecentAlerts: len(h.eval.Recent()),
	}

	latest, err := h.store.Latest(r.Context(), h.series)
	switch {
	case errors.Is(err, store.ErrSeriesNotFound):
		resp.Status = "waiting_for_data"
	case err != nil:
		jsonErr(w, http.StatusInternalServerError, err.Error())
		return
	default:
		resp.LatestValue = latest.Value
		resp.LastSampleAt = latest.Timestamp.UTC().Format(time.RFC3339Nano)
	}

	jsonResp(w, http.StatusOK, resp)
}

// samples serves GET /api/v1/samples?from=&to=, a time-range query.
// Bounds are RFC3339; both default to the trailing averaging window.
func (h *Handler) samples(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	now := h.now()
	from, to := now.Add(-h.window), now

	if q := r.URL.Query().Get("from"); q != "" {
		t, err := time.Parse(time.RFC3339, q)
		if err != nil {
			jsonErr(w, http.StatusBadRequest, "invalid from: "+err.Error())
			return
		}
		from = t
	}
	if q := r.URL.Query().Get("to"); q != "" {
		t, err := time.Parse(time.RFC3339, q)
		if err != nil {
			jsonErr(w, http.StatusBadRequest, "invalid to: "+err.Error())
			return
		}
		to = t
	}

	samples, err := h.store.QueryRange(r.Context(), h.series, from, to)
	if errors.Is(err, store.ErrSeriesNotFound) {
		jsonErr(w, http.StatusNotFound, "series has no data yet")
		return
	}
	if err != nil {
		jsonErr(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := SamplesResponse{
		Series:  h.series,
		From:    from.UTC().Format(time.RFC3339Nano),
		To:      to.UTC().Format(time.RFC3339Nano),
		Samples: make([]SampleResponse, 0, len(samples)),
	}
	for _, s := range samples {
		resp.Samples = append(resp.Samples, SampleResponse{
			Timestamp: s.Timestamp.UTC().Format(time.RFC3339Nano),
			Value:     s.Value,
		})
	}
	jsonResp(w, http.StatusOK, resp)
}

// latest serves GET /api/v1/latest: the newest sample and the threshold it
// is currently evaluated against.
func (h *Handler) latest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	latest, err := h.store.Latest(r.Context(), h.series)
	if errors.Is(err, store.ErrSeriesNotFound) {
		jsonErr(w, http.StatusNotFound, "series has no data yet")
		return
	}
	if err != nil {
		jsonErr(w, http.StatusInternalServerError, err.Error())
		return
	}

	res, err := h.calc.Compute(r.Context(), h.series, h.now(), h.window)
	if err != nil {
		jsonErr(w, http.StatusInternalServerError, err.Error())
		return
	}

	jsonResp(w, http.StatusOK, LatestResponse{
		Series:      h.series,
		Timestamp:   latest.Timestamp.UTC().Format(time.RFC3339Nano),
		Value:       latest.Value,
		Threshold:   res.Threshold,
		Average:     res.Average,
		SampleCount: res.SampleCount,
	})
}

// alerts serves GET /api/v1/alerts: recently fired alerts, newest first.
func (h *Handler) alerts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	jsonResp(w, http.StatusOK, AlertsResponse{Alerts: h.eval.Recent()})
}

// --- helpers ----------------------------------------------------------------

func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}
