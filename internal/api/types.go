package api

import "github.com/pulsewatch/pulsewatch/internal/metric"

// HealthResponse is the payload for GET /api/v1/health.
type HealthResponse struct {
	Status       string  `json:"status"` // "ok" | "waiting_for_data"
	Series       string  `json:"series"`
	LatestValue  float64 `json:"latest_value,omitempty"`
	LastSampleAt string  `json:"last_sample_at,omitempty"` // RFC3339
	RecentAlerts int     `json:"recent_alerts"`
}

// SampleResponse is one sample entry in GET /api/v1/samples.
type SampleResponse struct {
	Timestamp string  `json:"timestamp"` // RFC3339
	Value     float64 `json:"value"`
}

// SamplesResponse is the payload for GET /api/v1/samples.
type SamplesResponse struct {
	Series  string           `json:"series"`
	From    string           `json:"from"` // RFC3339
	To      string           `json:"to"`   // RFC3339
	Samples []SampleResponse `json:"samples"`
}

// LatestResponse is the payload for GET /api/v1/latest: the newest sample
// together with the threshold state it is evaluated against.
type LatestResponse struct {
	Series      string  `json:"series"`
	Timestamp   string  `json:"timestamp"` // RFC3339
	Value       float64 `json:"value"`
	Threshold   float64 `json:"threshold"`
	Average     float64 `json:"average"`
	SampleCount int     `json:"sample_count"`
}

// AlertsResponse is the payload for GET /api/v1/alerts.
type AlertsResponse struct {
	Alerts []metric.Alert `json:"alerts"`
}

// errorResponse is a generic JSON error body.
type errorResponse struct {
	Error string `json:"error"`
}
