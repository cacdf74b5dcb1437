package metric

import "time"

// Sample is one observed value of a monitored metric. The timestamp is the
// unique key within a series; a Sample is immutable once written to the store.
type Sample struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// Alert is produced when the latest sample of a series exceeds its dynamic
// threshold. Alerts are transient: they are handed to the notifier and kept
// only in a bounded in-memory history for the API and websocket surfaces.
type Alert struct {
	ID        string    `json:"id"`
	Series    string    `json:"series"`
	Threshold float64   `json:"threshold"`
	Value     float64   `json:"value"`
	FiredAt   time.Time `json:"fired_at"`
}
