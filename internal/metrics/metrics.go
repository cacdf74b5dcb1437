// Package metrics defines the process's own Prometheus instrumentation,
// exposed at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Collector loop
	CollectCycles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulsewatch_collect_cycles_total",
			Help: "Total collector cycles by outcome",
		},
		[]string{"status"}, // status: ok, error
	)

	SamplesAppended = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pulsewatch_samples_appended_total",
			Help: "Total samples written to the time-series store",
		},
	)

	LatestValue = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pulsewatch_latest_value",
			Help: "Most recently collected sample value",
		},
	)

	// Evaluator loop
	EvaluateCycles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulsewatch_evaluate_cycles_total",
			Help: "Total evaluator cycles by outcome",
		},
		[]string{"status"}, // status: ok, skipped, error
	)

	CurrentThreshold = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pulsewatch_current_threshold",
			Help: "Dynamic alert threshold computed on the last evaluation",
		},
	)

	AlertsFired = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pulsewatch_alerts_fired_total",
			Help: "Total alerts fired",
		},
	)

	// Notification delivery
	NotifierDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulsewatch_notifier_deliveries_total",
			Help: "Total alert deliveries by channel and outcome",
		},
		[]string{"channel", "status"}, // status: ok, error
	)
)
