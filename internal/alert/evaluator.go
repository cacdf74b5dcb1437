package alert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pulsewatch/pulsewatch/internal/metric"
	"github.com/pulsewatch/pulsewatch/internal/metrics"
	"github.com/pulsewatch/pulsewatch/internal/store"
	"github.com/pulsewatch/pulsewatch/internal/threshold"
)

// maxHistory bounds the in-memory alert history served to the API and the
// websocket stream.
const maxHistory = 200

// Evaluator compares the latest sample of a series against its dynamic
// threshold once per cycle and notifies on breach.
//
// A breach fires exactly one notification per evaluation cycle. There is no
// cooldown or suppression window: a value that stays above the threshold
// re-notifies on every cycle.
type Evaluator struct {
	series   string
	store    store.Store
	calc     *threshold.Calculator
	notifier Notifier
	window   time.Duration
	floor    float64
	now      func() time.Time // injectable for deterministic tests

	mu      sync.Mutex
	history []metric.Alert // newest last
}

// NewEvaluator wires the evaluator to its store, calculator, and notifier.
func NewEvaluator(series string, st store.Store, calc *threshold.Calculator, n Notifier, window time.Duration, floor float64) *Evaluator {
	return &Evaluator{
		series:   series,
		store:    st,
		calc:     calc,
		notifier: n,
		window:   window,
		floor:    floor,
		now:      time.Now,
	}
}

// Name implements sched.Task.
func (e *Evaluator) Name() string { return "evaluator" }

// Cycle runs one evaluation. A series that does not exist yet, or a window
// with no samples, is skipped silently: the collector simply has not written
// data yet. Delivery failures are logged by the notifier and never fail the
// cycle.
func (e *Evaluator) Cycle(ctx context.Context) error {
	latest, err := e.store.Latest(ctx, e.series)
	if errors.Is(err, store.ErrSeriesNotFound) {
		metrics.EvaluateCycles.WithLabelValues("skipped").Inc()
		slog.Debug("evaluator: no data yet", "series", e.series)
		return nil
	}
	if err != nil {
		metrics.EvaluateCycles.WithLabelValues("error").Inc()
		return fmt.Errorf("evaluate %s: latest: %w", e.series, err)
	}

	res, err := e.calc.Compute(ctx, e.series, e.now(), e.window)
	if err != nil {
		metrics.EvaluateCycles.WithLabelValues("error").Inc()
		return fmt.Errorf("evaluate %s: compute threshold: %w", e.series, err)
	}
	metrics.CurrentThreshold.Set(res.Threshold)

	if res.SampleCount == 0 {
		// Degenerate zero threshold from an empty window; never alert on it.
		metrics.EvaluateCycles.WithLabelValues("skipped").Inc()
		return nil
	}

	if latest.Value > res.Threshold && res.Threshold > e.floor {
		a := metric.Alert{
			ID:        uuid.NewString(),
			Series:    e.series,
			Threshold: res.Threshold,
			Value:     latest.Value,
			FiredAt:   e.now(),
		}
		e.record(a)
		metrics.AlertsFired.Inc()
		slog.Warn("alert fired",
			"series", e.series,
			"value", latest.Value,
			"threshold", res.Threshold,
			"average", res.Average,
		)
		_ = e.notifier.Notify(ctx, a)
	}

	metrics.EvaluateCycles.WithLabelValues("ok").Inc()
	return nil
}

// Recent returns copies of recently fired alerts, newest first.
func (e *Evaluator) Recent() []metric.Alert {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]metric.Alert, 0, len(e.history))
	for i := len(e.history) - 1; i >= 0; i-- {
		out = append(out, e.history[i])
	}
	return out
}

func (e *Evaluator) record(a metric.Alert) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.history = append(e.history, a)
	if len(e.history) > maxHistory {
		e.history = e.history[len(e.history)-maxHistory:]
	}
}
