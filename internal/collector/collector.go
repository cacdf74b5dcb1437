package collector

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pulsewatch/pulsewatch/internal/metric"
	"github.com/pulsewatch/pulsewatch/internal/metrics"
	"github.com/pulsewatch/pulsewatch/internal/source"
	"github.com/pulsewatch/pulsewatch/internal/store"
)

// Collector samples the source once per cycle and appends the result to the
// store. A failed cycle (fetch error or append error) is reported to the
// scheduler and skipped; there is no mid-cycle retry.
type Collector struct {
	series string
	source source.Source
	store  store.Store
	now    func() time.Time // injectable for deterministic tests
}

// New creates a Collector writing to the named series.
func New(series string, src source.Source, st store.Store) *Collector {
	return &Collector{
		series: series,
		source: src,
		store:  st,
		now:    time.Now,
	}
}

// Name implements sched.Task.
func (c *Collector) Name() string { return "collector" }

// Cycle fetches the current value and appends it with the cycle's timestamp.
// No sample is written when the fetch fails.
func (c *Collector) Cycle(ctx context.Context) error {
	value, err := c.source.Fetch(ctx)
	if err != nil {
		metrics.CollectCycles.WithLabelValues("error").Inc()
		return fmt.Errorf("collect %s: fetch: %w", c.series, err)
	}

	s := metric.Sample{Timestamp: c.now(), Value: value}
	if err := c.store.Append(ctx, c.series, s); err != nil {
		metrics.CollectCycles.WithLabelValues("error").Inc()
		return fmt.Errorf("collect %s: append at %s: %w", c.series, s.Timestamp.UTC(), err)
	}

	metrics.CollectCycles.WithLabelValues("ok").Inc()
	metrics.SamplesAppended.Inc()
	metrics.LatestValue.Set(value)
	slog.Debug("collector: sample appended", "series", c.series, "value", value)
	return nil
}
