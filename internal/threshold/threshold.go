package threshold

import (
	"context"
	"time"

	"github.com/pulsewatch/pulsewatch/internal/store"
)

// Result is the outcome of one threshold computation.
type Result struct {
	// Threshold is the dynamic alert bound: Average * multiplier.
	Threshold float64

	// Average is the arithmetic mean of the window's samples.
	Average float64

	// SampleCount is the number of samples the average was computed over.
	// When zero, Average and Threshold are both 0, a degenerate value that
	// callers must not alert on.
	SampleCount int
}

// Calculator derives a dynamic alert threshold from the trailing average of
// recent samples. It keeps no state between calls: every computation reads
// the store from scratch, so the result is deterministic given the same
// stored data.
type Calculator struct {
	store      store.Store
	multiplier float64
}

// New creates a Calculator that scales the trailing average by multiplier.
func New(st store.Store, multiplier float64) *Calculator {
	return &Calculator{store: st, multiplier: multiplier}
}

// Compute queries the trailing window [now-window, now] and derives the
// threshold. A window containing no samples yields Result{0, 0, 0} without
// error; store errors (including ErrSeriesNotFound) propagate to the caller.
func (c *Calculator) Compute(ctx context.Context, series string, now time.Time, window time.Duration) (Result, error) {
	samples, err := c.store.QueryRange(ctx, series, now.Add(-window), now)
	if err != nil {
		return Result{}, err
	}
	if len(samples) == 0 {
		return Result{}, nil
	}

	var sum float64
	for _, s := range samples {
		sum += s.Value
	}
	avg := sum / float64(len(samples))

	return Result{
		Threshold:   avg * c.multiplier,
		Average:     avg,
		SampleCount: len(samples),
	}, nil
}
