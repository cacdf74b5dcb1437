package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pulsewatch/pulsewatch/internal/config"
	"github.com/pulsewatch/pulsewatch/internal/metric"
)

// Sentinel errors returned by Store implementations. Backend failures are
// wrapped in ErrStoreUnavailable so callers can match with errors.Is without
// knowing which backend is configured.
var (
	ErrSeriesNotFound     = errors.New("store: series not found")
	ErrDuplicateTimestamp = errors.New("store: duplicate timestamp")
	ErrStoreUnavailable   = errors.New("store: unavailable")
)

// Store is an append-only, timestamp-keyed time-series store.
//
// Duplicate handling: Append rejects a sample whose timestamp already exists
// in the series with ErrDuplicateTimestamp; existing samples are never
// overwritten. Samples are immutable once written.
//
// Store implementations are safe for concurrent readers with a single
// concurrent writer.
type Store interface {
	// Append writes one sample to the named series, creating the series on
	// first write.
	Append(ctx context.Context, series string, s metric.Sample) error

	// QueryRange returns all samples with from <= timestamp <= to, ascending
	// by timestamp. A range containing no samples yields an empty slice, not
	// an error. Re-invoking with the same bounds yields the same result set
	// barring concurrent appends.
	QueryRange(ctx context.Context, series string, from, to time.Time) ([]metric.Sample, error)

	// Latest returns the sample with the greatest timestamp in the series.
	Latest(ctx context.Context, series string) (metric.Sample, error)

	Close() error
}

// Open constructs the Store selected by cfg.Backend.
func Open(cfg config.StorageConfig) (Store, error) {
	switch cfg.Backend {
	case "badger":
		return openBadger(cfg.Path)
	case "postgres":
		return openPostgres(cfg.DSN())
	default:
		return nil, fmt.Errorf("store: unknown backend %q", cfg.Backend)
	}
}
