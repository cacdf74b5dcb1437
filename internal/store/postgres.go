package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/pulsewatch/pulsewatch/internal/metric"
)

const (
	pgOpenTimeout = 5 * time.Second

	// Postgres error code for unique_violation.
	pgUniqueViolation = "23505"
)

// postgresStore keeps samples in a single (series, ts, value) table with a
// composite primary key. Timestamps are stored as UnixNano BIGINT so ordering
// and equality are exact regardless of server timezone settings.
type postgresStore struct {
	db *sql.DB
}

func openPostgres(dsn string) (Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("%w: empty postgres dsn", ErrStoreUnavailable)
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open postgres: %v", ErrStoreUnavailable, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), pgOpenTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: ping postgres: %v", ErrStoreUnavailable, err)
	}

	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS samples (
			series TEXT             NOT NULL,
			ts     BIGINT           NOT NULL,
			value  DOUBLE PRECISION NOT NULL,
			PRIMARY KEY (series, ts)
		)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: create samples table: %v", ErrStoreUnavailable, err)
	}

	return &postgresStore{db: db}, nil
}

func (p *postgresStore) Append(ctx context.Context, series string, s metric.Sample) error {
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO samples (series, ts, value) VALUES ($1, $2, $3)`,
		series, s.Timestamp.UnixNano(), s.Value,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation {
			return fmt.Errorf("%w: series %s at %s", ErrDuplicateTimestamp, series, s.Timestamp.UTC())
		}
		return fmt.Errorf("%w: append to %s: %v", ErrStoreUnavailable, series, err)
	}
	return nil
}

func (p *postgresStore) QueryRange(ctx context.Context, series string, from, to time.Time) ([]metric.Sample, error) {
	if err := p.seriesExists(ctx, series); err != nil {
		return nil, err
	}

	rows, err := p.db.QueryContext(ctx,
		`SELECT ts, value FROM samples
		 WHERE series = $1 AND ts >= $2 AND ts <= $3
		 ORDER BY ts ASC`,
		series, from.UnixNano(), to.UnixNano(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: query %s: %v", ErrStoreUnavailable, series, err)
	}
	defer rows.Close()

	samples := []metric.Sample{}
	for rows.Next() {
		var ts int64
		var value float64
		if err := rows.Scan(&ts, &value); err != nil {
			return nil, fmt.Errorf("%w: scan %s: %v", ErrStoreUnavailable, series, err)
		}
		samples = append(samples, metric.Sample{Timestamp: time.Unix(0, ts), Value: value})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate %s: %v", ErrStoreUnavailable, series, err)
	}
	return samples, nil
}

func (p *postgresStore) Latest(ctx context.Context, series string) (metric.Sample, error) {
	var ts int64
	var value float64
	err := p.db.QueryRowContext(ctx,
		`SELECT ts, value FROM samples WHERE series = $1 ORDER BY ts DESC LIMIT 1`,
		series,
	).Scan(&ts, &value)

	if err == sql.ErrNoRows {
		return metric.Sample{}, fmt.Errorf("%w: %s", ErrSeriesNotFound, series)
	}
	if err != nil {
		return metric.Sample{}, fmt.Errorf("%w: latest of %s: %v", ErrStoreUnavailable, series, err)
	}
	return metric.Sample{Timestamp: time.Unix(0, ts), Value: value}, nil
}

func (p *postgresStore) Close() error {
	return p.db.Close()
}

func (p *postgresStore) seriesExists(ctx context.Context, series string) error {
	var exists bool
	err := p.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM samples WHERE series = $1)`,
		series,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("%w: check series %s: %v", ErrStoreUnavailable, series, err)
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrSeriesNotFound, series)
	}
	return nil
}
