package store

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/pulsewatch/pulsewatch/internal/metric"
)

// Key layout:
//
//	m/<series>              series registry marker, written on first append
//	s/<series>/<ts BE u64>  one sample, value = float64 bits (8 bytes BE)
//
// Timestamps are stored as big-endian UnixNano so badger's lexicographic key
// order is chronological order and range queries are a single prefix scan.
type badgerStore struct {
	db *badger.DB

	// Append is the only mutation; serialize it so duplicate detection and
	// the insert are atomic with respect to other writers.
	mu sync.Mutex
}

// openBadger opens (or creates) the badger database at path.
func openBadger(path string) (Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: open badger at %s: %v", ErrStoreUnavailable, path, err)
	}
	return &badgerStore{db: db}, nil
}

func (b *badgerStore) Append(ctx context.Context, series string, s metric.Sample) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	key := sampleKey(series, s.Timestamp)
	err := b.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); err == nil {
			return ErrDuplicateTimestamp
		} else if err != badger.ErrKeyNotFound {
			return err
		}

		if _, err := txn.Get(seriesKey(series)); err == badger.ErrKeyNotFound {
			if err := txn.Set(seriesKey(series), nil); err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		var val [8]byte
		binary.BigEndian.PutUint64(val[:], math.Float64bits(s.Value))
		return txn.Set(key, val[:])
	})

	if err == ErrDuplicateTimestamp {
		return fmt.Errorf("%w: series %s at %s", ErrDuplicateTimestamp, series, s.Timestamp.UTC())
	}
	if err != nil {
		return fmt.Errorf("%w: append to %s: %v", ErrStoreUnavailable, series, err)
	}
	return nil
}

func (b *badgerStore) QueryRange(ctx context.Context, series string, from, to time.Time) ([]metric.Sample, error) {
	samples := []metric.Sample{}

	err := b.db.View(func(txn *badger.Txn) error {
		if err := seriesExists(txn, series); err != nil {
			return err
		}
		if to.Before(from) {
			return nil
		}

		prefix := samplePrefix(series)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		end := sampleKey(series, to)
		for it.Seek(sampleKey(series, from)); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			if bytes.Compare(item.Key(), end) > 0 {
				break
			}
			ts := timestampFromKey(item.Key(), prefix)
			val, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			samples = append(samples, metric.Sample{
				Timestamp: ts,
				Value:     math.Float64frombits(binary.BigEndian.Uint64(val)),
			})
		}
		return nil
	})

	if err == ErrSeriesNotFound {
		return nil, fmt.Errorf("%w: %s", ErrSeriesNotFound, series)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: query %s: %v", ErrStoreUnavailable, series, err)
	}
	return samples, nil
}

func (b *badgerStore) Latest(ctx context.Context, series string) (metric.Sample, error) {
	var latest metric.Sample

	err := b.db.View(func(txn *badger.Txn) error {
		if err := seriesExists(txn, series); err != nil {
			return err
		}

		prefix := samplePrefix(series)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		// Seek past every possible timestamp; the first valid item in
		// reverse order is the greatest key in the series.
		seek := append(append([]byte{}, prefix...), 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff)
		it.Seek(seek)
		if !it.ValidForPrefix(prefix) {
			// Series marker without samples cannot occur through Append,
			// but guard anyway.
			return ErrSeriesNotFound
		}

		item := it.Item()
		val, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		latest = metric.Sample{
			Timestamp: timestampFromKey(item.Key(), prefix),
			Value:     math.Float64frombits(binary.BigEndian.Uint64(val)),
		}
		return nil
	})

	if err == ErrSeriesNotFound {
		return metric.Sample{}, fmt.Errorf("%w: %s", ErrSeriesNotFound, series)
	}
	if err != nil {
		return metric.Sample{}, fmt.Errorf("%w: latest of %s: %v", ErrStoreUnavailable, series, err)
	}
	return latest, nil
}

func (b *badgerStore) Close() error {
	return b.db.Close()
}

// seriesExists returns ErrSeriesNotFound unless the registry marker is present.
func seriesExists(txn *badger.Txn, series string) error {
	if _, err := txn.Get(seriesKey(series)); err == badger.ErrKeyNotFound {
		return ErrSeriesNotFound
	} else if err != nil {
		return err
	}
	return nil
}

func seriesKey(series string) []byte {
	return []byte("m/" + series)
}

func samplePrefix(series string) []byte {
	return []byte("s/" + series + "/")
}

func sampleKey(series string, ts time.Time) []byte {
	key := samplePrefix(series)
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(ts.UnixNano()))
	return append(key, buf[:]...)
}

func timestampFromKey(key, prefix []byte) time.Time {
	n := binary.BigEndian.Uint64(key[len(prefix):])
	return time.Unix(0, int64(n))
}
