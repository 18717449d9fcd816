package store

import (
	"context"
	"errors"
	"time"

	"github.com/xiaot623/nexusdesk/internal/metrics"
)

// Instrumented wraps a Store and records latency and errors per call.
type Instrumented struct {
	next Store
}

// WithMetrics returns s wrapped with Prometheus instrumentation.
func WithMetrics(s Store) *Instrumented {
	return &Instrumented{next: s}
}

func observe(op string, start time.Time, err error) {
	metrics.StoreDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.StoreErrors.WithLabelValues(op).Inc()
	}
}

func (s *Instrumented) List(ctx context.Context) ([]Entry, error) {
	start := time.Now()
	entries, err := s.next.List(ctx)
	observe("list", start, err)
	return entries, err
}

func (s *Instrumented) Get(ctx context.Context, key string) ([]byte, error) {
	start := time.Now()
	v, err := s.next.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		observe("get", start, nil)
		return nil, err
	}
	observe("get", start, err)
	return v, err
}

func (s *Instrumented) Put(ctx context.Context, key string, value []byte) error {
	start := time.Now()
	err := s.next.Put(ctx, key, value)
	observe("put", start, err)
	return err
}

func (s *Instrumented) PutMany(ctx context.Context, entries []Entry) error {
	start := time.Now()
	err := s.next.PutMany(ctx, entries)
	observe("put_many", start, err)
	return err
}

func (s *Instrumented) Delete(ctx context.Context, key string) (bool, error) {
	start := time.Now()
	ok, err := s.next.Delete(ctx, key)
	observe("delete", start, err)
	return ok, err
}

func (s *Instrumented) DeleteMany(ctx context.Context, keys []string) (int, error) {
	start := time.Now()
	n, err := s.next.DeleteMany(ctx, keys)
	observe("delete_many", start, err)
	return n, err
}

func (s *Instrumented) Close() error {
	return s.next.Close()
}
