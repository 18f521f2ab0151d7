// Package sequence implements core/sequence.Allocator on top of a counter Store.
// This is the infrastructure layer: Postgres and Redis stores live next to their clients.
package sequence

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	coresequence "admissions/internal/core/sequence"
	"admissions/internal/infrastructure/metrics"
	"admissions/pkg/logger"
)

var tracer = otel.Tracer("admissions/sequence")

// Service allocates numbers through the atomic increment of its Store.
// It keeps no per-sequence state in memory: every call is a store round-trip,
// which is what keeps numbers unique across server instances.
type Service struct {
	store   coresequence.Store
	cfg     coresequence.Config
	metrics *metrics.Metrics
	log     *logger.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithMetrics attaches Prometheus collectors.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLogger overrides the component logger.
func WithLogger(l *logger.Logger) Option {
	return func(s *Service) { s.log = l }
}

// Ensure compile-time interface compliance.
var _ coresequence.Allocator = (*Service)(nil)

// New creates an allocator over store with the given starting values.
func New(store coresequence.Store, cfg coresequence.Config, opts ...Option) *Service {
	s := &Service{
		store: store,
		cfg:   cfg,
		log:   logger.Default().WithComponent("sequence"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Next increments the named counter by one and returns the new value.
func (s *Service) Next(ctx context.Context, name string) (int64, error) {
	if s == nil {
		return 0, fmt.Errorf("sequence service is not initialized")
	}
	if name == "" {
		return 0, coresequence.ErrEmptyName
	}

	ctx, span := tracer.Start(ctx, "sequence.next",
		trace.WithAttributes(attribute.String("sequence.name", name)))
	defer span.End()

	v, err := s.increment(ctx, span, name, 1, "single")
	if err != nil {
		return 0, err
	}

	span.SetAttributes(attribute.Int64("sequence.value", v))
	return v, nil
}

// NextBatch increments the named counter by count and returns the reserved
// range [V-count+1, V] in ascending order.
func (s *Service) NextBatch(ctx context.Context, name string, count int) ([]int64, error) {
	if s == nil {
		return nil, fmt.Errorf("sequence service is not initialized")
	}
	if name == "" {
		return nil, coresequence.ErrEmptyName
	}
	if count < 0 {
		return nil, fmt.Errorf("%w: %d", coresequence.ErrInvalidCount, count)
	}
	if count == 0 {
		return []int64{}, nil
	}

	ctx, span := tracer.Start(ctx, "sequence.next_batch",
		trace.WithAttributes(
			attribute.String("sequence.name", name),
			attribute.Int("sequence.count", count),
		))
	defer span.End()

	last, err := s.increment(ctx, span, name, int64(count), "batch")
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int64("sequence.last", last))
	return coresequence.Range(last, count), nil
}

// increment performs the single store round-trip shared by Next and NextBatch.
func (s *Service) increment(ctx context.Context, span trace.Span, name string, delta int64, kind string) (int64, error) {
	started := time.Now()
	v, err := s.store.Increment(ctx, name, delta, s.cfg.Start(name))
	s.metrics.ObserveLatency(name, kind, time.Since(started).Seconds())

	if err != nil {
		s.metrics.ObserveAllocationError(name)
		span.RecordError(err)
		span.SetStatus(codes.Error, "increment failed")
		s.log.WithContext(ctx).Errorw("sequence increment failed",
			"sequence", name,
			"delta", delta,
			"error", err,
		)
		return 0, fmt.Errorf("%w: increment %s by %d: %w", coresequence.ErrStoreUnavailable, name, delta, err)
	}

	s.metrics.ObserveIssued(name, int(delta))
	return v, nil
}
