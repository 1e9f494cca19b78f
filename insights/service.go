package insights

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/mmdatafocus/storefront_insights/config"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
)

var tracer = otel.Tracer("storefront-insights")

const generatedAtLayout = "2006-01-02T15:04:05.000Z07:00"

// GeneratedEvent is emitted after every fresh generation.
type GeneratedEvent struct {
	Fingerprint string     `json:"fingerprint"`
	GeneratedAt time.Time  `json:"generatedAt"`
	Source      Origin     `json:"source"`
	RawMetrics  RawMetrics `json:"rawMetrics"`
}

// Notifier receives generation events. Implementations must not block.
type Notifier interface {
	InsightsGenerated(ctx context.Context, event GeneratedEvent)
}

type Service struct {
	aggregator  *Aggregator
	generator   *Generator
	synthesizer *Synthesizer
	cache       *Cache

	locker          *redislock.Client
	lockTTL         time.Duration
	notifier        Notifier
	fallbackOnError bool
	now             func() time.Time

	flights singleflight.Group
}

type ServiceOption func(*Service)

// WithLocker guards generation across replicas with a redis lock per fingerprint.
func WithLocker(locker *redislock.Client, ttl time.Duration) ServiceOption {
	return func(s *Service) {
		s.locker = locker
		s.lockTTL = ttl
	}
}

func WithNotifier(n Notifier) ServiceOption {
	return func(s *Service) { s.notifier = n }
}

// WithFallbackOnError answers with the uncached fallback when the generation call fails.
func WithFallbackOnError(enabled bool) ServiceOption {
	return func(s *Service) { s.fallbackOnError = enabled }
}

func WithServiceClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

func NewService(aggregator *Aggregator, generator *Generator, synthesizer *Synthesizer, cache *Cache, opts ...ServiceOption) *Service {
	s := &Service{
		aggregator:  aggregator,
		generator:   generator,
		synthesizer: synthesizer,
		cache:       cache,
		lockTTL:     time.Minute,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Cache() *Cache {
	return s.cache
}

type flightResult struct {
	entry  CacheEntry
	cached bool
}

// Generate answers one insights request. rawMetrics always come from this request's aggregation.
func (s *Service) Generate(ctx context.Context) (*Response, error) {
	ctx, span := tracer.Start(ctx, "insights.request")
	defer span.End()

	agg, err := s.aggregator.Aggregate(ctx)
	if err != nil {
		return nil, err
	}

	fingerprint, err := Fingerprint(agg.Summary)
	if err != nil {
		return nil, fmt.Errorf("insights: fingerprint: %w", err)
	}

	if entry, ok := s.cache.Get(fingerprint); ok {
		annotateRequest(ctx, fingerprint, true)
		return s.respond(entry, agg.Metrics, true), nil
	}

	config.GetLogger().WithFields(logrus.Fields{
		"field":       "insightsCache",
		"fingerprint": fingerprint,
	}).Info("cache miss, calling generator")

	v, err, _ := s.flights.Do(fingerprint, func() (any, error) {
		return s.generateFresh(ctx, fingerprint, agg)
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	res := v.(flightResult)
	annotateRequest(ctx, fingerprint, res.cached)
	return s.respond(res.entry, agg.Metrics, res.cached), nil
}

// generateFresh runs inside the flight for fingerprint. Waiters share its result,
// so it detaches from the caller's cancellation and relies on the generator timeout.
func (s *Service) generateFresh(ctx context.Context, fingerprint string, agg *Aggregate) (flightResult, error) {
	if entry, ok := s.cache.Get(fingerprint); ok {
		return flightResult{entry: entry, cached: true}, nil
	}

	ctx = context.WithoutCancel(ctx)
	release := s.obtainLock(ctx, fingerprint)
	defer release()

	logger := config.GetLogger()
	text, err := s.generator.Generate(ctx, agg.Summary)
	if err != nil {
		if !s.fallbackOnError {
			return flightResult{}, err
		}
		config.LogError(logger, "service.go", "generateFresh", "generation failed, serving fallback", fingerprint, err)
		entry := CacheEntry{
			Fingerprint: fingerprint,
			Insights:    s.synthesizer.Fallback(agg),
			RawMetrics:  agg.Metrics,
			GeneratedAt: s.now().UTC(),
		}
		s.notify(ctx, entry, OriginFallback)
		return flightResult{entry: entry}, nil
	}

	insights, origin := s.synthesizer.Synthesize(text, agg)
	entry := CacheEntry{
		Fingerprint: fingerprint,
		Insights:    insights,
		RawMetrics:  agg.Metrics,
		GeneratedAt: s.now().UTC(),
	}
	s.cache.Put(entry)
	s.notify(ctx, entry, origin)
	return flightResult{entry: entry}, nil
}

func annotateRequest(ctx context.Context, fingerprint string, cached bool) {
	trace.SpanFromContext(ctx).SetAttributes(
		attribute.String("insights.fingerprint", fingerprint),
		attribute.Bool("insights.cached", cached),
	)
}

// obtainLock is best effort. Without redis, or when the lock stays busy, generation proceeds unguarded.
func (s *Service) obtainLock(ctx context.Context, fingerprint string) func() {
	noop := func() {}
	if s.locker == nil {
		return noop
	}

	logger := config.GetLogger()
	key := fmt.Sprintf("lock:insights:%s", fingerprint)
	lock, err := s.locker.Obtain(ctx, key, s.lockTTL, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(250*time.Millisecond), 20),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		logger.WithFields(logrus.Fields{"field": "insightsLock", "key": key}).
			Warn("could not obtain redis lock; proceeding without redis lock")
		return noop
	} else if err != nil {
		logger.WithFields(logrus.Fields{"field": "insightsLock", "key": key}).
			Warn("error obtaining redis lock; proceeding without redis lock: " + err.Error())
		return noop
	}
	return func() {
		if releaseErr := lock.Release(ctx); releaseErr != nil {
			logger.WithFields(logrus.Fields{"field": "insightsLock", "key": key}).
				Warn("failed to release redis lock: " + releaseErr.Error())
		}
	}
}

func (s *Service) notify(ctx context.Context, entry CacheEntry, origin Origin) {
	if s.notifier == nil {
		return
	}
	s.notifier.InsightsGenerated(ctx, GeneratedEvent{
		Fingerprint: entry.Fingerprint,
		GeneratedAt: entry.GeneratedAt,
		Source:      origin,
		RawMetrics:  entry.RawMetrics,
	})
}

func (s *Service) respond(entry CacheEntry, metrics RawMetrics, cached bool) *Response {
	return &Response{
		Success:     true,
		Insights:    entry.Insights,
		RawMetrics:  metrics,
		GeneratedAt: entry.GeneratedAt.UTC().Format(generatedAtLayout),
		Cached:      cached,
	}
}
