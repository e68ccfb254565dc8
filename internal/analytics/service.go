package analytics

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Ofi-Services/unified-backend/internal/observability"
	"github.com/Ofi-Services/unified-backend/model"
)

// Store is the persistence the analytics pass reads from and writes into.
type Store interface {
	AllActivities(ctx context.Context) ([]model.Activity, error)
	SetActivityTPTs(ctx context.Context, tpt map[int64]float64) error
	SetCaseAvgTimes(ctx context.Context, avg map[int]float64) error
	ReplaceVariants(ctx context.Context, vs []model.Variant) error
}

// Recorder receives analytics timings for metrics.
type Recorder interface {
	RecordAnalytics(duration time.Duration, variants int)
}

type nopRecorder struct{}

func (nopRecorder) RecordAnalytics(time.Duration, int) {}

// Service runs the analytics pass against a Store.
type Service struct {
	store    Store
	logger   *zap.Logger
	recorder Recorder
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger. The default discards output.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// NewService creates a Service.
func NewService(store Store, opts ...Option) *Service {
	s := &Service{store: store, logger: zap.NewNop(), recorder: nopRecorder{}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Recompute reads every activity, recomputes variants, TPT and per-case
// durations and writes them back. Variants are replaced as a whole.
func (s *Service) Recompute(ctx context.Context) (Result, error) {
	ctx, span := observability.StartSpan(ctx, "analytics.recompute")
	var err error
	defer func() { observability.EndSpanWithError(span, err) }()

	start := time.Now()

	activities, err := s.store.AllActivities(ctx)
	if err != nil {
		err = fmt.Errorf("load activities: %w", err)
		return Result{}, err
	}

	res := Compute(activities)

	if err = s.store.SetActivityTPTs(ctx, res.TPT); err != nil {
		err = fmt.Errorf("write tpt: %w", err)
		return Result{}, err
	}
	if err = s.store.SetCaseAvgTimes(ctx, res.AvgTime); err != nil {
		err = fmt.Errorf("write avg_time: %w", err)
		return Result{}, err
	}
	if err = s.store.ReplaceVariants(ctx, res.Variants); err != nil {
		err = fmt.Errorf("write variants: %w", err)
		return Result{}, err
	}

	elapsed := time.Since(start)
	s.recorder.RecordAnalytics(elapsed, len(res.Variants))
	span.SetAttributes(
		observability.AttrActivities.Int(len(activities)),
		observability.AttrVariants.Int(len(res.Variants)),
	)
	s.logger.Info("analytics recomputed",
		zap.Int("activities", len(activities)),
		zap.Int("cases", len(res.AvgTime)),
		zap.Int("variants", len(res.Variants)),
		zap.Duration("duration", elapsed),
	)
	return res, nil
}

// Analyze recomputes the analytics and returns the number of variants.
func (s *Service) Analyze(ctx context.Context) (int, error) {
	res, err := s.Recompute(ctx)
	if err != nil {
		return 0, err
	}
	return len(res.Variants), nil
}

// ActivityTimes returns the mean time spent per activity name over the
// stored log.
func (s *Service) ActivityTimes(ctx context.Context) ([]model.ActivityTime, error) {
	activities, err := s.store.AllActivities(ctx)
	if err != nil {
		return nil, fmt.Errorf("load activities: %w", err)
	}
	return MeanTimePerActivity(activities), nil
}
