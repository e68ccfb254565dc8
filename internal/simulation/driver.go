package simulation

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Ofi-Services/unified-backend/internal/observability"
)

const defaultProgressEvery = 100

// Analyzer recomputes the derived analytics once generation has finished.
// It returns the number of variants discovered.
type Analyzer interface {
	Analyze(ctx context.Context) (int, error)
}

// RunSummary reports what one generation run produced.
type RunSummary struct {
	Requested  int           `json:"requested"`
	Generated  int           `json:"generated"`
	Failed     int           `json:"failed"`
	Approved   int           `json:"approved"`
	Activities int           `json:"activities"`
	Reworks    int           `json:"reworks"`
	Bills      int           `json:"bills"`
	Variants   int           `json:"variants"`
	Duration   time.Duration `json:"duration"`
}

// Driver generates cases one after another and runs analytics at the end.
type Driver struct {
	generator     *Generator
	engine        *Engine
	analyzer      Analyzer
	recorder      Recorder
	logger        *zap.Logger
	progressEvery int
}

// NewDriver creates a Driver. analyzer may be nil to skip post-processing.
func NewDriver(generator *Generator, engine *Engine, analyzer Analyzer, logger *zap.Logger) *Driver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Driver{
		generator:     generator,
		engine:        engine,
		analyzer:      analyzer,
		recorder:      engine.recorder,
		logger:        logger,
		progressEvery: defaultProgressEvery,
	}
}

// Run generates n cases sequentially. A case that fails is logged, counted
// and skipped; rows it already wrote are kept. Analytics runs once after the
// last case.
func (d *Driver) Run(ctx context.Context, n int) (RunSummary, error) {
	ctx, span := observability.StartSpan(ctx, "simulation.run",
		observability.AttrCasesRequested.Int(n),
	)
	var runErr error
	defer func() { observability.EndSpanWithError(span, runErr) }()

	start := time.Now()
	summary := RunSummary{Requested: n}

	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			runErr = err
			return summary, err
		}

		res, err := d.runCase(ctx, i)
		if err != nil {
			summary.Failed++
			d.logger.Warn("case generation failed",
				zap.Int("case_index", i),
				zap.Error(err),
			)
			continue
		}

		summary.Generated++
		summary.Activities += res.Activities
		summary.Reworks += res.Reworks
		summary.Bills += res.Bills
		if res.Outcome == OutcomeApproved {
			summary.Approved++
		}

		if (i+1)%d.progressEvery == 0 {
			d.logger.Info("generation progress",
				zap.Int("generated", i+1),
				zap.Int("total", n),
			)
		}
	}

	if d.analyzer != nil {
		variants, err := d.analyzer.Analyze(ctx)
		if err != nil {
			runErr = fmt.Errorf("analytics: %w", err)
			return summary, runErr
		}
		summary.Variants = variants
		span.SetAttributes(observability.AttrVariants.Int(variants))
	}

	summary.Duration = time.Since(start)
	d.logger.Info("generation finished",
		zap.Int("generated", summary.Generated),
		zap.Int("failed", summary.Failed),
		zap.Int("approved", summary.Approved),
		zap.Int("activities", summary.Activities),
		zap.Int("reworks", summary.Reworks),
		zap.Int("bills", summary.Bills),
		zap.Int("variants", summary.Variants),
		zap.Duration("duration", summary.Duration),
	)
	return summary, nil
}

func (d *Driver) runCase(ctx context.Context, index int) (Result, error) {
	ctx, span := observability.StartSpan(ctx, "simulation.case",
		observability.AttrCaseIndex.Int(index),
	)

	c, err := d.generator.NewCase(ctx)
	if err != nil {
		observability.EndSpanWithError(span, err)
		return Result{}, err
	}
	span.SetAttributes(
		observability.AttrCaseID.Int(c.ID),
		observability.AttrCaseType.String(string(c.Type)),
	)

	res, err := d.engine.Run(ctx, &c, index)
	if err != nil {
		d.recorder.RecordCaseFailure(string(c.Type))
		observability.EndSpanWithError(span, err)
		_, failed := observability.StartSpan(ctx, "simulation.case.failed",
			observability.AttrError.Bool(true),
			observability.AttrCaseID.Int(c.ID),
			observability.AttrActivities.Int(res.Activities),
		)
		failed.End()
		return res, err
	}

	d.recorder.RecordCaseCompleted(string(c.Type), res.Outcome.String())
	span.SetAttributes(
		observability.AttrCaseOutcome.String(res.Outcome.String()),
		observability.AttrActivities.Int(res.Activities),
	)
	observability.EndSpanWithError(span, nil)
	return res, nil
}
