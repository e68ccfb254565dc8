package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"k8s.io/utils/clock"

	"github.com/Ofi-Services/unified-backend/internal/analytics"
	"github.com/Ofi-Services/unified-backend/internal/config"
	"github.com/Ofi-Services/unified-backend/internal/simulation"
)

type generateOptions struct {
	cases int
	seed  uint64
	reset bool
}

func newGenerateCommand(root *rootOptions) *cobra.Command {
	opts := &generateOptions{}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Simulate insurance cases into the event log",
		Long: `Generate creates cases with random attributes, walks each one through the
policy workflow, records reworks and bills, then recomputes variants and
case times. A JSON run summary is printed to stdout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return generate(cmd.Context(), cmd.OutOrStdout(), root, cmd, opts)
		},
	}
	cmd.Flags().IntVarP(&opts.cases, "cases", "n", 0, "override simulation.cases")
	cmd.Flags().Uint64Var(&opts.seed, "seed", 0, "override simulation.seed")
	cmd.Flags().BoolVar(&opts.reset, "reset", false, "clear the store before generating")
	return cmd
}

func generate(ctx context.Context, out io.Writer, root *rootOptions, cmd *cobra.Command, opts *generateOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := bootstrap(ctx, root, func(cfg *config.Config) {
		if cmd.Flags().Changed("cases") {
			cfg.Simulation.Cases = opts.cases
		}
		if cmd.Flags().Changed("seed") {
			cfg.Simulation.Seed = opts.seed
		}
		if opts.reset {
			cfg.Simulation.Reset = true
		}
	})
	if err != nil {
		return err
	}
	defer a.close(context.Background())

	cfg := a.cfg.Simulation
	if cfg.Reset {
		if err := a.store.Reset(ctx); err != nil {
			return fmt.Errorf("reset store: %w", err)
		}
		a.logger.Info("store reset")
	}

	vocab, err := a.vocabulary()
	if err != nil {
		return fmt.Errorf("vocabulary: %w", err)
	}
	existing, err := a.store.CaseIDs(ctx)
	if err != nil {
		return fmt.Errorf("list case ids: %w", err)
	}

	src := a.randomSource()
	ids := simulation.NewIDAllocator(src, existing)
	generator := simulation.NewGenerator(vocab, src, ids, a.store)
	engine := simulation.NewEngine(simulation.DefaultGraph(), a.store, src, vocab.ReworkCauses, clock.RealClock{},
		simulation.WithMeanStep(cfg.MeanStep),
		simulation.WithMaxSteps(cfg.MaxSteps),
		simulation.WithRecorder(a.metrics),
	)
	analyzer := analytics.NewService(a.store,
		analytics.WithLogger(a.logger),
		analytics.WithRecorder(a.metrics),
	)

	summary, err := simulation.NewDriver(generator, engine, analyzer, a.logger).Run(ctx, cfg.Cases)
	if summary.Generated > 0 || cfg.Reset {
		a.flushCache(ctx)
	}
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		a.logger.Warn("some cases failed", zap.Int("failed", summary.Failed))
	}
	return writeJSON(out, summary)
}

func newAnalyzeCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze",
		Short: "Recompute variants, case times and activity TPT",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return analyze(cmd.Context(), cmd.OutOrStdout(), root)
		},
	}
}

func analyze(ctx context.Context, out io.Writer, root *rootOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := bootstrap(ctx, root, nil)
	if err != nil {
		return err
	}
	defer a.close(context.Background())

	svc := analytics.NewService(a.store,
		analytics.WithLogger(a.logger),
		analytics.WithRecorder(a.metrics),
	)
	res, err := svc.Recompute(ctx)
	if err != nil {
		return err
	}
	a.flushCache(ctx)
	return writeJSON(out, map[string]int{
		"cases":      len(res.AvgTime),
		"variants":   len(res.Variants),
		"activities": len(res.TPT),
	})
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
