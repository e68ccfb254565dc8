package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Ofi-Services/unified-backend/internal/config"
	"github.com/Ofi-Services/unified-backend/internal/invoice"
)

type invoicesOptions struct {
	seedFile  string
	groups    int
	inventory int
	linkCases bool
}

func newInvoicesCommand(root *rootOptions) *cobra.Command {
	opts := &invoicesOptions{}

	cmd := &cobra.Command{
		Use:   "invoices",
		Short: "Generate duplicate invoice groups and inventory items",
		Long: `Invoices reads invoice group seeds from a CSV file, or draws synthetic
ones, and writes each group's original invoice followed by its mutated
duplicates. Inventory items are written afterwards.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return generateInvoices(cmd.Context(), cmd.OutOrStdout(), root, cmd, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.seedFile, "seeds", "s", "", "override invoices.seed_file")
	cmd.Flags().IntVar(&opts.groups, "groups", 0, "override invoices.groups")
	cmd.Flags().IntVar(&opts.inventory, "inventory", 0, "override invoices.inventory")
	cmd.Flags().BoolVar(&opts.linkCases, "link-cases", false, "attach each group to a stored case")
	return cmd
}

func generateInvoices(ctx context.Context, out io.Writer, root *rootOptions, cmd *cobra.Command, opts *invoicesOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := bootstrap(ctx, root, func(cfg *config.Config) {
		flags := cmd.Flags()
		if flags.Changed("seeds") {
			cfg.Invoices.SeedFile = opts.seedFile
		}
		if flags.Changed("groups") {
			cfg.Invoices.Groups = opts.groups
		}
		if flags.Changed("inventory") {
			cfg.Invoices.Inventory = opts.inventory
		}
		if opts.linkCases {
			cfg.Invoices.LinkCases = true
		}
	})
	if err != nil {
		return err
	}
	defer a.close(context.Background())

	cfg := a.cfg.Invoices
	vocab, err := a.vocabulary()
	if err != nil {
		return fmt.Errorf("vocabulary: %w", err)
	}
	src := a.randomSource()

	var seeds []invoice.Seed
	if cfg.SeedFile != "" {
		seeds, err = readSeedFile(cfg.SeedFile)
		if err != nil {
			return err
		}
	} else {
		seeds = invoice.SyntheticSeeds(vocab, src, cfg.Groups)
	}

	genOpts := []invoice.GeneratorOption{invoice.WithLogger(a.logger)}
	if cfg.LinkCases {
		ids, err := a.store.CaseIDs(ctx)
		if err != nil {
			return fmt.Errorf("list case ids: %w", err)
		}
		genOpts = append(genOpts, invoice.WithCaseIDs(ids))
	}
	gen := invoice.NewGenerator(a.store, vocab, src, genOpts...)

	stats, err := gen.Generate(ctx, seeds)
	a.metrics.RecordInvoices(stats.Groups, stats.Invoices)
	if err != nil {
		a.flushCache(ctx)
		return err
	}
	stats.Inventory, err = gen.SeedInventory(ctx, cfg.Inventory)
	a.flushCache(ctx)
	if err != nil {
		return err
	}
	return writeJSON(out, stats)
}

func readSeedFile(path string) ([]invoice.Seed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seeds: %w", err)
	}
	defer f.Close()
	seeds, err := invoice.ReadSeeds(f)
	if err != nil {
		return nil, fmt.Errorf("read seeds %s: %w", path, err)
	}
	return seeds, nil
}
