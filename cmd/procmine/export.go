package main

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Ofi-Services/unified-backend/internal/report"
	"github.com/Ofi-Services/unified-backend/internal/simulation"
	"github.com/Ofi-Services/unified-backend/internal/transport"
)

func newExportCommand(root *rootOptions) *cobra.Command {
	var (
		output  string
		filters []string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the activity log as CSV",
		Long: `Export writes the activities matching the filters as CSV. Filters use the
query parameter names of GET /api/activity, for example:

  procmine export -f type=Renewal -f start_date=2024-01-01 -o activity.csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			q, err := filterValues(filters)
			if err != nil {
				return usageError{err}
			}
			aq, err := transport.ParseActivityQuery(q)
			if err != nil {
				return usageError{err}
			}
			return export(cmd.Context(), cmd.OutOrStdout(), root, aq, output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to this file instead of stdout")
	cmd.Flags().StringArrayVarP(&filters, "filter", "f", nil, "activity filter as name=value (repeatable)")
	return cmd
}

// filterValues turns name=value pairs into query values.
func filterValues(pairs []string) (url.Values, error) {
	q := url.Values{}
	for _, p := range pairs {
		name, value, ok := strings.Cut(p, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("filter %q: expected name=value", p)
		}
		q.Add(name, value)
	}
	return q, nil
}

func export(ctx context.Context, out io.Writer, root *rootOptions, q report.ActivityQuery, output string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := bootstrap(ctx, root, nil)
	if err != nil {
		return err
	}
	defer a.close(context.Background())

	w := out
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("create %s: %w", output, err)
		}
		defer f.Close()
		w = f
	}

	n, err := report.NewService(a.store, nil).ExportActivities(ctx, w, q)
	if err != nil {
		return fmt.Errorf("export activities: %w", err)
	}
	a.logger.Info("activities exported", zap.Int("rows", n), zap.String("output", output))
	return nil
}

func newDiagramCommand(_ *rootOptions) *cobra.Command {
	var direction string

	cmd := &cobra.Command{
		Use:   "diagram",
		Short: "Print the workflow as a Mermaid state diagram",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d := simulation.Direction(strings.ToUpper(direction))
			if d != simulation.TopToBottom && d != simulation.LeftToRight {
				return usageError{fmt.Errorf("direction %q must be TB or LR", direction)}
			}
			return simulation.WriteDiagram(cmd.OutOrStdout(), simulation.DefaultGraph(), d)
		},
	}
	cmd.Flags().StringVarP(&direction, "direction", "d", string(simulation.TopToBottom), "layout direction, TB or LR")
	return cmd
}
