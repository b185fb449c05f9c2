package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/spire-loom/internal/heddles"
	"github.com/hupe1980/spire-loom/internal/logging"
	"github.com/hupe1980/spire-loom/internal/reed"
	"github.com/hupe1980/spire-loom/internal/treadle"
)

func newPlanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan <workspace>",
		Short: "Preview the generation tasks a weave would run",
		Long: `Plan discovers a workspace's WARP roots and Managements,
builds the dependency graph and treadle matrix, and prints the
resulting generation tasks without writing anything.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(cmd.Context(), cmd, args[0])
		},
	}

	return cmd
}

func runPlan(ctx context.Context, cmd *cobra.Command, workspace string) error {
	logger := logging.FromContext(ctx)

	result, err := reed.Discover(workspace, logger)
	if err != nil {
		return &ExitError{Code: 1, Err: fmt.Errorf("discovering %s: %w", workspace, err)}
	}

	roots := make([]heddles.Root, 0, len(result.WarpRoots))
	for _, r := range result.WarpRoots {
		roots = append(roots, heddles.Root{ExportName: r.ExportName, Layer: r.Layer})
	}

	matrix := treadle.BuildMatrix(treadle.NewRegistry().All())
	p := heddles.Build(roots, result.Managements, matrix)

	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "managements: %d\n", len(p.Managements()))
	fmt.Fprintf(w, "structural edges: %d\n", len(p.Edges()))
	fmt.Fprintf(w, "generation tasks: %d\n\n", len(p.Tasks()))

	for _, task := range p.Tasks() {
		fmt.Fprintf(w, "  %-16s %s -> %s (%s)\n", task.Generator, task.InnerType, task.OuterType, task.ExportName)
	}

	for _, warning := range result.Warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", warning)
	}

	return nil
}
