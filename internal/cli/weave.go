package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hupe1980/spire-loom/internal/config"
	"github.com/hupe1980/spire-loom/internal/logging"
	"github.com/hupe1980/spire-loom/internal/shellout"
	"github.com/hupe1980/spire-loom/internal/ui"
	"github.com/hupe1980/spire-loom/internal/version"
	"github.com/hupe1980/spire-loom/pkg/loom"
)

type weaveOptions struct {
	cleanupOrphans bool
	postCommand    string
}

func newWeaveCommand() *cobra.Command {
	opts := &weaveOptions{}

	cmd := &cobra.Command{
		Use:   "weave <workspace>",
		Short: "Run a full weave over a workspace",
		Long: `Weave discovers a workspace's WARP roots and Management
classes, plans a dependency graph of generation tasks, and writes the
resulting generated blocks and build-tree patches.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWeave(cmd.Context(), cmd, args[0], opts)
		},
	}

	f := cmd.Flags()
	f.BoolVar(&opts.cleanupOrphans, "cleanup-orphans", false, "remove marked blocks left over from a prior run and not re-emitted by this one")
	f.StringVar(&opts.postCommand, "post-command", "", "shell command to run after every write (e.g. \"cargo build\")")

	return cmd
}

func runWeave(ctx context.Context, cmd *cobra.Command, workspace string, opts *weaveOptions) error {
	cfg := config.FromContext(ctx)
	logger := logging.FromContext(ctx)

	if err := cfg.CheckEngineVersion(version.GetInfo().Version); err != nil {
		return &ExitError{Code: 2, Err: err}
	}

	weaveOpts := []loom.Option{loom.WithLogger(logger)}

	if cfg.TemplateDir != "" {
		weaveOpts = append(weaveOpts, loom.WithTemplateDir(cfg.TemplateDir))
	}

	if opts.cleanupOrphans {
		weaveOpts = append(weaveOpts, loom.WithCleanupOrphans())
	}

	if opts.postCommand != "" {
		name, args := splitCommand(opts.postCommand)
		weaveOpts = append(weaveOpts, loom.WithPostCommand(shellout.Command{
			Name: name,
			Args: args,
			Dir:  workspace,
		}))
	}

	result, err := loom.Weave(ctx, workspace, weaveOpts...)
	if err != nil {
		return &ExitError{Code: 1, Err: fmt.Errorf("weaving %s: %w", workspace, err)}
	}

	logger.Info("weave complete",
		slog.Int("generated", result.Report.FilesGenerated),
		slog.Int("modified", result.Report.FilesModified),
		slog.Int("unchanged", result.Report.FilesUnchanged),
		slog.Int("errors", len(result.Report.Errors)),
	)

	printSummary(cmd, result)

	if len(result.Report.Errors) > 0 {
		return &ExitError{Code: result.Report.ExitCode(), Err: fmt.Errorf("%d task error(s) recorded", len(result.Report.Errors))}
	}

	return nil
}

// printSummary writes a short, colorized human summary of a weave run
// to the command's stdout.
func printSummary(cmd *cobra.Command, result *loom.Result) {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "generated=%s modified=%s unchanged=%s\n",
		ui.Count(result.Report.FilesGenerated),
		ui.Count(result.Report.FilesModified),
		ui.Count(result.Report.FilesUnchanged),
	)

	for _, removed := range result.OrphansRemoved {
		ui.Warn("removed orphaned block %s:%s in %s", removed.Markers.Scope, removed.Markers.Identifier, removed.Path)
	}

	for cat, errs := range result.Report.ByCategory() {
		for _, e := range errs {
			ui.Fail("%s: %s", cat, e)
		}
	}

	if len(result.Report.Errors) == 0 {
		ui.Success("weave succeeded")
	}
}

// splitCommand splits a shell command string into its program name and
// arguments on whitespace. Good enough for the simple build-tool
// invocations a post-command hook targets (cargo build, npx tsc, ...);
// anything needing real shell quoting should invoke `sh -c` itself.
func splitCommand(s string) (string, []string) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return "", nil
	}

	return fields[0], fields[1:]
}
