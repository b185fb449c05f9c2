// Package loom provides a public Go API for running a Spire-Loom weave
// over a workspace, composing Reed, Heddles, the Treadle-Kit, Sley and
// the Shuttle end to end (spec.md section 2's "data flow").
//
// Basic usage:
//
//	result, err := loom.Weave(ctx, "path/to/workspace")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Report.String())
//
// With options:
//
//	result, err := loom.Weave(ctx, "path/to/workspace",
//	    loom.WithTemplateDir("loom/templates"),
//	    loom.WithLogger(logger),
//	)
package loom

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/hupe1980/spire-loom/internal/heddles"
	"github.com/hupe1980/spire-loom/internal/marker"
	"github.com/hupe1980/spire-loom/internal/metrics"
	"github.com/hupe1980/spire-loom/internal/reed"
	"github.com/hupe1980/spire-loom/internal/registry"
	"github.com/hupe1980/spire-loom/internal/runreport"
	"github.com/hupe1980/spire-loom/internal/shellout"
	"github.com/hupe1980/spire-loom/internal/template"
	"github.com/hupe1980/spire-loom/internal/template/builtin"
	"github.com/hupe1980/spire-loom/internal/treadle"
)

// discardLogger returns a logger that discards all output, the default
// when no logger option is supplied.
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Option configures a Weave run. Use the With* functions to create
// Options.
type Option func(*options)

type options struct {
	logger             *slog.Logger
	templateDir        string
	builtinTemplateDir string
	workspaceDefs      []*treadle.Definition
	cleanupOrphans     bool
	postCommand        *shellout.Command
	skipMarkerScan     bool
}

// WithLogger sets the logger a weave run reports discovery warnings
// and progress through. Defaults to a discarding logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithTemplateDir sets a workspace-relative directory of template
// overrides, checked before built-in templates (spec.md section 9).
func WithTemplateDir(dir string) Option {
	return func(o *options) { o.templateDir = dir }
}

// WithBuiltinTemplateDir points the built-in template set at an on-disk
// directory instead of the set embedded in the binary
// (internal/template/builtin). For operators who want to swap the
// whole built-in set without recompiling; most callers never need this.
func WithBuiltinTemplateDir(dir string) Option {
	return func(o *options) { o.builtinTemplateDir = dir }
}

// WithWorkspaceTreadles registers workspace-authored Definitions,
// overriding a built-in of the same name (spec.md section 4.6).
func WithWorkspaceTreadles(defs ...*treadle.Definition) Option {
	return func(o *options) { o.workspaceDefs = append(o.workspaceDefs, defs...) }
}

// WithCleanupOrphans removes marked blocks that were present at the
// start of the run but not re-emitted by it (spec.md section 6's
// "cleanupAllBlocks"). Off by default, since deleting content from
// files the caller did not ask to be touched this run is the kind of
// action a library should opt a caller into, not assume.
func WithCleanupOrphans() Option {
	return func(o *options) { o.cleanupOrphans = true }
}

// WithPostCommand runs cmd after every file write completes, e.g. a
// `cargo build` or `npx prisma generate` the generated sources need
// (spec.md section 4.6's shell-out suspension point). A non-zero exit
// is recorded as a CategorySubprocess error; it never aborts the run,
// matching spec.md section 7 item 7.
func WithPostCommand(cmd shellout.Command) Option {
	return func(o *options) { o.postCommand = &cmd }
}

// withoutMarkerScan skips the pre-run filesystem scan for existing
// marked blocks. Exposed unexported for tests that don't need orphan
// tracking and want to avoid walking a tempdir twice.
func withoutMarkerScan() Option {
	return func(o *options) { o.skipMarkerScan = true }
}

func defaultOptions() *options {
	return &options{logger: discardLogger()}
}

// Result holds the output of a successful weave.
type Result struct {
	// Report is the final run report: file counts and any errors
	// encountered, per task, across the whole run.
	Report *runreport.Report

	// Metrics exposes the Prometheus counters the run incremented, so
	// a caller embedding loom in a service can register Metrics.Registry
	// however it likes.
	Metrics *metrics.Metrics

	// Plan is the finalized WeavingPlan the run generated from, kept
	// for callers that want to inspect the dependency graph or task
	// list afterward.
	Plan *heddles.WeavingPlan

	// OrphansRemoved lists the marked blocks cleaned up this run, only
	// populated when WithCleanupOrphans was passed.
	OrphansRemoved []registry.BlockRef
}

// Weave runs the full Spire-Loom pipeline against workspaceRoot: Reed
// discovery, Heddles planning, and the Treadle-Kit executor, returning
// the aggregate Result. Weave returns a non-nil error only for
// conditions the run cannot recover from at all (an unreadable
// workspace, a malformed WARP root); per-task failures are instead
// accumulated into Result.Report.Errors so that one bad task never
// hides the rest of the run's outcome (spec.md section 7
// "Error propagation policy").
func Weave(ctx context.Context, workspaceRoot string, opts ...Option) (*Result, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	reedResult, err := reed.Discover(workspaceRoot, o.logger)
	if err != nil {
		return nil, fmt.Errorf("discovering workspace: %w", err)
	}

	roots := make([]heddles.Root, 0, len(reedResult.WarpRoots))
	for _, r := range reedResult.WarpRoots {
		roots = append(roots, heddles.Root{ExportName: r.ExportName, Layer: r.Layer})
	}

	treadleRegistry := treadle.NewRegistry()
	treadleRegistry.RegisterWorkspace(o.workspaceDefs...)

	matrix := treadle.BuildMatrix(treadleRegistry.All())
	plan := heddles.Build(roots, reedResult.Managements, matrix)

	report := runreport.New()
	for _, w := range reedResult.Warnings {
		report.AddError(runreport.NewDiscoveryError(workspaceRoot, w))
	}

	metricsReg := metrics.New()
	blocks := registry.New()

	if !o.skipMarkerScan {
		scanWorkspace(workspaceRoot, blocks)
	}

	blocks.StartGeneration()

	templates := template.Source{BuiltinFS: builtin.FS}
	if o.builtinTemplateDir != "" {
		templates.BuiltinFS = nil
		templates.BuiltinRoot = o.builtinTemplateDir
	}

	if o.templateDir != "" {
		templates.WorkspaceRoot = filepath.Join(workspaceRoot, o.templateDir)
	}

	exec := treadle.NewExecutor(workspaceRoot, treadleRegistry, templates, blocks, metricsReg, report)
	exec.Run(ctx, plan.Tasks(), plan.Managements())

	report.DependencyEdges = len(plan.Edges())

	result := &Result{Report: report, Metrics: metricsReg, Plan: plan}

	if o.cleanupOrphans {
		removed, cleanupErr := cleanupOrphans(blocks)
		if cleanupErr != nil {
			report.AddError(runreport.NewHookupError(cleanupErr))
		}

		result.OrphansRemoved = removed
	}

	if o.postCommand != nil {
		if _, err := shellout.Run(ctx, *o.postCommand); err != nil {
			report.AddError(err)
		}
	}

	return result, nil
}

// scanWorkspace walks workspaceRoot and registers every marked block
// already present, seeding the registry's "previously generated" set
// so this run can detect orphans (spec.md section 6 "reconstructed by
// scanning files at next run start").
func scanWorkspace(workspaceRoot string, blocks *registry.Registry) {
	_ = filepath.WalkDir(workspaceRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}

		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != workspaceRoot {
				return filepath.SkipDir
			}

			return nil
		}

		if !isGeneratedSourceExt(path) {
			return nil
		}

		content, readErr := os.ReadFile(path)
		if readErr != nil {
			return nil
		}

		for _, m := range marker.FindAll(content) {
			blocks.Scan(registry.BlockRef{Path: path, Markers: m})
		}

		return nil
	})
}

func isGeneratedSourceExt(path string) bool {
	switch filepath.Ext(path) {
	case ".rs", ".kt", ".ts", ".xml", ".toml", ".gradle":
		return true
	default:
		return filepath.Base(path) == "build.gradle.kts"
	}
}

// cleanupOrphans removes every orphaned block from disk and returns
// the blocks that were removed.
func cleanupOrphans(blocks *registry.Registry) ([]registry.BlockRef, error) {
	orphans := blocks.Orphans()

	err := blocks.CleanupAllBlocks(func(ref registry.BlockRef) error {
		content, err := os.ReadFile(ref.Path)
		if err != nil {
			return fmt.Errorf("reading %s for orphan cleanup: %w", ref.Path, err)
		}

		result := marker.Remove(content, ref.Markers)
		if !result.Modified {
			return nil
		}

		return os.WriteFile(ref.Path, result.Content, 0o644)
	})
	if err != nil {
		return nil, err
	}

	return orphans, nil
}
