// Package runreport aggregates the outcome of a weave run into the final
// report spec.md section 7 describes (filesGenerated, filesModified,
// filesUnchanged, errors[]) and derives the process exit code from it,
// mirroring chart2kro/internal/cli's ExitError plumbing without carrying
// the full command surface along with it.
package runreport

import (
	"fmt"
)

// Category buckets a run error by the taxonomy in spec.md section 7.
type Category int

const (
	// CategoryConfiguration covers invalid WARP roots, invalid
	// Management metadata, and invalid treadle definitions. Fatal for
	// the affected task only; the run continues.
	CategoryConfiguration Category = iota

	// CategoryDiscovery covers failure to import a WARP/Management/
	// treadle module. Per-file warning; the file is skipped.
	CategoryDiscovery

	// CategorySchemaValidation covers Drizzle tables without primary
	// keys or with unknown column types. Fatal for the whole run.
	CategorySchemaValidation

	// CategoryPlanning covers an uninferable SpiralOut language or an
	// unknown inner ring type. Aborts the plan build.
	CategoryPlanning

	// CategoryRendering covers template read or substitution failure.
	// Per-output failure; other outputs proceed.
	CategoryRendering

	// CategoryHookup covers a missing required target file, validation
	// failure, or parse failure during patching. Run continues.
	CategoryHookup

	// CategorySubprocess covers a non-zero exit from an invoked tool.
	// Fails the task; the tool's stderr is logged alongside it.
	CategorySubprocess
)

// String returns the taxonomy label used in report output.
func (c Category) String() string {
	switch c {
	case CategoryConfiguration:
		return "configuration"
	case CategoryDiscovery:
		return "discovery"
	case CategorySchemaValidation:
		return "schema-validation"
	case CategoryPlanning:
		return "planning"
	case CategoryRendering:
		return "rendering"
	case CategoryHookup:
		return "hookup"
	case CategorySubprocess:
		return "subprocess"
	default:
		return "unknown"
	}
}

// RunError associates an underlying error with the taxonomy category that
// produced it, so the final report can group and count by category.
type RunError struct {
	Category Category
	Err      error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("%s: %s", e.Category, e.Err)
}

func (e *RunError) Unwrap() error { return e.Err }

func newError(cat Category, err error) *RunError {
	return &RunError{Category: cat, Err: err}
}

// NewConfigurationError wraps err as a category-1 taxonomy error.
func NewConfigurationError(err error) *RunError { return newError(CategoryConfiguration, err) }

// NewDiscoveryError wraps err as a category-2 taxonomy error, naming the
// file that could not be imported.
func NewDiscoveryError(file string, err error) *RunError {
	return newError(CategoryDiscovery, fmt.Errorf("%s: %w", file, err))
}

// NewSchemaValidationError wraps err as a category-3 taxonomy error.
func NewSchemaValidationError(err error) *RunError { return newError(CategorySchemaValidation, err) }

// NewPlanningError wraps err as a category-4 taxonomy error.
func NewPlanningError(err error) *RunError { return newError(CategoryPlanning, err) }

// NewRenderingError wraps err as a category-5 taxonomy error.
func NewRenderingError(err error) *RunError { return newError(CategoryRendering, err) }

// NewHookupError wraps err as a category-6 taxonomy error.
func NewHookupError(err error) *RunError { return newError(CategoryHookup, err) }

// NewSubprocessError wraps err as a category-7 taxonomy error.
func NewSubprocessError(err error) *RunError { return newError(CategorySubprocess, err) }

// Report is the final `{ filesGenerated, filesModified, filesUnchanged,
// errors[] }` record spec.md section 7's propagation policy requires,
// supplemented with the dependency-edge count spec.md section 3 adds
// (mirroring Result.DependencyEdges in chart2kro/pkg/chart2kro).
type Report struct {
	FilesGenerated  int
	FilesModified   int
	FilesUnchanged  int
	DependencyEdges int
	Errors          []error
}

// New returns an empty Report ready for accumulation.
func New() *Report {
	return &Report{}
}

// RecordGenerated increments the generated-file counter.
func (r *Report) RecordGenerated() { r.FilesGenerated++ }

// RecordModified increments the modified-file counter.
func (r *Report) RecordModified() { r.FilesModified++ }

// RecordUnchanged increments the unchanged-file counter.
func (r *Report) RecordUnchanged() { r.FilesUnchanged++ }

// AddError appends err to the report. A nil err is ignored so call sites
// can pass the direct result of a fallible operation without a guard.
func (r *Report) AddError(err error) {
	if err == nil {
		return
	}

	r.Errors = append(r.Errors, err)
}

// ByCategory groups recorded errors by their RunError category. Errors not
// wrapped in a RunError are grouped under CategoryConfiguration, since an
// uncategorized failure during a weave run is itself a configuration
// surprise worth surfacing distinctly.
func (r *Report) ByCategory() map[Category][]error {
	grouped := make(map[Category][]error)

	for _, err := range r.Errors {
		cat := CategoryConfiguration

		var runErr *RunError
		if as, ok := err.(*RunError); ok {
			runErr = as
		}

		if runErr != nil {
			cat = runErr.Category
		}

		grouped[cat] = append(grouped[cat], err)
	}

	return grouped
}

// ExitCode implements spec.md section 7's user-visible behavior: non-zero
// on any recorded error, zero when every file was only skipped or applied.
func (r *Report) ExitCode() int {
	if len(r.Errors) > 0 {
		return 1
	}

	return 0
}

// String renders a short human-readable summary, mirroring the
// plan-package's preference for a compact textual report alongside its
// structured form.
func (r *Report) String() string {
	return fmt.Sprintf(
		"generated=%d modified=%d unchanged=%d errors=%d",
		r.FilesGenerated, r.FilesModified, r.FilesUnchanged, len(r.Errors),
	)
}
