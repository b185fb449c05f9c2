// Package treadle implements the Treadle-Kit: declarative generator
// definitions, their discovery and matrix composition, and the five-phase
// execution spec.md section 4.6 describes (validate, collect methods,
// build data, render outputs, hookup).
//
// A TreadleDefinition's `pipeline`, `data`, `validate`, and
// `transformMethods` clauses are arbitrary closures in the host's ES
// module dialect, discovered by dynamically importing a `.ts` file.
// Go has no equivalent to importing a closure out of source text the
// way reed/warp.go's tree-sitter reading can recover *data* (export
// names, decorator arguments, factory-call shapes) from TypeScript
// without executing it. A Definition is therefore a native Go value,
// and "discovery" (spec.md section 4.6) becomes registering Definitions
// with a Registry instead of scanning `*.ts` files -- built-in
// Definitions are registered by builtins.go at Registry construction,
// workspace-authored ones are passed in by the embedding program
// through pkg/loom's functional options, mirroring how
// chart2kro/pkg/chart2kro.Convert accepts caller-supplied Option values
// rather than discovering its filter/transformer chain from disk.
package treadle

import (
	"github.com/hupe1980/spire-loom/internal/heddles"
	"github.com/hupe1980/spire-loom/internal/hookup"
	"github.com/hupe1980/spire-loom/internal/sley"
	"github.com/hupe1980/spire-loom/internal/warp"
)

// Match pairs an (outer, inner) effective type name a Definition claims
// responsibility for (spec.md section 4.6 "matches: [{current, previous}...]").
type Match struct {
	Current  string
	Previous string
}

// MethodsSpec configures phase 2 (collect methods): Filter bounds reach
// (core ⊇ platform ⊇ front), Pipeline is the ordered sley translation
// chain run after reach filtering.
type MethodsSpec struct {
	Filter   warp.Reach
	Pipeline []sley.Translation
}

// Output is a single rendered file: Template is a Source-relative path,
// Path may carry `{placeholder}` substitutions resolved against task
// data, Language selects the comment syntax of the marker lines around
// the generated block (no type mapping is derived from it), and
// Condition (if set) gates rendering on the task's data record.
//
// MethodTemplate, if set, is a second Source-relative template rendered
// once per collected method (with "method" bound to that one method's
// record) and joined with newlines into "methodBlocks" before Template
// itself renders. The engine's expression grammar has no loop construct
// (spec.md section 9 "Template engine" rules one out), so an output
// that needs one block of text per method composes it this way instead
// of inside the template text.
type Output struct {
	Template       string
	MethodTemplate string
	Path           string
	Language       string
	Condition      func(data map[string]interface{}) bool
}

// HookupClause is the `hookup?: { type, config?, customHookup? }` clause.
// Exactly one of Kind or Custom should be set: Kind dispatches through
// internal/hookup, Custom is invoked directly with the task's resolved
// data for generator-specific patching (rust-crate/tauri-plugin wiring)
// that a declarative Spec cannot express.
type HookupClause struct {
	Kind   hookup.Kind
	Config map[string]interface{}

	Custom func(data map[string]interface{}, current, previous warp.Layer) []hookup.Result
}

// DataFunc builds an output's template data record from the task's
// current/previous layers and whatever static context the executor has
// already merged in (spec.md section 4.6 phase 3 "Build data").
type DataFunc func(ctx map[string]interface{}, current, previous warp.Layer) map[string]interface{}

// ValidateFunc runs in phase 1; returning false skips the task silently.
type ValidateFunc func(current, previous warp.Layer) bool

// TransformMethodsFunc runs after the pipeline but before data is built,
// letting a Definition apply context-dependent shaping the pipeline
// itself cannot (pipeline translations see only methods, not task data).
type TransformMethodsFunc func(methods []warp.MethodMetadata, ctx map[string]interface{}) []warp.MethodMetadata

// Definition is the Go rendition of a TreadleDefinition record (spec.md
// section 4.6). Name doubles as the treadle tag a SpiralOut's
// TreadleTag must match (spec.md section 4.6 "Naming contract").
type Definition struct {
	Name    string
	Matches []Match
	Methods MethodsSpec
	Outputs []Output
	Hookup  *HookupClause

	Data             DataFunc
	Validate         ValidateFunc
	TransformMethods TransformMethodsFunc
}

// matchesPair reports whether d claims responsibility for the given
// effective (current, previous) type pair, honoring the same
// exact-then-wildcard fallback as heddles.TreadleMatrix.Lookup: a Match
// with Previous set to heddles.AnyType claims every previous type for
// its Current.
func (d *Definition) matchesPair(current, previous string) bool {
	for _, m := range d.Matches {
		if m.Current != current {
			continue
		}

		if m.Previous == previous || m.Previous == heddles.AnyType {
			return true
		}
	}

	return false
}
