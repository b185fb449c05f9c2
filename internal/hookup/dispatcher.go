// Package hookup patches generated content into foreign build trees:
// AndroidManifest.xml, Cargo.toml, Gradle build scripts, Rust modules,
// Kotlin sources, TypeScript index files, and Vite configs (spec.md
// section 4.2 "Hookup Handlers"). Every handler shares the
// apply(filePath, spec, context) -> HookupResult contract and leans on
// internal/marker for the underlying idempotent block operations.
package hookup

import (
	"fmt"
	"path/filepath"
)

// Status is a HookupResult's outcome (spec.md section 4.2 "Failure
// semantics").
type Status string

const (
	StatusApplied Status = "applied"
	StatusSkipped Status = "skipped"
	StatusError   Status = "error"
)

// Kind identifies which handler a Spec routes to.
type Kind string

const (
	KindAndroidManifest Kind = "android-manifest"
	KindCargoToml       Kind = "cargo-toml"
	KindGradle          Kind = "gradle"
	KindRustModule      Kind = "rust-module"
	KindKotlin          Kind = "kotlin"
	KindTSIndex         Kind = "ts-index"
	KindViteConfig      Kind = "vite-config"
)

// Spec is one hookup instruction, mirroring the `hookup?: { type,
// config? }` clause of a TreadleDefinition (spec.md section 4.6): Kind
// selects the handler (inferred from Path's suffix when empty) and
// Config carries whatever handler-specific fields that kind needs.
type Spec struct {
	Path   string
	Kind   Kind
	Config map[string]interface{}
}

// Context carries the ambient values a handler needs beyond the spec
// itself.
type Context struct {
	PackageDir string
}

// Result is the `{ path, type, status, message }` outcome spec.md
// section 4.2 describes for every handler.
type Result struct {
	Path    string
	Kind    Kind
	Status  Status
	Message string
}

// Handler applies one Spec against the file at absPath.
type Handler func(absPath string, spec Spec, ctx Context) (Result, error)

var handlers = map[Kind]Handler{
	KindAndroidManifest: applyAndroidManifest,
	KindCargoToml:       applyCargoToml,
	KindGradle:          applyGradle,
	KindRustModule:      applyRustModule,
	KindKotlin:          applyKotlin,
	KindTSIndex:         applyTSIndex,
	KindViteConfig:      applyViteConfig,
}

// DetectKind infers a Kind from path's suffix (spec.md section 4.2 "File
// type is inferred from path suffix").
func DetectKind(path string) (Kind, bool) {
	base := filepath.Base(path)

	switch {
	case base == "AndroidManifest.xml":
		return KindAndroidManifest, true
	case base == "Cargo.toml":
		return KindCargoToml, true
	case base == "build.gradle" || base == "build.gradle.kts":
		return KindGradle, true
	case base == "lib.rs" || base == "main.rs":
		return KindRustModule, true
	case filepath.Ext(base) == ".kt":
		return KindKotlin, true
	case base == "index.ts" || base == "index.js":
		return KindTSIndex, true
	case base == "vite.config.ts" || base == "vite.config.js":
		return KindViteConfig, true
	default:
		return "", false
	}
}

// ResolvePath implements spec.md section 4.7 step 3: an absolute spec
// path is used as-is; a relative one resolves against ctx.PackageDir.
func ResolvePath(specPath string, ctx Context) string {
	if filepath.IsAbs(specPath) {
		return specPath
	}

	return filepath.Join(ctx.PackageDir, specPath)
}

// Apply dispatches spec to its handler (spec.md section 4.7 "Hookup
// Dispatcher"). It never returns a Go error: every failure mode is
// reported as a Result with Status=error so a batch of specs can run to
// completion regardless of any single one's outcome.
func Apply(spec Spec, ctx Context) Result {
	kind := spec.Kind

	if kind == "" {
		detected, ok := DetectKind(spec.Path)
		if !ok {
			return Result{Path: spec.Path, Status: StatusError,
				Message: fmt.Sprintf("cannot infer hookup kind for %q", spec.Path)}
		}

		kind = detected
	}

	handler, ok := handlers[kind]
	if !ok {
		return Result{Path: spec.Path, Kind: kind, Status: StatusError,
			Message: fmt.Sprintf("no hookup handler registered for kind %q", kind)}
	}

	absPath := ResolvePath(spec.Path, ctx)

	result, err := handler(absPath, spec, ctx)
	if err != nil {
		return Result{Path: absPath, Kind: kind, Status: StatusError, Message: err.Error()}
	}

	if result.Path == "" {
		result.Path = absPath
	}

	if result.Kind == "" {
		result.Kind = kind
	}

	return result
}

// ApplyBatch runs Apply over every spec in order, per spec.md section
// 4.7 "one failure does not abort the others."
func ApplyBatch(specs []Spec, ctx Context) []Result {
	results := make([]Result, 0, len(specs))

	for _, spec := range specs {
		results = append(results, Apply(spec, ctx))
	}

	return results
}
