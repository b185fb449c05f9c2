// Package sley resolves Management method lists into the bindings a
// treadle renders: an ordered pipeline of pure translations followed by
// last-second filters, plus CRUD routing over split read/write rings
// (spec.md section 4.5).
package sley

import "github.com/hupe1980/spire-loom/internal/warp"

// Translation is a pure MgmtMethod[] -> MgmtMethod[] step.
type Translation func([]warp.MethodMetadata) []warp.MethodMetadata

// Predicate decides whether a single method survives a filter pass.
type Predicate func(warp.MethodMetadata) bool

// MethodPipeline is a builder over ordered translations, applied in full
// by Process. Filters are deliberately not queued on the pipeline: spec.md
// section 4.5 applies them "at the last moment", right before rendering,
// so they are plain package functions callers invoke after Process.
type MethodPipeline struct {
	translations []Translation
}

// NewMethodPipeline returns an empty pipeline.
func NewMethodPipeline() *MethodPipeline {
	return &MethodPipeline{}
}

// Translate queues a translation, returning the pipeline for chaining.
func (p *MethodPipeline) Translate(fn Translation) *MethodPipeline {
	p.translations = append(p.translations, fn)
	return p
}

// Process applies every queued translation in order, returning the
// complete transformed set. An empty input yields an empty output
// (spec.md section 8 "pipeline.process([]) = []").
func (p *MethodPipeline) Process(methods []warp.MethodMetadata) []warp.MethodMetadata {
	out := methods

	for _, translate := range p.translations {
		out = translate(out)
	}

	return out
}

// Filter keeps only the methods for which predicate returns true.
func Filter(methods []warp.MethodMetadata, predicate Predicate) []warp.MethodMetadata {
	kept := make([]warp.MethodMetadata, 0, len(methods))

	for _, m := range methods {
		if predicate(m) {
			kept = append(kept, m)
		}
	}

	return kept
}
