// Package warp defines the data model for the weave graph: Layers,
// CoreRings, Spiralers, SpiralOut/SpiralMux wrapping layers, and
// Tieups. Identity throughout this package is by Go pointer identity,
// mirroring the host's reliance on object identity for graph
// deduplication (spec.md section 4.4 "Deduplicate by (parentRing, childRing)
// object identity").
package warp

// Language tags a CoreRing's backing source language.
type Language string

const (
	LangRust       Language = "rust"
	LangTypeScript Language = "typescript"
)

// Reach is a Management's visibility scope.
type Reach int

const (
	// ReachPrivate restricts a Management to the core ring only.
	ReachPrivate Reach = iota
	// ReachLocal extends a Management to core and platform rings.
	ReachLocal
	// ReachGlobal extends a Management to every ring, including frontend.
	ReachGlobal
)

// String renders the Reach level for diagnostics and templates.
func (r Reach) String() string {
	switch r {
	case ReachPrivate:
		return "private"
	case ReachLocal:
		return "local"
	case ReachGlobal:
		return "global"
	default:
		return "unknown"
	}
}

// Includes reports whether r is visible at the given filter level,
// using the ordering core -> platform -> front from spec.md section 4.6: a
// Management's reach must be at least as broad as the requested filter.
func (r Reach) Includes(filter Reach) bool {
	return r >= filter
}

// PackageMetadata describes where generated code for a ring lands.
type PackageMetadata struct {
	PackagePath string
	PackageName string
	Language    Language
}

// Layer is anything that participates in the weave graph. Every Layer
// carries a canonical Name, assigned once (first export name wins) and
// never changed afterward (spec.md section 3 "Layer (abstract)").
type Layer interface {
	// Name returns the Layer's canonical name, or "" if unassigned.
	Name() string
	// SetName assigns the canonical name exactly once; subsequent calls
	// are no-ops, preserving primary-name stability (spec.md section 8).
	SetName(name string)
	// TypeName is the Go type name backing this layer (used as a
	// matrix-matching fallback when no spiraler identity applies).
	TypeName() string
}

// namedLayer is embedded by every concrete Layer implementation to
// provide the shared name-assignment behavior.
type namedLayer struct {
	name string
}

func (n *namedLayer) Name() string { return n.name }

func (n *namedLayer) SetName(name string) {
	if n.name == "" {
		n.name = name
	}
}
