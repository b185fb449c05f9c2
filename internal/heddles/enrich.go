package heddles

import (
	"strings"

	"github.com/hupe1980/spire-loom/internal/warp"
)

// PropagatePackageMetadata walks every WARP root and fills in package
// metadata downward (spec.md section 4.4 "Metadata ensurance"): a
// SpiralOut inherits packageName/packagePath/language from its inner
// unless it carries an explicit override, a CoreRing without an
// explicit packageName falls back to its own canonical name (or its
// struct class name, if still unnamed), and a SpiralMux/MuxSpiraler --
// having no package of its own -- simply propagates into each inner
// ring unchanged.
func PropagatePackageMetadata(roots []Root) {
	resolved := map[warp.Layer]warp.PackageMetadata{}
	active := map[warp.Layer]bool{}

	for _, root := range roots {
		resolvePackage(root.Layer, resolved, active)
	}
}

// resolvePackage returns l's effective package metadata, computing it
// post-order (inner rings before outer) and memoizing by identity so a
// shared Layer is only resolved once. active guards against the same
// identity-based cycles Traverse guards against.
func resolvePackage(l warp.Layer, resolved map[warp.Layer]warp.PackageMetadata, active map[warp.Layer]bool) warp.PackageMetadata {
	if l == nil || active[l] {
		return warp.PackageMetadata{}
	}

	if pkg, ok := resolved[l]; ok {
		return pkg
	}

	active[l] = true
	defer delete(active, l)

	var pkg warp.PackageMetadata

	switch ring := l.(type) {
	case *warp.CoreRing:
		pkg = ring.Package

		if pkg.PackageName == "" {
			pkg.PackageName = ring.Name()
		}

		if pkg.PackageName == "" {
			pkg.PackageName = ring.StructClassName
		}

		if pkg.Language == "" {
			pkg.Language = ring.Lang
		}

		ring.Package = pkg
	case *warp.SpiralOut:
		innerPkg := resolvePackage(ring.Inner, resolved, active)
		pkg = ring.ResolvePackage(innerPkg)
	case *warp.SpiralMux:
		for _, inner := range ring.InnerRings {
			resolvePackage(inner, resolved, active)
		}
	case *warp.Spiraler:
		pkg = resolvePackage(ring.InnerRing, resolved, active)
	case *warp.MuxSpiraler:
		for _, inner := range ring.InnerRings {
			resolvePackage(inner, resolved, active)
		}
	}

	resolved[l] = pkg

	return pkg
}

// Enrich computes per-method enrichment for every linked Management
// (spec.md section 4.4 "Enrichment from ownership chain"): useResult
// from the method's return type, and the owning field's wrapper stack
// copied from the resolved CoreRing.
func Enrich(p *WeavingPlan) {
	for _, mgmt := range p.managements {
		if mgmt.Link == nil {
			continue
		}

		if core := findCoreRing(p.nodesByType, mgmt.Link.StructClass); core != nil {
			if field, ok := core.Fields[mgmt.Link.FieldName]; ok {
				mgmt.Link.Wrappers = field.Wrappers
			}
		}

		for i := range mgmt.Methods {
			mgmt.Methods[i].UseResult = isFallibleType(mgmt.Methods[i].ReturnType)
		}
	}
}

// findCoreRing locates the CoreRing whose StructClassName matches
// name. CoreRing.TypeName() always returns StructClassName regardless
// of containment, so nodesByType[name] holds exactly the candidates.
func findCoreRing(nodesByType map[string][]warp.Layer, name string) *warp.CoreRing {
	for _, l := range nodesByType[name] {
		if core, ok := l.(*warp.CoreRing); ok {
			return core
		}
	}

	return nil
}

// isFallibleType reports whether a captured Rust/TypeScript return
// type string denotes a fallible result, by the host's own
// "Result<...>" / "Result" naming convention.
func isFallibleType(returnType string) bool {
	return strings.Contains(returnType, "Result")
}
