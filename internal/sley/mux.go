package sley

import (
	"fmt"

	"github.com/hupe1980/spire-loom/internal/warp"
)

// OperationRouting is a layer's declared CRUD routing table: reads and
// writes may be split across distinct rings, with per-operation
// overrides taking precedence over both (spec.md section 4.5 "A layer
// may declare { read, write, custom? }").
type OperationRouting struct {
	Read   warp.Layer
	Write  warp.Layer
	Custom map[warp.Operation]warp.Layer
}

// RouteOperation resolves the ring a single operation targets, falling
// back to ring itself when no routing applies.
func RouteOperation(op warp.Operation, ring warp.Layer, routing *OperationRouting) warp.Layer {
	if routing == nil {
		return ring
	}

	if target, ok := routing.Custom[op]; ok {
		return target
	}

	switch op {
	case warp.OpRead, warp.OpList:
		if routing.Read != nil {
			return routing.Read
		}
	case warp.OpCreate, warp.OpUpdate, warp.OpDelete:
		if routing.Write != nil {
			return routing.Write
		}
	}

	return ring
}

// RouteOperations groups methods by the ring RouteOperation resolves them
// to, preserving each group's relative order of first appearance.
func RouteOperations(methods []warp.MethodMetadata, ring warp.Layer, routing *OperationRouting) map[warp.Layer][]warp.MethodMetadata {
	grouped := make(map[warp.Layer][]warp.MethodMetadata)

	for _, m := range methods {
		target := RouteOperation(m.Operation, ring, routing)
		grouped[target] = append(grouped[target], m)
	}

	return grouped
}

// IsHybrid reports whether routing splits reads and writes across
// distinct rings.
func IsHybrid(routing *OperationRouting) bool {
	return routing != nil && routing.Read != nil && routing.Write != nil && routing.Read != routing.Write
}

// AnalyzeRouting produces a human-readable routing description for every
// CRUD operation, for diagnostics and generated documentation.
func AnalyzeRouting(ring warp.Layer, routing *OperationRouting) map[warp.Operation]string {
	desc := make(map[warp.Operation]string, len(crudOperations))

	for _, op := range crudOperations {
		target := RouteOperation(op, ring, routing)

		if target == ring {
			desc[op] = fmt.Sprintf("%s -> %s (default)", op, RingLabel(target))
			continue
		}

		desc[op] = fmt.Sprintf("%s -> %s (routed)", op, RingLabel(target))
	}

	return desc
}

// RingLabel names a ring for diagnostics and routed-method grouping
// keys: its canonical Name if assigned, else its effective type name.
func RingLabel(l warp.Layer) string {
	if l == nil {
		return "<nil>"
	}

	if name := l.Name(); name != "" {
		return name
	}

	return l.TypeName()
}

// FromWarpRouting converts a CoreRing's declared warp.Routing into the
// OperationRouting RouteOperation/RouteOperations/AnalyzeRouting operate
// on. A nil declaration converts to a nil routing, under which every
// operation resolves to the ring unchanged.
func FromWarpRouting(r *warp.Routing) *OperationRouting {
	if r == nil {
		return nil
	}

	return &OperationRouting{Read: r.Read, Write: r.Write, Custom: r.Custom}
}
