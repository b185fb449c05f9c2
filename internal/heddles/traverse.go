// Package heddles implements plan construction: it turns Reed's raw
// WARP roots and Management metadata into a WeavingPlan -- a
// dependency graph of SpiralEdges, nodes grouped by effective type, and
// the GenerationTasks each edge or tie-up produces (spec.md section 4.4).
package heddles

import (
	"sort"

	"github.com/hupe1980/spire-loom/internal/warp"
)

// Root is one WARP export resolved to a Layer, Heddles' view of
// reed.WarpRoot -- kept as its own type so heddles does not import
// reed, mirroring the one-way Reed -> Heddles data flow (spec.md section 2).
type Root struct {
	ExportName string
	Layer      warp.Layer
}

type edgeKey struct {
	from warp.Layer
	to   warp.Layer
}

// traversal accumulates state across the depth-first walk from every
// WARP root (spec.md section 4.4 "Traversal").
type traversal struct {
	nodesByType map[string][]warp.Layer
	seenNodes   map[warp.Layer]bool
	edges       []*warp.SpiralEdge
	seenEdges   map[edgeKey]bool
	tieups      []*warp.Tieup
	seenTieups  map[*warp.Tieup]bool
}

func newTraversal() *traversal {
	return &traversal{
		nodesByType: make(map[string][]warp.Layer),
		seenNodes:   make(map[warp.Layer]bool),
		seenEdges:   make(map[edgeKey]bool),
		seenTieups:  make(map[*warp.Tieup]bool),
	}
}

// Traverse walks every WARP root depth-first in the given (insertion)
// order and returns the discovered nodes-by-effective-type, the
// deduplicated structural edges, and every tie-up reachable from any
// visited layer in the order first encountered (spec.md section 4.4
// "Tie-up collection" runs "after edge enumeration", but imposes no
// further ordering requirement of its own; traversal order keeps
// tie-up task emission deterministic). It does not mutate roots' Layer
// values beyond assigning names via Layer.SetName, which is itself
// idempotent.
func Traverse(roots []Root) (nodesByType map[string][]warp.Layer, edges []*warp.SpiralEdge, tieups []*warp.Tieup) {
	t := newTraversal()

	// Pre-claim every CoreRing that is itself a root before any descent
	// runs, so a CoreRing always keeps its own export name even if a
	// SpiralOut root that also reaches it happens to be iterated first
	// (spec.md section 4.4 step 2 exception: "Core identity dominates
	// Spiraler identity"). SetName's first-call-wins semantics then
	// make every later descent into this same CoreRing a no-op.
	for _, root := range roots {
		if core, ok := root.Layer.(*warp.CoreRing); ok {
			core.SetName(root.ExportName)
		}
	}

	for _, root := range roots {
		t.visit(root.Layer, root.ExportName, map[warp.Layer]bool{})
	}

	return t.nodesByType, t.edges, t.tieups
}

// visit assigns root's primary name, records it under its effective
// type, and recurses into its structural children. active is the
// current recursion stack (by identity) used to detect and skip cycles
// per spec.md section 9 "Cyclic graphs": detection is by object identity, not
// name.
func (t *traversal) visit(l warp.Layer, exportName string, active map[warp.Layer]bool) {
	if l == nil || active[l] {
		return
	}

	// First encounter wins (spec.md section 4.4 step 2): SetName is itself a
	// no-op once a name is assigned, so Core identity naturally
	// dominates a later Spiraler-path re-visit of the same object --
	// whichever export reaches it first keeps the name.
	l.SetName(exportName)

	if !t.seenNodes[l] {
		t.seenNodes[l] = true

		typeName := l.TypeName()
		t.nodesByType[typeName] = append(t.nodesByType[typeName], l)

		for _, tu := range tieupsOf(l) {
			if t.seenTieups[tu] {
				continue
			}

			t.seenTieups[tu] = true
			t.tieups = append(t.tieups, tu)
		}
	}

	active[l] = true
	defer delete(active, l)

	for _, child := range structuralChildren(l) {
		t.addEdge(l, child, relationshipFor(l))
		t.visit(child, exportName, active)
	}

	// Attached spiralers contribute no node of their own (a SpiralMux
	// takes its TypeName() from an attached spiraler's ClassName; a
	// SpiralOut's TypeName() ignores them), but their innerRing may loop
	// back to l -- visit for
	// cycle detection only, per spec.md section 9.
	for _, sp := range attachedSpiralers(l) {
		if sp == nil || sp.InnerRing == nil {
			continue
		}

		t.addEdge(l, sp.InnerRing, warp.RelAdapts)
		t.visit(sp.InnerRing, exportName, active)
	}
}

func (t *traversal) addEdge(from, to warp.Layer, rel warp.Relationship) {
	key := edgeKey{from: from, to: to}
	if t.seenEdges[key] {
		return
	}

	t.seenEdges[key] = true
	t.edges = append(t.edges, &warp.SpiralEdge{
		From:         from,
		To:           to,
		Relationship: rel,
		ExportName:   from.Name(),
	})
}

// structuralChildren returns a Layer's primary wrapped/aggregated
// rings, in order.
func structuralChildren(l warp.Layer) []warp.Layer {
	switch v := l.(type) {
	case *warp.SpiralOut:
		if v.Inner == nil {
			return nil
		}

		return []warp.Layer{v.Inner}
	case *warp.SpiralMux:
		return v.InnerRings
	case *warp.Spiraler:
		if v.InnerRing == nil {
			return nil
		}

		return []warp.Layer{v.InnerRing}
	case *warp.MuxSpiraler:
		return v.InnerRings
	default:
		return nil
	}
}

func relationshipFor(l warp.Layer) warp.Relationship {
	switch l.(type) {
	case *warp.SpiralMux, *warp.MuxSpiraler:
		return warp.RelAggregates
	default:
		return warp.RelWraps
	}
}

// attachedSpiralers returns the capability edges attached to l, if any.
func attachedSpiralers(l warp.Layer) []*warp.Spiraler {
	switch v := l.(type) {
	case *warp.SpiralOut:
		return mapValues(v.Spiralers)
	case *warp.SpiralMux:
		return mapValues(v.Spiralers)
	default:
		return nil
	}
}

// mapValues returns m's values sorted by key, so the edges visit()
// adds for attached spiralers -- and therefore t.edges and task
// execution order (spec.md section 5; matrix.go's MatchEdges) -- do
// not vary across runs just because Go randomizes map iteration order.
func mapValues(m map[string]*warp.Spiraler) []*warp.Spiraler {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	out := make([]*warp.Spiraler, 0, len(m))
	for _, k := range keys {
		out = append(out, m[k])
	}

	return out
}
