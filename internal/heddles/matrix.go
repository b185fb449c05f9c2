package heddles

import (
	"fmt"

	"github.com/hupe1980/spire-loom/internal/warp"
)

// TreadleMatrix resolves (currentType, previousType) pairs to the
// treadle responsible for generating that transition (spec.md
// section 4.4 "Matrix match"). Heddles itself only consumes it through
// MatchEdges/CollectTieups; internal/treadle builds the matrix and
// hands it in, keeping heddles's traversal and matching logic ignorant
// of where treadle definitions come from.
type TreadleMatrix struct {
	entries map[string]string
}

// NewTreadleMatrix wraps a prebuilt (currentType->previousType) key
// map. A nil map is treated as empty.
func NewTreadleMatrix(entries map[string]string) *TreadleMatrix {
	if entries == nil {
		entries = map[string]string{}
	}

	return &TreadleMatrix{entries: entries}
}

func matrixKey(currentType, previousType string) string {
	return fmt.Sprintf("%s->%s", currentType, previousType)
}

// AnyType is a wildcard previousType a matrix entry may register under,
// matching any inner type name. Built-in treadles need this because a
// SpiralOut's previous type is the author's own core struct name (e.g.
// "Foundframe"), which a shipped-in-the-loom treadle definition cannot
// enumerate ahead of time -- only the outer shape ("SpiralOut",
// "SpiralMux", or a fixed capability Spiraler class name) is known in
// advance.
const AnyType = "*"

// Lookup returns the treadle name registered for (currentType,
// previousType), falling back to the AnyType wildcard on previousType
// when no exact pair is registered.
func (m *TreadleMatrix) Lookup(currentType, previousType string) (string, bool) {
	if name, ok := m.entries[matrixKey(currentType, previousType)]; ok {
		return name, true
	}

	name, ok := m.entries[matrixKey(currentType, AnyType)]

	return name, ok
}

// MatchEdges runs the matrix match step (spec.md section 4.4): for
// every edge, look up (parent.effectiveType, child.effectiveType) and
// emit a GenerationTask on a hit. Edge order is preserved, matching
// "tasks run in the order ... edges were collected" (spec.md section 4.6
// "Ordering guarantees").
func (m *TreadleMatrix) MatchEdges(edges []*warp.SpiralEdge) []*warp.GenerationTask {
	var tasks []*warp.GenerationTask

	for _, edge := range edges {
		outerType := edge.From.TypeName()
		innerType := edge.To.TypeName()

		generator, ok := m.Lookup(outerType, innerType)
		if !ok {
			continue
		}

		tasks = append(tasks, &warp.GenerationTask{
			OuterType:  outerType,
			InnerType:  innerType,
			Current:    edge.From,
			Previous:   edge.To,
			ExportName: edge.ExportName,
			Generator:  generator,
		})
	}

	return tasks
}

// CollectTieups runs tie-up collection (spec.md section 4.4): for every
// tie-up in the traversal order Traverse recorded it in, emit one
// synthetic GenerationTask per TreadleEntry against that tie-up's
// already-identified source and target. Tie-up tasks bypass the matrix
// entirely -- they carry their own Generator and Config.
func CollectTieups(tieups []*warp.Tieup) []*warp.GenerationTask {
	var tasks []*warp.GenerationTask

	for _, tieup := range tieups {
		for _, entry := range tieup.Config.Treadles {
			tasks = append(tasks, &warp.GenerationTask{
				OuterType:  tieup.Target.TypeName(),
				InnerType:  tieup.Source.TypeName(),
				Current:    tieup.Target,
				Previous:   tieup.Source,
				ExportName: tieup.Target.Name(),
				Generator:  entry.Treadle,
				Config:     entry.WarpData,
			})
		}
	}

	return tasks
}

func tieupsOf(l warp.Layer) []*warp.Tieup {
	switch v := l.(type) {
	case *warp.SpiralOut:
		return v.Tieups
	case *warp.SpiralMux:
		return v.Tieups
	default:
		return nil
	}
}
