package treadle

import "github.com/hupe1980/spire-loom/internal/warp"

// boundMethod pairs a pipeline-processed method with the Management it
// came from, so template helpers can group by owner after the reach
// filter has already flattened everything into one slice.
type boundMethod struct {
	warp.MethodMetadata
	managementName string
}

// MethodHelpers wraps a task's collected-and-piped methods with the
// query helpers spec.md section 4.6 phase 2 names: byManagement(),
// byCrud(), withTag(t), and the creates/reads/updates/deletes/lists
// getters, so templates can slice the method set without re-walking it
// themselves.
type MethodHelpers struct {
	methods []boundMethod
}

// newMethodHelpers builds a MethodHelpers wrapping pipeline's already-
// transformed output.
func newMethodHelpers(methods []boundMethod) MethodHelpers {
	return MethodHelpers{methods: methods}
}

// All returns every collected method, in pipeline order.
func (h MethodHelpers) All() []warp.MethodMetadata {
	out := make([]warp.MethodMetadata, len(h.methods))
	for i, m := range h.methods {
		out[i] = m.MethodMetadata
	}

	return out
}

// ByManagement groups methods by the Management they were declared on.
// Within each group methods keep pipeline order; the result is a map, so
// the order of Management names is not defined.
func (h MethodHelpers) ByManagement() map[string][]warp.MethodMetadata {
	grouped := make(map[string][]warp.MethodMetadata)

	for _, m := range h.methods {
		grouped[m.managementName] = append(grouped[m.managementName], m.MethodMetadata)
	}

	return grouped
}

// ByCrud groups methods by their CRUD operation tag.
func (h MethodHelpers) ByCrud() map[warp.Operation][]warp.MethodMetadata {
	grouped := make(map[warp.Operation][]warp.MethodMetadata)

	for _, m := range h.methods {
		grouped[m.Operation] = append(grouped[m.Operation], m.MethodMetadata)
	}

	return grouped
}

// WithTag returns every method carrying tag.
func (h MethodHelpers) WithTag(tag string) []warp.MethodMetadata {
	var matched []warp.MethodMetadata

	for _, m := range h.methods {
		for _, t := range m.Tags {
			if t == tag {
				matched = append(matched, m.MethodMetadata)
				break
			}
		}
	}

	return matched
}

// Creates, Reads, Updates, Deletes, and Lists return every method of
// the corresponding CRUD operation, mirroring the named getters
// spec.md section 4.6 phase 2 describes.
func (h MethodHelpers) Creates() []warp.MethodMetadata { return h.byOp(warp.OpCreate) }
func (h MethodHelpers) Reads() []warp.MethodMetadata   { return h.byOp(warp.OpRead) }
func (h MethodHelpers) Updates() []warp.MethodMetadata { return h.byOp(warp.OpUpdate) }
func (h MethodHelpers) Deletes() []warp.MethodMetadata { return h.byOp(warp.OpDelete) }
func (h MethodHelpers) Lists() []warp.MethodMetadata   { return h.byOp(warp.OpList) }

func (h MethodHelpers) byOp(op warp.Operation) []warp.MethodMetadata {
	var matched []warp.MethodMetadata

	for _, m := range h.methods {
		if m.Operation == op {
			matched = append(matched, m.MethodMetadata)
		}
	}

	return matched
}
