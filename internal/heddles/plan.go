package heddles

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hupe1980/spire-loom/internal/warp"
)

// WeavingPlan is the result of Heddles' traversal and matrix-matching
// passes over a workspace's WARP roots (spec.md section 4.4). It is built in
// two stages -- NewPlan traverses and records nodes/edges, then Build
// assigns GenerationTasks (matrix matching plus tie-ups) and calls
// Finalize -- and
// guards its task-facing accessors against being read before that
// second stage runs, mirroring chart2kro's PlanResult/BuildPlan split
// between structural plan data and the evolution pass applied after.
type WeavingPlan struct {
	nodesByType map[string][]warp.Layer
	edges       []*warp.SpiralEdge
	tieups      []*warp.Tieup
	managements []*warp.Management
	tasks       []*warp.GenerationTask

	complete bool
}

// NewPlan traverses every WARP root and returns a WeavingPlan with its
// nodes, edges, tie-ups and managements populated but no
// GenerationTasks assigned yet.
func NewPlan(roots []Root, managements []*warp.Management) *WeavingPlan {
	nodesByType, edges, tieups := Traverse(roots)

	return &WeavingPlan{
		nodesByType: nodesByType,
		edges:       edges,
		tieups:      tieups,
		managements: managements,
	}
}

// Tieups returns every tie-up discovered during traversal, in the
// order first encountered. Safe to call at any stage.
func (p *WeavingPlan) Tieups() []*warp.Tieup {
	return p.tieups
}

// Managements returns the Management classes Reed collected, enriched
// in place by Enrich once Build has run.
func (p *WeavingPlan) Managements() []*warp.Management {
	return p.managements
}

// Build runs the full Heddles pipeline against roots: traversal,
// package-metadata propagation, matrix matching, tie-up collection,
// and enrichment, returning a finalized WeavingPlan (spec.md
// section 4.4). Grounded on chart2kro's top-level BuildPlan, which
// likewise composes several independent passes over already-parsed
// data into one PlanResult.
func Build(roots []Root, managements []*warp.Management, matrix *TreadleMatrix) *WeavingPlan {
	p := NewPlan(roots, managements)

	PropagatePackageMetadata(roots)
	Enrich(p)

	tasks := matrix.MatchEdges(p.edges)
	tasks = append(tasks, CollectTieups(p.tieups)...)

	p.Finalize(tasks)

	return p
}

// NodesByType returns every discovered Layer grouped by effective type
// name (spec.md section 4.4 step 1). Safe to call at any stage.
func (p *WeavingPlan) NodesByType() map[string][]warp.Layer {
	return p.nodesByType
}

// Edges returns every deduplicated structural edge discovered during
// traversal. Safe to call at any stage.
func (p *WeavingPlan) Edges() []*warp.SpiralEdge {
	return p.edges
}

// Finalize records the GenerationTasks the matrix and tie-up passes
// produced and marks the plan complete. Calling it twice replaces the
// previous task list; Heddles itself only ever calls it once per run.
func (p *WeavingPlan) Finalize(tasks []*warp.GenerationTask) {
	p.tasks = tasks
	p.complete = true
}

// Tasks returns the plan's GenerationTasks. It panics if called before
// Finalize, since a caller reading tasks from an unfinalized plan is a
// programming error, not a runtime condition to recover from.
func (p *WeavingPlan) Tasks() []*warp.GenerationTask {
	if !p.complete {
		panic("heddles: Tasks() called on a WeavingPlan before Finalize")
	}

	return p.tasks
}

// IsComplete reports whether Finalize has run.
func (p *WeavingPlan) IsComplete() bool {
	return p.complete
}

// DependencyGraph builds the DAG of Layer dependencies implied by the
// plan's structural edges -- a SPEC_FULL.md supplement grounded on
// chart2kro's internal/transform/deps.go DependencyGraph, repurposed
// here from Kubernetes resource references to WARP ring nesting. A
// parent ring "depends on" (must be generated after) the children it
// wraps.
type DependencyGraph struct {
	nodes map[string]warp.Layer
	edges map[string]map[string]struct{}
}

// NewDependencyGraph creates an empty dependency graph.
func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{
		nodes: make(map[string]warp.Layer),
		edges: make(map[string]map[string]struct{}),
	}
}

// AddNode registers a Layer under id.
func (g *DependencyGraph) AddNode(id string, l warp.Layer) {
	g.nodes[id] = l

	if _, ok := g.edges[id]; !ok {
		g.edges[id] = make(map[string]struct{})
	}
}

// AddEdge records that source depends on target. Both must already be
// registered nodes; a self-reference or an edge to an unknown target
// is silently dropped.
func (g *DependencyGraph) AddEdge(source, target string) {
	if source == target {
		return
	}

	if _, ok := g.nodes[target]; !ok {
		return
	}

	if _, ok := g.edges[source]; !ok {
		g.edges[source] = make(map[string]struct{})
	}

	g.edges[source][target] = struct{}{}
}

// Nodes returns all node IDs, sorted.
func (g *DependencyGraph) Nodes() []string {
	ids := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}

	sort.Strings(ids)

	return ids
}

// DependenciesOf returns the IDs the given node depends on, sorted.
func (g *DependencyGraph) DependenciesOf(id string) []string {
	deps := make([]string, 0, len(g.edges[id]))
	for dep := range g.edges[id] {
		deps = append(deps, dep)
	}

	sort.Strings(deps)

	return deps
}

// Layer returns the Layer registered under id.
func (g *DependencyGraph) Layer(id string) warp.Layer {
	return g.nodes[id]
}

// TopologicalSort orders nodes so each comes after everything it
// depends on, using Kahn's algorithm with alphabetical tie-breaking for
// determinism. Returns an error if the graph has a cycle.
func (g *DependencyGraph) TopologicalSort() ([]string, error) {
	inDegree := make(map[string]int)
	for id := range g.nodes {
		inDegree[id] = 0
	}

	reverseEdges := make(map[string]map[string]struct{})

	for source, targets := range g.edges {
		for target := range targets {
			if _, ok := reverseEdges[target]; !ok {
				reverseEdges[target] = make(map[string]struct{})
			}

			reverseEdges[target][source] = struct{}{}
			inDegree[source]++
		}
	}

	var queue []string

	for id, deg := range inDegree {
		if deg == 0 {
			queue = append(queue, id)
		}
	}

	sort.Strings(queue)

	var result []string

	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		result = append(result, node)

		for dep := range reverseEdges[node] {
			inDegree[dep]--
			if inDegree[dep] == 0 {
				i := sort.SearchStrings(queue, dep)
				queue = append(queue, "")
				copy(queue[i+1:], queue[i:])
				queue[i] = dep
			}
		}
	}

	if len(result) != len(g.nodes) {
		cycles := g.DetectCycles()
		if len(cycles) > 0 {
			return nil, fmt.Errorf("dependency cycle detected: %s", strings.Join(cycles[0], "->"))
		}

		return nil, fmt.Errorf("dependency cycle detected in weave graph")
	}

	return result, nil
}

// DetectCycles returns every unique cycle in the graph via DFS,
// deduplicated by rotating each cycle to its lexicographically smallest
// node before comparing.
func (g *DependencyGraph) DetectCycles() [][]string {
	visited := make(map[string]bool)
	recStack := make(map[string]bool)
	path := make([]string, 0)
	seen := make(map[string]bool)

	var cycles [][]string

	var dfs func(node string)
	dfs = func(node string) {
		visited[node] = true
		recStack[node] = true
		path = append(path, node)

		for dep := range g.edges[node] {
			if !visited[dep] {
				dfs(dep)
			} else if recStack[dep] {
				cycle := []string{dep}

				for i := len(path) - 1; i >= 0; i-- {
					if path[i] == dep {
						break
					}

					cycle = append([]string{path[i]}, cycle...)
				}

				cycle = append(cycle, dep)

				key := normalizeCycle(cycle)
				if !seen[key] {
					seen[key] = true
					cycles = append(cycles, cycle)
				}
			}
		}

		path = path[:len(path)-1]
		recStack[node] = false
	}

	for id := range g.nodes {
		if !visited[id] {
			dfs(id)
		}
	}

	return cycles
}

func normalizeCycle(cycle []string) string {
	if len(cycle) <= 1 {
		return strings.Join(cycle, "->")
	}

	nodes := cycle[:len(cycle)-1]

	minIdx := 0
	for i := 1; i < len(nodes); i++ {
		if nodes[i] < nodes[minIdx] {
			minIdx = i
		}
	}

	var b strings.Builder

	for i := 0; i < len(nodes); i++ {
		if i > 0 {
			b.WriteString("->")
		}

		b.WriteString(nodes[(minIdx+i)%len(nodes)])
	}

	return b.String()
}

// BuildDependencyGraph derives a DependencyGraph from a plan's
// structural edges. Node IDs are "TypeName#N", N being the node's
// index within NodesByType()[TypeName] -- stable across one run since
// traversal order is deterministic, and readable in diagnostics.
func (p *WeavingPlan) BuildDependencyGraph() *DependencyGraph {
	g := NewDependencyGraph()

	ids := make(map[warp.Layer]string)

	for typeName, nodes := range p.nodesByType {
		for i, n := range nodes {
			id := fmt.Sprintf("%s#%d", typeName, i)
			ids[n] = id
			g.AddNode(id, n)
		}
	}

	for _, edge := range p.edges {
		sourceID, ok := ids[edge.From]
		if !ok {
			continue
		}

		targetID, ok := ids[edge.To]
		if !ok {
			continue
		}

		g.AddEdge(sourceID, targetID)
	}

	return g
}
