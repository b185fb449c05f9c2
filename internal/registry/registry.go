// Package registry implements the block registry: cross-run tracking of
// generated marked blocks and computation of orphans for garbage
// collection. The registry is reconstructed by scanning files at the
// start of each run and held in memory for the run's duration.
package registry

import (
	"sync"

	"github.com/hupe1980/spire-loom/internal/marker"
)

// BlockRef identifies a single marked block's location for cleanup.
type BlockRef struct {
	Path    string
	Markers marker.Markers
}

// key is the map key derived from a BlockRef.
type key struct {
	path, scope, id string
}

func keyOf(r BlockRef) key {
	return key{path: r.Path, scope: r.Markers.Scope, id: r.Markers.Identifier}
}

// Registry tracks blocks across a run: which were known before the run
// started (scanned from disk) and which were (re-)emitted this run.
// It is process-wide, single-writer state for the current run, per
// spec.md section 5 "Shared resources".
type Registry struct {
	mu sync.Mutex

	// previouslyGenerated holds blocks discovered by scanning at the
	// start of the run, before any new generation happened.
	previouslyGenerated map[key]BlockRef

	// emittedThisRun holds blocks (re-)written during the current run.
	emittedThisRun map[key]BlockRef

	started bool
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		previouslyGenerated: make(map[key]BlockRef),
		emittedThisRun:      make(map[key]BlockRef),
	}
}

// Scan registers a block as known from a prior run (normally called
// while walking the filesystem before StartGeneration).
func (r *Registry) Scan(ref BlockRef) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.previouslyGenerated[keyOf(ref)] = ref
}

// StartGeneration begins a new run: the previously-scanned set is
// frozen as "previously generated" and the to-be-generated set is
// cleared, ready to receive this run's emissions via MarkEmitted.
func (r *Registry) StartGeneration() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.emittedThisRun = make(map[key]BlockRef)
	r.started = true
}

// MarkEmitted records that ref was (re-)written during the current run.
func (r *Registry) MarkEmitted(ref BlockRef) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.emittedThisRun[keyOf(ref)] = ref
}

// Orphans returns every previously-generated block that was not
// re-emitted this run -- candidates for removal by CleanupAllBlocks.
func (r *Registry) Orphans() []BlockRef {
	r.mu.Lock()
	defer r.mu.Unlock()

	var orphans []BlockRef

	for k, ref := range r.previouslyGenerated {
		if _, ok := r.emittedThisRun[k]; !ok {
			orphans = append(orphans, ref)
		}
	}

	return orphans
}

// RemoveFunc deletes a single block from its file, returning an error
// if the removal failed. Callers supply this so the registry stays
// decoupled from file I/O (and from the marker package's buffer
// semantics, which the caller already owns).
type RemoveFunc func(ref BlockRef) error

// CleanupAllBlocks removes every orphaned block via remove, then
// folds the previously-generated set down to exactly this run's
// emissions, so the registry is ready for the next StartGeneration.
func (r *Registry) CleanupAllBlocks(remove RemoveFunc) error {
	for _, orphan := range r.Orphans() {
		if err := remove(orphan); err != nil {
			return err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	next := make(map[key]BlockRef, len(r.emittedThisRun))
	for k, v := range r.emittedThisRun {
		next[k] = v
	}

	r.previouslyGenerated = next

	return nil
}
