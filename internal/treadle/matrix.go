package treadle

import (
	"github.com/hupe1980/spire-loom/internal/heddles"
)

// BuildMatrix runs matrix composition (spec.md section 4.6): every
// (current, previous) pair a Definition claims is registered against
// its name, later entries of defs winning ties for the same pair. A
// workspace override has already replaced the built-in of the same name
// in the Registry, so it never ties with that built-in here.
func BuildMatrix(defs []*Definition) *heddles.TreadleMatrix {
	entries := make(map[string]string)

	for _, d := range defs {
		for _, m := range d.Matches {
			entries[matrixKey(m.Current, m.Previous)] = d.Name
		}
	}

	return heddles.NewTreadleMatrix(entries)
}

func matrixKey(current, previous string) string {
	return current + "->" + previous
}
