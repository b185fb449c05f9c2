package warp

// TreadleEntry names one treadle to run as part of a Tieup, along with
// the raw WARP-authored data it should see in its template context.
type TreadleEntry struct {
	Treadle  string
	WarpData map[string]interface{}
}

// TieupConfig is the fluent-API payload passed to Target.Tieup(source, cfg).
type TieupConfig struct {
	Treadles []TreadleEntry
}

// Tieup is a lateral edge that attaches a treadle (generator) to a
// (source, target) pair outside the matrix (spec.md section 3 "Tieup",
// "Glossary"). Tie-up tasks bypass matrix lookup entirely: each
// TreadleEntry becomes its own synthetic GenerationTask during
// heddles' tie-up collection.
type Tieup struct {
	Source Layer
	Target Layer
	Config TieupConfig
}
