package warp

// SpiralMux is a concrete aggregation layer over N inner rings
// (platform rings), with its own attached spiralers map. A MuxSpiraler
// has no package of its own: package metadata propagates into each of
// its inner rings instead (spec.md section 4.4 "Metadata ensurance").
type SpiralMux struct {
	namedLayer

	InnerRings []Layer

	// Spiralers holds this mux's attached capability edges, keyed by
	// capability name (e.g. "tauri").
	Spiralers map[string]*Spiraler

	Tieups []*Tieup
}

// NewSpiralMux aggregates inners under one logical layer, preserving order.
func NewSpiralMux(inners ...Layer) *SpiralMux {
	return &SpiralMux{
		InnerRings: inners,
		Spiralers:  make(map[string]*Spiraler),
	}
}

func (m *SpiralMux) TypeName() string {
	// With a spiraler attached, use that spiraler's class name,
	// unifying matrix keys with spiraler identity (spec.md section 4.4 step
	// 1). Iteration order over the map is irrelevant: a SpiralMux in
	// practice carries at most one attached spiraler (the aggregator
	// itself, e.g. TauriSpiraler); multiple would be an authoring
	// error the matrix match will simply fail to resolve usefully.
	for _, sp := range m.Spiralers {
		return sp.ClassName
	}

	return "SpiralMux"
}

// AttachSpiraler registers a capability edge under name.
func (m *SpiralMux) AttachSpiraler(name string, sp *Spiraler) *SpiralMux {
	m.Spiralers[name] = sp
	return m
}

// Tieup fluently authors a lateral edge: m (as target) consumes source.
func (m *SpiralMux) Tieup(source Layer, config TieupConfig) *SpiralMux {
	m.Tieups = append(m.Tieups, &Tieup{Source: source, Target: m, Config: config})
	return m
}
