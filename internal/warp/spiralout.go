package warp

// SpiralOut is a concrete wrapping layer: exactly one inner Ring plus
// the TreadleTag that names the generator responsible for producing
// it, plus a map of attached Spiraler capability properties (the
// "dynamic property polymorphism" described in spec.md section 9 -- concrete
// members vary per core, modeled here as a map keyed by capability
// name rather than naive structural subtyping).
type SpiralOut struct {
	namedLayer

	Inner      Layer
	TreadleTag string

	// Spiralers holds this ring's attached capability edges, keyed by
	// capability name (e.g. "android", "desktop", "tauri").
	Spiralers map[string]*Spiraler

	// Tieups authored fluently via Tieup(source, ...) against this ring
	// as target.
	Tieups []*Tieup

	// pkg holds explicit package metadata overrides; nil means
	// "inherit from Inner" per spec.md section 4.4 "Metadata ensurance".
	pkgOverride *PackageMetadata
}

// NewSpiralOut wraps inner with the given treadle tag.
func NewSpiralOut(inner Layer, treadleTag string) *SpiralOut {
	return &SpiralOut{
		Inner:      inner,
		TreadleTag: treadleTag,
		Spiralers:  make(map[string]*Spiraler),
	}
}

func (s *SpiralOut) TypeName() string {
	// Effective type name: when the inner layer is itself a Spiraler
	// edge, unify matrix keys with that spiraler's class identity
	// (spec.md section 4.4 step 1). Otherwise fall back to this layer's own
	// type.
	if sp, ok := s.Inner.(*Spiraler); ok {
		return sp.ClassName
	}

	return "SpiralOut"
}

// WithPackageOverride explicitly overrides package metadata instead of
// inheriting it from Inner.
func (s *SpiralOut) WithPackageOverride(meta PackageMetadata) *SpiralOut {
	s.pkgOverride = &meta
	return s
}

// AttachSpiraler registers a capability edge under name.
func (s *SpiralOut) AttachSpiraler(name string, sp *Spiraler) *SpiralOut {
	s.Spiralers[name] = sp
	return s
}

// Tieup fluently authors a lateral edge: s (as target) consumes source
// via the given treadle config (spec.md section 3 "Tieup").
func (s *SpiralOut) Tieup(source Layer, config TieupConfig) *SpiralOut {
	s.Tieups = append(s.Tieups, &Tieup{Source: source, Target: s, Config: config})
	return s
}

// ResolvePackage returns this ring's effective package metadata,
// inheriting from Inner when no explicit override is set (spec.md
// section 4.4 "Metadata ensurance"). innerPackage is supplied by the caller
// (heddles) after it has itself been resolved, since SpiralOut does
// not know how to resolve an arbitrary Layer's package on its own.
func (s *SpiralOut) ResolvePackage(innerPackage PackageMetadata) PackageMetadata {
	if s.pkgOverride != nil {
		return *s.pkgOverride
	}

	return innerPackage
}
