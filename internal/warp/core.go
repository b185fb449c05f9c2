package warp

// StructField describes one field of a CoreRing's backing struct
// definition, as stamped by the @rust.Struct decorator kernel
// (spec.md section 4.3). Wrappers stack outer-to-inner in decoration order
// (the resolved Open Question from spec.md section 9): a field decorated
// `@Mutex @Option` carries Wrappers == ["Mutex", "Option"], denoting
// Mutex<Option<T>>.
type StructField struct {
	FieldName   string
	Wrappers    []string
	StructClass string
}

// CoreRing is the innermost layer of a weave: a backing struct
// definition, a language tag, and package metadata.
type CoreRing struct {
	namedLayer

	// StructClassName is the Rust/TypeScript class/struct name backing
	// this ring.
	StructClassName string

	Lang Language

	Package PackageMetadata

	// Fields holds the struct's fields as ExternalLayer-carrying values,
	// keyed by field name, populated by @rust.Struct decoration.
	Fields map[string]StructField

	// Routing is this ring's declared CRUD routing table, authored
	// fluently via RouteCrud (spec.md section 4.5 "CRUD routing"). Nil
	// means no routing: every operation resolves to the ring itself.
	Routing *Routing
}

// NewCoreRing constructs a CoreRing. Its canonical Name is left unset:
// heddles assigns it from the first WARP export name under which the
// ring is reached (spec.md section 3 "Layer (abstract)"), falling back to
// StructClassName only when no export ever names it directly.
func NewCoreRing(structClassName string, lang Language) *CoreRing {
	return &CoreRing{
		StructClassName: structClassName,
		Lang:            lang,
		Fields:          make(map[string]StructField),
	}
}

func (r *CoreRing) TypeName() string { return r.StructClassName }

// RouteCrud fluently attaches a CRUD routing table to r (spec.md section
// 4.5 "A layer may declare { read, write, custom? }").
func (r *CoreRing) RouteCrud(routing Routing) *CoreRing {
	r.Routing = &routing
	return r
}

// Validate enforces the CoreRing invariant from spec.md section 3: every
// CoreRing must have a non-empty PackageName after heddles enrichment.
func (r *CoreRing) Validate() error {
	if r.Package.PackageName == "" {
		return &PlanningError{Msg: "CoreRing " + r.StructClassName + " has empty packageName after enrichment"}
	}

	return nil
}

// PlanningError represents a spec.md section 7 taxonomy item 4 "Planning
// error" -- fatal for the whole plan build.
type PlanningError struct {
	Msg string
}

func (e *PlanningError) Error() string { return "planning error: " + e.Msg }
