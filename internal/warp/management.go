package warp

import "fmt"

// Operation is a CRUD operation tag.
type Operation string

const (
	OpCreate Operation = "create"
	OpRead   Operation = "read"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
	OpList   Operation = "list"
)

// Param is a single method parameter. Full type reflection is not
// required (spec.md section 4.3): names and type strings are captured
// verbatim from the source.
type Param struct {
	Name string
	Type string

	// IsDataPayload is set by sley's crudInterfaceMapping translation:
	// true for the first parameter of a create/update method, which the
	// standard interface treats as a destructurable data payload rather
	// than a scalar argument (spec.md section 4.5).
	IsDataPayload bool
}

// MethodMetadata is a Management method as discovered by Reed, before
// any sley translation (spec.md section 3 "Management").
type MethodMetadata struct {
	Name         string
	Operation    Operation
	Params       []Param
	ReturnType   string
	IsCollection bool
	IsSoftDelete bool
	Tags         []string
	Description  string

	// UseResult is set by heddles enrichment: true when ReturnType
	// denotes a fallible type, meaning generated call sites must
	// propagate an error result (spec.md section 4.4 "Enrichment from
	// ownership chain").
	UseResult bool
}

// Link references a struct field of a CoreRing, giving a Management's
// generated binding its owning field name and wrapper chain.
type Link struct {
	StructClass string
	FieldName   string
	Wrappers    []string
}

// Management is a class marked with @reach(level) containing
// @crud.*-tagged methods (spec.md section 3 "Management").
type Management struct {
	Name       string
	Reach      Reach
	SourceFile string
	Methods    []MethodMetadata
	Link       *Link
}

// ValidateUniqueMethodNames enforces "Method names within one
// Management are unique" (spec.md section 3 invariants).
func (m *Management) ValidateUniqueMethodNames() error {
	seen := make(map[string]struct{}, len(m.Methods))

	for _, method := range m.Methods {
		if _, ok := seen[method.Name]; ok {
			return &ConfigError{Msg: fmt.Sprintf(
				"management %q declares method %q more than once", m.Name, method.Name)}
		}

		seen[method.Name] = struct{}{}
	}

	return nil
}

// ValidateLink checks that a Management's link (if any) resolves to a
// field that exists on its CoreRing's struct.
func (m *Management) ValidateLink(core *CoreRing) error {
	if m.Link == nil {
		return nil
	}

	if core == nil {
		return &ConfigError{Msg: fmt.Sprintf(
			"management %q links to field %q but no CoreRing was resolved", m.Name, m.Link.FieldName)}
	}

	if _, ok := core.Fields[m.Link.FieldName]; !ok {
		return &ConfigError{Msg: fmt.Sprintf(
			"management %q links to field %q which does not exist on struct %q",
			m.Name, m.Link.FieldName, core.StructClassName)}
	}

	return nil
}

// ConfigError represents a spec.md section 7 taxonomy item 1 "Configuration
// error" -- fatal for the affected task only, run continues.
type ConfigError struct {
	Msg string
}

func (e *ConfigError) Error() string { return "configuration error: " + e.Msg }
