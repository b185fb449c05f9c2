package sley

import (
	"strings"

	"github.com/hupe1980/spire-loom/internal/warp"
)

// AddPrefix rewrites every method's name to "{prefix}{originalName}".
// prefix is taken verbatim, so callers that want an underscore separator
// (as AddManagementPrefix does) include it themselves.
func AddPrefix(prefix string) Translation {
	return func(methods []warp.MethodMetadata) []warp.MethodMetadata {
		out := make([]warp.MethodMetadata, len(methods))

		for i, m := range methods {
			m.Name = prefix + m.Name
			out[i] = m
		}

		return out
	}
}

// AddManagementPrefix rewrites every method's name to
// "{mgmtSnake}_{originalName}" for collision-free bind points across
// Managements bound to the same ring (spec.md section 8 "uniqueness of
// bind-points").
func AddManagementPrefix(managementName string) Translation {
	return AddPrefix(toSnakeCase(managementName) + "_")
}

// crudOperations lists the operations crudInterfaceMapping renames onto,
// in the canonical order spec.md section 4.5 lists them.
var crudOperations = []warp.Operation{
	warp.OpCreate, warp.OpRead, warp.OpUpdate, warp.OpDelete, warp.OpList,
}

func isCrudOperation(op warp.Operation) bool {
	for _, candidate := range crudOperations {
		if op == candidate {
			return true
		}
	}

	return false
}

// CrudInterfaceMapping remaps CRUD-tagged methods onto the standard
// interface name for their operation (create/read/update/delete/list),
// and marks the first parameter of create/update methods as a
// destructurable data payload.
func CrudInterfaceMapping() Translation {
	return func(methods []warp.MethodMetadata) []warp.MethodMetadata {
		out := make([]warp.MethodMetadata, len(methods))

		for i, m := range methods {
			if isCrudOperation(m.Operation) {
				m.Name = string(m.Operation)
			}

			if (m.Operation == warp.OpCreate || m.Operation == warp.OpUpdate) && len(m.Params) > 0 {
				params := make([]warp.Param, len(m.Params))
				copy(params, m.Params)
				params[0].IsDataPayload = true
				m.Params = params
			}

			out[i] = m
		}

		return out
	}
}

// MapTypes rewrites parameter and return type strings via mapping,
// unwrapping one level of "Promise<...>" before falling back to the
// type unchanged (e.g. mapping `X` while the captured return type was
// `Promise<X>`).
func MapTypes(mapping map[string]string) Translation {
	return func(methods []warp.MethodMetadata) []warp.MethodMetadata {
		out := make([]warp.MethodMetadata, len(methods))

		for i, m := range methods {
			m.ReturnType = mapType(m.ReturnType, mapping)

			params := make([]warp.Param, len(m.Params))
			for j, p := range m.Params {
				p.Type = mapType(p.Type, mapping)
				params[j] = p
			}

			m.Params = params
			out[i] = m
		}

		return out
	}
}

func mapType(t string, mapping map[string]string) string {
	if mapped, ok := mapping[t]; ok {
		return mapped
	}

	if strings.HasPrefix(t, "Promise<") && strings.HasSuffix(t, ">") {
		return mapType(t[len("Promise<"):len(t)-1], mapping)
	}

	return t
}

// TagFilter drops methods bearing any of the listed tags. Methods
// without tags are never dropped.
func TagFilter(tags []string) Predicate {
	drop := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		drop[t] = struct{}{}
	}

	return func(m warp.MethodMetadata) bool {
		if len(m.Tags) == 0 {
			return true
		}

		for _, t := range m.Tags {
			if _, ok := drop[t]; ok {
				return false
			}
		}

		return true
	}
}

// CrudOperationFilter keeps only methods whose operation is in ops.
func CrudOperationFilter(ops []warp.Operation) Predicate {
	keep := make(map[warp.Operation]struct{}, len(ops))
	for _, op := range ops {
		keep[op] = struct{}{}
	}

	return func(m warp.MethodMetadata) bool {
		_, ok := keep[m.Operation]
		return ok
	}
}

// toSnakeCase converts a PascalCase or camelCase management name to
// snake_case for bind-point prefixing.
func toSnakeCase(name string) string {
	var b strings.Builder

	for i, r := range name {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}

			b.WriteRune(r - 'A' + 'a')

			continue
		}

		b.WriteRune(r)
	}

	return b.String()
}
