// Package template implements the built-in EJS-style template dialect
// (spec.md section 9 "Template engine"): `<%= expr %>` and `<%- expr %>`
// tags evaluated against a merged data record, plus the language-aware
// name/type transform helpers and workspace/built-in template discovery
// spec.md section 6's template contract describes.
//
// Deliberately not built on a generic templating framework: spec.md is
// explicit that "implementations should not pull in a generic templating
// framework" here, so the evaluator below is a small hand-rolled
// expression grammar over identifiers, dotted paths, string literals, and
// single-argument helper calls -- exactly the surface the template
// contract needs and no more.
package template

import (
	"bytes"
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"
)

// Func is a single-argument template helper (camelCase, snake_case, a
// type-map lookup, ...).
type Func func(string) string

// FuncMap names the helpers available to expressions during Render.
type FuncMap map[string]Func

var tagRe = regexp.MustCompile(`<%([=-])\s*(.*?)\s*%>`)

// Render expands every `<%= expr %>` / `<%- expr %>` tag in src against
// data and funcs. `<%=` HTML-escapes its result; `<%-` emits it raw, the
// same distinction EJS itself draws.
func Render(src string, data map[string]interface{}, funcs FuncMap) (string, error) {
	var buf bytes.Buffer

	last := 0

	for _, m := range tagRe.FindAllStringSubmatchIndex(src, -1) {
		buf.WriteString(src[last:m[0]])

		mode := src[m[2]:m[3]]
		expr := src[m[4]:m[5]]

		val, err := evalExpr(expr, data, funcs)
		if err != nil {
			return "", fmt.Errorf("rendering template expression %q: %w", expr, err)
		}

		if mode == "=" {
			buf.WriteString(html.EscapeString(val))
		} else {
			buf.WriteString(val)
		}

		last = m[1]
	}

	buf.WriteString(src[last:])

	return buf.String(), nil
}

var callRe = regexp.MustCompile(`^(\w+)\((.*)\)$`)

// evalExpr evaluates one `<%= %>`/`<%- %>` expression: a string literal,
// a dotted identifier path into data, or a single-argument call to a
// registered helper applied to either of those.
func evalExpr(expr string, data map[string]interface{}, funcs FuncMap) (string, error) {
	expr = strings.TrimSpace(expr)

	if m := callRe.FindStringSubmatch(expr); m != nil {
		fn, ok := funcs[m[1]]
		if !ok {
			return "", fmt.Errorf("unknown template helper %q", m[1])
		}

		arg, err := evalExpr(m[2], data, funcs)
		if err != nil {
			return "", err
		}

		return fn(arg), nil
	}

	if lit, ok := stringLiteral(expr); ok {
		return lit, nil
	}

	return lookupPath(expr, data)
}

func stringLiteral(expr string) (string, bool) {
	if len(expr) >= 2 && expr[0] == '"' && expr[len(expr)-1] == '"' {
		return expr[1 : len(expr)-1], true
	}

	if len(expr) >= 2 && expr[0] == '\'' && expr[len(expr)-1] == '\'' {
		return expr[1 : len(expr)-1], true
	}

	return "", false
}

// lookupPath resolves a dotted identifier path (e.g. "link.fieldName" or
// "params.0.name") against a merged data record of nested
// map[string]interface{} values and []interface{} collections.
func lookupPath(path string, data map[string]interface{}) (string, error) {
	parts := strings.Split(path, ".")

	var current interface{} = data

	for i, part := range parts {
		switch v := current.(type) {
		case map[string]interface{}:
			val, ok := v[part]
			if !ok {
				return "", fmt.Errorf("undefined identifier %q", path)
			}

			current = val
		case []interface{}:
			idx, err := strconv.Atoi(part)
			if err != nil || idx < 0 || idx >= len(v) {
				return "", fmt.Errorf("%q is not a valid index into %q", part, strings.Join(parts[:i], "."))
			}

			current = v[idx]
		default:
			return "", fmt.Errorf("%q is not a record while resolving %q", strings.Join(parts[:i], "."), path)
		}
	}

	return fmt.Sprintf("%v", current), nil
}
