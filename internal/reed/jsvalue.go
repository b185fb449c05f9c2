package reed

import (
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/hupe1980/spire-loom/internal/warp"
)

// stringLitOf unwraps a string-literal node to its Go string value.
func stringLitOf(n *sitter.Node, content []byte) (string, error) {
	if n == nil || n.Type() != "string" {
		return "", &warp.ConfigError{Msg: "expected a string literal argument"}
	}

	return strings.Trim(nodeText(n, content), `'"`+"`"), nil
}

// jsValueOf evaluates a JS literal expression (string, number, boolean,
// array, or object literal) into a plain Go value, used both for WARP
// tie-up `warpData` and for decorator option-object arguments.
// Anything else (arrow functions, identifiers, template strings with
// interpolation) is preserved as its raw source text rather than
// rejected, since both contexts treat these values as opaque template
// context, not something Reed itself interprets.
func jsValueOf(n *sitter.Node, content []byte) (interface{}, error) {
	if n == nil {
		return nil, nil
	}

	switch n.Type() {
	case "string":
		return strings.Trim(nodeText(n, content), `'"`+"`"), nil
	case "number":
		f, err := strconv.ParseFloat(nodeText(n, content), 64)
		if err != nil {
			return nodeText(n, content), nil
		}

		return f, nil
	case "true":
		return true, nil
	case "false":
		return false, nil
	case "null", "undefined":
		return nil, nil
	case "array":
		var out []interface{}

		for i := 0; i < int(n.NamedChildCount()); i++ {
			v, err := jsValueOf(n.NamedChild(i), content)
			if err != nil {
				return nil, err
			}

			out = append(out, v)
		}

		return out, nil
	case "object":
		out := make(map[string]interface{})

		for i := 0; i < int(n.NamedChildCount()); i++ {
			pair := n.NamedChild(i)
			if pair.Type() != "pair" {
				continue
			}

			key := strings.Trim(nodeText(childByField(pair, "key"), content), `'"`+"`")

			v, err := jsValueOf(childByField(pair, "value"), content)
			if err != nil {
				return nil, err
			}

			out[key] = v
		}

		return out, nil
	default:
		return nodeText(n, content), nil
	}
}

// parseLiteralExpr parses a standalone JS expression fragment (e.g. the
// raw source text of a decorator argument) by embedding it in a throwaway
// declaration, returning its evaluated value. Used to interpret a
// @crud.<op>(options) decorator's options object without re-threading
// sitter nodes through the decorator-call abstraction in tsast.go, which
// deliberately flattens decorator arguments to source text.
func parseLiteralExpr(raw string) (interface{}, error) {
	src := "const __opt__ = " + raw + ";"

	tree, err := parseTS([]byte(src))
	if err != nil {
		return nil, &warp.ConfigError{Msg: "decorator option literal: " + err.Error()}
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.NamedChildCount() == 0 {
		return nil, nil
	}

	decl := root.NamedChild(0)

	var valueNode *sitter.Node

	for i := 0; i < int(decl.NamedChildCount()); i++ {
		d := decl.NamedChild(i)
		if d.Type() == "variable_declarator" {
			valueNode = childByField(d, "value")
		}
	}

	return jsValueOf(valueNode, []byte(src))
}
