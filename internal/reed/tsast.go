package reed

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// parseTS parses TypeScript source with tree-sitter. Reed reads WARP
// and Management modules this way instead of truly executing
// JavaScript, per SPEC_FULL.md section 4.3: "dynamic import" is realized as
// structural static analysis, grounded on kraklabs-cie's tree-sitter
// based ingestion engine.
func parseTS(content []byte) (*sitter.Tree, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(typescript.GetLanguage())

	tree, err := parser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return nil, fmt.Errorf("tree-sitter parse: %w", err)
	}

	return tree, nil
}

// nodeText returns the verbatim source text spanned by node.
func nodeText(node *sitter.Node, content []byte) string {
	if node == nil {
		return ""
	}

	return string(content[node.StartByte():node.EndByte()])
}

// childByField is a nil-safe wrapper over Node.ChildByFieldName.
func childByField(node *sitter.Node, field string) *sitter.Node {
	if node == nil {
		return nil
	}

	return node.ChildByFieldName(field)
}

// walk calls visit for node and every descendant, depth-first,
// pre-order.
func walk(node *sitter.Node, visit func(*sitter.Node) bool) {
	if node == nil {
		return
	}

	if !visit(node) {
		return
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		walk(node.Child(i), visit)
	}
}

// topLevelExportedDeclarators finds every top-level `export const NAME =
// EXPR` (or `export let`/`export var`) binding and returns, in source
// (insertion) order, the declared name alongside its initializer
// expression node. This is how Reed discovers WARP roots and Drizzle
// schema table bindings: both are plain exported const declarations.
func topLevelExportedDeclarators(root *sitter.Node, content []byte) []exportedBinding {
	var bindings []exportedBinding

	if root == nil {
		return bindings
	}

	for i := 0; i < int(root.ChildCount()); i++ {
		stmt := root.Child(i)
		if stmt.Type() != "export_statement" {
			continue
		}

		decl := stmt.NamedChild(0)
		if decl == nil || decl.Type() != "lexical_declaration" {
			continue
		}

		for j := 0; j < int(decl.NamedChildCount()); j++ {
			declarator := decl.NamedChild(j)
			if declarator.Type() != "variable_declarator" {
				continue
			}

			nameNode := childByField(declarator, "name")
			valueNode := childByField(declarator, "value")

			if nameNode == nil {
				continue
			}

			bindings = append(bindings, exportedBinding{
				Name:  nodeText(nameNode, content),
				Value: valueNode,
			})
		}
	}

	return bindings
}

// exportedBinding is one `export const NAME = EXPR` pair.
type exportedBinding struct {
	Name  string
	Value *sitter.Node
}

// classDeclarations returns every class_declaration node in the file,
// along with any leading decorator call expressions attached to it
// (tree-sitter-typescript attaches decorators as preceding siblings
// inside the enclosing export_statement, or as a `decorator` child of
// the class node depending on grammar version; both are handled).
func classDeclarations(root *sitter.Node, content []byte) []classWithDecorators {
	var out []classWithDecorators

	walk(root, func(n *sitter.Node) bool {
		if n.Type() != "class_declaration" {
			return true
		}

		out = append(out, classWithDecorators{
			Node:       n,
			Decorators: decoratorsPreceding(n, content),
		})

		return true
	})

	return out
}

type classWithDecorators struct {
	Node       *sitter.Node
	Decorators []decoratorCall
}

type decoratorCall struct {
	// Name is the decorator's identifier path, e.g. "reach" or "crud.create".
	Name string
	// Args are the raw source text of each call argument, in order.
	Args []string
}

// decoratorsPreceding collects the `decorator` siblings immediately
// preceding n within its parent (a named non-decorator sibling ends the
// run), followed by any `decorator` children of n itself; the grammar
// uses both shapes for `@foo() class X {}` and decorated members.
func decoratorsPreceding(n *sitter.Node, content []byte) []decoratorCall {
	var decorators []decoratorCall

	if parent := n.Parent(); parent != nil {
		for i := 0; i < int(parent.ChildCount()); i++ {
			child := parent.Child(i)
			if child.Equal(n) {
				break
			}

			if child.Type() == "decorator" {
				decorators = append(decorators, parseDecoratorNode(child, content))
			} else if child.IsNamed() {
				decorators = nil
			}
		}
	}

	for i := 0; i < int(n.ChildCount()); i++ {
		if child := n.Child(i); child.Type() == "decorator" {
			decorators = append(decorators, parseDecoratorNode(child, content))
		}
	}

	return decorators
}

// parseDecoratorNode extracts the callee name and argument source text
// from a `decorator` node, accepting both bare (`@reach`) and
// call (`@crud.create(...)`) forms.
func parseDecoratorNode(dec *sitter.Node, content []byte) decoratorCall {
	var target *sitter.Node

	for i := 0; i < int(dec.NamedChildCount()); i++ {
		target = dec.NamedChild(i)
	}

	if target == nil {
		return decoratorCall{}
	}

	if target.Type() == "call_expression" {
		fn := childByField(target, "function")
		args := childByField(target, "arguments")

		var argTexts []string

		if args != nil {
			for i := 0; i < int(args.NamedChildCount()); i++ {
				argTexts = append(argTexts, nodeText(args.NamedChild(i), content))
			}
		}

		return decoratorCall{Name: nodeText(fn, content), Args: argTexts}
	}

	return decoratorCall{Name: nodeText(target, content)}
}

// methodDefinitions returns every method_definition within a class body.
func methodDefinitions(class *sitter.Node, content []byte) []methodWithDecorators {
	body := childByField(class, "body")
	if body == nil {
		return nil
	}

	var out []methodWithDecorators

	for i := 0; i < int(body.NamedChildCount()); i++ {
		member := body.NamedChild(i)
		if member.Type() != "method_definition" {
			continue
		}

		nameNode := childByField(member, "name")

		out = append(out, methodWithDecorators{
			Name:       nodeText(nameNode, content),
			Decorators: decoratorsPreceding(member, content),
			Node:       member,
		})
	}

	return out
}

type methodWithDecorators struct {
	Name       string
	Decorators []decoratorCall
	Node       *sitter.Node
}

// fieldDefinitions returns every public_field_definition within a class
// body, used to read @rust.{Mutex,Option,Arc,RwLock,...} wrapper
// decorators off a @rust.Struct-marked class (spec.md section 4.3).
func fieldDefinitions(class *sitter.Node, content []byte) []fieldWithDecorators {
	body := childByField(class, "body")
	if body == nil {
		return nil
	}

	var out []fieldWithDecorators

	for i := 0; i < int(body.NamedChildCount()); i++ {
		member := body.NamedChild(i)
		if member.Type() != "public_field_definition" {
			continue
		}

		nameNode := childByField(member, "name")

		out = append(out, fieldWithDecorators{
			Name:       nodeText(nameNode, content),
			Decorators: decoratorsPreceding(member, content),
			Node:       member,
		})
	}

	return out
}

type fieldWithDecorators struct {
	Name       string
	Decorators []decoratorCall
	Node       *sitter.Node
}
