package reed

import (
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/hupe1980/spire-loom/internal/warp"
)

// WarpRoot is one export of a WARP module resolved to a Layer (spec.md
// section 4.3 "WARP loading": "Every export whose value is a Layer is a
// root."). Order matches source insertion order.
type WarpRoot struct {
	ExportName string
	Layer      warp.Layer
}

// warpFactories are the recognized WARP.ts ring/edge factory calls.
// Reed's WARP.ts dialect expresses the host's class hierarchy (Spiraler
// subclasses constructed with `new`) as factory functions instead,
// since a tree-sitter reading of WARP.ts cannot resolve an arbitrary
// `class X extends Spiraler` definition the way a real import would;
// see SPEC_FULL.md section 4.3 "WARP authoring convention".
const (
	fnCoreRing     = "coreRing"
	fnSpiralOut    = "spiralOut"
	fnSpiralMux    = "spiralMux"
	fnSpiraler     = "spiraler"
	fnMuxSpiraler  = "muxSpiraler"
	fnAttachSpiral = "attachSpiraler"
	fnTieup        = "tieup"
	fnRouteCrud    = "routeCrud"
)

// ParseWarp interprets a WARP.ts module and returns its roots in
// insertion order: one entry per export whose value evaluates to a
// Layer (spec.md section 4.3 "WARP loading"). Non-Layer exports are ignored.
func ParseWarp(content []byte) ([]WarpRoot, error) {
	tree, err := parseTS(content)
	if err != nil {
		return nil, &warp.ConfigError{Msg: fmt.Sprintf("WARP parse: %s", err)}
	}
	defer tree.Close()

	in := &warpInterp{content: content, env: map[string]warp.Layer{}}

	var roots []WarpRoot

	root := tree.RootNode()
	for i := 0; i < int(root.ChildCount()); i++ {
		stmt := root.Child(i)

		switch stmt.Type() {
		case "lexical_declaration":
			if err := in.bindDeclarators(stmt, nil); err != nil {
				return nil, err
			}
		case "export_statement":
			exported, err := in.handleExportStatement(stmt)
			if err != nil {
				return nil, err
			}

			roots = append(roots, exported...)
		}
	}

	return roots, nil
}

type warpInterp struct {
	content []byte
	env     map[string]warp.Layer
}

// bindDeclarators evaluates each `const NAME = EXPR` declarator in decl,
// storing Layer-valued results in the environment. When collect is
// non-nil, every binding that evaluates to a Layer is also appended to
// *collect in declaration order (used for `export const ...`).
func (in *warpInterp) bindDeclarators(decl *sitter.Node, collect *[]WarpRoot) error {
	for i := 0; i < int(decl.NamedChildCount()); i++ {
		declarator := decl.NamedChild(i)
		if declarator.Type() != "variable_declarator" {
			continue
		}

		nameNode := childByField(declarator, "name")
		valueNode := childByField(declarator, "value")

		if nameNode == nil {
			continue
		}

		name := nodeText(nameNode, in.content)

		layer, err := in.eval(valueNode)
		if err != nil {
			return err
		}

		if layer == nil {
			continue
		}

		in.env[name] = layer

		if collect != nil {
			*collect = append(*collect, WarpRoot{ExportName: name, Layer: layer})
		}
	}

	return nil
}

// handleExportStatement covers both `export const NAME = EXPR` and the
// bare re-export clause `export { a, b }`.
func (in *warpInterp) handleExportStatement(stmt *sitter.Node) ([]WarpRoot, error) {
	decl := stmt.NamedChild(0)
	if decl == nil {
		return nil, nil
	}

	if decl.Type() == "lexical_declaration" {
		var roots []WarpRoot
		if err := in.bindDeclarators(decl, &roots); err != nil {
			return nil, err
		}

		return roots, nil
	}

	if decl.Type() == "export_clause" {
		var roots []WarpRoot

		for i := 0; i < int(decl.NamedChildCount()); i++ {
			spec := decl.NamedChild(i)
			if spec.Type() != "export_specifier" {
				continue
			}

			nameNode := childByField(spec, "name")
			if nameNode == nil {
				nameNode = spec.NamedChild(0)
			}

			name := nodeText(nameNode, in.content)

			layer, ok := in.env[name]
			if !ok || layer == nil {
				continue
			}

			roots = append(roots, WarpRoot{ExportName: name, Layer: layer})
		}

		return roots, nil
	}

	return nil, nil
}

// eval interprets an expression node as a Layer value, or returns
// (nil, nil) when the expression plainly isn't ring-shaped (a string,
// number, unrelated call, ...) -- such exports are ignored per spec.md
// section 4.3.
func (in *warpInterp) eval(n *sitter.Node) (warp.Layer, error) {
	if n == nil {
		return nil, nil
	}

	switch n.Type() {
	case "identifier":
		name := nodeText(n, in.content)
		if layer, ok := in.env[name]; ok {
			return layer, nil
		}

		return nil, &warp.ConfigError{Msg: fmt.Sprintf("WARP: reference to undefined identifier %q", name)}
	case "call_expression":
		return in.evalCallChain(n)
	case "parenthesized_expression":
		return in.eval(n.NamedChild(0))
	default:
		return nil, nil
	}
}

// evalCallChain flattens a (possibly chained) call expression to its
// base factory call plus any trailing `.attachSpiraler(...)` /
// `.tieup(...)` builder calls, applying each left to right against the
// value the base call produced.
func (in *warpInterp) evalCallChain(n *sitter.Node) (warp.Layer, error) {
	var chain []*sitter.Node

	cur := n
	for cur != nil && cur.Type() == "call_expression" {
		chain = append([]*sitter.Node{cur}, chain...)

		fn := childByField(cur, "function")
		if fn == nil {
			break
		}

		if fn.Type() == "member_expression" {
			cur = childByField(fn, "object")
			continue
		}

		break
	}

	if len(chain) == 0 {
		return nil, nil
	}

	base := chain[0]
	fn := childByField(base, "function")

	var baseName string

	switch {
	case fn.Type() == "identifier":
		baseName = nodeText(fn, in.content)
	default:
		return nil, nil
	}

	layer, err := in.evalBaseFactory(baseName, childByField(base, "arguments"))
	if err != nil {
		return nil, err
	}

	if layer == nil {
		return nil, nil
	}

	for _, step := range chain[1:] {
		fn := childByField(step, "function")
		if fn == nil || fn.Type() != "member_expression" {
			continue
		}

		method := nodeText(childByField(fn, "property"), in.content)

		layer, err = in.applyBuilderCall(layer, method, childByField(step, "arguments"))
		if err != nil {
			return nil, err
		}
	}

	return layer, nil
}

// evalBaseFactory dispatches a recognized ring/edge factory identifier.
func (in *warpInterp) evalBaseFactory(name string, args *sitter.Node) (warp.Layer, error) {
	a := argList(args)

	switch name {
	case fnCoreRing:
		return in.evalCoreRing(a)
	case fnSpiralOut:
		return in.evalSpiralOut(a)
	case fnSpiralMux:
		return in.evalSpiralMux(a)
	case fnSpiraler:
		return in.evalSpiraler(a)
	case fnMuxSpiraler:
		return in.evalMuxSpiraler(a)
	default:
		// Not a ring factory; ignore (e.g. a plain helper or constant).
		return nil, nil
	}
}

func (in *warpInterp) evalCoreRing(args []*sitter.Node) (warp.Layer, error) {
	if len(args) < 2 {
		return nil, &warp.ConfigError{Msg: "coreRing(...) requires (className, language)"}
	}

	className, err := in.stringLit(args[0])
	if err != nil {
		return nil, err
	}

	langStr, err := in.stringLit(args[1])
	if err != nil {
		return nil, err
	}

	var lang warp.Language

	switch langStr {
	case "rust":
		lang = warp.LangRust
	case "typescript":
		lang = warp.LangTypeScript
	default:
		return nil, &warp.ConfigError{Msg: fmt.Sprintf("coreRing: unknown language %q", langStr)}
	}

	return warp.NewCoreRing(className, lang), nil
}

func (in *warpInterp) evalSpiralOut(args []*sitter.Node) (warp.Layer, error) {
	if len(args) < 2 {
		return nil, &warp.ConfigError{Msg: "spiralOut(...) requires (inner, treadleTag)"}
	}

	inner, err := in.eval(args[0])
	if err != nil {
		return nil, err
	}

	if inner == nil {
		return nil, &warp.ConfigError{Msg: "spiralOut: inner ring did not resolve to a Layer"}
	}

	tag, err := in.stringLit(args[1])
	if err != nil {
		return nil, err
	}

	return warp.NewSpiralOut(inner, tag), nil
}

func (in *warpInterp) evalSpiralMux(args []*sitter.Node) (warp.Layer, error) {
	if len(args) < 1 {
		return nil, &warp.ConfigError{Msg: "spiralMux(...) requires an inner ring array"}
	}

	inners, err := in.evalLayerArray(args[0])
	if err != nil {
		return nil, err
	}

	return warp.NewSpiralMux(inners...), nil
}

func (in *warpInterp) evalSpiraler(args []*sitter.Node) (warp.Layer, error) {
	if len(args) < 3 {
		return nil, &warp.ConfigError{Msg: "spiraler(...) requires (className, treadleTag, inner)"}
	}

	className, err := in.stringLit(args[0])
	if err != nil {
		return nil, err
	}

	tag, err := in.stringLit(args[1])
	if err != nil {
		return nil, err
	}

	inner, err := in.eval(args[2])
	if err != nil {
		return nil, err
	}

	return warp.NewSpiraler(className, tag, inner), nil
}

func (in *warpInterp) evalMuxSpiraler(args []*sitter.Node) (warp.Layer, error) {
	if len(args) < 3 {
		return nil, &warp.ConfigError{Msg: "muxSpiraler(...) requires (className, treadleTag, inners)"}
	}

	className, err := in.stringLit(args[0])
	if err != nil {
		return nil, err
	}

	tag, err := in.stringLit(args[1])
	if err != nil {
		return nil, err
	}

	inners, err := in.evalLayerArray(args[2])
	if err != nil {
		return nil, err
	}

	return warp.NewMuxSpiraler(className, tag, inners...), nil
}

// applyBuilderCall applies a fluent builder step (`.attachSpiraler(...)`
// or `.tieup(...)`) to an already-constructed SpiralOut/SpiralMux.
func (in *warpInterp) applyBuilderCall(layer warp.Layer, method string, args *sitter.Node) (warp.Layer, error) {
	a := argList(args)

	switch method {
	case fnAttachSpiral:
		return in.applyAttachSpiraler(layer, a)
	case fnTieup:
		return in.applyTieup(layer, a)
	case fnRouteCrud:
		return in.applyRouteCrud(layer, a)
	default:
		return layer, nil
	}
}

func (in *warpInterp) applyAttachSpiraler(layer warp.Layer, args []*sitter.Node) (warp.Layer, error) {
	if len(args) < 2 {
		return nil, &warp.ConfigError{Msg: "attachSpiraler(...) requires (name, spiraler)"}
	}

	name, err := in.stringLit(args[0])
	if err != nil {
		return nil, err
	}

	spValue, err := in.eval(args[1])
	if err != nil {
		return nil, err
	}

	sp, ok := spValue.(*warp.Spiraler)
	if !ok {
		return nil, &warp.ConfigError{Msg: fmt.Sprintf("attachSpiraler(%q, ...): value is not a spiraler", name)}
	}

	switch l := layer.(type) {
	case *warp.SpiralOut:
		return l.AttachSpiraler(name, sp), nil
	case *warp.SpiralMux:
		return l.AttachSpiraler(name, sp), nil
	default:
		return nil, &warp.ConfigError{Msg: "attachSpiraler(...) called on a non-ring layer"}
	}
}

func (in *warpInterp) applyTieup(layer warp.Layer, args []*sitter.Node) (warp.Layer, error) {
	if len(args) < 2 {
		return nil, &warp.ConfigError{Msg: "tieup(...) requires (source, config)"}
	}

	source, err := in.eval(args[0])
	if err != nil {
		return nil, err
	}

	if source == nil {
		return nil, &warp.ConfigError{Msg: "tieup: source did not resolve to a Layer"}
	}

	config, err := in.evalTieupConfig(args[1])
	if err != nil {
		return nil, err
	}

	switch l := layer.(type) {
	case *warp.SpiralOut:
		return l.Tieup(source, config), nil
	case *warp.SpiralMux:
		return l.Tieup(source, config), nil
	default:
		return nil, &warp.ConfigError{Msg: "tieup(...) called on a non-ring layer"}
	}
}

// applyRouteCrud applies `.routeCrud({ read, write, custom? })` to a
// CoreRing (spec.md section 4.5 "CRUD routing"): only a CoreRing can be a
// routing source, matching the executor's resolveCoreRing walk, which
// is the only place a Layer's Routing is ever read back out.
func (in *warpInterp) applyRouteCrud(layer warp.Layer, args []*sitter.Node) (warp.Layer, error) {
	if len(args) < 1 {
		return nil, &warp.ConfigError{Msg: "routeCrud(...) requires a routing object"}
	}

	core, ok := layer.(*warp.CoreRing)
	if !ok {
		return nil, &warp.ConfigError{Msg: "routeCrud(...) called on a non-coreRing layer"}
	}

	routing, err := in.evalRoutingConfig(args[0])
	if err != nil {
		return nil, err
	}

	return core.RouteCrud(routing), nil
}

// evalRoutingConfig interprets `{ read?: Ring, write?: Ring, custom?: { op: Ring, ... } }`.
func (in *warpInterp) evalRoutingConfig(n *sitter.Node) (warp.Routing, error) {
	var routing warp.Routing

	if n == nil || n.Type() != "object" {
		return routing, &warp.ConfigError{Msg: "routeCrud config must be an object literal"}
	}

	for i := 0; i < int(n.NamedChildCount()); i++ {
		pair := n.NamedChild(i)
		if pair.Type() != "pair" {
			continue
		}

		key := strings.Trim(nodeText(childByField(pair, "key"), in.content), `'"`+"`")
		value := childByField(pair, "value")

		switch key {
		case "read":
			ring, err := in.eval(value)
			if err != nil {
				return routing, err
			}

			routing.Read = ring
		case "write":
			ring, err := in.eval(value)
			if err != nil {
				return routing, err
			}

			routing.Write = ring
		case "custom":
			custom, err := in.evalRoutingCustom(value)
			if err != nil {
				return routing, err
			}

			routing.Custom = custom
		}
	}

	return routing, nil
}

// evalRoutingCustom interprets the `custom` clause's `{ create: Ring, ... }`
// per-operation override map.
func (in *warpInterp) evalRoutingCustom(n *sitter.Node) (map[warp.Operation]warp.Layer, error) {
	if n == nil || n.Type() != "object" {
		return nil, &warp.ConfigError{Msg: "routeCrud 'custom' must be an object literal"}
	}

	custom := make(map[warp.Operation]warp.Layer)

	for i := 0; i < int(n.NamedChildCount()); i++ {
		pair := n.NamedChild(i)
		if pair.Type() != "pair" {
			continue
		}

		key := strings.Trim(nodeText(childByField(pair, "key"), in.content), `'"`+"`")
		value := childByField(pair, "value")

		ring, err := in.eval(value)
		if err != nil {
			return nil, err
		}

		if ring == nil {
			continue
		}

		custom[warp.Operation(key)] = ring
	}

	return custom, nil
}

// evalTieupConfig interprets `{ treadles: [{ treadle: "x", warpData: {...} }] }`.
func (in *warpInterp) evalTieupConfig(n *sitter.Node) (warp.TieupConfig, error) {
	var cfg warp.TieupConfig

	if n == nil || n.Type() != "object" {
		return cfg, &warp.ConfigError{Msg: "tieup config must be an object literal"}
	}

	for i := 0; i < int(n.NamedChildCount()); i++ {
		pair := n.NamedChild(i)
		if pair.Type() != "pair" {
			continue
		}

		key := strings.Trim(nodeText(childByField(pair, "key"), in.content), `'"`+"`")
		if key != "treadles" {
			continue
		}

		value := childByField(pair, "value")
		if value == nil || value.Type() != "array" {
			return cfg, &warp.ConfigError{Msg: "tieup config 'treadles' must be an array"}
		}

		for j := 0; j < int(value.NamedChildCount()); j++ {
			entryNode := value.NamedChild(j)

			entry, err := in.evalTreadleEntry(entryNode)
			if err != nil {
				return cfg, err
			}

			cfg.Treadles = append(cfg.Treadles, entry)
		}
	}

	return cfg, nil
}

func (in *warpInterp) evalTreadleEntry(n *sitter.Node) (warp.TreadleEntry, error) {
	var entry warp.TreadleEntry

	if n == nil || n.Type() != "object" {
		return entry, &warp.ConfigError{Msg: "tieup treadle entry must be an object literal"}
	}

	for i := 0; i < int(n.NamedChildCount()); i++ {
		pair := n.NamedChild(i)
		if pair.Type() != "pair" {
			continue
		}

		key := strings.Trim(nodeText(childByField(pair, "key"), in.content), `'"`+"`")
		value := childByField(pair, "value")

		switch key {
		case "treadle":
			s, err := in.stringLit(value)
			if err != nil {
				return entry, err
			}

			entry.Treadle = s
		case "warpData":
			data, err := in.jsValue(value)
			if err != nil {
				return entry, err
			}

			m, ok := data.(map[string]interface{})
			if !ok {
				return entry, &warp.ConfigError{Msg: "tieup treadle entry 'warpData' must be an object literal"}
			}

			entry.WarpData = m
		}
	}

	if entry.Treadle == "" {
		return entry, &warp.ConfigError{Msg: "tieup treadle entry missing 'treadle' name"}
	}

	return entry, nil
}

// evalLayerArray evaluates an array-literal expression of ring
// references into a Layer slice, preserving order.
func (in *warpInterp) evalLayerArray(n *sitter.Node) ([]warp.Layer, error) {
	if n == nil || n.Type() != "array" {
		return nil, &warp.ConfigError{Msg: "expected an array of rings"}
	}

	var out []warp.Layer

	for i := 0; i < int(n.NamedChildCount()); i++ {
		layer, err := in.eval(n.NamedChild(i))
		if err != nil {
			return nil, err
		}

		if layer == nil {
			return nil, &warp.ConfigError{Msg: "array element did not resolve to a Layer"}
		}

		out = append(out, layer)
	}

	return out, nil
}

// stringLit unwraps a string-literal node to its Go string value.
func (in *warpInterp) stringLit(n *sitter.Node) (string, error) {
	return stringLitOf(n, in.content)
}

// jsValue evaluates a JS literal expression into a plain Go value; see
// jsValueOf.
func (in *warpInterp) jsValue(n *sitter.Node) (interface{}, error) {
	return jsValueOf(n, in.content)
}

// argList collects the named children of an `arguments` node.
func argList(args *sitter.Node) []*sitter.Node {
	if args == nil {
		return nil
	}

	out := make([]*sitter.Node, 0, args.NamedChildCount())
	for i := 0; i < int(args.NamedChildCount()); i++ {
		out = append(out, args.NamedChild(i))
	}

	return out
}
