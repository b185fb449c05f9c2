package hookup

import (
	"context"
	"fmt"
	"os"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/kotlin"

	"github.com/hupe1980/spire-loom/internal/marker"
)

// KotlinEdit is the Config shape for KindKotlin specs (spec.md section
// 4.2 "Kotlin"): an import, a class-level field, a new method, or a
// statement group spliced into an existing method body.
type KotlinEdit struct {
	EditKind   string // "import" | "field" | "method" | "statement"
	Identifier string
	ClassName  string
	MethodName string
	Snippet    string
	AppendStmt bool
}

func applyKotlin(absPath string, spec Spec, _ Context) (Result, error) {
	edit, err := kotlinEditFromConfig(spec.Config)
	if err != nil {
		return Result{}, err
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		return Result{}, fmt.Errorf("reading %s: %w", absPath, err)
	}

	switch edit.EditKind {
	case "import":
		return applyKotlinImport(absPath, content, edit)
	case "field":
		return applyKotlinClassInsert(absPath, content, edit, "KOTLIN_FIELD", classBodyStartAnchor)
	case "method":
		if kotlinMethodExists(content, edit.ClassName, edit.MethodName) {
			return Result{Kind: KindKotlin, Status: StatusSkipped, Message: "method already defined"}, nil
		}

		return applyKotlinClassInsert(absPath, content, edit, "KOTLIN_METHOD", classBodyEndAnchor)
	case "statement":
		return applyKotlinStatement(absPath, content, edit)
	default:
		return Result{}, fmt.Errorf("unknown kotlin editKind %q", edit.EditKind)
	}
}

func kotlinEditFromConfig(cfg map[string]interface{}) (KotlinEdit, error) {
	edit := KotlinEdit{}

	edit.EditKind, _ = cfg["editKind"].(string)
	edit.Identifier, _ = cfg["identifier"].(string)
	edit.ClassName, _ = cfg["className"].(string)
	edit.MethodName, _ = cfg["methodName"].(string)
	edit.Snippet, _ = cfg["snippet"].(string)
	edit.AppendStmt, _ = cfg["append"].(bool)

	if edit.EditKind == "" || edit.Identifier == "" || edit.Snippet == "" {
		return edit, fmt.Errorf("kotlin hookup requires editKind, identifier, and snippet")
	}

	return edit, nil
}

func applyKotlinImport(absPath string, content []byte, edit KotlinEdit) (Result, error) {
	normalized := normalizeWhitespace(edit.Snippet)

	if hasNormalizedStatement(content, normalized) {
		return Result{Kind: KindKotlin, Status: StatusSkipped, Message: "import already present"}, nil
	}

	m := marker.New("KOTLIN_IMPORT", edit.Identifier, marker.LangKotlin)
	anchor := lastImportOrPackageLine(content)

	result := marker.Ensure(content, m, normalized+"\n", marker.InsertOptions{Anchor: anchor})

	return finishKotlinWrite(absPath, result)
}

// lastImportOrPackageLine anchors a new import after the last existing
// import line, falling back to the package declaration when the file
// has no imports yet (spec.md section 4.2 "Adds imports after the
// package declaration or after the existing import group").
func lastImportOrPackageLine(content []byte) string {
	var lastImport, packageLine string

	for _, line := range strings.Split(string(content), "\n") {
		trimmed := strings.TrimSpace(line)

		switch {
		case strings.HasPrefix(trimmed, "package "):
			packageLine = line
		case strings.HasPrefix(trimmed, "import "):
			lastImport = line
		}
	}

	if lastImport != "" {
		return lastImport
	}

	return packageLine
}

func applyKotlinClassInsert(absPath string, content []byte, edit KotlinEdit, scope string, locate func([]byte, string) (string, bool)) (Result, error) {
	if edit.ClassName == "" {
		return Result{}, fmt.Errorf("kotlin edit requires className")
	}

	anchor, ok := locate(content, edit.ClassName)
	if !ok {
		return Result{}, fmt.Errorf("class %q not found in file", edit.ClassName)
	}

	m := marker.New(scope, edit.ClassName+"_"+edit.Identifier, marker.LangKotlin)

	result := marker.Ensure(content, m, edit.Snippet+"\n", marker.InsertOptions{Anchor: anchor})

	return finishKotlinWrite(absPath, result)
}

func applyKotlinStatement(absPath string, content []byte, edit KotlinEdit) (Result, error) {
	if edit.ClassName == "" || edit.MethodName == "" {
		return Result{}, fmt.Errorf("kotlin statement edit requires className and methodName")
	}

	anchor, ok := methodBodyAnchor(content, edit.ClassName, edit.MethodName, edit.AppendStmt)
	if !ok {
		return Result{}, fmt.Errorf("method %q not found on class %q", edit.MethodName, edit.ClassName)
	}

	m := marker.New("KOTLIN_STATEMENT", edit.ClassName+"_"+edit.MethodName+"_"+edit.Identifier, marker.LangKotlin)

	result := marker.Ensure(content, m, edit.Snippet+"\n", marker.InsertOptions{Anchor: anchor})

	return finishKotlinWrite(absPath, result)
}

func finishKotlinWrite(absPath string, result marker.BufferResult) (Result, error) {
	if !result.Modified {
		return Result{Kind: KindKotlin, Status: StatusSkipped, Message: "block already up to date"}, nil
	}

	if err := os.WriteFile(absPath, result.Content, 0o644); err != nil {
		return Result{}, fmt.Errorf("writing %s: %w", absPath, err)
	}

	return Result{Kind: KindKotlin, Status: StatusApplied}, nil
}

// The class/method body anchors below return the whole file prefix up
// to the located brace, so marker.Insert (which inserts after the first
// occurrence of its anchor) lands exactly at that brace rather than at
// the first matching brace elsewhere in the file.
func classBodyStartAnchor(content []byte, className string) (string, bool) {
	tree := parseKotlin(content)
	if tree == nil {
		return "", false
	}
	defer tree.Close()

	class := findKotlinClass(tree.RootNode(), content, className)
	if class == nil {
		return "", false
	}

	body := class.ChildByFieldName("body")
	if body == nil {
		return "", false
	}

	start := body.StartByte()

	return string(content[:start+1]), true
}

func classBodyEndAnchor(content []byte, className string) (string, bool) {
	tree := parseKotlin(content)
	if tree == nil {
		return "", false
	}
	defer tree.Close()

	class := findKotlinClass(tree.RootNode(), content, className)
	if class == nil {
		return "", false
	}

	body := class.ChildByFieldName("body")
	if body == nil {
		return "", false
	}

	end := body.EndByte()

	return string(content[:end-1]), true
}

func methodBodyAnchor(content []byte, className, methodName string, appendStmt bool) (string, bool) {
	tree := parseKotlin(content)
	if tree == nil {
		return "", false
	}
	defer tree.Close()

	class := findKotlinClass(tree.RootNode(), content, className)
	if class == nil {
		return "", false
	}

	method := findKotlinMethod(class, content, methodName)
	if method == nil {
		return "", false
	}

	body := method.ChildByFieldName("body")
	if body == nil {
		return "", false
	}

	if appendStmt {
		end := body.EndByte()
		return string(content[:end-1]), true
	}

	start := body.StartByte()

	return string(content[:start+1]), true
}

func kotlinMethodExists(content []byte, className, methodName string) bool {
	tree := parseKotlin(content)
	if tree == nil {
		return false
	}
	defer tree.Close()

	class := findKotlinClass(tree.RootNode(), content, className)
	if class == nil {
		return false
	}

	return findKotlinMethod(class, content, methodName) != nil
}

func parseKotlin(content []byte) *sitter.Tree {
	parser := sitter.NewParser()
	parser.SetLanguage(kotlin.GetLanguage())

	tree, err := parser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return nil
	}

	return tree
}

func findKotlinClass(root *sitter.Node, content []byte, className string) *sitter.Node {
	return searchNode(root, "class_declaration", func(n *sitter.Node) bool {
		nameNode := n.ChildByFieldName("name")
		return nameNode != nil && nameNode.Content(content) == className
	})
}

func findKotlinMethod(class *sitter.Node, content []byte, methodName string) *sitter.Node {
	body := class.ChildByFieldName("body")
	if body == nil {
		return nil
	}

	return searchNode(body, "function_declaration", func(n *sitter.Node) bool {
		nameNode := n.ChildByFieldName("name")
		return nameNode != nil && nameNode.Content(content) == methodName
	})
}

// searchNode performs a depth-first search over node's subtree for the
// first node of nodeType satisfying predicate.
func searchNode(node *sitter.Node, nodeType string, predicate func(*sitter.Node) bool) *sitter.Node {
	if node == nil {
		return nil
	}

	if node.Type() == nodeType && predicate(node) {
		return node
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		if found := searchNode(node.Child(i), nodeType, predicate); found != nil {
			return found
		}
	}

	return nil
}
