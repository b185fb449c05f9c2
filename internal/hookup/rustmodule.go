package hookup

import (
	"context"
	"fmt"
	"os"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/rust"

	"github.com/hupe1980/spire-loom/internal/marker"
)

// RustModuleEdit is the Config shape for KindRustModule specs (spec.md
// section 4.2 "Rust module (lib.rs/main.rs)"): a mod declaration, a use
// statement, or a Tauri plugin init function.
type RustModuleEdit struct {
	EditKind   string // "mod" | "use" | "tauri-plugin"
	Identifier string

	ModName string
	ModPath string // optional #[path="..."] override
	UseLine string

	FnName    string
	StateType string
	Setup     string
	Commands  []string
}

func applyRustModule(absPath string, spec Spec, _ Context) (Result, error) {
	edit, err := rustEditFromConfig(spec.Config)
	if err != nil {
		return Result{}, err
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		return Result{}, fmt.Errorf("reading %s: %w", absPath, err)
	}

	switch edit.EditKind {
	case "mod":
		return applyRustMod(absPath, content, edit)
	case "use":
		return applyRustUse(absPath, content, edit)
	case "tauri-plugin":
		return applyTauriPlugin(absPath, content, edit)
	default:
		return Result{}, fmt.Errorf("unknown rust-module editKind %q", edit.EditKind)
	}
}

func rustEditFromConfig(cfg map[string]interface{}) (RustModuleEdit, error) {
	edit := RustModuleEdit{}

	edit.EditKind, _ = cfg["editKind"].(string)
	edit.Identifier, _ = cfg["identifier"].(string)
	edit.ModName, _ = cfg["modName"].(string)
	edit.ModPath, _ = cfg["modPath"].(string)
	edit.UseLine, _ = cfg["useLine"].(string)
	edit.FnName, _ = cfg["fnName"].(string)
	edit.StateType, _ = cfg["stateType"].(string)
	edit.Setup, _ = cfg["setup"].(string)

	if commands, ok := cfg["commands"].([]string); ok {
		edit.Commands = commands
	}

	if edit.EditKind == "" || edit.Identifier == "" {
		return edit, fmt.Errorf("rust-module hookup requires editKind and identifier")
	}

	return edit, nil
}

func applyRustMod(absPath string, content []byte, edit RustModuleEdit) (Result, error) {
	if edit.ModName == "" {
		return Result{}, fmt.Errorf("rust-module mod edit requires modName")
	}

	decl := "mod " + edit.ModName + ";\n"

	if edit.ModPath != "" {
		decl = fmt.Sprintf("#[path = %q]\nmod %s;\n", edit.ModPath, edit.ModName)
	}

	m := marker.New("RUST_MOD", edit.Identifier, marker.LangRust)

	return writeRustBlock(absPath, content, m, decl)
}

func applyRustUse(absPath string, content []byte, edit RustModuleEdit) (Result, error) {
	if edit.UseLine == "" {
		return Result{}, fmt.Errorf("rust-module use edit requires useLine")
	}

	normalized := normalizeWhitespace(edit.UseLine)

	if hasNormalizedStatement(content, normalized) {
		return Result{Kind: KindRustModule, Status: StatusSkipped, Message: "use statement already present"}, nil
	}

	m := marker.New("RUST_USE", edit.Identifier, marker.LangRust)

	return writeRustBlock(absPath, content, m, normalized+"\n")
}

func applyTauriPlugin(absPath string, content []byte, edit RustModuleEdit) (Result, error) {
	if edit.FnName == "" {
		return Result{}, fmt.Errorf("tauri-plugin edit requires fnName")
	}

	if rustFnExists(content, edit.FnName) {
		return Result{Kind: KindRustModule, Status: StatusSkipped,
			Message: fmt.Sprintf("function %q already defined", edit.FnName)}, nil
	}

	body := fmt.Sprintf(`fn %s() -> tauri::plugin::TauriPlugin<tauri::Wry> {
    tauri::plugin::Builder::new(%q)
        .invoke_handler(tauri::generate_handler![%s])
        .setup(|app, _api| {
            %s
            Ok(())
        })
        .build()
}
`, edit.FnName, edit.FnName, strings.Join(edit.Commands, ", "), edit.Setup)

	m := marker.New("TAURI_PLUGIN", edit.Identifier, marker.LangRust)

	return writeRustBlock(absPath, content, m, body)
}

func writeRustBlock(absPath string, content []byte, m marker.Markers, inner string) (Result, error) {
	result := marker.Ensure(content, m, inner, marker.InsertOptions{})
	if !result.Modified {
		return Result{Kind: KindRustModule, Status: StatusSkipped, Message: "block already up to date"}, nil
	}

	if err := os.WriteFile(absPath, result.Content, 0o644); err != nil {
		return Result{}, fmt.Errorf("writing %s: %w", absPath, err)
	}

	return Result{Kind: KindRustModule, Status: StatusApplied}, nil
}

// normalizeWhitespace collapses runs of whitespace to single spaces, so
// two textually-different-but-equivalent statements compare equal
// (spec.md section 4.2 "use statements deduplicated by normalized
// whitespace").
func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func hasNormalizedStatement(content []byte, normalized string) bool {
	for _, line := range strings.Split(string(content), "\n") {
		if normalizeWhitespace(strings.TrimSpace(line)) == normalized {
			return true
		}
	}

	return false
}

// rustFnExists parses content with the tree-sitter Rust grammar and
// reports whether a function item named name already exists anywhere,
// so re-running a Tauri plugin hookup is a no-op (spec.md section 4.2
// "Re-invocation is a no-op if the function already exists").
func rustFnExists(content []byte, name string) bool {
	parser := sitter.NewParser()
	parser.SetLanguage(rust.GetLanguage())

	tree, err := parser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return false
	}
	defer tree.Close()

	return findNamedFunction(tree.RootNode(), content, name)
}

func findNamedFunction(node *sitter.Node, content []byte, name string) bool {
	if node == nil {
		return false
	}

	if node.Type() == "function_item" {
		if nameNode := node.ChildByFieldName("name"); nameNode != nil && nameNode.Content(content) == name {
			return true
		}
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		if findNamedFunction(node.Child(i), content, name) {
			return true
		}
	}

	return false
}
