package hookup

import (
	"fmt"
	"os"
	"strings"

	"github.com/hupe1980/spire-loom/internal/marker"
)

// ViteConfigEntryKind distinguishes the config regions a Vite config
// hookup renders an entry for (spec.md section 4.2 "Vite config").
type ViteConfigEntryKind string

const (
	ViteBuildInput ViteConfigEntryKind = "build-input"
	ViteDefine     ViteConfigEntryKind = "define"
	VitePlugin     ViteConfigEntryKind = "plugin"
	ViteServer     ViteConfigEntryKind = "server"
)

// ViteConfigEdit is the Config shape for KindViteConfig specs. Each
// entry is written as a `//` comment line inside its own marker block;
// the exported config object itself is not modified.
type ViteConfigEdit struct {
	EntryKind ViteConfigEntryKind

	Identifier string
	// InputName/InputValue render a `build.rollupOptions.input.*` line.
	InputName  string
	InputValue string
	// DefineKey/DefineValue render a `define.*` line.
	DefineKey   string
	DefineValue string
	// PluginExpr renders a `plugins += ...` line verbatim, e.g.
	// "myPlugin()"; the plugins array is not changed.
	PluginExpr string
	// ServerField/ServerValue render a `server.*` line, e.g. "port"/"5173".
	ServerField string
	ServerValue string
}

func applyViteConfig(absPath string, spec Spec, _ Context) (Result, error) {
	edit, err := viteEditFromConfig(spec.Config)
	if err != nil {
		return Result{}, err
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		return Result{}, fmt.Errorf("reading %s: %w", absPath, err)
	}

	snippet, scope, err := renderViteSnippet(edit)
	if err != nil {
		return Result{}, err
	}

	m := marker.New(scope, edit.Identifier, marker.LangTypeScript)

	anchor := viteAnchor(content, edit.EntryKind)

	result := marker.Ensure(content, m, snippet, marker.InsertOptions{Anchor: anchor})
	if !result.Modified {
		return Result{Kind: KindViteConfig, Status: StatusSkipped, Message: "block already up to date"}, nil
	}

	if err := os.WriteFile(absPath, result.Content, 0o644); err != nil {
		return Result{}, fmt.Errorf("writing %s: %w", absPath, err)
	}

	return Result{Kind: KindViteConfig, Status: StatusApplied}, nil
}

func viteEditFromConfig(cfg map[string]interface{}) (ViteConfigEdit, error) {
	edit := ViteConfigEdit{}

	entryKind, _ := cfg["entryKind"].(string)
	edit.EntryKind = ViteConfigEntryKind(entryKind)
	edit.Identifier, _ = cfg["identifier"].(string)
	edit.InputName, _ = cfg["inputName"].(string)
	edit.InputValue, _ = cfg["inputValue"].(string)
	edit.DefineKey, _ = cfg["defineKey"].(string)
	edit.DefineValue, _ = cfg["defineValue"].(string)
	edit.PluginExpr, _ = cfg["pluginExpr"].(string)
	edit.ServerField, _ = cfg["serverField"].(string)
	edit.ServerValue, _ = cfg["serverValue"].(string)

	if edit.EntryKind == "" || edit.Identifier == "" {
		return edit, fmt.Errorf("vite-config hookup requires entryKind and identifier")
	}

	return edit, nil
}

// renderViteSnippet renders edit into a single `//` comment line (e.g.
// "// plugins += myPlugin()") plus the marker scope it belongs under.
// The defineConfig/plain-object tree is not parsed or merged into, so
// the line has no effect on the Vite build; the marker block keeps
// reruns idempotent.
func renderViteSnippet(edit ViteConfigEdit) (snippet, scope string, err error) {
	switch edit.EntryKind {
	case ViteBuildInput:
		if edit.InputName == "" || edit.InputValue == "" {
			return "", "", fmt.Errorf("build-input entry requires inputName and inputValue")
		}

		return fmt.Sprintf("// build.rollupOptions.input.%s = %q\n", edit.InputName, edit.InputValue), "VITE_BUILD_INPUT", nil
	case ViteDefine:
		if edit.DefineKey == "" {
			return "", "", fmt.Errorf("define entry requires defineKey")
		}

		return fmt.Sprintf("// define.%s = %s\n", edit.DefineKey, edit.DefineValue), "VITE_DEFINE", nil
	case VitePlugin:
		if edit.PluginExpr == "" {
			return "", "", fmt.Errorf("plugin entry requires pluginExpr")
		}

		return fmt.Sprintf("// plugins += %s\n", edit.PluginExpr), "VITE_PLUGIN", nil
	case ViteServer:
		if edit.ServerField == "" {
			return "", "", fmt.Errorf("server entry requires serverField")
		}

		return fmt.Sprintf("// server.%s = %s\n", edit.ServerField, edit.ServerValue), "VITE_SERVER", nil
	default:
		return "", "", fmt.Errorf("unknown vite-config entryKind %q", edit.EntryKind)
	}
}

// viteAnchor anchors new entries after the `export default` line, the
// common first line of both defineConfig(...) and plain-object exports
// (spec.md section 4.2 "tolerates both defineConfig({...}) and plain-
// object exports").
func viteAnchor(content []byte, _ ViteConfigEntryKind) string {
	for _, line := range strings.Split(string(content), "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "export default") {
			return line
		}
	}

	return ""
}
