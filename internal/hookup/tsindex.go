package hookup

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/hupe1980/spire-loom/internal/marker"
)

// TSStatementKind distinguishes the statement forms a TypeScript index
// file hookup can add (spec.md section 4.2 "TypeScript index files").
type TSStatementKind string

const (
	TSExportStar  TSStatementKind = "export-star"
	TSNamedExport TSStatementKind = "named-export"
	TSImport      TSStatementKind = "import"
)

// TSIndexEdit is the Config shape for KindTSIndex specs.
type TSIndexEdit struct {
	Kind       TSStatementKind
	Identifier string
	Source     string

	// Names holds named import/export identifiers; Default and
	// Namespace cover the remaining import forms.
	Names     []string
	Default   string
	Namespace string
	TypeOnly  bool
}

func applyTSIndex(absPath string, spec Spec, _ Context) (Result, error) {
	edit, err := tsEditFromConfig(spec.Config)
	if err != nil {
		return Result{}, err
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		return Result{}, fmt.Errorf("reading %s: %w", absPath, err)
	}

	line, err := renderTSStatement(edit)
	if err != nil {
		return Result{}, err
	}

	normalized := normalizeWhitespace(line)
	// canon unifies quote style and sorts a `{ ... }` name list, so an
	// existing statement with the same source, kind and name set matches.
	canon := func(s string) string {
		s = strings.ReplaceAll(normalizeWhitespace(s), "'", `"`)
		if open, end := strings.Index(s, "{"), strings.Index(s, "}"); open >= 0 && end > open {
			names := strings.Split(strings.ReplaceAll(s[open+1:end], " ", ""), ",")
			s = s[:open+1] + " " + joinNames(names) + " " + s[end:]
		}
		return s
	}
	for _, existing := range strings.Split(string(content), "\n") {
		if canon(existing) == canon(normalized) {
			return Result{Kind: KindTSIndex, Status: StatusSkipped, Message: "equivalent statement already present"}, nil
		}
	}

	scope := "TS_IMPORT"
	if edit.Kind != TSImport {
		scope = "TS_EXPORT"
	}

	m := marker.New(scope, edit.Identifier, marker.LangTypeScript)
	anchor := tsAnchor(content, edit.Kind)

	result := marker.Ensure(content, m, normalized+"\n", marker.InsertOptions{Anchor: anchor})
	if !result.Modified {
		return Result{Kind: KindTSIndex, Status: StatusSkipped, Message: "block already up to date"}, nil
	}

	if err := os.WriteFile(absPath, result.Content, 0o644); err != nil {
		return Result{}, fmt.Errorf("writing %s: %w", absPath, err)
	}

	return Result{Kind: KindTSIndex, Status: StatusApplied}, nil
}

func tsEditFromConfig(cfg map[string]interface{}) (TSIndexEdit, error) {
	edit := TSIndexEdit{}

	kind, _ := cfg["kind"].(string)
	edit.Kind = TSStatementKind(kind)
	edit.Identifier, _ = cfg["identifier"].(string)
	edit.Source, _ = cfg["source"].(string)
	edit.Default, _ = cfg["default"].(string)
	edit.Namespace, _ = cfg["namespace"].(string)
	edit.TypeOnly, _ = cfg["typeOnly"].(bool)

	if names, ok := cfg["names"].([]string); ok {
		edit.Names = names
	}

	if edit.Kind == "" || edit.Identifier == "" || edit.Source == "" {
		return edit, fmt.Errorf("ts-index hookup requires kind, identifier, and source")
	}

	return edit, nil
}

// renderTSStatement renders edit into a single import/export statement
// line.
func renderTSStatement(edit TSIndexEdit) (string, error) {
	switch edit.Kind {
	case TSExportStar:
		return fmt.Sprintf("export * from %q;", edit.Source), nil
	case TSNamedExport:
		if len(edit.Names) == 0 {
			return "", fmt.Errorf("named-export requires at least one name")
		}

		return fmt.Sprintf("export { %s } from %q;", joinNames(edit.Names), edit.Source), nil
	case TSImport:
		return renderTSImport(edit)
	default:
		return "", fmt.Errorf("unknown ts-index statement kind %q", edit.Kind)
	}
}

func renderTSImport(edit TSIndexEdit) (string, error) {
	typePrefix := ""
	if edit.TypeOnly {
		typePrefix = "type "
	}

	switch {
	case edit.Namespace != "":
		return fmt.Sprintf("import %s* as %s from %q;", typePrefix, edit.Namespace, edit.Source), nil
	case edit.Default != "" && len(edit.Names) > 0:
		return fmt.Sprintf("import %s%s, { %s } from %q;", typePrefix, edit.Default, joinNames(edit.Names), edit.Source), nil
	case edit.Default != "":
		return fmt.Sprintf("import %s%s from %q;", typePrefix, edit.Default, edit.Source), nil
	case len(edit.Names) > 0:
		return fmt.Sprintf("import %s{ %s } from %q;", typePrefix, joinNames(edit.Names), edit.Source), nil
	default:
		return fmt.Sprintf("import %q;", edit.Source), nil
	}
}

// joinNames sorts and comma-joins name[] so logically-equivalent import
// sets normalize to the same statement text regardless of declaration
// order (spec.md section 4.2 "Normalizes and deduplicates by source,
// kind, and name set").
func joinNames(names []string) string {
	sorted := append([]string(nil), names...)
	sort.Strings(sorted)

	return strings.Join(sorted, ", ")
}

// tsAnchor anchors a new import after the last existing import line, or
// a new export after the last existing export line (falling back to
// after the last import if none yet exist), per spec.md section 4.2.
func tsAnchor(content []byte, kind TSStatementKind) string {
	var lastImport, lastExport string

	for _, line := range strings.Split(string(content), "\n") {
		trimmed := strings.TrimSpace(line)

		switch {
		case strings.HasPrefix(trimmed, "import "):
			lastImport = line
		case strings.HasPrefix(trimmed, "export "):
			lastExport = line
		}
	}

	if kind == TSImport {
		return lastImport
	}

	if lastExport != "" {
		return lastExport
	}

	return lastImport
}
