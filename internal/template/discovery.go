package template

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Source resolves template paths under the workspace-overrides-before-
// built-ins precedence spec.md section 9 commits to for its open question
// on template discovery order: "workspace overrides checked before
// built-ins, uniformly."
//
// BuiltinFS, when set, takes precedence over BuiltinRoot: the built-in
// templates ship embedded in the binary (internal/template/builtin)
// rather than as loose files a caller must locate on disk. BuiltinRoot
// remains for tests and for embedders that want to point at their own
// on-disk override set instead.
type Source struct {
	BuiltinFS     fs.FS
	BuiltinRoot   string
	WorkspaceRoot string
}

// Load resolves and reads relPath's template source text, preferring a
// workspace override over the built-in copy when both exist.
func (s Source) Load(relPath string) (string, error) {
	if s.WorkspaceRoot != "" {
		candidate := filepath.Join(s.WorkspaceRoot, relPath)
		if content, err := os.ReadFile(candidate); err == nil {
			return string(content), nil
		}
	}

	if s.BuiltinFS != nil {
		content, err := fs.ReadFile(s.BuiltinFS, relPath)
		if err != nil {
			return "", fmt.Errorf("template %q not found under workspace or built-in roots: %w", relPath, err)
		}

		return string(content), nil
	}

	candidate := filepath.Join(s.BuiltinRoot, relPath)

	content, err := os.ReadFile(candidate)
	if err != nil {
		return "", fmt.Errorf("template %q not found under workspace or built-in roots: %w", relPath, err)
	}

	return string(content), nil
}
