// Package reed implements Spire-Loom's discovery & reflection stage:
// it parses Drizzle schemas, "dynamically imports" the WARP entry
// point and Management modules, and reflects their decorator metadata
// (spec.md section 4.3). A real dynamic import isn't available from Go, so
// Reed reads TypeScript structurally with tree-sitter instead; see
// warp.go, schema.go, management.go and SPEC_FULL.md section 4.3.
package reed

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/hupe1980/spire-loom/internal/warp"
)

// Result is everything Reed discovers for one workspace: the WARP
// roots, the collected Management classes, and the Drizzle table
// shapes, with per-file/per-class warnings kept separate from fatal
// errors per the spec.md section 7 taxonomy.
type Result struct {
	WarpRoots   []WarpRoot
	Managements []*warp.Management
	Tables      []Table
	Warnings    []error
}

// Discover runs the full Reed pipeline against a workspace root: it
// reads `loom/WARP.ts`, every other `.ts` file under `loom/` for
// Management collection, and every `*.schema.ts` file under `loom/`
// for Drizzle schema parsing.
func Discover(workspaceRoot string, logger *slog.Logger) (*Result, error) {
	if logger == nil {
		logger = slog.Default()
	}

	loomDir := filepath.Join(workspaceRoot, "loom")

	warpPath := filepath.Join(loomDir, "WARP.ts")

	warpSrc, err := os.ReadFile(warpPath)
	if err != nil {
		return nil, &warp.ConfigError{Msg: fmt.Sprintf("reading %s: %s", warpPath, err)}
	}

	roots, err := ParseWarp(warpSrc)
	if err != nil {
		return nil, err
	}

	result := &Result{WarpRoots: roots}

	mgmtFiles := map[string][]byte{}
	schemaFiles := map[string][]byte{}

	walkErr := filepath.WalkDir(loomDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			result.Warnings = append(result.Warnings, fmt.Errorf("%s: discovery error: %w", path, err))
			return nil
		}

		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != loomDir {
				return filepath.SkipDir
			}

			return nil
		}

		if !strings.HasSuffix(path, ".ts") {
			return nil
		}

		if path == warpPath {
			return nil
		}

		content, readErr := os.ReadFile(path)
		if readErr != nil {
			result.Warnings = append(result.Warnings, fmt.Errorf("%s: discovery error: %w", path, readErr))
			return nil
		}

		if strings.HasSuffix(path, ".schema.ts") {
			schemaFiles[path] = content
		} else {
			mgmtFiles[path] = content
		}

		return nil
	})
	if walkErr != nil {
		return nil, &warp.ConfigError{Msg: fmt.Sprintf("walking %s: %s", loomDir, walkErr)}
	}

	mgmtResult := CollectManagement(SortedPaths(mgmtFiles), mgmtFiles)
	result.Managements = mgmtResult.Managements
	result.Warnings = append(result.Warnings, mgmtResult.Warnings...)

	attachStructFields(roots, mgmtResult.StructFields)

	for _, path := range SortedPaths(schemaFiles) {
		tables, err := ParseSchema(schemaFiles[path])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}

		result.Tables = append(result.Tables, tables...)
	}

	for _, w := range result.Warnings {
		logger.Warn("reed discovery warning", "error", w)
	}

	return result, nil
}

// attachStructFields merges @rust.Struct field metadata collected from
// loom/*.ts sources into the CoreRings reachable from roots, matched
// by StructClassName (spec.md section 3 "CoreRing": "Fields ... populated by
// @rust.Struct decoration").
func attachStructFields(roots []WarpRoot, fields map[string]map[string]warp.StructField) {
	if len(fields) == 0 {
		return
	}

	seen := map[warp.Layer]bool{}

	var visit func(l warp.Layer)

	visit = func(l warp.Layer) {
		if l == nil || seen[l] {
			return
		}

		seen[l] = true

		switch ring := l.(type) {
		case *warp.CoreRing:
			if fs, ok := fields[ring.StructClassName]; ok {
				for name, f := range fs {
					ring.Fields[name] = f
				}
			}
		case *warp.SpiralOut:
			visit(ring.Inner)

			for _, sp := range ring.Spiralers {
				visit(sp)
			}
		case *warp.SpiralMux:
			for _, inner := range ring.InnerRings {
				visit(inner)
			}

			for _, sp := range ring.Spiralers {
				visit(sp)
			}
		case *warp.Spiraler:
			visit(ring.InnerRing)
		case *warp.MuxSpiraler:
			for _, inner := range ring.InnerRings {
				visit(inner)
			}
		}
	}

	for _, root := range roots {
		visit(root.Layer)
	}
}
