package hookup

import (
	"fmt"
	"os"

	"github.com/hupe1980/spire-loom/internal/marker"
)

// GradleEdit is the Config shape for KindGradle specs (spec.md section
// 4.2 "Gradle"): a plugin application, a per-configuration dependency,
// an Android source-set srcDir addition, or a named Rust-build task
// wired into preBuild.
type GradleEdit struct {
	EditKind   string
	Identifier string
	Snippet    string
	Anchor     string
}

func applyGradle(absPath string, spec Spec, _ Context) (Result, error) {
	edit, err := gradleEditFromConfig(spec.Config)
	if err != nil {
		return Result{}, err
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		return Result{}, fmt.Errorf("reading %s: %w", absPath, err)
	}

	m := marker.New("GRADLE_"+edit.EditKind, edit.Identifier, marker.LangGradle)

	result := marker.Ensure(content, m, edit.Snippet, marker.InsertOptions{Anchor: edit.Anchor})
	if !result.Modified {
		return Result{Kind: KindGradle, Status: StatusSkipped, Message: "block already up to date"}, nil
	}

	if err := os.WriteFile(absPath, result.Content, 0o644); err != nil {
		return Result{}, fmt.Errorf("writing %s: %w", absPath, err)
	}

	return Result{Kind: KindGradle, Status: StatusApplied}, nil
}

func gradleEditFromConfig(cfg map[string]interface{}) (GradleEdit, error) {
	edit := GradleEdit{}

	edit.EditKind, _ = cfg["editKind"].(string)
	edit.Identifier, _ = cfg["identifier"].(string)
	edit.Snippet, _ = cfg["snippet"].(string)
	edit.Anchor, _ = cfg["anchor"].(string)

	if edit.EditKind == "" || edit.Identifier == "" || edit.Snippet == "" {
		return edit, fmt.Errorf("gradle hookup requires editKind, identifier, and snippet")
	}

	return edit, nil
}

// RustBuildTaskSnippet renders the named cargo-ndk task and preBuild
// wiring spec.md section 4.2 describes, for callers assembling a
// GradleEdit programmatically instead of supplying a raw snippet.
func RustBuildTaskSnippet(taskName, cratePath string) string {
	return fmt.Sprintf(`tasks.register("%s", Exec::class) {
    workingDir = file("%s")
    commandLine("cargo", "ndk", "-t", "arm64-v8a", "-t", "x86_64", "-o", "src/main/jniLibs", "build", "--release")
}
tasks.named("preBuild") { dependsOn("%s") }
`, taskName, cratePath, taskName)
}
