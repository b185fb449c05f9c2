package hookup_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/spire-loom/internal/hookup"
)

func TestDetectKindBySuffix(t *testing.T) {
	cases := map[string]hookup.Kind{
		"app/src/main/AndroidManifest.xml": hookup.KindAndroidManifest,
		"crate/Cargo.toml":                 hookup.KindCargoToml,
		"app/build.gradle.kts":             hookup.KindGradle,
		"src/lib.rs":                       hookup.KindRustModule,
		"src/main.rs":                      hookup.KindRustModule,
		"app/Foo.kt":                       hookup.KindKotlin,
		"src/index.ts":                     hookup.KindTSIndex,
		"vite.config.ts":                   hookup.KindViteConfig,
	}

	for path, want := range cases {
		got, ok := hookup.DetectKind(path)
		require.True(t, ok, path)
		assert.Equal(t, want, got, path)
	}
}

func TestDetectKindUnknownSuffix(t *testing.T) {
	_, ok := hookup.DetectKind("README.md")
	assert.False(t, ok)
}

func TestResolvePathRelativeAgainstPackageDir(t *testing.T) {
	ctx := hookup.Context{PackageDir: "/workspace/crate"}
	assert.Equal(t, filepath.Join("/workspace/crate", "Cargo.toml"), hookup.ResolvePath("Cargo.toml", ctx))
}

func TestResolvePathAbsoluteStaysAsIs(t *testing.T) {
	ctx := hookup.Context{PackageDir: "/workspace/crate"}
	assert.Equal(t, "/etc/Cargo.toml", hookup.ResolvePath("/etc/Cargo.toml", ctx))
}

func TestApplyUnknownPathReportsError(t *testing.T) {
	result := hookup.Apply(hookup.Spec{Path: "mystery.xyz"}, hookup.Context{})
	assert.Equal(t, hookup.StatusError, result.Status)
}

func TestApplyMissingFileReportsError(t *testing.T) {
	dir := t.TempDir()

	result := hookup.Apply(hookup.Spec{
		Path: filepath.Join(dir, "Cargo.toml"),
		Kind: hookup.KindCargoToml,
		Config: map[string]interface{}{
			"section": "dependencies",
			"name":    "serde",
			"version": "1.0",
		},
	}, hookup.Context{})

	assert.Equal(t, hookup.StatusError, result.Status)
}

func TestApplyBatchRunsEveryEntry(t *testing.T) {
	results := hookup.ApplyBatch([]hookup.Spec{
		{Path: "mystery.xyz"},
		{Path: "other.xyz"},
	}, hookup.Context{})

	require.Len(t, results, 2)
	assert.Equal(t, hookup.StatusError, results[0].Status)
	assert.Equal(t, hookup.StatusError, results[1].Status)
}
