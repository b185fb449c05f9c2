package hookup

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/hupe1980/spire-loom/internal/marker"
)

// CargoDependencyEntry is the Config shape for KindCargoToml specs
// (spec.md section 4.2 "Cargo.toml"): one entry inserted into a named
// table such as [dependencies] or [features].
type CargoDependencyEntry struct {
	Section         string
	Name            string
	Version         string
	Path            string
	Git             string
	Branch          string
	Features        []string
	Optional        bool
	DefaultFeatures *bool
}

func applyCargoToml(absPath string, spec Spec, _ Context) (Result, error) {
	entry, err := cargoEntryFromConfig(spec.Config)
	if err != nil {
		return Result{}, err
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		return Result{}, fmt.Errorf("reading %s: %w", absPath, err)
	}

	if existingCargoKey(content, entry.Section, entry.Name) {
		return Result{Kind: KindCargoToml, Status: StatusSkipped,
			Message: fmt.Sprintf("%s.%s already present", entry.Section, entry.Name)}, nil
	}

	line := entry.Name + " = " + encodeCargoValue(entry) + "\n"

	m := marker.New("CARGO_DEP", entry.Section+"_"+entry.Name, marker.LangTOML)
	anchor := "[" + entry.Section + "]"

	result := marker.Ensure(content, m, line, marker.InsertOptions{Anchor: anchor})
	if !result.Modified {
		return Result{Kind: KindCargoToml, Status: StatusSkipped, Message: "block already up to date"}, nil
	}

	if err := os.WriteFile(absPath, result.Content, 0o644); err != nil {
		return Result{}, fmt.Errorf("writing %s: %w", absPath, err)
	}

	return Result{Kind: KindCargoToml, Status: StatusApplied}, nil
}

func cargoEntryFromConfig(cfg map[string]interface{}) (CargoDependencyEntry, error) {
	entry := CargoDependencyEntry{}

	entry.Section, _ = cfg["section"].(string)
	entry.Name, _ = cfg["name"].(string)

	if entry.Section == "" || entry.Name == "" {
		return entry, fmt.Errorf("cargo-toml hookup requires section and name")
	}

	entry.Version, _ = cfg["version"].(string)
	entry.Path, _ = cfg["path"].(string)
	entry.Git, _ = cfg["git"].(string)
	entry.Branch, _ = cfg["branch"].(string)
	entry.Optional, _ = cfg["optional"].(bool)

	if features, ok := cfg["features"].([]string); ok {
		entry.Features = features
	}

	if defaultFeatures, ok := cfg["defaultFeatures"].(bool); ok {
		entry.DefaultFeatures = &defaultFeatures
	}

	return entry, nil
}

// encodeCargoValue renders entry as a bare version string or an inline
// table, per spec.md section 4.2: "Dependency values may be bare
// versions... or inline tables with version, path, git, branch,
// features, optional, default-features."
func encodeCargoValue(entry CargoDependencyEntry) string {
	hasExtra := entry.Path != "" || entry.Git != "" || entry.Branch != "" ||
		len(entry.Features) > 0 || entry.Optional || entry.DefaultFeatures != nil

	if !hasExtra {
		return encodeTOMLScalar(entry.Version)
	}

	var fields []string

	if entry.Version != "" {
		fields = append(fields, "version = "+encodeTOMLScalar(entry.Version))
	}

	if entry.Path != "" {
		fields = append(fields, "path = "+encodeTOMLScalar(entry.Path))
	}

	if entry.Git != "" {
		fields = append(fields, "git = "+encodeTOMLScalar(entry.Git))
	}

	if entry.Branch != "" {
		fields = append(fields, "branch = "+encodeTOMLScalar(entry.Branch))
	}

	if len(entry.Features) > 0 {
		fields = append(fields, "features = "+encodeTOMLScalar(entry.Features))
	}

	if entry.Optional {
		fields = append(fields, "optional = true")
	}

	if entry.DefaultFeatures != nil {
		fields = append(fields, fmt.Sprintf("default-features = %t", *entry.DefaultFeatures))
	}

	return "{ " + strings.Join(fields, ", ") + " }"
}

// encodeTOMLScalar renders v as a TOML scalar literal by delegating to
// the real encoder for a throwaway single-key document, then stripping
// the "v = " prefix it produces -- reused here for correct string/array
// escaping rather than hand-rolled quoting.
func encodeTOMLScalar(v interface{}) string {
	var buf bytes.Buffer

	if err := toml.NewEncoder(&buf).Encode(map[string]interface{}{"v": v}); err != nil {
		return fmt.Sprintf("%q", fmt.Sprintf("%v", v))
	}

	return strings.TrimPrefix(strings.TrimSpace(buf.String()), "v = ")
}

// existingCargoKey reports whether name is already a key under the
// [section] table, so a manually or previously-authored entry is never
// duplicated (spec.md section 4.2 "Already-present keys are preserved
// untouched").
func existingCargoKey(content []byte, section, name string) bool {
	sectionHeader := "[" + section + "]"
	inSection := false

	for _, line := range strings.Split(string(content), "\n") {
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "[") {
			inSection = trimmed == sectionHeader
			continue
		}

		if !inSection {
			continue
		}

		if strings.HasPrefix(trimmed, name+" ") || strings.HasPrefix(trimmed, name+"=") {
			return true
		}
	}

	return false
}
