package hookup

import (
	"bytes"
	"fmt"
	"os"
	"regexp"

	"github.com/hupe1980/spire-loom/internal/marker"
)

// AndroidManifestEntry is the Config shape for KindAndroidManifest specs
// (spec.md section 4.2 "AndroidManifest"): a single discrete marked
// block -- a permission use, a service/activity declaration, a
// permission definition, or a raw application/manifest-scoped XML
// fragment.
type AndroidManifestEntry struct {
	// Scope groups the marker, e.g. "PERMISSION", "SERVICE", "ACTIVITY",
	// "PERMISSION_DEF", "RAW".
	Scope      string
	Identifier string
	XML        string
	// KeyAttr determines equivalence with manually-authored entries;
	// defaults to "android:name".
	KeyAttr string
	// Anchor, if set, is the substring the block is inserted after.
	Anchor string
}

func applyAndroidManifest(absPath string, spec Spec, _ Context) (Result, error) {
	entry, err := manifestEntryFromConfig(spec.Config)
	if err != nil {
		return Result{}, err
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		return Result{}, fmt.Errorf("reading %s: %w", absPath, err)
	}

	keyAttr := entry.KeyAttr
	if keyAttr == "" {
		keyAttr = "android:name"
	}

	m := marker.New(entry.Scope, entry.Identifier, marker.LangXML)

	// Only check for a pre-existing manual entry the first time this
	// block is generated; once it is itself managed, re-running this
	// hookup is handled by marker.Ensure's own idempotency instead.
	if !marker.Find(content, m).Found() {
		if value, ok := xmlAttrValue(entry.XML, keyAttr); ok && hasManualManifestEntry(content, keyAttr, value) {
			return Result{Kind: KindAndroidManifest, Status: StatusSkipped,
				Message: fmt.Sprintf("manual entry for %s=%q already present", keyAttr, value)}, nil
		}
	}

	result := marker.Ensure(content, m, entry.XML, marker.InsertOptions{Anchor: entry.Anchor})
	if !result.Modified {
		return Result{Kind: KindAndroidManifest, Status: StatusSkipped, Message: "block already up to date"}, nil
	}

	if err := os.WriteFile(absPath, result.Content, 0o644); err != nil {
		return Result{}, fmt.Errorf("writing %s: %w", absPath, err)
	}

	return Result{Kind: KindAndroidManifest, Status: StatusApplied}, nil
}

func manifestEntryFromConfig(cfg map[string]interface{}) (AndroidManifestEntry, error) {
	entry := AndroidManifestEntry{}

	entry.Scope, _ = cfg["scope"].(string)
	entry.Identifier, _ = cfg["identifier"].(string)
	entry.XML, _ = cfg["xml"].(string)
	entry.KeyAttr, _ = cfg["keyAttr"].(string)
	entry.Anchor, _ = cfg["anchor"].(string)

	if entry.Scope == "" || entry.Identifier == "" || entry.XML == "" {
		return entry, fmt.Errorf("android-manifest hookup requires scope, identifier, and xml")
	}

	return entry, nil
}

// xmlAttrValue extracts the value of attr from a single XML element
// fragment, e.g. `android:name` out of `<uses-permission
// android:name="android.permission.CAMERA" />`.
func xmlAttrValue(xmlFragment, attr string) (string, bool) {
	re := regexp.MustCompile(regexp.QuoteMeta(attr) + `\s*=\s*"([^"]*)"`)

	m := re.FindStringSubmatch(xmlFragment)
	if m == nil {
		return "", false
	}

	return m[1], true
}

// hasManualManifestEntry reports whether content already declares an
// element with attr=value anywhere in the file, other generated blocks
// included -- a conservative whole-file check, since a manually-authored
// entry must never gain a managed twin (spec.md section 4.2 "records it
// as a manual override and does not add the managed twin").
// applyAndroidManifest consults it only while its own block is absent.
func hasManualManifestEntry(content []byte, attr, value string) bool {
	needle := []byte(fmt.Sprintf(`%s="%s"`, attr, value))
	return bytes.Contains(content, needle)
}
