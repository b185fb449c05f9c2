// Package marker implements language-aware delimited-block read/write
// over text files. Every generated region is bracketed by a start/end
// marker pair whose inner tag is SPIRE-LOOM:<SCOPE>:<IDENTIFIER>, wrapped
// in comment syntax appropriate to the target language.
package marker

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
)

// Language identifies the comment dialect used to wrap a marker.
type Language string

const (
	LangRust       Language = "rust"
	LangGradle     Language = "gradle"
	LangKotlin     Language = "kotlin"
	LangXML        Language = "xml"
	LangTOML       Language = "toml"
	LangTypeScript Language = "typescript"
)

var identifierRe = regexp.MustCompile(`^[A-Z0-9_]+$`)

// Markers identifies a single marked block by scope and identifier.
// Both are case-insensitive on input and normalized to upper case.
type Markers struct {
	Scope      string
	Identifier string
	Language   Language
}

// New builds a Markers value, normalizing scope/identifier to upper case.
func New(scope, identifier string, lang Language) Markers {
	return Markers{
		Scope:      strings.ToUpper(scope),
		Identifier: strings.ToUpper(identifier),
		Language:   lang,
	}
}

// Validate checks that scope and identifier only use [A-Z0-9_] once
// normalized, per the marker format (spec.md section 6 "Marker format").
func (m Markers) Validate() error {
	if !identifierRe.MatchString(m.Scope) {
		return fmt.Errorf("marker scope %q must match [A-Z0-9_]+", m.Scope)
	}

	if !identifierRe.MatchString(m.Identifier) {
		return fmt.Errorf("marker identifier %q must match [A-Z0-9_]+", m.Identifier)
	}

	return nil
}

// tag returns the inner SPIRE-LOOM:<SCOPE>:<IDENTIFIER> tag.
func (m Markers) tag() string {
	return fmt.Sprintf("SPIRE-LOOM:%s:%s", m.Scope, m.Identifier)
}

// startEnd returns the fully comment-wrapped start and end marker lines
// for the configured language.
func (m Markers) startEnd() (start, end string) {
	tag := m.tag()

	switch m.Language {
	case LangRust:
		return fmt.Sprintf("/* %s */", tag), fmt.Sprintf("/* /%s */", tag)
	case LangGradle, LangKotlin, LangTypeScript:
		return fmt.Sprintf("// %s\n", tag), fmt.Sprintf("// /%s\n", tag)
	case LangXML:
		return fmt.Sprintf("<!-- %s -->", tag), fmt.Sprintf("<!-- /%s -->", tag)
	case LangTOML:
		return fmt.Sprintf("# %s\n", tag), fmt.Sprintf("# /%s", tag)
	default:
		return fmt.Sprintf("/* %s */", tag), fmt.Sprintf("/* /%s */", tag)
	}
}

// Bounds describes the located position of a marked block within a buffer.
type Bounds struct {
	// Start/End span the whole block, markers included: Start is the
	// first byte of the start marker and End is one past the last byte
	// of the end marker, so content[Start:End] is the block.
	Start, End int
	// InnerStart/InnerEnd bound the content between the markers.
	InnerStart, InnerEnd int
}

// Found reports whether Find located a block.
func (b Bounds) Found() bool { return b.Start >= 0 }

// notFound is the sentinel Bounds returned when a block is absent.
var notFound = Bounds{Start: -1, End: -1, InnerStart: -1, InnerEnd: -1}

// Find locates the marked block in content. A start marker with no
// matching end marker is treated as "not found" per spec.md section 4.1.
func Find(content []byte, m Markers) Bounds {
	start, end := m.startEnd()

	startBytes := []byte(start)
	endBytes := []byte(end)

	startIdx := bytes.Index(content, startBytes)
	if startIdx < 0 {
		return notFound
	}

	innerStart := startIdx + len(startBytes)

	endIdx := bytes.Index(content[innerStart:], endBytes)
	if endIdx < 0 {
		return notFound
	}

	innerEnd := innerStart + endIdx
	blockEnd := innerEnd + len(endBytes)

	return Bounds{
		Start:      startIdx,
		End:        blockEnd,
		InnerStart: innerStart,
		InnerEnd:   innerEnd,
	}
}

// BufferResult is the outcome of a buffer operation: whether the buffer
// was modified and its (possibly unchanged) resulting content.
type BufferResult struct {
	Modified bool
	Content  []byte
}

// unmodified wraps content into a no-op BufferResult.
func unmodified(content []byte) BufferResult {
	return BufferResult{Modified: false, Content: content}
}

// Remove deletes the entire block, markers included. No-op if absent.
func Remove(content []byte, m Markers) BufferResult {
	b := Find(content, m)
	if !b.Found() {
		return unmodified(content)
	}

	out := make([]byte, 0, len(content)-(b.End-b.Start))
	out = append(out, content[:b.Start]...)
	out = append(out, content[b.End:]...)

	return BufferResult{Modified: true, Content: out}
}

// Replace substitutes the inner content of an existing block, preserving
// the markers themselves. No-op (not an error) if the block is absent —
// callers that need insert-or-replace semantics should use Ensure.
func Replace(content []byte, m Markers, inner string) BufferResult {
	b := Find(content, m)
	if !b.Found() {
		return unmodified(content)
	}

	if string(content[b.InnerStart:b.InnerEnd]) == inner {
		return unmodified(content)
	}

	out := make([]byte, 0, len(content)+len(inner))
	out = append(out, content[:b.InnerStart]...)
	out = append(out, []byte(inner)...)
	out = append(out, content[b.InnerEnd:]...)

	return BufferResult{Modified: true, Content: out}
}

// InsertOptions controls where Insert places a new block when absent.
type InsertOptions struct {
	// Anchor, if non-empty, is a substring to insert relative to.
	Anchor string
	// Before places the block before the anchor; otherwise after it.
	Before bool
}

// Insert places a new marked block if absent. If Anchor is set and
// found in content, the block is placed immediately before/after it;
// otherwise (or if the anchor is absent) the block is appended at the
// end of the buffer. Inserting an already-present block is a no-op.
func Insert(content []byte, m Markers, inner string, opts InsertOptions) BufferResult {
	if Find(content, m).Found() {
		return unmodified(content)
	}

	start, end := m.startEnd()
	block := start + inner + end

	if opts.Anchor != "" {
		idx := bytes.Index(content, []byte(opts.Anchor))
		if idx >= 0 {
			pos := idx
			if !opts.Before {
				pos = idx + len(opts.Anchor)
			}

			out := make([]byte, 0, len(content)+len(block))
			out = append(out, content[:pos]...)
			out = append(out, []byte(block)...)
			out = append(out, content[pos:]...)

			return BufferResult{Modified: true, Content: out}
		}
	}

	out := make([]byte, 0, len(content)+len(block))
	out = append(out, content...)
	out = append(out, []byte(block)...)

	return BufferResult{Modified: true, Content: out}
}

// Ensure performs idempotent insert-or-replace: if the block is present
// its inner content is replaced (when different), otherwise it is
// inserted per opts. Repeated invocations with identical content are
// byte-equivalent no-ops.
func Ensure(content []byte, m Markers, inner string, opts InsertOptions) BufferResult {
	if Find(content, m).Found() {
		return Replace(content, m, inner)
	}

	return Insert(content, m, inner, opts)
}

// tagRe matches a start-marker tag regardless of the comment syntax it
// is wrapped in, so a file can be scanned for every block it carries
// without knowing each one's Language up front.
var tagRe = regexp.MustCompile(`SPIRE-LOOM:([A-Z0-9_]+):([A-Z0-9_]+)\s*(?:\*/|-->)?`)

// FindAll scans content for every distinct start-marker tag and
// returns the Markers each one identifies, in first-seen order. End
// markers (the "/SCOPE:ID" form) are excluded. Used by the registry
// scan that seeds cross-run orphan detection (spec.md section 6
// "cross-run registry").
func FindAll(content []byte) []Markers {
	matches := tagRe.FindAllSubmatch(content, -1)

	var out []Markers

	seen := make(map[string]bool)

	for _, m := range matches {
		scope, id := string(m[1]), string(m[2])

		key := scope + ":" + id
		if seen[key] {
			continue
		}

		seen[key] = true
		out = append(out, Markers{Scope: scope, Identifier: id})
	}

	return out
}

// Inner returns the current inner content of the block, if present.
func Inner(content []byte, m Markers) (string, bool) {
	b := Find(content, m)
	if !b.Found() {
		return "", false
	}

	return string(content[b.InnerStart:b.InnerEnd]), true
}
