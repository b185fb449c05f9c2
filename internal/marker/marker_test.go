package marker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureInsertsThenReplaces(t *testing.T) {
	m := New("crate", "foo_mod", LangRust)

	content := []byte("// lib.rs\n")

	r1 := Ensure(content, m, "pub mod foo;", InsertOptions{})
	require.True(t, r1.Modified)
	assert.Contains(t, string(r1.Content), "SPIRE-LOOM:CRATE:FOO_MOD")
	assert.Contains(t, string(r1.Content), "pub mod foo;")

	r2 := Ensure(r1.Content, m, "pub mod foo;", InsertOptions{})
	assert.False(t, r2.Modified, "re-ensuring identical content must be a no-op")
	assert.Equal(t, r1.Content, r2.Content)

	r3 := Ensure(r2.Content, m, "pub mod bar;", InsertOptions{})
	require.True(t, r3.Modified)
	assert.Contains(t, string(r3.Content), "pub mod bar;")
	assert.NotContains(t, string(r3.Content), "pub mod foo;")
}

func TestMissingEndMarkerIsNotFound(t *testing.T) {
	m := New("xml", "perm", LangXML)
	content := []byte("<!-- SPIRE-LOOM:XML:PERM --> <uses-permission/>")

	b := Find(content, m)
	assert.False(t, b.Found())

	res := Replace(content, m, "<uses-permission/>")
	assert.False(t, res.Modified)
	assert.Equal(t, content, res.Content)
}

func TestInsertAnchorAbsentAppendsAtEnd(t *testing.T) {
	m := New("gradle", "rust_build", LangGradle)
	content := []byte("plugins {\n    id 'com.android.application'\n}\n")

	res := Insert(content, m, "task cargoBuild {}\n", InsertOptions{Anchor: "does-not-exist"})
	require.True(t, res.Modified)

	b := Find(res.Content, m)
	require.True(t, b.Found())
	assert.Equal(t, len(res.Content), b.End, "block must be appended at the very end of the buffer")
}

func TestTypeScriptUsesLineComments(t *testing.T) {
	m := New("ts_export", "widget", LangTypeScript)
	content := []byte("export * from './existing';\n")

	res := Insert(content, m, "export * from './widget';\n", InsertOptions{})
	require.True(t, res.Modified)
	assert.Contains(t, string(res.Content), "// SPIRE-LOOM:TS_EXPORT:WIDGET\n")
	assert.Contains(t, string(res.Content), "// /SPIRE-LOOM:TS_EXPORT:WIDGET\n")
}

func TestInsertBeforeAnchor(t *testing.T) {
	m := New("crate", "io", LangRust)
	content := []byte("use std::fmt;\nfn main() {}\n")

	res := Insert(content, m, "use std::io;", InsertOptions{Anchor: "fn main", Before: true})
	require.True(t, res.Modified)
	assert.Less(t, indexOf(string(res.Content), "SPIRE-LOOM:CRATE:IO"), indexOf(string(res.Content), "fn main"))
}

func TestRemoveThenEnsureRoundTrip(t *testing.T) {
	m := New("crate", "foo_mod", LangRust)
	original := []byte("// lib.rs\n")

	inserted := Ensure(original, m, "pub mod foo;", InsertOptions{})
	removed := Remove(inserted.Content, m)

	assert.Equal(t, original, removed.Content)
}

func TestRepeatedIdenticalInvocationsAreByteEquivalentNoOps(t *testing.T) {
	m := New("crate", "foo_mod", LangRust)
	content := []byte("// lib.rs\n")

	first := Ensure(content, m, "pub mod foo;", InsertOptions{})
	second := Ensure(first.Content, m, "pub mod foo;", InsertOptions{})
	third := Ensure(second.Content, m, "pub mod foo;", InsertOptions{})

	assert.Equal(t, first.Content, second.Content)
	assert.Equal(t, second.Content, third.Content)
	assert.False(t, second.Modified)
	assert.False(t, third.Modified)
}

func TestValidateRejectsLowercase(t *testing.T) {
	m := Markers{Scope: "crate", Identifier: "foo"}
	assert.Error(t, m.Validate())

	m2 := New("crate", "foo", LangRust)
	assert.NoError(t, m2.Validate())
}

func TestFindAllCollectsDistinctBlocksAcrossLanguages(t *testing.T) {
	var buf []byte

	buf = Insert(buf, New("crate", "foo_mod", LangRust), "pub mod foo;", InsertOptions{}).Content
	buf = Insert(buf, New("service", "bar", LangXML), "<service/>", InsertOptions{}).Content
	buf = Insert(buf, New("crate", "foo_mod", LangRust), "pub mod foo;", InsertOptions{}).Content

	found := FindAll(buf)
	require.Len(t, found, 2)
	assert.Equal(t, Markers{Scope: "CRATE", Identifier: "FOO_MOD"}, found[0])
	assert.Equal(t, Markers{Scope: "SERVICE", Identifier: "BAR"}, found[1])
}

func TestFindAllReturnsNilWhenNoMarkersPresent(t *testing.T) {
	assert.Nil(t, FindAll([]byte("plain source, no blocks here\n")))
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}

	return -1
}
