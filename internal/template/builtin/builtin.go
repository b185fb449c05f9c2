// Package builtin embeds the .ejs templates shipped with the loom
// itself (treadle/builtins.go's Output.Template/MethodTemplate paths),
// so the compiled binary carries them rather than depending on a
// filesystem layout relative to wherever it happens to run from.
package builtin

import (
	"embed"
	"io/fs"
)

//go:embed templates
var raw embed.FS

// FS roots the embedded templates at their language directories
// ("rust/core_impl.ejs", ...), matching the relative paths
// treadle.Output.Template/MethodTemplate carry.
var FS = mustSub(raw, "templates")

func mustSub(fsys embed.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}

	return sub
}
