package template

// TargetLanguage names a generated-code target for primitive type mapping.
// Rust and TypeScript also back CoreRings (warp.Language); Kotlin only
// ever appears as a hookup/render target, never as a CoreRing language,
// so it is kept separate from warp.Language rather than folded into it.
type TargetLanguage string

const (
	TargetRust       TargetLanguage = "rust"
	TargetTypeScript TargetLanguage = "typescript"
	TargetKotlin     TargetLanguage = "kotlin"
)

// TypeMap is a primitive-type substitution table consumed by sley's
// MapTypes translation (spec.md section 4.5 "target-language primitive
// mapping").
type TypeMap map[string]string

var primitiveTypeMaps = map[TargetLanguage]TypeMap{
	TargetRust: {
		"void":    "()",
		"string":  "String",
		"number":  "f64",
		"int":     "i64",
		"bigint":  "i64",
		"boolean": "bool",
	},
	TargetTypeScript: {
		"void":    "void",
		"string":  "string",
		"number":  "number",
		"int":     "number",
		"bigint":  "bigint",
		"boolean": "boolean",
	},
	TargetKotlin: {
		"void":    "Unit",
		"string":  "String",
		"number":  "Double",
		"int":     "Long",
		"bigint":  "Long",
		"boolean": "Boolean",
	},
}

// PrimitiveTypeMap returns the primitive-type substitution table for lang,
// or an empty map for an unrecognized target.
func PrimitiveTypeMap(lang TargetLanguage) TypeMap {
	if m, ok := primitiveTypeMaps[lang]; ok {
		return m
	}

	return TypeMap{}
}
