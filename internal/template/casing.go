package template

import "strings"

// words splits an identifier on underscores, hyphens, and camel-case
// boundaries, lower-casing each resulting word.
func words(s string) []string {
	var out []string

	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			out = append(out, strings.ToLower(current.String()))
			current.Reset()
		}
	}

	runes := []rune(s)

	for i, r := range runes {
		switch {
		case r == '_' || r == '-' || r == ' ':
			flush()
		case r >= 'A' && r <= 'Z' && i > 0 && !isBoundary(runes[i-1]):
			flush()
			current.WriteRune(r)
		default:
			current.WriteRune(r)
		}
	}

	flush()

	return out
}

// isBoundary reports whether r is a separator that already ended a word,
// so an immediately-following upper-case rune does not start a second,
// empty split at the same position.
func isBoundary(r rune) bool {
	return r == '_' || r == '-' || r == ' '
}

// CamelCase converts an identifier to camelCase: "device_manager" and
// "DeviceManager" both become "deviceManager".
func CamelCase(s string) string {
	ws := words(s)
	if len(ws) == 0 {
		return ""
	}

	var b strings.Builder

	b.WriteString(ws[0])

	for _, w := range ws[1:] {
		b.WriteString(capitalize(w))
	}

	return b.String()
}

// PascalCase converts an identifier to PascalCase.
func PascalCase(s string) string {
	var b strings.Builder

	for _, w := range words(s) {
		b.WriteString(capitalize(w))
	}

	return b.String()
}

// SnakeCase converts an identifier to snake_case.
func SnakeCase(s string) string {
	return strings.Join(words(s), "_")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}

	return strings.ToUpper(s[:1]) + s[1:]
}
