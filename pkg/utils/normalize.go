package utils

import (
	"strings"
	"unicode"
)

// Key reduces a vendor or plugin string to its comparison key: lower-case letters and digits only.
// Handles: "Brainworx GmbH" -> "brainworxgmbh", "bx_" -> "bx", "u-he" -> "uhe", "A&B" -> "aandb"
func Key(s string) string {
	if s == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '&':
			b.WriteString("and")
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

// CollapseSpaces trims the string and replaces every run of whitespace with a single space
func CollapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Fold returns the case-insensitive, whitespace-insensitive form used for identity and ordering
func Fold(s string) string {
	return strings.ToLower(CollapseSpaces(s))
}

// CleanPluginName tidies a plugin name read from metadata.
// Mojibake registered-trademark sequences and NUL padding from fixed-width fields are removed.
func CleanPluginName(name string) string {
	name = strings.ReplaceAll(name, "\x00", "")
	name = strings.ReplaceAll(name, "Â®", "")
	name = strings.ReplaceAll(name, "®", "")
	name = strings.ReplaceAll(name, "™", "")
	return CollapseSpaces(name)
}

// TrimPunctuation removes separators left dangling at either end of a vendor string
func TrimPunctuation(s string) string {
	return strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || strings.ContainsRune(",.;:|/-_", r)
	})
}
