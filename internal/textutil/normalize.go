package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

var titleCaser = cases.Title(language.English)

// NormalizeName returns name trimmed and in Unicode normalization form C.
func NormalizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	return norm.NFC.String(name)
}

// CleanText trims value, drops control characters and NUL padding, and
// normalizes it to NFC. Camera vendors pad fixed-width tags with NULs.
func CleanText(value string) string {
	value = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\t' {
			return -1
		}
		return r
	}, value)
	return NormalizeName(value)
}

// Title renders value in title case ("photos" -> "Photos").
func Title(value string) string {
	return titleCaser.String(strings.TrimSpace(value))
}
