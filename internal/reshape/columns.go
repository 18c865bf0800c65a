package reshape

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// columnNameStrip holds the characters the storage layer rejects in column names.
const columnNameStrip = " .,;{}()\n\t="

// SanitizeColumnName removes characters that cannot appear in a column name.
func SanitizeColumnName(name string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(columnNameStrip, r) {
			return -1
		}
		return r
	}, name)
}

// truncateLabel cuts s to at most n characters.
func truncateLabel(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}

func startsWithDigit(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return r != utf8.RuneError && unicode.IsDigit(r)
}

// yearPrefix returns the leading four digits of a period label.
func yearPrefix(label string) (string, bool) {
	if len(label) < 4 {
		return "", false
	}
	for _, c := range label[:4] {
		if c < '0' || c > '9' {
			return "", false
		}
	}
	return label[:4], true
}
