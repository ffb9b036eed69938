package utils

import (
	"strings"
	"unicode/utf8"
)

// RuneLen counts characters, not bytes. Korean input is multi-byte.
func RuneLen(s string) int {
	return utf8.RuneCountInString(s)
}

// Truncate cuts s to at most max runes.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}

// NormalizeSpace trims and collapses internal runs of whitespace to a single space.
func NormalizeSpace(input string) string {
	return strings.Join(strings.Fields(input), " ")
}

// NormalizeFullWidthDigits converts full-width digits (０-９) produced by
// some mobile keyboards to ASCII.
func NormalizeFullWidthDigits(input string) string {
	replacer := strings.NewReplacer(
		"０", "0", "１", "1", "２", "2", "３", "3", "４", "4",
		"５", "5", "６", "6", "７", "7", "８", "8", "９", "9",
		"：", ":", "－", "-",
	)
	return replacer.Replace(input)
}
