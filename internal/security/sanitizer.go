package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/sbpickleball/match_app/pkg/utils"
)

var htmlPolicy = bluemonday.StrictPolicy()

// SanitizeString trims, drops null bytes and caps the length in runes.
func SanitizeString(input string, maxRunes int) string {
	input = strings.TrimSpace(input)
	input = strings.ReplaceAll(input, "\x00", "")
	return utils.Truncate(input, maxRunes)
}

// SanitizeHTML removes all HTML tags
func SanitizeHTML(input string) string {
	return htmlPolicy.Sanitize(input)
}

// CleanText strips markup and trims. The result is what gets stored and
// what length limits are checked against.
func CleanText(input string) string {
	input = strings.ReplaceAll(input, "\x00", "")
	return strings.TrimSpace(html.UnescapeString(SanitizeHTML(input)))
}

// ValidateFileType checks if file extension is allowed
func ValidateFileType(filename string, allowedTypes []string) bool {
	filename = strings.ToLower(filename)
	for _, ext := range allowedTypes {
		if strings.HasSuffix(filename, strings.ToLower(ext)) {
			return true
		}
	}
	return false
}

// ValidateFileSize checks if file size is within limit
func ValidateFileSize(size int64, maxSize int64) bool {
	return size > 0 && size <= maxSize
}
