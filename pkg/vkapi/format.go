package vkapi

import "strings"

const markdownEscapeChars = "_*[]()~`>#+-=|{}.!"

// EscapeMarkdown backslash-escapes markdown control characters in text.
func EscapeMarkdown(text string) string {
	var out strings.Builder
	out.Grow(len(text))
	for _, r := range text {
		if strings.ContainsRune(markdownEscapeChars, r) {
			out.WriteByte('\\')
		}
		out.WriteRune(r)
	}
	return out.String()
}

// Truncate shortens text to maxLength, appending suffix when it was cut.
func Truncate(text string, maxLength int, suffix string) string {
	if len(text) <= maxLength {
		return text
	}
	if maxLength <= len(suffix) {
		return text[:maxLength]
	}
	return text[:maxLength-len(suffix)] + suffix
}
