package publish

import "strings"

const tagSuffix = " (pdf)"

// StripTag removes the document-type marker the listing page appends to
// anchor text.
func StripTag(text string) string {
	return strings.ReplaceAll(text, tagSuffix, "")
}

// Label formats a display text for a channel: the tag suffix is stripped and
// the result truncated to maxLen with a trailing marker when cut. A maxLen
// too small to hold the marker disables truncation.
func Label(text string, maxLen int) string {
	text = StripTag(text)

	runes := []rune(text)
	if maxLen > 3 && len(runes) >= maxLen {
		text = string(runes[:maxLen-3]) + "..."
	}
	return text
}
