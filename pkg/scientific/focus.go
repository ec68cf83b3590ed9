package scientific

import (
	"strings"
	"unicode/utf8"
)

// FocusLimit bounds the focused slice handed to a retry.
const FocusLimit = 3500

var focusLabels = []string{"abstract", "resumo", "introduction", "introdução", "introducao"}

// FocusSlice returns the Abstract/Introduction region of text, cut at a rune
// boundary near FocusLimit bytes. Without a recognisable label the head of
// the document is used.
func FocusSlice(text string) string {
	start := -1
	for _, label := range focusLabels {
		if i := indexFold(text, label); i >= 0 && (start < 0 || i < start) {
			start = i
		}
	}
	if start < 0 {
		start = 0
	}

	slice := text[start:]
	if len(slice) <= FocusLimit {
		return slice
	}
	end := FocusLimit
	for end > 0 && !utf8.RuneStart(slice[end]) {
		end--
	}
	return slice[:end]
}

// indexFold is a case-insensitive strings.Index that returns a byte offset
// into s itself.
func indexFold(s, substr string) int {
	n := len(substr)
	for i := 0; i+n <= len(s); i++ {
		if !utf8.RuneStart(s[i]) {
			continue
		}
		if strings.EqualFold(s[i:i+n], substr) {
			return i
		}
	}
	return -1
}
