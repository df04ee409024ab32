package engine

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/lazypower/verdict/internal/decision"
)

const ellipsis = "..."

// validateHead checks a candidate head against the length bounds.
func validateHead(head string) error {
	if head == "" {
		return fmt.Errorf("empty head")
	}
	n := utf8.RuneCountInString(head)
	if n < decision.MinHeadChars {
		return fmt.Errorf("head too short (%d chars, min %d)", n, decision.MinHeadChars)
	}
	if n > decision.MaxHeadChars {
		return fmt.Errorf("head too long (%d chars, max %d)", n, decision.MaxHeadChars)
	}
	return nil
}

// cleanHead trims whitespace and dangling separators from a captured span.
func cleanHead(s string) string {
	return strings.TrimRight(strings.TrimSpace(s), " ,:-")
}

// collapseWhitespace folds every whitespace run to a single space.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncateRunes cuts s to at most maxLen runes, replacing the tail with an
// ellipsis when anything was removed.
func truncateRunes(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	r := []rune(s)
	if maxLen <= len(ellipsis) {
		return string(r[:maxLen])
	}
	return strings.TrimSpace(string(r[:maxLen-len(ellipsis)])) + ellipsis
}

// window returns the text within radius bytes either side of [start, end),
// widened to rune boundaries.
func window(text string, start, end, radius int) string {
	lo := start - radius
	if lo < 0 {
		lo = 0
	}
	for lo > 0 && !utf8.RuneStart(text[lo]) {
		lo--
	}
	hi := end + radius
	if hi > len(text) {
		hi = len(text)
	}
	for hi < len(text) && !utf8.RuneStart(text[hi]) {
		hi++
	}
	return text[lo:hi]
}
