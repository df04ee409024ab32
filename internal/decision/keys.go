package decision

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"
)

const (
	keyPrefixWords = 3
	keyHashChars   = 12
	maxKeyTerms    = 10
	minTermLen     = 3
)

// DeriveKey returns the stable key for a decision head within a session:
// the first three alphanumeric words of the head, lowercased and joined by
// underscores, followed by the first 12 hex chars of sha256(head + ":" + session).
// Identical input always yields the identical key.
func DeriveKey(head, sessionID string) string {
	var words []string
	for _, f := range strings.Fields(head) {
		w := strings.Map(func(r rune) rune {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				return unicode.ToLower(r)
			}
			return -1
		}, f)
		if w == "" {
			continue
		}
		words = append(words, w)
		if len(words) == keyPrefixWords {
			break
		}
	}
	prefix := strings.Join(words, "_")
	if prefix == "" {
		prefix = "decision"
	}

	sum := sha256.Sum256([]byte(head + ":" + sessionID))
	return prefix + "_" + hex.EncodeToString(sum[:])[:keyHashChars]
}

// KeyTerms tokenizes text into lowercase alphanumeric words, drops stop words
// and tokens of two characters or fewer, and returns at most ten unique terms
// in first-seen order.
func KeyTerms(text string) []string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	seen := make(map[string]bool)
	var terms []string
	for _, w := range words {
		if len([]rune(w)) < minTermLen || stopWords[w] || seen[w] {
			continue
		}
		seen[w] = true
		terms = append(terms, w)
		if len(terms) == maxKeyTerms {
			break
		}
	}
	return terms
}

// SharedTerms returns the terms present in both a and b, in a's order.
func SharedTerms(a, b []string) []string {
	set := make(map[string]bool, len(b))
	for _, t := range b {
		set[t] = true
	}
	var shared []string
	for _, t := range a {
		if set[t] {
			shared = append(shared, t)
		}
	}
	return shared
}

// stopWords are common function words excluded from key terms. Verbs that
// carry the decision itself ("use", "add", "keep") are deliberately absent.
var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "are": true, "but": true,
	"not": true, "you": true, "all": true, "any": true, "can": true,
	"had": true, "her": true, "was": true, "one": true, "our": true,
	"out": true, "has": true, "him": true, "his": true, "how": true,
	"its": true, "may": true, "new": true, "now": true, "old": true,
	"see": true, "two": true, "way": true, "who": true, "did": true,
	"get": true, "let": true, "own": true, "say": true, "she": true,
	"too": true, "this": true, "that": true, "with": true, "have": true,
	"from": true, "they": true, "will": true, "would": true, "there": true,
	"their": true, "what": true, "about": true, "which": true, "when": true,
	"make": true, "like": true, "just": true, "into": true, "than": true,
	"them": true, "then": true, "some": true, "could": true, "should": true,
	"these": true, "those": true, "been": true, "being": true, "were": true,
	"does": true, "doing": true, "also": true, "very": true, "more": true,
	"most": true, "such": true, "only": true, "over": true, "here": true,
	"where": true, "while": true, "because": true, "since": true, "each": true,
	"other": true, "must": true, "might": true, "shall": true, "don": true,
	"doesn": true, "isn": true, "aren": true, "won": true, "instead": true,
	"think": true, "need": true, "going": true, "want": true, "really": true,
}
