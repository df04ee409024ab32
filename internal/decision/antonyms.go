package decision

import (
	"regexp"
	"strings"
)

// Antonym is a pair of phrases that assert opposite things.
type Antonym struct {
	A, B string
}

// DefaultAntonyms is the antonym table consulted by conflict detection.
var DefaultAntonyms = []Antonym{
	{"use", "don't use"},
	{"use", "do not use"},
	{"use", "avoid"},
	{"enable", "disable"},
	{"add", "remove"},
	{"keep", "replace"},
	{"keep", "remove"},
	{"keep", "drop"},
	{"include", "exclude"},
	{"allow", "deny"},
	{"allow", "block"},
	{"accept", "reject"},
	{"increase", "decrease"},
	{"start", "stop"},
	{"sync", "async"},
	{"always", "never"},
}

type compiledAntonym struct {
	Antonym
	a, b *regexp.Regexp
	// aInB is set when phrase B contains phrase A ("use" / "don't use").
	aInB, bInA bool
}

// AntonymMatcher finds antonym evidence between two texts.
type AntonymMatcher struct {
	pairs []compiledAntonym
}

// NewAntonymMatcher compiles the given pairs.
func NewAntonymMatcher(pairs []Antonym) *AntonymMatcher {
	m := &AntonymMatcher{}
	for _, p := range pairs {
		a, b := strings.ToLower(p.A), strings.ToLower(p.B)
		m.pairs = append(m.pairs, compiledAntonym{
			Antonym: p,
			a:       phraseRe(a),
			b:       phraseRe(b),
			aInB:    phraseRe(a).MatchString(b),
			bInA:    phraseRe(b).MatchString(a),
		})
	}
	return m
}

func phraseRe(phrase string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(phrase) + `\b`)
}

// Find reports the first pair with one side in x and the other side in y,
// checked in both directions.
func (m *AntonymMatcher) Find(x, y string) (Antonym, bool) {
	x, y = NormalizeText(x), NormalizeText(y)
	for _, p := range m.pairs {
		if (p.hasA(x) && p.hasB(y)) || (p.hasB(x) && p.hasA(y)) {
			return p.Antonym, true
		}
	}
	return Antonym{}, false
}

// hasA reports whether A occurs in text outside any occurrence of B, so
// "use" does not match inside "don't use".
func (p compiledAntonym) hasA(text string) bool {
	if p.aInB {
		text = p.b.ReplaceAllString(text, " ")
	}
	return p.a.MatchString(text)
}

func (p compiledAntonym) hasB(text string) bool {
	if p.bInA {
		text = p.a.ReplaceAllString(text, " ")
	}
	return p.b.MatchString(text)
}

// NormalizeText folds typographic apostrophes and quotes to ASCII.
func NormalizeText(s string) string {
	return textReplacer.Replace(s)
}

var textReplacer = strings.NewReplacer("’", "'", "‘", "'", "“", `"`, "”", `"`)
