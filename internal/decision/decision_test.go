package decision

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveKeyIdempotent(t *testing.T) {
	heads := []string{
		"use PostgreSQL for storage",
		"Choose Go over Rust",
		"don't use PostgreSQL, use MongoDB instead",
		"!!! ???",
	}
	for _, h := range heads {
		for _, sess := range []string{"", "sess-1", "sess-2"} {
			assert.Equal(t, DeriveKey(h, sess), DeriveKey(h, sess), "head=%q session=%q", h, sess)
		}
	}
}

func TestDeriveKeyShape(t *testing.T) {
	key := DeriveKey("use PostgreSQL for storage", "sess-1")
	require.True(t, strings.HasPrefix(key, "use_postgresql_for_"), key)
	suffix := strings.TrimPrefix(key, "use_postgresql_for_")
	assert.Len(t, suffix, 12)
	assert.Regexp(t, `^[0-9a-f]{12}$`, suffix)
}

func TestDeriveKeyStripsPunctuation(t *testing.T) {
	key := DeriveKey("don't use PostgreSQL, use MongoDB", "s")
	assert.True(t, strings.HasPrefix(key, "dont_use_postgresql_"), key)
}

func TestDeriveKeySessionScoped(t *testing.T) {
	assert.NotEqual(t, DeriveKey("use Redis", "a"), DeriveKey("use Redis", "b"))
}

func TestDeriveKeyNoWords(t *testing.T) {
	assert.True(t, strings.HasPrefix(DeriveKey("?? !!", "s"), "decision_"))
}

func TestKeyTerms(t *testing.T) {
	tests := []struct {
		text string
		want []string
	}{
		{"use PostgreSQL for storage", []string{"use", "postgresql", "storage"}},
		{"don't use PostgreSQL, use MongoDB instead", []string{"use", "postgresql", "mongodb"}},
		{"an is of to", nil},
		{"Go is ok", nil},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, KeyTerms(tt.text), tt.text)
	}
}

func TestKeyTermsCap(t *testing.T) {
	text := "alpha bravo charlie delta echo foxtrot golf hotel india juliet kilo lima"
	terms := KeyTerms(text)
	require.Len(t, terms, 10)
	assert.Equal(t, "alpha", terms[0])
	assert.Equal(t, "juliet", terms[9])
}

func TestSharedTerms(t *testing.T) {
	assert.Equal(t, []string{"use", "postgresql"},
		SharedTerms([]string{"use", "postgresql", "mongodb"}, []string{"use", "postgresql", "storage"}))
	assert.Empty(t, SharedTerms([]string{"a"}, []string{"b"}))
}

func TestClampConfidence(t *testing.T) {
	assert.Equal(t, 0.1, ClampConfidence(-3))
	assert.Equal(t, 1.0, ClampConfidence(1.4))
	assert.Equal(t, 0.55, ClampConfidence(0.55))
}

func TestAntonymMatcher(t *testing.T) {
	m := NewAntonymMatcher(DefaultAntonyms)

	tests := []struct {
		name string
		x, y string
		want bool
	}{
		{"negated use", "don't use PostgreSQL, use MongoDB instead", "use PostgreSQL for storage", true},
		{"reverse direction", "use PostgreSQL for storage", "don't use PostgreSQL", true},
		{"curly apostrophe", "don’t use PostgreSQL", "use PostgreSQL for storage", true},
		{"enable disable", "enable caching for the API", "disable caching for the API", true},
		{"both negated", "don't use PostgreSQL", "don't use PostgreSQL here either", false},
		{"no antonym", "use PostgreSQL for storage", "use PostgreSQL for analytics", false},
		{"substring is not a word", "resync the mirror", "async worker", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := m.Find(tt.x, tt.y)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestDefaultCatalogueCompiles(t *testing.T) {
	c := DefaultCatalogue()
	assert.Len(t, c.Rules, len(DefaultRules))
	assert.Len(t, c.Indicators, len(DefaultIndicators))
	for _, r := range c.Rules {
		_, ok := BaseConfidence[r.Type]
		assert.True(t, ok, "no base confidence for %s", r.Type)
	}
}

func TestCompileReportsBadRules(t *testing.T) {
	c, errs := Compile([]Rule{
		{Family: "x", Type: Explicit, Regex: `(`, Template: "$1"},
		{Family: "x", Type: "bogus", Regex: `a`, Template: "$0"},
		{Family: "x", Type: Technical, Regex: `(b)`, Template: "$1"},
	}, nil)
	assert.Len(t, errs, 2)
	assert.Len(t, c.Rules, 1)
}
