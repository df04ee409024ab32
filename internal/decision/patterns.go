package decision

import "regexp"

// Rule is one entry in the pattern catalogue. Template is expanded against
// the match with regexp.Expand semantics to build the decision head.
type Rule struct {
	Family   string
	Type     PatternType
	Regex    string
	Template string
}

// Indicator is a confidence-adjusting phrase searched for in the whole text.
type Indicator struct {
	Phrase string
	Delta  float64
}

// clause matches the rest of a sentence.
const clause = `([^.!?;\n]+)`

// term matches a single technology-ish token (Go, C++, node.js-ish, gRPC).
const term = `([\w+#-]+(?:\.[\w+#-]+)*)`

// DefaultRules is the decision pattern catalogue. Patterns overlap on purpose:
// every match of every rule becomes its own candidate.
var DefaultRules = []Rule{
	// explicit_decisions
	{Family: "explicit_decisions", Type: Explicit, Template: "$1",
		Regex: `(?i)\b(?:we|i|you|let's|let us)\s+(?:should|will|must|need to|are going to|have to)\s+` + clause},
	{Family: "explicit_decisions", Type: Explicit, Template: "$1",
		Regex: `(?i)\b(?:decided|decide|chose|agreed|opted)\s+to\s+` + clause},
	{Family: "explicit_decisions", Type: Explicit, Template: "$1",
		Regex: `(?i)\b(?:the decision is|our decision is|we'll go with|let's go with|going with)\s+` + clause},
	{Family: "explicit_decisions", Type: Explicit, Template: "$1",
		Regex: `(?i)\b(?:decision|decided|final call)\s*:\s*` + clause},

	// implicit_decisions
	{Family: "implicit_decisions", Type: Implicit, Template: "$1",
		Regex: `(?i)\b(?:i think|i believe|it seems|it's better to|it is better to|makes sense to)\s+` + clause},
	{Family: "implicit_decisions", Type: Implicit, Template: "$1",
		Regex: `(?i)\b(?:going forward|from now on),?\s+` + clause},

	// comparison_decisions
	{Family: "comparison_decisions", Type: Comparison, Template: "Choose $1 over $2",
		Regex: `(?i)\b` + term + `\s+is\s+(?:better|faster|simpler|safer|cleaner|preferable)\s+than\s+` + term},
	{Family: "comparison_decisions", Type: Comparison, Template: "Choose $1 over $2",
		Regex: `(?i)\b(?:use|choose|pick|prefer)\s+` + term + `\s+(?:instead of|rather than|over)\s+` + term},
	{Family: "comparison_decisions", Type: Comparison, Template: "Choose $1 over $2",
		Regex: `(?i)\bprefer\s+` + term + `\s+to\s+` + term},

	// technical_decisions
	{Family: "technical_decisions", Type: Technical, Template: "$1",
		Regex: `(?i)\b((?:switch(?:ed)?|migrate[ds]?|migrating|upgrade[ds]?|moved?) to\s+[^.!?;\n]+)`},
	{Family: "technical_decisions", Type: Technical, Template: "$1",
		Regex: `(?i)\b((?:implement(?:ed)?|adopt(?:ed)?|deprecate[ds]?|refactor(?:ed)?|replace[ds]?)\s+[^.!?;\n]+)`},
	{Family: "technical_decisions", Type: Technical, Template: "$1",
		Regex: `(?i)\b(?:architecture|design|stack|approach)\s+(?:is|will be|should be)\s+` + clause},
}

// BaseConfidence is the starting confidence per pattern type.
var BaseConfidence = map[PatternType]float64{
	Explicit:   0.8,
	Implicit:   0.6,
	Comparison: 0.7,
	Technical:  0.75,
}

// DefaultIndicators adjust confidence. Each phrase counts once per text.
var DefaultIndicators = []Indicator{
	{Phrase: "definitely", Delta: 0.2},
	{Phrase: "certainly", Delta: 0.2},
	{Phrase: "absolutely", Delta: 0.2},
	{Phrase: "clearly", Delta: 0.2},
	{Phrase: "without a doubt", Delta: 0.2},

	{Phrase: "probably", Delta: 0.1},
	{Phrase: "recommend", Delta: 0.1},
	{Phrase: "likely", Delta: 0.1},
	{Phrase: "best practice", Delta: 0.1},

	{Phrase: "maybe", Delta: -0.1},
	{Phrase: "might", Delta: -0.1},
	{Phrase: "perhaps", Delta: -0.1},
	{Phrase: "possibly", Delta: -0.1},
	{Phrase: "not sure", Delta: -0.1},
}

// CompiledRule is a Rule with its regexp ready.
type CompiledRule struct {
	Rule
	Re *regexp.Regexp
}

// CompiledIndicator is an Indicator matched on word boundaries.
type CompiledIndicator struct {
	Indicator
	Re *regexp.Regexp
}

// Catalogue is the compiled pattern and indicator set used by the extractor.
type Catalogue struct {
	Rules      []CompiledRule
	Indicators []CompiledIndicator
}

// Compile builds a Catalogue. Rules whose pattern fails to compile or whose
// type is unknown are returned as errors alongside the usable catalogue.
func Compile(rules []Rule, indicators []Indicator) (*Catalogue, []error) {
	c := &Catalogue{}
	var errs []error
	for _, r := range rules {
		if !r.Type.Valid() {
			errs = append(errs, &RuleError{Rule: r, Reason: "unknown pattern type"})
			continue
		}
		re, err := regexp.Compile(r.Regex)
		if err != nil {
			errs = append(errs, &RuleError{Rule: r, Reason: err.Error()})
			continue
		}
		c.Rules = append(c.Rules, CompiledRule{Rule: r, Re: re})
	}
	for _, ind := range indicators {
		re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(ind.Phrase) + `\b`)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		c.Indicators = append(c.Indicators, CompiledIndicator{Indicator: ind, Re: re})
	}
	return c, errs
}

// DefaultCatalogue compiles DefaultRules and DefaultIndicators. The built-in
// tables always compile, so a failure here is a programming error.
func DefaultCatalogue() *Catalogue {
	c, errs := Compile(DefaultRules, DefaultIndicators)
	if len(errs) > 0 {
		panic(errs[0])
	}
	return c
}

// RuleError reports a catalogue entry that could not be used.
type RuleError struct {
	Rule   Rule
	Reason string
}

func (e *RuleError) Error() string {
	return "decision rule " + e.Rule.Family + " " + e.Rule.Regex + ": " + e.Reason
}
