package engine

import (
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/lazypower/verdict/internal/decision"
)

// rationaleRadius is how far either side of a match the rationale reaches.
const rationaleRadius = 100

// Extractor turns free text into candidate decisions. It is a pure function
// of its input; persistence is the caller's job.
type Extractor struct {
	catalogue *decision.Catalogue
	logger    *zap.Logger
	now       func() time.Time
}

// NewExtractor creates an Extractor over the given catalogue. A nil catalogue
// uses decision.DefaultCatalogue().
func NewExtractor(catalogue *decision.Catalogue, logger *zap.Logger) *Extractor {
	if catalogue == nil {
		catalogue = decision.DefaultCatalogue()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{catalogue: catalogue, logger: logger, now: time.Now}
}

// Extract applies every rule in the catalogue to text. Each match yields one
// candidate; matches whose head falls outside the length bounds are dropped.
// Empty text yields no candidates.
func (x *Extractor) Extract(text, sessionID, role string) []decision.Decision {
	text = strings.TrimSpace(decision.NormalizeText(text))
	if text == "" {
		return nil
	}

	adjust := x.indicatorAdjustment(text)
	source := truncateRunes(text, decision.MaxSourceChars)
	now := x.now()

	var out []decision.Decision
	for _, rule := range x.catalogue.Rules {
		for _, m := range rule.Re.FindAllStringSubmatchIndex(text, -1) {
			head := cleanHead(string(rule.Re.ExpandString(nil, rule.Template, text, m)))
			if err := validateHead(head); err != nil {
				x.logger.Debug("extract: skipping candidate",
					zap.String("family", rule.Family),
					zap.String("head", truncateRunes(head, 80)),
					zap.Error(err))
				continue
			}

			out = append(out, decision.Decision{
				Key:         decision.DeriveKey(head, sessionID),
				Head:        head,
				Rationale:   truncateRunes(collapseWhitespace(window(text, m[0], m[1], rationaleRadius)), decision.MaxRationaleChars),
				Confidence:  confidenceFor(rule.Type, adjust),
				PatternType: rule.Type,
				SessionID:   sessionID,
				Role:        role,
				SourceText:  source,
				Timestamp:   now,
			})
			decisionsExtracted.WithLabelValues(string(rule.Type)).Inc()
		}
	}
	return out
}

// indicatorAdjustment sums the deltas of every indicator phrase present in
// text. Each phrase counts once regardless of repetitions.
func (x *Extractor) indicatorAdjustment(text string) float64 {
	var adj float64
	for _, ind := range x.catalogue.Indicators {
		if ind.Re.MatchString(text) {
			adj += ind.Delta
		}
	}
	return adj
}

// confidenceFor returns the clamped confidence for a pattern type after the
// indicator adjustment, rounded to two decimals.
func confidenceFor(t decision.PatternType, adjust float64) float64 {
	c := decision.BaseConfidence[t] + adjust
	c = math.Round(c*100) / 100
	return decision.ClampConfidence(c)
}
