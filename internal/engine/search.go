package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lazypower/verdict/internal/decision"
)

// Relevance tiers.
const (
	tierHead      = 2.0
	tierRationale = 1.0
	tierOther     = 0.5
)

// Supersedence penalties.
const (
	penaltyActive     = 1.0
	penaltySuperseded = 0.1
)

// Packed item kinds.
const (
	KindHeader   = "header"
	KindDecision = "decision"
	KindContent  = "content"
)

// SearchOpts controls search behavior.
type SearchOpts struct {
	Limit             int    // max decisions (default 10)
	SessionID         string // filter by session (empty = all)
	IncludeSuperseded bool
	// Extra is caller-supplied non-decision content, packed after the
	// decisions only when they leave room under Limit.
	Extra []string
}

func (o SearchOpts) limit() int {
	if o.Limit <= 0 {
		return 10
	}
	return o.Limit
}

// ScoredDecision is a decision annotated with its ranking components.
type ScoredDecision struct {
	decision.Decision
	Relevance  float64 `json:"relevance"`
	Penalty    float64 `json:"penalty"`
	FinalScore float64 `json:"final_score"`
}

// PackedItem is one entry of the decision-first packed result.
type PackedItem struct {
	Kind  string  `json:"kind"`
	Text  string  `json:"text"`
	Key   string  `json:"key,omitempty"`
	Score float64 `json:"score,omitempty"`
	Count int     `json:"count,omitempty"`
}

// SearchResponse is the read-path result.
type SearchResponse struct {
	Decisions     []ScoredDecision `json:"decisions"`
	PackedContent []PackedItem     `json:"packed_content"`
}

// RelevanceTier scores where query appears in d: 2.0 in the head, 1.0 only
// in the rationale, 0.5 otherwise.
func RelevanceTier(query string, d decision.Decision) float64 {
	q := strings.ToLower(query)
	switch {
	case strings.Contains(strings.ToLower(d.Head), q):
		return tierHead
	case strings.Contains(strings.ToLower(d.Rationale), q):
		return tierRationale
	default:
		return tierOther
	}
}

// SupersedencePenalty is 0.1 for superseded decisions and 1.0 otherwise.
func SupersedencePenalty(d decision.Decision) float64 {
	if d.Superseded {
		return penaltySuperseded
	}
	return penaltyActive
}

// Rank scores every decision as relevance * penalty * confidence and sorts
// by score descending, newest first on ties.
func Rank(query string, ds []decision.Decision) []ScoredDecision {
	scored := make([]ScoredDecision, 0, len(ds))
	for _, d := range ds {
		rel := RelevanceTier(query, d)
		pen := SupersedencePenalty(d)
		scored = append(scored, ScoredDecision{
			Decision:   d,
			Relevance:  rel,
			Penalty:    pen,
			FinalScore: rel * pen * d.Confidence,
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].FinalScore != scored[j].FinalScore {
			return scored[i].FinalScore > scored[j].FinalScore
		}
		return scored[i].Timestamp.After(scored[j].Timestamp)
	})
	return scored
}

// Pack keeps the top limit ranked decisions and lays them out decision-first:
// a header carrying the decision count, one item per decision, then extra
// content only while slots under limit remain.
func Pack(ranked []ScoredDecision, limit int, extra []string) SearchResponse {
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	resp := SearchResponse{
		Decisions:     ranked,
		PackedContent: make([]PackedItem, 0, len(ranked)+1),
	}
	if len(ranked) > 0 {
		resp.PackedContent = append(resp.PackedContent, PackedItem{
			Kind:  KindHeader,
			Text:  fmt.Sprintf("Decisions (%d)", len(ranked)),
			Count: len(ranked),
		})
	}
	for _, d := range ranked {
		text := d.Head
		if d.Superseded {
			text += " [superseded]"
		}
		resp.PackedContent = append(resp.PackedContent, PackedItem{
			Kind:  KindDecision,
			Text:  text,
			Key:   d.Key,
			Score: d.FinalScore,
		})
	}

	room := limit - len(ranked)
	for i := 0; i < len(extra) && i < room; i++ {
		resp.PackedContent = append(resp.PackedContent, PackedItem{Kind: KindContent, Text: extra[i]})
	}
	return resp
}
