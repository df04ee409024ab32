// Package decision holds the decision log's data model and the pure text
// utilities shared by extraction and conflict detection: stable key
// derivation, key-term extraction, the pattern catalogue and the antonym table.
package decision

import "time"

// PatternType identifies which pattern family produced a decision.
type PatternType string

const (
	Explicit   PatternType = "explicit"
	Implicit   PatternType = "implicit"
	Comparison PatternType = "comparison"
	Technical  PatternType = "technical"
)

// Valid reports whether t is one of the four known pattern types.
func (t PatternType) Valid() bool {
	switch t {
	case Explicit, Implicit, Comparison, Technical:
		return true
	}
	return false
}

// Field limits.
const (
	MinHeadChars      = 5
	MaxHeadChars      = 500
	MaxRationaleChars = 300
	MaxSourceChars    = 200

	MinConfidence = 0.1
	MaxConfidence = 1.0
)

// Decision is a keyed claim extracted from text.
type Decision struct {
	Key         string      `json:"key"`
	Head        string      `json:"head"`
	Rationale   string      `json:"rationale"`
	Confidence  float64     `json:"confidence"`
	PatternType PatternType `json:"pattern_type"`
	SessionID   string      `json:"session_id"`
	Role        string      `json:"role"`
	SourceText  string      `json:"source_text"`
	Superseded  bool        `json:"superseded"`
	Timestamp   time.Time   `json:"timestamp"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// SupersedenceRecord is one append-only audit entry: SupersededKey stopped
// being authoritative because SupersedingKey was recorded.
type SupersedenceRecord struct {
	ID             int64     `json:"id"`
	SupersededKey  string    `json:"superseded_key"`
	SupersedingKey string    `json:"superseding_key"`
	Timestamp      time.Time `json:"timestamp"`
}

// ClampConfidence forces c into [MinConfidence, MaxConfidence].
func ClampConfidence(c float64) float64 {
	if c < MinConfidence {
		return MinConfidence
	}
	if c > MaxConfidence {
		return MaxConfidence
	}
	return c
}
