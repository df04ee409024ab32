package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lazypower/verdict/internal/decision"
)

const decisionColumns = `key, head, rationale, confidence, pattern_type, session_id, role,
	source_text, superseded, created_at, updated_at`

// DecisionQuery filters QueryDecisions. An empty Text matches every row.
type DecisionQuery struct {
	Text              string // case-insensitive substring of head or rationale
	SessionID         string
	IncludeSuperseded bool
	Limit             int // 0 = unlimited
}

// UpsertDecision inserts a decision or, when the key already exists, updates
// its content in place. The original creation time and the superseded flag
// are preserved on update; both are written back into d.
func (db *DB) UpsertDecision(ctx context.Context, d *decision.Decision) error {
	if d.Key == "" {
		return fmt.Errorf("upsert decision: empty key")
	}
	now := time.Now().UnixMilli()
	created := now
	if !d.Timestamp.IsZero() {
		created = d.Timestamp.UnixMilli()
	}

	var createdAt int64
	var superseded int
	err := db.QueryRowContext(ctx, `
		INSERT INTO decisions (`+decisionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			head = excluded.head,
			rationale = excluded.rationale,
			confidence = excluded.confidence,
			pattern_type = excluded.pattern_type,
			session_id = excluded.session_id,
			role = excluded.role,
			source_text = excluded.source_text,
			updated_at = excluded.updated_at
		RETURNING created_at, superseded
	`, d.Key, d.Head, d.Rationale, decision.ClampConfidence(d.Confidence), string(d.PatternType),
		d.SessionID, d.Role, d.SourceText, created, now).Scan(&createdAt, &superseded)
	if err != nil {
		return fmt.Errorf("upsert decision %s: %w", d.Key, err)
	}

	d.Confidence = decision.ClampConfidence(d.Confidence)
	d.Timestamp = time.UnixMilli(createdAt)
	d.UpdatedAt = time.UnixMilli(now)
	d.Superseded = superseded != 0
	return nil
}

// GetDecision returns the decision with the given key, or nil if not found.
func (db *DB) GetDecision(ctx context.Context, key string) (*decision.Decision, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+decisionColumns+` FROM decisions WHERE key = ?`, key)
	if err != nil {
		return nil, fmt.Errorf("get decision: %w", err)
	}
	defer rows.Close()

	ds, err := scanDecisions(rows)
	if err != nil {
		return nil, fmt.Errorf("get decision: %w", err)
	}
	if len(ds) == 0 {
		return nil, nil
	}
	return &ds[0], nil
}

// FindActiveByTerm returns active decisions whose head or rationale contains
// term (case-insensitive), excluding excludeKey.
func (db *DB) FindActiveByTerm(ctx context.Context, term, excludeKey string) ([]decision.Decision, error) {
	term = fold(term)
	rows, err := db.QueryContext(ctx, `
		SELECT `+decisionColumns+` FROM decisions
		WHERE superseded = 0 AND key != ?
			AND (instr(`+foldFunc+`(head), ?) > 0 OR instr(`+foldFunc+`(rationale), ?) > 0)
		ORDER BY confidence DESC, created_at DESC
	`, excludeKey, term, term)
	if err != nil {
		return nil, fmt.Errorf("find active by term %q: %w", term, err)
	}
	defer rows.Close()

	return scanDecisions(rows)
}

// QueryDecisions returns decisions matching q, ordered by confidence then
// creation time, both descending.
func (db *DB) QueryDecisions(ctx context.Context, q DecisionQuery) ([]decision.Decision, error) {
	var where []string
	var args []any

	if q.Text != "" {
		text := fold(q.Text)
		where = append(where, "(instr("+foldFunc+"(head), ?) > 0 OR instr("+foldFunc+"(rationale), ?) > 0)")
		args = append(args, text, text)
	}
	if q.SessionID != "" {
		where = append(where, "session_id = ?")
		args = append(args, q.SessionID)
	}
	if !q.IncludeSuperseded {
		where = append(where, "superseded = 0")
	}

	query := `SELECT ` + decisionColumns + ` FROM decisions`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY confidence DESC, created_at DESC"
	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query decisions: %w", err)
	}
	defer rows.Close()

	return scanDecisions(rows)
}

// Stats summarizes the decision log.
type Stats struct {
	Decisions     int `json:"decisions"`
	Active        int `json:"active"`
	Superseded    int `json:"superseded"`
	Supersedences int `json:"supersedences"`
}

// Stats returns row counts for the decision log and audit log.
func (db *DB) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	err := db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(superseded = 0), 0), COALESCE(SUM(superseded = 1), 0),
			(SELECT COUNT(*) FROM supersedence_log)
		FROM decisions
	`).Scan(&s.Decisions, &s.Active, &s.Superseded, &s.Supersedences)
	if err != nil {
		return Stats{}, fmt.Errorf("stats: %w", err)
	}
	return s, nil
}

func scanDecisions(rows *sql.Rows) ([]decision.Decision, error) {
	var out []decision.Decision
	for rows.Next() {
		var d decision.Decision
		var patternType string
		var superseded int
		var createdAt, updatedAt int64
		if err := rows.Scan(&d.Key, &d.Head, &d.Rationale, &d.Confidence, &patternType,
			&d.SessionID, &d.Role, &d.SourceText, &superseded, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		d.PatternType = decision.PatternType(patternType)
		d.Superseded = superseded != 0
		d.Timestamp = time.UnixMilli(createdAt)
		d.UpdatedAt = time.UnixMilli(updatedAt)
		out = append(out, d)
	}
	return out, rows.Err()
}
