package store

import (
	"context"
	"fmt"
	"time"

	"github.com/lazypower/verdict/internal/decision"
)

// Supersede marks supersededKey as superseded by supersedingKey and appends
// the audit record in the same transaction, so neither can exist without the
// other. It returns false without writing anything when the decision is
// missing or already superseded.
func (db *DB) Supersede(ctx context.Context, supersededKey, supersedingKey string) (bool, error) {
	if supersededKey == supersedingKey {
		return false, fmt.Errorf("supersede %s: a decision cannot supersede itself", supersededKey)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin supersede: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UnixMilli()
	res, err := tx.ExecContext(ctx, `
		UPDATE decisions SET superseded = 1, updated_at = ?
		WHERE key = ? AND superseded = 0
	`, now, supersededKey)
	if err != nil {
		return false, fmt.Errorf("mark superseded %s: %w", supersededKey, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark superseded %s: %w", supersededKey, err)
	}
	if n == 0 {
		return false, nil
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO supersedence_log (superseded_key, superseding_key, created_at)
		VALUES (?, ?, ?)
	`, supersededKey, supersedingKey, now); err != nil {
		return false, fmt.Errorf("append supersedence %s -> %s: %w", supersededKey, supersedingKey, err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit supersede: %w", err)
	}
	return true, nil
}

// History returns every supersedence record naming key on either side,
// oldest first.
func (db *DB) History(ctx context.Context, key string) ([]decision.SupersedenceRecord, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, superseded_key, superseding_key, created_at
		FROM supersedence_log
		WHERE superseded_key = ? OR superseding_key = ?
		ORDER BY id ASC
	`, key, key)
	if err != nil {
		return nil, fmt.Errorf("history %s: %w", key, err)
	}
	defer rows.Close()

	var out []decision.SupersedenceRecord
	for rows.Next() {
		var r decision.SupersedenceRecord
		var createdAt int64
		if err := rows.Scan(&r.ID, &r.SupersededKey, &r.SupersedingKey, &createdAt); err != nil {
			return nil, fmt.Errorf("scan supersedence: %w", err)
		}
		r.Timestamp = time.UnixMilli(createdAt)
		out = append(out, r)
	}
	return out, rows.Err()
}
