package engine

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lazypower/verdict/internal/decision"
)

// minSharedTerms is the key-term overlap two decisions need before antonym
// evidence is even considered.
const minSharedTerms = 2

// Conflict is an existing active decision judged to contradict a new one.
type Conflict struct {
	Existing    decision.Decision
	SharedTerms []string
	Antonym     decision.Antonym
}

// ConflictDetector finds active decisions that contradict a given decision.
// Detection is best-effort: a failed candidate sub-query is logged and
// skipped rather than failing the caller.
type ConflictDetector struct {
	store    Store
	antonyms *decision.AntonymMatcher
	workers  int
	logger   *zap.Logger
}

// NewConflictDetector creates a detector. workers bounds the number of
// concurrent candidate sub-queries (minimum 1).
func NewConflictDetector(s Store, antonyms []decision.Antonym, workers int, logger *zap.Logger) *ConflictDetector {
	if antonyms == nil {
		antonyms = decision.DefaultAntonyms
	}
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConflictDetector{
		store:    s,
		antonyms: decision.NewAntonymMatcher(antonyms),
		workers:  workers,
		logger:   logger,
	}
}

// Detect returns the active decisions that conflict with d: those sharing at
// least two key terms with d and carrying an antonym pair across the two heads.
func (c *ConflictDetector) Detect(ctx context.Context, d decision.Decision) []Conflict {
	terms := decision.KeyTerms(d.Head)
	if len(terms) < minSharedTerms {
		return nil
	}

	// One slot per term keeps the union in term order regardless of which
	// sub-query finishes first.
	results := make([][]decision.Decision, len(terms))
	var g errgroup.Group
	g.SetLimit(c.workers)
	for i, term := range terms {
		g.Go(func() error {
			rows, err := c.store.FindActiveByTerm(ctx, term, d.Key)
			if err != nil {
				conflictQueryFailures.Inc()
				c.logger.Warn("conflict: candidate query failed",
					zap.String("key", d.Key),
					zap.String("term", term),
					zap.Error(err))
				return nil
			}
			results[i] = rows
			return nil
		})
	}
	_ = g.Wait()

	seen := make(map[string]bool)
	var conflicts []Conflict
	for _, rows := range results {
		for _, cand := range rows {
			if seen[cand.Key] || cand.Key == d.Key || cand.Superseded {
				continue
			}
			seen[cand.Key] = true

			shared := decision.SharedTerms(terms, decision.KeyTerms(cand.Head))
			if len(shared) < minSharedTerms {
				continue
			}
			ant, ok := c.antonyms.Find(d.Head, cand.Head)
			if !ok {
				continue
			}

			conflictsDetected.Inc()
			c.logger.Debug("conflict: confirmed",
				zap.String("key", d.Key),
				zap.String("existing", cand.Key),
				zap.Strings("shared_terms", shared),
				zap.String("antonym", ant.A+"/"+ant.B))
			conflicts = append(conflicts, Conflict{
				Existing:    cand,
				SharedTerms: shared,
				Antonym:     ant,
			})
		}
	}
	return conflicts
}
