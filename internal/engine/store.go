package engine

import (
	"context"

	"github.com/lazypower/verdict/internal/decision"
	"github.com/lazypower/verdict/internal/store"
)

// Store is the decision store and audit log the engine runs against.
// *store.DB implements it.
type Store interface {
	UpsertDecision(ctx context.Context, d *decision.Decision) error
	GetDecision(ctx context.Context, key string) (*decision.Decision, error)
	FindActiveByTerm(ctx context.Context, term, excludeKey string) ([]decision.Decision, error)
	QueryDecisions(ctx context.Context, q store.DecisionQuery) ([]decision.Decision, error)
	Supersede(ctx context.Context, supersededKey, supersedingKey string) (bool, error)
}

var _ Store = (*store.DB)(nil)
