package engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/lazypower/verdict/internal/decision"
)

// Resolver applies confidence-based supersedence to confirmed conflicts.
type Resolver struct {
	store  Store
	logger *zap.Logger
}

// NewResolver creates a Resolver.
func NewResolver(s Store, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{store: s, logger: logger}
}

// Resolve supersedes every conflicting decision whose confidence is strictly
// below incoming's. Ties and stronger existing decisions are left alone, and
// incoming itself is never superseded here. It returns the keys that were
// superseded by this call.
func (r *Resolver) Resolve(ctx context.Context, incoming decision.Decision, conflicts []Conflict) ([]string, error) {
	if incoming.Superseded {
		return nil, nil
	}

	var superseded []string
	for _, c := range conflicts {
		existing := c.Existing
		if existing.Superseded || existing.Key == incoming.Key {
			continue
		}
		if existing.Confidence >= incoming.Confidence {
			r.logger.Debug("resolve: existing decision holds",
				zap.String("key", incoming.Key),
				zap.String("existing", existing.Key),
				zap.Float64("confidence", incoming.Confidence),
				zap.Float64("existing_confidence", existing.Confidence))
			continue
		}

		ok, err := r.store.Supersede(ctx, existing.Key, incoming.Key)
		if err != nil {
			return superseded, fmt.Errorf("supersede %s by %s: %w", existing.Key, incoming.Key, err)
		}
		if !ok {
			continue
		}

		supersedences.Inc()
		r.logger.Info("resolve: decision superseded",
			zap.String("superseded_key", existing.Key),
			zap.String("superseding_key", incoming.Key),
			zap.Float64("superseded_confidence", existing.Confidence),
			zap.Float64("superseding_confidence", incoming.Confidence))
		superseded = append(superseded, existing.Key)
	}
	return superseded, nil
}
