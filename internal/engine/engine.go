package engine

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/lazypower/verdict/internal/decision"
	"github.com/lazypower/verdict/internal/store"
)

// Options configures an Engine. Zero values pick defaults.
type Options struct {
	Logger          *zap.Logger
	Catalogue       *decision.Catalogue
	Antonyms        []decision.Antonym
	ConflictWorkers int
	DefaultLimit    int // search limit when the caller gives none
	Cache           *SearchCache
}

// Engine runs the write path (extract, persist, detect conflicts, resolve)
// and the read path (rank and pack) against a shared store.
type Engine struct {
	Store     Store
	Extractor *Extractor
	Detector  *ConflictDetector
	Resolver  *Resolver

	cache        *SearchCache
	locks        *keyLocks
	defaultLimit int
	logger       *zap.Logger
}

// New creates a new Engine over s.
func New(s Store, opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	workers := opts.ConflictWorkers
	if workers <= 0 {
		workers = 4
	}
	return &Engine{
		Store:     s,
		Extractor: NewExtractor(opts.Catalogue, logger.Named("extract")),
		Detector:  NewConflictDetector(s, opts.Antonyms, workers, logger.Named("conflict")),
		Resolver:  NewResolver(s, logger.Named("resolve")),

		cache:        opts.Cache,
		locks:        newKeyLocks(),
		defaultLimit: opts.DefaultLimit,
		logger:       logger,
	}
}

// Process extracts decisions from text, persists them, and resolves conflicts
// against the existing log. It returns the keys of the decisions stored.
//
// Every failure wraps ErrNotRecorded. When all decisions were stored but
// resolution failed the error also wraps ErrResolutionPending, the returned
// keys are valid, and Resolve may be retried for each of them.
func (e *Engine) Process(ctx context.Context, text, sessionID, role string) ([]string, error) {
	candidates := dedupeByKey(e.Extractor.Extract(text, sessionID, role))
	if len(candidates) == 0 {
		return nil, nil
	}

	keys := make([]string, 0, len(candidates))
	for i := range candidates {
		if err := e.Store.UpsertDecision(ctx, &candidates[i]); err != nil {
			e.cache.Purge()
			return keys, fmt.Errorf("%w: %w", ErrNotRecorded, err)
		}
		keys = append(keys, candidates[i].Key)
	}
	e.cache.Purge()
	e.logger.Info("process: stored decisions",
		zap.String("session_id", sessionID),
		zap.String("role", role),
		zap.Int("count", len(keys)))

	for _, key := range keys {
		if _, err := e.Resolve(ctx, key); err != nil {
			return keys, fmt.Errorf("%w: %w: %w", ErrNotRecorded, ErrResolutionPending, err)
		}
	}
	return keys, nil
}

// Resolve runs conflict detection and supersedence for one stored decision
// and returns the keys it superseded. It is idempotent: already-superseded
// decisions are never considered again.
//
// Detection runs unlocked; the decision and every candidate are then locked
// together in key order and re-read, so concurrent passes over overlapping
// keys cannot supersede each other in a cycle.
func (e *Engine) Resolve(ctx context.Context, key string) ([]string, error) {
	d, err := e.Store.GetDecision(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	if d == nil || d.Superseded {
		return nil, nil
	}

	conflicts := e.Detector.Detect(ctx, *d)
	if len(conflicts) == 0 {
		return nil, nil
	}

	lockKeys := []string{key}
	for _, c := range conflicts {
		lockKeys = append(lockKeys, c.Existing.Key)
	}
	unlock := e.locks.Lock(lockKeys...)
	defer unlock()

	d, err = e.Store.GetDecision(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("reload %s: %w", key, err)
	}
	if d == nil || d.Superseded {
		return nil, nil
	}

	fresh := make([]Conflict, 0, len(conflicts))
	for _, c := range conflicts {
		cur, err := e.Store.GetDecision(ctx, c.Existing.Key)
		if err != nil {
			return nil, fmt.Errorf("reload %s: %w", c.Existing.Key, err)
		}
		if cur == nil || cur.Superseded {
			continue
		}
		c.Existing = *cur
		fresh = append(fresh, c)
	}

	superseded, err := e.Resolver.Resolve(ctx, *d, fresh)
	if len(superseded) > 0 {
		e.cache.Purge()
	}
	return superseded, err
}

// Search ranks decisions containing query and packs them decision-first.
// Every failure wraps ErrSearchUnavailable; no partial result is returned.
func (e *Engine) Search(ctx context.Context, query string, opts SearchOpts) (SearchResponse, error) {
	start := time.Now()
	defer func() { searchDuration.Observe(time.Since(start).Seconds()) }()

	if opts.Limit <= 0 {
		opts.Limit = e.defaultLimit
	}

	cacheKey := searchCacheKey(query, opts)
	if resp, ok := e.cache.get(cacheKey); ok {
		return resp, nil
	}
	gen := e.cache.generation()

	rows, err := e.Store.QueryDecisions(ctx, store.DecisionQuery{
		Text:              query,
		SessionID:         opts.SessionID,
		IncludeSuperseded: opts.IncludeSuperseded,
	})
	if err != nil {
		return SearchResponse{}, fmt.Errorf("%w: %w", ErrSearchUnavailable, err)
	}

	resp := Pack(Rank(query, rows), opts.limit(), opts.Extra)
	e.cache.add(cacheKey, resp, gen)
	return resp, nil
}

// dedupeByKey collapses candidates that derived the same key, keeping the
// highest-confidence one in its first position.
func dedupeByKey(ds []decision.Decision) []decision.Decision {
	idx := make(map[string]int, len(ds))
	out := make([]decision.Decision, 0, len(ds))
	for _, d := range ds {
		if i, ok := idx[d.Key]; ok {
			if d.Confidence > out[i].Confidence {
				out[i] = d
			}
			continue
		}
		idx[d.Key] = len(out)
		out = append(out, d)
	}
	return out
}
