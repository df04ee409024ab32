package engine

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lazypower/verdict/internal/decision"
	"github.com/lazypower/verdict/internal/store"
)

var errStoreDown = errors.New("store down")

func testDB(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// seed stores a decision built from head with the given confidence.
func seed(t *testing.T, s Store, head, session string, conf float64) decision.Decision {
	t.Helper()
	d := decision.Decision{
		Key:         decision.DeriveKey(head, session),
		Head:        head,
		Rationale:   head,
		Confidence:  conf,
		PatternType: decision.Explicit,
		SessionID:   session,
		Role:        "user",
		SourceText:  head,
	}
	require.NoError(t, s.UpsertDecision(context.Background(), &d))
	return d
}

// flakyStore wraps a real store and fails selected operations.
type flakyStore struct {
	*store.DB

	mu            sync.Mutex
	failTerms     map[string]bool
	failUpsert    bool
	failQuery     bool
	failSupersede bool
	termCalls     int
}

func (f *flakyStore) FindActiveByTerm(ctx context.Context, term, excludeKey string) ([]decision.Decision, error) {
	f.mu.Lock()
	f.termCalls++
	fail := f.failTerms[term]
	f.mu.Unlock()
	if fail {
		return nil, errStoreDown
	}
	return f.DB.FindActiveByTerm(ctx, term, excludeKey)
}

func (f *flakyStore) UpsertDecision(ctx context.Context, d *decision.Decision) error {
	if f.failUpsert {
		return errStoreDown
	}
	return f.DB.UpsertDecision(ctx, d)
}

func (f *flakyStore) QueryDecisions(ctx context.Context, q store.DecisionQuery) ([]decision.Decision, error) {
	if f.failQuery {
		return nil, errStoreDown
	}
	return f.DB.QueryDecisions(ctx, q)
}

func (f *flakyStore) Supersede(ctx context.Context, a, b string) (bool, error) {
	if f.failSupersede {
		return false, errStoreDown
	}
	return f.DB.Supersede(ctx, a, b)
}
