package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/lazypower/verdict/internal/decision"
)

func TestDetectConflictNegatedUse(t *testing.T) {
	db := testDB(t)
	existing := seed(t, db, "use PostgreSQL for storage", "s", 0.8)
	incoming := seed(t, db, "don't use PostgreSQL, use MongoDB instead", "s", 0.8)

	det := NewConflictDetector(db, nil, 2, zaptest.NewLogger(t))
	got := det.Detect(context.Background(), incoming)

	require.Len(t, got, 1)
	assert.Equal(t, existing.Key, got[0].Existing.Key)
	assert.Equal(t, []string{"use", "postgresql"}, got[0].SharedTerms)
	assert.Equal(t, "use", got[0].Antonym.A)
}

func TestDetectRequiresTwoSharedTerms(t *testing.T) {
	db := testDB(t)
	seed(t, db, "enable verbose logging in staging", "s", 0.8)
	incoming := seed(t, db, "disable caching for the API", "s", 0.9)

	det := NewConflictDetector(db, nil, 2, nil)
	assert.Empty(t, det.Detect(context.Background(), incoming),
		"antonym without two shared terms is not a conflict")
}

func TestDetectRequiresAntonym(t *testing.T) {
	db := testDB(t)
	seed(t, db, "use PostgreSQL for storage", "s", 0.8)
	incoming := seed(t, db, "use PostgreSQL for analytics storage", "s", 0.9)

	det := NewConflictDetector(db, nil, 2, nil)
	assert.Empty(t, det.Detect(context.Background(), incoming),
		"shared terms without an antonym pair is not a conflict")
}

func TestDetectIgnoresSuperseded(t *testing.T) {
	db := testDB(t)
	old := seed(t, db, "enable caching for the API", "s", 0.5)
	winner := seed(t, db, "disable caching for the API gateway", "s", 0.9)
	_, err := db.Supersede(context.Background(), old.Key, winner.Key)
	require.NoError(t, err)

	incoming := seed(t, db, "disable caching for the API layer", "s", 0.95)
	det := NewConflictDetector(db, nil, 2, nil)
	for _, c := range det.Detect(context.Background(), incoming) {
		assert.NotEqual(t, old.Key, c.Existing.Key)
	}
}

func TestDetectExcludesSelf(t *testing.T) {
	db := testDB(t)
	d := seed(t, db, "don't use PostgreSQL, use PostgreSQL replicas", "s", 0.8)

	det := NewConflictDetector(db, nil, 2, nil)
	assert.Empty(t, det.Detect(context.Background(), d))
}

func TestDetectDedupesAcrossTerms(t *testing.T) {
	db := testDB(t)
	seed(t, db, "enable request caching for the gateway", "s", 0.5)
	incoming := seed(t, db, "disable request caching for the gateway", "s", 0.9)

	det := NewConflictDetector(db, nil, 4, nil)
	got := det.Detect(context.Background(), incoming)
	assert.Len(t, got, 1, "candidate matched by several terms is reported once")
}

func TestDetectSkipsFailedSubQuery(t *testing.T) {
	db := testDB(t)
	existing := seed(t, db, "use PostgreSQL for storage", "s", 0.8)
	incoming := seed(t, db, "don't use PostgreSQL, use MongoDB instead", "s", 0.9)

	flaky := &flakyStore{DB: db, failTerms: map[string]bool{"mongodb": true}}
	det := NewConflictDetector(flaky, nil, 2, zaptest.NewLogger(t))
	got := det.Detect(context.Background(), incoming)

	require.Len(t, got, 1)
	assert.Equal(t, existing.Key, got[0].Existing.Key)
	assert.Equal(t, 3, flaky.termCalls)
}

func TestDetectAllSubQueriesFail(t *testing.T) {
	db := testDB(t)
	seed(t, db, "use PostgreSQL for storage", "s", 0.8)
	incoming := seed(t, db, "don't use PostgreSQL, use MongoDB instead", "s", 0.9)

	flaky := &flakyStore{DB: db, failTerms: map[string]bool{"use": true, "postgresql": true, "mongodb": true}}
	det := NewConflictDetector(flaky, nil, 1, nil)
	assert.Empty(t, det.Detect(context.Background(), incoming))
}

func TestDetectTooFewTerms(t *testing.T) {
	db := testDB(t)
	flaky := &flakyStore{DB: db}
	det := NewConflictDetector(flaky, nil, 1, nil)

	d := decision.Decision{Key: "k", Head: "use Go"}
	assert.Empty(t, det.Detect(context.Background(), d))
	assert.Zero(t, flaky.termCalls, "no sub-queries when two shared terms are impossible")
}
