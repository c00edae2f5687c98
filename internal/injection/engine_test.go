package injection

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/recalld/internal/collections"
	"github.com/fyrsmithlabs/recalld/internal/config"
	"github.com/fyrsmithlabs/recalld/internal/retrieval"
	"github.com/fyrsmithlabs/recalld/internal/router"
	"github.com/fyrsmithlabs/recalld/internal/session"
)

// fakeSearcher serves canned results per partition.
type fakeSearcher struct {
	byPartition map[collections.Partition][]retrieval.Result
	err         error
}

func (f *fakeSearcher) Search(_ context.Context, q retrieval.Query) ([]retrieval.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.byPartition[q.Partition], nil
}

// fakeEmbedder returns a fixed vector.
type fakeEmbedder struct {
	vector []float32
	err    error
}

func (f *fakeEmbedder) EmbedQuery(context.Context, string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.vector, nil
}

func newTestEngine(t *testing.T, searcher retrieval.Searcher, embedder retrieval.Embedder) (*Engine, *session.Store) {
	t.Helper()
	store := session.NewStore(t.TempDir(), nil)
	engine, err := NewEngine(
		config.NewDefaultConfig().Injection,
		store,
		searcher,
		embedder,
		charCounter{},
		router.New(nil, nil),
		nil,
		nil,
	)
	require.NoError(t, err)
	return engine, store
}

func TestNewEngine_InvalidConfigIsFatal(t *testing.T) {
	cfg := config.NewDefaultConfig().Injection
	cfg.BudgetFloor = cfg.BudgetCeiling + 1

	_, err := NewEngine(cfg, session.NewStore(t.TempDir(), nil), &fakeSearcher{}, nil, charCounter{}, nil, nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestBootstrap_MergesBucketsByScore(t *testing.T) {
	searcher := &fakeSearcher{byPartition: map[collections.Partition][]retrieval.Result{
		collections.PartitionConventions: {
			{ID: "conv-1", Score: 0.60, Content: "convention text", Type: "convention", Collection: "org_conventions"},
		},
		collections.PartitionDiscussions: {
			{ID: "dec-1", Score: 0.90, Content: "decision text", Type: "decision", Collection: "acme_discussions"},
		},
		collections.PartitionSessions: {
			{ID: "task-1", Score: 0.75, Content: "handoff text", Type: "handoff", Collection: "acme_sessions"},
		},
	}}

	engine, store := newTestEngine(t, searcher, nil)
	block := engine.Bootstrap(context.Background(), "sess-1", "acme")

	require.NotEmpty(t, block)
	// Highest score first regardless of bucket order.
	assert.Regexp(t, `(?s)decision text.*handoff text.*convention text`, block)

	state := store.Load("sess-1")
	assert.True(t, state.WasInjected("dec-1"))
	assert.True(t, state.WasInjected("task-1"))
	assert.True(t, state.WasInjected("conv-1"))
	assert.Positive(t, state.TotalTokensInjected)
	assert.Equal(t, 0, state.TurnCount)
}

func TestBootstrap_RetrievalFailureDegradesToEmpty(t *testing.T) {
	engine, _ := newTestEngine(t, &fakeSearcher{err: errors.New("qdrant down")}, nil)

	block := engine.Bootstrap(context.Background(), "sess-1", "acme")
	assert.Equal(t, "", block)
}

func TestInjectForPrompt_RoutesAndInjects(t *testing.T) {
	searcher := &fakeSearcher{byPartition: map[collections.Partition][]retrieval.Result{
		collections.PartitionDiscussions: {
			{ID: "dec-1", Score: 0.88, Content: "We picked Postgres.", Type: "decision", Collection: "acme_discussions"},
		},
	}}

	engine, store := newTestEngine(t, searcher, &fakeEmbedder{vector: []float32{1, 0}})

	block := engine.InjectForPrompt(context.Background(), "sess-1", "acme", "Why did we choose Postgres over MySQL?")
	require.NotEmpty(t, block)
	assert.Contains(t, block, "We picked Postgres.")

	state := store.Load("sess-1")
	assert.True(t, state.WasInjected("dec-1"))
	assert.Equal(t, 1, state.TurnCount)
	assert.Equal(t, []float32{1, 0}, state.LastQueryVector)
	// First turn has no previous vector: neutral drift.
	assert.InDelta(t, session.NeutralDrift, state.TopicDrift, 1e-9)
}

func TestInjectForPrompt_DeduplicatesAcrossTurns(t *testing.T) {
	searcher := &fakeSearcher{byPartition: map[collections.Partition][]retrieval.Result{
		collections.PartitionDiscussions: {
			{ID: "dec-1", Score: 0.88, Content: "We picked Postgres.", Type: "decision"},
		},
	}}

	engine, _ := newTestEngine(t, searcher, &fakeEmbedder{vector: []float32{1, 0}})

	first := engine.InjectForPrompt(context.Background(), "sess-1", "acme", "why did we choose postgres")
	require.NotEmpty(t, first)

	// Same candidate again: already shown, nothing left to inject.
	second := engine.InjectForPrompt(context.Background(), "sess-1", "acme", "why did we choose postgres")
	assert.Equal(t, "", second)
}

func TestInjectForPrompt_LowConfidenceSkips(t *testing.T) {
	searcher := &fakeSearcher{byPartition: map[collections.Partition][]retrieval.Result{
		collections.PartitionDiscussions: {
			{ID: "weak", Score: 0.10, Content: "barely related"},
		},
	}}

	engine, store := newTestEngine(t, searcher, &fakeEmbedder{vector: []float32{1, 0}})

	block := engine.InjectForPrompt(context.Background(), "sess-1", "acme", "why did we choose postgres")
	assert.Equal(t, "", block)

	// State still advances on a skipped turn.
	state := store.Load("sess-1")
	assert.Equal(t, 1, state.TurnCount)
	assert.False(t, state.WasInjected("weak"))
}

func TestInjectForPrompt_NoResults(t *testing.T) {
	engine, _ := newTestEngine(t, &fakeSearcher{}, &fakeEmbedder{vector: []float32{1, 0}})

	block := engine.InjectForPrompt(context.Background(), "sess-1", "acme", "why did we choose postgres")
	assert.Equal(t, "", block)
}

func TestInjectForPrompt_DriftAcrossTurns(t *testing.T) {
	searcher := &fakeSearcher{byPartition: map[collections.Partition][]retrieval.Result{}}
	embedder := &fakeEmbedder{vector: []float32{1, 0}}
	engine, store := newTestEngine(t, searcher, embedder)

	engine.InjectForPrompt(context.Background(), "sess-1", "acme", "why did we choose postgres")

	// Same embedding next turn: zero drift.
	engine.InjectForPrompt(context.Background(), "sess-1", "acme", "why did we choose postgres again")
	assert.InDelta(t, 0.0, store.Load("sess-1").TopicDrift, 1e-6)

	// Orthogonal embedding: full drift.
	embedder.vector = []float32{0, 1}
	engine.InjectForPrompt(context.Background(), "sess-1", "acme", "completely new topic why")
	assert.InDelta(t, 1.0, store.Load("sess-1").TopicDrift, 1e-6)
}

func TestInjectForPrompt_EmbeddingFailureKeepsPreviousDrift(t *testing.T) {
	searcher := &fakeSearcher{byPartition: map[collections.Partition][]retrieval.Result{}}
	engine, store := newTestEngine(t, searcher, &fakeEmbedder{err: errors.New("embedder down")})

	engine.InjectForPrompt(context.Background(), "sess-1", "acme", "why did we choose postgres")

	state := store.Load("sess-1")
	assert.InDelta(t, session.NeutralDrift, state.TopicDrift, 1e-9)
	assert.Nil(t, state.LastQueryVector)
	assert.Equal(t, 1, state.TurnCount)
}

func TestHandleCompact_AllowsReinjection(t *testing.T) {
	searcher := &fakeSearcher{byPartition: map[collections.Partition][]retrieval.Result{
		collections.PartitionDiscussions: {
			{ID: "dec-1", Score: 0.88, Content: "We picked Postgres.", Type: "decision"},
		},
	}}

	engine, store := newTestEngine(t, searcher, &fakeEmbedder{vector: []float32{1, 0}})

	require.NotEmpty(t, engine.InjectForPrompt(context.Background(), "sess-1", "acme", "why did we choose postgres"))
	assert.Equal(t, "", engine.InjectForPrompt(context.Background(), "sess-1", "acme", "why did we choose postgres"))

	engine.HandleCompact(context.Background(), "sess-1")

	state := store.Load("sess-1")
	assert.Empty(t, state.InjectedIDs)
	assert.Equal(t, 2, state.TurnCount)

	// The compacted window no longer contains the text, so it may be
	// injected again.
	require.NotEmpty(t, engine.InjectForPrompt(context.Background(), "sess-1", "acme", "why did we choose postgres"))
}
