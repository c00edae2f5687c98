package injection

import (
	"context"
	"errors"
	"sort"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fyrsmithlabs/recalld/internal/collections"
	"github.com/fyrsmithlabs/recalld/internal/config"
	"github.com/fyrsmithlabs/recalld/internal/retrieval"
	"github.com/fyrsmithlabs/recalld/internal/router"
	"github.com/fyrsmithlabs/recalld/internal/session"
)

const instrumentationName = "github.com/fyrsmithlabs/recalld/internal/injection"

// Hook triggers recorded in audit events.
const (
	triggerSessionStart = "session_start"
	triggerUserPrompt   = "user_prompt"
)

// tier1Buckets are the fixed bootstrap queries, in priority order. Tier 1
// deliberately has no adaptive budget so conversation startup stays
// deterministic.
var tier1Buckets = []retrieval.Query{
	{
		Text:      "project conventions and guidelines",
		Partition: collections.PartitionConventions,
		Limit:     5,
	},
	{
		Text:       "recent project decisions",
		Partition:  collections.PartitionDiscussions,
		Limit:      3,
		TypeFilter: "decision",
	},
	{
		Text:      "active task and handoff context",
		Partition: collections.PartitionSessions,
		Limit:     2,
	},
}

// Engine orchestrates both injection tiers over the session store, the
// router, and the external search collaborator.
type Engine struct {
	cfg      config.InjectionConfig
	store    *session.Store
	searcher retrieval.Searcher
	embedder retrieval.Embedder
	counter  retrieval.Counter
	router   *router.Router
	audit    *AuditLogger
	logger   *zap.Logger

	tracer          trace.Tracer
	injectedCounter metric.Int64Counter
	tokensCounter   metric.Int64Counter
	skipCounter     metric.Int64Counter
}

// NewEngine creates the injection engine. Configuration mistakes are the
// one fatal error class: everything after construction degrades instead of
// failing.
func NewEngine(
	cfg config.InjectionConfig,
	store *session.Store,
	searcher retrieval.Searcher,
	embedder retrieval.Embedder,
	counter retrieval.Counter,
	rt *router.Router,
	audit *AuditLogger,
	logger *zap.Logger,
) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if store == nil {
		return nil, errors.New("session store is required")
	}
	if searcher == nil {
		return nil, errors.New("searcher is required")
	}
	if counter == nil {
		return nil, errors.New("token counter is required")
	}
	if rt == nil {
		rt = router.New(nil, logger)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	e := &Engine{
		cfg:      cfg,
		store:    store,
		searcher: searcher,
		embedder: embedder,
		counter:  counter,
		router:   rt,
		audit:    audit,
		logger:   logger,
		tracer:   otel.Tracer(instrumentationName),
	}

	meter := otel.Meter(instrumentationName)
	e.injectedCounter, _ = meter.Int64Counter("recalld.injections",
		metric.WithDescription("Number of non-empty injections emitted"))
	e.tokensCounter, _ = meter.Int64Counter("recalld.tokens_injected",
		metric.WithDescription("Cumulative tokens injected"))
	e.skipCounter, _ = meter.Int64Counter("recalld.injections_skipped",
		metric.WithDescription("Turns where injection was suppressed"))

	return e, nil
}

// Bootstrap runs Tier 1 at conversation start: query the fixed buckets in
// priority order, merge and sort by score, then fill the fixed Tier 1
// budget. Returns the injection block, or an empty string when nothing is
// worth injecting.
func (e *Engine) Bootstrap(ctx context.Context, sessionID, projectID string) string {
	ctx, span := e.tracer.Start(ctx, "Engine.Bootstrap")
	defer span.End()

	state := e.store.Load(sessionID)

	var merged []retrieval.Result
	queried := make([]string, 0, len(tier1Buckets))
	for _, bucket := range tier1Buckets {
		q := bucket
		q.ProjectID = projectID
		queried = append(queried, string(q.Partition))
		merged = append(merged, e.search(ctx, q)...)
	}

	// Bucket order is not preserved past this point; score wins.
	sortByScore(merged)

	selected, tokensUsed := Select(merged, e.cfg.Tier1Budget, state.InjectedIDs, e.counter)
	block := Format(selected, 1)

	for _, r := range selected {
		state.MarkInjected(r.ID)
	}
	state.TotalTokensInjected += tokensUsed
	e.saveState(state)

	e.record(ctx, Event{
		Tier:           1,
		Trigger:        triggerSessionStart,
		ProjectID:      projectID,
		SessionID:      sessionID,
		Considered:     len(merged),
		Selected:       len(selected),
		TokensUsed:     tokensUsed,
		Budget:         e.cfg.Tier1Budget,
		UtilizationPct: utilization(tokensUsed, e.cfg.Tier1Budget),
		BestScore:      bestScore(merged),
		Drift:          state.TopicDrift,
		Collections:    queried,
	}, block)

	span.SetAttributes(
		attribute.Int("considered", len(merged)),
		attribute.Int("selected", len(selected)),
	)
	return block
}

// InjectForPrompt runs Tier 2 for a new user message: route, search the
// routed partitions in parallel, estimate drift, compute the adaptive
// budget, greedy-select, and format. Returns the injection block, or an
// empty string when confidence is too low or nothing fits.
func (e *Engine) InjectForPrompt(ctx context.Context, sessionID, projectID, message string) string {
	ctx, span := e.tracer.Start(ctx, "Engine.InjectForPrompt")
	defer span.End()

	state := e.store.Load(sessionID)
	targets := e.router.Route(ctx, message)

	vector := e.embedQuery(ctx, message)
	drift := state.TopicDrift
	if vector != nil {
		drift = ComputeTopicDrift(vector, state.LastQueryVector)
		state.LastQueryVector = vector
	}
	state.TopicDrift = drift
	state.TurnCount++

	merged, queried := e.searchTargets(ctx, targets, projectID, message)

	best := bestScore(merged)
	if len(merged) == 0 || best < e.cfg.MinConfidence {
		e.saveState(state)
		e.record(ctx, Event{
			Tier:                 2,
			Trigger:              triggerUserPrompt,
			ProjectID:            projectID,
			SessionID:            sessionID,
			Considered:           len(merged),
			BestScore:            best,
			SkippedLowConfidence: true,
			Drift:                drift,
			Collections:          queried,
		}, "")
		return ""
	}

	signals := ComputeBudgetSignals(merged, drift, e.cfg.ConfidenceThreshold)
	budget := ComputeAdaptiveBudget(signals, e.cfg)

	selected, tokensUsed := Select(merged, budget, state.InjectedIDs, e.counter)
	block := Format(selected, 2)

	for _, r := range selected {
		state.MarkInjected(r.ID)
	}
	state.TotalTokensInjected += tokensUsed
	e.saveState(state)

	e.record(ctx, Event{
		Tier:           2,
		Trigger:        triggerUserPrompt,
		ProjectID:      projectID,
		SessionID:      sessionID,
		Considered:     len(merged),
		Selected:       len(selected),
		TokensUsed:     tokensUsed,
		Budget:         budget,
		UtilizationPct: utilization(tokensUsed, budget),
		BestScore:      best,
		Drift:          drift,
		Collections:    queried,
	}, block)

	span.SetAttributes(
		attribute.Int("budget", budget),
		attribute.Int("tokens_used", tokensUsed),
		attribute.Float64("drift", drift),
	)
	return block
}

// HandleCompact clears the dedup window after the host assistant compacts
// its context: previously injected text is no longer visible to it.
func (e *Engine) HandleCompact(ctx context.Context, sessionID string) {
	_, span := e.tracer.Start(ctx, "Engine.HandleCompact")
	defer span.End()

	state := e.store.Load(sessionID)
	session.ResetAfterCompact(state)
	e.saveState(state)
}

// searchTargets fans out one bounded search per routed partition. Failed
// or timed-out partitions contribute empty result sets; the rest still
// count. When more than one partition was searched the merged list is
// re-sorted by score, otherwise the collaborator's own ordering is
// trusted.
func (e *Engine) searchTargets(ctx context.Context, targets []router.Target, projectID, message string) ([]retrieval.Result, []string) {
	perTarget := make([][]retrieval.Result, len(targets))
	queried := make([]string, len(targets))

	g, gctx := errgroup.WithContext(ctx)
	for i, t := range targets {
		queried[i] = string(t.Partition)
		q := retrieval.Query{
			Text:      message,
			Partition: t.Partition,
			Limit:     5,
		}
		if !t.Shared {
			q.ProjectID = projectID
		}
		g.Go(func() error {
			perTarget[i] = e.search(gctx, q)
			return nil
		})
	}
	_ = g.Wait()

	var merged []retrieval.Result
	for _, results := range perTarget {
		merged = append(merged, results...)
	}
	if len(targets) > 1 {
		sortByScore(merged)
	}
	return merged, queried
}

// search runs one bounded search call, degrading to an empty result set on
// any failure.
func (e *Engine) search(ctx context.Context, q retrieval.Query) []retrieval.Result {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.SearchTimeout.Duration())
	defer cancel()

	results, err := e.searcher.Search(ctx, q)
	if err != nil {
		e.logger.Debug("search degraded to empty result set",
			zap.String("partition", string(q.Partition)),
			zap.Error(err))
		return nil
	}
	return results
}

// embedQuery embeds the message for drift estimation, returning nil when
// no embedder is wired or embedding fails.
func (e *Engine) embedQuery(ctx context.Context, message string) []float32 {
	if e.embedder == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, e.cfg.SearchTimeout.Duration())
	defer cancel()

	vector, err := e.embedder.EmbedQuery(ctx, message)
	if err != nil {
		e.logger.Debug("query embedding failed, keeping previous drift", zap.Error(err))
		return nil
	}
	return vector
}

// saveState persists the session state; a failed save costs dedup history
// next turn, nothing more.
func (e *Engine) saveState(state *session.State) {
	if err := e.store.Save(state); err != nil {
		e.logger.Warn("failed to save session state",
			zap.String("session_id", state.SessionID),
			zap.Error(err))
	}
}

// record emits the audit event and bumps the engine counters.
func (e *Engine) record(ctx context.Context, event Event, block string) {
	if e.audit != nil {
		e.audit.Log(event)
	}

	tierAttr := metric.WithAttributes(attribute.Int("tier", event.Tier))
	if block == "" {
		e.skipCounter.Add(ctx, 1, tierAttr)
		return
	}
	e.injectedCounter.Add(ctx, 1, tierAttr)
	e.tokensCounter.Add(ctx, int64(event.TokensUsed), tierAttr)
}

func sortByScore(results []retrieval.Result) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
}

func bestScore(results []retrieval.Result) float64 {
	best := 0.0
	for _, r := range results {
		if r.Score > best {
			best = r.Score
		}
	}
	return best
}

func utilization(used, budget int) float64 {
	if budget == 0 {
		return 0
	}
	return float64(used) / float64(budget) * 100
}
