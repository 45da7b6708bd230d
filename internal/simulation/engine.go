// Package simulation runs the staged holistic-scoring pipeline on a clock so
// each step can be observed as it happens.
package simulation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"scoresim/internal/domain"
	"scoresim/internal/embedding/keyword"
	"scoresim/internal/metrics"
	"scoresim/internal/ranking"
	"scoresim/internal/scoring"
	"scoresim/internal/similarity"
)

// DefaultStageOneLimit is how many candidates centroid filtering keeps.
const DefaultStageOneLimit = 3

var (
	// ErrCancelled is returned by Wait when the run was reset or replaced.
	ErrCancelled = errors.New("simulation cancelled")
	// ErrNoRun is returned by Wait when nothing has been started.
	ErrNoRun = errors.New("no simulation run")
)

// Engine drives simulation runs. All methods are safe for concurrent use.
// Timer callbacks carry the generation they were scheduled in and do nothing
// once a reset or a newer run has bumped it.
type Engine struct {
	clock    clockwork.Clock
	store    domain.CandidateStore
	embedder domain.Embedder
	scorer   *scoring.Scorer
	weights  domain.ScoringWeights
	limit    int
	delays   Delays
	logger   *zap.Logger
	metrics  *metrics.Recorder

	mu       sync.Mutex
	gen      uint64
	timer    clockwork.Timer
	state    Snapshot
	run      *run
	stageOne []int
	ranked   []int
	cursor   int
	subs     map[int]chan Snapshot
	nextSub  int
}

type run struct {
	started time.Time
	done    chan struct{}
	final   Snapshot
	err     error
}

// New creates an Engine over store, idle until Run is called. Without
// options it uses the real clock, the keyword embedder, no lexical
// component and the default weights.
func New(store domain.CandidateStore, opts ...Option) *Engine {
	e := &Engine{
		clock:   clockwork.NewRealClock(),
		store:   store,
		scorer:  scoring.New(nil),
		weights: scoring.DefaultWeights(),
		delays:  DefaultDelays(),
		logger:  zap.NewNop(),
		subs:    make(map[int]chan Snapshot),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.embedder == nil {
		emb, err := keyword.New(keyword.DefaultDimension)
		if err != nil {
			panic(err)
		}
		e.embedder = emb
	}
	e.state = e.idleState()
	return e
}

// Run cancels any run in flight and starts a new one. The query is embedded
// and candidates are validated before anything changes, so an invalid
// request leaves the engine as it was. Embedding and filtering complete
// before Run returns; the remaining stages follow on the clock.
func (e *Engine) Run(req Request) (string, error) {
	candidates := req.Candidates
	if candidates == nil {
		candidates = e.store.ListAll()
	}
	q, err := e.embedder.Embed(req.Query)
	if err != nil {
		return "", fmt.Errorf("embed query: %w", err)
	}
	if similarity.IsZero(q) {
		return "", fmt.Errorf("query %q embeds to a zero vector: %w", req.Query, domain.ErrInvalidInput)
	}
	seen := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		if err := c.Validate(q.Dim()); err != nil {
			return "", err
		}
		if _, ok := seen[c.ID]; ok {
			return "", &domain.CandidateError{CandidateID: c.ID, Reason: "duplicate id"}
		}
		seen[c.ID] = struct{}{}
	}
	weights := e.weights
	if req.Weights != nil {
		weights = *req.Weights
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.cancelLocked()
	e.gen++
	runID := uuid.NewString()
	e.run = &run{started: e.clock.Now(), done: make(chan struct{})}
	e.stageOne, e.ranked, e.cursor = nil, nil, 0

	scored := make([]domain.ScoredCandidate, len(candidates))
	for i, c := range candidates {
		scored[i] = domain.ScoredCandidate{Candidate: c}
	}
	e.state = Snapshot{
		RunID:       runID,
		Generation:  e.gen,
		Query:       req.Query,
		QueryVector: q,
		Weights:     weights,
		Advisory:    scoring.CheckWeights(weights),
		Candidates:  scored,
	}

	e.logger.Info("simulation started",
		zap.String("run_id", runID),
		zap.String("query", req.Query),
		zap.Int("candidates", len(candidates)),
		zap.String("embedder", e.embedder.Name()),
	)
	if !e.state.Advisory.Valid {
		e.logger.Warn("scoring weights do not sum to 1",
			zap.String("run_id", runID),
			zap.Float64("sum", e.state.Advisory.Sum),
		)
	}
	if keyword.Unbounded(q) {
		e.logger.Warn("query vector leaves [0,1]", zap.String("run_id", runID), zap.Float64s("vector", q))
	}
	e.enter(StageEmbeddingQuery)

	for i := range e.state.Candidates {
		// Dimensions were validated above.
		sim, _ := scoring.CentroidSimilarity(q, e.state.Candidates[i].Candidate)
		e.state.Candidates[i].CentroidSimilarity = sim
	}
	e.stageOne = e.selectStageOne()
	e.state.StageOne = make([]string, len(e.stageOne))
	for i, idx := range e.stageOne {
		e.state.StageOne[i] = e.state.Candidates[idx].ID
	}
	e.enter(StageFiltering)
	e.after(e.delays.Filter, e.startScoring)
	return runID, nil
}

// Reset cancels any run in flight and returns to Idle with every stored
// candidate unscored. Calling it repeatedly is harmless.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()

	wasIdle := e.state.Stage == StageIdle && e.run == nil
	e.cancelLocked()
	e.gen++
	e.run = nil
	e.stageOne, e.ranked, e.cursor = nil, nil, 0
	e.state = e.idleState()
	if !wasIdle {
		e.enter(StageIdle)
	}
}

// Snapshot returns a copy of the current state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.clone()
}

// Subscribe returns a channel receiving a snapshot after every transition
// and a function that ends the subscription. Snapshots are dropped when the
// channel is full.
func (e *Engine) Subscribe() (<-chan Snapshot, func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := e.nextSub
	e.nextSub++
	ch := make(chan Snapshot, 64)
	e.subs[id] = ch
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			e.mu.Lock()
			defer e.mu.Unlock()
			delete(e.subs, id)
			close(ch)
		})
	}
}

// Done returns a channel closed when the current run finishes, fails or is
// cancelled. Without a run it returns a closed channel.
func (e *Engine) Done() <-chan struct{} {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.run == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return e.run.done
}

// Wait blocks until the current run reaches Complete or Failed and returns
// its final snapshot. A failed run returns its error; a reset or replaced
// run returns ErrCancelled.
func (e *Engine) Wait(ctx context.Context) (Snapshot, error) {
	e.mu.Lock()
	r := e.run
	e.mu.Unlock()
	if r == nil {
		return Snapshot{}, ErrNoRun
	}
	select {
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	case <-r.done:
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return r.final.clone(), r.err
}

// Pinpoint ranks the stored candidates by their single best chunk for the
// query. It does not touch the staged run.
func (e *Engine) Pinpoint(query string) ([]ranking.PinpointResult, error) {
	q, err := e.embedder.Embed(query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if similarity.IsZero(q) {
		return nil, fmt.Errorf("query %q embeds to a zero vector: %w", query, domain.ErrInvalidInput)
	}
	return ranking.Pinpoint(q, e.store.ListAll())
}

func (e *Engine) idleState() Snapshot {
	var stored []domain.Candidate
	if e.store != nil {
		stored = e.store.ListAll()
	}
	scored := make([]domain.ScoredCandidate, len(stored))
	for i, c := range stored {
		scored[i] = domain.ScoredCandidate{Candidate: c}
	}
	return Snapshot{
		Generation: e.gen,
		Stage:      StageIdle,
		Weights:    e.weights,
		Advisory:   scoring.CheckWeights(e.weights),
		Candidates: scored,
	}
}

func (e *Engine) selectStageOne() []int {
	m := e.limit
	if m <= 0 {
		m = DefaultStageOneLimit
	}
	order := make([]int, len(e.state.Candidates))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return e.state.Candidates[order[a]].CentroidSimilarity > e.state.Candidates[order[b]].CentroidSimilarity
	})
	if m < len(order) {
		order = order[:m]
	}
	return order
}

func (e *Engine) startScoring() {
	e.enter(StageScoring)
	e.calculateNext()
}

func (e *Engine) calculateNext() {
	if e.cursor >= len(e.stageOne) {
		e.after(e.delays.Rank, e.rank)
		return
	}
	c := &e.state.Candidates[e.stageOne[e.cursor]]
	c.Calculating = true
	e.state.Current = c.ID
	e.emit()
	e.after(e.delays.Calculate, e.finishCalculation)
}

func (e *Engine) finishCalculation() {
	c := &e.state.Candidates[e.stageOne[e.cursor]]
	cs, chunks, err := e.scorer.Components(e.state.Query, e.state.QueryVector, c.Candidate)
	if err != nil {
		e.fail(err)
		return
	}
	c.Components = cs
	c.ScoredChunks = chunks
	c.Calculating = false
	e.state.Current = ""
	e.logger.Debug("candidate scored",
		zap.String("run_id", e.state.RunID),
		zap.String("candidate", c.ID),
		zap.Float64("max", cs.Max),
		zap.Float64("topk_mean", cs.TopKMean),
		zap.Float64("centroid", cs.Centroid),
		zap.Float64("bm25", cs.BM25),
	)
	e.cursor++
	e.emit()
	if e.cursor < len(e.stageOne) {
		e.after(e.delays.Settle, e.calculateNext)
		return
	}
	e.after(e.delays.Rank, e.rank)
}

func (e *Engine) rank() {
	// Ties fall back to input order, not filtering order.
	indices := append([]int(nil), e.stageOne...)
	sort.Ints(indices)
	scored := make([]domain.ScoredCandidate, len(indices))
	byID := make(map[string]int, len(indices))
	for i, idx := range indices {
		c := &e.state.Candidates[idx]
		c.FinalScore = scoring.Final(c.Components, e.state.Weights)
		scored[i] = *c
		byID[c.ID] = idx
	}
	e.state.Ranked = ranking.Rank(scored)
	e.ranked = make([]int, len(e.state.Ranked))
	for i, r := range e.state.Ranked {
		idx := byID[r.ID]
		e.state.Candidates[idx].Rank = r.Rank
		e.ranked[i] = idx
	}
	e.enter(StageRanking)
	e.cursor = 0
	e.enter(StageHighlighting)
	e.highlightNext()
}

func (e *Engine) highlightNext() {
	e.clearHighlight()
	if e.cursor >= len(e.ranked) {
		e.complete()
		return
	}
	e.state.Candidates[e.ranked[e.cursor]].Highlighted = true
	e.state.Ranked[e.cursor].Highlighted = true
	e.state.Highlighted = e.state.Ranked[e.cursor].ID
	e.cursor++
	e.emit()
	e.after(e.delays.Highlight, e.highlightNext)
}

func (e *Engine) clearHighlight() {
	for i := range e.state.Candidates {
		e.state.Candidates[i].Highlighted = false
	}
	for i := range e.state.Ranked {
		e.state.Ranked[i].Highlighted = false
	}
	e.state.Highlighted = ""
}

func (e *Engine) complete() {
	e.enter(StageComplete)
	e.logger.Info("simulation complete",
		zap.String("run_id", e.state.RunID),
		zap.Int("ranked", len(e.state.Ranked)),
	)
	e.finish(metrics.OutcomeCompleted, nil)
}

func (e *Engine) fail(err error) {
	for i := range e.state.Candidates {
		e.state.Candidates[i].Calculating = false
	}
	e.state.Current = ""
	e.state.Err = err
	e.enter(StageFailed)
	e.logger.Error("simulation failed", zap.String("run_id", e.state.RunID), zap.Error(err))
	e.finish(metrics.OutcomeFailed, err)
}

func (e *Engine) finish(outcome string, err error) {
	r := e.run
	if r == nil {
		return
	}
	e.metrics.RunFinished(outcome, e.clock.Since(r.started))
	r.final = e.state.clone()
	r.err = err
	close(r.done)
}

// cancelLocked stops the timer and releases waiters of an unfinished run.
func (e *Engine) cancelLocked() {
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	if e.run == nil || !e.state.Stage.Active() {
		return
	}
	e.metrics.RunFinished(metrics.OutcomeCancelled, e.clock.Since(e.run.started))
	e.logger.Info("simulation cancelled",
		zap.String("run_id", e.state.RunID),
		zap.Stringer("stage", e.state.Stage),
	)
	e.run.final = e.state.clone()
	e.run.err = ErrCancelled
	close(e.run.done)
}

// after schedules next on the clock. The callback runs under the engine
// lock and is dropped if the generation moved on.
func (e *Engine) after(d time.Duration, next func()) {
	gen := e.gen
	e.timer = e.clock.AfterFunc(d, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if gen != e.gen {
			return
		}
		e.timer = nil
		next()
	})
}

func (e *Engine) enter(stage Stage) {
	e.state.Stage = stage
	e.metrics.StageEntered(stage.String())
	e.logger.Debug("stage entered",
		zap.String("run_id", e.state.RunID),
		zap.Stringer("stage", stage),
	)
	e.emit()
}

func (e *Engine) emit() {
	if len(e.subs) == 0 {
		return
	}
	for id, ch := range e.subs {
		select {
		case ch <- e.state.clone():
		default:
			e.logger.Warn("subscriber lagging, snapshot dropped", zap.Int("subscriber", id))
		}
	}
}
