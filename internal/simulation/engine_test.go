package simulation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"scoresim/internal/domain"
	"scoresim/internal/lexical"
	"scoresim/internal/metrics"
	"scoresim/internal/store/memory"
	"scoresim/internal/store/seed"
)

const mlQuery = "machine learning algorithms"

type failingLexical struct{}

func (failingLexical) Name() string { return "failing" }
func (failingLexical) Score(string, domain.Candidate) (float64, error) {
	return 0, errors.New("index unavailable")
}

type fixture struct {
	engine  *Engine
	clock   *clockwork.FakeClock
	metrics *metrics.Recorder
}

func newFixture(t *testing.T, opts ...Option) fixture {
	t.Helper()
	store, err := memory.NewStorage(seed.Candidates())
	require.NoError(t, err)
	fc := clockwork.NewFakeClock()
	rec := metrics.New()
	base := []Option{
		WithClock(fc),
		WithLexical(lexical.NewOverlap()),
		WithLogger(zaptest.NewLogger(t)),
		WithMetrics(rec),
	}
	return fixture{engine: New(store, append(base, opts...)...), clock: fc, metrics: rec}
}

// drive advances the fake clock one pending timer at a time until the
// current run is over.
func (f fixture) drive(t *testing.T) Snapshot {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		select {
		case <-f.engine.Done():
			return f.engine.Snapshot()
		default:
		}
		require.True(t, time.Now().Before(deadline), "run did not finish")
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		err := f.clock.BlockUntilContext(ctx, 1)
		cancel()
		if err == nil {
			f.clock.Advance(2 * time.Second)
		}
	}
}

func waitForStage(t *testing.T, ch <-chan Snapshot, want Stage) Snapshot {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case s := <-ch:
			if s.Stage == want {
				return s
			}
		case <-timeout:
			t.Fatalf("stage %s not reached", want)
		}
	}
}

func drain(ch <-chan Snapshot) []Snapshot {
	var out []Snapshot
	for {
		select {
		case s := <-ch:
			out = append(out, s)
		default:
			return out
		}
	}
}

func stages(snaps []Snapshot) []Stage {
	var out []Stage
	for _, s := range snaps {
		if len(out) == 0 || out[len(out)-1] != s.Stage {
			out = append(out, s.Stage)
		}
	}
	return out
}

func counter(t *testing.T, rec *metrics.Recorder, name, label string) float64 {
	t.Helper()
	mfs, err := rec.Registry().Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetValue() == label {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestNewEngineStartsIdle(t *testing.T) {
	f := newFixture(t)
	s := f.engine.Snapshot()
	assert.Equal(t, StageIdle, s.Stage)
	require.Len(t, s.Candidates, 5)
	for _, c := range s.Candidates {
		assert.Zero(t, c.Components)
		assert.Zero(t, c.Rank)
	}
	assert.True(t, s.Advisory.Valid)
}

func TestRunCompletesWithRanking(t *testing.T) {
	f := newFixture(t)
	ch, unsubscribe := f.engine.Subscribe()
	defer unsubscribe()

	runID, err := f.engine.Run(Request{Query: mlQuery})
	require.NoError(t, err)
	assert.NotEmpty(t, runID)

	filtered := f.engine.Snapshot()
	assert.Equal(t, StageFiltering, filtered.Stage)
	assert.ElementsMatch(t, []string{"file1", "file2", "file5"}, filtered.StageOne)
	assert.Equal(t, domain.Vector{0.9, 0.5, 0.8, 0.5, 0.5}, roundVector(filtered.QueryVector))

	final := f.drive(t)
	assert.Equal(t, StageComplete, final.Stage)
	assert.Equal(t, runID, final.RunID)
	assert.NoError(t, final.Err)

	require.Len(t, final.Ranked, 3)
	assert.Equal(t, "machine_learning_guide.md", final.Ranked[0].Name)
	for i, c := range final.Ranked {
		assert.Equal(t, i+1, c.Rank)
		assert.False(t, c.Highlighted)
		if i > 0 {
			assert.GreaterOrEqual(t, final.Ranked[i-1].FinalScore, c.FinalScore)
		}
	}
	pm, ok := final.Candidate("file4")
	require.True(t, ok)
	assert.Zero(t, pm.Rank, "filtered out")
	assert.Zero(t, pm.Components)
	assert.Empty(t, final.Highlighted)

	assert.Equal(t, []Stage{
		StageEmbeddingQuery,
		StageFiltering,
		StageScoring,
		StageRanking,
		StageHighlighting,
		StageComplete,
	}, stages(drain(ch)))

	got, err := f.engine.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, final.Ranked, got.Ranked)
	assert.Equal(t, float64(1), counter(t, f.metrics, "scoresim_runs_total", metrics.OutcomeCompleted))
	assert.Equal(t, float64(1), counter(t, f.metrics, "scoresim_stage_transitions_total", "complete"))
}

func TestScoringMarksOneCandidateAtATime(t *testing.T) {
	f := newFixture(t)
	ch, unsubscribe := f.engine.Subscribe()
	defer unsubscribe()

	_, err := f.engine.Run(Request{Query: mlQuery})
	require.NoError(t, err)
	f.drive(t)

	seen := map[string]bool{}
	for _, s := range drain(ch) {
		calculating := 0
		for _, c := range s.Candidates {
			if c.Calculating {
				calculating++
				assert.Equal(t, c.ID, s.Current)
				assert.Equal(t, StageScoring, s.Stage)
				seen[c.ID] = true
			}
		}
		assert.LessOrEqual(t, calculating, 1)
	}
	assert.Len(t, seen, 3)
}

func TestHighlightingVisitsRankOrder(t *testing.T) {
	f := newFixture(t)
	ch, unsubscribe := f.engine.Subscribe()
	defer unsubscribe()

	_, err := f.engine.Run(Request{Query: mlQuery})
	require.NoError(t, err)
	final := f.drive(t)

	var visited []string
	for _, s := range drain(ch) {
		if s.Stage == StageHighlighting && s.Highlighted != "" {
			visited = append(visited, s.Highlighted)
		}
	}
	want := make([]string, len(final.Ranked))
	for i, c := range final.Ranked {
		want[i] = c.ID
	}
	assert.Equal(t, want, visited)
}

func TestResetMidScoring(t *testing.T) {
	f := newFixture(t)
	ch, unsubscribe := f.engine.Subscribe()
	defer unsubscribe()

	_, err := f.engine.Run(Request{Query: mlQuery})
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, f.clock.BlockUntilContext(ctx, 1))
	f.clock.Advance(DefaultDelays().Filter)
	waitForStage(t, ch, StageScoring)

	f.engine.Reset()

	s := f.engine.Snapshot()
	assert.Equal(t, StageIdle, s.Stage)
	require.Len(t, s.Candidates, 5)
	for _, c := range s.Candidates {
		assert.Zero(t, c.Components)
		assert.Zero(t, c.Rank)
		assert.False(t, c.Calculating)
	}
	assert.Empty(t, s.Ranked)
	assert.Empty(t, s.StageOne)

	for i := 0; i < 10; i++ {
		f.clock.Advance(2 * time.Second)
	}
	assert.Never(t, func() bool { return f.engine.Snapshot().Stage != StageIdle }, 100*time.Millisecond, 10*time.Millisecond)

	rest := drain(ch)
	require.NotEmpty(t, rest)
	assert.Equal(t, StageIdle, rest[len(rest)-1].Stage)
	for i, snap := range rest {
		if snap.Stage == StageIdle {
			assert.Len(t, rest, i+1, "no transition after reset")
		}
	}
	assert.Equal(t, float64(1), counter(t, f.metrics, "scoresim_runs_total", metrics.OutcomeCancelled))
}

func TestResetIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ch, unsubscribe := f.engine.Subscribe()
	defer unsubscribe()

	f.engine.Reset()
	f.engine.Reset()
	assert.Empty(t, drain(ch), "reset while idle is silent")

	_, err := f.engine.Run(Request{Query: mlQuery})
	require.NoError(t, err)
	f.drive(t)
	drain(ch)

	f.engine.Reset()
	f.engine.Reset()
	after := drain(ch)
	require.Len(t, after, 1)
	assert.Equal(t, StageIdle, after[0].Stage)
	assert.Equal(t, float64(0), counter(t, f.metrics, "scoresim_runs_total", metrics.OutcomeCancelled))
}

func TestWaitAfterReset(t *testing.T) {
	f := newFixture(t)
	_, err := f.engine.Run(Request{Query: mlQuery})
	require.NoError(t, err)

	f.engine.mu.Lock()
	first := f.engine.run
	f.engine.mu.Unlock()

	f.engine.Reset()
	<-first.done
	assert.ErrorIs(t, first.err, ErrCancelled)
	assert.Equal(t, StageFiltering, first.final.Stage)

	_, err = f.engine.Wait(context.Background())
	assert.ErrorIs(t, err, ErrNoRun)
}

func TestWaitHonoursContext(t *testing.T) {
	f := newFixture(t)
	_, err := f.engine.Run(Request{Query: mlQuery})
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = f.engine.Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunReplacesRunInFlight(t *testing.T) {
	f := newFixture(t)
	first, err := f.engine.Run(Request{Query: mlQuery})
	require.NoError(t, err)
	done := f.engine.Done()

	second, err := f.engine.Run(Request{Query: "project management"})
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	select {
	case <-done:
	default:
		t.Fatal("first run still open")
	}

	final := f.drive(t)
	assert.Equal(t, second, final.RunID)
	assert.Equal(t, StageComplete, final.Stage)
	require.NotEmpty(t, final.Ranked)
	assert.Equal(t, "project_management.md", final.Ranked[0].Name)
	assert.Equal(t, float64(1), counter(t, f.metrics, "scoresim_runs_total", metrics.OutcomeCancelled))
	assert.Equal(t, float64(1), counter(t, f.metrics, "scoresim_runs_total", metrics.OutcomeCompleted))
}

func TestEmptyCandidatesComplete(t *testing.T) {
	f := newFixture(t)
	_, err := f.engine.Run(Request{Query: mlQuery, Candidates: []domain.Candidate{}})
	require.NoError(t, err)

	final := f.drive(t)
	assert.Equal(t, StageComplete, final.Stage)
	assert.Empty(t, final.Candidates)
	assert.Empty(t, final.StageOne)
	assert.Empty(t, final.Ranked)
}

func TestRunRejectsDimensionMismatch(t *testing.T) {
	f := newFixture(t)
	bad := domain.Candidate{
		ID:       "short",
		Centroid: domain.Vector{1, 0, 0},
		Chunks:   []domain.Chunk{{ID: "c", Embedding: domain.Vector{1, 0, 0}}},
	}
	_, err := f.engine.Run(Request{Query: mlQuery, Candidates: append(seed.Candidates(), bad)})
	require.Error(t, err)

	var dimErr *domain.DimensionError
	require.True(t, errors.As(err, &dimErr))
	assert.Equal(t, "short", dimErr.CandidateID)
	assert.Equal(t, 5, dimErr.Want)
	assert.Equal(t, 3, dimErr.Got)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	assert.Equal(t, StageIdle, f.engine.Snapshot().Stage, "run not started")
}

func TestRunRejectsDuplicateIDs(t *testing.T) {
	f := newFixture(t)
	c := seed.Candidates()
	_, err := f.engine.Run(Request{Query: mlQuery, Candidates: []domain.Candidate{c[0], c[0]}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

type zeroEmbedder struct{}

func (zeroEmbedder) Name() string           { return "zero" }
func (zeroEmbedder) Prepare([]string) error { return nil }
func (zeroEmbedder) Dimension() int         { return 5 }
func (zeroEmbedder) Embed(string) (domain.Vector, error) {
	return make(domain.Vector, 5), nil
}

func TestRunRejectsZeroQueryVector(t *testing.T) {
	f := newFixture(t, WithEmbedder(zeroEmbedder{}))
	_, err := f.engine.Run(Request{Query: "anything"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = f.engine.Pinpoint("anything")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestWeightsOverride(t *testing.T) {
	f := newFixture(t)
	unit := domain.ScoringWeights{Max: 1}
	_, err := f.engine.Run(Request{Query: mlQuery, Weights: &unit})
	require.NoError(t, err)
	final := f.drive(t)

	assert.True(t, final.Advisory.Valid)
	require.Len(t, final.Ranked, 3)
	for _, c := range final.Ranked {
		assert.InDelta(t, c.Components.Max, c.FinalScore, 1e-12)
	}
}

func TestWeightAdvisoryDoesNotNormalize(t *testing.T) {
	f := newFixture(t, WithWeights(domain.ScoringWeights{Max: 0.5, TopKMean: 0.5, Centroid: 0.5}))
	_, err := f.engine.Run(Request{Query: mlQuery})
	require.NoError(t, err)
	final := f.drive(t)

	assert.False(t, final.Advisory.Valid)
	assert.InDelta(t, 1.5, final.Advisory.Sum, 1e-9)
	for _, c := range final.Ranked {
		want := 0.5*c.Components.Max + 0.5*c.Components.TopKMean + 0.5*c.Components.Centroid
		assert.InDelta(t, want, c.FinalScore, 1e-12)
	}
}

func TestStageOneLimit(t *testing.T) {
	f := newFixture(t, WithStageOneLimit(10))
	_, err := f.engine.Run(Request{Query: mlQuery})
	require.NoError(t, err)
	final := f.drive(t)

	require.Len(t, final.Ranked, 5)
	assert.Equal(t, "project_management.md", final.Ranked[4].Name)
}

func TestLexicalFailureFailsRun(t *testing.T) {
	f := newFixture(t, WithLexical(failingLexical{}))
	_, err := f.engine.Run(Request{Query: mlQuery})
	require.NoError(t, err)

	final := f.drive(t)
	assert.Equal(t, StageFailed, final.Stage)
	require.Error(t, final.Err)
	assert.Contains(t, final.Err.Error(), "index unavailable")
	for _, c := range final.Candidates {
		assert.False(t, c.Calculating)
	}

	_, err = f.engine.Wait(context.Background())
	assert.ErrorContains(t, err, "index unavailable")
	assert.Equal(t, float64(1), counter(t, f.metrics, "scoresim_runs_total", metrics.OutcomeFailed))
}

func TestPinpoint(t *testing.T) {
	f := newFixture(t)
	res, err := f.engine.Pinpoint("project management")
	require.NoError(t, err)
	require.Len(t, res, 5)
	assert.Equal(t, "project_management.md", res[0].Candidate.Name)
	assert.Equal(t, StageIdle, f.engine.Snapshot().Stage)
}

func TestSubscribeCancel(t *testing.T) {
	f := newFixture(t)
	ch, unsubscribe := f.engine.Subscribe()
	unsubscribe()
	unsubscribe()
	_, ok := <-ch
	assert.False(t, ok)

	_, err := f.engine.Run(Request{Query: mlQuery})
	require.NoError(t, err)
}

func TestStageString(t *testing.T) {
	assert.Equal(t, "embedding_query", StageEmbeddingQuery.String())
	assert.Equal(t, "unknown", Stage(42).String())
	assert.True(t, StageFailed.Terminal())
	assert.False(t, StageIdle.Active())
	assert.True(t, StageScoring.Active())
}

func roundVector(v domain.Vector) domain.Vector {
	out := make(domain.Vector, len(v))
	for i, x := range v {
		out[i] = float64(int(x*1000+0.5)) / 1000
	}
	return out
}
