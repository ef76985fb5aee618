package ranking

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/talent-matcher/internal/ai"
	"github.com/spigell/talent-matcher/internal/filtering"
	"github.com/spigell/talent-matcher/internal/profile"
	"github.com/spigell/talent-matcher/internal/requirement"
	"github.com/spigell/talent-matcher/internal/scoring"
)

type scoredEvaluator struct {
	scores map[string][2]float64
}

func (s scoredEvaluator) Evaluate(_ context.Context, c profile.Candidate, req requirement.Requirement) (scoring.MatchResult, error) {
	v, ok := s.scores[c.ID]
	if !ok {
		return scoring.MatchResult{}, ai.Malformed(errors.New("no score"))
	}
	return scoring.NewResult(c.ID, req.ID, v[0], v[1], "scored", nil, nil, scoring.SourceAI), nil
}

type failingEvaluator struct {
	calls atomic.Int32
}

func (f *failingEvaluator) Evaluate(context.Context, profile.Candidate, requirement.Requirement) (scoring.MatchResult, error) {
	f.calls.Add(1)
	return scoring.MatchResult{}, ai.Unavailable(errors.New("connection refused"))
}

func candidates(ids ...string) []profile.Candidate {
	out := make([]profile.Candidate, 0, len(ids))
	for _, id := range ids {
		out = append(out, profile.Candidate{ID: id, Profile: profile.New("", "", "", "", []string{"go"}, nil, nil)})
	}
	return out
}

func job(t *testing.T) requirement.Requirement {
	t.Helper()
	req, err := requirement.New(requirement.Spec{ID: "job-1", RequiredSkills: []string{"go", "sql"}})
	require.NoError(t, err)
	return req
}

func ids(results []scoring.MatchResult) []string {
	out := make([]string, 0, len(results))
	for _, r := range results {
		out = append(out, r.CandidateID)
	}
	return out
}

func TestRankOrdersByScoreConfidenceAndID(t *testing.T) {
	t.Parallel()

	eval := scoredEvaluator{scores: map[string][2]float64{
		"d": {90, 0.5},
		"b": {75, 0.9},
		"a": {75, 0.9},
		"c": {75, 0.95},
		"e": {40, 1},
	}}

	results, err := NewRanker(eval, Options{}, nil).Rank(context.Background(), job(t), candidates("e", "a", "b", "c", "d"), 4)
	require.NoError(t, err)

	assert.Equal(t, []string{"d", "c", "a", "b"}, ids(results))
	for _, r := range results {
		assert.Equal(t, "job-1", r.JobID)
		assert.Equal(t, scoring.CategoryFor(r.Score), r.Category)
	}
}

func TestRankOutputLength(t *testing.T) {
	t.Parallel()

	eval := scoredEvaluator{scores: map[string][2]float64{"a": {10, 1}, "b": {20, 1}, "c": {30, 1}}}
	ranker := NewRanker(eval, Options{}, nil)

	tests := []struct {
		name string
		pool []profile.Candidate
		k    int
		want int
	}{
		{name: "k below pool", pool: candidates("a", "b", "c"), k: 2, want: 2},
		{name: "k above pool", pool: candidates("a", "b", "c"), k: 10, want: 3},
		{name: "duplicates collapse", pool: candidates("a", "a", "b", "b"), k: 3, want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := ranker.Rank(context.Background(), job(t), tt.pool, tt.k)
			require.NoError(t, err)
			assert.Len(t, results, tt.want)
		})
	}
}

func TestRankFallsBackForEveryFailedCandidate(t *testing.T) {
	t.Parallel()

	eval := &failingEvaluator{}
	pool := make([]profile.Candidate, 0, 10)
	for i := 0; i < 10; i++ {
		skillNames := []string{"go"}
		if i%2 == 0 {
			skillNames = append(skillNames, "sql")
		}
		pool = append(pool, profile.Candidate{ID: fmt.Sprintf("cand-%02d", i), Profile: profile.New("", "", "", "", skillNames, nil, nil)})
	}

	results, err := NewRanker(eval, Options{}, nil).Rank(context.Background(), job(t), pool, 10)
	require.NoError(t, err)
	require.Len(t, results, 10)
	assert.EqualValues(t, 10, eval.calls.Load())

	for _, r := range results {
		assert.Equal(t, scoring.SourceFallback, r.Source)
		assert.Equal(t, scoring.FallbackConfidence, r.Confidence)
	}
	assert.Equal(t, 100.0, results[0].Score)
	assert.Equal(t, "cand-00", results[0].CandidateID)
	assert.Equal(t, 50.0, results[9].Score)
}

func TestRankWithoutEvaluatorUsesFallback(t *testing.T) {
	t.Parallel()

	results, err := NewRanker(nil, Options{}, nil).Rank(context.Background(), job(t), candidates("a"), 1)
	require.NoError(t, err)
	assert.Equal(t, scoring.SourceFallback, results[0].Source)
	assert.Equal(t, 50.0, results[0].Score)
}

func TestRankRejectsInvalidInput(t *testing.T) {
	t.Parallel()

	ranker := NewRanker(&failingEvaluator{}, Options{}, nil)
	tests := map[string]struct {
		pool []profile.Candidate
		k    int
	}{
		"zero k":     {pool: candidates("a"), k: 0},
		"negative k": {pool: candidates("a"), k: -1},
		"empty pool": {pool: nil, k: 3},
		"empty id":   {pool: candidates("a", " "), k: 3},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ranker.Rank(context.Background(), job(t), tt.pool, tt.k)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestRankExclusionsCanEmptyThePool(t *testing.T) {
	t.Parallel()

	ranker := NewRanker(&failingEvaluator{}, Options{Exclusions: &filtering.Config{ExcludeCandidates: []string{"a", "b"}}}, nil)
	results, err := ranker.Rank(context.Background(), job(t), candidates("a", "b"), 3)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRankWithoutFiltersKeepsExcludedCandidates(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	ranker := NewRanker(&failingEvaluator{}, Options{Exclusions: &filtering.Config{ExcludeCandidates: []string{"a", "b"}}}, zap.New(core))
	unfiltered := ranker.WithoutFilters("manual run", filtering.NameExclude, filtering.NameExcludeFile)

	results, err := unfiltered.Rank(context.Background(), job(t), candidates("b", "a"), 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids(results))

	results, err = ranker.Rank(context.Background(), job(t), candidates("b", "a"), 3)
	require.NoError(t, err)
	assert.Empty(t, results, "the original ranker must keep its filters")

	entries := logs.FilterMessage("candidate pool filtered").All()
	require.Len(t, entries, 2)
	statuses, ok := entries[0].ContextMap()["filters"].([]filtering.Status)
	require.True(t, ok)
	require.Len(t, statuses, 3)
	assert.True(t, statuses[0].Enabled)
	assert.False(t, statuses[1].Enabled)
	assert.Equal(t, "manual run", statuses[1].Reason)
	assert.Equal(t, []any{"b", "a"}, entries[0].ContextMap()["candidates"])
}

type blockingEvaluator struct {
	inFlight atomic.Int32
	peak     atomic.Int32
	started  atomic.Int32
	finished atomic.Int32
	startedC chan struct{}
	release  chan struct{}
}

func (b *blockingEvaluator) Evaluate(ctx context.Context, c profile.Candidate, req requirement.Requirement) (scoring.MatchResult, error) {
	n := b.inFlight.Add(1)
	for {
		peak := b.peak.Load()
		if n <= peak || b.peak.CompareAndSwap(peak, n) {
			break
		}
	}
	b.started.Add(1)
	if b.startedC != nil {
		b.startedC <- struct{}{}
	}

	var err error
	select {
	case <-b.release:
	case <-ctx.Done():
		err = ctx.Err()
	}

	b.inFlight.Add(-1)
	b.finished.Add(1)
	if err != nil {
		return scoring.MatchResult{}, err
	}
	return scoring.NewResult(c.ID, req.ID, 80, 0.8, "ok", nil, nil, scoring.SourceAI), nil
}

func TestRankBoundsConcurrency(t *testing.T) {
	t.Parallel()

	eval := &blockingEvaluator{release: make(chan struct{})}
	go func() {
		time.Sleep(50 * time.Millisecond)
		close(eval.release)
	}()

	pool := make([]profile.Candidate, 0, 12)
	for i := 0; i < 12; i++ {
		pool = append(pool, profile.Candidate{ID: fmt.Sprintf("c%d", i)})
	}

	results, err := NewRanker(eval, Options{Concurrency: 3}, nil).Rank(context.Background(), job(t), pool, 12)
	require.NoError(t, err)
	assert.Len(t, results, 12)
	assert.LessOrEqual(t, eval.peak.Load(), int32(3))
	assert.EqualValues(t, 12, eval.finished.Load())
}

func TestRankCancellationWaitsForInFlightCalls(t *testing.T) {
	t.Parallel()

	eval := &blockingEvaluator{startedC: make(chan struct{}, 2), release: make(chan struct{})}
	ranker := NewRanker(eval, Options{Concurrency: 2}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	type outcome struct {
		results []scoring.MatchResult
		err     error
	}
	req := job(t)
	done := make(chan outcome, 1)
	go func() {
		results, err := ranker.Rank(ctx, req, candidates("a", "b", "c", "d", "e"), 3)
		done <- outcome{results, err}
	}()

	<-eval.startedC
	<-eval.startedC
	cancel()
	time.Sleep(20 * time.Millisecond)
	close(eval.release)

	select {
	case got := <-done:
		assert.ErrorIs(t, got.err, context.Canceled)
		assert.Nil(t, got.results)
	case <-time.After(5 * time.Second):
		t.Fatal("rank did not return after cancellation")
	}

	assert.EqualValues(t, 2, eval.started.Load(), "no evaluation may start after cancellation")
	assert.EqualValues(t, 2, eval.finished.Load(), "in-flight evaluations must complete")
}

func TestRankCancelledBeforeStart(t *testing.T) {
	t.Parallel()

	eval := &failingEvaluator{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewRanker(eval, Options{}, nil).Rank(ctx, job(t), candidates("a"), 1)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, eval.calls.Load())
}

func TestRankCallTimeoutRoutesToFallback(t *testing.T) {
	t.Parallel()

	eval := &blockingEvaluator{release: make(chan struct{})}
	defer close(eval.release)

	results, err := NewRanker(eval, Options{CallTimeout: 20 * time.Millisecond}, nil).Rank(context.Background(), job(t), candidates("a"), 1)
	require.NoError(t, err)
	assert.Equal(t, scoring.SourceFallback, results[0].Source)
}

func TestRankLogsRunID(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.InfoLevel)
	_, err := NewRanker(&failingEvaluator{}, Options{}, zap.New(core)).Rank(context.Background(), job(t), candidates("a"), 1)
	require.NoError(t, err)

	entries := logs.FilterMessage("ranking completed").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	runID, ok := fields["run_id"].(string)
	require.True(t, ok)
	_, err = uuid.Parse(runID)
	assert.NoError(t, err)
	assert.Equal(t, "job-1", fields["job_id"])
}
