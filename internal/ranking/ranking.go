// Package ranking scores a candidate pool against one requirement and returns the
// top matches.
package ranking

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/spigell/talent-matcher/internal/filtering"
	"github.com/spigell/talent-matcher/internal/logger"
	"github.com/spigell/talent-matcher/internal/profile"
	"github.com/spigell/talent-matcher/internal/requirement"
	"github.com/spigell/talent-matcher/internal/scoring"
)

// ErrInvalidInput reports misuse of Rank: non-positive k, empty pool, empty ids.
var ErrInvalidInput = errors.New("invalid ranking input")

const (
	DefaultConcurrency = 5
	DefaultCallTimeout = 15 * time.Second
)

// Evaluator scores one pair. scoring.Engine satisfies it.
type Evaluator interface {
	Evaluate(ctx context.Context, candidate profile.Candidate, req requirement.Requirement) (scoring.MatchResult, error)
}

// Options configure a Ranker. Zero values select defaults.
type Options struct {
	Concurrency int
	CallTimeout time.Duration
	// Exclusions configures the pool filters run before scoring.
	Exclusions *filtering.Config
}

type Ranker struct {
	evaluator   Evaluator
	concurrency int
	callTimeout time.Duration
	exclusions  *filtering.Config
	// filter name -> reason
	disabled map[string]string
	logger   *zap.Logger
}

func NewRanker(evaluator Evaluator, opts Options, log *zap.Logger) *Ranker {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = DefaultCallTimeout
	}

	return &Ranker{
		evaluator:   evaluator,
		concurrency: opts.Concurrency,
		callTimeout: opts.CallTimeout,
		exclusions:  opts.Exclusions,
		logger:      log,
	}
}

// WithoutFilters returns a copy of the ranker that skips the named pool filters.
func (r *Ranker) WithoutFilters(reason string, names ...string) *Ranker {
	out := *r
	out.disabled = make(map[string]string, len(r.disabled)+len(names))
	for name, why := range r.disabled {
		out.disabled[name] = why
	}
	for _, name := range names {
		out.disabled[name] = reason
	}
	return &out
}

// Rank returns up to k results ordered by score, then confidence (both descending),
// then candidate id. Candidates whose evaluation fails are scored by the fallback
// heuristics. When ctx is cancelled no new evaluations start, the running ones are
// awaited and Rank returns ctx.Err().
func (r *Ranker) Rank(ctx context.Context, req requirement.Requirement, candidates []profile.Candidate, k int) ([]scoring.MatchResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", ErrInvalidInput, k)
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: no candidates", ErrInvalidInput)
	}
	for i, c := range candidates {
		if strings.TrimSpace(c.ID) == "" {
			return nil, fmt.Errorf("%w: candidate %d has an empty id", ErrInvalidInput, i)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	log := logger.WithFields(r.logger, logger.MatchFields(runID, req.ID, "")...)

	steps := filtering.Default()
	for name, reason := range r.disabled {
		filtering.DisableByName(steps, name, reason)
	}

	pool, err := filtering.Run(ctx, r.exclusions, filtering.Deps{Logger: log}, steps, filtering.NewPool(candidates))
	if err != nil {
		return nil, fmt.Errorf("filter candidates: %w", err)
	}
	log.Debug("candidate pool filtered",
		zap.Any("filters", filtering.Describe(steps)),
		zap.Strings("candidates", pool.IDs()),
	)
	if pool.Len() == 0 {
		log.Info("no candidates left after filtering")
		return []scoring.MatchResult{}, nil
	}

	log.Info("ranking candidates",
		zap.Int("candidates", pool.Len()),
		zap.Int("top_k", k),
		zap.Int("concurrency", r.concurrency),
	)

	results := make([]scoring.MatchResult, pool.Len())
	sem := semaphore.NewWeighted(int64(r.concurrency))
	var g errgroup.Group
	var stopped error

	for i, c := range pool.Items {
		if err := sem.Acquire(ctx, 1); err != nil {
			stopped = err
			break
		}
		g.Go(func() error {
			defer sem.Release(1)
			results[i] = r.evaluate(ctx, log, req, c)
			return nil
		})
	}
	_ = g.Wait()

	if stopped == nil {
		stopped = ctx.Err()
	}
	if stopped != nil {
		log.Warn("ranking cancelled", zap.Error(stopped))
		return nil, stopped
	}

	slices.SortStableFunc(results, compare)
	if len(results) > k {
		results = results[:k]
	}

	log.Info("ranking completed", zap.Int("results", len(results)))
	return results, nil
}

// evaluate runs one evaluation under its own timeout, detached from the caller's
// cancellation so a started call can finish.
func (r *Ranker) evaluate(ctx context.Context, log *zap.Logger, req requirement.Requirement, c profile.Candidate) scoring.MatchResult {
	log = log.With(zap.String(logger.FieldCandidate, c.ID))

	if r.evaluator == nil {
		return scoring.Fallback(c, req)
	}

	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.callTimeout)
	defer cancel()

	started := time.Now()
	result, err := r.evaluator.Evaluate(callCtx, c, req)
	if err != nil {
		log.Warn("evaluation failed, using fallback heuristics", zap.Error(err))
		result = scoring.Fallback(c, req)
	}

	result = result.WithIDs(c.ID, req.ID)
	log.Debug("candidate scored",
		zap.String(logger.FieldSource, string(result.Source)),
		zap.Float64("score", result.Score),
		zap.Duration("took", time.Since(started)),
	)
	return result
}

func compare(a, b scoring.MatchResult) int {
	if c := cmp.Compare(b.Score, a.Score); c != 0 {
		return c
	}
	if c := cmp.Compare(b.Confidence, a.Confidence); c != 0 {
		return c
	}
	return cmp.Compare(a.CandidateID, b.CandidateID)
}
