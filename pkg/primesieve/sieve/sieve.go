package sieve

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/jamesainslie/primesieve/pkg/primesieve/logging"
	"github.com/jamesainslie/primesieve/pkg/primesieve/types"
	"golang.org/x/sync/errgroup"
)

var logger = logging.Get("sieve")

// Sieve runs the two-phase segmented sieve.
type Sieve struct {
	opts Options

	// Atomic counters for thread-safe progress reporting.
	workersDone  atomic.Int64
	strikesDone  atomic.Int64
	strikesTotal atomic.Int64
	phase        atomic.Value

	startTime    time.Time
	lastProgress atomic.Int64
}

// New creates a Sieve with the given options. Options are validated by Run.
func New(opts Options) *Sieve {
	s := &Sieve{opts: opts}
	s.phase.Store(types.PhaseSeed)
	return s
}

// Run executes the seed sieve, forks one worker per range, joins them and
// aggregates the result. The context is consulted only between phases:
// workers always run their range to completion.
func (s *Sieve) Run(ctx context.Context) (*types.Result, error) {
	s.startTime = time.Now()

	if err := s.opts.Validate(); err != nil {
		return nil, err
	}

	n, w, k := s.opts.Limit, s.opts.Workers, s.opts.TopK
	log := logger.With("limit", n, "workers", w)

	arena, err := NewArena(n)
	if err != nil {
		return nil, err
	}

	// Phase 1: seed primes up to floor(sqrt(N)).
	s.setPhase(types.PhaseSeed)
	m := ISqrt(n)
	primes := SeedPrimes(arena, m)
	log.Debug("seed sieve complete", "seed_bound", m, "seed_primes", len(primes))

	// Phase 2: partition (M, N] and check disjointness and coverage.
	s.setPhase(types.PhasePartition)
	ranges, err := Partition(n, m, w, s.opts.Policy)
	if err != nil {
		return nil, err
	}

	var gap *types.Range
	if tail, err := Coverage(ranges, m, n); err != nil {
		if s.opts.Policy != PolicyEqual || !errors.Is(err, ErrCoverageGap) {
			return nil, err
		}
		gap = &tail
		log.Warn("partition leaves integers unassigned", "gap", tail.String(), "policy", s.opts.Policy.String())
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Phase 3: fork one worker per range, then join.
	busy := 0
	for _, r := range ranges {
		if !r.Empty() {
			busy++
		}
	}
	s.strikesTotal.Store(int64(busy) * int64(len(primes)))
	s.setPhase(types.PhaseSegments)

	onPrime := func() {
		s.strikesDone.Add(1)
		s.reportProgress()
	}

	parallelStart := time.Now()

	var g errgroup.Group
	for i, r := range ranges {
		g.Go(func() error {
			seg, err := arena.Segment(r)
			if err != nil {
				return fmt.Errorf("worker %d: %w", i, err)
			}
			MarkSegment(seg, r, primes, onPrime)
			s.workersDone.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	elapsed := time.Since(parallelStart)
	log.Debug("segment workers joined", "elapsed", elapsed)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Phase 4: aggregate.
	s.setPhase(types.PhaseAggregate)
	summary, err := Aggregate(arena, k)
	if err != nil {
		return nil, err
	}

	s.setPhase(types.PhaseDone)
	log.Info("sieve complete", "count", summary.Count, "sum", summary.Sum.String(), "elapsed", elapsed)

	return &types.Result{
		Limit:      n,
		Workers:    w,
		TopK:       k,
		SeedBound:  m,
		SeedPrimes: len(primes),
		Ranges:     ranges,
		Count:      summary.Count,
		Sum:        summary.Sum.String(),
		Largest:    summary.Largest,
		Elapsed:    elapsed,
		Gap:        gap,
	}, nil
}

// Progress returns a snapshot of the current progress.
func (s *Sieve) Progress() types.Progress {
	phase, _ := s.phase.Load().(types.Phase)
	var elapsed time.Duration
	if !s.startTime.IsZero() {
		elapsed = time.Since(s.startTime)
	}
	return types.Progress{
		Phase:        phase,
		Workers:      s.opts.Workers,
		WorkersDone:  s.workersDone.Load(),
		StrikesDone:  s.strikesDone.Load(),
		StrikesTotal: s.strikesTotal.Load(),
		Elapsed:      elapsed,
	}
}

// setPhase records a phase change and reports it immediately.
func (s *Sieve) setPhase(p types.Phase) {
	s.phase.Store(p)
	s.reportProgressForce()
}

// reportProgress calls the progress callback at most every 10ms.
func (s *Sieve) reportProgress() {
	if s.opts.OnProgress == nil {
		return
	}

	now := time.Now().UnixMilli()
	last := s.lastProgress.Load()
	if now-last < 10 {
		return
	}
	if !s.lastProgress.CompareAndSwap(last, now) {
		return
	}

	s.opts.OnProgress(s.Progress())
}

// reportProgressForce calls the progress callback immediately, bypassing the throttle.
func (s *Sieve) reportProgressForce() {
	if s.opts.OnProgress == nil {
		return
	}
	s.lastProgress.Store(time.Now().UnixMilli())
	s.opts.OnProgress(s.Progress())
}

// Run is a convenience wrapper that runs a sieve with opts.
func Run(ctx context.Context, opts Options) (*types.Result, error) {
	return New(opts).Run(ctx)
}
