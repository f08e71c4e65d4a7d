package sieve

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/jamesainslie/primesieve/pkg/primesieve/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestISqrt(t *testing.T) {
	tests := []struct {
		n    int
		want int
	}{
		{0, 0}, {1, 1}, {2, 1}, {3, 1}, {4, 2}, {8, 2}, {9, 3},
		{30, 5}, {99, 9}, {100, 10}, {101, 10},
		{100_000_000, 10_000},
		{999_999_999_999, 999_999},
		{math.MaxInt64, 3_037_000_499},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ISqrt(tt.n), "ISqrt(%d)", tt.n)
	}
}

func TestNewArena(t *testing.T) {
	a, err := NewArena(10)
	require.NoError(t, err)
	assert.Equal(t, 10, a.Limit())
	assert.Equal(t, 11, a.Len())
	assert.True(t, a.Composite(0))
	assert.True(t, a.Composite(1))
	for i := 2; i <= 10; i++ {
		assert.False(t, a.Composite(i), "index %d should start unmarked", i)
	}

	one, err := NewArena(1)
	require.NoError(t, err)
	assert.True(t, one.Composite(1))

	_, err = NewArena(-1)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewArena(math.MaxInt)
	assert.ErrorIs(t, err, ErrResourceExhaustion)
}

func TestNewArena_RefusedAllocation(t *testing.T) {
	_, err := NewArena(math.MaxInt - 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrResourceExhaustion)
}

func TestArenaSegment(t *testing.T) {
	a, err := NewArena(30)
	require.NoError(t, err)

	seg, err := a.Segment(types.Range{Lo: 6, Hi: 10})
	require.NoError(t, err)
	assert.Len(t, seg, 5)
	assert.Equal(t, 5, cap(seg), "segment capacity must be clipped to its range")

	seg[0] = true
	assert.True(t, a.Composite(6), "segment must alias the arena")

	empty, err := a.Segment(types.Range{Lo: 6, Hi: 5})
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = a.Segment(types.Range{Lo: 25, Hi: 31})
	assert.ErrorIs(t, err, ErrRangeOutOfBounds)
}

func TestArenaMarkFlags(t *testing.T) {
	a, err := NewArena(12)
	require.NoError(t, err)

	a.Mark(9)
	a.Mark(9)
	assert.True(t, a.Composite(9))

	flags := a.Flags()
	require.Len(t, flags, a.Len())
	assert.True(t, flags[9])
	assert.False(t, flags[11])

	s, err := Aggregate(a, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(10), s.Count, "2..12 minus the marked 9")
	assert.Equal(t, []int{12}, s.Largest)
}

func TestSeedPrimes(t *testing.T) {
	a, err := NewArena(30)
	require.NoError(t, err)

	m := ISqrt(30)
	require.Equal(t, 5, m)

	primes := SeedPrimes(a, m)
	assert.Equal(t, []int{2, 3, 5}, primes)
	assert.True(t, a.Composite(4))
	assert.False(t, a.Composite(5))
	assert.False(t, a.Composite(6), "seed sieve must not mark beyond M")
}

func TestSeedPrimes_MatchesReference(t *testing.T) {
	for _, m := range []int{2, 10, 97, 1000, 10_000} {
		a, err := NewArena(m)
		require.NoError(t, err)
		assert.Equal(t, ReferencePrimes(m), SeedPrimes(a, m), "seed primes up to %d", m)
	}
}

func TestPartition(t *testing.T) {
	tests := []struct {
		name    string
		n, m, w int
		policy  PartitionPolicy
		want    []types.Range
		wantErr error
	}{
		{
			name: "divisible split",
			n:    30, m: 5, w: 5,
			policy: PolicyRemainderLast,
			want:   []types.Range{{6, 10}, {11, 15}, {16, 20}, {21, 25}, {26, 30}},
		},
		{
			name: "remainder goes to last worker",
			n:    100, m: 10, w: 4,
			policy: PolicyRemainderLast,
			want:   []types.Range{{11, 32}, {33, 54}, {55, 76}, {77, 100}},
		},
		{
			name: "equal split leaves tail",
			n:    100, m: 10, w: 4,
			policy: PolicyEqual,
			want:   []types.Range{{11, 32}, {33, 54}, {55, 76}, {77, 98}},
		},
		{
			name: "strict split rejects remainder",
			n:    100, m: 10, w: 4,
			policy:  PolicyStrict,
			wantErr: ErrCoverageGap,
		},
		{
			name: "strict split accepts divisible",
			n:    108, m: 10, w: 7,
			policy: PolicyStrict,
			want:   []types.Range{{11, 24}, {25, 38}, {39, 52}, {53, 66}, {67, 80}, {81, 94}, {95, 108}},
		},
		{
			name: "more workers than integers",
			n:    2, m: 1, w: 3,
			policy: PolicyRemainderLast,
			want:   []types.Range{{2, 1}, {2, 1}, {2, 2}},
		},
		{
			name: "nothing above seed bound",
			n:    1, m: 1, w: 2,
			policy: PolicyRemainderLast,
			want:   []types.Range{{2, 1}, {2, 1}},
		},
		{
			name: "zero workers",
			n:    100, m: 10, w: 0,
			wantErr: ErrInvalidConfig,
		},
		{
			name: "seed bound above limit",
			n:    10, m: 11, w: 1,
			wantErr: ErrInvalidConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Partition(tt.n, tt.m, tt.w, tt.policy)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPartition_DisjointAndCovering(t *testing.T) {
	for _, n := range []int{2, 3, 17, 100, 1000, 12345} {
		m := ISqrt(n)
		for w := 1; w <= 16; w++ {
			ranges, err := Partition(n, m, w, PolicyRemainderLast)
			require.NoError(t, err)
			require.Len(t, ranges, w)

			for i := range ranges {
				for j := i + 1; j < len(ranges); j++ {
					assert.False(t, ranges[i].Overlaps(ranges[j]),
						"n=%d w=%d: ranges %s and %s overlap", n, w, ranges[i], ranges[j])
				}
			}

			gap, err := Coverage(ranges, m, n)
			assert.NoError(t, err, "n=%d w=%d", n, w)
			assert.True(t, gap.Empty() || gap == types.Range{}, "n=%d w=%d gap=%s", n, w, gap)
		}
	}
}

func TestPartition_EqualSplitGap(t *testing.T) {
	for _, n := range []int{30, 100, 1000, 12345} {
		m := ISqrt(n)
		for w := 1; w <= 12; w++ {
			ranges, err := Partition(n, m, w, PolicyEqual)
			require.NoError(t, err)

			gap, err := Coverage(ranges, m, n)
			rem := (n - m) % w
			if rem == 0 {
				assert.NoError(t, err, "n=%d w=%d divisible split must cover exactly", n, w)
				continue
			}
			require.ErrorIs(t, err, ErrCoverageGap, "n=%d w=%d", n, w)
			assert.Equal(t, rem, gap.Len(), "n=%d w=%d gap length", n, w)
			assert.Equal(t, n, gap.Hi)
		}
	}
}

func TestCoverage_Overlap(t *testing.T) {
	ranges := []types.Range{{6, 12}, {10, 20}, {21, 30}}
	_, err := Coverage(ranges, 5, 30)
	assert.ErrorIs(t, err, ErrRangeOverlap)

	ranges = []types.Range{{6, 12}, {13, 31}}
	_, err = Coverage(ranges, 5, 30)
	assert.ErrorIs(t, err, ErrRangeOutOfBounds)

	ranges = []types.Range{{6, 12}, {15, 30}}
	hole, err := Coverage(ranges, 5, 30)
	assert.ErrorIs(t, err, ErrCoverageGap)
	assert.Equal(t, types.Range{Lo: 13, Hi: 14}, hole)
}

func TestParsePolicy(t *testing.T) {
	for _, p := range []PartitionPolicy{PolicyRemainderLast, PolicyStrict, PolicyEqual} {
		got, err := ParsePolicy(p.String())
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}

	got, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyRemainderLast, got)

	_, err = ParsePolicy("balanced")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestMarkSegment(t *testing.T) {
	a, err := NewArena(30)
	require.NoError(t, err)
	primes := SeedPrimes(a, 5)

	ranges, err := Partition(30, 5, 3, PolicyRemainderLast)
	require.NoError(t, err)

	strikes := 0
	for _, r := range ranges {
		seg, err := a.Segment(r)
		require.NoError(t, err)
		MarkSegment(seg, r, primes, func() { strikes++ })
	}
	assert.Equal(t, len(ranges)*len(primes), strikes)

	var got []int
	for i := 0; i <= 30; i++ {
		if !a.Composite(i) {
			got = append(got, i)
		}
	}
	assert.Equal(t, []int{2, 3, 5, 7, 11, 13, 17, 19, 23, 29}, got)
	assert.True(t, a.Composite(25))
	assert.True(t, a.Composite(27))
}

func TestMarkSegment_KeepsPrimeInsideRange(t *testing.T) {
	seg := make([]bool, 10)
	r := types.Range{Lo: 1, Hi: 10}
	MarkSegment(seg, r, []int{2, 3}, nil)

	composites := map[int]bool{4: true, 6: true, 8: true, 9: true, 10: true}
	for i := r.Lo; i <= r.Hi; i++ {
		assert.Equal(t, composites[i], seg[i-r.Lo], "index %d", i)
	}
}

func TestAggregate(t *testing.T) {
	a := populated(t, 100, 4)

	s, err := Aggregate(a, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(25), s.Count)
	assert.Equal(t, "1060", s.Sum.String())
	assert.Equal(t, []int{83, 89, 97}, s.Largest)

	s, err = Aggregate(a, 6)
	require.NoError(t, err)
	assert.Equal(t, []int{71, 73, 79, 83, 89, 97}, s.Largest)

	s, err = Aggregate(a, 0)
	require.NoError(t, err)
	assert.Empty(t, s.Largest)

	s, err = Aggregate(a, 25)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Largest[0])

	_, err = Aggregate(a, 26)
	assert.ErrorIs(t, err, ErrTooFewPrimes)

	_, err = Aggregate(a, -1)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestSum(t *testing.T) {
	var s Sum
	s.Add(math.MaxUint64)
	s.Add(2)
	assert.Equal(t, "18446744073709551617", s.String())
	assert.Equal(t, "18446744073709551617", s.Big().String())

	var small Sum
	small.Add(1060)
	assert.Equal(t, "1060", small.String())
}

func TestPrimeCountUpperBound(t *testing.T) {
	assert.Equal(t, 0, PrimeCountUpperBound(1))
	for _, n := range []int{2, 3, 10, 100, 1000, 100_000} {
		count, _ := ReferenceCount(n)
		assert.GreaterOrEqual(t, int64(PrimeCountUpperBound(n)), count, "bound for %d", n)
	}
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr error
	}{
		{name: "defaults", opts: DefaultOptions()},
		{name: "zero limit", opts: Options{Limit: 0, Workers: 1}, wantErr: ErrInvalidConfig},
		{name: "zero workers", opts: Options{Limit: 10, Workers: 0}, wantErr: ErrInvalidConfig},
		{name: "negative top", opts: Options{Limit: 10, Workers: 1, TopK: -1}, wantErr: ErrInvalidConfig},
		{name: "unknown policy", opts: Options{Limit: 10, Workers: 1, Policy: PartitionPolicy(9)}, wantErr: ErrInvalidConfig},
		{name: "top exceeds prime bound", opts: Options{Limit: 10, Workers: 1, TopK: 50}, wantErr: ErrTooFewPrimes},
		{name: "top with no primes", opts: Options{Limit: 1, Workers: 1, TopK: 1}, wantErr: ErrTooFewPrimes},
		{name: "strict non divisible", opts: Options{Limit: 100, Workers: 4, Policy: PolicyStrict}, wantErr: ErrCoverageGap},
		{name: "strict divisible", opts: Options{Limit: 100, Workers: 5, Policy: PolicyStrict}},
		{name: "memory budget", opts: Options{Limit: 1000, Workers: 1, MaxMemory: 100}, wantErr: ErrResourceExhaustion},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRun_Scenario100(t *testing.T) {
	res, err := Run(context.Background(), Options{Limit: 100, Workers: 4, TopK: 3})
	require.NoError(t, err)

	assert.Equal(t, int64(25), res.Count)
	assert.Equal(t, "1060", res.Sum)
	assert.Equal(t, []int{83, 89, 97}, res.Largest)
	assert.Equal(t, 10, res.SeedBound)
	assert.Equal(t, 4, res.SeedPrimes)
	assert.Len(t, res.Ranges, 4)
	assert.Nil(t, res.Gap)
}

func TestRun_Boundaries(t *testing.T) {
	res, err := Run(context.Background(), Options{Limit: 2, Workers: 4, TopK: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Count)
	assert.Equal(t, "2", res.Sum)
	assert.Equal(t, []int{2}, res.Largest)

	res, err = Run(context.Background(), Options{Limit: 1, Workers: 4})
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.Count)
	assert.Equal(t, "0", res.Sum)
	assert.Empty(t, res.Largest)
}

func TestRun_MatchesReference(t *testing.T) {
	limits := []int{2, 3, 4, 10, 30, 97, 100, 1000, 4096, 10_007, 65_536}
	for _, n := range limits {
		wantCount, wantSum := ReferenceCount(n)
		for _, w := range []int{1, 2, 3, 4, 7, 8, 16} {
			res, err := Run(context.Background(), Options{Limit: n, Workers: w})
			require.NoError(t, err, "n=%d w=%d", n, w)
			assert.Equal(t, wantCount, res.Count, "count n=%d w=%d", n, w)
			assert.Equal(t, wantSum.String(), res.Sum, "sum n=%d w=%d", n, w)
		}
	}
}

func TestRun_OneMillion(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping large sieve in short mode")
	}
	res, err := Run(context.Background(), Options{Limit: 1_000_000, Workers: 8, TopK: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(78498), res.Count)
	assert.Equal(t, "37550402023", res.Sum)
	require.Len(t, res.Largest, 10)
	assert.Equal(t, 999983, res.Largest[9])

	ref := ReferencePrimes(1_000_000)
	assert.Equal(t, ref[len(ref)-10:], res.Largest)
}

func TestRun_Idempotent(t *testing.T) {
	opts := Options{Limit: 50_000, Workers: 6, TopK: 10}
	first, err := Run(context.Background(), opts)
	require.NoError(t, err)
	second, err := Run(context.Background(), opts)
	require.NoError(t, err)

	assert.Equal(t, first.Count, second.Count)
	assert.Equal(t, first.Sum, second.Sum)
	assert.Equal(t, first.Largest, second.Largest)
}

func TestRun_EqualPolicyReportsGap(t *testing.T) {
	// N-M = 90, not divisible by 4: 2 integers (99, 100) stay unassigned.
	res, err := Run(context.Background(), Options{Limit: 100, Workers: 4, Policy: PolicyEqual})
	require.NoError(t, err)
	require.NotNil(t, res.Gap)
	assert.Equal(t, types.Range{Lo: 99, Hi: 100}, *res.Gap)

	// 99 and 100 are left unmarked and counted as primes.
	assert.Equal(t, int64(27), res.Count)
}

func TestRun_StrictPolicyRejectsBeforeWork(t *testing.T) {
	var calls int
	_, err := Run(context.Background(), Options{
		Limit:      100,
		Workers:    4,
		Policy:     PolicyStrict,
		OnProgress: func(types.Progress) { calls++ },
	})
	require.ErrorIs(t, err, ErrCoverageGap)
	assert.True(t, IsConfigError(err))
	assert.Zero(t, calls, "no phase may start after a failed precondition")
}

func TestRun_TooFewPrimesAfterAggregation(t *testing.T) {
	// The upper bound for N=20 admits K=9, but only 8 primes exist.
	_, err := Run(context.Background(), Options{Limit: 20, Workers: 2, TopK: 9})
	require.ErrorIs(t, err, ErrTooFewPrimes)
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, Options{Limit: 1000, Workers: 2})
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestRun_Progress(t *testing.T) {
	var mu sync.Mutex
	var phases []types.Phase
	opts := Options{
		Limit:   10_000,
		Workers: 4,
		OnProgress: func(p types.Progress) {
			mu.Lock()
			defer mu.Unlock()
			if len(phases) == 0 || phases[len(phases)-1] != p.Phase {
				phases = append(phases, p.Phase)
			}
		},
	}

	s := New(opts)
	_, err := s.Run(context.Background())
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, types.PhaseSeed, phases[0])
	assert.Equal(t, types.PhaseDone, phases[len(phases)-1])
	assert.Contains(t, phases, types.PhaseSegments)

	final := s.Progress()
	assert.Equal(t, int64(4), final.WorkersDone)
	assert.Equal(t, final.StrikesTotal, final.StrikesDone)
	assert.Equal(t, float64(1), final.Fraction())
}

// populated returns an arena for n with the seed and segment phases applied.
func populated(t *testing.T, n, w int) *Arena {
	t.Helper()
	a, err := NewArena(n)
	require.NoError(t, err)
	m := ISqrt(n)
	primes := SeedPrimes(a, m)
	ranges, err := Partition(n, m, w, PolicyRemainderLast)
	require.NoError(t, err)
	for _, r := range ranges {
		seg, err := a.Segment(r)
		require.NoError(t, err)
		MarkSegment(seg, r, primes, nil)
	}
	return a
}

func TestReferenceSummary(t *testing.T) {
	s, err := ReferenceSummary(100, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(25), s.Count)
	assert.Equal(t, "1060", s.Sum.String())
	assert.Equal(t, []int{83, 89, 97}, s.Largest)

	_, err = ReferenceSummary(-1, 0)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
