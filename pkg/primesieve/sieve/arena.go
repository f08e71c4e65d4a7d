package sieve

import (
	"fmt"
	"math"

	"github.com/jamesainslie/primesieve/pkg/primesieve/types"
)

// Arena is the composite-flag array for [0, limit]. flags[i] is true iff i is
// known composite or i < 2. The orchestrator owns the arena; each worker is
// handed only the sub-slice for its own range.
type Arena struct {
	flags []bool
	limit int
}

// NewArena allocates flags for [0, limit] and marks 0 and 1.
// An allocation the runtime refuses is reported as ErrResourceExhaustion.
func NewArena(limit int) (a *Arena, err error) {
	if limit < 0 {
		return nil, fmt.Errorf("%w: limit %d is negative", ErrInvalidConfig, limit)
	}
	if limit == math.MaxInt {
		return nil, fmt.Errorf("%w: limit %d leaves no room for the flag array", ErrResourceExhaustion, limit)
	}

	defer func() {
		if r := recover(); r != nil {
			a = nil
			err = fmt.Errorf("%w: allocating %s of flags: %v",
				ErrResourceExhaustion, types.FormatSize(int64(limit)+1), r)
		}
	}()

	flags := make([]bool, limit+1)
	flags[0] = true
	if limit >= 1 {
		flags[1] = true
	}

	return &Arena{flags: flags, limit: limit}, nil
}

// Limit returns the inclusive upper bound N.
func (a *Arena) Limit() int {
	return a.limit
}

// Len returns the number of flags, N+1.
func (a *Arena) Len() int {
	return len(a.flags)
}

// Composite reports whether i is marked composite.
func (a *Arena) Composite(i int) bool {
	return a.flags[i]
}

// Mark marks i composite.
func (a *Arena) Mark(i int) {
	a.flags[i] = true
}

// Segment returns the sub-slice owned by r; index 0 corresponds to r.Lo.
// The slice capacity is clipped to r so appends cannot reach a neighbour.
func (a *Arena) Segment(r types.Range) ([]bool, error) {
	if r.Empty() {
		return nil, nil
	}
	if r.Lo < 0 || r.Hi > a.limit {
		return nil, fmt.Errorf("%w: %s not within [0, %d]", ErrRangeOutOfBounds, r, a.limit)
	}
	return a.flags[r.Lo : r.Hi+1 : r.Hi+1], nil
}

// Flags returns the underlying flag slice for read-only scans.
func (a *Arena) Flags() []bool {
	return a.flags
}
