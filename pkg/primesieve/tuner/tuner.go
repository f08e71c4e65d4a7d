package tuner

import (
	"fmt"

	"github.com/jamesainslie/primesieve/pkg/primesieve/logging"
	"github.com/jamesainslie/primesieve/pkg/primesieve/sieve"
	"github.com/jamesainslie/primesieve/pkg/primesieve/types"
)

var logger = logging.Get("tuner")

const (
	// maxWorkers is the maximum number of segment workers.
	maxWorkers = 64

	// minWorkers is the minimum number of segment workers.
	minWorkers = 1

	// memoryFraction is the share of available RAM the flag arena may use.
	memoryFraction = 0.8
)

// Plan is a resource-derived configuration for a sieve run.
type Plan struct {
	// Workers is the number of segment workers.
	Workers int

	// MaxMemory is the arena memory budget in bytes. Zero means unknown.
	MaxMemory int64
}

// Calculate returns a plan based on system resources.
//
// Marking is CPU bound, so one worker per logical core is used, capped at 64.
// The memory budget is 80% of available RAM.
func Calculate(resources SystemResources) Plan {
	workers := max(resources.CPUCores, minWorkers)
	workers = min(workers, maxWorkers)

	var budget int64
	if resources.AvailableRAM > 0 {
		budget = int64(float64(resources.AvailableRAM) * memoryFraction)
	}

	return Plan{
		Workers:   workers,
		MaxMemory: budget,
	}
}

// CalculateWithOverrides applies a user worker override to the plan.
// An override of 0 or less keeps the calculated worker count. Overrides are
// not capped: an explicit worker count is honored as given.
func CalculateWithOverrides(resources SystemResources, workerOverride int) Plan {
	plan := Calculate(resources)
	if workerOverride > 0 {
		plan.Workers = workerOverride
	}
	return plan
}

// CheckMemory reports ErrResourceExhaustion when the flag arena for limit
// would not fit in the plan's memory budget.
func CheckMemory(plan Plan, limit int) error {
	need := sieve.ArenaBytes(limit)
	if plan.MaxMemory <= 0 {
		logger.Debug("memory budget unknown, skipping check", "need", types.FormatSize(need))
		return nil
	}
	if need > plan.MaxMemory {
		return fmt.Errorf("%w: limit %d needs %s of flags, %s available",
			sieve.ErrResourceExhaustion, limit, types.FormatSize(need), types.FormatSize(plan.MaxMemory))
	}
	logger.Debug("memory check passed", "need", types.FormatSize(need), "budget", types.FormatSize(plan.MaxMemory))
	return nil
}
