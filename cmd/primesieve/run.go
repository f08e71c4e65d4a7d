package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jamesainslie/primesieve/cmd/primesieve/tui"
	"github.com/jamesainslie/primesieve/pkg/primesieve/cache"
	"github.com/jamesainslie/primesieve/pkg/primesieve/config"
	"github.com/jamesainslie/primesieve/pkg/primesieve/manifest"
	"github.com/jamesainslie/primesieve/pkg/primesieve/output"
	"github.com/jamesainslie/primesieve/pkg/primesieve/sieve"
	"github.com/jamesainslie/primesieve/pkg/primesieve/tuner"
	"github.com/jamesainslie/primesieve/pkg/primesieve/types"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// runSieve is the main command handler.
func runSieve(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	opts, err := resolveOptions(cfg)
	if err != nil {
		return err
	}

	formatter, err := formatterFor(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, runErr := execute(ctx, cfg, opts)

	if cfg.History.Enabled && !viper.GetBool("no_history") {
		recordRun(cfg, manifest.OpRun, opts, result, runErr)
	}

	if runErr != nil {
		if errors.Is(runErr, context.Canceled) {
			printInfo("Interrupted")
		}
		return runErr
	}

	if result.Gap != nil {
		printWarning("%s integers in %s were not assigned to any worker and are counted as prime",
			types.FormatCount(int64(result.Gap.Len())), result.Gap)
	}

	return output.WriteWith(formatter, cfg.Output.Path, result)
}

// resolveOptions validates the configuration and fills in the worker count
// and memory budget from the detected system resources.
func resolveOptions(cfg *config.Config) (sieve.Options, error) {
	opts, err := cfg.SieveOptions()
	if err != nil {
		return opts, err
	}

	plan := planFor(opts.Workers)
	opts.Workers = plan.Workers
	printVerbose("Run: N=%d W=%d K=%d partition=%s", opts.Limit, opts.Workers, opts.TopK, opts.Policy)

	if cfg.Memory.Check {
		if err := tuner.CheckMemory(plan, opts.Limit); err != nil {
			return opts, err
		}
		opts.MaxMemory = plan.MaxMemory
	}

	return opts, opts.Validate()
}

// planFor detects system resources and applies a worker override, where
// 0 means one worker per CPU.
func planFor(workers int) tuner.Plan {
	resources, err := tuner.Detect()
	if err != nil {
		printVerbose("Failed to detect system resources, using defaults: %v", err)
		resources = tuner.SystemResources{
			CPUCores:     sieve.DefaultWorkers,
			TotalRAM:     8 * types.GiB,
			AvailableRAM: 4 * types.GiB,
		}
	}

	printVerbose("System: %d CPUs, %s RAM, %s available",
		resources.CPUCores,
		types.FormatSize(resources.TotalRAM),
		types.FormatSize(resources.AvailableRAM))

	return tuner.CalculateWithOverrides(resources, workers)
}

// formatterFor returns the configured output formatter.
func formatterFor(cfg *config.Config) (output.Formatter, error) {
	if cfg.Output.Format == "template" && cfg.Output.Template != "" {
		f, err := output.ParseTemplate(cfg.Output.Template)
		if err != nil {
			return nil, err
		}
		return f, nil
	}
	return output.Get(cfg.Output.Format)
}

// execute answers from the cache when enabled, otherwise runs the sieve
// and stores the result.
func execute(ctx context.Context, cfg *config.Config, opts sieve.Options) (*types.Result, error) {
	var store *cache.Store
	if cfg.Cache.Enabled {
		s, err := cache.OpenStore(cfg.Cache.Path)
		if err != nil {
			printWarning("result cache unavailable: %v", err)
		} else {
			store = s
			defer func() { _ = store.Close() }()
		}
	}

	key := cache.NewKey(opts.Limit, opts.Policy, opts.Workers)
	if store != nil {
		r, err := store.Get(key, opts.TopK, opts.Workers)
		if err == nil {
			printVerbose("Answered from cache (%s)", cfg.Cache.Path)
			return r, nil
		}
		if !errors.Is(err, cache.ErrNotFound) {
			printWarning("reading result cache: %v", err)
		}
	}

	var (
		result *types.Result
		err    error
	)
	if viper.GetBool("tui") {
		result, err = tui.Run(ctx, opts)
	} else {
		result, err = sieve.Run(ctx, opts)
	}
	if err != nil {
		return nil, err
	}

	if store != nil {
		if err := store.Put(key, result); err != nil {
			printWarning("writing result cache: %v", err)
		}
	}
	return result, nil
}

// recordRun appends a history entry. Failures to record are reported but
// never fail the run.
func recordRun(cfg *config.Config, op manifest.OperationType, opts sieve.Options, r *types.Result, runErr error) {
	m, err := manifest.New(cfg.History.Path)
	if err != nil {
		printVerbose("history disabled: %v", err)
		return
	}
	if err := m.EnsureDir(); err != nil {
		printVerbose("history disabled: %v", err)
		return
	}

	params := manifest.Params{
		Limit:     opts.Limit,
		Workers:   opts.Workers,
		TopK:      opts.TopK,
		Partition: opts.Policy.String(),
	}
	if _, err := m.LogRun(op, params, r, runErr); err != nil {
		printVerbose("failed to record run: %v", err)
	}

	if cfg.History.RetentionDays > 0 {
		if _, err := m.Cleanup(cfg.History.RetentionDays); err != nil {
			printVerbose("history cleanup failed: %v", err)
		}
	}
}

// describeError adds a hint for errors that name a failed precondition.
func describeError(err error) string {
	switch {
	case errors.Is(err, sieve.ErrTooFewPrimes):
		return fmt.Sprintf("%v (lower --top or raise --limit; K is checked against an upper bound "+
			"on the prime count before sieving and rechecked against the exact count after)", err)
	case errors.Is(err, sieve.ErrCoverageGap):
		return fmt.Sprintf("%v (choose a worker count that divides N-sqrt(N), or --partition remainder)", err)
	case errors.Is(err, sieve.ErrResourceExhaustion):
		return fmt.Sprintf("%v (lower --limit, or set memory.check: false to try anyway)", err)
	default:
		return err.Error()
	}
}
