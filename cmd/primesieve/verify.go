package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/jamesainslie/primesieve/pkg/primesieve/manifest"
	"github.com/jamesainslie/primesieve/pkg/primesieve/output"
	"github.com/jamesainslie/primesieve/pkg/primesieve/sieve"
	"github.com/jamesainslie/primesieve/pkg/primesieve/types"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// errVerifyMismatch is returned when the parallel and reference sieves disagree.
var errVerifyMismatch = errors.New("parallel sieve disagrees with reference sieve")

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check the parallel sieve against a single-threaded sieve",
	Long: `Run the segmented parallel sieve and a plain single-threaded Sieve of
Eratosthenes over the same bound, then compare the prime count, the prime sum
and the largest primes. The reference sieve needs a second flag array, so
verify uses twice the memory of a normal run.`,
	Args: cobra.NoArgs,
	RunE: runVerify,
}

func init() {
	verifyCmd.Flags().IntP("top", "k", 0, "number of largest primes to compare")
	rootCmd.AddCommand(verifyCmd)
}

// verifyReport compares one run against the reference.
type verifyReport struct {
	parallel  *types.Result
	reference sieve.Summary
	refTime   time.Duration
}

func (r verifyReport) mismatches() []string {
	var out []string
	if r.parallel.Count != r.reference.Count {
		out = append(out, fmt.Sprintf("count: parallel %d, reference %d", r.parallel.Count, r.reference.Count))
	}
	if r.parallel.Sum != r.reference.Sum.String() {
		out = append(out, fmt.Sprintf("sum: parallel %s, reference %s", r.parallel.Sum, r.reference.Sum))
	}
	if !slices.Equal(r.parallel.Largest, r.reference.Largest) {
		out = append(out, fmt.Sprintf("largest: parallel %v, reference %v", r.parallel.Largest, r.reference.Largest))
	}
	return out
}

// runVerify runs both sieves and compares their results.
func runVerify(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("top") {
		cfg.TopK, _ = cmd.Flags().GetInt("top")
	}

	opts, err := resolveOptions(cfg)
	if err != nil {
		return err
	}
	// The reference sieve allocates a second arena.
	if opts.MaxMemory > 0 {
		opts.MaxMemory /= 2
		if err := opts.Validate(); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := verify(ctx, opts)
	if cfg.History.Enabled && !viper.GetBool("no_history") {
		var r *types.Result
		if report != nil {
			r = report.parallel
		}
		recordRun(cfg, manifest.OpVerify, opts, r, err)
	}
	if err != nil {
		return err
	}

	printInfo("parallel:  %s primes, sum %s, %ss (W=%d)",
		types.FormatCount(report.parallel.Count), types.FormatBigCount(report.parallel.Sum),
		output.FormatSeconds(report.parallel.Elapsed), report.parallel.Workers)
	printInfo("reference: %s primes, sum %s, %ss",
		types.FormatCount(report.reference.Count), types.FormatBigCount(report.reference.Sum.String()),
		output.FormatSeconds(report.refTime))

	fmt.Println(output.MutedStyle.Render("largest:"), output.FormatPrimes(report.parallel.Largest))
	fmt.Println(output.TitleStyle.Render("OK"), "parallel and reference sieves agree up to", report.parallel.Limit)
	return nil
}

// verify runs the parallel sieve, then the reference sieve, and compares them.
func verify(ctx context.Context, opts sieve.Options) (*verifyReport, error) {
	parallel, err := sieve.Run(ctx, opts)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	reference, err := sieve.ReferenceSummary(opts.Limit, opts.TopK)
	if err != nil {
		return nil, err
	}

	report := &verifyReport{parallel: parallel, reference: reference, refTime: time.Since(start)}

	// A gap under the equal policy makes the parallel result wrong by design.
	if parallel.Gap != nil {
		return report, fmt.Errorf("%w: %s left unsieved by --partition %s",
			errVerifyMismatch, parallel.Gap, opts.Policy)
	}
	if diffs := report.mismatches(); len(diffs) > 0 {
		for _, d := range diffs {
			printWarning("%s", d)
		}
		return report, fmt.Errorf("%w: %d field(s) differ", errVerifyMismatch, len(diffs))
	}
	return report, nil
}
