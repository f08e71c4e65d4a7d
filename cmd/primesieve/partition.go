package main

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/jamesainslie/primesieve/pkg/primesieve/sieve"
	"github.com/jamesainslie/primesieve/pkg/primesieve/types"
	"github.com/spf13/cobra"
)

var partitionCmd = &cobra.Command{
	Use:   "partition",
	Short: "Show how (sqrt N, N] is split among workers",
	Long: `Print the range each worker would sieve for the configured bound, worker
count and partition policy, and report any integers left unassigned.
No sieving is done.`,
	Args: cobra.NoArgs,
	RunE: runPartition,
}

func init() {
	rootCmd.AddCommand(partitionCmd)
}

// runPartition prints the worker ranges and the coverage check.
func runPartition(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	opts, err := cfg.SieveOptions()
	if err != nil {
		return err
	}
	opts.Workers = planFor(opts.Workers).Workers

	n := opts.Limit
	m := sieve.ISqrt(n)
	ranges, err := sieve.Partition(n, m, opts.Workers, opts.Policy)
	if err != nil {
		return err
	}

	printInfo("N=%s  M=floor(sqrt N)=%s  W=%d  policy=%s",
		types.FormatCount(int64(n)), types.FormatCount(int64(m)), opts.Workers, opts.Policy)

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "WORKER\tLO\tHI\tLENGTH\t")
	for i, r := range ranges {
		if r.Empty() {
			fmt.Fprintf(tw, "%d\t-\t-\t0\t\n", i)
			continue
		}
		fmt.Fprintf(tw, "%d\t%d\t%d\t%s\t\n", i, r.Lo, r.Hi, types.FormatCount(int64(r.Len())))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	gap, err := sieve.Coverage(ranges, m, n)
	switch {
	case err == nil:
		printInfo("coverage: ranges are disjoint and cover (%d, %d] exactly", m, n)
		return nil
	case errors.Is(err, sieve.ErrCoverageGap):
		printWarning("%s integers in %s are not assigned to any worker",
			types.FormatCount(int64(gap.Len())), gap)
		return nil
	default:
		return err
	}
}
