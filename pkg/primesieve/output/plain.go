package output

import (
	"bytes"
	"fmt"
	"text/tabwriter"

	"github.com/jamesainslie/primesieve/pkg/primesieve/types"
)

// PlainFormatter formats output as an aligned key/value table.
// No colors or styling are applied.
type PlainFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PlainFormatter) Format(w *bytes.Buffer, r *types.Result) error {
	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)

	rows := [][2]string{
		{"LIMIT", fmt.Sprint(r.Limit)},
		{"WORKERS", fmt.Sprint(r.Workers)},
		{"SEED_BOUND", fmt.Sprint(r.SeedBound)},
		{"SEED_PRIMES", fmt.Sprint(r.SeedPrimes)},
		{"COUNT", fmt.Sprint(r.Count)},
		{"SUM", r.Sum},
		{"ELAPSED", FormatSeconds(r.Elapsed)},
		{"LARGEST", FormatPrimes(r.Largest)},
	}
	if r.Gap != nil {
		rows = append(rows, [2]string{"GAP", r.Gap.String()})
	}
	if r.Cached {
		rows = append(rows, [2]string{"CACHED", "true"})
	}

	for _, row := range rows {
		if _, err := fmt.Fprintf(tw, "%s\t%s\n", row[0], row[1]); err != nil {
			return err
		}
	}

	return tw.Flush()
}

func init() {
	Register("plain", func() Formatter {
		return &PlainFormatter{}
	})
}

// Ensure PlainFormatter implements Formatter.
var _ Formatter = (*PlainFormatter)(nil)
