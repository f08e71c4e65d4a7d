package output

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jamesainslie/primesieve/pkg/primesieve/types"
)

// PrettyFormatter formats output with colors and styling using lipgloss.
type PrettyFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PrettyFormatter) Format(w *bytes.Buffer, r *types.Result) error {
	w.WriteString(f.formatHeader(r))
	w.WriteString("\n")

	w.WriteString(f.formatTotals(r))
	w.WriteString("\n")

	if len(r.Largest) > 0 {
		w.WriteString(f.formatLargest(r))
		w.WriteString("\n")
	}

	if r.Gap != nil {
		w.WriteString(WarningStyle.Render(fmt.Sprintf(
			"Warning: %s integers in %s were not sieved; they are counted as prime",
			humanize.Comma(int64(r.Gap.Len())), r.Gap)))
		w.WriteString("\n")
	}

	return nil
}

// formatHeader builds the header box with run parameters.
func (f *PrettyFormatter) formatHeader(r *types.Result) string {
	var lines []string

	lines = append(lines, TitleStyle.Render("Primes up to "+humanize.Comma(int64(r.Limit))))

	params := []string{
		label("Workers:", strconv.Itoa(r.Workers)),
		label("Seed bound:", humanize.Comma(int64(r.SeedBound))),
		label("Seed primes:", humanize.Comma(int64(r.SeedPrimes))),
	}
	lines = append(lines, strings.Join(params, "  "))

	timing := label("Elapsed:", FormatSeconds(r.Elapsed)+"s")
	if r.Cached {
		timing += "  " + MutedStyle.Render("(cached)")
	}
	lines = append(lines, timing)

	return HeaderBox.Render(strings.Join(lines, "\n"))
}

// formatTotals renders the count and sum.
func (f *PrettyFormatter) formatTotals(r *types.Result) string {
	return fmt.Sprintf("%s %s\n%s %s",
		LabelStyle.Render("Count:"), NumberStyle.Render(types.FormatCount(r.Count)),
		LabelStyle.Render("Sum:  "), NumberStyle.Render(types.FormatBigCount(r.Sum)))
}

// formatLargest renders the largest primes in a footer box.
func (f *PrettyFormatter) formatLargest(r *types.Result) string {
	parts := make([]string, len(r.Largest))
	for i, p := range r.Largest {
		parts[i] = ValueStyle.Render(humanize.Comma(int64(p)))
	}
	title := LabelStyle.Render(fmt.Sprintf("Largest %d primes", len(r.Largest)))
	return FooterBox.Render(title + "\n" + strings.Join(parts, "  "))
}

func label(name, value string) string {
	return LabelStyle.Render(name) + " " + ValueStyle.Render(value)
}

func init() {
	Register("pretty", func() Formatter {
		return &PrettyFormatter{}
	})
}

// Ensure PrettyFormatter implements Formatter.
var _ Formatter = (*PrettyFormatter)(nil)
