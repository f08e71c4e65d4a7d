package output

import (
	"bytes"
	"encoding/json"

	"github.com/jamesainslie/primesieve/pkg/primesieve/types"
)

// report is the document structure shared by the JSON and YAML formatters.
type report struct {
	Result reportResult `json:"result" yaml:"result"`
	Run    reportRun    `json:"run" yaml:"run"`
}

// reportResult holds the aggregated sieve output.
type reportResult struct {
	Count   int64  `json:"count" yaml:"count"`
	Sum     string `json:"sum" yaml:"sum"`
	Largest []int  `json:"largest" yaml:"largest"`
}

// reportRun holds the parameters and timing of the run.
type reportRun struct {
	Limit          int           `json:"limit" yaml:"limit"`
	Workers        int           `json:"workers" yaml:"workers"`
	TopK           int           `json:"top_k" yaml:"top_k"`
	SeedBound      int           `json:"seed_bound" yaml:"seed_bound"`
	SeedPrimes     int           `json:"seed_primes" yaml:"seed_primes"`
	Ranges         []types.Range `json:"ranges" yaml:"ranges"`
	ElapsedSeconds float64       `json:"elapsed_seconds" yaml:"elapsed_seconds"`
	Elapsed        string        `json:"elapsed" yaml:"elapsed"`
	Gap            *types.Range  `json:"gap,omitempty" yaml:"gap,omitempty"`
	Cached         bool          `json:"cached" yaml:"cached"`
}

// buildReport converts a Result to the document structure.
func buildReport(r *types.Result) report {
	largest := r.Largest
	if largest == nil {
		largest = []int{}
	}
	return report{
		Result: reportResult{
			Count:   r.Count,
			Sum:     r.Sum,
			Largest: largest,
		},
		Run: reportRun{
			Limit:          r.Limit,
			Workers:        r.Workers,
			TopK:           r.TopK,
			SeedBound:      r.SeedBound,
			SeedPrimes:     r.SeedPrimes,
			Ranges:         r.Ranges,
			ElapsedSeconds: r.Elapsed.Seconds(),
			Elapsed:        r.Elapsed.String(),
			Gap:            r.Gap,
			Cached:         r.Cached,
		},
	}
}

// JSONFormatter formats output as a single indented JSON object.
type JSONFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *JSONFormatter) Format(w *bytes.Buffer, r *types.Result) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(buildReport(r))
}

func init() {
	Register("json", func() Formatter {
		return &JSONFormatter{}
	})
}

// Ensure JSONFormatter implements Formatter.
var _ Formatter = (*JSONFormatter)(nil)
