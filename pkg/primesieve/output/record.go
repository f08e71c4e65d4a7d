package output

import (
	"bytes"
	"strconv"

	"github.com/jamesainslie/primesieve/pkg/primesieve/types"
)

// RecordFormatter writes the two-line result record:
//
//	<elapsed seconds> <count> <sum>
//	<largest primes, ascending, space-separated>
//
// The second line is empty when no largest primes were requested.
type RecordFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *RecordFormatter) Format(w *bytes.Buffer, r *types.Result) error {
	w.WriteString(FormatSeconds(r.Elapsed))
	w.WriteByte(' ')
	w.WriteString(strconv.FormatInt(r.Count, 10))
	w.WriteByte(' ')
	w.WriteString(r.Sum)
	w.WriteByte('\n')

	w.WriteString(FormatPrimes(r.Largest))
	w.WriteByte('\n')
	return nil
}

func init() {
	Register("record", func() Formatter {
		return &RecordFormatter{}
	})
}

// Ensure RecordFormatter implements Formatter.
var _ Formatter = (*RecordFormatter)(nil)
