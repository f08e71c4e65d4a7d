package output

import (
	"bytes"

	"github.com/jamesainslie/primesieve/pkg/primesieve/types"
	"gopkg.in/yaml.v3"
)

// YAMLFormatter renders the same report as JSONFormatter, in YAML.
type YAMLFormatter struct{}

func (YAMLFormatter) Format(w *bytes.Buffer, r *types.Result) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(buildReport(r)); err != nil {
		return err
	}
	return enc.Close()
}

func init() {
	Register("yaml", func() Formatter { return YAMLFormatter{} })
}
