package output

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/dustin/go-humanize"
	"github.com/jamesainslie/primesieve/pkg/primesieve/types"
)

// defaultTemplate is used by the registered "template" format.
const defaultTemplate = "primes <= {{.Limit}}: {{comma .Count}}, sum {{bigcomma .Sum}}\n"

// templateFuncs are available to every template:
//
//	{{comma .Count}}      digit grouping for integers
//	{{bigcomma .Sum}}     digit grouping for the decimal sum
//	{{seconds .Elapsed}}  elapsed time in seconds
//	{{join .Largest}}     primes separated by spaces
var templateFuncs = template.FuncMap{
	"comma":    humanize.Comma,
	"bigcomma": types.FormatBigCount,
	"seconds":  FormatSeconds,
	"join":     FormatPrimes,
}

// TemplateFormatter renders a result with a text/template.
type TemplateFormatter struct {
	tmpl *template.Template
}

// ParseTemplate compiles text into a formatter.
func ParseTemplate(text string) (*TemplateFormatter, error) {
	tmpl, err := template.New("output").Funcs(templateFuncs).Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parsing output template: %w", err)
	}
	return &TemplateFormatter{tmpl: tmpl}, nil
}

// Format executes the template against r.
func (f *TemplateFormatter) Format(w *bytes.Buffer, r *types.Result) error {
	return f.tmpl.Execute(w, r)
}

func init() {
	Register("template", func() Formatter {
		f, err := ParseTemplate(defaultTemplate)
		if err != nil {
			panic(err)
		}
		return f
	})
}
