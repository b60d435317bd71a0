// Starter-config generation and the human-readable report rendering.
package probe

import (
	"bytes"
	"fmt"
	"strings"
	"text/tabwriter"
	"unicode"

	"winsor/internal/config"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// SuggestPipeline turns a probe report into a runnable starter pipeline:
// coerce every numeric column, winsorize them at the default (1, 99) cuts,
// and write the result next to the input as <job>_clean.csv. Users are
// expected to edit the columns list and cuts before a real run.
func SuggestPipeline(r Report, job string) config.Pipeline {
	if job == "" {
		job = "probe_job"
	}
	job = normalizeFieldName(job)

	numeric := r.NumericColumns()
	cols := make([]any, 0, len(numeric))
	for _, c := range numeric {
		cols = append(cols, c)
	}

	p := config.Pipeline{
		Job: job,
		Parser: config.Parser{
			Kind: "csv",
			Options: config.Options{
				"has_header": true,
				"trim_space": true,
			},
		},
		Storage: config.Storage{
			Kind: "csv",
			CSV:  config.StorageCSV{Path: job + "_clean.csv"},
		},
		Runtime: config.RuntimeConfig{BatchSize: 1000, ChannelBuffer: 100},
	}

	if path, ok := localPath(r.URL); ok {
		p.Source = config.Source{Kind: "file", File: config.SourceFile{Path: path}}
	} else {
		p.Source = config.Source{Kind: "http", HTTP: config.SourceHTTP{URL: r.URL}}
	}

	if len(cols) > 0 {
		p.Transform = append(p.Transform,
			config.Transform{
				Kind:    "coerce",
				Options: config.Options{"columns": cols},
			},
			config.Transform{
				Kind: "winsorize",
				Options: config.Options{
					"columns": cols,
					"cuts":    []any{1.0, 99.0},
				},
			},
		)
	}
	return p
}

// Text renders the report as an aligned table for terminal output.
func (r Report) Text() string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "sampled %d rows from %s", r.SampledRows, r.URL)
	if r.SkippedRows > 0 {
		fmt.Fprintf(&buf, " (%d malformed rows skipped)", r.SkippedRows)
	}
	buf.WriteByte('\n')

	w := tabwriter.NewWriter(&buf, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "column\tkind\trows\tmissing\tmin\tp1\tp5\tp95\tp99\tmax")
	for _, c := range r.Columns {
		if !c.Numeric {
			fmt.Fprintf(w, "%s\tstring\t%d\t%d\t-\t-\t-\t-\t-\t-\n", c.Name, c.Rows, c.Missing)
			continue
		}
		fmt.Fprintf(w, "%s\tnumeric\t%d\t%d\t%g\t%g\t%g\t%g\t%g\t%g\n",
			c.Name, c.Rows, c.Missing, c.Min, c.P1, c.P5, c.P95, c.P99, c.Max)
	}
	w.Flush()
	return buf.String()
}

// normalizeFieldName converts arbitrary text into a lowercase ASCII
// identifier usable as a job name or file stem:
//  1. lowercase
//  2. strip accents (NFD, drop nonspacing marks, NFC)
//  3. keep [a-z0-9_]; space/dash/dot become underscore; drop the rest
//  4. fall back to "job" when nothing survives
func normalizeFieldName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))

	t := transform.Chain(
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)),
		norm.NFC,
	)
	ascii, _, _ := transform.String(t, s)

	var b strings.Builder
	prevUnderscore := false
	for _, r := range ascii {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prevUnderscore = false
		case r == '_' || r == ' ' || r == '-' || r == '.':
			if !prevUnderscore {
				b.WriteRune('_')
				prevUnderscore = true
			}
		}
	}
	name := strings.Trim(b.String(), "_")
	if name == "" {
		return "job"
	}
	return name
}
