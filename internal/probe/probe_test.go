package probe

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// withPeek swaps the peek seam for the duration of a test.
func withPeek(t *testing.T, fn func(ctx context.Context, url string, n int, insecure bool) ([]byte, error)) {
	t.Helper()
	orig := peekFn
	peekFn = fn
	t.Cleanup(func() { peekFn = orig })
}

func fixedSample(data string) func(context.Context, string, int, bool) ([]byte, error) {
	return func(_ context.Context, _ string, n int, _ bool) ([]byte, error) {
		if n < len(data) {
			return []byte(data[:n]), nil
		}
		return []byte(data), nil
	}
}

func TestRunProfilesNumericColumns(t *testing.T) {
	t.Parallel()

	var sb strings.Builder
	sb.WriteString("wage,region\n")
	for i := 1; i <= 9; i++ {
		fmt.Fprintf(&sb, "%d,PHA\n", i)
	}
	sb.WriteString("100,BRN\n")
	withPeek(t, fixedSample(sb.String()))

	rep, err := Run(context.Background(), Options{URL: "http://example.com/wages.csv"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if rep.SampledRows != 10 {
		t.Fatalf("SampledRows = %d, want 10", rep.SampledRows)
	}
	if len(rep.Columns) != 2 {
		t.Fatalf("got %d columns, want 2", len(rep.Columns))
	}

	wage := rep.Columns[0]
	if wage.Name != "wage" || !wage.Numeric {
		t.Fatalf("column[0] = %+v, want numeric wage", wage)
	}
	if wage.Rows != 10 || wage.Missing != 0 {
		t.Errorf("wage rows/missing = %d/%d, want 10/0", wage.Rows, wage.Missing)
	}
	if wage.Min != 1 || wage.Max != 100 {
		t.Errorf("wage min/max = %g/%g, want 1/100", wage.Min, wage.Max)
	}
	// Interpolated tail quantiles for [1..9, 100].
	if got, want := wage.P95, 59.05; math.Abs(got-want) > 1e-9 {
		t.Errorf("wage p95 = %g, want %g", got, want)
	}
	if got, want := wage.P5, 1.45; math.Abs(got-want) > 1e-9 {
		t.Errorf("wage p5 = %g, want %g", got, want)
	}

	region := rep.Columns[1]
	if region.Numeric {
		t.Errorf("region inferred numeric, want string")
	}
	if region.Rows != 10 {
		t.Errorf("region rows = %d, want 10", region.Rows)
	}

	if got := rep.NumericColumns(); len(got) != 1 || got[0] != "wage" {
		t.Errorf("NumericColumns() = %v, want [wage]", got)
	}
}

func TestRunCutsTruncatedTrailingRecord(t *testing.T) {
	t.Parallel()

	// The sample ends mid-record; the partial "10" row must be dropped.
	withPeek(t, fixedSample("x\n1\n2\n3\n10"))

	rep, err := Run(context.Background(), Options{URL: "http://example.com/x.csv"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if rep.SampledRows != 3 {
		t.Fatalf("SampledRows = %d, want 3 (partial trailing record dropped)", rep.SampledRows)
	}
}

func TestRunCountsMissingCells(t *testing.T) {
	t.Parallel()

	withPeek(t, fixedSample("v\n1\nNaN\n3\nNA\n5\n"))

	rep, err := Run(context.Background(), Options{URL: "file:///tmp/v.csv"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	v := rep.Columns[0]
	if !v.Numeric {
		t.Fatalf("column v = %+v, want numeric", v)
	}
	if v.Rows != 3 || v.Missing != 2 {
		t.Errorf("rows/missing = %d/%d, want 3/2", v.Rows, v.Missing)
	}
}

func TestRunErrors(t *testing.T) {
	t.Parallel()

	t.Run("empty url", func(t *testing.T) {
		if _, err := Run(context.Background(), Options{}); err == nil {
			t.Fatalf("Run() error = nil, want non-nil")
		}
	})

	t.Run("peek failure propagates", func(t *testing.T) {
		withPeek(t, func(context.Context, string, int, bool) ([]byte, error) {
			return nil, fmt.Errorf("boom")
		})
		_, err := Run(context.Background(), Options{URL: "http://example.com/x.csv"})
		if err == nil || !strings.Contains(err.Error(), "boom") {
			t.Fatalf("Run() error = %v, want wrapped boom", err)
		}
	})

	t.Run("empty sample", func(t *testing.T) {
		withPeek(t, fixedSample("  \n"))
		if _, err := Run(context.Background(), Options{URL: "http://example.com/x.csv"}); err == nil {
			t.Fatalf("Run() error = nil, want non-nil for empty sample")
		}
	})
}

func TestPeekLocalFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "data.csv")
	if err := os.WriteFile(path, []byte("a,b\n1,2\n3,4\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := peekFn(context.Background(), path, 4, false)
	if err != nil {
		t.Fatalf("peekFn() error = %v", err)
	}
	if string(got) != "a,b\n" {
		t.Fatalf("peekFn() = %q, want %q", got, "a,b\n")
	}

	// file:// scheme resolves to the same path.
	got, err = peekFn(context.Background(), "file://"+path, 1024, false)
	if err != nil {
		t.Fatalf("peekFn(file://) error = %v", err)
	}
	if string(got) != "a,b\n1,2\n3,4\n" {
		t.Fatalf("peekFn(file://) = %q", got)
	}
}

func TestLocalPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		url      string
		wantPath string
		wantOK   bool
	}{
		{"data/wages.csv", "data/wages.csv", true},
		{"file:///tmp/x.csv", "/tmp/x.csv", true},
		{"http://example.com/x.csv", "", false},
		{"https://example.com/x.csv", "", false},
	}
	for _, tt := range tests {
		path, ok := localPath(tt.url)
		if path != tt.wantPath || ok != tt.wantOK {
			t.Errorf("localPath(%q) = (%q, %v), want (%q, %v)", tt.url, path, ok, tt.wantPath, tt.wantOK)
		}
	}
}

func TestNormalizeFieldName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"Average Wage (CZK)", "average_wage_czk"},
		{"pr\u016fm\u011brn\u00e1 mzda", "prumerna_mzda"},
		{"already_fine", "already_fine"},
		{"--- ---", "job"},
		{"Mixed.Case-Name", "mixed_case_name"},
	}
	for _, tt := range tests {
		if got := normalizeFieldName(tt.in); got != tt.want {
			t.Errorf("normalizeFieldName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSuggestPipeline(t *testing.T) {
	t.Parallel()

	rep := Report{
		URL: "http://example.com/wages.csv",
		Columns: []ColumnProfile{
			{Name: "wage", Numeric: true},
			{Name: "region"},
			{Name: "hours", Numeric: true},
		},
	}

	p := SuggestPipeline(rep, "Czech Wages")
	if p.Job != "czech_wages" {
		t.Errorf("Job = %q, want czech_wages", p.Job)
	}
	if p.Source.Kind != "http" || p.Source.HTTP.URL != rep.URL {
		t.Errorf("Source = %+v, want http source for %s", p.Source, rep.URL)
	}
	if p.Storage.Kind != "csv" || p.Storage.CSV.Path != "czech_wages_clean.csv" {
		t.Errorf("Storage = %+v", p.Storage)
	}
	if len(p.Transform) != 2 {
		t.Fatalf("got %d transforms, want 2 (coerce + winsorize)", len(p.Transform))
	}
	if p.Transform[0].Kind != "coerce" || p.Transform[1].Kind != "winsorize" {
		t.Fatalf("transform kinds = %s,%s", p.Transform[0].Kind, p.Transform[1].Kind)
	}
	cols := p.Transform[1].Options.StringSlice("columns")
	if len(cols) != 2 || cols[0] != "wage" || cols[1] != "hours" {
		t.Errorf("winsorize columns = %v, want [wage hours]", cols)
	}
	cuts := p.Transform[1].Options.FloatSlice("cuts")
	if len(cuts) != 2 || cuts[0] != 1 || cuts[1] != 99 {
		t.Errorf("winsorize cuts = %v, want [1 99]", cuts)
	}

	// A local path becomes a file source.
	rep.URL = "data/wages.csv"
	p = SuggestPipeline(rep, "")
	if p.Source.Kind != "file" || p.Source.File.Path != "data/wages.csv" {
		t.Errorf("Source = %+v, want file source", p.Source)
	}
	if p.Job != "probe_job" {
		t.Errorf("Job = %q, want probe_job", p.Job)
	}
}

func TestReportText(t *testing.T) {
	t.Parallel()

	rep := Report{
		URL:         "wages.csv",
		SampledRows: 10,
		SkippedRows: 1,
		Columns: []ColumnProfile{
			{Name: "wage", Numeric: true, Rows: 10, Min: 1, Max: 100, P1: 1.09, P5: 1.45, P95: 59.05, P99: 91.71},
			{Name: "region", Rows: 10},
		},
	}
	out := rep.Text()
	for _, want := range []string{"sampled 10 rows", "1 malformed rows skipped", "wage", "59.05", "region", "string"} {
		if !strings.Contains(out, want) {
			t.Errorf("Text() missing %q:\n%s", want, out)
		}
	}
}
