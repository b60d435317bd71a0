// Package csv implements a streaming CSV parser with optional, targeted
// on-the-fly scrubbing for known bad byte sequences in real-world exports.
// It avoids whole-file buffering while reading and only materializes the
// typed columns that the cleaning stages operate on.
package csv

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"winsor/internal/config"
	"winsor/pkg/table"
)

// DefaultMissingTokens are the cell values treated as missing when the
// parser's MissingTokens option is nil. "." is the Stata missing marker.
var DefaultMissingTokens = []string{"", "NA", "NaN", "nan", "."}

// ScrubPair is one streaming find/replace applied to the raw bytes before
// they reach encoding/csv. Used to fix known-broken quoting in upstream
// exports without buffering the file.
type ScrubPair struct {
	Pattern string
	Replace string
}

// Options configures the CSV parser behavior. All fields are optional;
// sensible defaults are applied when a field is zero.
type Options struct {
	// HasHeader indicates whether the first row contains column headers.
	HasHeader bool

	// Columns names the columns of headerless input. Required when
	// HasHeader is false.
	Columns []string

	// Comma specifies the field delimiter. When zero, ',' is used.
	Comma rune

	// TrimSpace trims leading/trailing spaces from each field value.
	TrimSpace bool

	// ExpectedFields, when > 0, enforces a fixed field count per record.
	// Rows with a different width are skipped (soft-fail) and counted.
	ExpectedFields int

	// HeaderMap maps source header names to canonical keys (e.g.,
	// localization to snake_case). Only applies when HasHeader is true.
	HeaderMap map[string]string

	// Encoding names the source charset. Empty or "utf-8" reads bytes as
	// is; "windows-1250", "iso-8859-2" and "latin1" are decoded via
	// golang.org/x/text before CSV parsing.
	Encoding string

	// MissingTokens are cell values read as missing. Nil selects
	// DefaultMissingTokens.
	MissingTokens []string

	// Scrub lists streaming byte rewrites applied before the CSV reader.
	// When non-empty the reader runs in lenient mode (LazyQuotes, variable
	// field count) and width is enforced after read instead.
	Scrub []ScrubPair
}

// OptionsFromConfig decodes the parser options bag into Options.
func OptionsFromConfig(o config.Options) (Options, error) {
	opt := Options{
		HasHeader:      o.Bool("has_header", true),
		Columns:        o.StringSlice("columns"),
		Comma:          o.Rune("comma", 0),
		TrimSpace:      o.Bool("trim_space", false),
		ExpectedFields: o.Int("expected_fields", 0),
		HeaderMap:      o.StringMap("header_map"),
		Encoding:       o.String("encoding", ""),
	}
	if toks := o.StringSlice("missing_tokens"); toks != nil {
		opt.MissingTokens = toks
	}
	if raw, ok := o.Any("scrub").([]any); ok {
		for _, x := range raw {
			m, ok := x.(map[string]any)
			if !ok {
				return opt, fmt.Errorf("csv: scrub entries must be objects with pat/repl")
			}
			pat, _ := m["pat"].(string)
			repl, _ := m["repl"].(string)
			if pat == "" {
				return opt, fmt.Errorf("csv: scrub entry needs a non-empty pat")
			}
			opt.Scrub = append(opt.Scrub, ScrubPair{Pattern: pat, Replace: repl})
		}
	}
	if !opt.HasHeader && len(opt.Columns) == 0 {
		return opt, fmt.Errorf("csv: headerless input requires explicit column names")
	}
	return opt, nil
}

// Parser parses CSV input according to Options. It is safe to reuse across
// inputs, but Parser itself is not concurrency-safe.
type Parser struct{ opt Options }

// NewParser constructs a Parser with the provided Options.
func NewParser(opt Options) *Parser { return &Parser{opt: opt} }

// Parse consumes CSV records from r and returns the resulting table along
// with the number of rows skipped due to parse errors or field-count
// mismatches. Columns whose every non-missing cell parses as a number come
// back numeric (missing cells become NaN); everything else stays a string
// column (missing cells become "").
func (p *Parser) Parse(r io.Reader) (*table.Table, int, error) {
	r, err := p.decoded(r)
	if err != nil {
		return nil, 0, err
	}
	for _, s := range p.opt.Scrub {
		r = newStreamingRewriter(r, []byte(s.Pattern), []byte(s.Replace))
	}

	cr := csv.NewReader(r)
	if p.opt.Comma != 0 {
		cr.Comma = p.opt.Comma
	}
	if len(p.opt.Scrub) > 0 {
		// Scrubbed inputs have residual quoting oddities; relax the reader
		// and enforce width after read instead.
		cr.LazyQuotes = true
		cr.FieldsPerRecord = -1
	}

	headers, err := p.headers(cr)
	if err != nil {
		return nil, 0, err
	}

	missing := map[string]bool{}
	toks := p.opt.MissingTokens
	if toks == nil {
		toks = DefaultMissingTokens
	}
	for _, t := range toks {
		missing[t] = true
	}

	cells := make([][]string, len(headers))
	isMissing := make([][]bool, len(headers))
	numeric := make([]bool, len(headers))
	for i := range numeric {
		numeric[i] = true
	}

	var skipped int
	const logLimit = 400
	for line := 1; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			if skipped < logLimit {
				log.Printf("skipping row %d: %v", line, err)
			}
			skipped++
			continue
		}
		if len(row) != len(headers) {
			if skipped < logLimit {
				log.Printf("skipping row %d: incorrect number of fields (expected %d, got %d)", line, len(headers), len(row))
			}
			skipped++
			continue
		}

		for i, val := range row {
			if p.opt.TrimSpace {
				val = strings.TrimSpace(val)
			}
			miss := missing[val]
			cells[i] = append(cells[i], val)
			isMissing[i] = append(isMissing[i], miss)
			if numeric[i] && !miss {
				if _, err := strconv.ParseFloat(val, 64); err != nil {
					numeric[i] = false
				}
			}
		}
	}

	t := table.New()
	for i, name := range headers {
		if numeric[i] {
			vals := make([]float64, len(cells[i]))
			for j, s := range cells[i] {
				if isMissing[i][j] {
					vals[j] = table.Missing()
					continue
				}
				vals[j], _ = strconv.ParseFloat(s, 64)
			}
			if err := t.AddNumeric(name, vals); err != nil {
				return nil, 0, fmt.Errorf("csv: %w", err)
			}
			continue
		}
		vals := make([]string, len(cells[i]))
		for j, s := range cells[i] {
			if !isMissing[i][j] {
				vals[j] = s
			}
		}
		if err := t.AddString(name, vals); err != nil {
			return nil, 0, fmt.Errorf("csv: %w", err)
		}
	}
	return t, skipped, nil
}

// decoded wraps r with a charset decoder when Options.Encoding asks for one.
func (p *Parser) decoded(r io.Reader) (io.Reader, error) {
	var enc encoding.Encoding
	switch strings.ToLower(p.opt.Encoding) {
	case "", "utf-8", "utf8":
		return r, nil
	case "windows-1250":
		enc = charmap.Windows1250
	case "iso-8859-2":
		enc = charmap.ISO8859_2
	case "latin1", "iso-8859-1":
		enc = charmap.ISO8859_1
	default:
		return nil, fmt.Errorf("csv: unsupported encoding %q", p.opt.Encoding)
	}
	return transform.NewReader(r, enc.NewDecoder()), nil
}

// headers resolves the column names, either from the first record or from
// the configured Columns list.
func (p *Parser) headers(cr *csv.Reader) ([]string, error) {
	if !p.opt.HasHeader {
		return p.opt.Columns, nil
	}
	h, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	return normalizeHeaders(h, p.opt), nil
}

// normalizeHeaders produces canonical header keys using HeaderMap (when
// provided) and simple normalization (lowercase, spaces to underscores). It
// also strips a UTF-8 BOM from the first cell if present.
func normalizeHeaders(h []string, opt Options) []string {
	res := make([]string, len(h))
	for i, col := range h {
		c := strings.TrimSpace(col)
		if i == 0 {
			c = strings.TrimPrefix(c, utf8BOM)
		}
		if opt.HeaderMap != nil {
			if m, ok := opt.HeaderMap[c]; ok {
				res[i] = m
				continue
			}
		}
		res[i] = strings.ReplaceAll(strings.ToLower(c), " ", "_")
	}
	return res
}

// streamingRewriter is an io.Reader that performs a streaming, rolling
// find/replace: it replaces all occurrences of pat with repl without
// buffering the entire stream. To correctly match sequences that may span
// chunk boundaries, it retains the last len(pat)-1 bytes (carry) from each
// processed block and prepends them to the next block before replacement.
type streamingRewriter struct {
	br    *bufio.Reader
	pat   []byte
	repl  []byte
	carry []byte       // last len(pat)-1 bytes retained between reads
	buf   bytes.Buffer // pending output to satisfy Read
	eof   bool
}

func newStreamingRewriter(r io.Reader, pat, repl []byte) *streamingRewriter {
	capacity := 0
	if n := len(pat) - 1; n > 0 {
		capacity = n
	}
	return &streamingRewriter{
		br:    bufio.NewReaderSize(r, 64*1024),
		pat:   pat,
		repl:  repl,
		carry: make([]byte, 0, capacity),
	}
}

// Read fills p from the internal buffer; when empty, it reads the next chunk
// from the underlying reader, performs rolling replacement, and withholds the
// trailing len(pat)-1 bytes as carry for the next call. On EOF it flushes the
// remaining carry.
func (sr *streamingRewriter) Read(p []byte) (int, error) {
	if sr.buf.Len() > 0 {
		return sr.buf.Read(p)
	}
	if sr.eof {
		return 0, io.EOF
	}

	tmp := make([]byte, 64*1024)
	n, rerr := sr.br.Read(tmp)
	if n > 0 {
		block := tmp[:n]

		if len(sr.carry) > 0 {
			joined := make([]byte, 0, len(sr.carry)+len(block))
			joined = append(joined, sr.carry...)
			joined = append(joined, block...)
			block = joined
		}

		if len(sr.pat) > 0 && !bytes.Equal(sr.pat, sr.repl) {
			block = bytes.ReplaceAll(block, sr.pat, sr.repl)
		}

		k := len(sr.pat) - 1
		if k < 0 {
			k = 0
		}
		if k > 0 && len(block) > k {
			sr.buf.Write(block[:len(block)-k])
			sr.carry = append(sr.carry[:0], block[len(block)-k:]...)
		} else {
			// Not enough to safely emit; keep the entire block in carry.
			sr.carry = append(sr.carry[:0], block...)
		}
	}

	if rerr == io.EOF {
		if len(sr.carry) > 0 {
			sr.buf.Write(sr.carry)
			sr.carry = sr.carry[:0]
		}
		sr.eof = true
	} else if rerr != nil {
		return 0, rerr
	}

	if sr.buf.Len() > 0 {
		return sr.buf.Read(p)
	}
	if sr.eof {
		return 0, io.EOF
	}
	return 0, nil
}
