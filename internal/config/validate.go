// Package config provides configuration models and helpers for winsor
// pipelines.
//
// This file adds a lightweight linter/validator for Pipeline values. It
// performs static checks over a decoded Pipeline and returns a list of
// issues (errors and warnings) that callers can surface in a CLI or tests.
package config

import (
	"fmt"
	"strings"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a configuration warning that should be
	// surfaced to users but may not necessarily block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation/lint finding for a Pipeline.
//
// Path is a dotted path into the config (e.g. "storage.kind",
// "transform[1].options.cuts"). Message is human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a
// single error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// ValidatePipeline performs static validation / linting of a Pipeline.
//
// It does not mutate the pipeline. Instead it returns a slice of Issue
// values; callers decide whether to treat warnings as fatal.
func ValidatePipeline(p Pipeline) []Issue {
	var issues []Issue

	if strings.TrimSpace(p.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "job",
			Message:  "job is empty; metrics and log lines will carry a blank job label",
		})
	}
	issues = append(issues, validateSource(p.Source)...)
	issues = append(issues, validateParser(p.Parser)...)
	issues = append(issues, validateTransforms(p.Transform)...)
	issues = append(issues, validateStorage(p.Storage)...)
	issues = append(issues, validateRuntime(p.Runtime)...)

	return issues
}

// validateSource validates Source configuration.
func validateSource(s Source) []Issue {
	var issues []Issue

	if strings.TrimSpace(s.Kind) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.kind",
			Message:  "source.kind must not be empty",
		})
		return issues
	}

	// Unknown kinds are warnings, for forward compatibility.
	known := map[string]struct{}{
		"file": {},
		"http": {},
	}
	if _, ok := known[s.Kind]; !ok {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "source.kind",
			Message:  fmt.Sprintf("unknown source kind %q; ensure a matching implementation exists", s.Kind),
		})
	}

	switch s.Kind {
	case "file":
		if strings.TrimSpace(s.File.Path) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "source.file.path",
				Message:  "file source requires a non-empty path",
			})
		}
	case "http":
		if strings.TrimSpace(s.HTTP.URL) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "source.http.url",
				Message:  "http source requires a non-empty url",
			})
		}
		if s.HTTP.TimeoutSeconds < 0 {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "source.http.timeout_seconds",
				Message:  "timeout must not be negative",
			})
		}
	}

	return issues
}

// validateParser validates parser configuration.
func validateParser(p Parser) []Issue {
	var issues []Issue

	if strings.TrimSpace(p.Kind) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "parser.kind",
			Message:  "parser.kind must not be empty",
		})
		return issues
	}

	if p.Kind != "csv" {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "parser.kind",
			Message:  fmt.Sprintf("unknown parser kind %q; ensure a matching implementation exists", p.Kind),
		})
		return issues
	}

	if !p.Options.Bool("has_header", true) && len(p.Options.StringSlice("columns")) == 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "parser.options.columns",
			Message:  "headerless csv input requires explicit column names",
		})
	}
	if enc := p.Options.String("encoding", ""); enc != "" {
		switch strings.ToLower(enc) {
		case "utf-8", "utf8", "windows-1250", "iso-8859-2", "latin1", "iso-8859-1":
		default:
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "parser.options.encoding",
				Message:  fmt.Sprintf("unsupported encoding %q", enc),
			})
		}
	}

	return issues
}

// validateTransforms validates the transform chain. The chain may be empty
// (a pipeline that only converts formats), but a pipeline without a
// winsorize step is probably a misconfiguration, so that is warned about.
func validateTransforms(ts []Transform) []Issue {
	var issues []Issue

	knownKinds := map[string]struct{}{
		"coerce":    {},
		"require":   {},
		"dedup":     {},
		"normalize": {},
		"winsorize": {},
	}

	sawWinsorize := false
	for i, t := range ts {
		path := fmt.Sprintf("transform[%d].kind", i)
		if strings.TrimSpace(t.Kind) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path,
				Message:  "transform kind must not be empty",
			})
			continue
		}
		if _, ok := knownKinds[t.Kind]; !ok {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     path,
				Message:  fmt.Sprintf("unknown transform kind %q; ensure a matching implementation exists", t.Kind),
			})
			continue
		}

		switch t.Kind {
		case "winsorize":
			sawWinsorize = true
			issues = append(issues, validateWinsorize(i, t.Options)...)
		case "coerce", "require":
			if len(t.Options.StringSlice("columns")) == 0 {
				issues = append(issues, Issue{
					Severity: SeverityError,
					Path:     fmt.Sprintf("transform[%d].options.columns", i),
					Message:  fmt.Sprintf("%s requires a non-empty columns list", t.Kind),
				})
			}
		case "dedup":
			if len(t.Options.StringSlice("keys")) == 0 {
				issues = append(issues, Issue{
					Severity: SeverityError,
					Path:     fmt.Sprintf("transform[%d].options.keys", i),
					Message:  "dedup requires a non-empty keys list",
				})
			}
		}
	}

	if !sawWinsorize {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "transform",
			Message:  "no winsorize step configured; the pipeline will only reshape data",
		})
	}

	return issues
}

// validateWinsorize statically checks a winsorize step's options. The full
// validation (column existence, VarCuts keys) happens at run time against
// the actual table; here only shape mistakes are caught.
func validateWinsorize(i int, o Options) []Issue {
	var issues []Issue
	base := fmt.Sprintf("transform[%d].options", i)

	if len(o.StringSlice("columns")) == 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     base + ".columns",
			Message:  "winsorize requires a non-empty columns list",
		})
	}
	if cuts := o.FloatSlice("cuts"); cuts != nil {
		if len(cuts) != 2 {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     base + ".cuts",
				Message:  fmt.Sprintf("cuts must hold exactly two percentiles, got %d", len(cuts)),
			})
		} else if cuts[0] < 0 || cuts[1] > 100 || cuts[0] >= cuts[1] {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     base + ".cuts",
				Message:  fmt.Sprintf("cuts (%g, %g) must satisfy 0 <= low < high <= 100", cuts[0], cuts[1]),
			})
		}
	}
	if o.Bool("trim", false) && o.Any("gen_extreme") != nil {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     base + ".gen_extreme",
			Message:  "gen_extreme is only available in clamp mode",
		})
	}
	if o.String("gen_flag", "") != "" && !o.Bool("trim", false) {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     base + ".gen_flag",
			Message:  "gen_flag requires trim",
		})
	}
	return issues
}

// validateStorage validates the sink configuration.
func validateStorage(s Storage) []Issue {
	var issues []Issue

	if strings.TrimSpace(s.Kind) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.kind",
			Message:  "storage.kind must not be empty",
		})
		return issues
	}

	switch s.Kind {
	case "csv":
		if strings.TrimSpace(s.CSV.Path) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "storage.csv.path",
				Message:  "csv storage requires a non-empty path",
			})
		}
	case "sqlite", "postgres":
		if strings.TrimSpace(s.DB.DSN) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "storage.db.dsn",
				Message:  fmt.Sprintf("%s storage requires a non-empty dsn", s.Kind),
			})
		}
		if strings.TrimSpace(s.DB.Table) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "storage.db.table",
				Message:  fmt.Sprintf("%s storage requires a non-empty table", s.Kind),
			})
		}
	default:
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "storage.kind",
			Message:  fmt.Sprintf("unknown storage kind %q; ensure a matching implementation exists", s.Kind),
		})
	}

	return issues
}

// validateRuntime validates the runtime block.
func validateRuntime(r RuntimeConfig) []Issue {
	var issues []Issue
	if r.BatchSize < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.batch_size",
			Message:  "batch_size must not be negative",
		})
	}
	if r.ChannelBuffer < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.channel_buffer",
			Message:  "channel_buffer must not be negative",
		})
	}
	return issues
}
