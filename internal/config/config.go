// Package config defines the canonical, JSON-serializable configuration
// model for the winsor pipeline. It is intentionally small, explicit, and
// decoded with the standard library so that pipeline files can be loaded
// from disk and passed through the program without additional glue code.
//
// Example (trimmed):
//
//	{
//	  "source":   { "kind": "file", "file": { "path": "wages.csv" } },
//	  "parser":   { "kind": "csv", "options": { "has_header": true } },
//	  "transform":[
//	    { "kind": "coerce",    "options": { "columns": ["wage","hours"] } },
//	    { "kind": "winsorize", "options": { "columns": ["wage"], "cuts": [1, 99], "by": ["industry"] } }
//	  ],
//	  "storage":  { "kind": "csv", "csv": { "path": "wages_clean.csv" } }
//	}
package config

import "encoding/json"

// Pipeline describes one full cleaning run. It is the top-level object
// decoded from a pipeline file.
type Pipeline struct {
	// Job names this run; it labels metrics and log lines.
	Job string `json:"job"`

	// Source describes where input data comes from (local file or HTTP).
	Source Source `json:"source"`

	// Parser configures how raw bytes become a table (currently CSV).
	Parser Parser `json:"parser"`

	// Transform lists the ordered transformations applied to the parsed
	// table. Each transform has a kind and an options bag whose shape is
	// defined by the transform implementation.
	Transform []Transform `json:"transform"`

	// Storage describes where the cleaned table is written.
	Storage Storage `json:"storage"`

	// Runtime controls batching for the load stage.
	Runtime RuntimeConfig `json:"runtime"`
}

// RuntimeConfig controls batching and buffering of the load stage.
type RuntimeConfig struct {
	BatchSize     int `json:"batch_size"`
	ChannelBuffer int `json:"channel_buffer"`
}

// Source identifies the data source.
type Source struct {
	// Kind selects the source implementation: "file" or "http".
	Kind string `json:"kind"`

	File SourceFile `json:"file"`
	HTTP SourceHTTP `json:"http"`
}

// SourceFile holds configuration for the "file" source kind.
type SourceFile struct {
	// Path is the local filesystem path to the input file.
	Path string `json:"path"`
}

// SourceHTTP holds configuration for the "http" source kind.
type SourceHTTP struct {
	// URL of the dataset to fetch.
	URL string `json:"url"`

	// TimeoutSeconds bounds the whole fetch; 0 means a sensible default.
	TimeoutSeconds int `json:"timeout_seconds"`
}

// Parser selects how to parse the raw source into a table.
type Parser struct {
	// Kind selects the parser implementation. Current value: "csv".
	Kind string `json:"kind"`

	// Options is a free-form map interpreted by the parser implementation.
	// For CSV, typical keys include: has_header (bool), comma (string),
	// trim_space (bool), expected_fields (int), header_map (object),
	// encoding (string), missing_tokens (array).
	Options Options `json:"options"`
}

// Transform defines a single transformation step. The sequence of steps
// forms the chain executed between parsing and storage.
type Transform struct {
	// Kind selects the transform implementation: "coerce", "require" or
	// "winsorize". Implementations define their own options.
	Kind string `json:"kind"`

	// Options is a free-form map interpreted by the selected transform.
	Options Options `json:"options"`
}

// Storage selects the sink used to persist the cleaned table.
type Storage struct {
	// Kind selects the storage implementation: "csv", "sqlite" or
	// "postgres".
	Kind string `json:"kind"`

	CSV StorageCSV `json:"csv"`
	DB  DBConfig   `json:"db"`
}

// StorageCSV configures the CSV file sink.
type StorageCSV struct {
	// Path of the output file. Overwritten when it exists.
	Path string `json:"path"`

	// Comma optionally overrides the output delimiter (first rune used).
	Comma string `json:"comma"`
}

// DBConfig configures the database sinks (sqlite, postgres).
type DBConfig struct {
	// DSN is the backend connection string (a file path or file: URI for
	// sqlite, a postgresql:// URL for pgx).
	DSN string `json:"dsn"`

	// Table is the destination table name (fully qualified for postgres).
	Table string `json:"table"`

	// Columns optionally restricts/orders the written columns. Empty means
	// every table column in order.
	Columns []string `json:"columns"`

	// AutoCreateTable creates the destination table from the cleaned
	// table's column kinds before loading.
	AutoCreateTable bool `json:"auto_create_table"`
}

// Options is a small helper to fetch typed values from arbitrary JSON maps
// without introducing a configuration library. It performs only minimal type
// coercion and returns the provided default when a key is absent or of an
// unexpected type.
type Options map[string]any

// String returns the string value for key or def.
func (o Options) String(key, def string) string {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Bool returns the bool value for key or def.
func (o Options) Bool(key string, def bool) bool {
	if v, ok := o[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// Int returns the int value for key or def. JSON numbers decode as float64,
// so float64 is accepted and truncated.
func (o Options) Int(key string, def int) int {
	if v, ok := o[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		}
	}
	return def
}

// Float returns the float64 value for key or def. Percentile cuts are
// fractional (e.g. 2.5, 97.5), so this is the accessor transforms reach for.
func (o Options) Float(key string, def float64) float64 {
	if v, ok := o[key]; ok {
		switch n := v.(type) {
		case float64:
			return n
		case int:
			return float64(n)
		}
	}
	return def
}

// Rune returns the first rune of a string value for key, or def. Useful for
// single-character settings such as a CSV delimiter.
func (o Options) Rune(key string, def rune) rune {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok && len(s) > 0 {
			return []rune(s)[0]
		}
	}
	return def
}

// StringSlice returns a []string for key when the value is an array of
// strings (or of interface values containing strings). Returns nil when the
// key is missing or not an array.
func (o Options) StringSlice(key string) []string {
	if v, ok := o[key]; ok {
		switch vv := v.(type) {
		case []any:
			out := make([]string, 0, len(vv))
			for _, x := range vv {
				if s, ok := x.(string); ok {
					out = append(out, s)
				}
			}
			return out
		case []string:
			return vv
		}
	}
	return nil
}

// FloatSlice returns a []float64 for key when the value is an array of
// numbers. Returns nil when the key is missing or not an array.
func (o Options) FloatSlice(key string) []float64 {
	if v, ok := o[key]; ok {
		switch vv := v.(type) {
		case []any:
			out := make([]float64, 0, len(vv))
			for _, x := range vv {
				switch n := x.(type) {
				case float64:
					out = append(out, n)
				case int:
					out = append(out, float64(n))
				}
			}
			return out
		case []float64:
			return vv
		}
	}
	return nil
}

// StringMap returns a map[string]string for key when the value is an object
// whose values are strings. Non-string values are ignored.
func (o Options) StringMap(key string) map[string]string {
	res := map[string]string{}
	if v, ok := o[key]; ok {
		if m, ok := v.(map[string]any); ok {
			for k, vv := range m {
				if s, ok := vv.(string); ok {
					res[k] = s
				}
			}
		}
	}
	return res
}

// Any returns the raw value for key (possibly a nested map or array), or
// nil. Useful for nested blocks the caller unmarshals into a typed struct
// (e.g. per-column cuts).
func (o Options) Any(key string) any {
	if v, ok := o[key]; ok {
		return v
	}
	return nil
}

// UnmarshalJSON implements json.Unmarshaler so that a missing or null
// "options" object decodes to a non-nil, empty Options map, removing
// nil-checks at call sites.
func (o *Options) UnmarshalJSON(b []byte) error {
	var tmp map[string]any
	if len(b) == 0 || string(b) == "null" {
		*o = Options{}
		return nil
	}
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*o = Options(tmp)
	return nil
}
