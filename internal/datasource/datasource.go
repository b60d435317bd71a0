// Package datasource abstracts where pipeline input bytes come from. A
// Source hands the parser a single readable stream; implementations exist
// for local files and HTTP downloads.
package datasource

import (
	"context"
	"fmt"
	"io"
	"time"

	"winsor/internal/config"
	"winsor/internal/datasource/file"
	"winsor/internal/datasource/httpds"
)

// Source yields the raw input stream for one pipeline run. Callers own the
// returned ReadCloser.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// New builds the Source selected by cfg.Kind.
func New(cfg config.Source) (Source, error) {
	switch cfg.Kind {
	case "file":
		return file.NewLocal(cfg.File.Path), nil
	case "http":
		timeout := time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second
		return httpds.NewRemote(cfg.HTTP.URL, httpds.Config{Timeout: timeout}), nil
	default:
		return nil, fmt.Errorf("datasource: unknown source kind %q", cfg.Kind)
	}
}
