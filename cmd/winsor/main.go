// The winsor binary runs a configured cleaning pipeline: read a CSV from a
// file or URL, winsorize or trim the configured columns, and write the
// result to a CSV file or database table.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"winsor/internal/config"
	"winsor/internal/metrics"
	"winsor/internal/metrics/datadog"
	"winsor/internal/metrics/prompush"

	// register all sinks with the storage factory; the config picks one at
	// run time.
	_ "winsor/internal/storage/all"
)

func main() {
	var (
		cfgPath           string
		metricsBackendFlg string
		pushGatewayURLFlg string
		statsdAddrFlg     string
		validate          bool
	)

	flag.StringVar(&cfgPath, "config", "configs/pipelines/sample.json", "pipeline config JSON path")
	flag.StringVar(&metricsBackendFlg, "metrics-backend", "none", "metrics backend (pushgateway, datadog, none)")
	flag.StringVar(&pushGatewayURLFlg, "pushgateway-url", "", "Pushgateway base URL (overrides env PUSHGATEWAY_URL)")
	flag.StringVar(&statsdAddrFlg, "statsd-addr", "", "DogStatsD address (overrides env DD_AGENT_ADDR)")
	flag.BoolVar(&validate, "validate", false, "validate the configuration and exit")
	verbose := flag.Bool("v", false, "enable verbose logs")

	flag.Parse()

	if !*verbose {
		log.SetOutput(io.Discard)
	}

	f, err := os.Open(cfgPath)
	if err != nil {
		fatalf("open config: %v", err)
	}
	defer f.Close()

	var p config.Pipeline
	if err := json.NewDecoder(f).Decode(&p); err != nil {
		fatalf("decode config: %v", err)
	}

	issues := config.ValidatePipeline(p)
	hasError := false
	for _, iss := range issues {
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
		if iss.Severity == config.SeverityError {
			hasError = true
		}
	}
	if hasError {
		fatalf("configuration is invalid: %v", cfgPath)
	}
	if validate {
		fmt.Fprintf(os.Stderr, "configuration is valid: %v\n", cfgPath)
		return
	}

	job := p.Job
	if job == "" {
		job = "winsor_job"
	}
	initMetrics(metricsBackendFlg, job, pushGatewayURLFlg, statsdAddrFlg, *verbose)
	defer func() {
		if err := metrics.Flush(); err != nil {
			log.Printf("metrics: flush error: %v", err)
		}
	}()

	start := time.Now()
	if *verbose {
		log.Printf("pipeline: job=%s source=%s parser=%s storage=%s",
			job, p.Source.Kind, p.Parser.Kind, p.Storage.Kind)
	}

	stats, err := run(context.Background(), p)
	if err != nil {
		fatalf("%v", err)
	}

	fmt.Fprintf(os.Stderr, "done in %s: parsed=%d skipped=%d trimmed=%d written=%d\n",
		time.Since(start).Truncate(time.Millisecond),
		stats.parsed, stats.parseSkips, stats.rowsTrimmed, stats.inserted)
}

// initMetrics selects and installs the metrics backend: flag → env →
// disabled. A backend that fails to initialize degrades to nop with a log
// line instead of aborting the run.
func initMetrics(backend, job, gatewayURL, statsdAddr string, verbose bool) {
	if backend == "" {
		backend = os.Getenv("METRICS_BACKEND")
	}

	switch backend {
	case "pushgateway":
		if gatewayURL == "" {
			gatewayURL = os.Getenv("PUSHGATEWAY_URL")
		}
		if gatewayURL == "" {
			gatewayURL = "http://localhost:9091"
		}
		b, err := prompush.NewBackend(job, gatewayURL)
		if err != nil {
			log.Printf("metrics: pushgateway init failed: %v; metrics disabled", err)
			return
		}
		metrics.SetBackend(b)
		if verbose {
			log.Printf("metrics: backend=pushgateway url=%s job=%s", gatewayURL, job)
		}

	case "datadog":
		if statsdAddr == "" {
			statsdAddr = os.Getenv("DD_AGENT_ADDR")
		}
		b, err := datadog.NewBackend(datadog.Config{Addr: statsdAddr, Namespace: "winsor"})
		if err != nil {
			log.Printf("metrics: datadog init failed: %v; metrics disabled", err)
			return
		}
		metrics.SetBackend(b)
		if verbose {
			log.Printf("metrics: backend=datadog addr=%s job=%s", statsdAddr, job)
		}

	case "", "none":
		if verbose {
			log.Printf("metrics: disabled")
		}

	default:
		log.Printf("metrics: unknown backend %q; metrics disabled", backend)
	}
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
