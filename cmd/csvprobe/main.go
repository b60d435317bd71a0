// The csvprobe binary samples the head of a CSV dataset, reports per-column
// tail quantiles so users can pick winsorizing cuts, and can emit a starter
// pipeline config for the winsor binary.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"unicode/utf8"

	"winsor/internal/probe"
)

var (
	flagURL       = flag.String("url", "", "URL or local path of the CSV file to sample")
	flagBytes     = flag.Int("bytes", 64*1024, "number of bytes to sample from the start of the file")
	flagDelimiter = flag.String("delimiter", ",", "CSV field delimiter (single character)")
	flagEncoding  = flag.String("encoding", "", "source charset (windows-1250, iso-8859-2, latin1); empty means UTF-8")
	flagJob       = flag.String("job", "", "job name used in the suggested config")
	flagSuggest   = flag.Bool("suggest", false, "print a starter pipeline config (JSON) instead of the report")
	flagInsecure  = flag.Bool("insecure", false, "skip TLS certificate verification")
)

func main() {
	flag.Parse()

	delim := ','
	if *flagDelimiter != "" {
		if r, _ := utf8.DecodeRuneInString(*flagDelimiter); r != utf8.RuneError {
			delim = r
		}
	}

	rep, err := probe.Run(context.Background(), probe.Options{
		URL:              *flagURL,
		MaxBytes:         *flagBytes,
		Delimiter:        delim,
		Encoding:         *flagEncoding,
		AllowInsecureTLS: *flagInsecure,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if *flagSuggest {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(probe.SuggestPipeline(rep, *flagJob)); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	fmt.Print(rep.Text())
}
