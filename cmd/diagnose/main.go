// Command diagnose calls every enabled provider once, without retries or breakers,
// and prints what each one returned. It is meant for checking keys, feed URLs and
// category mappings after editing the provider file.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"

	"newshub/internal/config"
	"newshub/internal/domain/entity"
	"newshub/internal/infra/provider"
	"newshub/internal/usecase/aggregate"
	"newshub/internal/utils/datetime"
)

// Diagnostic is the outcome of one provider call.
type Diagnostic struct {
	Provider     string `json:"provider"`
	Type         string `json:"type"`
	Status       string `json:"status"` // OK, EMPTY or the error code
	Articles     int    `json:"articles"`
	Latest       string `json:"latest,omitempty"`
	Error        string `json:"error,omitempty"`
	Retryable    bool   `json:"retryable,omitempty"`
	ResponseTime int64  `json:"response_time_ms"`
}

func main() {
	configPath := flag.String("config", config.Path(), "provider configuration file")
	category := flag.String("category", "", "catalog category to query (default: first catalog category)")
	location := flag.String("location", "", "catalog location to query")
	timeout := flag.Duration("timeout", 15*time.Second, "per-provider timeout")
	asJSON := flag.Bool("json", false, "print JSON instead of a table")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "warning: .env: %v\n", err)
	}

	// adapters log skipped records at debug; keep stdout for the report
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	file, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	q := aggregate.Query{Category: *category, Location: *location}
	if q.Category == "" && len(file.Catalog.Categories) > 0 {
		q.Category = file.Catalog.Categories[0]
	}
	if err := file.Catalog.ValidateQuery(q.Category, q.Location); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}

	factory := provider.NewFactory(logger)
	var diags []Diagnostic
	for _, pc := range file.EnabledProviders() {
		p, err := factory.Build(pc)
		if err != nil {
			diags = append(diags, Diagnostic{Provider: pc.Name, Type: pc.Type, Status: "BUILD_ERROR", Error: err.Error()})
			continue
		}
		diags = append(diags, diagnose(p, pc.Type, q, *timeout))
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(diags); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	} else {
		printReport(os.Stdout, q, diags)
	}

	for _, d := range diags {
		if d.Status != "OK" && d.Status != "EMPTY" {
			os.Exit(3)
		}
	}
}

func diagnose(p aggregate.Provider, typ string, q aggregate.Query, timeout time.Duration) Diagnostic {
	d := Diagnostic{Provider: p.Name(), Type: typ}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	start := time.Now()
	articles, err := p.FetchArticles(ctx, q)
	d.ResponseTime = time.Since(start).Milliseconds()

	if err != nil {
		d.Status = "REQUEST_ERROR"
		d.Error = err.Error()
		var se *entity.SourceError
		if errors.As(err, &se) {
			d.Status = se.Code
			d.Error = se.Message
			d.Retryable = se.Retryable
		}
		return d
	}

	d.Articles = len(articles)
	if len(articles) == 0 {
		d.Status = "EMPTY"
		return d
	}
	d.Status = "OK"

	latest := articles[0].PublishedAt
	for _, a := range articles[1:] {
		if a.PublishedAt.After(latest) {
			latest = a.PublishedAt
		}
	}
	d.Latest = datetime.RelativeTime(latest.Format(time.RFC3339), time.Now())
	return d
}

func printReport(w io.Writer, q aggregate.Query, diags []Diagnostic) {
	fmt.Fprintf(w, "query: category=%s location=%s\n\n", q.Category, q.Location)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PROVIDER\tTYPE\tSTATUS\tARTICLES\tLATEST\tTIME\tERROR")
	ok := 0
	for _, d := range diags {
		if d.Status == "OK" {
			ok++
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%dms\t%s\n",
			d.Provider, d.Type, d.Status, d.Articles, d.Latest, d.ResponseTime, d.Error)
	}
	_ = tw.Flush()

	fmt.Fprintf(w, "\n%d/%d providers returned articles\n", ok, len(diags))
}
