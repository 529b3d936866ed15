// Command makemodel-scan extracts make and model from one product page and
// prints the result as JSON.
//
//	makemodel-scan -url https://www.bunnings.co.nz/...
//	makemodel-scan -file page.html -page-url https://www.mitre10.co.nz/...
//
// With -open, the web search for a non-exclusive result is opened in the
// default browser.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/go-rod/rod/lib/launcher"

	"github.com/use-agent/makemodel/brand"
	"github.com/use-agent/makemodel/config"
	"github.com/use-agent/makemodel/engine"
	"github.com/use-agent/makemodel/extractor"
	"github.com/use-agent/makemodel/models"
	"github.com/use-agent/makemodel/scraper"
	"github.com/use-agent/makemodel/search"
)

type output struct {
	models.QueryResponse
	SearchURL string `json:"search_url,omitempty"`
	Engine    string `json:"engine,omitempty"`
}

func main() {
	var (
		pageURL = flag.String("url", "", "product page to fetch")
		file    = flag.String("file", "", "read page HTML from this file instead of fetching")
		fileURL = flag.String("page-url", "", "address the -file HTML was captured from")
		mode    = flag.String("mode", scraper.ModeAuto, "fetch mode: auto, http or browser")
		stealth = flag.Bool("stealth", false, "inject the stealth script into browser tabs")
		timeout = flag.Duration("timeout", 30*time.Second, "fetch timeout")
		open    = flag.Bool("open", false, "open the web search for non-exclusive results")
		verbose = flag.Bool("v", false, "debug logging on stderr")
	)
	flag.Parse()

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if err := run(*pageURL, *file, *fileURL, *mode, *stealth, *timeout, *open); err != nil {
		fmt.Fprintln(os.Stderr, "makemodel-scan:", err)
		os.Exit(1)
	}
}

func run(pageURL, file, fileURL, mode string, stealth bool, timeout time.Duration, open bool) error {
	cfg := config.Load()

	pipe, err := extractor.NewPipeline(brand.Default().WithOverrides(cfg.Brands.Overrides))
	if err != nil {
		return err
	}

	var (
		rawHTML string
		out     output
	)
	switch {
	case file != "":
		if fileURL == "" {
			return fmt.Errorf("-page-url is required with -file")
		}
		data, err := os.ReadFile(file)
		if err != nil {
			return err
		}
		rawHTML, pageURL = string(data), fileURL

	case pageURL != "":
		res, err := fetch(cfg, pipe, pageURL, mode, stealth, timeout)
		if err != nil {
			return err
		}
		rawHTML, out.Engine = res.HTML, res.EngineName
		if res.FinalURL != "" {
			pageURL = res.FinalURL
		}

	default:
		flag.Usage()
		return fmt.Errorf("one of -url or -file is required")
	}

	doc, err := extractor.NewDocument(rawHTML, pageURL)
	if err != nil {
		return err
	}
	out.Result = pipe.Extract(doc)
	if u, ok := search.ForResult(cfg.Search.BaseURL, out.Result); ok {
		out.SearchURL = u
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return err
	}

	if open && out.SearchURL != "" {
		launcher.Open(out.SearchURL)
	}
	return nil
}

// fetch loads pageURL; the browser is only launched when the mode can use it.
func fetch(cfg *config.Config, pipe *extractor.Pipeline, pageURL, mode string, stealth bool, timeout time.Duration) (*engine.FetchResult, error) {
	browserCfg := cfg.Browser
	browserCfg.Enabled = browserCfg.Enabled && mode != scraper.ModeHTTP
	browserCfg.MaxPages = 1

	sc, err := scraper.New(browserCfg, cfg.Fetch, cfg.Session.SettleTime, func(res *engine.FetchResult) error {
		if !pipe.HasProduct(res.HTML, res.FinalURL) {
			return engine.ErrIncomplete
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	defer sc.Close()

	return sc.Fetch(context.Background(), scraper.FetchOptions{
		URL:     pageURL,
		Timeout: timeout,
		Stealth: stealth,
		Mode:    mode,
	})
}
