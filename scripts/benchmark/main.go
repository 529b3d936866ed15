package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/use-agent/makemodel/models"
)

// CLI flags
var (
	apiURL    = flag.String("api-url", "http://localhost:8080", "makemodel API base URL")
	apiKey    = flag.String("api-key", "", "API key for authenticated requests")
	runs      = flag.Int("runs", 3, "Number of runs per URL for averaging")
	fetchMode = flag.String("mode", "auto", "Fetch mode: auto, http or browser")
	output    = flag.String("output", "benchmark-results.json", "JSON output file path")
)

// Product pages with the make and model a correct extraction returns.
// An empty WantMake expects an exclusive-brand result.
var testPages = []struct {
	Label     string
	URL       string
	WantMake  string
	WantModel string
}{
	{"Bunnings branded", "https://www.bunnings.co.nz/ryobi-18v-one-cordless-drill-driver_p0260441", "Ryobi", "R18DD3-0"},
	{"Bunnings exclusive", "https://www.bunnings.co.nz/ozito-pxc-18v-cordless-drill-driver-skin-only_p0143426", "", ""},
	{"Mitre10 branded", "https://www.mitre10.co.nz/shop/makita-18v-brushless-hammer-driver-drill-skin/_/p-309870", "Makita", "DHP484Z"},
	{"Mitre10 exclusive", "https://www.mitre10.co.nz/shop/jobmate-claw-hammer-16oz/_/p-286412", "", ""},
}

type runResult struct {
	Run         int    `json:"run"`
	TotalMs     int64  `json:"total_ms"`
	FetchMs     int64  `json:"fetch_ms"`
	ExtractMs   int64  `json:"extract_ms"`
	Engine      string `json:"engine"`
	StatusCode  int    `json:"status_code"`
	Make        string `json:"make,omitempty"`
	Model       string `json:"model,omitempty"`
	IsExclusive bool   `json:"is_exclusive"`
	Correct     bool   `json:"correct"`
	Success     bool   `json:"success"`
	Error       string `json:"error,omitempty"`
}

type pageAverages struct {
	TotalMs   float64 `json:"total_ms"`
	FetchMs   float64 `json:"fetch_ms"`
	ExtractMs float64 `json:"extract_ms"`
	Accuracy  float64 `json:"accuracy"`
}

type pageResult struct {
	URL      string        `json:"url"`
	Label    string        `json:"label"`
	Runs     []runResult   `json:"runs"`
	Averages *pageAverages `json:"averages,omitempty"`
}

type benchmarkReport struct {
	Timestamp  string       `json:"timestamp"`
	APIURL     string       `json:"api_url"`
	FetchMode  string       `json:"fetch_mode"`
	RunsPerURL int          `json:"runs_per_url"`
	Results    []pageResult `json:"results"`
}

func main() {
	flag.Parse()

	fmt.Println("=== makemodel Benchmark Suite ===")
	fmt.Printf("API URL:   %s\n", *apiURL)
	fmt.Printf("Mode:      %s\n", *fetchMode)
	fmt.Printf("Runs/URL:  %d\n", *runs)
	fmt.Printf("Output:    %s\n", *output)
	fmt.Println()

	if err := checkAPI(*apiURL); err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot reach API at %s: %v\n", *apiURL, err)
		fmt.Fprintf(os.Stderr, "Make sure the makemodel server is running\n")
		os.Exit(1)
	}

	report := benchmarkReport{
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		APIURL:     *apiURL,
		FetchMode:  *fetchMode,
		RunsPerURL: *runs,
	}

	for _, t := range testPages {
		fmt.Printf("Benchmarking [%s] %s ...\n", t.Label, t.URL)
		pr := pageResult{URL: t.URL, Label: t.Label}

		for i := 1; i <= *runs; i++ {
			fmt.Printf("  Run %d/%d ... ", i, *runs)
			rr := benchmarkPage(t.URL, i)
			rr.Correct = rr.Success && matches(rr, t.WantMake, t.WantModel)
			switch {
			case !rr.Success:
				fmt.Printf("FAILED: %s\n", rr.Error)
			case rr.Correct:
				fmt.Printf("OK  %dms  %s\n", rr.TotalMs, describe(rr))
			default:
				fmt.Printf("WRONG  %dms  %s\n", rr.TotalMs, describe(rr))
			}
			pr.Runs = append(pr.Runs, rr)
		}

		pr.Averages = computeAverages(pr.Runs)
		report.Results = append(report.Results, pr)
		fmt.Println()
	}

	printTable(report.Results)

	if err := writeJSON(*output, report); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing JSON output: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\nDetailed results written to %s\n", *output)
}

func checkAPI(baseURL string) error {
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(baseURL + "/api/v1/health")
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

func benchmarkPage(url string, run int) runResult {
	rr := runResult{Run: run}

	bodyBytes, err := json.Marshal(models.ExtractRequest{
		URL:       url,
		Timeout:   60,
		FetchMode: *fetchMode,
	})
	if err != nil {
		rr.Error = fmt.Sprintf("marshal error: %v", err)
		return rr
	}

	req, err := http.NewRequest(http.MethodPost, *apiURL+"/api/v1/extract", bytes.NewReader(bodyBytes))
	if err != nil {
		rr.Error = fmt.Sprintf("request error: %v", err)
		return rr
	}
	req.Header.Set("Content-Type", "application/json")
	if *apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+*apiKey)
	}

	client := &http.Client{Timeout: 90 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		rr.Error = fmt.Sprintf("request failed: %v", err)
		return rr
	}
	defer resp.Body.Close()

	var er models.ExtractResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		rr.Error = fmt.Sprintf("decode error: %v", err)
		return rr
	}

	rr.Success = er.Success
	rr.StatusCode = er.StatusCode
	rr.Engine = er.EngineUsed
	rr.TotalMs = er.Timing.TotalMs
	rr.FetchMs = er.Timing.FetchMs
	rr.ExtractMs = er.Timing.ExtractMs
	if res := er.Result; res != nil {
		rr.Make = deref(res.Make)
		rr.Model = deref(res.Model)
		rr.IsExclusive = res.IsExclusive
	}
	if er.Error != nil {
		rr.Error = er.Error.Message
	}
	return rr
}

func matches(rr runResult, wantMake, wantModel string) bool {
	if wantMake == "" {
		return rr.IsExclusive
	}
	return !rr.IsExclusive &&
		strings.EqualFold(rr.Make, wantMake) &&
		strings.EqualFold(rr.Model, wantModel)
}

func describe(rr runResult) string {
	if rr.IsExclusive {
		return fmt.Sprintf("exclusive (%s)", rr.Make)
	}
	return fmt.Sprintf("%s / %s via %s", orDash(rr.Make), orDash(rr.Model), rr.Engine)
}

func computeAverages(runs []runResult) *pageAverages {
	var successCount, correctCount int
	var avg pageAverages

	for _, r := range runs {
		if !r.Success {
			continue
		}
		successCount++
		if r.Correct {
			correctCount++
		}
		avg.TotalMs += float64(r.TotalMs)
		avg.FetchMs += float64(r.FetchMs)
		avg.ExtractMs += float64(r.ExtractMs)
	}

	if successCount == 0 {
		return nil
	}

	n := float64(successCount)
	avg.TotalMs /= n
	avg.FetchMs /= n
	avg.ExtractMs /= n
	avg.Accuracy = float64(correctCount) / float64(len(runs)) * 100
	return &avg
}

func printTable(results []pageResult) {
	fmt.Println(strings.Repeat("─", 85))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Page\tAvg Latency\tAvg Extract\tAccuracy\tEngine\n")
	fmt.Fprintf(w, "────\t───────────\t───────────\t────────\t──────\n")

	for _, r := range results {
		if r.Averages == nil {
			fmt.Fprintf(w, "%s\tFAILED\t-\t-\t-\n", r.Label)
			continue
		}
		fmt.Fprintf(w, "%s\t%dms\t%dms\t%.0f%%\t%s\n",
			r.Label,
			int64(r.Averages.TotalMs),
			int64(r.Averages.ExtractMs),
			r.Averages.Accuracy,
			dominantEngine(r.Runs),
		)
	}

	w.Flush()
	fmt.Println(strings.Repeat("─", 85))
}

func dominantEngine(runs []runResult) string {
	counts := map[string]int{}
	for _, r := range runs {
		if r.Success {
			counts[r.Engine]++
		}
	}
	best, bestCount := "", 0
	for engine, count := range counts {
		if count > bestCount {
			best = engine
			bestCount = count
		}
	}
	return best
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func writeJSON(path string, report benchmarkReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
