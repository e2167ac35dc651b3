// Package loadtest fires concurrent GET requests against a directory listing
// endpoint and summarizes the response times.
package loadtest

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/datarhei/jsondir/encoding/json"

	"github.com/fatih/color"
	"github.com/go-resty/resty/v2"
)

type Config struct {
	URL         string
	Requests    int
	Concurrency int
	Timeout     time.Duration

	// Verify enables the verification of the server certificate.
	Verify bool

	// Progress is called after every 10th completed request and after the last one.
	Progress func(completed, successful int)
}

// Result is the outcome of a single request.
type Result struct {
	Success  bool
	Status   int
	Duration time.Duration
	Items    int
	Error    string
}

type Report struct {
	TotalRequests  int
	Successful     int
	Failed         int
	SuccessRate    float64
	TotalTime      time.Duration
	RequestsPerSec float64

	// Response times in milliseconds of the successful requests, rounded to two decimals.
	Average float64
	Minimum float64
	Maximum float64
	Median  float64
	P95     float64

	Errors map[string]int
}

// Run executes the configured number of requests with at most Concurrency
// requests in flight. It returns the results in completion order and the
// wall clock time of the whole run.
func Run(ctx context.Context, config Config) ([]Result, time.Duration, error) {
	if config.Requests < 1 {
		return nil, 0, fmt.Errorf("the number of requests must be positive")
	}

	if config.Concurrency < 1 {
		return nil, 0, fmt.Errorf("the concurrency must be positive")
	}

	if len(config.URL) == 0 {
		return nil, 0, fmt.Errorf("no URL provided")
	}

	client := resty.New()
	client.SetTimeout(config.Timeout)
	client.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: !config.Verify})
	client.SetHeader("Accept", "application/json")

	jobs := make(chan struct{})
	results := make([]Result, 0, config.Requests)

	var lock sync.Mutex
	successful := 0

	wg := sync.WaitGroup{}

	start := time.Now()

	for i := 0; i < config.Concurrency; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for range jobs {
				r := request(ctx, client, config.URL)

				lock.Lock()
				results = append(results, r)
				if r.Success {
					successful++
				}
				completed := len(results)
				if config.Progress != nil && (completed%10 == 0 || completed == config.Requests) {
					config.Progress(completed, successful)
				}
				lock.Unlock()
			}
		}()
	}

loop:
	for i := 0; i < config.Requests; i++ {
		select {
		case <-ctx.Done():
			break loop
		case jobs <- struct{}{}:
		}
	}

	close(jobs)
	wg.Wait()

	return results, time.Since(start), ctx.Err()
}

func request(ctx context.Context, client *resty.Client, url string) Result {
	start := time.Now()

	resp, err := client.R().SetContext(ctx).Get(url)

	r := Result{
		Duration: time.Since(start),
	}

	if err != nil {
		r.Error = err.Error()
		return r
	}

	r.Status = resp.StatusCode()

	if r.Status != 200 {
		r.Error = fmt.Sprintf("HTTP %d", r.Status)
		return r
	}

	body := struct {
		TotalItems *int `json:"total_items"`
	}{}

	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		r.Error = "Invalid JSON: " + err.Error()
		return r
	}

	if body.TotalItems == nil {
		r.Error = "Missing total_items"
		return r
	}

	r.Success = true
	r.Items = *body.TotalItems

	return r
}

// Summarize computes the report for the results of a run that took total.
func Summarize(results []Result, total time.Duration) Report {
	report := Report{
		TotalRequests: len(results),
		TotalTime:     total,
		Errors:        map[string]int{},
	}

	durations := []float64{}

	for _, r := range results {
		if r.Success {
			report.Successful++
			durations = append(durations, float64(r.Duration)/float64(time.Millisecond))
			continue
		}

		report.Failed++

		e := r.Error
		if len(e) == 0 {
			e = "Unknown"
		}

		report.Errors[e]++
	}

	if report.TotalRequests > 0 {
		report.SuccessRate = float64(report.Successful) / float64(report.TotalRequests) * 100
	}

	if total > 0 {
		report.RequestsPerSec = round(float64(report.TotalRequests) / total.Seconds())
	}

	if len(durations) == 0 {
		return report
	}

	sorted := make([]float64, len(durations))
	copy(sorted, durations)
	sort.Float64s(sorted)

	sum := 0.0
	for _, d := range sorted {
		sum += d
	}

	n := len(sorted)

	report.Average = round(sum / float64(n))
	report.Minimum = round(sorted[0])
	report.Maximum = round(sorted[n-1])

	if n%2 == 1 {
		report.Median = round(sorted[n/2])
	} else {
		report.Median = round((sorted[n/2-1] + sorted[n/2]) / 2)
	}

	if n > 1 {
		report.P95 = round(sorted[int(float64(n)*0.95)])
	} else {
		report.P95 = round(durations[0])
	}

	return report
}

// Passed returns whether the success rate reached the threshold in percent.
func (r Report) Passed(threshold float64) bool {
	return r.SuccessRate >= threshold
}

// Print writes the report in human readable form to w.
func (r Report) Print(w io.Writer) {
	rule := strings.Repeat("=", 60)

	bold := color.New(color.Bold)
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)

	fmt.Fprintf(w, "\n%s\n", rule)
	bold.Fprintln(w, "Results:")
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Total Requests: %d\n", r.TotalRequests)
	green.Fprintf(w, "Successful: %d\n", r.Successful)

	if r.Failed > 0 {
		red.Fprintf(w, "Failed: %d\n", r.Failed)
	} else {
		fmt.Fprintf(w, "Failed: %d\n", r.Failed)
	}

	fmt.Fprintf(w, "Success Rate: %.1f%%\n", r.SuccessRate)
	fmt.Fprintf(w, "Total Time: %.2fs\n", r.TotalTime.Seconds())
	fmt.Fprintf(w, "Requests/sec: %.2f\n", r.RequestsPerSec)

	if r.Successful > 0 {
		fmt.Fprintln(w)
		bold.Fprintln(w, "Response Times:")
		fmt.Fprintf(w, "  Average: %.2fms\n", r.Average)
		fmt.Fprintf(w, "  Minimum: %.2fms\n", r.Minimum)
		fmt.Fprintf(w, "  Maximum: %.2fms\n", r.Maximum)
		fmt.Fprintf(w, "  Median: %.2fms\n", r.Median)
		fmt.Fprintf(w, "  95th Percentile: %.2fms\n", r.P95)
	}

	if len(r.Errors) != 0 {
		errs := make([]string, 0, len(r.Errors))
		for e := range r.Errors {
			errs = append(errs, e)
		}
		sort.Strings(errs)

		fmt.Fprintln(w)
		red.Fprintln(w, "Errors:")
		for _, e := range errs {
			fmt.Fprintf(w, "  %s: %d\n", e, r.Errors[e])
		}
	}

	fmt.Fprintln(w, rule)
}

func round(x float64) float64 {
	return math.Round(x*100) / 100
}
