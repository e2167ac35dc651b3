package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/datarhei/jsondir/loadtest"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/cobra"
)

const defaultURL = "https://localhost:8050/"

var rootCmd = &cobra.Command{
	Use:   "jsondir-loadtest [url]",
	Short: "Load test for the JSON directory server",
	Long: `jsondir-loadtest sends concurrent GET requests to a directory listing
endpoint and reports the success rate and the response times.

A request is successful if the server responds with 200 and a JSON body
that contains "total_items". The exit code is 0 if at least 99% of the
requests have been successful.`,
	Args: cobra.MaximumNArgs(1),
	Run:  process,
}

func init() {
	rootCmd.Flags().IntP("requests", "n", 100, "Number of requests")
	rootCmd.Flags().IntP("concurrency", "c", 10, "Number of concurrent requests")
	rootCmd.Flags().DurationP("timeout", "t", 10*time.Second, "Timeout per request")
	rootCmd.Flags().Bool("quick", false, "Quick test with 20 requests and a concurrency of 5")
	rootCmd.Flags().Bool("stress", false, "Stress test with 500 requests and a concurrency of 50")
	rootCmd.Flags().Bool("verify", false, "Verify the server certificate")
}

func process(cmd *cobra.Command, args []string) {
	url := defaultURL
	if len(args) != 0 {
		url = args[0]
	}

	flags := cmd.Flags()

	requests, _ := flags.GetInt("requests")
	concurrency, _ := flags.GetInt("concurrency")
	timeout, _ := flags.GetDuration("timeout")
	verify, _ := flags.GetBool("verify")

	if quick, _ := flags.GetBool("quick"); quick {
		requests, concurrency = 20, 5
	}

	if stress, _ := flags.GetBool("stress"); stress {
		requests, concurrency = 500, 50
	}

	rule := strings.Repeat("=", 60)

	fmt.Println(rule)
	fmt.Printf("Load Test: %s\n", url)
	fmt.Printf("Requests: %d | Concurrency: %d | Timeout: %s\n", requests, concurrency, timeout)
	fmt.Println(rule)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	results, total, err := loadtest.Run(ctx, loadtest.Config{
		URL:         url,
		Requests:    requests,
		Concurrency: concurrency,
		Timeout:     timeout,
		Verify:      verify,
		Progress: func(completed, successful int) {
			fmt.Printf("Progress: %d/%d | Success: %d\n", completed, requests, successful)
		},
	})
	if err != nil && len(results) == 0 {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	report := loadtest.Summarize(results, total)
	report.Print(os.Stdout)

	if err != nil || !report.Passed(99) {
		cancel()
		os.Exit(1)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}
