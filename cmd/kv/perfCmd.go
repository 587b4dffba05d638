package kv

import (
	"context"
	"encoding/csv"
	"fmt"
	"github.com/ValentinKolb/serialkv/cmd/util"
	"github.com/ValentinKolb/serialkv/lib/store"
	"github.com/ValentinKolb/serialkv/rpc/common"
	"github.com/google/uuid"
	"github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/time/rate"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

var (
	perfTestCmd = &cobra.Command{
		Use:   "perf",
		Short: "Performance testing tool for serialkv servers",
		Long: util.WrapString(`Runs a set of load tests against a server. All requests of a
			test share the single connection of the client, so the numbers show
			how the serial request pipeline behaves under concurrent callers.`),
		RunE:    run,
		PreRunE: processPerfConfig,
	}
	perfBucket           = "__perf"
	perfKeyPrefix        = ""
	perfLargeValueSizeKB = 100
	perfNumThreads       = 10
	perfKeySpread        = 100
	perfRequests         = 1000
	perfRate             = 0.0
	perfSkip             = make([]string, 0)
)

// perfResult is the outcome of a single load test
type perfResult struct {
	test     string
	skipped  bool
	timer    metrics.Timer
	duration time.Duration
	errors   int64
}

func init() {
	// add flags
	key := "skip"
	perfTestCmd.Flags().String(key, "", util.WrapString("Tests to skip (comma separated - e.g. put,get)"))
	key = "threads"
	perfTestCmd.Flags().Int(key, 10, util.WrapString("Number of goroutines sending requests concurrently"))
	key = "requests"
	perfTestCmd.Flags().Int(key, 1000, util.WrapString("Number of requests per test"))
	key = "rate"
	perfTestCmd.Flags().Float64(key, 0, util.WrapString("Maximum requests per second of a test (0 = unlimited)"))
	key = "large-value-size"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("How large the value for the put-large test should be (in KB)"))
	key = "keys"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("How many different keys to use for the tests"))
	key = "csv"
	perfTestCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
	key = "metrics"
	perfTestCmd.Flags().Bool(key, false, util.WrapString("Print the transport metrics after the tests"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// Read the configuration from the command line flags and environment variables
	perfLargeValueSizeKB = viper.GetInt("large-value-size")
	perfKeySpread = viper.GetInt("keys")
	perfNumThreads = viper.GetInt("threads")
	perfRequests = viper.GetInt("requests")
	perfRate = viper.GetFloat64("rate")
	perfSkip = strings.Split(viper.GetString("skip"), ",")

	if perfKeySpread <= 0 || perfNumThreads <= 0 || perfRequests <= 0 {
		return fmt.Errorf("keys, threads and requests must be positive")
	}

	// Every run writes its own keys so concurrent runs do not interfere
	perfKeyPrefix = "__perf-" + uuid.NewString()[:8]

	return nil
}

func run(_ *cobra.Command, _ []string) error {

	fmt.Println("Performance testing tool for serialkv servers")

	// Print configuration
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println(util.GetClientConfig().String())
	fmt.Printf("Threads:  %d\n", perfNumThreads)
	fmt.Printf("Requests: %d\n", perfRequests)
	if perfRate > 0 {
		fmt.Printf("Rate:     %.0f req/s\n", perfRate)
	}
	fmt.Println()

	if err := rpcStore.Ping(); err != nil {
		return fmt.Errorf("server not reachable: %w", err)
	}

	fmt.Println("starting tests...")
	fmt.Println()

	registry := metrics.NewRegistry()
	largeValue := make([]byte, perfLargeValueSizeKB*1024)

	tests := []struct {
		name    string
		prepare bool
		op      func(key string, i int) error
	}{
		{"put", false, func(key string, _ int) error {
			_, err := rpcStore.Put(perfBucket, key, nil, store.Content{Value: []byte("test")})
			return err
		}},
		{"put-large", false, func(key string, _ int) error {
			_, err := rpcStore.Put(perfBucket, key, nil, store.Content{Value: largeValue})
			return err
		}},
		{"get", true, func(key string, _ int) error {
			_, _, err := rpcStore.Get(perfBucket, key)
			return err
		}},
		{"get-missing", false, func(key string, _ int) error {
			_, _, err := rpcStore.Get(perfBucket, key)
			return err
		}},
		{"delete", true, func(key string, _ int) error {
			return rpcStore.Delete(perfBucket, key, nil)
		}},
		{"ping", false, func(string, int) error {
			return rpcStore.Ping()
		}},
		{"mixed", true, func(key string, i int) error {
			var err error
			switch i % 3 {
			case 0: // put
				_, err = rpcStore.Put(perfBucket, key, nil, store.Content{Value: []byte("test")})
			case 1: // get
				_, _, err = rpcStore.Get(perfBucket, key)
			case 2: // delete
				err = rpcStore.Delete(perfBucket, key, nil)
			}
			return err
		}},
	}

	results := make([]perfResult, 0, len(tests))
	for _, test := range tests {
		if shouldSkip(test.name) {
			result := perfResult{test: test.name, skipped: true}
			results = append(results, result)
			printResult(result)
			continue
		}

		keys := getKeys(test.name)
		if test.prepare {
			for _, k := range keys {
				if _, err := rpcStore.Put(perfBucket, k, nil, store.Content{Value: []byte("test")}); err != nil {
					util.Logger.Warningf("(%s) - error preparing key: %v", test.name, err)
				}
			}
		}

		result := runTest(test.name, keys, metrics.GetOrRegisterTimer(test.name, registry), test.op)
		results = append(results, result)
		printResult(result)

		// cleanup
		for _, k := range keys {
			if err := rpcStore.Delete(perfBucket, k, nil); err != nil {
				util.Logger.Warningf("(%s) - error deleting key: %v", test.name, err)
			}
		}
	}

	if viper.GetBool("metrics") {
		if mw, ok := rpcTransport.(metricsWriter); ok {
			fmt.Println()
			fmt.Println("Transport metrics:")
			mw.WriteMetrics(os.Stdout)
		}
	}

	// Write results to csv is specified
	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Printf("\nExporting results to CSV: %s\n", csvPath)
		if err := writeResultsToCSV(csvPath, results, util.GetClientConfig()); err != nil {
			return fmt.Errorf("failed to export results to CSV: %v", err)
		}
		fmt.Println("Export complete")
	}

	return nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// runTest sends perfRequests requests from perfNumThreads goroutines and records
// the latency of every request in timer
func runTest(test string, keys []string, timer metrics.Timer, op func(key string, i int) error) perfResult {
	limit := rate.Inf
	if perfRate > 0 {
		limit = rate.Limit(perfRate)
	}
	limiter := rate.NewLimiter(limit, perfNumThreads)

	var next atomic.Int64
	var errors atomic.Int64
	var wg sync.WaitGroup

	start := time.Now()
	for w := 0; w < perfNumThreads; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				i := int(next.Add(1) - 1)
				if i >= perfRequests {
					return
				}
				if err := limiter.Wait(context.Background()); err != nil {
					return
				}

				opStart := time.Now()
				err := op(keys[i%len(keys)], i)
				timer.UpdateSince(opStart)

				if err != nil {
					errors.Add(1)
					util.Logger.Debugf("(%s) - request failed: %v", test, err)
				}
			}
		}()
	}
	wg.Wait()

	return perfResult{
		test:     test,
		timer:    timer.Snapshot(),
		duration: time.Since(start),
		errors:   errors.Load(),
	}
}

func shouldSkip(test string) bool {
	// Check if the test is in the skip list
	for _, skip := range perfSkip {
		if test == strings.TrimSpace(skip) {
			return true
		}
	}
	return false
}

// getKeys creates the test keys of a single test
func getKeys(test string) []string {
	keys := make([]string, perfKeySpread)
	for i := range keys {
		keys[i] = fmt.Sprintf("%s-%s-%d", perfKeyPrefix, test, i)
	}
	return keys
}

// opsPerSec returns the throughput of a test
func (r perfResult) opsPerSec() float64 {
	if r.duration <= 0 {
		return 0
	}
	return float64(r.timer.Count()) / r.duration.Seconds()
}

// printResult prints the result of a test in a formatted way
func printResult(r perfResult) {
	if r.skipped {
		fmt.Printf("%-14sskipped\n", r.test)
		return
	}

	fmt.Printf("%-14smean %-12s p50 %-12s p99 %-12s max %-12s %8.0f ops/sec",
		r.test,
		time.Duration(r.timer.Mean()),
		time.Duration(r.timer.Percentile(0.5)),
		time.Duration(r.timer.Percentile(0.99)),
		time.Duration(r.timer.Max()),
		r.opsPerSec(),
	)
	if r.errors > 0 {
		fmt.Printf("  (%d errors)", r.errors)
	}
	fmt.Println()
}

// writeResultsToCSV writes benchmark results to a CSV file
func writeResultsToCSV(csvPath string, results []perfResult, config *common.ClientConfig) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	header := []string{
		"Test", "Skipped", "Requests", "Errors", "MeanNs", "P50Ns", "P99Ns", "MaxNs", "OpsPerSec",
		"Endpoint", "TimeoutMs", "Serializer", "Transport",
		"Threads", "Rate", "LargeValueSizeKB", "Keys Count",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	// Write test results
	for _, r := range results {
		row := []string{r.test, strconv.FormatBool(r.skipped), "0", "0", "0", "0", "0", "0", "0"}
		if !r.skipped {
			row = []string{
				r.test,
				"false",
				strconv.FormatInt(r.timer.Count(), 10),
				strconv.FormatInt(r.errors, 10),
				fmt.Sprintf("%.0f", r.timer.Mean()),
				fmt.Sprintf("%.0f", r.timer.Percentile(0.5)),
				fmt.Sprintf("%.0f", r.timer.Percentile(0.99)),
				strconv.FormatInt(r.timer.Max(), 10),
				fmt.Sprintf("%.0f", r.opsPerSec()),
			}
		}
		row = append(row,
			config.Transport.Endpoint,
			strconv.Itoa(config.TimeoutMillisecond),
			viper.GetString("serializer"),
			viper.GetString("transport"),
			strconv.Itoa(perfNumThreads),
			strconv.FormatFloat(perfRate, 'f', -1, 64),
			strconv.Itoa(perfLargeValueSizeKB),
			strconv.Itoa(perfKeySpread),
		)

		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for test %s: %v", r.test, err)
		}
	}

	return nil
}
