package kv

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	gometrics "github.com/rcrowley/go-metrics"
	"github.com/signalserve/skv/cmd/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	perfTestCmd = &cobra.Command{
		Use:     "perf",
		Short:   "Performance testing tool for skv servers",
		Long:    "",
		RunE:    runPerf,
		PreRunE: processPerfConfig,
	}
	perfKeyPrefix  = "__perf"
	perfNumThreads = 10
	perfKeySpread  = 100
	perfNumOps     = 10000
	perfQuery      = ""
	perfSkip       = make([]string, 0)
)

// perfResult bundles the latency timer of one benchmark with its error count
type perfResult struct {
	timer  gometrics.Timer
	errors int64
}

func init() {
	// add flags
	key := "skip"
	perfTestCmd.Flags().String(key, "", util.WrapString("Benchmarks to skip (comma separated - e.g. get,query)"))
	key = "threads"
	perfTestCmd.Flags().Int(key, 10, util.WrapString("Number of threads to use for the benchmark"))
	key = "ops"
	perfTestCmd.Flags().Int(key, 10000, util.WrapString("Number of operations to perform per benchmark"))
	key = "keys"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("How many different keys to use for the tests"))
	key = "query"
	perfTestCmd.Flags().String(key, `"__perf-a" UNION "__perf-b"`, util.WrapString("The set-algebra query to use for the query benchmark"))
	key = "csv"
	perfTestCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// Read the configuration from the command line flags and environment variables
	perfKeySpread = viper.GetInt("keys")
	perfNumThreads = max(viper.GetInt("threads"), 1)
	perfNumOps = max(viper.GetInt("ops"), perfNumThreads)
	perfQuery = viper.GetString("query")
	perfSkip = strings.Split(viper.GetString("skip"), ",")

	return nil
}

func runPerf(_ *cobra.Command, _ []string) error {

	fmt.Println("Performance testing tool for skv servers")

	// Print configuration
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println(util.GetClientConfig().String())
	fmt.Printf("Threads: %d\n", perfNumThreads)
	fmt.Printf("Operations per benchmark: %d\n", perfNumOps)
	fmt.Println()

	fmt.Println("starting tests...")

	// Create results map
	results := make(map[string]perfResult)

	// Key helper with wraparound
	getKey := func(prefix string, i int) string {
		return fmt.Sprintf("%s-%s-%d", perfKeyPrefix, prefix, i%perfKeySpread)
	}

	// Point lookups, one key per request
	results["get"] = runBenchmark("get", func(i int) error {
		_, err := rpcLookup.GetKeyValues(newRequestContext(), []string{getKey("get", i)})
		return err
	})
	printResult("get", results["get"])

	// Point lookups, ten keys per request
	results["get-batch"] = runBenchmark("get-batch", func(i int) error {
		keys := make([]string, 10)
		for j := range keys {
			keys[j] = getKey("get", i+j)
		}
		_, err := rpcLookup.GetKeyValues(newRequestContext(), keys)
		return err
	})
	printResult("get-batch", results["get-batch"])

	// Value-set lookups
	results["getset"] = runBenchmark("getset", func(i int) error {
		_, err := rpcLookup.GetKeyValueSet(newRequestContext(), []string{getKey("getset", i)})
		return err
	})
	printResult("getset", results["getset"])

	// Set-algebra queries
	results["query"] = runBenchmark("query", func(i int) error {
		_, err := rpcLookup.RunQuery(newRequestContext(), perfQuery)
		return err
	})
	printResult("query", results["query"])

	// Mixed read workload
	results["mixed"] = runBenchmark("mixed", func(i int) error {
		switch i % 3 {
		case 0:
			_, err := rpcLookup.GetKeyValues(newRequestContext(), []string{getKey("mixed", i)})
			return err
		case 1:
			_, err := rpcLookup.GetKeyValueSet(newRequestContext(), []string{getKey("mixed", i)})
			return err
		default:
			_, err := rpcLookup.RunQuery(newRequestContext(), perfQuery)
			return err
		}
	})
	printResult("mixed", results["mixed"])

	// Write results to csv if specified
	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Printf("\nExporting results to CSV: %s\n", csvPath)
		if err := writeResultsToCSV(csvPath, results); err != nil {
			return fmt.Errorf("failed to export results to CSV: %v", err)
		}
		fmt.Println("Export complete")
	}

	return nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func shouldSkip(test string) bool {
	// Check if the test is in the skip list
	for _, skip := range perfSkip {
		if test == skip {
			return true
		}
	}
	return false
}

// runBenchmark runs the operation perfNumOps times across perfNumThreads
// goroutines and records every latency in a timer
func runBenchmark(name string, fn func(i int) error) perfResult {
	timer := gometrics.NewTimer()

	if shouldSkip(name) {
		return perfResult{timer: timer}
	}

	var (
		wg        sync.WaitGroup
		errCount  int64
		opsPerThr = perfNumOps / perfNumThreads
	)

	for t := 0; t < perfNumThreads; t++ {
		wg.Add(1)
		go func(offset int) {
			defer wg.Done()
			for i := 0; i < opsPerThr; i++ {
				start := time.Now()
				err := fn(offset*opsPerThr + i)
				timer.UpdateSince(start)
				if err != nil {
					atomic.AddInt64(&errCount, 1)
				}
			}
		}(t)
	}
	wg.Wait()

	return perfResult{timer: timer, errors: errCount}
}

// printResult prints the result of a benchmark test in a formatted way
func printResult(test string, result perfResult) {
	if result.timer.Count() == 0 {
		fmt.Printf("%-20sskipped\n", test)
		return
	}

	mean := time.Duration(result.timer.Mean())
	p99 := time.Duration(result.timer.Percentile(0.99))

	// Print the formatted result
	fmt.Printf("%-20smean=%s\tp99=%s\t%.0f ops/sec\terrors=%d\n",
		test, mean, p99, result.timer.RateMean(), result.errors)
}

// writeResultsToCSV writes benchmark results to a CSV file
func writeResultsToCSV(csvPath string, results map[string]perfResult) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	config := util.GetClientConfig()

	// Write header
	header := []string{
		"Test", "Count", "MeanNs", "P50Ns", "P99Ns", "OpsPerSec", "Errors", "Skipped",
		"Endpoints", "TimeoutSec", "RetryCount", "ConnectionsPerEndpoint",
		"ShardID", "Serializer", "Transport",
		"Threads", "Keys Count",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	// Write test results
	for test, result := range results {
		skipped := result.timer.Count() == 0

		row := []string{
			test,
			strconv.FormatInt(result.timer.Count(), 10),
			fmt.Sprintf("%.0f", result.timer.Mean()),
			fmt.Sprintf("%.0f", result.timer.Percentile(0.5)),
			fmt.Sprintf("%.0f", result.timer.Percentile(0.99)),
			fmt.Sprintf("%.0f", result.timer.RateMean()),
			strconv.FormatInt(result.errors, 10),
			strconv.FormatBool(skipped),
			strings.Join(config.Transport.Endpoints, ";"),
			strconv.Itoa(config.TimeoutSecond),
			strconv.Itoa(config.Transport.RetryCount),
			strconv.Itoa(config.Transport.ConnectionsPerEndpoint),
			strconv.FormatUint(util.GetShardID(), 10),
			viper.GetString("serializer"),
			viper.GetString("transport"),
			strconv.Itoa(perfNumThreads),
			strconv.Itoa(perfKeySpread),
		}

		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for test %s: %v", test, err)
		}
	}

	return nil
}
