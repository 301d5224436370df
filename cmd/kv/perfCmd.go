package kv

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	gometrics "github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	perfTestCmd = &cobra.Command{
		Use:     "perf",
		Short:   "Performance testing tool for strata backends",
		Long:    "",
		RunE:    runPerf,
		PreRunE: processPerfConfig,
	}
	perfKeyPrefix        = "__test"
	perfOps              = 10000
	perfLargeValueSizeKB = 100
	perfNumThreads       = 10
	perfKeySpread        = 100
	perfSkip             = make([]string, 0)
)

func init() {
	// add flags
	key := "skip"
	perfTestCmd.Flags().String(key, "", "Benchmarks to skip (comma separated - e.g. set,get)")
	key = "ops"
	perfTestCmd.Flags().Int(key, 10000, "Number of operations per benchmark")
	key = "threads"
	perfTestCmd.Flags().Int(key, 10, "Number of threads to use for the benchmark")
	key = "large-value-size"
	perfTestCmd.Flags().Int(key, 100, "How large the value for the set-large test should be (in KB)")
	key = "keys"
	perfTestCmd.Flags().Int(key, 100, "How many different keys to use for the tests")
	key = "csv"
	perfTestCmd.Flags().String(key, "", "Optional path to save benchmark results as CSV")
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// Read the configuration from the command line flags and environment variables
	perfOps = viper.GetInt("ops")
	perfLargeValueSizeKB = viper.GetInt("large-value-size")
	perfKeySpread = viper.GetInt("keys")
	perfNumThreads = viper.GetInt("threads")
	perfSkip = strings.Split(viper.GetString("skip"), ",")

	return nil
}

func runPerf(_ *cobra.Command, _ []string) error {

	fmt.Println("Performance testing tool for strata backends")

	// Print configuration
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Printf("Backend: %s\n", viper.GetString("backend"))
	fmt.Printf("Operations: %d\n", perfOps)
	fmt.Printf("Threads: %d\n", perfNumThreads)
	fmt.Printf("Keys: %d\n", perfKeySpread)
	fmt.Println()

	fmt.Println("starting tests...")

	// Create results registry
	registry := gometrics.NewRegistry()

	runBenchmark(registry, "set", nil, func(counter int) {
		if err := bk.Set(perfKey("set", counter), []byte("test")); err != nil {
			log.Printf("(set) - error setting key: %v\n", err)
		}
	})

	largeValue := make([]byte, perfLargeValueSizeKB*1024)
	runBenchmark(registry, "set-large", nil, func(counter int) {
		if err := bk.Set(perfKey("set-large", counter), largeValue); err != nil {
			log.Printf("(set-large) - error setting key: %v\n", err)
		}
	})

	runBenchmark(registry, "get", seedKeys("get"), func(counter int) {
		if _, _, err := bk.Get(perfKey("get", counter)); err != nil {
			log.Printf("(get) - error getting key: %v\n", err)
		}
	})

	runBenchmark(registry, "delete", seedKeys("delete"), func(counter int) {
		if err := bk.Delete(perfKey("delete", counter)); err != nil {
			log.Printf("(delete) - error deleting key: %v\n", err)
		}
	})

	runBenchmark(registry, "exists", seedKeys("exists"), func(counter int) {
		if _, err := bk.Exists(perfKey("exists", counter)); err != nil {
			log.Printf("(exists) - error checking key: %v\n", err)
		}
	})

	runBenchmark(registry, "exists-not", nil, func(counter int) {
		key := fmt.Sprintf("%s/exists-not-%d", perfKeyPrefix, counter%perfKeySpread)
		if _, err := bk.Exists(key); err != nil {
			log.Printf("(exists-not) - error checking key: %v\n", err)
		}
	})

	runBenchmark(registry, "zadd", nil, func(counter int) {
		member := fmt.Sprintf("member-%d", counter%perfKeySpread)
		if err := bk.SortedSetAdd(perfKeyPrefix+"-zadd", float64(counter), member); err != nil {
			log.Printf("(zadd) - error adding member: %v\n", err)
		}
	})

	runBenchmark(registry, "mixed", seedKeys("mixed"), func(counter int) {
		key := perfKey("mixed", counter)
		var err error
		switch counter % 4 {
		case 0: // set
			err = bk.Set(key, []byte("test"))
		case 1: // get
			_, _, err = bk.Get(key)
		case 2: // delete
			err = bk.Delete(key)
		case 3: // exists
			_, err = bk.Exists(key)
		}
		if err != nil {
			log.Printf("(mixed) - error performing operation (%d): %v\n", counter%4, err)
		}
	})

	// cleanup test keys
	if keys, err := bk.Keys(perfKeyPrefix + "*"); err == nil {
		for _, key := range keys {
			_ = bk.Delete(key)
		}
	}

	// Write results to csv if specified
	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Printf("\nExporting results to CSV: %s\n", csvPath)
		if err := writeResultsToCSV(csvPath, registry); err != nil {
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

// perfKey returns a test key by index (with wraparound)
func perfKey(test string, i int) string {
	return fmt.Sprintf("%s-%s-%d", perfKeyPrefix, test, i%perfKeySpread)
}

// seedKeys returns a setup function that pre-populates the keys for a test
func seedKeys(test string) func() {
	return func() {
		for i := 0; i < perfKeySpread; i++ {
			if err := bk.Set(perfKey(test, i), []byte("test")); err != nil {
				log.Printf("(%s) - error seeding key: %v\n", test, err)
			}
		}
	}
}

// runBenchmark spreads the configured number of operations over the worker
// threads, timing each operation with a registry timer.
func runBenchmark(registry gometrics.Registry, test string, setup func(), op func(counter int)) {
	if shouldSkip(test) {
		fmt.Printf("%-20sskipped\n", test)
		return
	}

	if setup != nil {
		setup()
	}

	timer := gometrics.GetOrRegisterTimer(test, registry)

	var wg sync.WaitGroup
	opsPerThread := perfOps / perfNumThreads
	for t := 0; t < perfNumThreads; t++ {
		wg.Add(1)
		go func(thread int) {
			defer wg.Done()
			for i := 0; i < opsPerThread; i++ {
				counter := thread*opsPerThread + i
				timer.Time(func() { op(counter) })
			}
		}(t)
	}
	wg.Wait()

	printResult(test, timer)
}

// printResult prints the result of a benchmark test in a formatted way
func printResult(test string, timer gometrics.Timer) {
	mean := timer.Mean()
	if mean == 0 {
		fmt.Printf("%-20sskipped\n", test)
		return
	}

	opsPerSec := 1.0 / (mean / 1e9)
	fmt.Printf("%-20s%.0fns/op (%s/op)\tp99 %s\t%.0f ops/sec\n",
		test, mean, time.Duration(mean), time.Duration(timer.Percentile(0.99)), opsPerSec)
}

// writeResultsToCSV writes benchmark results to a CSV file
func writeResultsToCSV(csvPath string, registry gometrics.Registry) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	header := []string{
		"Test", "Count", "MeanNs", "P50Ns", "P99Ns", "OpsPerSec",
		"Backend", "Threads", "LargeValueSizeKB", "KeysCount",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	// Write test results
	var writeErr error
	registry.Each(func(test string, metric any) {
		timer, ok := metric.(gometrics.Timer)
		if !ok || writeErr != nil {
			return
		}

		mean := timer.Mean()
		var opsPerSec float64
		if mean > 0 {
			opsPerSec = 1.0 / (mean / 1e9)
		}

		row := []string{
			test,
			strconv.FormatInt(timer.Count(), 10),
			fmt.Sprintf("%.0f", mean),
			fmt.Sprintf("%.0f", timer.Percentile(0.5)),
			fmt.Sprintf("%.0f", timer.Percentile(0.99)),
			fmt.Sprintf("%.0f", opsPerSec),
			viper.GetString("backend"),
			strconv.Itoa(perfNumThreads),
			strconv.Itoa(perfLargeValueSizeKB),
			strconv.Itoa(perfKeySpread),
		}

		if err := writer.Write(row); err != nil {
			writeErr = fmt.Errorf("failed to write row for test %s: %v", test, err)
		}
	})

	return writeErr
}
