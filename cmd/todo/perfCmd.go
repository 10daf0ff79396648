package todo

import (
	"encoding/csv"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/dTodo/cmd/util"
	"github.com/ValentinKolb/dTodo/lib/list"
	"github.com/ValentinKolb/dTodo/rpc/common"
	gometrics "github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	perfTestCmd = &cobra.Command{
		Use:     "perf",
		Short:   "Performance testing tool for dTodo servers",
		Long:    "Runs the post, get and mixed benchmarks against a server. Every benchmark uses its own set of keys, which are stopped afterwards.",
		RunE:    runPerf,
		PreRunE: processPerfConfig,
	}
	perfKeyPrefix  = "__perf"
	perfNumThreads = 10
	perfKeySpread  = 100
	perfOps        = 10000
	perfSkip       = make([]string, 0)
)

func init() {
	key := "skip"
	perfTestCmd.Flags().String(key, "", util.WrapString("Benchmarks to skip (comma separated - e.g. post,mixed)"))
	key = "threads"
	perfTestCmd.Flags().Int(key, 10, util.WrapString("Number of goroutines sending requests"))
	key = "keys"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("How many different keys (and so workers) to use for each benchmark"))
	key = "ops"
	perfTestCmd.Flags().Int(key, 10000, util.WrapString("Requests per benchmark"))
	key = "csv"
	perfTestCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	perfKeySpread = max(viper.GetInt("keys"), 1)
	perfNumThreads = max(viper.GetInt("threads"), 1)
	perfOps = max(viper.GetInt("ops"), 1)
	perfSkip = strings.Split(viper.GetString("skip"), ",")

	return nil
}

// perfResult is the outcome of one benchmark
type perfResult struct {
	name     string
	timer    gometrics.Timer
	errors   int64
	duration time.Duration
}

func runPerf(_ *cobra.Command, _ []string) error {
	fmt.Println("Performance testing tool for dTodo servers")

	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println(util.GetClientConfig().String())
	fmt.Printf("Threads: %d, Keys: %d, Ops: %d\n", perfNumThreads, perfKeySpread, perfOps)
	fmt.Println()

	today := list.DateOf(time.Now()).String()
	results := make([]perfResult, 0, 3)

	benchmarks := []struct {
		name    string
		prepare bool
		op      func(i int, key string) error
	}{
		{"post", false, func(i int, key string) error {
			return todoClient.Post(key, today, "perf entry "+strconv.Itoa(i))
		}},
		{"get", true, func(_ int, key string) error {
			_, err := todoClient.Get(key, today)
			return err
		}},
		{"mixed", true, func(i int, key string) error {
			if i%2 == 0 {
				return todoClient.Post(key, today, "perf entry "+strconv.Itoa(i))
			}
			_, err := todoClient.Get(key, today)
			return err
		}},
	}

	fmt.Printf("%-10s%10s%14s%14s%14s%14s%10s\n", "test", "ops", "mean", "p50", "p95", "p99", "errors")
	for _, bench := range benchmarks {
		if slices.Contains(perfSkip, bench.name) {
			fmt.Printf("%-10sskipped\n", bench.name)
			continue
		}

		keys := perfKeys(bench.name)
		if bench.prepare {
			for _, key := range keys {
				if err := todoClient.Post(key, today, "prepared entry"); err != nil {
					return fmt.Errorf("(%s) - error preparing key %s: %w", bench.name, key, err)
				}
			}
		}

		result := runBenchmark(bench.name, keys, bench.op)
		results = append(results, result)
		printResult(result)

		// stop the workers so the next benchmark starts from a clean registry
		for _, key := range keys {
			if _, err := todoClient.Stop(key); err != nil {
				fmt.Printf("(%s) - error stopping worker %s: %v\n", bench.name, key, err)
			}
		}
	}

	fmt.Println()
	fmt.Printf("Requests sent: %v\n", todoClient.Requests())

	// Write results to csv if specified
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

// runBenchmark spreads perfOps calls of op over perfNumThreads goroutines
func runBenchmark(name string, keys []string, op func(i int, key string) error) perfResult {
	timer := gometrics.NewTimer()
	var next, errCount atomic.Int64
	var wg sync.WaitGroup

	start := time.Now()
	for t := 0; t < perfNumThreads; t++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				i := int(next.Add(1)) - 1
				if i >= perfOps {
					return
				}
				opStart := time.Now()
				err := op(i, keys[i%len(keys)])
				timer.UpdateSince(opStart)
				if err != nil {
					if errCount.Add(1) <= 5 {
						fmt.Printf("(%s) - error: %v\n", name, err)
					}
				}
			}
		}()
	}
	wg.Wait()

	return perfResult{name: name, timer: timer, errors: errCount.Load(), duration: time.Since(start)}
}

// perfKeys creates the test keys of one benchmark
func perfKeys(prefix string) []string {
	keys := make([]string, perfKeySpread)
	for i := range keys {
		keys[i] = fmt.Sprintf("%s-%s-%d", perfKeyPrefix, prefix, i)
	}
	return keys
}

// printResult prints the result of a benchmark in a formatted way
func printResult(r perfResult) {
	snap := r.timer.Snapshot()
	ps := snap.Percentiles([]float64{0.5, 0.95, 0.99})
	fmt.Printf("%-10s%10d%14s%14s%14s%14s%10d  (%.0f ops/sec)\n",
		r.name,
		snap.Count(),
		time.Duration(snap.Mean()),
		time.Duration(ps[0]),
		time.Duration(ps[1]),
		time.Duration(ps[2]),
		r.errors,
		float64(snap.Count())/r.duration.Seconds(),
	)
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

	header := []string{
		"Test", "Ops", "Errors", "MeanNs", "P50Ns", "P95Ns", "P99Ns", "MaxNs", "OpsPerSec",
		"Endpoints", "TimeoutSec", "RetryCount", "ConnectionsPerEndpoint",
		"Serializer", "Threads", "Keys",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	for _, r := range results {
		snap := r.timer.Snapshot()
		ps := snap.Percentiles([]float64{0.5, 0.95, 0.99})
		row := []string{
			r.name,
			strconv.FormatInt(snap.Count(), 10),
			strconv.FormatInt(r.errors, 10),
			fmt.Sprintf("%.0f", snap.Mean()),
			fmt.Sprintf("%.0f", ps[0]),
			fmt.Sprintf("%.0f", ps[1]),
			fmt.Sprintf("%.0f", ps[2]),
			strconv.FormatInt(snap.Max(), 10),
			fmt.Sprintf("%.0f", float64(snap.Count())/r.duration.Seconds()),
			strings.Join(config.Endpoints, ";"),
			strconv.Itoa(config.TimeoutSecond),
			strconv.Itoa(config.RetryCount),
			strconv.Itoa(config.ConnectionsPerEndpoint),
			viper.GetString("serializer"),
			strconv.Itoa(perfNumThreads),
			strconv.Itoa(perfKeySpread),
		}

		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for test %s: %v", r.name, err)
		}
	}

	return nil
}
