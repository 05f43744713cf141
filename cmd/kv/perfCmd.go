package kv

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ValentinKolb/hKV/cmd/util"
	"github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	perfTestCmd = &cobra.Command{
		Use:     "perf",
		Short:   "Performance testing tool for hKV servers",
		RunE:    runPerf,
		PreRunE: processPerfConfig,
	}
	perfNodePrefix = "__perf"
	perfNumThreads = 10
	perfOps        = 1000
	perfKeySpread  = 100
	perfSkip       = make([]string, 0)
)

// perfTest is one workload. op is called with a worker local counter.
type perfTest struct {
	name string
	op   func(ctx context.Context, ns string, path func(int) string, i int) error
}

var perfTests = []perfTest{
	{name: "write", op: func(ctx context.Context, ns string, path func(int) string, i int) error {
		return rpcStore.Write(ctx, ns, path(i), "test")
	}},
	{name: "read", op: func(ctx context.Context, ns string, path func(int) string, i int) error {
		_, err := rpcStore.Read(ctx, ns, path(i))
		return err
	}},
	{name: "nodes", op: func(ctx context.Context, ns string, _ func(int) string, i int) error {
		_, err := rpcStore.NodesStartingIn(ctx, ns, perfNodePrefix, 1+i%2)
		return err
	}},
	{name: "search", op: func(ctx context.Context, ns string, _ func(int) string, i int) error {
		_, err := rpcStore.Search(ctx, ns, strconv.Itoa(i%perfKeySpread))
		return err
	}},
	{name: "mixed", op: func(ctx context.Context, ns string, path func(int) string, i int) error {
		var err error
		switch i % 4 {
		case 0:
			err = rpcStore.Write(ctx, ns, path(i), "test")
		case 1:
			_, err = rpcStore.Read(ctx, ns, path(i-1))
		case 2:
			_, err = rpcStore.NodesStartingIn(ctx, ns, perfNodePrefix, 1)
		case 3:
			_, err = rpcStore.Search(ctx, ns, "key")
		}
		return err
	}},
}

func init() {
	key := "skip"
	perfTestCmd.Flags().String(key, "", util.WrapString("Workloads to skip (comma separated - e.g. write,search)"))
	key = "threads"
	perfTestCmd.Flags().Int(key, 10, util.WrapString("Number of concurrent workers"))
	key = "ops"
	perfTestCmd.Flags().Int(key, 1000, util.WrapString("Requests per worker and workload"))
	key = "keys"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("How many different paths to use for the tests"))
	key = "csv"
	perfTestCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	perfNumThreads = max(1, viper.GetInt("threads"))
	perfOps = max(1, viper.GetInt("ops"))
	perfKeySpread = max(1, viper.GetInt("keys"))
	perfSkip = strings.Split(viper.GetString("skip"), ",")
	return nil
}

func runPerf(cmd *cobra.Command, _ []string) error {
	fmt.Println("Performance testing tool for hKV servers")

	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println(util.GetClientConfig().String())
	fmt.Printf("Threads: %d, Ops per thread: %d, Namespace: %s\n", perfNumThreads, perfOps, namespace())
	fmt.Println()

	ctx := cmd.Context()
	ns := namespace()
	registry := metrics.NewRegistry()
	path := perfPath()

	// the tree operations need data to work on
	for i := 0; i < perfKeySpread; i++ {
		if err := rpcStore.Write(ctx, ns, path(i), "test"); err != nil {
			return fmt.Errorf("failed to prepare test data: %w", err)
		}
	}
	defer func() {
		if _, err := rpcStore.DeleteRecursivelyFrom(context.Background(), ns, perfNodePrefix); err != nil {
			fmt.Printf("failed to clean up test data: %v\n", err)
		}
	}()

	fmt.Println("starting tests...")
	for _, test := range perfTests {
		if slices.Contains(perfSkip, test.name) {
			printResult(test.name, nil)
			continue
		}
		timer := metrics.GetOrRegisterTimer(test.name, registry)
		errs := runWorkload(ctx, ns, test, path, timer)
		printResult(test.name, timer)
		if errs > 0 {
			fmt.Printf("%-20s%d requests failed\n", "", errs)
		}
	}

	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Printf("\nExporting results to CSV: %s\n", csvPath)
		if err := writeResultsToCSV(csvPath, registry); err != nil {
			return fmt.Errorf("failed to export results to CSV: %v", err)
		}
		fmt.Println("Export complete")
	}
	return nil
}

// runWorkload runs test on perfNumThreads workers and returns the number of failed requests
func runWorkload(ctx context.Context, ns string, test perfTest, path func(int) string, timer metrics.Timer) int64 {
	failed := metrics.NewCounter()
	var wg sync.WaitGroup
	for w := 0; w < perfNumThreads; w++ {
		wg.Add(1)
		go func(offset int) {
			defer wg.Done()
			for i := 0; i < perfOps; i++ {
				start := time.Now()
				err := test.op(ctx, ns, path, offset+i)
				timer.UpdateSince(start)
				if err != nil {
					failed.Inc(1)
				}
			}
		}(w * perfOps)
	}
	wg.Wait()
	return failed.Count()
}

// perfPath spreads the test paths over two levels below perfNodePrefix
func perfPath() func(int) string {
	paths := make([]string, perfKeySpread)
	for i := range paths {
		paths[i] = fmt.Sprintf("%s.group%d.key%d", perfNodePrefix, i%10, i)
	}
	return func(i int) string {
		return paths[((i%perfKeySpread)+perfKeySpread)%perfKeySpread]
	}
}

// printResult prints the result of a workload, a nil timer marks it as skipped
func printResult(test string, timer metrics.Timer) {
	if timer == nil || timer.Count() == 0 {
		fmt.Printf("%-20sskipped\n", test)
		return
	}
	s := timer.Snapshot()
	ps := s.Percentiles([]float64{0.5, 0.99})
	fmt.Printf("%-20smean %s\tp50 %s\tp99 %s\t%.0f ops/sec\n", test,
		time.Duration(s.Mean()), time.Duration(ps[0]), time.Duration(ps[1]), s.RateMean())
}

// writeResultsToCSV writes all timers of the registry to a CSV file
func writeResultsToCSV(csvPath string, registry metrics.Registry) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{
		"Test", "Count", "MeanNs", "P50Ns", "P99Ns", "MaxNs", "OpsPerSec",
		"Endpoints", "ShardID", "Serializer", "Transport", "Threads", "Keys",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	config := util.GetClientConfig()
	var rows [][]string
	registry.Each(func(name string, m interface{}) {
		timer, ok := m.(metrics.Timer)
		if !ok {
			return
		}
		s := timer.Snapshot()
		ps := s.Percentiles([]float64{0.5, 0.99})
		rows = append(rows, []string{
			name,
			strconv.FormatInt(s.Count(), 10),
			fmt.Sprintf("%.0f", s.Mean()),
			fmt.Sprintf("%.0f", ps[0]),
			fmt.Sprintf("%.0f", ps[1]),
			strconv.FormatInt(s.Max(), 10),
			fmt.Sprintf("%.0f", s.RateMean()),
			strings.Join(config.Transport.Endpoints, ";"),
			strconv.FormatUint(util.GetShardID(), 10),
			viper.GetString("serializer"),
			viper.GetString("transport"),
			strconv.Itoa(perfNumThreads),
			strconv.Itoa(perfKeySpread),
		})
	})
	slices.SortFunc(rows, func(a, b []string) int { return strings.Compare(a[0], b[0]) })

	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for test %s: %v", row[0], err)
		}
	}
	return nil
}
