package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pior/redisstack"
	"github.com/pior/redisstack/command"
	"github.com/pior/redisstack/promstats"
	"github.com/pior/redisstack/timeseries"
)

type OperationType string

const (
	Ping        OperationType = "ping"
	CacheHit    OperationType = "cache-hit"
	CacheMiss   OperationType = "cache-miss"
	Increment   OperationType = "increment"
	Transaction OperationType = "transaction"
	TSAdd       OperationType = "ts-add"
	All         OperationType = "all"
)

var operations = []OperationType{Ping, CacheHit, CacheMiss, Increment, Transaction, TSAdd}

type BenchmarkResult struct {
	Operation    OperationType
	Duration     time.Duration
	TotalOps     int64
	Successes    int64
	Failures     int64
	AvgLatency   time.Duration
	OpsPerSecond float64
	Correctness  bool
	ErrorMessage string
}

// op runs one operation. A wrong reply is reported as a mismatch.
type op func(ctx context.Context, worker, n int) error

type mismatch string

func (m mismatch) Error() string { return string(m) }

func main() {
	var (
		operation   = flag.String("operation", "all", "Operation type: ping, cache-hit, cache-miss, increment, transaction, ts-add, or all")
		duration    = flag.Duration("duration", 5*time.Second, "Duration to run benchmarks")
		concurrency = flag.Int("concurrency", 1, "Number of concurrent workers")
		servers     = flag.String("servers", redisstack.DefaultAddr, "Comma-separated list of Redis servers")
		poolSize    = flag.Int("pool-size", 20, "Connections per server")
		metricsAddr = flag.String("metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9121)")
	)
	flag.Parse()

	fmt.Printf("Redis Benchmark Tool\n")
	fmt.Printf("====================\n")
	fmt.Printf("Operation: %s\n", *operation)
	fmt.Printf("Duration: %v\n", *duration)
	fmt.Printf("Concurrency: %d\n", *concurrency)
	fmt.Printf("Servers: %s\n", *servers)
	fmt.Println()

	client, err := redisstack.NewClient(redisstack.Config{
		Addrs:           strings.Split(*servers, ","),
		MaxSize:         int32(*poolSize),
		MaxConnIdleTime: 5 * time.Minute,
	})
	if err != nil {
		log.Fatalf("Failed to create client: %v", err)
	}
	defer client.Close()

	if *metricsAddr != "" {
		serveMetrics(*metricsAddr, client)
	}

	fmt.Print("Testing connection...")
	if err := client.Ping(context.Background()); err != nil {
		fmt.Printf(" failed: %v\n", err)
		fmt.Printf("Make sure redis-stack is running on %s\n", *servers)
		return
	}
	fmt.Println(" success!")
	fmt.Println()

	if OperationType(*operation) == All {
		for _, op := range operations {
			fmt.Printf("\n--- Running %s benchmark ---\n", op)
			printResult(runOperation(client, op, *duration, *concurrency))
			time.Sleep(500 * time.Millisecond)
		}
	} else {
		printResult(runOperation(client, OperationType(*operation), *duration, *concurrency))
	}

	stats := client.Stats()
	fmt.Printf("Client: %d commands, %d transactions, %d errors\n", stats.Commands, stats.Transactions, stats.Errors)
}

func runOperation(client *redisstack.Client, operation OperationType, duration time.Duration, concurrency int) *BenchmarkResult {
	fn, err := prepare(client, operation)
	if err != nil {
		return &BenchmarkResult{Operation: operation, ErrorMessage: err.Error()}
	}
	return run(operation, fn, duration, concurrency)
}

func prepare(client *redisstack.Client, operation OperationType) (op, error) {
	ctx := context.Background()

	switch operation {
	case Ping:
		return func(ctx context.Context, _, _ int) error {
			return client.Ping(ctx)
		}, nil

	// 1 set, then gets
	case CacheHit:
		key, value := "bench:cache-hit", "cache-hit-value"
		if _, err := client.Set(ctx, key, value, &redisstack.SetOptions{Expiration: time.Hour}); err != nil {
			return nil, fmt.Errorf("failed to set initial value: %w", err)
		}
		return func(ctx context.Context, _, _ int) error {
			got, err := client.Get(ctx, key)
			if err != nil {
				return err
			}
			if got != value {
				return mismatch("value mismatch")
			}
			return nil
		}, nil

	case CacheMiss:
		return func(ctx context.Context, worker, n int) error {
			_, err := client.Get(ctx, fmt.Sprintf("bench:missing-%d-%d", worker, n))
			if errors.Is(err, command.ErrNil) {
				return nil
			}
			if err != nil {
				return err
			}
			return mismatch("expected a miss but got a value")
		}, nil

	case Increment:
		key := "bench:counter"
		if _, err := client.Del(ctx, key); err != nil {
			return nil, fmt.Errorf("failed to reset counter: %w", err)
		}
		return func(ctx context.Context, _, _ int) error {
			n, err := client.Incr(ctx, key)
			if err != nil {
				return err
			}
			if n <= 0 {
				return mismatch(fmt.Sprintf("counter is %d after INCR", n))
			}
			return nil
		}, nil

	// SET then GET in one MULTI/EXEC
	case Transaction:
		return func(ctx context.Context, worker, n int) error {
			key := fmt.Sprintf("bench:tx-%d", worker)
			value := strconv.Itoa(n)
			results, err := client.Multi().
				Set(key, value, &redisstack.SetOptions{Expiration: time.Minute}).
				Get(key).
				Exec(ctx)
			if err != nil {
				return err
			}
			if results[1] != value {
				return mismatch("transaction read mismatch")
			}
			return nil
		}, nil

	case TSAdd:
		key := "bench:series"
		if _, err := client.Del(ctx, key); err != nil {
			return nil, fmt.Errorf("failed to reset series: %w", err)
		}
		opts := &timeseries.AddOptions{OnDuplicate: timeseries.DuplicatePolicyLast}
		return func(ctx context.Context, _, n int) error {
			_, err := client.TS().Add(ctx, key, timeseries.Now, float64(n), opts)
			return err
		}, nil

	default:
		return nil, fmt.Errorf("unknown operation: %s", operation)
	}
}

func run(operation OperationType, fn op, duration time.Duration, concurrency int) *BenchmarkResult {
	ctx := context.Background()
	result := &BenchmarkResult{Operation: operation, Correctness: true}

	var totalOps, successes, failures, totalLatency atomic.Int64
	var mismatchOnce sync.Once

	fmt.Printf("Starting %s benchmark with %d workers for %v...\n", operation, concurrency, duration)

	startTime := time.Now()
	var wg sync.WaitGroup

	for worker := range concurrency {
		wg.Go(func() {
			for n := 0; time.Since(startTime) < duration; n++ {
				opStart := time.Now()
				err := fn(ctx, worker, n)
				totalLatency.Add(int64(time.Since(opStart)))
				totalOps.Add(1)

				if err == nil {
					successes.Add(1)
					continue
				}
				failures.Add(1)

				var m mismatch
				if errors.As(err, &m) {
					mismatchOnce.Do(func() {
						result.Correctness = false
						result.ErrorMessage = m.Error()
					})
				}
			}
		})
	}

	wg.Wait()

	result.Duration = time.Since(startTime)
	result.TotalOps = totalOps.Load()
	result.Successes = successes.Load()
	result.Failures = failures.Load()

	if result.TotalOps > 0 {
		result.AvgLatency = time.Duration(totalLatency.Load() / result.TotalOps)
		result.OpsPerSecond = float64(result.TotalOps) / result.Duration.Seconds()
	}

	return result
}

func serveMetrics(addr string, client *redisstack.Client) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(promstats.NewCollector(client))

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Printf("Metrics server stopped: %v", err)
		}
	}()
	fmt.Printf("Metrics: http://%s/metrics\n", addr)
}

func printResult(result *BenchmarkResult) {
	fmt.Printf("Operation: %s\n", result.Operation)
	fmt.Printf("Duration: %v\n", result.Duration)
	fmt.Printf("Total Operations: %d\n", result.TotalOps)
	fmt.Printf("Successes: %d\n", result.Successes)
	fmt.Printf("Failures: %d\n", result.Failures)
	if result.TotalOps > 0 {
		fmt.Printf("Success Rate: %.2f%%\n", float64(result.Successes)/float64(result.TotalOps)*100)
		fmt.Printf("Ops/sec: %.2f\n", result.OpsPerSecond)
		fmt.Printf("Avg Latency: %v\n", result.AvgLatency)
	}
	fmt.Printf("Correctness: %t\n", result.Correctness)
	if result.ErrorMessage != "" {
		fmt.Printf("Error: %s\n", result.ErrorMessage)
	}
	fmt.Println()
}
