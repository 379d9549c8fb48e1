package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/akavel/dodo"
)

func main() {
	count := flag.Int("count", 1000, "Number of saves (and loads) per adapter")
	adapters := flag.String("adapters", "memory,fs,sqlite", "Comma-separated adapters to benchmark")
	keep := flag.Bool("keep", false, "Keep the benchmark directory after running")
	flag.Parse()

	benchDir, err := os.MkdirTemp("", "dodo_bench_")
	if err != nil {
		panic(err)
	}
	defer func() {
		if !*keep {
			os.RemoveAll(benchDir)
		} else {
			fmt.Printf("Keeping bench dir: %s\n", benchDir)
		}
	}()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))
	ctx := context.Background()

	fmt.Printf("--------------------------------------------------\n")
	fmt.Printf("Benchmark Result (%d operations):\n", *count)
	for _, name := range strings.Split(*adapters, ",") {
		name = strings.TrimSpace(name)
		save, load, err := run(ctx, name, benchDir, *count, logger)
		if err != nil {
			fmt.Printf("  %-7s failed: %v\n", name, err)
			continue
		}
		fmt.Printf("  %-7s save: %v/op  load: %v/op\n", name, save, load)
	}
	fmt.Printf("--------------------------------------------------\n")
}

// run issues count concurrent saves, then count concurrent loads.
func run(ctx context.Context, adapter, dir string, count int, logger *slog.Logger) (time.Duration, time.Duration, error) {
	b, err := dodo.New(dir,
		dodo.WithAdapter(adapter),
		dodo.WithNamespace("bench-"+adapter),
		dodo.WithLogger(logger),
	)
	if err != nil {
		return 0, 0, err
	}
	defer b.Close(ctx)

	start := time.Now()
	saves := make([]<-chan error, count)
	for i := range count {
		saves[i] = b.Save(ctx, dodo.Document{"count": i, "title": fmt.Sprintf("Benchmark %d", i)})
	}
	for _, done := range saves {
		if err := <-done; err != nil {
			return 0, 0, err
		}
	}
	saveTime := time.Since(start)

	start = time.Now()
	loads := make([]<-chan dodo.LoadResult, count)
	for i := range count {
		loads[i] = b.Load(ctx)
	}
	for _, done := range loads {
		if res := <-done; res.Err != nil {
			return 0, 0, res.Err
		}
	}
	loadTime := time.Since(start)

	return saveTime / time.Duration(count), loadTime / time.Duration(count), nil
}
