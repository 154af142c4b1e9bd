// shmbench measures the shared-memory engine end to end: map dispatch,
// chunked argument splitting, parallel argsort, shared-buffer copies
// and file round-trips, each timed on one worker and on the full pool.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/shmem-go/shmem/internal/cpu"
	"github.com/shmem-go/shmem/pool"
)

var (
	bold   = color.New(color.Bold)
	green  = color.New(color.FgGreen)
	red    = color.New(color.FgRed)
	yellow = color.New(color.FgYellow)
)

func main() {
	configPath := flag.String("config", "", "YAML suite definition (empty = built-in suite)")
	workers := flag.Int("workers", 0, "Worker count (0 = config, then detected cores)")
	iterations := flag.Int("iterations", 0, "Runs per scenario, best kept (0 = config)")
	scenario := flag.String("scenario", "", "Run a single scenario by name")
	verbose := flag.Bool("v", false, "Log pool diagnostics")
	flag.Parse()

	if err := run(*configPath, *workers, *iterations, *scenario, *verbose); err != nil {
		red.Fprintf(os.Stderr, "shmbench: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, workers, iterations int, scenario string, verbose bool) error {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return err
	}
	if cfg, err = cfg.Select(scenario); err != nil {
		return err
	}
	if workers > 0 {
		cfg.Workers = workers
	}
	if cfg.Workers <= 0 {
		cfg.Workers = cpu.Count()
	}
	if iterations > 0 {
		cfg.Iterations = iterations
	}

	log := zap.NewNop()
	if verbose {
		if log, err = zap.NewDevelopment(); err != nil {
			return err
		}
		defer log.Sync()
	}

	printHeader(cfg)

	serial := pool.New(pool.WithWorkers(1), pool.WithLogger(log))
	parallel := pool.New(pool.WithWorkers(cfg.Workers), pool.WithLogger(log))

	bar := makeProgressBar(len(cfg.Scenarios))
	results := make([]RunResult, 0, len(cfg.Scenarios))
	for _, sc := range cfg.Scenarios {
		bar.Describe(fmt.Sprintf("Running: %s", sc.Name))
		results = append(results, runScenario(sc, serial, parallel, cfg.Iterations))
		_ = bar.Add(1)
	}
	_ = bar.Finish()
	fmt.Println()

	renderResults(results, cfg.Workers)
	return nil
}

func printHeader(cfg Config) {
	bold.Println("╔════════════════════════════════════════════════════════════╗")
	bold.Printf("║       %-52s ║\n", "SHARED-MEMORY ENGINE BENCHMARK")
	bold.Println("╚════════════════════════════════════════════════════════════╝")
	fmt.Println()
	fmt.Printf("Workers:    %d\n", cfg.Workers)
	fmt.Printf("Iterations: %d (best kept)\n", cfg.Iterations)
	fmt.Printf("Scenarios:  %d\n", len(cfg.Scenarios))
	fmt.Println()
}

func makeProgressBar(n int) *progressbar.ProgressBar {
	return progressbar.NewOptions(n,
		progressbar.OptionSetDescription("Running scenarios"),
		progressbar.OptionSetWidth(50),
		progressbar.OptionShowCount(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "│",
			BarEnd:        "│",
		}),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}

func renderResults(results []RunResult, workers int) {
	ok := lo.Filter(results, func(r RunResult, _ int) bool { return r.Err == nil })
	if len(ok) > 0 {
		bold.Printf("RESULTS: 1 worker vs %d workers\n", workers)
		fmt.Println()

		table := tablewriter.NewWriter(os.Stdout)
		table.Header("Scenario", "Elements", "Serial", "Parallel", "Speedup", "Elems/sec")
		for _, r := range ok {
			_ = table.Append(
				r.Scenario,
				formatCount(r.Elements),
				r.Serial.Round(time.Millisecond).String(),
				r.Parallel.Round(time.Millisecond).String(),
				fmt.Sprintf("%.2fx", r.Speedup()),
				formatCount(int(r.ThroughputPS())),
			)
		}
		_ = table.Render()

		best := lo.MaxBy(ok, func(a, b RunResult) bool { return a.Speedup() > b.Speedup() })
		fmt.Println()
		green.Printf("Best scaling: %s at %.2fx on %d workers\n", best.Scenario, best.Speedup(), workers)
	}

	failed := lo.Filter(results, func(r RunResult, _ int) bool { return r.Err != nil })
	if len(failed) > 0 {
		fmt.Println()
		yellow.Println("Failed scenarios:")
		for _, r := range failed {
			red.Printf("  • %s: %v\n", r.Scenario, r.Err)
		}
	}
}

func formatCount(n int) string {
	switch {
	case n >= 1_000_000_000:
		return fmt.Sprintf("%.1fB", float64(n)/1e9)
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1e6)
	case n >= 1_000:
		return fmt.Sprintf("%.1fK", float64(n)/1e3)
	default:
		return fmt.Sprintf("%d", n)
	}
}
