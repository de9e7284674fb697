package example

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/patrikhermansson/thermal/config"
	"github.com/patrikhermansson/thermal/simulation"
	"github.com/rs/zerolog/log"
)

// ScalingResult holds the outcome of one pipeline run at a given worker count.
type ScalingResult struct {
	Workers      int
	Stages       []simulation.Stage
	Total        time.Duration
	FinalEntropy float64
}

// DefaultWorkerCounts are the worker counts benchmarked when THERMAL_BENCH_WORKERS is unset.
var DefaultWorkerCounts = []int{1, 2, 4, 8}

// WorkerCountsFromEnv reads a comma separated list of worker counts from THERMAL_BENCH_WORKERS.
func WorkerCountsFromEnv() []int {
	env := os.Getenv("THERMAL_BENCH_WORKERS")
	if env == "" {
		return DefaultWorkerCounts
	}
	counts, err := ParseWorkerCounts(env)
	if err != nil {
		log.Warn().Err(err).Msgf("Ignoring THERMAL_BENCH_WORKERS=%q", env)
		return DefaultWorkerCounts
	}
	return counts
}

// ParseWorkerCounts parses a list like "1,2,4".
func ParseWorkerCounts(s string) ([]int, error) {
	var counts []int
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		n, err := strconv.Atoi(field)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid worker count %q", field)
		}
		counts = append(counts, n)
	}
	if len(counts) == 0 {
		return nil, fmt.Errorf("no worker counts in %q", s)
	}
	return counts, nil
}

// RunScaling runs the pipeline for cfg once per worker count with the same seed,
// prints the stage timings and the speedup over the first count, and checks that
// every run ends with the same entropy.
func RunScaling(cfg *config.Config, workerCounts []int, seed int64) ([]ScalingResult, error) {
	fmt.Printf("Benchmarking %d particles on a %dx%d lattice with worker counts %v\n",
		cfg.Particles, cfg.Size, cfg.Size, workerCounts)

	results := make([]ScalingResult, 0, len(workerCounts))
	for _, workers := range workerCounts {
		run := *cfg
		run.Workers = workers
		run.Output = config.Output{}

		r, err := simulation.Run(&run, simulation.WithSeed(seed))
		if err != nil {
			return nil, fmt.Errorf("%d workers: %w", workers, err)
		}
		res := ScalingResult{
			Workers:      workers,
			Stages:       r.Stages,
			Total:        r.Total,
			FinalEntropy: r.Trajectory.Final(),
		}
		results = append(results, res)
		log.Info().Msgf("Run with %d workers finished in %v", workers, r.Total)

		if res.FinalEntropy != results[0].FinalEntropy {
			return results, fmt.Errorf("%d workers: final entropy %g differs from %g with %d workers",
				workers, res.FinalEntropy, results[0].FinalEntropy, results[0].Workers)
		}
	}

	for _, res := range results {
		fmt.Printf("Workers: %d\n", res.Workers)
		fmt.Printf(" -> Stages:        %s\n", FormatStages(res.Stages))
		fmt.Printf(" -> Total:         %v, speedup %.2fx\n", res.Total, Speedup(results[0], res))
	}
	return results, nil
}
