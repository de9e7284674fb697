//go:build ignore
// +build ignore

package main

import (
	"net/http"
	_ "net/http/pprof"
	"os"

	"github.com/patrikhermansson/thermal/config"
	"github.com/patrikhermansson/thermal/core"
	"github.com/patrikhermansson/thermal/example"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Set the logger to output to the console.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	// Start the pprof HTTP server on port 6060.
	// This will expose profiling endpoints at /debug/pprof/
	go func() {
		log.Info().Msg("Starting pprof server on :6060")
		if err := http.ListenAndServe("localhost:6060", nil); err != nil {
			log.Error().Err(err).Msg("pprof server failed")
		}
	}()

	// Benchmarking the reference lattice and a larger 5x5 lattice
	BenchReference()
	BenchLarge()
}

func BenchReference() {
	if _, err := example.RunScaling(config.Default(), example.WorkerCountsFromEnv(), core.GetSeed()); err != nil {
		log.Fatal().Err(err).Msg("Scaling benchmark failed")
	}
}

func BenchLarge() {
	cfg := config.Default()
	cfg.Size = 5
	cfg.Particles = 3
	cfg.Delete = []int{4, 5, 10}
	cfg.DeleteA = []int{4, 5, 10, 7, 8, 9, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20, 21, 22, 23, 24, 25}
	cfg.Time.Steps = 50
	if _, err := example.RunScaling(cfg, example.WorkerCountsFromEnv(), core.GetSeed()); err != nil {
		log.Fatal().Err(err).Msg("Scaling benchmark failed")
	}
}
