//go:build ignore
// +build ignore

package main

import (
	"os"

	"github.com/patrikhermansson/thermal/config"
	"github.com/patrikhermansson/thermal/simulation"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Set the logger to output to the console.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	// Reference run: 3 particles on the 4x4 lattice, plots in example/output
	cfg := config.Default()
	cfg.Output.Dir = "example/output"
	cfg.Output.Format = "html"
	cfg.Output.SaveSpectrum = true

	r, err := simulation.Run(cfg, simulation.WithProgress(os.Stderr))
	if err != nil {
		log.Fatal().Err(err).Msg("Simulation failed")
	}
	log.Info().Msgf("Final entropy of B: %.6f", r.Trajectory.Final())
}
