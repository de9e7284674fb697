package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/patrikhermansson/thermal/config"
	"github.com/patrikhermansson/thermal/simulation"
	"github.com/spf13/cobra"
)

type runFlags struct {
	configPath string
	workers    int
	out        string
	format     string
	runLog     string
	seed       int64
	quiet      bool
}

func newRunCmd() *cobra.Command {
	f := &runFlags{}
	c := &cobra.Command{
		Use:   "run",
		Short: "Run the simulation pipeline and report the entropy of sub-lattice B",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(f.configPath)
			if err != nil {
				return err
			}
			f.apply(cmd, cfg)

			var opts []simulation.Option
			if !f.quiet {
				opts = append(opts, simulation.WithProgress(os.Stderr))
			}
			if cmd.Flags().Changed("seed") {
				opts = append(opts, simulation.WithSeed(f.seed))
			}
			r, err := simulation.Run(cfg, opts...)
			if err != nil {
				return err
			}
			printReport(cmd.OutOrStdout(), r)
			return nil
		},
	}
	c.Flags().StringVarP(&f.configPath, "config", "c", "", "path to a YAML configuration file")
	c.Flags().IntVarP(&f.workers, "workers", "w", 0, "number of workers (0 uses one per CPU)")
	c.Flags().StringVarP(&f.out, "out", "o", "", "directory for plots and the spectrum file")
	c.Flags().StringVar(&f.format, "format", "", "plot format: png, svg, pdf or html")
	c.Flags().StringVar(&f.runLog, "runlog", "", "run history database")
	c.Flags().Int64Var(&f.seed, "seed", 0, "seed for the initial eigenvector (default THERMAL_SEED or the clock)")
	c.Flags().BoolVarP(&f.quiet, "quiet", "q", false, "hide progress bars")
	return c
}

// apply overrides cfg with the flags given on the command line.
func (f *runFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("workers") {
		cfg.Workers = f.workers
	}
	if cmd.Flags().Changed("out") {
		cfg.Output.Dir = f.out
	}
	if cmd.Flags().Changed("format") {
		cfg.Output.Format = f.format
	}
	if cmd.Flags().Changed("runlog") {
		cfg.Output.RunLog = f.runLog
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func printReport(w io.Writer, r *simulation.Report) {
	fmt.Fprintf(w, "States: %d (A only: %d), sites A: %d, sites B: %d\n", r.States, r.StatesA, r.SitesA, r.SitesB)
	fmt.Fprintf(w, "Ground energy: %.6f\n", r.GroundEnergy)
	fmt.Fprintf(w, "Initial state: eigenvector %d of A (seed %d)\n", r.Eigenvector, r.Seed)
	fmt.Fprintf(w, "Final entropy of B: %.6f\n", r.Trajectory.Final())
	fmt.Fprintf(w, "Energy basis of B: max diagonal %.6f, max off-diagonal %.6f\n", r.MaxDiagonal, r.MaxOffDiagonal)
	for _, s := range r.Stages {
		fmt.Fprintf(w, " -> %-15s %.3fs\n", s.Name, s.Duration.Seconds())
	}
	fmt.Fprintf(w, "Total: %.3fs on %d workers\n", r.Total.Seconds(), r.Workers)
	for _, warning := range r.Warnings {
		fmt.Fprintf(w, "Warning: %s\n", warning)
	}
	for _, path := range r.Files {
		fmt.Fprintf(w, "Wrote %s\n", path)
	}
}
