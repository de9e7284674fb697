package cmd

import (
	"fmt"
	"time"

	"github.com/patrikhermansson/thermal/runlog"
	"github.com/spf13/cobra"
)

func newHistoryCmd() *cobra.Command {
	var path string
	var limit int
	c := &cobra.Command{
		Use:   "history",
		Short: "List recorded runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			l, err := runlog.Open(path)
			if err != nil {
				return err
			}
			defer l.Close()

			runs, err := l.Recent(limit)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(w, "No runs recorded.")
				return nil
			}
			for _, run := range runs {
				fmt.Fprintf(w, "#%d %s  %dx%d lattice, %d particles, %d states, E0=%.6f, S_B=%.6f, %d warnings, %.2fs\n",
					run.ID, time.Unix(run.CreatedAt, 0).Format(time.DateTime), run.Size, run.Size,
					run.Particles, run.States, run.GroundEnergy, run.FinalEntropy, run.Warnings, run.Total.Seconds())
			}
			return nil
		},
	}
	c.Flags().StringVar(&path, "runlog", "thermal.db", "run history database")
	c.Flags().IntVarP(&limit, "limit", "n", 10, "number of runs to show (0 shows all)")
	return c
}
