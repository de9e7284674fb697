package simulation

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/patrikhermansson/thermal/config"
	"github.com/patrikhermansson/thermal/density"
	"github.com/patrikhermansson/thermal/evolution"
	"github.com/patrikhermansson/thermal/report"
	"github.com/patrikhermansson/thermal/runlog"
	"github.com/patrikhermansson/thermal/spectrum"
	"github.com/rs/zerolog/log"
)

// Stage is the wall time of one pipeline stage.
type Stage struct {
	Name     string
	Duration time.Duration
}

// Report collects the results of one run.
type Report struct {
	Config  *config.Config
	Seed    int64
	Workers int

	States  int // joint states on the full lattice
	StatesA int // states with every particle on A
	SitesA  int
	SitesB  int

	Spectrum     *spectrum.Decomposition // full lattice
	GroundEnergy float64
	Eigenvector  int // index of the A eigenvector used as initial state

	Trajectory *evolution.Trajectory
	Energy     *density.Result // final density matrix of B in its energy basis

	MaxDiagonal    float64
	MaxOffDiagonal float64

	Warnings []density.Warning
	Stages   []Stage
	Total    time.Duration

	Files []string // files written by the run
}

// Record converts the report into a run log entry.
func (r *Report) Record() *runlog.Run {
	run := &runlog.Run{
		Particles:      r.Config.Particles,
		Size:           r.Config.Size,
		Delete:         r.Config.Delete,
		DeleteA:        r.Config.DeleteA,
		Workers:        r.Workers,
		Seed:           r.Seed,
		TimeFinal:      r.Config.Time.Final,
		Steps:          r.Config.Time.Steps,
		States:         r.States,
		StatesA:        r.StatesA,
		Eigenvector:    r.Eigenvector,
		GroundEnergy:   r.GroundEnergy,
		MaxDiagonal:    r.MaxDiagonal,
		MaxOffDiagonal: r.MaxOffDiagonal,
		Warnings:       len(r.Warnings),
		Stages:         make(map[string]time.Duration, len(r.Stages)),
		Total:          r.Total,
	}
	if r.Trajectory != nil {
		run.FinalEntropy = r.Trajectory.Final()
	}
	for _, s := range r.Stages {
		run.Stages[s.Name] = s.Duration
	}
	return run
}

// write stores the plots, the spectrum and the run log entry requested by out.
func (r *Report) write(out config.Output) error {
	if out.Dir != "" {
		if err := os.MkdirAll(out.Dir, 0o755); err != nil {
			return fmt.Errorf("simulation: %w", err)
		}
		if err := r.writePlots(out.Dir, out.Format); err != nil {
			return err
		}
		if out.SaveSpectrum {
			if err := r.writeSpectrum(filepath.Join(out.Dir, "spectrum.gob")); err != nil {
				return err
			}
		}
	}
	if out.RunLog != "" {
		if err := r.appendRunLog(out.RunLog); err != nil {
			return err
		}
	}
	return nil
}

func (r *Report) writePlots(dir, format string) error {
	if format == "" {
		format = "png"
	}
	energies := make([]float64, len(r.Spectrum.Values))
	for i := range energies {
		energies[i] = float64(i)
	}

	plots := map[string]report.Series{
		"entropy": {
			Title:  "Von Neumann entropy of sub-lattice B",
			XLabel: "t",
			YLabel: "S_B",
			X:      r.Trajectory.Times,
			Y:      r.Trajectory.Entropy,
		},
		"spectrum": {
			Title:  "Eigenvalues of the Hamiltonian",
			XLabel: "index",
			YLabel: "E",
			X:      energies,
			Y:      r.Spectrum.Values,
		},
	}
	for _, name := range []string{"entropy", "spectrum"} {
		path := filepath.Join(dir, name+"."+format)
		if err := report.Write(path, plots[name]); err != nil {
			return fmt.Errorf("simulation: %w", err)
		}
		r.Files = append(r.Files, path)
		log.Info().Msgf("Wrote %s", path)
	}
	return nil
}

func (r *Report) writeSpectrum(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("simulation: %w", err)
	}
	defer f.Close()
	if err := r.Spectrum.Save(f); err != nil {
		return fmt.Errorf("simulation: saving spectrum: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("simulation: %w", err)
	}
	r.Files = append(r.Files, path)
	log.Info().Msgf("Wrote %s", path)
	return nil
}

func (r *Report) appendRunLog(path string) error {
	l, err := runlog.Open(path)
	if err != nil {
		return err
	}
	defer l.Close()
	run := r.Record()
	if err := l.Add(run); err != nil {
		return err
	}
	log.Info().Msgf("Recorded run %d in %s", run.ID, path)
	return nil
}
