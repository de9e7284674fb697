// Package simulation runs the full thermalization pipeline of one configuration:
// state enumeration, Hamiltonian assembly, diagonalization, relabelling, time
// evolution of a sub-lattice eigenstate and the entanglement entropy of B.
package simulation

import (
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/patrikhermansson/thermal/config"
	"github.com/patrikhermansson/thermal/core"
	"github.com/patrikhermansson/thermal/density"
	"github.com/patrikhermansson/thermal/evolution"
	"github.com/patrikhermansson/thermal/hamiltonian"
	"github.com/patrikhermansson/thermal/lattice"
	"github.com/patrikhermansson/thermal/spectrum"
	"github.com/rs/zerolog/log"
)

type options struct {
	progress io.Writer
	seed     int64
	seeded   bool
}

// Option configures Run.
type Option func(*options)

// WithProgress draws progress bars of the long stages on w.
func WithProgress(w io.Writer) Option {
	return func(o *options) { o.progress = w }
}

// WithSeed fixes the seed used to pick the initial eigenvector.
// Without it the seed comes from core.GetSeed.
func WithSeed(seed int64) Option {
	return func(o *options) {
		o.seed = seed
		o.seeded = true
	}
}

// Run executes the pipeline for cfg. Outputs configured in cfg.Output are
// written after the computation succeeds.
func Run(cfg *config.Config, opts ...Option) (*Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if !o.seeded {
		o.seed = core.GetSeed()
	}

	r := &Report{Config: cfg, Seed: o.seed, Workers: core.Workers(cfg.Workers)}
	start := time.Now()
	if err := r.run(cfg, o); err != nil {
		return nil, err
	}
	r.Total = time.Since(start)
	log.Info().Msgf("Simulation finished in %.2fs: %d warnings", r.Total.Seconds(), len(r.Warnings))

	if err := r.write(cfg.Output); err != nil {
		return r, err
	}
	return r, nil
}

func (r *Report) run(cfg *config.Config, o options) error {
	workers := cfg.Workers
	hopts := []hamiltonian.Option{hamiltonian.WithWorkers(workers), hamiltonian.WithProgress(o.progress)}
	eopts := []evolution.Option{evolution.WithWorkers(workers), evolution.WithProgress(o.progress)}

	// Lattices and state spaces.
	var full, subA, subB *lattice.Lattice
	var space, spaceA *lattice.StateSpace
	err := r.stage("states", func() (err error) {
		if full, err = cfg.Lattice(); err != nil {
			return err
		}
		if subA, err = cfg.LatticeA(); err != nil {
			return err
		}
		if subB, err = cfg.LatticeB(); err != nil {
			return err
		}
		if space, err = full.States(cfg.Particles); err != nil {
			return err
		}
		spaceA, err = subA.States(cfg.Particles)
		return err
	})
	if err != nil {
		return err
	}
	r.States, r.StatesA, r.SitesA, r.SitesB = space.Len(), spaceA.Len(), subA.Len(), subB.Len()
	log.Info().Msgf("Lattice sites: %v (A: %v, B: %v)", full.Sites(), subA.Sites(), subB.Sites())
	log.Info().Msgf("Number of states: %d (A only: %d)", r.States, r.StatesA)
	if !leads(full, subA) {
		log.Warn().Msgf("Sub-lattice A %v does not hold the smallest labels of %v; relabelled states may share cells",
			subA.Sites(), full.Sites())
	}

	var dec, decA *spectrum.Decomposition
	err = r.stage("hamiltonian", func() error {
		h, err := hamiltonian.Assemble(space, cfg.Size, hopts...)
		if err != nil {
			return err
		}
		hA, err := hamiltonian.Assemble(spaceA, cfg.Size, hopts...)
		if err != nil {
			return err
		}
		if dec, err = spectrum.Diagonalize(h); err != nil {
			return err
		}
		decA, err = spectrum.Diagonalize(hA)
		return err
	})
	if err != nil {
		return err
	}
	r.Spectrum = dec
	r.GroundEnergy = dec.Values[0]

	var table density.Table
	err = r.stage("relabel", func() error {
		table = density.Relabel(space, cfg.Particles, subB.Len(), subA.Sites())
		return nil
	})
	if err != nil {
		return err
	}

	var states [][]complex128
	times := evolution.Times(cfg.Time.Initial, cfg.Time.Final, cfg.Time.Steps)
	err = r.stage("evolution", func() error {
		rng := rand.New(rand.NewSource(r.Seed))
		var vec []complex128
		r.Eigenvector, vec = evolution.RandomEigenvector(decA, rng)
		psi0, err := evolution.Embed(spaceA, vec, space)
		if err != nil {
			return err
		}
		states, err = evolution.Evolve(dec, psi0, times, eopts...)
		return err
	})
	if err != nil {
		return err
	}
	log.Info().Msgf("Initial state: eigenvector %d of A (E=%.6f)", r.Eigenvector, decA.Values[r.Eigenvector])

	err = r.stage("entropy", func() (err error) {
		r.Trajectory, err = evolution.Entropy(table, states, times, density.B, subB.Len(), cfg.Particles, eopts...)
		return err
	})
	if err != nil {
		return err
	}
	r.Warnings = append(r.Warnings, r.Trajectory.Warnings...)
	log.Info().Msgf("Entropy of B: %.6f at t=%g", r.Trajectory.Final(), times[len(times)-1])

	return r.stage("thermalization", func() error {
		hb, err := hamiltonian.BlockDiagonal(subB, cfg.Size, cfg.Particles, hopts...)
		if err != nil {
			return err
		}
		decB, err := spectrum.Diagonalize(hb)
		if err != nil {
			return err
		}
		final, err := density.ReduceB(table, states[len(states)-1], subB.Len(), cfg.Particles,
			density.WithWorkers(workers))
		if err != nil {
			return err
		}
		r.Energy, err = density.Transform(final.Rho, decB.Vectors)
		if err != nil {
			return err
		}
		r.Warnings = append(r.Warnings, r.Energy.Warnings...)
		r.MaxDiagonal, r.MaxOffDiagonal = density.Thermalization(r.Energy.Rho)
		log.Info().Msgf("Energy basis density matrix of B: max diagonal %.6f, max off-diagonal %.6f",
			r.MaxDiagonal, r.MaxOffDiagonal)
		return nil
	})
}

// leads reports whether the sites of sub are the smallest labels of full.
func leads(full, sub *lattice.Lattice) bool {
	sites, subSites := full.Sites(), sub.Sites()
	if len(subSites) > len(sites) {
		return false
	}
	for i, label := range subSites {
		if sites[i] != label {
			return false
		}
	}
	return true
}

// stage times fn and records it under name.
func (r *Report) stage(name string, fn func() error) error {
	start := time.Now()
	if err := fn(); err != nil {
		return fmt.Errorf("simulation: %s: %w", name, err)
	}
	d := time.Since(start)
	r.Stages = append(r.Stages, Stage{Name: name, Duration: d})
	log.Info().Msgf("Stage %s done in %.3fs", name, d.Seconds())
	return nil
}
