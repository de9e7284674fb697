package evolution

import (
	"fmt"

	"github.com/patrikhermansson/thermal/core"
	"github.com/patrikhermansson/thermal/density"
	"github.com/rs/zerolog/log"
)

// Trajectory is the entanglement entropy of one sub-lattice along a time evolution.
type Trajectory struct {
	Times    []float64
	Entropy  []float64
	Purity   []float64
	Warnings []density.Warning
}

// Final returns the entropy at the last time step, or 0 for an empty trajectory.
func (t *Trajectory) Final() float64 {
	if len(t.Entropy) == 0 {
		return 0
	}
	return t.Entropy[len(t.Entropy)-1]
}

// Entropy computes the von Neumann entropy of the kept sub-lattice for every evolved state.
// size is the number of sites of the kept sub-lattice. Tolerance warnings of the reductions are collected, not fatal.
func Entropy(table density.Table, states [][]complex128, times []float64, keep density.Subsystem, size, particles int,
	opts ...Option) (*Trajectory, error) {
	if len(states) != len(times) {
		return nil, fmt.Errorf("%w: %d states for %d time steps", ErrLength, len(states), len(times))
	}
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	traj := &Trajectory{
		Times:   times,
		Entropy: make([]float64, len(states)),
		Purity:  make([]float64, len(states)),
	}

	bar := core.NewProgressBar(len(states), o.progress, "entropy "+keep.String())
	for k, psi := range states {
		res, err := density.Reduce(table, psi, keep, size, particles, density.WithWorkers(o.workers))
		if err != nil {
			return nil, fmt.Errorf("evolution: time step %d: %w", k, err)
		}
		for _, w := range res.Warnings {
			log.Debug().Msgf("t=%g: %s", times[k], w)
		}
		traj.Warnings = append(traj.Warnings, res.Warnings...)

		s, err := density.VonNeumann(res.Rho)
		if err != nil {
			return nil, fmt.Errorf("evolution: time step %d: %w", k, err)
		}
		traj.Entropy[k] = s
		traj.Purity[k] = res.Purity()
		_ = bar.Add(1)
	}
	return traj, nil
}
