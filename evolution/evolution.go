// Package evolution propagates states in time through an eigen-decomposition
// and follows the entanglement entropy of a sub-lattice along the way.
package evolution

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/cmplx"
	"math/rand"
	"time"

	"github.com/patrikhermansson/thermal/core"
	"github.com/patrikhermansson/thermal/lattice"
	"github.com/patrikhermansson/thermal/spectrum"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/cblas128"
)

var (
	// ErrStateMissing is returned when a state cannot be found in the target state space.
	ErrStateMissing = errors.New("evolution: state not in target space")

	// ErrLength is returned when a vector does not match the size of its state space.
	ErrLength = errors.New("evolution: vector length mismatch")
)

type options struct {
	workers  int
	progress io.Writer
}

// Option configures time evolution.
type Option func(*options)

// WithWorkers sets the number of parallel workers. Zero or less uses one worker per CPU.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithProgress draws a progress bar over the time steps on w.
func WithProgress(w io.Writer) Option {
	return func(o *options) { o.progress = w }
}

// Embed copies a vector over the sub space into the full state space.
// Each state of sub keeps its amplitude at the index of the same state in full; all other amplitudes are zero.
func Embed(sub *lattice.StateSpace, vec []complex128, full *lattice.StateSpace) ([]complex128, error) {
	if len(vec) != sub.Len() {
		return nil, fmt.Errorf("%w: %d amplitudes for %d states", ErrLength, len(vec), sub.Len())
	}
	out := make([]complex128, full.Len())
	for i := 0; i < sub.Len(); i++ {
		j := full.Index(sub.State(i))
		if j < 0 {
			return nil, fmt.Errorf("%w: %v", ErrStateMissing, sub.State(i))
		}
		out[j] = vec[i]
	}
	return out, nil
}

// RandomEigenvector picks one eigenvector of dec uniformly at random and returns its index and a copy.
func RandomEigenvector(dec *spectrum.Decomposition, rng *rand.Rand) (int, []complex128) {
	i := rng.Intn(dec.Len())
	return i, dec.Vector(i)
}

// Times returns steps evenly spaced instants from initial to final, both included.
func Times(initial, final float64, steps int) []float64 {
	if steps <= 0 {
		return nil
	}
	if steps == 1 {
		return []float64{initial}
	}
	times := make([]float64, steps)
	dt := (final - initial) / float64(steps-1)
	for i := range times {
		times[i] = initial + float64(i)*dt
	}
	times[steps-1] = final
	return times
}

// Evolve returns ψ(t) = Σ_i ⟨E_i|ψ0⟩ e^{-i E_i t} |E_i⟩ for every t in times (ħ = 1).
// Time steps are split across workers.
func Evolve(dec *spectrum.Decomposition, psi0 []complex128, times []float64, opts ...Option) ([][]complex128, error) {
	n, _ := dec.Vectors.Dims()
	if len(psi0) != n {
		return nil, fmt.Errorf("%w: %d amplitudes for %d states", ErrLength, len(psi0), n)
	}
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	start := time.Now()

	v := dec.Vectors.RawCMatrix()
	coeffs := make([]complex128, n)
	cblas128.Gemv(blas.ConjTrans, 1, v,
		cblas128.Vector{N: n, Inc: 1, Data: psi0}, 0,
		cblas128.Vector{N: n, Inc: 1, Data: coeffs})

	states := make([][]complex128, len(times))
	bar := core.NewProgressBar(len(times), o.progress, "evolution")
	err := core.RunPartitioned(len(times), o.workers, func(ctx context.Context, lo, hi int) error {
		phased := make([]complex128, n)
		for k := lo; k < hi; k++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			for i, c := range coeffs {
				phased[i] = c * cmplx.Exp(complex(0, -dec.Values[i]*times[k]))
			}
			psi := make([]complex128, n)
			cblas128.Gemv(blas.NoTrans, 1, v,
				cblas128.Vector{N: n, Inc: 1, Data: phased}, 0,
				cblas128.Vector{N: n, Inc: 1, Data: psi})
			states[k] = psi
			_ = bar.Add(1)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("evolution: evolving %d time steps: %w", len(times), err)
	}

	log.Debug().Msgf("Evolved %d-state vector over %d time steps in %s", n, len(times), time.Since(start))
	return states, nil
}
