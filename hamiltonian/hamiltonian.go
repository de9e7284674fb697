// Package hamiltonian assembles the hopping Hamiltonian of hard-core bosons
// on a square lattice over an enumerated state space.
package hamiltonian

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/patrikhermansson/thermal/core"
	"github.com/patrikhermansson/thermal/lattice"
	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
	"gonum.org/v1/gonum/mat"
)

var (
	// ErrDimension is returned for a lattice dimension below 1.
	ErrDimension = errors.New("hamiltonian: dimension must be positive")

	// ErrEmptySpace is returned when the state space has no states.
	ErrEmptySpace = errors.New("hamiltonian: empty state space")
)

type options struct {
	workers  int       // number of workers, 0 means one per CPU
	progress io.Writer // progress bar output, nil means silent
}

// Option configures assembly.
type Option func(*options)

// WithWorkers sets the number of parallel workers. Zero or less uses one worker per CPU.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithProgress draws a progress bar over the assembled rows on w.
func WithProgress(w io.Writer) Option {
	return func(o *options) { o.progress = w }
}

// Assemble builds the nos×nos Hamiltonian of the state space on a lattice with the given row length.
// Rows are split into contiguous ranges, one per worker, and every worker writes only its own rows.
func Assemble(space *lattice.StateSpace, dimension int, opts ...Option) (*mat.Dense, error) {
	if dimension < 1 {
		return nil, fmt.Errorf("%w: %d", ErrDimension, dimension)
	}
	nos := space.Len()
	if nos == 0 {
		return nil, ErrEmptySpace
	}
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	start := time.Now()
	h := mat.NewDense(nos, nos, nil)
	bar := core.NewProgressBar(nos, o.progress, "hamiltonian")

	err := core.RunPartitioned(nos, o.workers, func(ctx context.Context, lo, hi int) error {
		return fillRows(ctx, h, space, dimension, lo, hi, bar)
	})
	if err != nil {
		return nil, fmt.Errorf("hamiltonian: assembling %d states: %w", nos, err)
	}

	log.Debug().Msgf("Assembled %dx%d Hamiltonian in %s", nos, nos, time.Since(start))
	return h, nil
}

// fillRows computes rows [lo, hi) of h.
func fillRows(ctx context.Context, h *mat.Dense, space *lattice.StateSpace, dimension, lo, hi int,
	bar *progressbar.ProgressBar) error {
	nos := space.Len()
	raw := h.RawMatrix()
	for j := lo; j < hi; j++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		row := raw.Data[j*raw.Stride : j*raw.Stride+nos]
		sj, jSum := space.State(j), space.Sum(j)
		for k := 0; k < nos; k++ {
			if hop(sj, space.State(k), jSum, space.Sum(k), dimension) {
				row[k] = 1
			}
		}
		_ = bar.Add(1)
	}
	return nil
}

// Adjacent reports whether state b is reached from state a by a single particle hop.
func Adjacent(a, b lattice.State, dimension int) bool {
	return hop(a, b, sum(a), sum(b), dimension)
}

// hop is the hopping rule on label sums. A hop moves exactly one particle:
// by ±dimension (vertical), or by ±1 without leaving the row. With 1-based
// row-major labels a particle at a label divisible by dimension sits on the
// right edge and one with remainder 1 sits on the left edge.
func hop(a, b lattice.State, aSum, bSum, dimension int) bool {
	cSize, cSum := lattice.Common(a, b)
	if cSize != len(a)-1 {
		return false
	}
	moved := aSum - cSum
	switch {
	case abs(aSum-bSum) == dimension:
		return true
	case bSum-aSum == 1 && moved%dimension != 0:
		return true
	case aSum-bSum == 1 && moved%dimension != 1:
		return true
	}
	return false
}

func sum(s lattice.State) int {
	total := 0
	for _, label := range s {
		total += label
	}
	return total
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
