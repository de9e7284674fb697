package density

import (
	"context"
	"fmt"
	"io"
	"math/cmplx"
	"time"

	"github.com/patrikhermansson/thermal/core"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/mat"
)

// Subsystem names the sub-lattice whose reduced density matrix is kept.
type Subsystem int

const (
	// A keeps sub-lattice A and traces out B.
	A Subsystem = iota
	// B keeps sub-lattice B and traces out A.
	B
)

// String returns the sub-lattice name.
func (s Subsystem) String() string {
	if s == A {
		return "A"
	}
	return "B"
}

type options struct {
	workers  int
	progress io.Writer
}

// Option configures a reduction.
type Option func(*options)

// WithWorkers sets the number of parallel workers. Zero or less uses one worker per CPU.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithProgress draws a progress bar over the density matrix rows on w.
func WithProgress(w io.Writer) Option {
	return func(o *options) { o.progress = w }
}

// tracedKey identifies the traced-out coordinates of a state.
type tracedKey struct {
	n, idx int
}

// ReduceA returns the reduced density matrix of sub-lattice A for the pure state psi.
func ReduceA(table Table, psi []complex128, sizeA, particles int, opts ...Option) (*Result, error) {
	return Reduce(table, psi, A, sizeA, particles, opts...)
}

// ReduceB returns the reduced density matrix of sub-lattice B for the pure state psi.
func ReduceB(table Table, psi []complex128, sizeB, particles int, opts ...Option) (*Result, error) {
	return Reduce(table, psi, B, sizeB, particles, opts...)
}

// Reduce traces the pure state psi over the sub-lattice not kept. size is the
// number of sites of the kept sub-lattice. The result has dimension
// SumNCr(size, particles+1); the block of k particles on the kept sub-lattice
// starts at SumNCr(size, k).
//
// Every pair of states (i, j) agreeing on the traced coordinates adds
// conj(psi[j])·psi[i] to the cell of their kept coordinates. Rows of the result
// are split across workers and each cell receives its terms in (i, j) order,
// so the output does not depend on the worker count. A trace outside
// 1 ± TraceTolerance is reported as a warning.
func Reduce(table Table, psi []complex128, keep Subsystem, size, particles int, opts ...Option) (*Result, error) {
	nos := len(table)
	if len(psi) != nos {
		return nil, fmt.Errorf("%w: %d amplitudes for %d states", ErrLength, len(psi), nos)
	}
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	start := time.Now()
	dim := core.SumNCr(size, particles+1)
	if dim == 0 {
		return nil, fmt.Errorf("%w: empty sub-lattice", ErrDimension)
	}

	rows := make([]int, nos)
	keys := make([]tracedKey, nos)
	groups := make(map[tracedKey][]int)
	byRow := make([][]int, dim)
	for i, l := range table {
		var key tracedKey
		switch keep {
		case A:
			rows[i] = l.A + core.SumNCr(size, l.N) - 1
			key = tracedKey{l.N, l.B}
		default:
			rows[i] = l.B + core.SumNCr(size, particles-l.N) - 1
			key = tracedKey{l.N, l.A}
		}
		if rows[i] < 0 || rows[i] >= dim {
			return nil, fmt.Errorf("%w: state %d label %+v maps to row %d of %d", ErrLabelRange, i, l, rows[i], dim)
		}
		keys[i] = key
		groups[key] = append(groups[key], i)
		byRow[rows[i]] = append(byRow[rows[i]], i)
	}

	rho := mat.NewCDense(dim, dim, nil)
	raw := rho.RawCMatrix()
	bar := core.NewProgressBar(dim, o.progress, "density "+keep.String())

	err := core.RunPartitioned(dim, o.workers, func(ctx context.Context, lo, hi int) error {
		for m := lo; m < hi; m++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			row := raw.Data[m*raw.Stride : m*raw.Stride+dim]
			for _, i := range byRow[m] {
				for _, j := range groups[keys[i]] {
					row[rows[j]] += cmplx.Conj(psi[j]) * psi[i]
				}
			}
			_ = bar.Add(1)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("density: reducing %d states onto %s: %w", nos, keep, err)
	}

	res := newResult(rho, "density matrix "+keep.String())
	log.Debug().Msgf("Reduced %d states to %dx%d density matrix of %s in %s (trace %.6f)",
		nos, dim, dim, keep, time.Since(start), res.Trace)
	return res, nil
}

// Ensemble returns the weighted sum of the reduced density matrices of several states.
// Nil weights mean equal weights summing to 1.
func Ensemble(table Table, states [][]complex128, weights []float64, keep Subsystem, size, particles int,
	opts ...Option) (*Result, error) {
	if len(states) == 0 {
		return nil, fmt.Errorf("%w: no states", ErrWeights)
	}
	if weights == nil {
		weights = make([]float64, len(states))
		for i := range weights {
			weights[i] = 1 / float64(len(states))
		}
	}
	if len(weights) != len(states) {
		return nil, fmt.Errorf("%w: %d weights for %d states", ErrWeights, len(weights), len(states))
	}

	var sum *mat.CDense
	var warnings []Warning
	for k, psi := range states {
		res, err := Reduce(table, psi, keep, size, particles, opts...)
		if err != nil {
			return nil, fmt.Errorf("density: ensemble member %d: %w", k, err)
		}
		warnings = append(warnings, res.Warnings...)
		if sum == nil {
			n, _ := res.Rho.Dims()
			sum = mat.NewCDense(n, n, nil)
		}
		addScaled(sum, res.Rho, complex(weights[k], 0))
	}

	res := newResult(sum, "ensemble density matrix "+keep.String())
	res.Warnings = append(warnings, res.Warnings...)
	return res, nil
}

// addScaled adds alpha·src to dst element-wise.
func addScaled(dst, src *mat.CDense, alpha complex128) {
	d, s := dst.RawCMatrix(), src.RawCMatrix()
	for i := 0; i < d.Rows; i++ {
		for j := 0; j < d.Cols; j++ {
			d.Data[i*d.Stride+j] += alpha * s.Data[i*s.Stride+j]
		}
	}
}
