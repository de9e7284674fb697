package hamiltonian

import (
	"fmt"

	"github.com/patrikhermansson/thermal/core"
	"github.com/patrikhermansson/thermal/lattice"
	"gonum.org/v1/gonum/mat"
)

// BlockDiagonal places the Hamiltonians of 0..maxParticles particles on the
// lattice along the diagonal of one matrix. Block k starts at SumNCr(sites, k),
// the same offsets the reduced density matrices use.
func BlockDiagonal(lat *lattice.Lattice, dimension, maxParticles int, opts ...Option) (*mat.Dense, error) {
	sites := lat.Len()
	if maxParticles > sites {
		maxParticles = sites
	}
	dim := core.SumNCr(sites, maxParticles+1)
	if dim == 0 {
		return nil, ErrEmptySpace
	}

	bd := mat.NewDense(dim, dim, nil)
	offset := 0
	for k := 0; k <= maxParticles; k++ {
		space, err := lat.States(k)
		if err != nil {
			return nil, fmt.Errorf("hamiltonian: block %d: %w", k, err)
		}
		block, err := Assemble(space, dimension, opts...)
		if err != nil {
			return nil, fmt.Errorf("hamiltonian: block %d: %w", k, err)
		}
		n := space.Len()
		bd.Slice(offset, offset+n, offset, offset+n).(*mat.Dense).Copy(block)
		offset += n
	}
	return bd, nil
}
