package density

import (
	"math"
	"math/cmplx"
	"math/rand"
	"testing"

	"github.com/patrikhermansson/thermal/core"
	"github.com/patrikhermansson/thermal/hamiltonian"
	"github.com/patrikhermansson/thermal/lattice"
	"github.com/patrikhermansson/thermal/spectrum"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

const (
	exampleParticles = 3
	exampleSizeA     = 4
	exampleSizeB     = 8
)

var exampleLabelsA = []int{1, 2, 5, 6}

type fixture struct {
	space *lattice.StateSpace
	table Table
	dec   *spectrum.Decomposition
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	space, _, err := lattice.Enumerate(4, exampleParticles, []int{3, 4, 9, 13})
	require.NoError(t, err)
	h, err := hamiltonian.Assemble(space, 4)
	require.NoError(t, err)
	dec, err := spectrum.Diagonalize(h)
	require.NoError(t, err)
	return fixture{
		space: space,
		table: Relabel(space, exampleParticles, exampleSizeB, exampleLabelsA),
		dec:   dec,
	}
}

// naiveReduce is the direct O(nos²) double loop over all state pairs.
func naiveReduce(table Table, psi []complex128, keep Subsystem, size, particles int) *mat.CDense {
	dim := core.SumNCr(size, particles+1)
	rho := mat.NewCDense(dim, dim, nil)
	for i := range table {
		for j := range table {
			li, lj := table[i], table[j]
			var m, n int
			if keep == B {
				if li.N != lj.N || li.A != lj.A {
					continue
				}
				m = li.B + core.SumNCr(size, particles-li.N) - 1
				n = lj.B + core.SumNCr(size, particles-lj.N) - 1
			} else {
				if li.N != lj.N || li.B != lj.B {
					continue
				}
				m = li.A + core.SumNCr(size, li.N) - 1
				n = lj.A + core.SumNCr(size, lj.N) - 1
			}
			rho.Set(m, n, rho.At(m, n)+cmplx.Conj(psi[j])*psi[i])
		}
	}
	return rho
}

func TestRelabelExample(t *testing.T) {
	f := newFixture(t)
	require.Len(t, f.table, 220)

	seen := make(map[Label]bool)
	maxA := make(map[int]int)
	for i, l := range f.table {
		require.GreaterOrEqual(t, l.N, 0)
		require.LessOrEqual(t, l.N, exampleParticles)
		assert.GreaterOrEqual(t, l.A, 1)
		assert.LessOrEqual(t, l.A, core.NCr(exampleSizeA, l.N))
		assert.GreaterOrEqual(t, l.B, 1)
		assert.LessOrEqual(t, l.B, core.NCr(exampleSizeB, exampleParticles-l.N))
		assert.False(t, seen[l], "label %+v of state %d repeated", l, i)
		seen[l] = true
		if l.A > maxA[l.N] {
			maxA[l.N] = l.A
		}
	}
	for n := 0; n <= exampleParticles; n++ {
		assert.Equal(t, core.NCr(exampleSizeA, n), maxA[n], "distinct A patterns with %d particles", n)
	}

	// First states: (1,2,5) has all three particles on A, (1,2,6) too.
	assert.Equal(t, Label{A: 1, N: 3, B: 1}, f.table[0])
	assert.Equal(t, Label{A: 2, N: 3, B: 1}, f.table[1])
	// (1,2,7) puts one particle on B.
	assert.Equal(t, Label{A: 1, N: 2, B: 1}, f.table[2])
	assert.Equal(t, Label{A: 1, N: 2, B: 2}, f.table[3])
}

func TestRelabelInterleavedPatterns(t *testing.T) {
	// Sites {1, 2, 3, 4, 5} with A = {2, 3}: the A patterns of one particle
	// come back after the class has moved on to a new pattern.
	space, _, err := lattice.Enumerate(3, 2, []int{6, 7, 8, 9})
	require.NoError(t, err)
	require.Equal(t, 10, space.Len())
	table := Relabel(space, 2, 3, []int{2, 3})

	want := Table{
		{A: 1, N: 1, B: 1}, // [1 2]
		{A: 2, N: 1, B: 2}, // [1 3]
		{A: 1, N: 0, B: 1}, // [1 4]
		{A: 1, N: 0, B: 2}, // [1 5]
		{A: 1, N: 2, B: 1}, // [2 3]
		{A: 2, N: 1, B: 3}, // [2 4] pattern [2] again, counter stays at 2
		{A: 2, N: 1, B: 1}, // [2 5]
		{A: 2, N: 1, B: 2}, // [3 4]
		{A: 2, N: 1, B: 3}, // [3 5]
		{A: 1, N: 0, B: 3}, // [4 5]
	}
	assert.Equal(t, want, table)

	for i, l := range table {
		assert.GreaterOrEqual(t, l.B, 1, "state %v", space.State(i))
		assert.LessOrEqual(t, l.B, core.NCr(3, 2-l.N), "state %v", space.State(i))
		assert.GreaterOrEqual(t, l.A, 1, "state %v", space.State(i))
		assert.LessOrEqual(t, l.A, core.NCr(2, l.N), "state %v", space.State(i))
	}
}

func TestReduceMatchesNaive(t *testing.T) {
	f := newFixture(t)
	psi := f.dec.Vector(0)

	for _, keep := range []Subsystem{A, B} {
		size := exampleSizeB
		if keep == A {
			size = exampleSizeA
		}
		want := naiveReduce(f.table, psi, keep, size, exampleParticles)
		var first *mat.CDense
		for workers := 1; workers <= 6; workers++ {
			res, err := Reduce(f.table, psi, keep, size, exampleParticles, WithWorkers(workers))
			require.NoError(t, err)
			assert.True(t, mat.CEqualApprox(want, res.Rho, 1e-14), "keep=%s workers=%d", keep, workers)
			if first == nil {
				first = res.Rho
			}
			assert.True(t, mat.CEqual(first, res.Rho), "keep=%s: workers=%d changed the matrix", keep, workers)
		}
	}
}

func TestReduceExampleShapes(t *testing.T) {
	f := newFixture(t)
	psi := f.dec.Vector(f.dec.Len() / 2)

	rb, err := ReduceB(f.table, psi, exampleSizeB, exampleParticles)
	require.NoError(t, err)
	n, _ := rb.Rho.Dims()
	assert.Equal(t, 93, n)
	assert.InDelta(t, 1.0, rb.Trace, 1e-9)
	assert.Empty(t, rb.Warnings)
	assert.True(t, IsHermitian(rb.Rho))

	ra, err := ReduceA(f.table, psi, exampleSizeA, exampleParticles)
	require.NoError(t, err)
	n, _ = ra.Rho.Dims()
	assert.Equal(t, 15, n)
	assert.InDelta(t, 1.0, ra.Trace, 1e-9)
	assert.True(t, IsHermitian(ra.Rho))

	// Both halves of a pure state share the same non-zero spectrum.
	assert.InDelta(t, ra.Purity(), rb.Purity(), 1e-9)
	sa, err := VonNeumann(ra.Rho)
	require.NoError(t, err)
	sb, err := VonNeumann(rb.Rho)
	require.NoError(t, err)
	assert.InDelta(t, sa, sb, 1e-8)
}

func TestReduceProductState(t *testing.T) {
	f := newFixture(t)
	psi := make([]complex128, len(f.table))
	psi[5] = 1

	res, err := ReduceB(f.table, psi, exampleSizeB, exampleParticles)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, res.Purity(), 1e-12)
	s, err := VonNeumann(res.Rho)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, s, 1e-9)

	l := f.table[5]
	row := l.B + core.SumNCr(exampleSizeB, exampleParticles-l.N) - 1
	assert.Equal(t, complex(1, 0), res.Rho.At(row, row))
}

func TestReduceEntangledPair(t *testing.T) {
	f := newFixture(t)
	j := -1
	for k, l := range f.table {
		if l.N != f.table[0].N {
			j = k
			break
		}
	}
	require.NotEqual(t, -1, j)

	psi := make([]complex128, len(f.table))
	psi[0] = complex(1/math.Sqrt2, 0)
	psi[j] = complex(0, 1/math.Sqrt2)

	res, err := ReduceB(f.table, psi, exampleSizeB, exampleParticles)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, res.Purity(), 1e-12)
	s, err := VonNeumann(res.Rho)
	require.NoError(t, err)
	assert.InDelta(t, math.Ln2, s, 1e-9)
}

func TestReduceTraceWarning(t *testing.T) {
	f := newFixture(t)
	psi := f.dec.Vector(0)
	for i := range psi {
		psi[i] *= 2
	}
	res, err := ReduceB(f.table, psi, exampleSizeB, exampleParticles)
	require.NoError(t, err)
	require.NotNil(t, res.Rho)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, TraceWarning, res.Warnings[0].Kind)
	assert.InDelta(t, 4.0, res.Warnings[0].Value, 1e-9)
}

func TestReduceErrors(t *testing.T) {
	f := newFixture(t)
	_, err := ReduceB(f.table, make([]complex128, 3), exampleSizeB, exampleParticles)
	assert.ErrorIs(t, err, ErrLength)

	_, err = ReduceB(f.table, f.dec.Vector(0), 2, exampleParticles)
	assert.ErrorIs(t, err, ErrLabelRange)
}

func TestEnsemble(t *testing.T) {
	f := newFixture(t)
	states := [][]complex128{f.dec.Vector(0), f.dec.Vector(1)}

	res, err := Ensemble(f.table, states, nil, B, exampleSizeB, exampleParticles)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, res.Trace, 1e-9)
	assert.True(t, IsHermitian(res.Rho))

	r0, err := ReduceB(f.table, states[0], exampleSizeB, exampleParticles)
	require.NoError(t, err)
	r1, err := ReduceB(f.table, states[1], exampleSizeB, exampleParticles)
	require.NoError(t, err)
	assert.InDelta(t, 0.5*real(r0.Rho.At(0, 0))+0.5*real(r1.Rho.At(0, 0)), real(res.Rho.At(0, 0)), 1e-12)

	_, err = Ensemble(f.table, states, []float64{1}, B, exampleSizeB, exampleParticles)
	assert.ErrorIs(t, err, ErrWeights)
}

func TestReduceRandomLattices(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 12; trial++ {
		size := 2 + rng.Intn(2)
		nol := size * size
		var deletes []int
		for p := 1; p <= nol; p++ {
			if rng.Float64() < 0.2 {
				deletes = append(deletes, p)
			}
		}
		lat, err := lattice.New(size, deletes)
		require.NoError(t, err)
		if lat.Len() < 3 {
			continue
		}
		particles := 1 + rng.Intn(minInt(3, lat.Len()-1))
		sizeA := 1 + rng.Intn(lat.Len()-1)
		labelsA := lat.Sites()[:sizeA]
		sizeB := lat.Len() - sizeA

		space, err := lat.States(particles)
		require.NoError(t, err)
		h, err := hamiltonian.Assemble(space, size)
		require.NoError(t, err)
		dec, err := spectrum.Diagonalize(h)
		require.NoError(t, err)
		table := Relabel(space, particles, sizeB, labelsA)

		psi := dec.Vector(rng.Intn(dec.Len()))
		for _, keep := range []Subsystem{A, B} {
			kept := sizeB
			if keep == A {
				kept = sizeA
			}
			res, err := Reduce(table, psi, keep, kept, particles, WithWorkers(1+rng.Intn(4)))
			require.NoError(t, err, "trial %d keep %s", trial, keep)
			assert.True(t, IsHermitian(res.Rho), "trial %d keep %s", trial, keep)
			assert.InDelta(t, 1.0, res.Trace, TraceTolerance, "trial %d keep %s", trial, keep)
			assert.Empty(t, res.Warnings)
		}
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
