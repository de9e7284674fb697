package hamiltonian

import (
	"bytes"
	"testing"

	"github.com/patrikhermansson/thermal/lattice"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

var exampleDeletes = []int{3, 4, 9, 13}

func exampleSpace(t *testing.T) *lattice.StateSpace {
	t.Helper()
	space, nos, err := lattice.Enumerate(4, 3, exampleDeletes)
	require.NoError(t, err)
	require.Equal(t, 220, nos)
	return space
}

func TestAssembleSingleParticle2x2(t *testing.T) {
	space, _, err := lattice.Enumerate(2, 1, nil)
	require.NoError(t, err)

	h, err := Assemble(space, 2, WithWorkers(2))
	require.NoError(t, err)

	expected := mat.NewDense(4, 4, []float64{
		0, 1, 1, 0,
		1, 0, 0, 1,
		1, 0, 0, 1,
		0, 1, 1, 0,
	})
	assert.True(t, mat.Equal(expected, h), "got\n%v", mat.Formatted(h))
}

func TestAssembleSingleParticle3x3EdgeCount(t *testing.T) {
	space, _, err := lattice.Enumerate(3, 1, nil)
	require.NoError(t, err)

	h, err := Assemble(space, 3)
	require.NoError(t, err)

	// A 3x3 grid has 12 nearest-neighbour bonds, each counted twice.
	assert.Equal(t, 24.0, mat.Sum(h))
	// 3 -> 4 would wrap from the right edge to the next row.
	assert.Equal(t, 0.0, h.At(2, 3))
	assert.Equal(t, 0.0, h.At(3, 2))
	assert.Equal(t, 1.0, h.At(3, 4))
}

func TestAssembleExampleProperties(t *testing.T) {
	space := exampleSpace(t)
	h, err := Assemble(space, 4)
	require.NoError(t, err)

	r, c := h.Dims()
	require.Equal(t, 220, r)
	require.Equal(t, 220, c)
	assert.Equal(t, 0.0, mat.Trace(h))
	for i := 0; i < r; i++ {
		assert.Equal(t, 0.0, h.At(i, i))
		for j := 0; j < c; j++ {
			v := h.At(i, j)
			require.Equal(t, v, h.At(j, i), "asymmetric at (%d, %d)", i, j)
			require.True(t, v == 0 || v == 1, "entry (%d, %d) = %v", i, j, v)
		}
	}
}

// geometricHop checks the hop on row/column coordinates instead of label sums.
func geometricHop(a, b lattice.State, size int) bool {
	inA := make(map[int]bool)
	for _, x := range a {
		inA[x] = true
	}
	inB := make(map[int]bool)
	for _, x := range b {
		inB[x] = true
	}
	var from, to []int
	for _, x := range a {
		if !inB[x] {
			from = append(from, x)
		}
	}
	for _, x := range b {
		if !inA[x] {
			to = append(to, x)
		}
	}
	if len(from) != 1 || len(to) != 1 {
		return false
	}
	r1, c1 := (from[0]-1)/size, (from[0]-1)%size
	r2, c2 := (to[0]-1)/size, (to[0]-1)%size
	dr, dc := r1-r2, c1-c2
	return dr*dr+dc*dc == 1
}

func TestAssembleMatchesGeometry(t *testing.T) {
	space := exampleSpace(t)
	h, err := Assemble(space, 4)
	require.NoError(t, err)

	for i := 0; i < space.Len(); i++ {
		for j := 0; j < space.Len(); j++ {
			want := geometricHop(space.State(i), space.State(j), 4)
			assert.Equal(t, want, h.At(i, j) == 1, "states %v %v", space.State(i), space.State(j))
			assert.Equal(t, want, Adjacent(space.State(i), space.State(j), 4))
		}
	}
}

func TestAssembleWorkerCountIndependent(t *testing.T) {
	space := exampleSpace(t)
	reference, err := Assemble(space, 4, WithWorkers(1))
	require.NoError(t, err)

	for workers := 2; workers <= 9; workers++ {
		h, err := Assemble(space, 4, WithWorkers(workers))
		require.NoError(t, err)
		assert.True(t, mat.Equal(reference, h), "workers=%d changed the matrix", workers)
	}

	// More workers than rows leaves most of them idle.
	small, _, err := lattice.Enumerate(2, 1, nil)
	require.NoError(t, err)
	a, err := Assemble(small, 2, WithWorkers(1))
	require.NoError(t, err)
	b, err := Assemble(small, 2, WithWorkers(16))
	require.NoError(t, err)
	assert.True(t, mat.Equal(a, b))
}

func TestAssembleProgress(t *testing.T) {
	space, _, err := lattice.Enumerate(3, 2, nil)
	require.NoError(t, err)
	var buf bytes.Buffer
	_, err = Assemble(space, 3, WithProgress(&buf), WithWorkers(3))
	require.NoError(t, err)
	assert.NotZero(t, buf.Len())
}

func TestAssembleErrors(t *testing.T) {
	space, _, err := lattice.Enumerate(2, 1, nil)
	require.NoError(t, err)
	_, err = Assemble(space, 0)
	assert.ErrorIs(t, err, ErrDimension)
}

func TestBlockDiagonal(t *testing.T) {
	lat, err := lattice.FromLabels(4, []int{7, 8, 10, 11, 12, 14, 15, 16})
	require.NoError(t, err)

	bd, err := BlockDiagonal(lat, 4, 3)
	require.NoError(t, err)

	// 1 + 8 + 28 + 56 states for 0..3 particles on 8 sites.
	r, c := bd.Dims()
	assert.Equal(t, 93, r)
	assert.Equal(t, 93, c)

	one, err := lat.States(1)
	require.NoError(t, err)
	h1, err := Assemble(one, 4)
	require.NoError(t, err)
	assert.True(t, mat.Equal(h1, bd.Slice(1, 9, 1, 9)))

	// Nothing couples different particle numbers.
	assert.Equal(t, 0.0, mat.Sum(bd.Slice(0, 9, 9, 93)))
	assert.True(t, mat.EqualApprox(bd, bd.T(), 0))
}

func TestBlockDiagonalCapsParticles(t *testing.T) {
	lat, err := lattice.FromLabels(2, []int{1, 2})
	require.NoError(t, err)
	bd, err := BlockDiagonal(lat, 2, 5)
	require.NoError(t, err)
	r, _ := bd.Dims()
	assert.Equal(t, 4, r)
}
