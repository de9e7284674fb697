package evolution

import (
	"math"
	"math/cmplx"
	"math/rand"
	"testing"

	"github.com/patrikhermansson/thermal/density"
	"github.com/patrikhermansson/thermal/hamiltonian"
	"github.com/patrikhermansson/thermal/lattice"
	"github.com/patrikhermansson/thermal/spectrum"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

var (
	exampleDeletes  = []int{3, 4, 9, 13}
	exampleDeletesA = []int{3, 4, 9, 13, 7, 8, 10, 11, 12, 14, 15, 16}
)

func diagonalized(t *testing.T, deletes []int) (*lattice.StateSpace, *mat.Dense, *spectrum.Decomposition) {
	t.Helper()
	space, _, err := lattice.Enumerate(4, 3, deletes)
	require.NoError(t, err)
	h, err := hamiltonian.Assemble(space, 4)
	require.NoError(t, err)
	dec, err := spectrum.Diagonalize(h)
	require.NoError(t, err)
	return space, h, dec
}

func norm2(v []complex128) float64 {
	var s float64
	for _, c := range v {
		s += real(c)*real(c) + imag(c)*imag(c)
	}
	return s
}

func TestTimes(t *testing.T) {
	assert.Equal(t, []float64{0, 50, 100, 150, 200}, Times(0, 200, 5))
	assert.Equal(t, []float64{3}, Times(3, 10, 1))
	assert.Nil(t, Times(0, 1, 0))
	assert.Len(t, Times(0, 200, 100), 100)
}

func TestEmbed(t *testing.T) {
	full, _, _ := diagonalized(t, exampleDeletes)
	sub, _, decA := diagonalized(t, exampleDeletesA)
	require.Equal(t, 4, sub.Len())

	idx, vec := RandomEigenvector(decA, rand.New(rand.NewSource(1)))
	assert.GreaterOrEqual(t, idx, 0)
	assert.Less(t, idx, decA.Len())

	psi, err := Embed(sub, vec, full)
	require.NoError(t, err)
	require.Len(t, psi, full.Len())
	assert.InDelta(t, 1.0, norm2(psi), 1e-12)
	for i := 0; i < sub.Len(); i++ {
		assert.Equal(t, vec[i], psi[full.Index(sub.State(i))])
	}

	_, err = Embed(full, make([]complex128, full.Len()), sub)
	assert.ErrorIs(t, err, ErrStateMissing)

	_, err = Embed(sub, vec[:2], full)
	assert.ErrorIs(t, err, ErrLength)
}

func TestEvolveEigenstateOnlyGainsPhase(t *testing.T) {
	_, _, dec := diagonalized(t, exampleDeletes)
	psi0 := dec.Vector(7)
	times := Times(0, 10, 6)

	states, err := Evolve(dec, psi0, times, WithWorkers(3))
	require.NoError(t, err)
	require.Len(t, states, len(times))
	for k, psi := range states {
		phase := cmplx.Exp(complex(0, -dec.Values[7]*times[k]))
		for i := range psi {
			require.Less(t, cmplx.Abs(psi[i]-phase*psi0[i]), 1e-9, "t=%g i=%d", times[k], i)
		}
	}
}

func TestEvolveMatchesSchrodinger(t *testing.T) {
	full, h, dec := diagonalized(t, exampleDeletes)
	psi0 := make([]complex128, full.Len())
	psi0[0] = 1

	dt := 1e-4
	states, err := Evolve(dec, psi0, []float64{0, dt})
	require.NoError(t, err)

	// ψ(dt) ≈ ψ(0) - i·dt·H·ψ(0)
	for i := range psi0 {
		var hpsi complex128
		for j := range psi0 {
			hpsi += complex(h.At(i, j), 0) * psi0[j]
		}
		want := psi0[i] - complex(0, dt)*hpsi
		assert.Less(t, cmplx.Abs(states[1][i]-want), 1e-6, "component %d", i)
	}
	for _, psi := range states {
		assert.InDelta(t, 1.0, norm2(psi), 1e-9)
	}
}

func TestEvolveWorkerCountIndependent(t *testing.T) {
	_, _, dec := diagonalized(t, exampleDeletes)
	psi0 := dec.Vector(0)
	for i := range psi0 {
		psi0[i] = (psi0[i] + dec.Vector(1)[i]) / complex(math.Sqrt2, 0)
	}
	times := Times(0, 20, 9)
	a, err := Evolve(dec, psi0, times, WithWorkers(1))
	require.NoError(t, err)
	b, err := Evolve(dec, psi0, times, WithWorkers(4))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestEntropyTrajectory(t *testing.T) {
	full, _, dec := diagonalized(t, exampleDeletes)
	sub, _, decA := diagonalized(t, exampleDeletesA)
	table := density.Relabel(full, 3, 8, []int{1, 2, 5, 6})

	psi0, err := Embed(sub, decA.Vector(0), full)
	require.NoError(t, err)
	times := Times(0, 200, 11)
	states, err := Evolve(dec, psi0, times)
	require.NoError(t, err)

	traj, err := Entropy(table, states, times, density.B, 8, 3, WithWorkers(2))
	require.NoError(t, err)
	require.Len(t, traj.Entropy, len(times))
	assert.Empty(t, traj.Warnings)

	// All particles start on A, so B is empty and unentangled.
	assert.InDelta(t, 0.0, traj.Entropy[0], 1e-9)
	assert.InDelta(t, 1.0, traj.Purity[0], 1e-9)
	for k, s := range traj.Entropy {
		assert.GreaterOrEqual(t, s, -1e-12, "t=%g", times[k])
		assert.LessOrEqual(t, traj.Purity[k], 1+1e-9)
	}
	assert.Greater(t, traj.Final(), 0.0)

	_, err = Entropy(table, states[:2], times, density.B, 8, 3)
	assert.ErrorIs(t, err, ErrLength)
}
