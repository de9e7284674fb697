package density

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/cblas128"
	"gonum.org/v1/gonum/mat"
)

// Transform rotates rho into the basis given by the columns of u, returning U†ρU.
// The columns of u are usually the eigenvectors of the block-diagonal Hamiltonian
// of the kept sub-lattice, which turns a position-basis matrix into the energy basis.
// A result that is not Hermitian is returned with a HermiticityWarning.
func Transform(rho, u *mat.CDense) (*Result, error) {
	n, c := rho.Dims()
	ur, uc := u.Dims()
	if n != c || ur != n || uc != n {
		return nil, fmt.Errorf("%w: rho %dx%d, basis %dx%d", ErrDimension, n, c, ur, uc)
	}

	tmp := mat.NewCDense(n, n, nil)
	out := mat.NewCDense(n, n, nil)
	cblas128.Gemm(blas.NoTrans, blas.NoTrans, 1, rho.RawCMatrix(), u.RawCMatrix(), 0, tmp.RawCMatrix())
	cblas128.Gemm(blas.ConjTrans, blas.NoTrans, 1, u.RawCMatrix(), tmp.RawCMatrix(), 0, out.RawCMatrix())

	res := newResult(out, "transformed density matrix")
	if !IsHermitian(out) {
		res.Warnings = append(res.Warnings, Warning{
			Kind:    HermiticityWarning,
			Message: "transformed density matrix is not Hermitian",
			Value:   maxHermitianDeviation(out),
		})
	}
	return res, nil
}

// Thermalization returns the largest diagonal and the largest off-diagonal real part of rho.
// Only real parts are compared, so the imaginary parts of off-diagonal entries do not count.
// A matrix in the energy basis whose diagonal dominates is a rough sign of equilibration.
// rho is not modified.
func Thermalization(rho *mat.CDense) (maxDiag, maxOffDiag float64) {
	n, _ := rho.Dims()
	work := make([]float64, n*n)
	maxDiag = math.Inf(-1)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			work[i*n+j] = real(rho.At(i, j))
		}
		maxDiag = math.Max(maxDiag, work[i*n+i])
		work[i*n+i] = math.Inf(-1)
	}

	maxOffDiag = math.Inf(-1)
	for _, v := range work {
		maxOffDiag = math.Max(maxOffDiag, v)
	}
	return maxDiag, maxOffDiag
}

// maxHermitianDeviation returns max |m[i][j] - conj(m[j][i])|.
func maxHermitianDeviation(m *mat.CDense) float64 {
	n, _ := m.Dims()
	var worst float64
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := m.At(i, j) - complex(real(m.At(j, i)), -imag(m.At(j, i)))
			worst = math.Max(worst, math.Hypot(real(d), imag(d)))
		}
	}
	return worst
}
