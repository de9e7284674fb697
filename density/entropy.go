package density

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// entropyCutoff drops eigenvalues that are zero up to rounding, where λ ln λ → 0.
const entropyCutoff = 1e-12

// Eigenvalues returns the eigenvalues of the Hermitian matrix rho in ascending order.
// rho = X + iY is embedded as the real symmetric matrix [[X, -Y], [Y, X]],
// whose spectrum is that of rho with every value repeated twice.
func Eigenvalues(rho *mat.CDense) ([]float64, error) {
	n, c := rho.Dims()
	if n != c {
		return nil, fmt.Errorf("%w: non-square %dx%d", ErrDimension, n, c)
	}
	embed := mat.NewSymDense(2*n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			v := rho.At(i, j)
			embed.SetSym(i, j, real(v))
			embed.SetSym(n+i, n+j, real(v))
		}
		for j := 0; j < n; j++ {
			// Lower-left block Y, mirrored to the upper-right as -Y.
			embed.SetSym(i, n+j, -imag(rho.At(i, j)))
		}
	}

	var es mat.EigenSym
	if ok := es.Factorize(embed, false); !ok {
		return nil, fmt.Errorf("%w: %dx%d density matrix", ErrFactorization, n, n)
	}
	doubled := es.Values(nil)
	sort.Float64s(doubled)
	values := make([]float64, n)
	for i := range values {
		values[i] = doubled[2*i]
	}
	return values, nil
}

// VonNeumann returns the entanglement entropy -Tr(ρ ln ρ) of a Hermitian density matrix.
func VonNeumann(rho *mat.CDense) (float64, error) {
	values, err := Eigenvalues(rho)
	if err != nil {
		return 0, err
	}
	var s float64
	for _, v := range values {
		if v > entropyCutoff {
			s -= v * math.Log(v)
		}
	}
	return s, nil
}
