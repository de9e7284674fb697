package density

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"
)

// TraceTolerance is the allowed deviation of a density matrix trace from 1.
const TraceTolerance = 0.1

// Tolerances of the Hermiticity check, the numpy allclose defaults.
const (
	hermitianRTol = 1e-5
	hermitianATol = 1e-8
)

var (
	// ErrLength is returned when a state vector does not match the label table.
	ErrLength = errors.New("density: state vector length does not match label table")

	// ErrLabelRange is returned when a label points outside the density matrix.
	ErrLabelRange = errors.New("density: label outside density matrix")

	// ErrDimension is returned for matrices of incompatible shapes.
	ErrDimension = errors.New("density: dimension mismatch")

	// ErrWeights is returned when ensemble weights do not match the states.
	ErrWeights = errors.New("density: invalid ensemble weights")

	// ErrFactorization is returned when the spectrum of a density matrix cannot be computed.
	ErrFactorization = errors.New("density: eigen decomposition failed")
)

// WarningKind classifies a numerical tolerance violation.
type WarningKind int

const (
	// TraceWarning means the trace deviates from 1 by more than TraceTolerance.
	TraceWarning WarningKind = iota + 1
	// HermiticityWarning means the matrix is not Hermitian within tolerance.
	HermiticityWarning
)

// String returns the name of the warning kind.
func (k WarningKind) String() string {
	switch k {
	case TraceWarning:
		return "trace"
	case HermiticityWarning:
		return "hermiticity"
	default:
		return fmt.Sprintf("WarningKind(%d)", int(k))
	}
}

// Warning is a non-fatal tolerance violation. The computation that raised it still returns its value.
type Warning struct {
	Kind    WarningKind
	Message string
	Value   float64
}

// String formats the warning for logs.
func (w Warning) String() string {
	return fmt.Sprintf("%s: %s (%g)", w.Kind, w.Message, w.Value)
}

// Result is a density matrix together with its trace and any tolerance warnings.
type Result struct {
	Rho      *mat.CDense
	Trace    float64
	Warnings []Warning
}

// Purity returns Tr(ρ²), which is 1 for a pure state.
func (r *Result) Purity() float64 {
	n, _ := r.Rho.Dims()
	var sum float64
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			sum += real(r.Rho.At(i, j) * r.Rho.At(j, i))
		}
	}
	return sum
}

// newResult computes the trace of rho and records a warning when it is not 1.
func newResult(rho *mat.CDense, what string) *Result {
	res := &Result{Rho: rho, Trace: realTrace(rho)}
	if math.Abs(res.Trace-1) > TraceTolerance {
		res.Warnings = append(res.Warnings, Warning{
			Kind:    TraceWarning,
			Message: fmt.Sprintf("trace of %s not 1", what),
			Value:   res.Trace,
		})
	}
	return res
}

func realTrace(m *mat.CDense) float64 {
	n, _ := m.Dims()
	var tr float64
	for i := 0; i < n; i++ {
		tr += real(m.At(i, i))
	}
	return tr
}

// IsHermitian reports whether m equals its conjugate transpose within the allclose tolerances.
func IsHermitian(m *mat.CDense) bool {
	r, c := m.Dims()
	if r != c {
		return false
	}
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			a, b := cmplx.Conj(m.At(j, i)), m.At(i, j)
			if cmplx.Abs(a-b) > hermitianATol+hermitianRTol*cmplx.Abs(b) {
				return false
			}
		}
	}
	return true
}
