// Package spectrum diagonalizes real symmetric Hamiltonians and keeps the
// eigenpairs sorted by ascending energy.
package spectrum

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/mat"
)

// symmetryTol bounds |h[i][j] - h[j][i]| for a matrix to count as symmetric.
const symmetryTol = 1e-10

var (
	// ErrNotSymmetric is returned when the input is not square or not symmetric.
	ErrNotSymmetric = errors.New("spectrum: matrix is not symmetric")

	// ErrFactorization is returned when the eigensolver fails.
	ErrFactorization = errors.New("spectrum: eigen decomposition failed")
)

// Decomposition holds eigenvalues in ascending order and the matching unit-norm eigenvectors as columns.
type Decomposition struct {
	Values  []float64   // eigenvalues, ascending
	Vectors *mat.CDense // column i belongs to Values[i]
}

// Diagonalize computes all eigenpairs of a real symmetric matrix.
// Eigenvalues are sorted ascending with a stable sort, so ties keep the solver's order,
// and the eigenvector columns are permuted the same way.
func Diagonalize(h mat.Matrix) (*Decomposition, error) {
	start := time.Now()
	sym, err := toSymmetric(h)
	if err != nil {
		return nil, err
	}
	n := sym.SymmetricDim()

	var es mat.EigenSym
	if ok := es.Factorize(sym, true); !ok {
		return nil, fmt.Errorf("%w: %dx%d matrix", ErrFactorization, n, n)
	}
	values := es.Values(nil)
	var ev mat.Dense
	es.VectorsTo(&ev)

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return values[order[a]] < values[order[b]]
	})

	dec := &Decomposition{
		Values:  make([]float64, n),
		Vectors: mat.NewCDense(n, n, nil),
	}
	for col, src := range order {
		dec.Values[col] = values[src]
		for row := 0; row < n; row++ {
			dec.Vectors.Set(row, col, complex(ev.At(row, src), 0))
		}
	}

	log.Debug().Msgf("Diagonalized %dx%d matrix in %s", n, n, time.Since(start))
	return dec, nil
}

// toSymmetric checks symmetry and returns a packed symmetric copy of h.
func toSymmetric(h mat.Matrix) (mat.Symmetric, error) {
	r, c := h.Dims()
	if r != c {
		return nil, fmt.Errorf("%w: non-square %dx%d", ErrNotSymmetric, r, c)
	}
	if s, ok := h.(mat.Symmetric); ok {
		return s, nil
	}
	for i := 0; i < r; i++ {
		for j := i + 1; j < c; j++ {
			if math.Abs(h.At(i, j)-h.At(j, i)) > symmetryTol {
				return nil, fmt.Errorf("%w: (%d, %d)", ErrNotSymmetric, i, j)
			}
		}
	}
	if d, ok := h.(*mat.Dense); ok {
		raw := d.RawMatrix()
		if raw.Stride == c {
			data := make([]float64, len(raw.Data))
			copy(data, raw.Data)
			return mat.NewSymDense(r, data), nil
		}
	}
	s := mat.NewSymDense(r, nil)
	for i := 0; i < r; i++ {
		for j := i; j < c; j++ {
			s.SetSym(i, j, h.At(i, j))
		}
	}
	return s, nil
}

// Len returns the number of eigenpairs.
func (d *Decomposition) Len() int { return len(d.Values) }

// Vector returns a copy of eigenvector i.
func (d *Decomposition) Vector(i int) []complex128 {
	n, _ := d.Vectors.Dims()
	v := make([]complex128, n)
	for row := range v {
		v[row] = d.Vectors.At(row, i)
	}
	return v
}

// Trace returns the sum of the eigenvalues.
func (d *Decomposition) Trace() float64 {
	var sum float64
	for _, v := range d.Values {
		sum += v
	}
	return sum
}

// serializedDecomposition is the gob form of a Decomposition.
type serializedDecomposition struct {
	Values []float64
	Rows   int
	Cols   int
	Data   []complex128
}

// GobEncode serializes the decomposition using the gob encoder.
func (d *Decomposition) GobEncode() ([]byte, error) {
	rows, cols := d.Vectors.Dims()
	raw := d.Vectors.RawCMatrix()
	sd := serializedDecomposition{
		Values: d.Values,
		Rows:   rows,
		Cols:   cols,
		Data:   make([]complex128, 0, rows*cols),
	}
	for i := 0; i < rows; i++ {
		sd.Data = append(sd.Data, raw.Data[i*raw.Stride:i*raw.Stride+cols]...)
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(sd); err != nil {
		log.Error().Err(err).Msg("Failed to encode decomposition")
		return nil, err
	}
	return buf.Bytes(), nil
}

// GobDecode deserializes data into the decomposition using the gob decoder.
func (d *Decomposition) GobDecode(data []byte) error {
	var sd serializedDecomposition
	if err := gob.NewDecoder(bytes.NewBuffer(data)).Decode(&sd); err != nil {
		log.Error().Err(err).Msg("Failed to decode decomposition")
		return err
	}
	if sd.Rows == 0 || sd.Cols == 0 {
		return fmt.Errorf("spectrum: corrupt decomposition: empty %dx%d eigenvector matrix", sd.Rows, sd.Cols)
	}
	if sd.Rows*sd.Cols != len(sd.Data) || sd.Cols != len(sd.Values) {
		return fmt.Errorf("spectrum: corrupt decomposition: %dx%d with %d values and %d entries",
			sd.Rows, sd.Cols, len(sd.Values), len(sd.Data))
	}
	d.Values = sd.Values
	d.Vectors = mat.NewCDense(sd.Rows, sd.Cols, sd.Data)
	return nil
}

// Save writes the decomposition to w.
func (d *Decomposition) Save(w io.Writer) error {
	return gob.NewEncoder(w).Encode(d)
}

// Load reads a decomposition previously written by Save.
func (d *Decomposition) Load(r io.Reader) error {
	return gob.NewDecoder(r).Decode(d)
}
