// Package lattice builds square lattices with deleted sites and enumerates
// the position states of indistinguishable particles on them.
package lattice

import (
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"
)

var (
	// ErrSize is returned for a lattice side length below 1.
	ErrSize = errors.New("lattice: size must be positive")

	// ErrDeletePosition is returned when a deletion position is outside 1..size².
	ErrDeletePosition = errors.New("lattice: delete position out of range")

	// ErrLabel is returned when an explicit label is outside 1..size² or repeated.
	ErrLabel = errors.New("lattice: invalid site label")

	// ErrParticles is returned when the particle count is negative or exceeds the available sites.
	ErrParticles = errors.New("lattice: invalid particle count")
)

// Lattice is a size×size square lattice with row-major labels 1..size².
// Deleted sites leave gaps; remaining labels are never renumbered.
type Lattice struct {
	size  int   // side length
	sites []int // remaining labels, ascending
}

// New creates a lattice of the given side length and deletes the sites at the given 1-based positions.
// Positions index the full label array, so position p removes label p. Repeated positions delete once.
func New(size int, deletePositions []int) (*Lattice, error) {
	if size < 1 {
		return nil, fmt.Errorf("%w: %d", ErrSize, size)
	}
	nol := size * size

	deleted := make(map[int]struct{}, len(deletePositions))
	for _, pos := range deletePositions {
		if pos < 1 || pos > nol {
			return nil, fmt.Errorf("%w: %d not in [1, %d]", ErrDeletePosition, pos, nol)
		}
		deleted[pos-1] = struct{}{}
	}

	sites := make([]int, 0, nol-len(deleted))
	for idx := 0; idx < nol; idx++ {
		if _, gone := deleted[idx]; gone {
			continue
		}
		sites = append(sites, idx+1)
	}

	log.Debug().Msgf("Created %dx%d lattice with %d sites after deleting %d", size, size, len(sites), len(deleted))
	return &Lattice{size: size, sites: sites}, nil
}

// FromLabels creates a lattice variant holding exactly the given labels of a size×size lattice.
func FromLabels(size int, labels []int) (*Lattice, error) {
	if size < 1 {
		return nil, fmt.Errorf("%w: %d", ErrSize, size)
	}
	nol := size * size
	sites := append([]int(nil), labels...)
	sort.Ints(sites)
	for i, label := range sites {
		if label < 1 || label > nol {
			return nil, fmt.Errorf("%w: %d not in [1, %d]", ErrLabel, label, nol)
		}
		if i > 0 && sites[i-1] == label {
			return nil, fmt.Errorf("%w: %d repeated", ErrLabel, label)
		}
	}
	return &Lattice{size: size, sites: sites}, nil
}

// Size returns the side length of the lattice, which is also the vertical hop distance between labels.
func (l *Lattice) Size() int { return l.size }

// Sites returns a copy of the remaining site labels in ascending order.
func (l *Lattice) Sites() []int { return append([]int(nil), l.sites...) }

// Len returns the number of remaining sites.
func (l *Lattice) Len() int { return len(l.sites) }

// Contains reports whether the label is a remaining site.
func (l *Lattice) Contains(label int) bool {
	i := sort.SearchInts(l.sites, label)
	return i < len(l.sites) && l.sites[i] == label
}

// Without returns the labels of l that are not sites of other.
func (l *Lattice) Without(other *Lattice) []int {
	var out []int
	for _, label := range l.sites {
		if !other.Contains(label) {
			out = append(out, label)
		}
	}
	return out
}
